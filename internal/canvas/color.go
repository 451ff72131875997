package canvas

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"
)

type colorProfile uint8

const (
	colorNone colorProfile = iota
	colorANSI16
	colorANSI256
	colorTrueColor
)

// RGB is a 24-bit colour.
type RGB struct {
	R uint8
	G uint8
	B uint8
}

// Hex parses "#RRGGBB". Malformed input yields black.
func Hex(s string) RGB {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return RGB{}
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return RGB{}
	}
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}
}

var (
	profileOnce sync.Once
	profile     colorProfile
	seqCache    sync.Map
)

func currentColorProfile() colorProfile {
	profileOnce.Do(func() {
		if _, disabled := os.LookupEnv("NO_COLOR"); disabled {
			profile = colorNone
			return
		}
		term := strings.ToLower(os.Getenv("TERM"))
		colorTerm := strings.ToLower(os.Getenv("COLORTERM"))
		switch {
		case strings.Contains(colorTerm, "truecolor"), strings.Contains(colorTerm, "24bit"):
			profile = colorTrueColor
		case strings.Contains(term, "256color"):
			profile = colorANSI256
		case term == "", term == "dumb":
			profile = colorNone
		default:
			profile = colorANSI16
		}
	})
	return profile
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Lerp blends a towards b by t in [0, 1].
func Lerp(a, b RGB, t float64) RGB {
	t = clamp01(t)
	return RGB{
		R: uint8(float64(a.R) + (float64(b.R)-float64(a.R))*t),
		G: uint8(float64(a.G) + (float64(b.G)-float64(a.G))*t),
		B: uint8(float64(a.B) + (float64(b.B)-float64(a.B))*t),
	}
}

// Sequential maps t in [0, 1] onto a cool-to-hot palette.
func Sequential(t float64) RGB {
	t = clamp01(t)
	switch {
	case t < 0.25:
		return Lerp(RGB{R: 16, G: 25, B: 70}, RGB{R: 0, G: 174, B: 255}, t/0.25)
	case t < 0.5:
		return Lerp(RGB{R: 0, G: 174, B: 255}, RGB{R: 20, G: 255, B: 161}, (t-0.25)/0.25)
	case t < 0.75:
		return Lerp(RGB{R: 20, G: 255, B: 161}, RGB{R: 255, G: 230, B: 92}, (t-0.5)/0.25)
	default:
		return Lerp(RGB{R: 255, G: 230, B: 92}, RGB{R: 255, G: 80, B: 60}, (t-0.75)/0.25)
	}
}

type ansiState struct {
	profile colorProfile
	current uint32
}

func newANSIState(p colorProfile) ansiState {
	return ansiState{profile: p, current: ^uint32(0)}
}

func (s *ansiState) set(sb *strings.Builder, c RGB) {
	if s.profile == colorNone {
		return
	}
	key := uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
	if key == s.current {
		return
	}
	sb.WriteString(colorSequence(s.profile, c))
	s.current = key
}

func (s *ansiState) reset(sb *strings.Builder) {
	if s.profile == colorNone || s.current == ^uint32(0) {
		return
	}
	sb.WriteString("\x1b[0m")
	s.current = ^uint32(0)
}

var ansi16Palette = []RGB{
	{R: 0, G: 0, B: 0},
	{R: 205, G: 49, B: 49},
	{R: 13, G: 188, B: 121},
	{R: 229, G: 229, B: 16},
	{R: 36, G: 114, B: 200},
	{R: 188, G: 63, B: 188},
	{R: 17, G: 168, B: 205},
	{R: 229, G: 229, B: 229},
}

func colorSequence(p colorProfile, c RGB) string {
	key := uint32(p)<<24 | uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
	if seq, ok := seqCache.Load(key); ok {
		return seq.(string)
	}

	var seq string
	switch p {
	case colorTrueColor:
		seq = fmt.Sprintf("\x1b[38;2;%d;%d;%dm", c.R, c.G, c.B)
	case colorANSI256:
		r := int(c.R) * 5 / 255
		g := int(c.G) * 5 / 255
		b := int(c.B) * 5 / 255
		seq = fmt.Sprintf("\x1b[38;5;%dm", 16+36*r+6*g+b)
	case colorANSI16:
		best := 0
		bestDist := math.MaxFloat64
		for i, q := range ansi16Palette {
			dr := float64(c.R) - float64(q.R)
			dg := float64(c.G) - float64(q.G)
			db := float64(c.B) - float64(q.B)
			if d := dr*dr + dg*dg + db*db; d < bestDist {
				bestDist = d
				best = i
			}
		}
		seq = fmt.Sprintf("\x1b[%dm", 30+best)
	}

	seqCache.Store(key, seq)
	return seq
}
