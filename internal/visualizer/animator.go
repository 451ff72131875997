// Package visualizer draws the live frequency spectrum over the waveform
// chart while a track plays.
package visualizer

import "github.com/olivier-w/wavedeck/internal/canvas"

// FrequencySource supplies analyser snapshots. *audio.Analyser satisfies it.
type FrequencySource interface {
	FrequencyBinCount() int
	ByteFrequencyData(dst []uint8)
}

const (
	barGlyph  = '┃'
	twinGlyph = '╏'

	springFrequency = 9.0
	springDamping   = 0.75
)

// bar is one drawable column. Bars are allocated once per layout and
// rebound to new magnitudes every frame.
type bar struct {
	x      int
	lo, hi int
	height float64
	color  canvas.RGB
}

// Animator samples a FrequencySource once per frame and draws a bar chart
// growing up from the centre row plus its mirrored twin growing down.
type Animator struct {
	surface *canvas.Surface
	src     FrequencySource
	fps     int
	running bool

	data    []uint8
	bars    []bar
	springs springBank
}

// NewAnimator returns a stopped animator drawing on s.
func NewAnimator(s *canvas.Surface, fps int) *Animator {
	return &Animator{surface: s, fps: fps, springs: newSpringBank(fps, springFrequency, springDamping)}
}

// SetSurface moves the animator onto a new surface. The bar layout is
// rebuilt on the next frame.
func (a *Animator) SetSurface(s *canvas.Surface) {
	a.surface = s
	a.bars = a.bars[:0]
}

// Running reports whether frames are being drawn.
func (a *Animator) Running() bool { return a.running }

// Start binds the animator to src and enables drawing. Restarting with the
// same source keeps the existing bar layout.
func (a *Animator) Start(src FrequencySource) {
	if src != a.src {
		a.bars = a.bars[:0]
	}
	a.src = src
	a.running = true
}

// Stop halts drawing. It is safe to call when not running.
func (a *Animator) Stop() {
	a.running = false
}

// Clear wipes the spectrum layer and lets the bars fall back to zero.
func (a *Animator) Clear() {
	a.springs.settle()
	if a.surface != nil {
		a.surface.ClearLayer(canvas.LayerSpectrum)
	}
}

// Frame reads one snapshot and redraws every bar in place. It does
// nothing unless the animator is running.
func (a *Animator) Frame() {
	if !a.running || a.src == nil || a.surface == nil {
		return
	}
	a.layout()
	if len(a.bars) == 0 {
		return
	}

	a.src.ByteFrequencyData(a.data)
	for i := range a.bars {
		b := &a.bars[i]
		var peak uint8
		for _, v := range a.data[b.lo:b.hi] {
			peak = max(peak, v)
		}
		b.height = a.springs.step(i, float64(peak)/255)
		b.color = canvas.Sequential(b.height)
	}
	a.draw()
}

// Heights copies the current bar heights into dst, for inspection.
func (a *Animator) Heights(dst []float64) []float64 {
	dst = dst[:0]
	for _, b := range a.bars {
		dst = append(dst, b.height)
	}
	return dst
}

// layout maps bin indices linearly onto columns. A column gathers every
// bin that lands on it.
func (a *Animator) layout() {
	bins := a.src.FrequencyBinCount()
	w := a.surface.Width()
	cols := min(bins, w)
	if bins <= 0 || cols <= 0 {
		a.bars = a.bars[:0]
		return
	}
	if len(a.data) != bins {
		a.data = make([]uint8, bins)
	}
	if len(a.bars) == cols {
		return
	}

	a.bars = make([]bar, cols)
	for i := range a.bars {
		lo := i * bins / cols
		hi := max((i+1)*bins/cols, lo+1)
		a.bars[i] = bar{x: i * w / cols, lo: lo, hi: hi}
	}
	a.springs.resize(cols)
}

func (a *Animator) draw() {
	s := a.surface
	s.ClearLayer(canvas.LayerSpectrum)
	mid := s.Height() / 2
	half := max(mid, 1)
	for _, b := range a.bars {
		rows := int(b.height*float64(half) + 0.5)
		for k := range rows {
			s.Set(canvas.LayerSpectrum, b.x, mid-1-k, barGlyph, b.color)
			s.Set(canvas.LayerSpectrum, b.x, mid+k, twinGlyph, b.color)
		}
	}
}
