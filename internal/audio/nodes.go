package audio

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/mjibson/go-dsp/fft"
)

// node transforms a stereo block on its way to the destination.
type node interface {
	process(left, right []float32)
}

// GainNode scales amplitude by a runtime-adjustable factor.
type GainNode struct {
	bits atomic.Uint64
}

func newGainNode(v float64) *GainNode {
	g := &GainNode{}
	g.Set(v)
	return g
}

// Value returns the multiplier.
func (g *GainNode) Value() float64 { return math.Float64frombits(g.bits.Load()) }

// Set changes the multiplier. Negative values invert the signal.
func (g *GainNode) Set(v float64) { g.bits.Store(math.Float64bits(v)) }

func (g *GainNode) process(left, right []float32) {
	v := float32(g.Value())
	for i := range left {
		left[i] *= v
		right[i] *= v
	}
}

const (
	analyserMinDecibels = -100.0
	analyserMaxDecibels = -30.0
)

// Analyser exposes frequency magnitudes of the signal passing through it
// without altering the signal.
type Analyser struct {
	fftSize   int
	smoothing float64

	mu       sync.Mutex
	ring     []float64
	w        int
	window   []float64
	input    []float64
	smoothed []float64
}

// NewAnalyser creates an analyser. fftSize must be a power of two.
func NewAnalyser(fftSize int, smoothing float64) *Analyser {
	if smoothing < 0 || smoothing >= 1 {
		smoothing = 0.8
	}
	window := make([]float64, fftSize)
	for i := range window {
		// Hann window
		window[i] = 0.5 * (1.0 - math.Cos(2.0*math.Pi*float64(i)/float64(fftSize-1)))
	}
	return &Analyser{
		fftSize:   fftSize,
		smoothing: smoothing,
		ring:      make([]float64, fftSize),
		window:    window,
		input:     make([]float64, fftSize),
		smoothed:  make([]float64, fftSize/2),
	}
}

// FFTSize returns the transform length.
func (a *Analyser) FFTSize() int { return a.fftSize }

// FrequencyBinCount returns fftSize/2.
func (a *Analyser) FrequencyBinCount() int { return a.fftSize / 2 }

func (a *Analyser) process(left, right []float32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range left {
		a.ring[a.w] = float64(left[i]+right[i]) / 2
		a.w = (a.w + 1) % a.fftSize
	}
}

// ByteFrequencyData fills dst with the current spectrum, one byte per bin,
// scaled between the analyser's minimum and maximum decibels.
func (a *Analyser) ByteFrequencyData(dst []uint8) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i := range a.fftSize {
		a.input[i] = a.ring[(a.w+i)%a.fftSize] * a.window[i]
	}
	spectrum := fft.FFTReal(a.input)

	scale := 255 / (analyserMaxDecibels - analyserMinDecibels)
	n := min(len(dst), len(a.smoothed))
	for k := range len(a.smoothed) {
		re, im := real(spectrum[k]), imag(spectrum[k])
		mag := math.Sqrt(re*re+im*im) / float64(a.fftSize)
		a.smoothed[k] = a.smoothing*a.smoothed[k] + (1-a.smoothing)*mag
		if k >= n {
			continue
		}
		if a.smoothed[k] <= 0 {
			dst[k] = 0
			continue
		}
		db := 20 * math.Log10(a.smoothed[k])
		v := (db - analyserMinDecibels) * scale
		switch {
		case v <= 0:
			dst[k] = 0
		case v >= 255:
			dst[k] = 255
		default:
			dst[k] = uint8(v)
		}
	}
}
