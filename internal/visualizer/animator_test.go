package visualizer

import (
	"testing"

	"github.com/olivier-w/wavedeck/internal/canvas"
)

type constSource struct {
	bins  int
	level uint8
	reads int
}

func (c *constSource) FrequencyBinCount() int { return c.bins }

func (c *constSource) ByteFrequencyData(dst []uint8) {
	c.reads++
	for i := range dst {
		dst[i] = c.level
	}
}

func newSurface(t *testing.T, w, h int) *canvas.Surface {
	t.Helper()
	s, err := canvas.New(canvas.Rect{Width: w, Height: h})
	if err != nil {
		t.Fatalf("canvas.New: %v", err)
	}
	return s
}

func TestFrameDrawsMirroredBars(t *testing.T) {
	s := newSurface(t, 16, 8)
	a := NewAnimator(s, 30)
	src := &constSource{bins: 128, level: 255}
	a.Start(src)
	for range 120 {
		a.Frame()
	}

	heights := a.Heights(nil)
	if len(heights) != 16 {
		t.Fatalf("got %d bars, want 16", len(heights))
	}
	for i, h := range heights {
		if h < 0.9 || h > 1 {
			t.Fatalf("bar %d height = %v, want near 1", i, h)
		}
	}
	if r, ok := s.At(canvas.LayerSpectrum, 0, 0); !ok || r != barGlyph {
		t.Fatalf("top cell = %q, %v; want bar glyph", r, ok)
	}
	if r, ok := s.At(canvas.LayerSpectrum, 0, 7); !ok || r != twinGlyph {
		t.Fatalf("bottom cell = %q, %v; want twin glyph", r, ok)
	}
}

func TestStopIsIdempotentAndFreezesFrames(t *testing.T) {
	s := newSurface(t, 16, 8)
	a := NewAnimator(s, 30)
	a.Stop()

	src := &constSource{bins: 128, level: 200}
	a.Start(src)
	a.Frame()
	a.Stop()
	a.Stop()
	if a.Running() {
		t.Fatal("animator still running after Stop")
	}
	reads := src.reads
	a.Frame()
	if src.reads != reads {
		t.Fatal("Frame sampled the source while stopped")
	}
}

func TestFrameDoesNotAllocate(t *testing.T) {
	s := newSurface(t, 32, 10)
	a := NewAnimator(s, 30)
	a.Start(&constSource{bins: 128, level: 90})
	a.Frame()

	if allocs := testing.AllocsPerRun(50, a.Frame); allocs != 0 {
		t.Fatalf("Frame allocated %v times per run", allocs)
	}
}

func TestClearWipesSpectrumLayer(t *testing.T) {
	s := newSurface(t, 8, 6)
	a := NewAnimator(s, 30)
	a.Start(&constSource{bins: 16, level: 255})
	for range 30 {
		a.Frame()
	}
	a.Stop()
	a.Clear()
	for x := range 8 {
		for y := range 6 {
			if _, ok := s.At(canvas.LayerSpectrum, x, y); ok {
				t.Fatalf("cell (%d,%d) still drawn after Clear", x, y)
			}
		}
	}
}
