// Package canvas provides a layered terminal cell grid that the chart,
// spectrum and seek cursor draw on.
package canvas

import (
	"errors"
	"strings"
)

// ErrSurfaceMissing is returned when drawing is attempted without a usable surface.
var ErrSurfaceMissing = errors.New("drawing surface missing")

// Rect is a bounding box in screen cells.
type Rect struct {
	X, Y          int
	Width, Height int
}

// Empty reports whether the box has no area.
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// Contains reports whether a screen cell lies inside the box.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Layer orders what is drawn on top of what.
type Layer int

const (
	LayerChart Layer = iota
	LayerSpectrum
	LayerCursor
	layerCount
)

type cell struct {
	r   rune
	c   RGB
	set bool
}

// Surface is a grid of cells split into layers. Coordinates passed to Set
// are relative to the surface origin.
type Surface struct {
	bounds  Rect
	layers  [layerCount][]cell
	profile colorProfile
}

// New allocates a surface covering bounds.
func New(bounds Rect) (*Surface, error) {
	if bounds.Empty() {
		return nil, ErrSurfaceMissing
	}
	s := &Surface{bounds: bounds, profile: currentColorProfile()}
	for i := range s.layers {
		s.layers[i] = make([]cell, bounds.Width*bounds.Height)
	}
	return s, nil
}

// Bounds returns the screen box.
func (s *Surface) Bounds() Rect { return s.bounds }

// Width returns the number of columns.
func (s *Surface) Width() int { return s.bounds.Width }

// Height returns the number of rows.
func (s *Surface) Height() int { return s.bounds.Height }

// Set draws one cell. Out-of-range coordinates are ignored.
func (s *Surface) Set(l Layer, x, y int, r rune, c RGB) {
	if x < 0 || y < 0 || x >= s.bounds.Width || y >= s.bounds.Height {
		return
	}
	s.layers[l][y*s.bounds.Width+x] = cell{r: r, c: c, set: true}
}

// At returns the rune drawn on a layer, if any.
func (s *Surface) At(l Layer, x, y int) (rune, bool) {
	if x < 0 || y < 0 || x >= s.bounds.Width || y >= s.bounds.Height {
		return 0, false
	}
	c := s.layers[l][y*s.bounds.Width+x]
	return c.r, c.set
}

// ClearLayer erases one layer.
func (s *Surface) ClearLayer(l Layer) {
	clear(s.layers[l])
}

// Clear erases every layer.
func (s *Surface) Clear() {
	for l := range s.layers {
		clear(s.layers[l])
	}
}

// Render composites the layers, topmost first, into terminal text.
func (s *Surface) Render() string {
	var sb strings.Builder
	color := newANSIState(s.profile)
	w := s.bounds.Width
	for y := range s.bounds.Height {
		if y > 0 {
			sb.WriteByte('\n')
		}
		for x := range w {
			idx := y*w + x
			drawn := false
			for l := layerCount - 1; l >= 0; l-- {
				c := s.layers[l][idx]
				if !c.set {
					continue
				}
				color.set(&sb, c.c)
				sb.WriteRune(c.r)
				drawn = true
				break
			}
			if !drawn {
				sb.WriteByte(' ')
			}
		}
		color.reset(&sb)
	}
	return sb.String()
}
