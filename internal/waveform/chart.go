package waveform

import (
	"math"
	"unicode/utf8"

	"github.com/olivier-w/wavedeck/internal/canvas"
)

var (
	barColor   = canvas.Hex("#03A300")
	gridColor  = canvas.Hex("#D6E5D6")
	labelColor = canvas.Hex("#95A17D")
)

const gridColumns = 10

// DrawChart renders grid lines, amplitude bars centred on the middle row and
// the time axis along the bottom row of the chart layer.
func DrawChart(s *canvas.Surface, p Profile, labels []string) {
	s.ClearLayer(canvas.LayerChart)
	w, h := s.Width(), s.Height()
	chartH := h
	if len(labels) > 0 && h > 1 {
		chartH = h - 1
	}

	drawGrid(s, w, chartH)
	drawBars(s, p, w, chartH)
	if chartH < h {
		drawLabels(s, labels, w, h-1)
	}
}

func drawGrid(s *canvas.Surface, w, h int) {
	for i := 1; i < gridColumns; i++ {
		x := i * w / gridColumns
		for y := range h {
			s.Set(canvas.LayerChart, x, y, '┊', gridColor)
		}
	}
	for _, frac := range []float64{0.25, 0.75} {
		y := int(frac * float64(h))
		for x := range w {
			s.Set(canvas.LayerChart, x, y, '┄', gridColor)
		}
	}
}

// drawBars resamples the profile to one column per cell and scales the
// profile's extent onto the chart height.
func drawBars(s *canvas.Surface, p Profile, w, h int) {
	if len(p) == 0 || w == 0 {
		return
	}
	lo, hi := p[0], p[0]
	for _, v := range p {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	span := hi - lo

	segment := float64(len(p)) / float64(w)
	mid := float64(h) / 2
	for x := range w {
		start := int(float64(x) * segment)
		end := int(float64(x+1) * segment)
		if end <= start {
			end = start + 1
		}
		if start >= len(p) {
			break
		}
		end = min(end, len(p))
		sum := 0.0
		for _, v := range p[start:end] {
			sum += v
		}
		avg := sum / float64(end-start)

		level := avg
		if span > 0 {
			level = (avg - lo) / span
		}
		half := level * mid
		top := int(mid - half + 0.5)
		bottom := int(mid + half + 0.5)
		if bottom == top && avg > 0 {
			bottom = top + 1
		}
		for y := max(top, 0); y < min(bottom, h); y++ {
			s.Set(canvas.LayerChart, x, y, '█', barColor)
		}
	}
}

// drawLabels spreads the labels over equal bands, each centred in its band.
// When the bands are narrower than a label only every stride-th label is
// drawn, and a label never overlaps the one before it.
func drawLabels(s *canvas.Surface, labels []string, w, row int) {
	if len(labels) == 0 || w <= 0 {
		return
	}
	band := float64(w) / float64(len(labels))
	free := 0
	for i, label := range labels {
		n := utf8.RuneCountInString(label)
		stride := max(int(math.Ceil(float64(n+1)/band)), 1)
		if i%stride != 0 {
			continue
		}
		center := int(band*float64(i) + band/2)
		x := min(max(center-n/2, 0), w-n)
		if x < free {
			continue
		}
		j := 0
		for _, r := range label {
			s.Set(canvas.LayerChart, x+j, row, r, labelColor)
			j++
		}
		free = x + n + 1
	}
}
