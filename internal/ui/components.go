package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/olivier-w/wavedeck/internal/canvas"
	"github.com/olivier-w/wavedeck/internal/queue"
	"github.com/olivier-w/wavedeck/internal/session"
)

const (
	headerLines = 4 // blank, app name, title, blank
	footerLines = 6
	marginX     = 2

	minChartWidth  = 20
	minChartHeight = 6
	defaultWidth   = 80
	defaultHeight  = 24
)

// chartRect places the drawing surface below the header. Its screen
// coordinates must match View so mouse events land on the right column.
func chartRect(width, height int) canvas.Rect {
	if width <= 0 || height <= 0 {
		width, height = defaultWidth, defaultHeight
	}
	return canvas.Rect{
		X:      marginX,
		Y:      headerLines,
		Width:  max(width-2*marginX, minChartWidth),
		Height: max(height-headerLines-footerLines, minChartHeight),
	}
}

func phaseLabel(p session.Phase) string {
	switch p {
	case session.Playing:
		return "▶  playing"
	case session.Paused:
		return "❚❚ paused"
	case session.Ended:
		return "■  ended"
	case session.Loaded:
		return "●  ready"
	default:
		return "○  idle"
	}
}

func newVolumeBar() progress.Model {
	return progress.New(
		progress.WithScaledGradient("#03A300", "#FF8C00"),
		progress.WithWidth(16),
		progress.WithoutPercentage(),
	)
}

// renderVolume maps the [-1, 1] gain range onto the bar.
func renderVolume(bar progress.Model, v float64) string {
	return fmt.Sprintf("vol %s %+.2f", bar.ViewAs((v+1)/2), v)
}

func renderQueueLine(q *queue.Queue) string {
	if q == nil || q.Len() <= 1 {
		return ""
	}
	next := q.Entry((q.CurrentIndex() + 1) % q.Len())
	counter := queueCurrentStyle.Render(fmt.Sprintf("%d/%d", q.CurrentIndex()+1, q.Len()))
	switch {
	case q.IsShuffled():
		return counter + helpStyle.Render("  [shuffle]")
	case next != nil:
		return counter + helpStyle.Render("  next: "+next.Title)
	}
	return counter
}

func indent(block string) string {
	if block == "" {
		return ""
	}
	lines := strings.Split(block, "\n")
	pad := strings.Repeat(" ", marginX)
	for i, l := range lines {
		lines[i] = pad + l
	}
	return strings.Join(lines, "\n")
}
