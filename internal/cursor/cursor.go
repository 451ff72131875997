// Package cursor implements the draggable seek cursor drawn over the
// waveform chart.
package cursor

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/olivier-w/wavedeck/internal/canvas"
)

// Geometry holds the cursor's horizontal bounds in surface columns and the
// linear mapping between track time and column.
type Geometry struct {
	Left     float64
	Right    float64
	Position float64
	Top      float64
	Duration time.Duration
}

// NewGeometry spans the whole width of a surface.
func NewGeometry(s *canvas.Surface, d time.Duration) Geometry {
	right := float64(s.Width() - 1)
	return Geometry{
		Left:     0,
		Right:    max(right, 0),
		Position: 0,
		Top:      0,
		Duration: d,
	}
}

// TimeToPixel maps a track time to a column.
func (g Geometry) TimeToPixel(t time.Duration) float64 {
	if g.Duration <= 0 {
		return g.Left
	}
	return g.Left + t.Seconds()/g.Duration.Seconds()*(g.Right-g.Left)
}

// PixelToTime is the inverse of TimeToPixel.
func (g Geometry) PixelToTime(px float64) time.Duration {
	span := g.Right - g.Left
	if span <= 0 {
		return 0
	}
	secs := (px - g.Left) / span * g.Duration.Seconds()
	return time.Duration(secs * float64(time.Second))
}

// Clamp limits px to [Left, Right].
func (g Geometry) Clamp(px float64) float64 {
	return min(max(px, g.Left), g.Right)
}

// State is the interaction state of the cursor.
type State int

const (
	Idle State = iota
	Dragging
	AutoAdvancing
)

func (s State) String() string {
	switch s {
	case Dragging:
		return "dragging"
	case AutoAdvancing:
		return "auto-advancing"
	default:
		return "idle"
	}
}

// Event is emitted to subscribers.
type Event interface {
	cursorEvent()
}

// Dragged reports the time under the handle while it moves.
type Dragged struct{ Time time.Duration }

// DragEnded reports where the handle was released. It is the only event
// that should cause a seek.
type DragEnded struct{ Time time.Duration }

func (Dragged) cursorEvent()   {}
func (DragEnded) cursorEvent() {}

// Listener receives cursor events synchronously.
type Listener func(Event)

var (
	markerColor = canvas.Hex("#F5F5F5")
	handleColor = canvas.Hex("#FF8C00")
)

// Controller owns the cursor geometry and turns pointer drags into events.
type Controller struct {
	surface   *canvas.Surface
	geom      Geometry
	state     State
	playing   bool
	listeners []Listener
}

// New builds a controller whose bounds come from the surface's current
// size. A resized surface needs a new controller.
func New(s *canvas.Surface, d time.Duration) (*Controller, error) {
	if s == nil || s.Bounds().Empty() {
		return nil, canvas.ErrSurfaceMissing
	}
	return &Controller{surface: s, geom: NewGeometry(s, d)}, nil
}

// Subscribe appends a listener. Listeners run in subscription order.
func (c *Controller) Subscribe(l Listener) {
	c.listeners = append(c.listeners, l)
}

// Close drops every listener.
func (c *Controller) Close() {
	c.listeners = nil
}

func (c *Controller) emit(e Event) {
	for _, l := range c.listeners {
		l(e)
	}
}

// Geometry returns a copy of the current geometry.
func (c *Controller) Geometry() Geometry { return c.geom }

// State returns the interaction state.
func (c *Controller) State() State { return c.state }

// Position returns the cursor column.
func (c *Controller) Position() float64 { return c.geom.Position }

// Time returns the track time under the cursor.
func (c *Controller) Time() time.Duration { return c.geom.PixelToTime(c.geom.Position) }

// BeginDrag enters the dragging state and stops auto-advance until release.
func (c *Controller) BeginDrag() {
	c.state = Dragging
}

// DragMove moves the handle and emits Dragged.
func (c *Controller) DragMove(px float64) {
	if c.state != Dragging {
		c.BeginDrag()
	}
	c.geom.Position = c.geom.Clamp(px)
	c.draw()
	c.emit(Dragged{Time: c.Time()})
}

// DragEnd releases the handle and emits DragEnded.
func (c *Controller) DragEnd(px float64) {
	c.geom.Position = c.geom.Clamp(px)
	c.state = Idle
	if c.playing {
		c.state = AutoAdvancing
	}
	c.draw()
	c.emit(DragEnded{Time: c.Time()})
}

// SetAutoAdvance tells the controller whether playback is running.
func (c *Controller) SetAutoAdvance(on bool) {
	c.playing = on
	if c.state == Dragging {
		return
	}
	if on {
		c.state = AutoAdvancing
	} else {
		c.state = Idle
	}
}

// AutoAdvance moves the cursor forward by elapsed track time. It does
// nothing while the user drags or when playback is not running.
func (c *Controller) AutoAdvance(elapsed time.Duration) {
	if c.state != AutoAdvancing {
		return
	}
	delta := c.geom.TimeToPixel(elapsed) - c.geom.Left
	c.geom.Position = c.geom.Clamp(c.geom.Position + delta)
	c.draw()
}

// MoveTo places the cursor at a track time.
func (c *Controller) MoveTo(t time.Duration) {
	c.geom.Position = c.geom.Clamp(c.geom.TimeToPixel(t))
	c.draw()
}

// Reset snaps the cursor back to time zero.
func (c *Controller) Reset() {
	c.geom.Position = c.geom.Left
	if c.state == Dragging {
		c.state = Idle
	}
	c.draw()
}

// HandleMouse interprets a mouse message in screen coordinates. It returns
// true when the message was consumed.
func (c *Controller) HandleMouse(msg tea.MouseMsg) bool {
	b := c.surface.Bounds()
	px := float64(msg.X - b.X)

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft || !b.Contains(msg.X, msg.Y) {
			return false
		}
		c.BeginDrag()
		c.DragMove(px)
		return true
	case tea.MouseActionMotion:
		if c.state != Dragging {
			return false
		}
		c.DragMove(px)
		return true
	case tea.MouseActionRelease:
		if c.state != Dragging {
			return false
		}
		c.DragEnd(px)
		return true
	}
	return false
}

// Draw repaints the cursor layer.
func (c *Controller) Draw() { c.draw() }

func (c *Controller) draw() {
	s := c.surface
	s.ClearLayer(canvas.LayerCursor)
	x := int(c.geom.Position + 0.5)
	top := int(c.geom.Top)
	for y := top + 1; y < s.Height(); y++ {
		s.Set(canvas.LayerCursor, x, y, '│', markerColor)
	}
	s.Set(canvas.LayerCursor, x, top, '◆', handleColor)
}
