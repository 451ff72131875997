// Package session binds the audio graph, waveform chart, seek cursor and
// spectrum animator into one playback state machine.
//
// A Session is driven from a bubbletea Update loop: transport methods
// return the commands that keep its repeating tasks alive, and Update
// consumes the messages those commands produce. It is not safe for
// concurrent use.
package session

import (
	"errors"
	"fmt"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/olivier-w/wavedeck/internal/audio"
	"github.com/olivier-w/wavedeck/internal/canvas"
	"github.com/olivier-w/wavedeck/internal/config"
	"github.com/olivier-w/wavedeck/internal/cursor"
	"github.com/olivier-w/wavedeck/internal/schedule"
	"github.com/olivier-w/wavedeck/internal/track"
	"github.com/olivier-w/wavedeck/internal/visualizer"
	"github.com/olivier-w/wavedeck/internal/waveform"
)

// Phase is the coarse playback state.
type Phase int

const (
	Idle Phase = iota
	Loaded
	Playing
	Paused
	Ended
)

func (p Phase) String() string {
	switch p {
	case Loaded:
		return "loaded"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Ended:
		return "ended"
	default:
		return "idle"
	}
}

// State is replaced as a whole on every transition.
type State struct {
	Phase Phase
	// StartedAt is the audio clock reading at which offset zero would
	// have played. Only meaningful while Playing.
	StartedAt    time.Duration
	PausedAt     time.Duration
	PlaybackRate float64
	Volume       float64
}

// TrackEndedMsg is emitted once when a track plays to its natural end.
type TrackEndedMsg struct {
	Track *track.Track
}

type sourceDoneMsg struct {
	src *audio.SourceNode
}

// ContextFactory opens an audio context at the given sample rate.
type ContextFactory func(sampleRate int) (*audio.Context, error)

// Option configures New.
type Option func(*Session)

// WithContextFactory replaces the oto-backed audio context.
func WithContextFactory(f ContextFactory) Option {
	return func(s *Session) { s.newContext = f }
}

// WithTrackEnded registers a hook invoked once per natural completion.
func WithTrackEnded(fn func()) Option {
	return func(s *Session) { s.onEnded = fn }
}

func defaultContext(sampleRate int) (*audio.Context, error) {
	return audio.NewContext(audio.WithSampleRate(sampleRate))
}

// Session is the playback orchestrator.
type Session struct {
	cfg        config.Config
	newContext ContextFactory
	onEnded    func()

	state State
	err   error

	track   *track.Track
	ctx     *audio.Context
	graph   *audio.Graph
	src     *audio.SourceNode
	watched *audio.SourceNode

	profile waveform.Profile
	labels  []string
	surface *canvas.Surface
	cursor  *cursor.Controller

	animator *visualizer.Animator
	frames   *schedule.Repeater
	ticks    *schedule.Repeater
	lastTick time.Duration

	scrubbing bool
	pending   tea.Cmd
}

// New returns an idle session.
func New(cfg config.Config, opts ...Option) *Session {
	fps := max(cfg.FrameRate, 1)
	s := &Session{
		cfg:        cfg,
		newContext: defaultContext,
		state:      State{Phase: Idle, PlaybackRate: 1, Volume: config.ClampVolume(cfg.Volume)},
		animator:   visualizer.NewAnimator(nil, fps),
		frames:     schedule.New(schedule.KindFrame, time.Second/time.Duration(fps)),
		ticks:      schedule.New(schedule.KindCursor, cfg.CursorTick),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns a copy of the playback state.
func (s *Session) State() State { return s.state }

// Err returns the audio failure that dropped the session to Idle, if any.
func (s *Session) Err() error { return s.err }

// Track returns the loaded track, or nil.
func (s *Session) Track() *track.Track { return s.track }

// Volume returns the current gain.
func (s *Session) Volume() float64 { return s.state.Volume }

// Duration returns the loaded track's length.
func (s *Session) Duration() time.Duration {
	if s.graph == nil {
		return 0
	}
	return s.graph.Buffer().Duration()
}

// Position returns the playback offset.
func (s *Session) Position() time.Duration {
	if s.state.Phase == Playing && s.graph != nil {
		return s.clampOffset(s.graph.CurrentTime() - s.state.StartedAt)
	}
	return s.state.PausedAt
}

// Cursor returns the seek cursor, or nil when nothing is loaded.
func (s *Session) Cursor() *cursor.Controller { return s.cursor }

// View renders the drawing surface.
func (s *Session) View() string {
	if s.surface == nil {
		return ""
	}
	return s.surface.Render()
}

// Load replaces the current track. It decodes the track (a no-op when it
// was decoded ahead of time), draws the static chart and builds the cursor.
func (s *Session) Load(tr *track.Track, surface *canvas.Surface) error {
	s.Teardown()
	s.err = nil

	if tr == nil {
		return &LoadError{Err: errors.New("no track")}
	}
	if surface == nil || surface.Bounds().Empty() {
		return &LoadError{Title: tr.Title, Err: canvas.ErrSurfaceMissing}
	}
	buf, err := tr.Decode()
	if err != nil {
		log.Printf("session: decode %q: %v", tr.Title, err)
		return &LoadError{Title: tr.Title, Err: err}
	}
	ctx, err := s.newContext(s.cfg.SampleRate)
	if err != nil {
		log.Printf("session: open audio context: %v", err)
		return &LoadError{Title: tr.Title, Err: err}
	}

	s.ctx = ctx
	s.graph = audio.NewGraph(ctx, buf, s.cfg.FFTSize, s.cfg.Smoothing)
	s.graph.SetVolume(s.state.Volume)
	s.track = tr
	s.profile = waveform.Downsample(buf, s.cfg.WaveformBuckets)
	s.labels = waveform.TimeAxisLabels(buf.Duration(), s.cfg.LabelStep)

	if err := s.AttachSurface(surface); err != nil {
		s.Teardown()
		return &LoadError{Title: tr.Title, Err: err}
	}

	s.transition(State{Phase: Loaded, PlaybackRate: 1, Volume: s.state.Volume})
	log.Printf("session: loaded %q (%s)", tr.Title, buf.Duration().Round(time.Millisecond))
	return nil
}

// AttachSurface redraws the chart and rebuilds the cursor on a new surface,
// keeping the playback position. Call it after the terminal is resized.
func (s *Session) AttachSurface(surface *canvas.Surface) error {
	if surface == nil || surface.Bounds().Empty() {
		return canvas.ErrSurfaceMissing
	}
	if s.surface != nil && s.surface != surface {
		s.surface.Clear()
	}
	s.surface = surface
	s.animator.SetSurface(surface)
	if s.graph == nil {
		return nil
	}

	pos := s.Position()
	surface.Clear()
	waveform.DrawChart(surface, s.profile, s.labels)

	c, err := cursor.New(surface, s.Duration())
	if err != nil {
		return err
	}
	if s.cursor != nil {
		s.cursor.Close()
	}
	c.Subscribe(s.onCursorEvent)
	c.SetAutoAdvance(s.state.Phase == Playing)
	c.MoveTo(pos)
	s.cursor = c
	return nil
}

// Play starts or resumes playback. It is a no-op while already playing.
func (s *Session) Play() (tea.Cmd, error) {
	switch s.state.Phase {
	case Playing:
		return nil, nil
	case Loaded, Paused:
	default:
		return nil, &InvalidStateError{Op: "play", Phase: s.state.Phase}
	}

	s.cancelLoops()
	if err := s.graph.Resume(); err != nil {
		return nil, s.fail("play", err)
	}
	if s.src == nil {
		src, err := s.graph.Start(s.state.PausedAt)
		if err != nil {
			return nil, s.fail("play", err)
		}
		s.src = src
	}

	next := s.state
	next.Phase = Playing
	next.StartedAt = s.graph.CurrentTime() - next.PausedAt
	next.PlaybackRate = 1
	s.transition(next)
	return s.startLoops(), nil
}

// Pause suspends playback. With reset it also rewinds to the start.
func (s *Session) Pause(reset bool) error {
	if s.state.Phase != Playing {
		return &InvalidStateError{Op: "pause", Phase: s.state.Phase}
	}

	pos := s.Position()
	if s.scrubbing && s.src != nil {
		// the clock ran at 1x while the source ran at the scrub rate
		pos = s.clampOffset(s.src.Offset())
	}
	s.endScrub()
	s.cancelLoops()
	if err := s.graph.Suspend(); err != nil {
		log.Printf("session: suspend: %v", err)
	}

	next := s.state
	next.Phase = Paused
	next.PlaybackRate = 1
	if reset {
		s.stopSource()
		next.PausedAt = 0
		s.cursor.Reset()
	} else {
		next.PausedAt = pos
		s.cursor.MoveTo(pos)
	}
	s.transition(next)
	return nil
}

// Stop rewinds to the start without playing.
func (s *Session) Stop() error {
	switch s.state.Phase {
	case Playing:
		return s.Pause(true)
	case Idle:
		return &InvalidStateError{Op: "stop", Phase: s.state.Phase}
	}

	s.stopSource()
	next := s.state
	if next.Phase == Ended {
		next.Phase = Paused
	}
	next.PausedAt = 0
	s.cursor.Reset()
	s.transition(next)
	return nil
}

// Seek moves playback to t. While playing, a new source starts at t
// immediately; otherwise only the paused offset moves.
func (s *Session) Seek(t time.Duration) (tea.Cmd, error) {
	if s.state.Phase == Idle {
		return nil, &InvalidStateError{Op: "seek", Phase: s.state.Phase}
	}
	t = s.clampOffset(t)
	s.stopSource()
	s.endScrub()

	next := s.state
	next.PausedAt = t
	next.PlaybackRate = 1

	if s.state.Phase != Playing {
		if next.Phase == Ended {
			next.Phase = Paused
		}
		s.transition(next)
		s.cursor.MoveTo(t)
		return nil, nil
	}

	s.cancelLoops()
	src, err := s.graph.Start(t)
	if err != nil {
		return nil, s.fail("seek", err)
	}
	s.src = src
	next.StartedAt = s.graph.CurrentTime() - t
	s.transition(next)
	s.cursor.MoveTo(t)
	return s.startLoops(), nil
}

// OnEnded finishes a track that played to its end: loops stop, the
// session moves to Ended and the track-ended hook runs.
func (s *Session) OnEnded() {
	if s.state.Phase != Playing {
		return
	}
	s.endScrub()
	s.cancelLoops()
	s.animator.Clear()
	if s.src != nil {
		s.graph.Release(s.src)
		s.src = nil
	}
	if err := s.graph.Suspend(); err != nil {
		log.Printf("session: suspend: %v", err)
	}

	d := s.Duration()
	next := s.state
	next.Phase = Ended
	next.PausedAt = d
	next.PlaybackRate = 1
	s.transition(next)
	s.cursor.MoveTo(d)

	if s.onEnded != nil {
		s.onEnded()
	}
}

// ChangeVolume sets the gain, clamped to [-1, 1]. It is valid in any
// phase and survives track changes.
func (s *Session) ChangeVolume(v float64) float64 {
	v = config.ClampVolume(v)
	s.state.Volume = v
	if s.graph != nil {
		s.graph.SetVolume(v)
	}
	return v
}

// Teardown releases the audio graph and context, stops every loop and
// clears the surface. It is safe to call in any phase.
func (s *Session) Teardown() {
	s.cancelLoops()
	s.animator.Clear()
	s.scrubbing = false
	s.pending = nil

	if s.graph != nil {
		s.graph.Stop()
	}
	s.src = nil
	s.watched = nil
	if s.ctx != nil {
		if err := s.ctx.Close(); err != nil {
			log.Printf("session: close audio context: %v", err)
		}
	}
	if s.cursor != nil {
		s.cursor.Close()
	}
	if s.surface != nil {
		s.surface.Clear()
	}
	s.surface = nil
	s.animator.SetSurface(nil)

	s.ctx = nil
	s.graph = nil
	s.cursor = nil
	s.track = nil
	s.profile = nil
	s.labels = nil
	s.transition(State{Phase: Idle, PlaybackRate: 1, Volume: s.state.Volume})
}

// HandleMouse forwards pointer input to the cursor and returns any seek
// command a drag release produced.
func (s *Session) HandleMouse(msg tea.MouseMsg) tea.Cmd {
	if s.cursor == nil {
		return nil
	}
	s.pending = nil
	s.cursor.HandleMouse(msg)
	cmd := s.pending
	s.pending = nil
	return cmd
}

// Update consumes the messages produced by the session's own commands.
func (s *Session) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case schedule.FireMsg:
		if cmd, ok := s.frames.Accept(msg); ok {
			s.animator.Frame()
			return cmd
		}
		if cmd, ok := s.ticks.Accept(msg); ok {
			s.advanceCursor()
			return cmd
		}
	case sourceDoneMsg:
		return s.sourceDone(msg.src)
	case tea.MouseMsg:
		return s.HandleMouse(msg)
	}
	return nil
}

func (s *Session) onCursorEvent(e cursor.Event) {
	switch e := e.(type) {
	case cursor.Dragged:
		if s.state.Phase == Playing && !s.scrubbing {
			s.graph.SetPlaybackRate(s.cfg.ScrubRate)
			next := s.state
			next.PlaybackRate = s.cfg.ScrubRate
			s.transition(next)
			s.scrubbing = true
		}
	case cursor.DragEnded:
		cmd, err := s.Seek(e.Time)
		if err != nil {
			log.Printf("session: seek after drag: %v", err)
			return
		}
		s.pending = cmd
	}
}

func (s *Session) sourceDone(src *audio.SourceNode) tea.Cmd {
	if s.watched == src {
		s.watched = nil
	}
	if src != s.src || !src.EndedNaturally() || s.state.Phase != Playing {
		return nil
	}
	tr := s.track
	s.OnEnded()
	return func() tea.Msg { return TrackEndedMsg{Track: tr} }
}

func (s *Session) advanceCursor() {
	now := s.graph.CurrentTime()
	elapsed := now - s.lastTick
	s.lastTick = now
	s.cursor.AutoAdvance(elapsed)
}

func (s *Session) startLoops() tea.Cmd {
	s.animator.Start(s.graph.Analyser())
	s.cursor.SetAutoAdvance(true)
	s.lastTick = s.graph.CurrentTime()

	cmds := []tea.Cmd{s.frames.Start(), s.ticks.Start()}
	if s.src != nil && s.watched != s.src {
		s.watched = s.src
		cmds = append(cmds, waitDone(s.graph, s.src))
	}
	return tea.Batch(cmds...)
}

func (s *Session) cancelLoops() {
	s.frames.Cancel()
	s.ticks.Cancel()
	s.animator.Stop()
	if s.cursor != nil {
		s.cursor.SetAutoAdvance(false)
	}
}

// endScrub puts the active source back to normal speed after a drag.
func (s *Session) endScrub() {
	if !s.scrubbing {
		return
	}
	s.scrubbing = false
	if s.graph != nil {
		s.graph.SetPlaybackRate(1)
	}
}

func (s *Session) stopSource() {
	if s.graph != nil {
		s.graph.Stop()
	}
	s.src = nil
}

// fail drops the session to Idle after an audio subsystem error. The
// caller must load the track again.
func (s *Session) fail(op string, err error) error {
	log.Printf("session: %s failed: %v", op, err)
	s.Teardown()
	s.err = fmt.Errorf("%s: %w", op, err)
	return s.err
}

func (s *Session) transition(next State) {
	if next.Phase != s.state.Phase {
		log.Printf("session: %s -> %s", s.state.Phase, next.Phase)
	}
	s.state = next
}

func (s *Session) clampOffset(t time.Duration) time.Duration {
	return min(max(t, 0), s.Duration())
}

// drainTimeout bounds how long a finished track waits for the output to
// play its buffered samples.
const drainTimeout = 2 * time.Second

// waitDone reports when src finishes. A natural end is held back until the
// output has played the samples it still buffers, so the tail is not cut.
func waitDone(g *audio.Graph, src *audio.SourceNode) tea.Cmd {
	return func() tea.Msg {
		<-src.Done()
		if src.EndedNaturally() {
			g.WaitDrained(src, drainTimeout)
		}
		return sourceDoneMsg{src: src}
	}
}
