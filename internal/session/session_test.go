package session

import (
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/olivier-w/wavedeck/internal/audio"
	"github.com/olivier-w/wavedeck/internal/canvas"
	"github.com/olivier-w/wavedeck/internal/config"
	"github.com/olivier-w/wavedeck/internal/schedule"
	"github.com/olivier-w/wavedeck/internal/track"
)

const testRate = 100

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeStream struct{ playing bool }

func (s *fakeStream) Play()  { s.playing = true }
func (s *fakeStream) Pause() { s.playing = false }

type fakeSink struct {
	streams   []*fakeStream
	resumeErr error
}

func (s *fakeSink) NewStream(io.Reader) audio.Stream {
	st := &fakeStream{}
	s.streams = append(s.streams, st)
	return st
}

func (s *fakeSink) Suspend() error { return nil }
func (s *fakeSink) Resume() error  { return s.resumeErr }

type harness struct {
	t       *testing.T
	clock   *fakeClock
	sink    *fakeSink
	surface *canvas.Surface
	session *Session
	ended   int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		t:     t,
		clock: &fakeClock{now: time.Unix(5000, 0)},
		sink:  &fakeSink{},
	}
	surface, err := canvas.New(canvas.Rect{X: 0, Y: 2, Width: 41, Height: 10})
	if err != nil {
		t.Fatalf("canvas.New: %v", err)
	}
	h.surface = surface

	cfg := config.Default()
	cfg.SampleRate = testRate
	cfg.CursorTick = time.Millisecond
	factory := func(rate int) (*audio.Context, error) {
		return audio.NewContext(audio.WithSink(h.sink), audio.WithClock(h.clock.Now), audio.WithSampleRate(rate))
	}
	h.session = New(cfg, WithContextFactory(factory), WithTrackEnded(func() { h.ended++ }))
	t.Cleanup(h.session.Teardown)
	return h
}

func wavTrack(t *testing.T, title string, seconds int) *track.Track {
	t.Helper()
	path := filepath.Join(t.TempDir(), title+".wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	enc := wav.NewEncoder(f, testRate, 16, 1, 1)
	data := make([]int, seconds*testRate)
	for i := range data {
		data[i] = int(8000 * math.Sin(float64(i)*0.7))
	}
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: testRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	tr, err := track.Open(path)
	if err != nil {
		t.Fatalf("track.Open: %v", err)
	}
	return tr
}

func (h *harness) load(title string, seconds int) {
	h.t.Helper()
	if err := h.session.Load(wavTrack(h.t, title, seconds), h.surface); err != nil {
		h.t.Fatalf("Load: %v", err)
	}
}

func (h *harness) play() {
	h.t.Helper()
	if _, err := h.session.Play(); err != nil {
		h.t.Fatalf("Play: %v", err)
	}
}

func near(a, b time.Duration) bool {
	return (a - b).Abs() <= 50*time.Millisecond
}

func TestPlayPauseResetScenario(t *testing.T) {
	h := newHarness(t)
	h.load("ninety", 90)
	s := h.session

	if got := s.State().Phase; got != Loaded {
		t.Fatalf("phase after Load = %v, want loaded", got)
	}
	h.play()
	h.clock.Advance(1500 * time.Millisecond)

	if err := s.Pause(false); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if got := s.State().PausedAt; !near(got, 1500*time.Millisecond) {
		t.Fatalf("PausedAt = %v, want ~1.5s", got)
	}

	h.clock.Advance(10 * time.Second)
	h.play()
	if got := s.Position(); !near(got, 1500*time.Millisecond) {
		t.Fatalf("Position after resume = %v, want ~1.5s", got)
	}

	h.clock.Advance(2 * time.Second)
	if err := s.Pause(true); err != nil {
		t.Fatalf("Pause(reset): %v", err)
	}
	if got := s.State().PausedAt; got != 0 {
		t.Fatalf("PausedAt after reset = %v, want 0", got)
	}
	if c := s.Cursor(); c.Position() != c.Geometry().Left {
		t.Fatalf("cursor at %v, want left bound %v", c.Position(), c.Geometry().Left)
	}
}

func TestNaturalEndFiresOnce(t *testing.T) {
	h := newHarness(t)
	h.load("thirty", 30)
	s := h.session
	h.play()

	src := s.src
	if _, err := io.ReadAll(src); err != nil {
		t.Fatalf("draining source: %v", err)
	}
	h.clock.Advance(30 * time.Second)

	cmd := s.Update(sourceDoneMsg{src: src})
	if cmd == nil {
		t.Fatal("expected a TrackEndedMsg command")
	}
	if msg, ok := cmd().(TrackEndedMsg); !ok || msg.Track == nil || msg.Track.Title != "thirty" {
		t.Fatalf("cmd produced %#v, want TrackEndedMsg for thirty", msg)
	}
	if s.Update(sourceDoneMsg{src: src}) != nil {
		t.Fatal("duplicate completion produced another command")
	}
	if h.ended != 1 {
		t.Fatalf("track-ended hook called %d times, want 1", h.ended)
	}
	if got := s.State().Phase; got != Ended {
		t.Fatalf("phase = %v, want ended", got)
	}
	if got := s.Position(); got != 30*time.Second {
		t.Fatalf("Position = %v, want 30s", got)
	}
}

func TestPauseTwiceIsInvalid(t *testing.T) {
	h := newHarness(t)
	h.load("twice", 10)
	h.play()

	if err := h.session.Pause(false); err != nil {
		t.Fatalf("first Pause: %v", err)
	}
	err := h.session.Pause(false)
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("second Pause = %v, want ErrInvalidState", err)
	}
	var ise *InvalidStateError
	if !errors.As(err, &ise) || ise.Phase != Paused {
		t.Fatalf("error = %#v, want InvalidStateError in paused phase", err)
	}
}

func TestPlayBeforeLoadIsInvalid(t *testing.T) {
	h := newHarness(t)
	if _, err := h.session.Play(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("Play = %v, want ErrInvalidState", err)
	}
	if err := h.session.Pause(false); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("Pause = %v, want ErrInvalidState", err)
	}
}

func TestPlayWhilePlayingIsNoop(t *testing.T) {
	h := newHarness(t)
	h.load("noop", 10)
	h.play()
	cmd, err := h.session.Play()
	if err != nil || cmd != nil {
		t.Fatalf("second Play returned cmd=%t err=%v, want no-op", cmd != nil, err)
	}
	if len(h.sink.streams) != 1 {
		t.Fatalf("got %d streams, want 1", len(h.sink.streams))
	}
}

func TestSeekWhilePlayingKeepsOneSource(t *testing.T) {
	h := newHarness(t)
	h.load("seek", 40)
	s := h.session
	h.play()
	h.clock.Advance(2 * time.Second)

	old := s.src
	if _, err := s.Seek(10 * time.Second); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	if got := s.State().PausedAt; got != 10*time.Second {
		t.Fatalf("PausedAt = %v, want 10s", got)
	}
	if got := s.Position(); !near(got, 10*time.Second) {
		t.Fatalf("Position = %v, want ~10s", got)
	}
	if s.src == nil || s.src == old || s.graph.Source() != s.src {
		t.Fatal("expected exactly one fresh active source")
	}
	select {
	case <-old.Done():
	default:
		t.Fatal("previous source was not torn down")
	}
	if h.sink.streams[0].playing {
		t.Fatal("previous stream still playing")
	}
	if s.Update(sourceDoneMsg{src: old}) != nil || h.ended != 0 {
		t.Fatal("torn-down source reported an end")
	}
}

func TestSeekWhilePausedOnlyMovesOffset(t *testing.T) {
	h := newHarness(t)
	h.load("paused-seek", 40)
	s := h.session
	h.play()
	if err := s.Pause(false); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	streams := len(h.sink.streams)

	cmd, err := s.Seek(25 * time.Second)
	if err != nil || cmd != nil {
		t.Fatalf("Seek returned cmd=%t err=%v", cmd != nil, err)
	}
	if s.State().Phase != Paused || s.State().PausedAt != 25*time.Second {
		t.Fatalf("state = %+v, want paused at 25s", s.State())
	}
	if len(h.sink.streams) != streams || s.graph.Active() {
		t.Fatal("seek while paused started audio")
	}

	if _, err := s.Seek(time.Hour); err != nil {
		t.Fatalf("Seek past end: %v", err)
	}
	if got := s.State().PausedAt; got != 40*time.Second {
		t.Fatalf("PausedAt = %v, want clamp to 40s", got)
	}
}

func TestDragReleaseSeeks(t *testing.T) {
	h := newHarness(t)
	h.load("drag", 40)
	s := h.session
	h.play()
	first := s.src

	y := h.surface.Bounds().Y + 1
	s.Update(tea.MouseMsg{X: 4, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	s.Update(tea.MouseMsg{X: 7, Y: y, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
	if got := first.PlaybackRate(); got != 2 {
		t.Fatalf("scrub rate = %v, want 2", got)
	}

	cmd := s.Update(tea.MouseMsg{X: 10, Y: y, Action: tea.MouseActionRelease})
	if cmd == nil {
		t.Fatal("release while playing should restart the loops")
	}
	if got := s.State().PausedAt; !near(got, 10*time.Second) {
		t.Fatalf("seek target = %v, want ~10s", got)
	}
	if s.State().Phase != Playing {
		t.Fatalf("phase = %v, want playing", s.State().Phase)
	}
	if s.src == first || s.src.PlaybackRate() != 1 {
		t.Fatal("expected a fresh source at normal rate")
	}
}

func TestPauseDuringDragRestoresRate(t *testing.T) {
	h := newHarness(t)
	h.load("scrub", 40)
	s := h.session
	h.play()
	src := s.src

	y := h.surface.Bounds().Y + 1
	s.Update(tea.MouseMsg{X: 4, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	s.Update(tea.MouseMsg{X: 6, Y: y, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
	if got := src.PlaybackRate(); got != 2 {
		t.Fatalf("scrub rate = %v, want 2", got)
	}

	// one second of wall clock consumes two seconds of audio at the scrub rate
	if _, err := io.ReadFull(src, make([]byte, testRate*4)); err != nil {
		t.Fatalf("read: %v", err)
	}
	h.clock.Advance(time.Second)

	if err := s.Pause(false); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if got := s.State().PausedAt; !near(got, 2*time.Second) {
		t.Fatalf("PausedAt = %v, want ~2s from the source offset", got)
	}
	h.play()

	if s.src != src {
		t.Fatal("resume should keep the paused source")
	}
	if got := src.PlaybackRate(); got != 1 {
		t.Fatalf("source rate after resume = %v, want 1", got)
	}
	if got := s.State().PlaybackRate; got != 1 {
		t.Fatalf("state rate after resume = %v, want 1", got)
	}
	if s.scrubbing {
		t.Fatal("pause left the session scrubbing")
	}
	if got := s.Position(); !near(got, 2*time.Second) {
		t.Fatalf("Position after resume = %v, want ~2s", got)
	}
}

func TestCursorTickAdvancesWithClock(t *testing.T) {
	h := newHarness(t)
	h.load("tick", 40)
	s := h.session
	h.play()

	h.clock.Advance(time.Second)
	msg, ok := s.ticks.Start()().(schedule.FireMsg)
	if !ok {
		t.Fatal("tick command did not produce a FireMsg")
	}
	if s.Update(msg) == nil {
		t.Fatal("accepted tick should schedule the next one")
	}
	if got := s.Cursor().Position(); got != 1 {
		t.Fatalf("cursor = %v, want 1 column per second", got)
	}

	if err := s.Pause(false); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if s.Update(msg) != nil {
		t.Fatal("tick accepted after pause")
	}
}

func TestLoadErrors(t *testing.T) {
	h := newHarness(t)

	err := h.session.Load(track.New("garbage", []byte("not audio at all")), h.surface)
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("Load = %v, want LoadError", err)
	}
	var de *audio.DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("Load = %v, want wrapped DecodeError", err)
	}
	if h.session.State().Phase != Idle {
		t.Fatalf("phase = %v, want idle", h.session.State().Phase)
	}

	err = h.session.Load(wavTrack(t, "nosurface", 5), nil)
	if !errors.Is(err, canvas.ErrSurfaceMissing) {
		t.Fatalf("Load without surface = %v, want ErrSurfaceMissing", err)
	}

	h.load("recovers", 5)
	if h.session.State().Phase != Loaded {
		t.Fatal("session did not recover after failed loads")
	}
}

func TestAudioFailureDropsToIdle(t *testing.T) {
	h := newHarness(t)
	h.load("broken-device", 10)
	h.sink.resumeErr = errors.New("device unplugged")

	_, err := h.session.Play()
	if err == nil {
		t.Fatal("expected Play to fail")
	}
	if h.session.State().Phase != Idle || h.session.Err() == nil {
		t.Fatalf("state = %+v err = %v, want idle with error", h.session.State(), h.session.Err())
	}
	if _, err := h.session.Play(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("Play after failure = %v, want ErrInvalidState", err)
	}
}

func TestVolumeClampsAndPersists(t *testing.T) {
	h := newHarness(t)
	s := h.session
	if got := s.ChangeVolume(4); got != 1 {
		t.Fatalf("ChangeVolume(4) = %v, want 1", got)
	}
	h.load("first", 5)
	s.ChangeVolume(-0.5)
	if got := s.graph.Gain().Value(); got != -0.5 {
		t.Fatalf("gain = %v, want -0.5", got)
	}

	h.load("second", 5)
	if got := s.graph.Gain().Value(); got != -0.5 {
		t.Fatalf("gain after track change = %v, want -0.5", got)
	}
}

func TestStopFromEndedRewinds(t *testing.T) {
	h := newHarness(t)
	h.load("rewind", 5)
	s := h.session
	h.play()
	src := s.src
	if _, err := io.ReadAll(src); err != nil {
		t.Fatalf("drain: %v", err)
	}
	s.Update(sourceDoneMsg{src: src})

	if _, err := s.Play(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("Play from ended = %v, want ErrInvalidState", err)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if s.State().Phase != Paused || s.State().PausedAt != 0 {
		t.Fatalf("state = %+v, want paused at 0", s.State())
	}
	h.play()
	if len(h.sink.streams) != 2 {
		t.Fatalf("got %d streams, want a fresh one after rewind", len(h.sink.streams))
	}
}

func TestTeardownIsSafeAnywhere(t *testing.T) {
	h := newHarness(t)
	s := h.session
	s.Teardown()
	h.load("teardown", 5)
	h.play()
	s.Teardown()
	s.Teardown()
	if s.State().Phase != Idle || s.frames.Running() || s.ticks.Running() {
		t.Fatalf("teardown left state %+v", s.State())
	}
	if s.View() != "" {
		t.Fatal("teardown left a surface attached")
	}
	if _, ok := h.surface.At(canvas.LayerCursor, 0, 0); ok {
		t.Fatal("teardown left the cursor drawn")
	}
}
