package audio

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

const (
	outputChannels = 2
	bytesPerSample = 2 // 16-bit
	frameBytes     = outputChannels * bytesPerSample

	defaultSampleRate = 48000
)

// ErrContextClosed is returned when a closed context is asked to run again.
var ErrContextClosed = errors.New("audio context closed")

// Stream is one playing voice on a Sink. *oto.Player satisfies it.
type Stream interface {
	Play()
	Pause()
}

// Sink is the audio destination: it pulls s16le stereo PCM from readers.
type Sink interface {
	NewStream(r io.Reader) Stream
	Suspend() error
	Resume() error
}

// ContextState is the run state of a Context.
type ContextState int

const (
	StateSuspended ContextState = iota
	StateRunning
	StateClosed
)

func (s ContextState) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateClosed:
		return "closed"
	default:
		return "suspended"
	}
}

// Context owns the destination and the audio clock.
type Context struct {
	sink       Sink
	clock      *Clock
	sampleRate int

	mu    sync.Mutex
	state ContextState
}

// ContextOption configures NewContext.
type ContextOption func(*contextConfig)

type contextConfig struct {
	sink       Sink
	now        func() time.Time
	sampleRate int
}

// WithSink replaces the oto-backed destination.
func WithSink(s Sink) ContextOption {
	return func(cfg *contextConfig) { cfg.sink = s }
}

// WithClock sets the wall-time source for the audio clock.
func WithClock(now func() time.Time) ContextOption {
	return func(cfg *contextConfig) { cfg.now = now }
}

// WithSampleRate sets the output sample rate.
func WithSampleRate(rate int) ContextOption {
	return func(cfg *contextConfig) { cfg.sampleRate = rate }
}

// NewContext creates a suspended context. Without WithSink it opens the
// process-wide oto context.
func NewContext(opts ...ContextOption) (*Context, error) {
	cfg := contextConfig{sampleRate: defaultSampleRate}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.sampleRate <= 0 {
		return nil, fmt.Errorf("unsupported sample rate: %d", cfg.sampleRate)
	}
	if cfg.sink == nil {
		sink, err := newOtoSink(cfg.sampleRate)
		if err != nil {
			return nil, err
		}
		cfg.sink = sink
	}
	return &Context{
		sink:       cfg.sink,
		clock:      newClock(cfg.now),
		sampleRate: cfg.sampleRate,
		state:      StateSuspended,
	}, nil
}

// SampleRate returns the output rate.
func (c *Context) SampleRate() int { return c.sampleRate }

// CurrentTime returns the audio clock.
func (c *Context) CurrentTime() time.Duration { return c.clock.Now() }

// State returns the run state.
func (c *Context) State() ContextState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Resume starts the destination and the clock.
func (c *Context) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case StateClosed:
		return ErrContextClosed
	case StateRunning:
		return nil
	}
	if err := c.sink.Resume(); err != nil {
		return fmt.Errorf("resuming audio context: %w", err)
	}
	c.clock.start()
	c.state = StateRunning
	return nil
}

// Suspend pauses the destination and freezes the clock.
func (c *Context) Suspend() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateRunning {
		return nil
	}
	c.clock.stop()
	c.state = StateSuspended
	if err := c.sink.Suspend(); err != nil {
		return fmt.Errorf("suspending audio context: %w", err)
	}
	return nil
}

// Close suspends the context for good. It is safe to call more than once.
func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		return nil
	}
	wasRunning := c.state == StateRunning
	c.clock.stop()
	c.state = StateClosed
	if wasRunning {
		if err := c.sink.Suspend(); err != nil {
			log.Printf("audio: suspend on close: %v", err)
		}
	}
	return nil
}

func (c *Context) newStream(r io.Reader) (Stream, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		return nil, ErrContextClosed
	}
	return c.sink.NewStream(r), nil
}

var (
	globalOtoCtx *oto.Context
	otoRate      int
	otoOnce      sync.Once
	otoInitErr   error
)

// oto allows a single context per process, so every audio Context shares it.
func initOto(sampleRate int) (*oto.Context, error) {
	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: outputChannels,
			Format:       oto.FormatSignedInt16LE,
		}
		var ready chan struct{}
		globalOtoCtx, ready, otoInitErr = oto.NewContext(op)
		if otoInitErr == nil {
			<-ready
			otoRate = sampleRate
		}
	})
	if otoInitErr != nil {
		return nil, otoInitErr
	}
	if otoRate != sampleRate {
		return nil, fmt.Errorf("audio device already opened at %d Hz", otoRate)
	}
	return globalOtoCtx, nil
}

type otoSink struct {
	ctx *oto.Context
}

func newOtoSink(sampleRate int) (*otoSink, error) {
	ctx, err := initOto(sampleRate)
	if err != nil {
		return nil, fmt.Errorf("opening audio device: %w", err)
	}
	return &otoSink{ctx: ctx}, nil
}

func (s *otoSink) NewStream(r io.Reader) Stream { return s.ctx.NewPlayer(r) }
func (s *otoSink) Suspend() error              { return s.ctx.Suspend() }
func (s *otoSink) Resume() error               { return s.ctx.Resume() }
