package audio

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrSourceActive is returned by Start while a source node is still playing.
var ErrSourceActive = errors.New("source node already active")

// Graph routes one buffer through gain and analyser nodes to the context's
// destination. The gain and analyser nodes live as long as the graph; a new
// source node is built for every Start.
type Graph struct {
	ctx      *Context
	buffer   *Buffer
	gain     *GainNode
	analyser *Analyser

	mu     sync.Mutex
	source *SourceNode
	stream Stream
}

// NewGraph builds the persistent part of the routing graph.
func NewGraph(ctx *Context, buf *Buffer, fftSize int, smoothing float64) *Graph {
	return &Graph{
		ctx:      ctx,
		buffer:   buf,
		gain:     newGainNode(1),
		analyser: NewAnalyser(fftSize, smoothing),
	}
}

// Buffer returns the buffer the graph plays.
func (g *Graph) Buffer() *Buffer { return g.buffer }

// Analyser returns the analyser node.
func (g *Graph) Analyser() *Analyser { return g.analyser }

// Gain returns the gain node.
func (g *Graph) Gain() *GainNode { return g.gain }

// Start creates a fresh source at offset and begins pulling audio through
// source->gain->destination and source->analyser->destination.
func (g *Graph) Start(offset time.Duration) (*SourceNode, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.source != nil {
		return nil, ErrSourceActive
	}
	if offset < 0 {
		offset = 0
	}

	src := newSourceNode(g.buffer, g.ctx.SampleRate(), offset)
	src.connect(g.gain)
	src.connect(g.analyser)

	stream, err := g.ctx.newStream(src)
	if err != nil {
		src.stop()
		return nil, fmt.Errorf("starting source: %w", err)
	}
	stream.Play()

	g.source = src
	g.stream = stream
	return src, nil
}

// Stop disconnects and invalidates the active source. It is a no-op when
// nothing is playing.
func (g *Graph) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.source == nil {
		return
	}
	g.source.stop()
	g.source.disconnect()
	if g.stream != nil {
		g.stream.Pause()
	}
	g.source = nil
	g.stream = nil
}

// Source returns the active source node, or nil.
func (g *Graph) Source() *SourceNode {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.source
}

// Active reports whether a source node is connected.
func (g *Graph) Active() bool { return g.Source() != nil }

// Release forgets a source that finished on its own so a new one can start.
func (g *Graph) Release(src *SourceNode) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.source != src {
		return
	}
	g.source.disconnect()
	if g.stream != nil {
		g.stream.Pause()
	}
	g.source = nil
	g.stream = nil
}

// drainer is implemented by streams that buffer samples ahead of the
// speaker, such as *oto.Player.
type drainer interface {
	IsPlaying() bool
}

const drainPoll = 10 * time.Millisecond

// WaitDrained blocks until the stream fed by src has played out its
// buffered samples or timeout passes. It returns at once when src is not
// the active source or the stream cannot report its play state.
func (g *Graph) WaitDrained(src *SourceNode, timeout time.Duration) {
	g.mu.Lock()
	d, ok := g.stream.(drainer)
	active := g.source == src
	g.mu.Unlock()
	if !ok || !active {
		return
	}

	deadline := time.Now().Add(timeout)
	for d.IsPlaying() && time.Now().Before(deadline) {
		time.Sleep(drainPoll)
	}
}

// Suspend pauses the audio clock without tearing down the graph.
func (g *Graph) Suspend() error { return g.ctx.Suspend() }

// Resume restarts the audio clock.
func (g *Graph) Resume() error { return g.ctx.Resume() }

// SetVolume sets the gain multiplier.
func (g *Graph) SetVolume(v float64) { g.gain.Set(v) }

// SetPlaybackRate changes the rate of the active source, if any.
func (g *Graph) SetPlaybackRate(r float64) {
	if src := g.Source(); src != nil {
		src.SetPlaybackRate(r)
	}
}

// CurrentTime returns the context's audio clock.
func (g *Graph) CurrentTime() time.Duration { return g.ctx.CurrentTime() }
