package audio

import (
	"io"
	"sync"
	"time"
)

// SourceNode plays a Buffer once from a start offset. A node that has been
// stopped cannot be restarted; the Graph creates a new one per playback.
type SourceNode struct {
	buffer *Buffer
	step   float64 // buffer frames per output frame at rate 1

	mu       sync.Mutex
	pos      float64
	rate     float64
	paths    [][]node
	stopped  bool
	finished bool
	natural  bool
	done     chan struct{}

	// grow-only scratch blocks
	dryL, dryR []float32
	wetL, wetR []float32
	mixL, mixR []float32
}

func newSourceNode(buf *Buffer, outputRate int, offset time.Duration) *SourceNode {
	start := offset.Seconds() * float64(buf.SampleRate())
	if start < 0 {
		start = 0
	}
	return &SourceNode{
		buffer: buf,
		step:   float64(buf.SampleRate()) / float64(outputRate),
		pos:    start,
		rate:   1,
		done:   make(chan struct{}),
	}
}

// connect adds a chain of nodes ending at the destination. Every chain gets
// its own copy of the source signal and the destination sums them.
func (s *SourceNode) connect(chain ...node) {
	s.mu.Lock()
	s.paths = append(s.paths, chain)
	s.mu.Unlock()
}

func (s *SourceNode) disconnect() {
	s.mu.Lock()
	s.paths = nil
	s.mu.Unlock()
}

// Done is closed once the node stops producing audio, for any reason.
func (s *SourceNode) Done() <-chan struct{} { return s.done }

// EndedNaturally reports whether playback reached the end of the buffer.
func (s *SourceNode) EndedNaturally() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.natural
}

// PlaybackRate returns the current rate multiplier.
func (s *SourceNode) PlaybackRate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rate
}

// SetPlaybackRate changes how fast the buffer is consumed.
func (s *SourceNode) SetPlaybackRate(r float64) {
	if r <= 0 {
		return
	}
	s.mu.Lock()
	s.rate = r
	s.mu.Unlock()
}

// Offset returns the read position within the buffer.
func (s *SourceNode) Offset() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Duration(s.pos / float64(s.buffer.SampleRate()) * float64(time.Second))
}

// stop invalidates the node without reporting a natural end.
func (s *SourceNode) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	s.finishLocked(false)
}

func (s *SourceNode) finishLocked(natural bool) {
	if s.finished {
		return
	}
	s.finished = true
	s.natural = natural
	close(s.done)
}

// Read renders s16le stereo for the destination.
func (s *SourceNode) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped || s.finished {
		return 0, io.EOF
	}

	frames := len(p) / frameBytes
	if frames == 0 {
		return 0, nil
	}
	s.grow(frames)

	length := float64(s.buffer.Length())
	n := 0
	for ; n < frames && s.pos < length; n++ {
		s.dryL[n], s.dryR[n] = s.buffer.frame(s.pos)
		s.pos += s.step * s.rate
	}
	if n == 0 {
		s.finishLocked(true)
		return 0, io.EOF
	}

	mixL, mixR := s.mixL[:n], s.mixR[:n]
	clear(mixL)
	clear(mixR)
	for _, chain := range s.paths {
		wetL, wetR := s.wetL[:n], s.wetR[:n]
		copy(wetL, s.dryL[:n])
		copy(wetR, s.dryR[:n])
		for _, nd := range chain {
			nd.process(wetL, wetR)
		}
		for i := range n {
			mixL[i] += wetL[i]
			mixR[i] += wetR[i]
		}
	}

	for i := range n {
		putSample(p[i*frameBytes:], mixL[i])
		putSample(p[i*frameBytes+bytesPerSample:], mixR[i])
	}
	return n * frameBytes, nil
}

func (s *SourceNode) grow(frames int) {
	if cap(s.dryL) >= frames {
		return
	}
	s.dryL, s.dryR = make([]float32, frames), make([]float32, frames)
	s.wetL, s.wetR = make([]float32, frames), make([]float32, frames)
	s.mixL, s.mixR = make([]float32, frames), make([]float32, frames)
}

func putSample(p []byte, v float32) {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	u := uint16(int16(v * 32767))
	p[0] = byte(u)
	p[1] = byte(u >> 8)
}
