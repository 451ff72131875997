package audio

import "time"

// Buffer holds fully decoded PCM audio. Samples are per channel, in [-1, 1].
// A Buffer is never mutated after it is built.
type Buffer struct {
	channels   [][]float32
	sampleRate int
	length     int
}

// NewBuffer wraps per-channel sample slices. All channels must have the same length.
func NewBuffer(channels [][]float32, sampleRate int) *Buffer {
	length := 0
	if len(channels) > 0 {
		length = len(channels[0])
	}
	return &Buffer{channels: channels, sampleRate: sampleRate, length: length}
}

// NumberOfChannels returns the channel count.
func (b *Buffer) NumberOfChannels() int { return len(b.channels) }

// SampleRate returns frames per second.
func (b *Buffer) SampleRate() int { return b.sampleRate }

// Length returns the number of frames per channel.
func (b *Buffer) Length() int { return b.length }

// ChannelData returns the samples of one channel. Callers must not modify it.
func (b *Buffer) ChannelData(ch int) []float32 {
	if ch < 0 || ch >= len(b.channels) {
		return nil
	}
	return b.channels[ch]
}

// Duration returns the playback length at 1x.
func (b *Buffer) Duration() time.Duration {
	if b.sampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(b.length) / float64(b.sampleRate) * float64(time.Second))
}

// frame returns a stereo frame at a fractional frame position using linear
// interpolation. Mono buffers are duplicated to both sides.
func (b *Buffer) frame(pos float64) (float32, float32) {
	i := int(pos)
	if i < 0 || i >= b.length {
		return 0, 0
	}
	frac := float32(pos - float64(i))
	next := i + 1
	if next >= b.length {
		next = i
	}

	left := b.channels[0]
	l := left[i] + (left[next]-left[i])*frac
	if len(b.channels) == 1 {
		return l, l
	}
	right := b.channels[1]
	r := right[i] + (right[next]-right[i])*frac
	return l, r
}
