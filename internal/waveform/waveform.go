// Package waveform reduces decoded audio to a fixed-resolution amplitude
// profile and draws it as a static chart.
package waveform

import (
	"fmt"
	"math"
	"time"

	"github.com/olivier-w/wavedeck/internal/audio"
)

// DefaultLabelStep is the spacing of time-axis labels.
const DefaultLabelStep = 30 * time.Second

// Profile is a normalized amplitude summary; every value is in [0, 1].
type Profile []float64

// Downsample averages the absolute amplitude of the first channel over
// equally sized blocks and normalizes by the loudest block. A non-positive
// bucket count means one bucket per unit of sample rate. A silent buffer
// yields all zeros.
func Downsample(buf *audio.Buffer, buckets int) Profile {
	if buf == nil || buf.NumberOfChannels() == 0 {
		return nil
	}
	raw := buf.ChannelData(0)
	if buckets <= 0 {
		buckets = buf.SampleRate()
	}
	blockSize := len(raw) / max(buckets, 1)
	if blockSize == 0 {
		blockSize = 1
		buckets = len(raw)
	}

	out := make(Profile, buckets)
	peak := 0.0
	for i := range buckets {
		start := i * blockSize
		sum := 0.0
		for _, s := range raw[start : start+blockSize] {
			sum += math.Abs(float64(s))
		}
		avg := sum / float64(blockSize)
		if math.IsNaN(avg) {
			avg = 0
		}
		out[i] = avg
		peak = max(peak, avg)
	}

	if peak == 0 {
		clear(out)
		return out
	}
	for i := range out {
		out[i] = min(out[i]/peak, 1)
	}
	return out
}

// TimeAxisLabels returns one "mm:ss" label per step boundary, starting at
// zero, ceil(d/step) labels in total.
func TimeAxisLabels(d, step time.Duration) []string {
	if step <= 0 {
		step = DefaultLabelStep
	}
	if d <= 0 {
		return nil
	}
	steps := int(math.Ceil(float64(d) / float64(step)))
	labels := make([]string, steps)
	for i := range labels {
		labels[i] = FormatClock(time.Duration(i) * step)
	}
	return labels
}

// FormatClock formats a duration as mm:ss with total minutes.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
