package config

import (
	"os"
	"strconv"
	"time"
)

const (
	minFFTSize = 32
	maxFFTSize = 32768
)

// Config holds all runtime configuration, loaded from environment variables.
type Config struct {
	// Audio output
	SampleRate int

	// Analyser
	FFTSize   int     // power of two, bins = FFTSize/2
	Smoothing float64 // time smoothing in [0, 1)

	// Animation and cursor
	FrameRate  int           // spectrum frames per second
	CursorTick time.Duration // auto-advance period
	ScrubRate  float64       // playback rate while the cursor is dragged

	// Playback
	Volume float64 // gain in [-1, 1]

	// Waveform chart
	WaveformBuckets int           // 0 means one bucket per sample-rate unit
	LabelStep       time.Duration // time axis spacing

	// Logging
	LogFile string // empty discards logs
}

// Default returns the configuration used when no variables are set.
func Default() Config {
	return Config{
		SampleRate:      48000,
		FFTSize:         256,
		Smoothing:       0.8,
		FrameRate:       30,
		CursorTick:      time.Second,
		ScrubRate:       2.0,
		Volume:          1.0,
		WaveformBuckets: 0,
		LabelStep:       30 * time.Second,
	}
}

// Load reads configuration from environment variables with sane defaults.
func Load() Config {
	d := Default()
	cfg := Config{
		SampleRate:      envInt("WAVEDECK_SAMPLE_RATE", d.SampleRate),
		FFTSize:         envInt("WAVEDECK_FFT_SIZE", d.FFTSize),
		Smoothing:       envFloat("WAVEDECK_SMOOTHING", d.Smoothing),
		FrameRate:       envInt("WAVEDECK_FRAME_RATE", d.FrameRate),
		CursorTick:      time.Duration(envInt("WAVEDECK_CURSOR_TICK_MS", int(d.CursorTick/time.Millisecond))) * time.Millisecond,
		ScrubRate:       envFloat("WAVEDECK_SCRUB_RATE", d.ScrubRate),
		Volume:          envFloat("WAVEDECK_VOLUME", d.Volume),
		WaveformBuckets: envInt("WAVEDECK_WAVEFORM_BUCKETS", d.WaveformBuckets),
		LabelStep:       time.Duration(envInt("WAVEDECK_LABEL_STEP", int(d.LabelStep/time.Second))) * time.Second,
		LogFile:         envStr("WAVEDECK_LOG_FILE", ""),
	}

	if !validFFTSize(cfg.FFTSize) {
		cfg.FFTSize = d.FFTSize
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = d.SampleRate
	}
	if cfg.Smoothing < 0 || cfg.Smoothing >= 1 {
		cfg.Smoothing = d.Smoothing
	}
	if cfg.FrameRate <= 0 {
		cfg.FrameRate = d.FrameRate
	}
	if cfg.CursorTick <= 0 {
		cfg.CursorTick = d.CursorTick
	}
	if cfg.ScrubRate <= 0 {
		cfg.ScrubRate = d.ScrubRate
	}
	if cfg.LabelStep <= 0 {
		cfg.LabelStep = d.LabelStep
	}
	cfg.Volume = ClampVolume(cfg.Volume)
	return cfg
}

// ClampVolume limits v to the accepted gain range [-1, 1].
func ClampVolume(v float64) float64 {
	return min(max(v, -1), 1)
}

func validFFTSize(n int) bool {
	return n >= minFFTSize && n <= maxFFTSize && n&(n-1) == 0
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
