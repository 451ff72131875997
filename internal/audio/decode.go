package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
)

// Format identifies an audio container.
type Format string

const (
	FormatUnknown Format = ""
	FormatMP3     Format = "mp3"
	FormatWAV     Format = "wav"
	FormatFLAC    Format = "flac"
	FormatOGG     Format = "ogg"
)

// ErrUnsupportedFormat is matched by a DecodeError whose bytes did not look
// like any supported container.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// DecodeError reports bytes that could not be turned into PCM.
type DecodeError struct {
	Format Format
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Format == FormatUnknown {
		return fmt.Sprintf("decoding audio: %v", e.Err)
	}
	return fmt.Sprintf("decoding %s: %v", e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Sniff detects the container from its leading bytes.
func Sniff(data []byte) Format {
	switch {
	case len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE":
		return FormatWAV
	case len(data) >= 4 && string(data[0:4]) == "fLaC":
		return FormatFLAC
	case len(data) >= 4 && string(data[0:4]) == "OggS":
		return FormatOGG
	case len(data) >= 3 && string(data[0:3]) == "ID3":
		return FormatMP3
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return FormatMP3
	}
	return FormatUnknown
}

// Decode turns an encoded blob into a Buffer.
func Decode(data []byte) (*Buffer, error) {
	format := Sniff(data)

	var (
		buf *Buffer
		err error
	)
	switch format {
	case FormatMP3:
		buf, err = decodeMP3(data)
	case FormatWAV:
		buf, err = decodeWAV(data)
	case FormatFLAC:
		buf, err = decodeFLAC(data)
	case FormatOGG:
		buf, err = decodeOGG(data)
	default:
		err = ErrUnsupportedFormat
	}
	if err != nil {
		return nil, &DecodeError{Format: format, Err: err}
	}
	if buf.Length() == 0 || buf.SampleRate() <= 0 {
		return nil, &DecodeError{Format: format, Err: errors.New("no audio frames")}
	}
	return buf, nil
}

func decodeMP3(data []byte) (*Buffer, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	// go-mp3 always yields 16-bit little-endian stereo.
	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, err
	}
	frames := len(raw) / 4
	left := make([]float32, frames)
	right := make([]float32, frames)
	for i := range frames {
		off := i * 4
		left[i] = float32(int16(uint16(raw[off])|uint16(raw[off+1])<<8)) / 32768
		right[i] = float32(int16(uint16(raw[off+2])|uint16(raw[off+3])<<8)) / 32768
	}
	return NewBuffer([][]float32{left, right}, dec.SampleRate()), nil
}

func decodeWAV(data []byte) (*Buffer, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, errors.New("invalid WAV file")
	}
	if dec.WavAudioFormat != 1 {
		return nil, fmt.Errorf("WAV encoding %d is not PCM", dec.WavAudioFormat)
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("reading WAV PCM data: %w", err)
	}
	channels := pcm.Format.NumChannels
	if channels < 1 {
		return nil, fmt.Errorf("unsupported channel count: %d", channels)
	}
	bitDepth := pcm.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = int(dec.BitDepth)
	}
	if bitDepth < 8 || bitDepth > 32 {
		return nil, fmt.Errorf("unsupported bit depth: %d", bitDepth)
	}

	frames := len(pcm.Data) / channels
	out := make([][]float32, channels)
	for ch := range out {
		out[ch] = make([]float32, frames)
	}
	scale := float32(int64(1) << (bitDepth - 1))
	for i := range frames {
		for ch := range channels {
			v := pcm.Data[i*channels+ch]
			if bitDepth == 8 {
				// 8-bit WAV is unsigned
				v -= 128
			}
			out[ch][i] = float32(v) / scale
		}
	}
	return NewBuffer(out, pcm.Format.SampleRate), nil
}

func decodeFLAC(data []byte) (*Buffer, error) {
	stream, err := flac.New(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	info := stream.Info
	channels := int(info.NChannels)
	if channels < 1 {
		return nil, fmt.Errorf("unsupported channel count: %d", channels)
	}
	scale := float32(int64(1) << (info.BitsPerSample - 1))

	out := make([][]float32, channels)
	for ch := range out {
		out[ch] = make([]float32, 0, info.NSamples)
	}
	for {
		frame, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		for ch := range channels {
			for _, s := range frame.Subframes[ch].Samples {
				out[ch] = append(out[ch], float32(s)/scale)
			}
		}
	}
	return NewBuffer(out, int(info.SampleRate)), nil
}

func decodeOGG(data []byte) (*Buffer, error) {
	samples, format, err := oggvorbis.ReadAll(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	channels := format.Channels
	if channels < 1 {
		return nil, fmt.Errorf("unsupported channel count: %d", channels)
	}

	frames := len(samples) / channels
	out := make([][]float32, channels)
	for ch := range out {
		out[ch] = make([]float32, frames)
	}
	for i := range frames {
		for ch := range channels {
			out[ch][i] = samples[i*channels+ch]
		}
	}
	return NewBuffer(out, format.SampleRate), nil
}
