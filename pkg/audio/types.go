// ABOUTME: Audio type definitions
// ABOUTME: Defines audio formats, planar sample buffers and sample conversion
package audio

import (
	"errors"
	"fmt"
)

const (
	// Sample rate limits accepted anywhere in the pipeline
	MinSampleRate = 8000
	MaxSampleRate = 192000

	// Stereo is the only channel layout the noise loops use
	DefaultChannels   = 2
	DefaultSampleRate = 48000
)

// ErrInvalidFormat is returned when a buffer cannot be described by a format
var ErrInvalidFormat = errors.New("invalid audio format")

// Format describes a PCM stream layout
type Format struct {
	SampleRate int
	Channels   int
}

// Validate checks that the format is usable for playback
func (f Format) Validate() error {
	if f.SampleRate < MinSampleRate || f.SampleRate > MaxSampleRate {
		return fmt.Errorf("%w: sample rate %d outside %d-%d",
			ErrInvalidFormat, f.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if f.Channels < 1 || f.Channels > 8 {
		return fmt.Errorf("%w: %d channels", ErrInvalidFormat, f.Channels)
	}
	return nil
}

// Renderer produces interleaved float32 frames on demand. Output devices
// call it from their own goroutine.
type Renderer interface {
	Render(dst []float32)
}

// Buffer holds planar float32 PCM, one slice per channel.
// Samples are expected to lie in [-1.0, 1.0].
type Buffer struct {
	format   Format
	channels [][]float32
}

// NewBuffer allocates a silent buffer of frames samples per channel
func NewBuffer(format Format, frames int) (*Buffer, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	if frames <= 0 {
		return nil, fmt.Errorf("%w: %d frames", ErrInvalidFormat, frames)
	}

	channels := make([][]float32, format.Channels)
	for ch := range channels {
		channels[ch] = make([]float32, frames)
	}

	return &Buffer{format: format, channels: channels}, nil
}

// Format returns the buffer format
func (b *Buffer) Format() Format { return b.format }

// SampleRate returns the sample rate in Hz
func (b *Buffer) SampleRate() int { return b.format.SampleRate }

// NumberOfChannels returns the channel count
func (b *Buffer) NumberOfChannels() int { return len(b.channels) }

// Length returns the number of frames per channel
func (b *Buffer) Length() int {
	if len(b.channels) == 0 {
		return 0
	}
	return len(b.channels[0])
}

// ChannelData returns the writable samples of one channel
func (b *Buffer) ChannelData(ch int) []float32 {
	return b.channels[ch]
}

// Duration returns the buffer length in seconds
func (b *Buffer) Duration() float64 {
	return float64(b.Length()) / float64(b.format.SampleRate)
}

// Clamp limits a sample to the [-1.0, 1.0] range
func Clamp(sample float64) float32 {
	if sample > 1 {
		return 1
	}
	if sample < -1 {
		return -1
	}
	return float32(sample)
}

// FloatToInt16 converts a float sample to signed 16-bit PCM with clipping
func FloatToInt16(sample float32) int16 {
	if sample >= 1 {
		return 32767
	}
	if sample <= -1 {
		return -32768
	}
	return int16(sample * 32767)
}

// Int16ToFloat converts signed 16-bit PCM to a float sample
func Int16ToFloat(sample int16) float32 {
	if sample == -32768 {
		return -1
	}
	return float32(sample) / 32767
}
