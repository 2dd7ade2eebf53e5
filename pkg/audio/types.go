// ABOUTME: Audio type definitions
// ABOUTME: Defines sample formats and immutable stream parameters
package audio

import (
	"errors"
	"fmt"
	"time"
)

// SampleFormat identifies the encoding of one sample.
type SampleFormat int

const (
	// FormatU8 is 8-bit unsigned PCM. Silence is 0x80.
	FormatU8 SampleFormat = iota
	// FormatS16LE is little-endian 16-bit signed PCM.
	FormatS16LE
	// FormatFloat32LE is little-endian 32-bit IEEE float PCM in [-1, 1].
	FormatFloat32LE
)

var (
	ErrInvalidSampleFormat = errors.New("invalid sample format")
	ErrInvalidRate         = errors.New("sample rate must be positive")
	ErrInvalidChannels     = errors.New("channel count must be positive")
)

// Valid reports whether f is one of the supported formats.
func (f SampleFormat) Valid() bool {
	return f == FormatU8 || f == FormatS16LE || f == FormatFloat32LE
}

// BytesPerSample returns the size of one sample, or 0 for an invalid format.
func (f SampleFormat) BytesPerSample() int {
	switch f {
	case FormatU8:
		return 1
	case FormatS16LE:
		return 2
	case FormatFloat32LE:
		return 4
	default:
		return 0
	}
}

func (f SampleFormat) String() string {
	switch f {
	case FormatU8:
		return "u8"
	case FormatS16LE:
		return "s16le"
	case FormatFloat32LE:
		return "f32le"
	default:
		return fmt.Sprintf("SampleFormat(%d)", int(f))
	}
}

// ParseSampleFormat maps a format name as printed by String back to a SampleFormat.
func ParseSampleFormat(s string) (SampleFormat, error) {
	switch s {
	case "u8":
		return FormatU8, nil
	case "s16le", "s16":
		return FormatS16LE, nil
	case "f32le", "f32", "float32le":
		return FormatFloat32LE, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidSampleFormat, s)
	}
}

// StreamParams describes a stream's sample layout. Streams copy it at creation
// and never change it afterwards.
type StreamParams struct {
	Format   SampleFormat
	Rate     int
	Channels int
}

// Validate checks the parameters are structurally usable. Whether a backend
// can honor them is decided by the backend.
func (p StreamParams) Validate() error {
	if !p.Format.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidSampleFormat, int(p.Format))
	}
	if p.Rate <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidRate, p.Rate)
	}
	if p.Channels <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidChannels, p.Channels)
	}
	return nil
}

// FrameSize returns the number of bytes in one frame.
func (p StreamParams) FrameSize() int {
	return p.Format.BytesPerSample() * p.Channels
}

// FramesToBytes converts a frame count to a byte count.
func (p StreamParams) FramesToBytes(frames int) int {
	return frames * p.FrameSize()
}

// BytesToFrames converts a byte count to whole frames, discarding a trailing partial frame.
func (p StreamParams) BytesToFrames(n int) int {
	fs := p.FrameSize()
	if fs == 0 {
		return 0
	}
	return n / fs
}

// Duration returns how long frames take to play at the stream rate.
func (p StreamParams) Duration(frames int) time.Duration {
	if p.Rate <= 0 {
		return 0
	}
	return time.Duration(int64(frames) * int64(time.Second) / int64(p.Rate))
}

// FramesIn returns how many frames play during d, rounded down.
func (p StreamParams) FramesIn(d time.Duration) int {
	return int(int64(d) * int64(p.Rate) / int64(time.Second))
}

func (p StreamParams) String() string {
	return fmt.Sprintf("%s %dHz %dch", p.Format, p.Rate, p.Channels)
}
