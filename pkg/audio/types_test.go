// ABOUTME: Tests for audio types
// ABOUTME: Tests stream parameter validation and sample conversion functions
package audio

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestStreamParamsValidate(t *testing.T) {
	tests := []struct {
		name   string
		params StreamParams
		want   error
	}{
		{"s16 stereo", StreamParams{FormatS16LE, 48000, 2}, nil},
		{"u8 mono", StreamParams{FormatU8, 8000, 1}, nil},
		{"float 5.1", StreamParams{FormatFloat32LE, 96000, 6}, nil},
		{"unknown format", StreamParams{SampleFormat(7), 48000, 2}, ErrInvalidSampleFormat},
		{"zero rate", StreamParams{FormatS16LE, 0, 2}, ErrInvalidRate},
		{"negative rate", StreamParams{FormatS16LE, -44100, 2}, ErrInvalidRate},
		{"zero channels", StreamParams{FormatS16LE, 48000, 0}, ErrInvalidChannels},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if tt.want == nil {
				if err != nil {
					t.Errorf("expected nil, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestFrameSize(t *testing.T) {
	tests := []struct {
		params   StreamParams
		expected int
	}{
		{StreamParams{FormatU8, 8000, 1}, 1},
		{StreamParams{FormatS16LE, 48000, 2}, 4},
		{StreamParams{FormatFloat32LE, 48000, 2}, 8},
		{StreamParams{FormatS16LE, 48000, 3}, 6},
	}

	for _, tt := range tests {
		if got := tt.params.FrameSize(); got != tt.expected {
			t.Errorf("%s: expected frame size %d, got %d", tt.params, tt.expected, got)
		}
	}
}

func TestFrameConversions(t *testing.T) {
	p := StreamParams{FormatS16LE, 48000, 2}

	if got := p.FramesToBytes(480); got != 1920 {
		t.Errorf("expected 1920 bytes, got %d", got)
	}
	if got := p.BytesToFrames(1923); got != 480 {
		t.Errorf("expected 480 frames, got %d", got)
	}
	if got := p.Duration(48000); got != time.Second {
		t.Errorf("expected 1s, got %v", got)
	}
	if got := p.FramesIn(10 * time.Millisecond); got != 480 {
		t.Errorf("expected 480 frames in 10ms, got %d", got)
	}
}

func TestParseSampleFormat(t *testing.T) {
	for _, f := range []SampleFormat{FormatU8, FormatS16LE, FormatFloat32LE} {
		got, err := ParseSampleFormat(f.String())
		if err != nil {
			t.Fatalf("parse %q: %v", f, err)
		}
		if got != f {
			t.Errorf("expected %v, got %v", f, got)
		}
	}

	if _, err := ParseSampleFormat("s24le"); !errors.Is(err, ErrInvalidSampleFormat) {
		t.Errorf("expected ErrInvalidSampleFormat, got %v", err)
	}
}

func TestSampleToInt16(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected int16
	}{
		{"zero", 0, 0},
		{"half", 0.5, 16384},
		{"negative half", -0.5, -16384},
		{"max", 1, 32767},
		{"min", -1, -32768},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SampleToInt16(tt.input)
			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestPutSampleRoundTrip(t *testing.T) {
	values := []float64{0, 0.25, -0.25, 0.5, -0.5}

	for _, f := range []SampleFormat{FormatU8, FormatS16LE, FormatFloat32LE} {
		buf := make([]byte, len(values)*f.BytesPerSample())
		for i, v := range values {
			PutSample(f, buf, i, v)
		}
		for i, v := range values {
			got := Sample(f, buf, i)
			if math.Abs(got-v) > 1.0/128 {
				t.Errorf("%s: sample %d expected %f, got %f", f, i, v, got)
			}
		}
	}
}

func TestSilence(t *testing.T) {
	buf := []byte{1, 2, 3, 4}

	Silence(FormatU8, buf)
	for i, b := range buf {
		if b != 0x80 {
			t.Errorf("u8 byte %d: expected 0x80, got %#x", i, b)
		}
	}

	Silence(FormatS16LE, buf)
	for i, b := range buf {
		if b != 0 {
			t.Errorf("s16 byte %d: expected 0, got %#x", i, b)
		}
	}
}

func TestApplyGain(t *testing.T) {
	buf := make([]byte, 4)
	PutSample(FormatS16LE, buf, 0, 0.5)
	PutSample(FormatS16LE, buf, 1, -0.5)

	ApplyGain(FormatS16LE, buf, 0.5)

	if got := Sample(FormatS16LE, buf, 0); math.Abs(got-0.25) > 1e-3 {
		t.Errorf("expected 0.25, got %f", got)
	}
	if got := Sample(FormatS16LE, buf, 1); math.Abs(got+0.25) > 1e-3 {
		t.Errorf("expected -0.25, got %f", got)
	}

	u8 := []byte{0xC0}
	ApplyGain(FormatU8, u8, 0)
	if u8[0] != 0x80 {
		t.Errorf("expected muted u8 to be 0x80, got %#x", u8[0])
	}

	f32 := make([]byte, 4)
	PutSample(FormatFloat32LE, f32, 0, 0.8)
	ApplyGain(FormatFloat32LE, f32, 1)
	if got := Sample(FormatFloat32LE, f32, 0); math.Abs(got-0.8) > 1e-6 {
		t.Errorf("unity gain changed sample: %f", got)
	}
}
