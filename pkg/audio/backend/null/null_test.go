package null

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DingusDevOrg/cubeb/pkg/audio"
	"github.com/DingusDevOrg/cubeb/pkg/audio/backend"
	"go.uber.org/zap/zaptest"
)

var stereo = audio.StreamParams{Format: audio.FormatS16LE, Rate: 48000, Channels: 2}

func TestStreamInitRejectsFormats(t *testing.T) {
	b := New(zaptest.NewLogger(t))

	tests := []struct {
		name   string
		params audio.StreamParams
	}{
		{"zero rate", audio.StreamParams{Format: audio.FormatS16LE, Rate: 0, Channels: 2}},
		{"rate too low", audio.StreamParams{Format: audio.FormatS16LE, Rate: 100, Channels: 2}},
		{"rate too high", audio.StreamParams{Format: audio.FormatS16LE, Rate: 1000000, Channels: 2}},
		{"too many channels", audio.StreamParams{Format: audio.FormatS16LE, Rate: 48000, Channels: 64}},
		{"bad format", audio.StreamParams{Format: audio.SampleFormat(42), Rate: 48000, Channels: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.StreamInit("test", tt.params, 4800)
			if !errors.Is(err, backend.ErrUnsupportedFormat) {
				t.Errorf("expected ErrUnsupportedFormat, got %v", err)
			}
		})
	}
}

func TestStreamLatencyRounding(t *testing.T) {
	b := New(nil)
	s, err := b.StreamInit("test", stereo, 12000)
	if err != nil {
		t.Fatalf("StreamInit: %v", err)
	}
	defer s.Close()

	if s.BufferFrames() != 3008 {
		t.Errorf("expected period 3008, got %d", s.BufferFrames())
	}
	if s.LatencyFrames() != 12032 {
		t.Errorf("expected latency 12032, got %d", s.LatencyFrames())
	}
}

func TestClosedBackend(t *testing.T) {
	b := New(nil)
	b.Close()
	if _, err := b.StreamInit("test", stereo, 4800); !errors.Is(err, backend.ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestStreamPlaysInRealTime(t *testing.T) {
	b := New(zaptest.NewLogger(t))
	s, err := b.StreamInit("test", stereo, 4800)
	if err != nil {
		t.Fatalf("StreamInit: %v", err)
	}
	defer s.Close()

	// 200ms of audio
	buf := make([]byte, stereo.FramesToBytes(9600))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	begin := time.Now()
	if _, err := s.Write(ctx, buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := s.Drain(ctx); err != nil {
		t.Fatalf("Drain: %v", err)
	}
	elapsed := time.Since(begin)

	// 9600 frames at 48kHz take 200ms to play.
	if elapsed < 90*time.Millisecond {
		t.Errorf("drained too fast: %v", elapsed)
	}

	pos, _ := s.Position()
	if pos != 9600 {
		t.Errorf("expected position 9600, got %d", pos)
	}
}

func TestStopHaltsConsumption(t *testing.T) {
	b := New(nil)
	s, err := b.StreamInit("test", stereo, 4800)
	if err != nil {
		t.Fatalf("StreamInit: %v", err)
	}
	defer s.Close()

	buf := make([]byte, stereo.FramesToBytes(4800))
	if _, err := s.Write(context.Background(), buf); err != nil {
		t.Fatalf("Write: %v", err)
	}

	// Not started: nothing may be consumed.
	time.Sleep(30 * time.Millisecond)
	if pos, _ := s.Position(); pos != 0 {
		t.Fatalf("expected no playback before Start, got %d", pos)
	}

	s.Start()
	time.Sleep(30 * time.Millisecond)
	s.Stop()

	stopped, _ := s.Position()
	if stopped == 0 {
		t.Fatal("expected playback after Start")
	}
	time.Sleep(30 * time.Millisecond)
	if pos, _ := s.Position(); pos != stopped {
		t.Errorf("position moved after Stop: %d -> %d", stopped, pos)
	}
}

func TestDrainCancelled(t *testing.T) {
	b := New(nil)
	s, _ := b.StreamInit("test", stereo, 4800)
	defer s.Close()

	s.Write(context.Background(), make([]byte, stereo.FramesToBytes(100)))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := s.Drain(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline error from drain of a stopped stream, got %v", err)
	}
}
