package beep

import (
	"context"
	"math"
	"testing"

	"github.com/DingusDevOrg/cubeb/pkg/audio"
	"github.com/DingusDevOrg/cubeb/pkg/audio/backend"
)

// detached builds a stream that is not attached to the speaker.
func detached(params audio.StreamParams, period int) *Stream {
	s := &Stream{
		params:  params,
		period:  period,
		latency: period * backend.Periods,
		feed:    backend.NewRingFeed(params, period*backend.Periods),
	}
	s.src = &feedStreamer{stream: s, scratch: make([]byte, params.FramesToBytes(period))}
	return s
}

func TestFeedStreamerStereo(t *testing.T) {
	params := audio.StreamParams{Format: audio.FormatFloat32LE, Rate: 48000, Channels: 2}
	s := detached(params, 4)

	in := make([]byte, params.FramesToBytes(6))
	for i := 0; i < 12; i++ {
		audio.PutSample(params.Format, in, i, float64(i)/16)
	}
	s.feed.Write(context.Background(), in)
	s.feed.SetRunning(true)

	// Larger than one scratch period and than the data queued.
	out := make([][2]float64, 8)
	n, ok := s.src.Stream(out)
	if n != 8 || !ok {
		t.Fatalf("expected (8, true), got (%d, %v)", n, ok)
	}
	for i := 0; i < 6; i++ {
		want := [2]float64{float64(2*i) / 16, float64(2*i+1) / 16}
		if math.Abs(out[i][0]-want[0]) > 1e-6 || math.Abs(out[i][1]-want[1]) > 1e-6 {
			t.Errorf("frame %d: expected %v, got %v", i, want, out[i])
		}
	}
	for i := 6; i < 8; i++ {
		if out[i] != [2]float64{} {
			t.Errorf("frame %d: expected silence, got %v", i, out[i])
		}
	}
	if s.feed.Played() != 6 {
		t.Errorf("expected 6 frames played, got %d", s.feed.Played())
	}
}

func TestFeedStreamerMonoDuplicates(t *testing.T) {
	params := audio.StreamParams{Format: audio.FormatS16LE, Rate: 48000, Channels: 1}
	s := detached(params, 64)

	in := make([]byte, params.FramesToBytes(2))
	audio.PutSample(params.Format, in, 0, 0.5)
	audio.PutSample(params.Format, in, 1, -0.25)
	s.feed.Write(context.Background(), in)
	s.feed.SetRunning(true)

	out := make([][2]float64, 2)
	s.src.Stream(out)
	if out[0][0] != 0.5 || out[0][1] != 0.5 {
		t.Errorf("expected 0.5 on both channels, got %v", out[0])
	}
	if out[1][0] != -0.25 || out[1][1] != -0.25 {
		t.Errorf("expected -0.25 on both channels, got %v", out[1])
	}
}

func TestFeedStreamerPausedAndClosed(t *testing.T) {
	params := audio.StreamParams{Format: audio.FormatS16LE, Rate: 48000, Channels: 2}
	s := detached(params, 64)
	s.feed.Write(context.Background(), make([]byte, params.FramesToBytes(10)))

	out := make([][2]float64, 10)
	if n, ok := s.src.Stream(out); n != 10 || !ok {
		t.Errorf("paused feed: expected (10, true), got (%d, %v)", n, ok)
	}
	if s.feed.Played() != 0 {
		t.Error("paused feed consumed frames")
	}

	s.src.closed = true
	if n, ok := s.src.Stream(out); n != 0 || ok {
		t.Errorf("closed feed: expected (0, false), got (%d, %v)", n, ok)
	}
}
