// ABOUTME: Beep-based backend implementation
// ABOUTME: Converts ring feed frames into beep's stereo float samples
package beep

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/DingusDevOrg/cubeb/pkg/audio"
	"github.com/DingusDevOrg/cubeb/pkg/audio/backend"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"go.uber.org/zap"
)

// Name is the registry name of the beep driver.
const Name = "beep"

const quantum = 128

func init() {
	backend.Register(backend.Factory{
		Name:     Name,
		Priority: 15,
		Init: func(_ string, log *zap.Logger) (backend.Backend, error) {
			return New(log), nil
		},
	})
}

var device struct {
	mu    sync.Mutex
	rate  beep.SampleRate
	mixer *beep.Mixer
}

// openSpeaker initializes the speaker at rate on first use and returns the
// mixer every stream plays into.
func openSpeaker(rate beep.SampleRate, buffer int, log *zap.Logger) (*beep.Mixer, error) {
	device.mu.Lock()
	defer device.mu.Unlock()

	if device.mixer != nil {
		if device.rate != rate {
			return nil, fmt.Errorf("%w: speaker already open at %d Hz", backend.ErrUnsupportedFormat, device.rate)
		}
		return device.mixer, nil
	}

	if err := speaker.Init(rate, buffer); err != nil {
		return nil, fmt.Errorf("%w: init speaker: %v", backend.ErrUnavailable, err)
	}
	device.rate = rate
	device.mixer = &beep.Mixer{}
	speaker.Play(device.mixer)
	log.Info("speaker opened", zap.Int("rate", int(rate)), zap.Int("buffer", buffer))
	return device.mixer, nil
}

// Backend plays streams through the speaker.
type Backend struct {
	log    *zap.Logger
	closed atomic.Bool
}

func New(log *zap.Logger) *Backend {
	if log == nil {
		log = zap.NewNop()
	}
	return &Backend{log: log.Named(Name)}
}

func (b *Backend) Name() string { return Name }

func (b *Backend) StreamInit(name string, params audio.StreamParams, latencyFrames int) (backend.Stream, error) {
	if b.closed.Load() {
		return nil, backend.ErrClosed
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", backend.ErrUnsupportedFormat, err)
	}
	if params.Channels > 2 {
		return nil, fmt.Errorf("%w: speaker plays at most 2 channels, got %d", backend.ErrUnsupportedFormat, params.Channels)
	}

	period, latency := backend.RoundLatency(params, latencyFrames, quantum)
	mixer, err := openSpeaker(beep.SampleRate(params.Rate), period, b.log)
	if err != nil {
		return nil, err
	}

	s := &Stream{
		params:  params,
		period:  period,
		latency: latency,
		feed:    backend.NewRingFeed(params, latency),
	}
	s.src = &feedStreamer{stream: s, scratch: make([]byte, params.FramesToBytes(period))}
	s.ctrl = &beep.Ctrl{Streamer: s.src, Paused: true}

	speaker.Lock()
	mixer.Add(s.ctrl)
	speaker.Unlock()

	b.log.Debug("stream created",
		zap.String("stream", name),
		zap.Int("period", period),
		zap.Int("latency", latency))
	return s, nil
}

func (b *Backend) Close() error {
	b.closed.Store(true)
	return nil
}

// feedStreamer is the beep.Streamer reading one stream's feed. It runs on
// the speaker goroutine with the speaker lock held.
type feedStreamer struct {
	stream  *Stream
	scratch []byte
	closed  bool
}

func (f *feedStreamer) Stream(samples [][2]float64) (int, bool) {
	if f.closed {
		return 0, false
	}
	p := f.stream.params
	fs := p.FrameSize()
	for done := 0; done < len(samples); {
		frames := min(len(samples)-done, len(f.scratch)/fs)
		buf := f.scratch[:frames*fs]
		f.stream.feed.Fill(buf)
		for i := 0; i < frames; i++ {
			l := audio.Sample(p.Format, buf, i*p.Channels)
			r := l
			if p.Channels == 2 {
				r = audio.Sample(p.Format, buf, i*p.Channels+1)
			}
			samples[done+i] = [2]float64{l, r}
		}
		done += frames
	}
	return len(samples), true
}

func (f *feedStreamer) Err() error { return nil }

// Stream is one control on the speaker mixer.
type Stream struct {
	params  audio.StreamParams
	period  int
	latency int
	feed    *backend.RingFeed
	src     *feedStreamer
	ctrl    *beep.Ctrl
}

func (s *Stream) BufferFrames() int  { return s.period }
func (s *Stream) LatencyFrames() int { return s.latency }

func (s *Stream) Start() error {
	s.feed.SetRunning(true)
	speaker.Lock()
	s.ctrl.Paused = false
	speaker.Unlock()
	return nil
}

func (s *Stream) Stop() error {
	speaker.Lock()
	s.ctrl.Paused = true
	speaker.Unlock()
	s.feed.SetRunning(false)
	return nil
}

func (s *Stream) Write(ctx context.Context, p []byte) (int, error) {
	return s.feed.Write(ctx, p)
}

// Drain waits for the ring to empty plus one speaker buffer.
func (s *Stream) Drain(ctx context.Context) error {
	if err := s.feed.Drain(ctx); err != nil {
		return err
	}
	timer := time.NewTimer(s.params.Duration(s.period))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Stream) Position() (uint64, error) {
	return s.feed.Played(), nil
}

func (s *Stream) SetVolume(v float32) error {
	s.feed.SetVolume(v)
	return nil
}

// Close detaches the stream; the mixer drops it on its next pass.
func (s *Stream) Close() error {
	speaker.Lock()
	s.ctrl.Paused = true
	s.src.closed = true
	speaker.Unlock()
	s.feed.SetRunning(false)
	return nil
}
