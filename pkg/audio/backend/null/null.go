// ABOUTME: Clock-paced virtual playback device
// ABOUTME: Consumes frames in real time without touching hardware
package null

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/DingusDevOrg/cubeb/pkg/audio"
	"github.com/DingusDevOrg/cubeb/pkg/audio/backend"
	"go.uber.org/zap"
)

// Name is the registry name of the null driver.
const Name = "null"

const (
	MinRate     = 1000
	MaxRate     = 768000
	MaxChannels = 32

	// quantum is the period granularity in frames.
	quantum = 64
	// maxTick caps the consumer wake-up interval.
	maxTick = 10 * time.Millisecond
)

func init() {
	// Lowest priority: only picked when nothing real is available, the same
	// silent-mode fallback a game takes when no sound server is found.
	backend.Register(backend.Factory{
		Name:     Name,
		Priority: -100,
		Init: func(_ string, log *zap.Logger) (backend.Backend, error) {
			return New(log), nil
		},
	})
}

// Backend is a driver whose devices play into the void at the stream rate.
type Backend struct {
	log    *zap.Logger
	closed atomic.Bool
}

// New creates a null backend.
func New(log *zap.Logger) *Backend {
	if log == nil {
		log = zap.NewNop()
	}
	return &Backend{log: log.Named(Name)}
}

func (b *Backend) Name() string { return Name }

// StreamInit creates a stopped virtual stream.
func (b *Backend) StreamInit(name string, params audio.StreamParams, latencyFrames int) (backend.Stream, error) {
	if b.closed.Load() {
		return nil, backend.ErrClosed
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", backend.ErrUnsupportedFormat, err)
	}
	if params.Rate < MinRate || params.Rate > MaxRate {
		return nil, fmt.Errorf("%w: rate %d outside [%d, %d]", backend.ErrUnsupportedFormat, params.Rate, MinRate, MaxRate)
	}
	if params.Channels > MaxChannels {
		return nil, fmt.Errorf("%w: %d channels (max %d)", backend.ErrUnsupportedFormat, params.Channels, MaxChannels)
	}

	period, latency := backend.RoundLatency(params, latencyFrames, quantum)
	s := &Stream{
		params:  params,
		period:  period,
		latency: latency,
		feed:    backend.NewRingFeed(params, latency),
		scratch: make([]byte, params.FramesToBytes(period)),
	}
	b.log.Debug("stream created",
		zap.String("stream", name),
		zap.Stringer("params", params),
		zap.Int("period", period),
		zap.Int("latency", latency))
	return s, nil
}

// Close marks the backend closed.
func (b *Backend) Close() error {
	b.closed.Store(true)
	return nil
}

// Stream is a virtual device stream. A consumer goroutine runs while started
// and drains the feed at the stream rate measured against the wall clock.
type Stream struct {
	params  audio.StreamParams
	period  int
	latency int
	feed    *backend.RingFeed
	scratch []byte

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func (s *Stream) BufferFrames() int  { return s.period }
func (s *Stream) LatencyFrames() int { return s.latency }

// Start launches the consumer. Starting a started stream is a no-op.
func (s *Stream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.feed.SetRunning(true)
	go s.consume(ctx, s.done)
	return nil
}

// Stop halts the consumer and waits for it to exit.
func (s *Stream) Stop() error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	s.feed.SetRunning(false)
	return nil
}

func (s *Stream) consume(ctx context.Context, done chan struct{}) {
	defer close(done)

	tick := s.params.Duration(s.period) / 2
	if tick > maxTick {
		tick = maxTick
	}
	if tick < time.Millisecond {
		tick = time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	start := time.Now()
	consumed := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			due := s.params.FramesIn(time.Since(start)) - consumed
			for due > 0 {
				chunk := due
				if chunk > s.period {
					chunk = s.period
				}
				s.feed.Fill(s.scratch[:s.params.FramesToBytes(chunk)])
				consumed += chunk
				due -= chunk
			}
		}
	}
}

func (s *Stream) Write(ctx context.Context, p []byte) (int, error) {
	return s.feed.Write(ctx, p)
}

func (s *Stream) Drain(ctx context.Context) error {
	return s.feed.Drain(ctx)
}

// Position returns frames actually played; silence inserted on underrun is
// not counted.
func (s *Stream) Position() (uint64, error) {
	return s.feed.Played(), nil
}

func (s *Stream) SetVolume(v float32) error {
	s.feed.SetVolume(v)
	return nil
}

func (s *Stream) Close() error {
	return s.Stop()
}
