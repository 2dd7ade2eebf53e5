// ABOUTME: Oto-based backend implementation
// ABOUTME: Shares the process-wide oto context and feeds one player per stream
package oto

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/DingusDevOrg/cubeb/pkg/audio"
	"github.com/DingusDevOrg/cubeb/pkg/audio/backend"
	"github.com/ebitengine/oto/v3"
	"go.uber.org/zap"
)

// Name is the registry name of the oto driver.
const Name = "oto"

// quantum is the period granularity in frames.
const quantum = 256

func init() {
	backend.Register(backend.Factory{
		Name:     Name,
		Priority: 20,
		Init: func(_ string, log *zap.Logger) (backend.Backend, error) {
			return New(log), nil
		},
	})
}

// device is the process-wide oto context.
var device struct {
	mu     sync.Mutex
	ctx    *oto.Context
	params audio.StreamParams
}

func otoFormat(f audio.SampleFormat) (oto.Format, error) {
	switch f {
	case audio.FormatU8:
		return oto.FormatUnsignedInt8, nil
	case audio.FormatS16LE:
		return oto.FormatSignedInt16LE, nil
	case audio.FormatFloat32LE:
		return oto.FormatFloat32LE, nil
	default:
		return 0, fmt.Errorf("%w: %s", backend.ErrUnsupportedFormat, f)
	}
}

// sharedContext returns the oto context, creating it for params on first use.
func sharedContext(params audio.StreamParams, buffer time.Duration, log *zap.Logger) (*oto.Context, error) {
	device.mu.Lock()
	defer device.mu.Unlock()

	if device.ctx != nil {
		if device.params != params {
			return nil, fmt.Errorf("%w: oto device already open as %s", backend.ErrUnsupportedFormat, device.params)
		}
		return device.ctx, nil
	}

	format, err := otoFormat(params.Format)
	if err != nil {
		return nil, err
	}
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   params.Rate,
		ChannelCount: params.Channels,
		Format:       format,
		BufferSize:   buffer,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create oto context: %v", backend.ErrUnavailable, err)
	}
	<-ready

	device.ctx = ctx
	device.params = params
	log.Info("oto device opened", zap.Stringer("params", params), zap.Duration("buffer", buffer))
	return ctx, nil
}

// Backend hands out oto players.
type Backend struct {
	log    *zap.Logger
	closed atomic.Bool
}

// New creates an oto backend. The device opens with the first stream.
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
		return nil, fmt.Errorf("%w: oto plays at most 2 channels, got %d", backend.ErrUnsupportedFormat, params.Channels)
	}

	period, latency := backend.RoundLatency(params, latencyFrames, quantum)
	ctx, err := sharedContext(params, params.Duration(period), b.log)
	if err != nil {
		return nil, err
	}

	s := &Stream{
		params:  params,
		period:  period,
		latency: latency,
		feed:    backend.NewRingFeed(params, latency),
	}
	s.player = ctx.NewPlayer(&feedReader{feed: s.feed, frameSize: params.FrameSize()})
	s.player.SetBufferSize(params.FramesToBytes(period))

	b.log.Debug("stream created",
		zap.String("stream", name),
		zap.Int("period", period),
		zap.Int("latency", latency))
	return s, nil
}

// Close marks the backend closed. The oto context lives until process exit.
func (b *Backend) Close() error {
	b.closed.Store(true)
	return nil
}

// feedReader adapts the ring feed to the io.Reader oto pulls from. It never
// blocks and never ends: a paused or starved feed reads as silence.
type feedReader struct {
	feed      *backend.RingFeed
	frameSize int
}

func (r *feedReader) Read(p []byte) (int, error) {
	p = p[:len(p)-len(p)%r.frameSize]
	r.feed.Fill(p)
	return len(p), nil
}

// Stream is one oto player.
type Stream struct {
	params  audio.StreamParams
	period  int
	latency int
	feed    *backend.RingFeed
	player  *oto.Player
}

func (s *Stream) BufferFrames() int  { return s.period }
func (s *Stream) LatencyFrames() int { return s.latency }

func (s *Stream) Start() error {
	s.feed.SetRunning(true)
	s.player.Play()
	return nil
}

func (s *Stream) Stop() error {
	s.player.Pause()
	s.feed.SetRunning(false)
	return nil
}

func (s *Stream) Write(ctx context.Context, p []byte) (int, error) {
	if err := s.player.Err(); err != nil {
		return 0, fmt.Errorf("oto player: %w", err)
	}
	return s.feed.Write(ctx, p)
}

// Drain waits for the ring to empty and then for the player's own buffer to
// play out.
func (s *Stream) Drain(ctx context.Context) error {
	if err := s.feed.Drain(ctx); err != nil {
		return err
	}
	buffered := s.params.Duration(s.params.BytesToFrames(s.player.BufferedSize()))
	timer := time.NewTimer(buffered)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Position is what the feed handed to oto minus what oto still holds.
func (s *Stream) Position() (uint64, error) {
	played := s.feed.Played()
	held := uint64(s.params.BytesToFrames(s.player.BufferedSize()))
	if held > played {
		return 0, nil
	}
	return played - held, nil
}

// SetVolume is applied by the feed so it also covers 8-bit streams.
func (s *Stream) SetVolume(v float32) error {
	s.feed.SetVolume(v)
	return nil
}

func (s *Stream) Close() error {
	s.feed.SetRunning(false)
	if err := s.player.Close(); err != nil {
		return fmt.Errorf("close oto player: %w", err)
	}
	return nil
}
