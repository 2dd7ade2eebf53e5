//go:build cgo

// ABOUTME: Malgo-based backend implementation
// ABOUTME: One miniaudio playback device per stream fed from the ring
package malgo

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/DingusDevOrg/cubeb/pkg/audio"
	"github.com/DingusDevOrg/cubeb/pkg/audio/backend"
	"github.com/gen2brain/malgo"
	"go.uber.org/zap"
)

func init() {
	backend.Register(backend.Factory{
		Name:     Name,
		Priority: 40,
		Init: func(contextName string, log *zap.Logger) (backend.Backend, error) {
			return New(log)
		},
	})
}

// Backend owns one miniaudio context.
type Backend struct {
	log    *zap.Logger
	ctx    *malgo.AllocatedContext
	mu     sync.Mutex
	closed bool
}

// New initializes a miniaudio context on the platform default backend.
func New(log *zap.Logger) (*Backend, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named(Name)
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(msg string) {
		log.Debug("miniaudio", zap.String("msg", msg))
	})
	if err != nil {
		return nil, fmt.Errorf("%w: init miniaudio context: %v", backend.ErrUnavailable, err)
	}
	return &Backend{log: log, ctx: ctx}, nil
}

func (b *Backend) Name() string { return Name }

func malgoFormat(f audio.SampleFormat) (malgo.FormatType, error) {
	switch f {
	case audio.FormatU8:
		return malgo.FormatU8, nil
	case audio.FormatS16LE:
		return malgo.FormatS16, nil
	case audio.FormatFloat32LE:
		return malgo.FormatF32, nil
	default:
		return malgo.FormatUnknown, fmt.Errorf("%w: %s", backend.ErrUnsupportedFormat, f)
	}
}

func (b *Backend) StreamInit(name string, params audio.StreamParams, latencyFrames int) (backend.Stream, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, backend.ErrClosed
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", backend.ErrUnsupportedFormat, err)
	}
	if params.Rate < MinRate || params.Rate > MaxRate || params.Channels > MaxChannels {
		return nil, fmt.Errorf("%w: %s outside device limits", backend.ErrUnsupportedFormat, params)
	}
	format, err := malgoFormat(params.Format)
	if err != nil {
		return nil, err
	}

	period, latency := backend.RoundLatency(params, latencyFrames, quantum)
	s := &Stream{
		params:  params,
		period:  period,
		latency: latency,
		feed:    backend.NewRingFeed(params, latency),
	}

	cfg := malgo.DefaultDeviceConfig(malgo.Playback)
	cfg.Playback.Format = format
	cfg.Playback.Channels = uint32(params.Channels)
	cfg.SampleRate = uint32(params.Rate)
	cfg.PeriodSizeInFrames = uint32(period)
	cfg.Periods = backend.Periods
	cfg.Alsa.NoMMap = 1

	device, err := malgo.InitDevice(b.ctx.Context, cfg, malgo.DeviceCallbacks{
		Data: func(out, _ []byte, frames uint32) {
			s.feed.Fill(out[:params.FramesToBytes(int(frames))])
		},
		Stop: func() {
			s.stoppedByDevice.Store(true)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("init playback device: %w", err)
	}
	s.device = device

	b.log.Debug("stream created",
		zap.String("stream", name),
		zap.Stringer("params", params),
		zap.Int("period", period),
		zap.Int("latency", latency))
	return s, nil
}

func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	if err := b.ctx.Uninit(); err != nil {
		b.log.Warn("miniaudio context uninit failed", zap.Error(err))
	}
	b.ctx.Free()
	return nil
}

// Stream is one miniaudio device.
type Stream struct {
	params  audio.StreamParams
	period  int
	latency int
	feed    *backend.RingFeed
	device  *malgo.Device

	running         atomic.Bool
	stoppedByDevice atomic.Bool
}

func (s *Stream) BufferFrames() int  { return s.period }
func (s *Stream) LatencyFrames() int { return s.latency }

func (s *Stream) Start() error {
	s.stoppedByDevice.Store(false)
	s.feed.SetRunning(true)
	if err := s.device.Start(); err != nil {
		s.feed.SetRunning(false)
		return fmt.Errorf("start device: %w", err)
	}
	s.running.Store(true)
	return nil
}

func (s *Stream) Stop() error {
	s.running.Store(false)
	err := s.device.Stop()
	s.feed.SetRunning(false)
	if err != nil {
		return fmt.Errorf("stop device: %w", err)
	}
	return nil
}

// lost reports a device that stopped without being asked to, such as an
// unplugged output.
func (s *Stream) lost() error {
	if s.running.Load() && s.stoppedByDevice.Load() {
		return ErrDeviceLost
	}
	return nil
}

func (s *Stream) Write(ctx context.Context, p []byte) (int, error) {
	if err := s.lost(); err != nil {
		return 0, err
	}
	return s.feed.Write(ctx, p)
}

func (s *Stream) Drain(ctx context.Context) error {
	if err := s.lost(); err != nil {
		return err
	}
	return s.feed.Drain(ctx)
}

func (s *Stream) Position() (uint64, error) {
	return s.feed.Played(), nil
}

func (s *Stream) SetVolume(v float32) error {
	s.feed.SetVolume(v)
	return nil
}

func (s *Stream) Close() error {
	s.Stop()
	s.device.Uninit()
	return nil
}
