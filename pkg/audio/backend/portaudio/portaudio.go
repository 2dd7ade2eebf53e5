//go:build portaudio

// ABOUTME: PortAudio backend implementation
// ABOUTME: Callback streams on the default output device fed from the ring
package portaudio

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/DingusDevOrg/cubeb/pkg/audio"
	"github.com/DingusDevOrg/cubeb/pkg/audio/backend"
	"github.com/gordonklaus/portaudio"
	"go.uber.org/zap"
)

func init() {
	backend.Register(backend.Factory{
		Name:     Name,
		Priority: priority,
		Init: func(_ string, log *zap.Logger) (backend.Backend, error) {
			return New(log)
		},
	})
}

// Backend holds one PortAudio initialization.
type Backend struct {
	log    *zap.Logger
	mu     sync.Mutex
	closed bool
}

// New initializes PortAudio.
func New(log *zap.Logger) (*Backend, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: initialize portaudio: %v", backend.ErrUnavailable, err)
	}
	return &Backend{log: log.Named(Name)}, nil
}

func (b *Backend) Name() string { return Name }

func (b *Backend) StreamInit(name string, params audio.StreamParams, latencyFrames int) (backend.Stream, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, backend.ErrClosed
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", backend.ErrUnsupportedFormat, err)
	}

	period, latency := backend.RoundLatency(params, latencyFrames, quantum)
	s := &Stream{
		params:  params,
		period:  period,
		latency: latency,
		feed:    backend.NewRingFeed(params, latency),
		scratch: make([]byte, params.FramesToBytes(period)),
	}

	var callback any
	switch params.Format {
	case audio.FormatU8:
		callback = func(_, out []uint8) { s.feed.Fill(out) }
	case audio.FormatS16LE:
		callback = func(_, out []int16) {
			buf := s.fill(len(out))
			for i := range out {
				out[i] = int16(binary.LittleEndian.Uint16(buf[2*i:]))
			}
		}
	case audio.FormatFloat32LE:
		callback = func(_, out []float32) {
			buf := s.fill(len(out))
			for i := range out {
				out[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
			}
		}
	default:
		return nil, fmt.Errorf("%w: %s", backend.ErrUnsupportedFormat, params.Format)
	}

	stream, err := portaudio.OpenDefaultStream(0, params.Channels, float64(params.Rate), period, callback)
	if err != nil {
		return nil, fmt.Errorf("%w: open default stream: %v", backend.ErrUnsupportedFormat, err)
	}
	s.stream = stream

	b.log.Debug("stream created",
		zap.String("stream", name),
		zap.Stringer("params", params),
		zap.Int("period", period))
	return s, nil
}

func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	if err := portaudio.Terminate(); err != nil {
		return fmt.Errorf("terminate portaudio: %w", err)
	}
	return nil
}

// Stream is one PortAudio callback stream.
type Stream struct {
	params  audio.StreamParams
	period  int
	latency int
	feed    *backend.RingFeed
	scratch []byte
	stream  *portaudio.Stream

	mu      sync.Mutex
	started bool
}

// fill pulls samples values into scratch, growing it only when the host
// asks for more than one period.
func (s *Stream) fill(samples int) []byte {
	n := samples * s.params.Format.BytesPerSample()
	if n > len(s.scratch) {
		s.scratch = make([]byte, n)
	}
	buf := s.scratch[:n]
	s.feed.Fill(buf)
	return buf
}

func (s *Stream) BufferFrames() int  { return s.period }
func (s *Stream) LatencyFrames() int { return s.latency }

func (s *Stream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	s.feed.SetRunning(true)
	if err := s.stream.Start(); err != nil {
		s.feed.SetRunning(false)
		return fmt.Errorf("start stream: %w", err)
	}
	s.started = true
	return nil
}

func (s *Stream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return nil
	}
	s.started = false
	err := s.stream.Stop()
	s.feed.SetRunning(false)
	if err != nil {
		return fmt.Errorf("stop stream: %w", err)
	}
	return nil
}

func (s *Stream) Write(ctx context.Context, p []byte) (int, error) {
	return s.feed.Write(ctx, p)
}

func (s *Stream) Drain(ctx context.Context) error {
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
	if err := s.stream.Close(); err != nil {
		return fmt.Errorf("close stream: %w", err)
	}
	return nil
}
