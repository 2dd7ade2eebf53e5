// ABOUTME: Playback session orchestration for cubeb-play
// ABOUTME: Ties a decoded source, a cubeb stream, and UI controls together
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DingusDevOrg/cubeb/internal/ui"
	"github.com/DingusDevOrg/cubeb/pkg/audio/source"
	"github.com/DingusDevOrg/cubeb/pkg/cubeb"
)

// ErrStreamFailed is returned by Run when the stream reports an error.
var ErrStreamFailed = errors.New("stream failed")

// Config holds player configuration
type Config struct {
	// Name names the cubeb context and stream.
	Name string
	// Backend forces a backend; empty means discovery.
	Backend   string
	LatencyMs int
	// Volume is the initial volume in [0, 1].
	Volume float64

	Source source.Source

	Logger        *zap.Logger
	MeterProvider metric.MeterProvider

	// Status receives UI updates. Optional.
	Status func(ui.StatusMsg)
	// Controls delivers user requests. Optional.
	Controls *ui.Controls
	// StatusInterval defaults to 250ms.
	StatusInterval time.Duration
}

// Player plays one source through one stream.
type Player struct {
	config  Config
	log     *zap.Logger
	cubeCtx *cubeb.Context
	stream  *cubeb.Stream
	feeder  *source.Feeder

	states    chan cubeb.State
	done      chan struct{}
	closeOnce sync.Once
}

// New opens a context and a stream for cfg.Source. The stream is not
// started until Run.
func New(cfg Config) (*Player, error) {
	if cfg.Source == nil {
		return nil, errors.New("no source")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.StatusInterval <= 0 {
		cfg.StatusInterval = 250 * time.Millisecond
	}
	if cfg.Status == nil {
		cfg.Status = func(ui.StatusMsg) {}
	}

	p := &Player{
		config: cfg,
		log:    cfg.Logger,
		states: make(chan cubeb.State, 8),
		done:   make(chan struct{}),
	}

	opts := []cubeb.Option{cubeb.WithLogger(cfg.Logger)}
	if cfg.Backend != "" {
		opts = append(opts, cubeb.WithBackend(cfg.Backend))
	}
	if cfg.MeterProvider != nil {
		opts = append(opts, cubeb.WithMeterProvider(cfg.MeterProvider))
	}
	cubeCtx, err := cubeb.Init(cfg.Name, opts...)
	if err != nil {
		return nil, err
	}
	p.cubeCtx = cubeCtx

	params := cfg.Source.Params()
	p.feeder = source.NewFeeder(cfg.Source, params.Rate/2)
	latency := max(params.Rate*cfg.LatencyMs/1000, 1)

	stream, err := cubeCtx.StreamInit(cfg.Name, params, latency, p.feeder.DataCallback, p.onState, nil)
	if err != nil {
		cubeCtx.Destroy()
		return nil, fmt.Errorf("failed to open stream: %w", err)
	}
	p.stream = stream

	if err := stream.SetVolume(float32(cfg.Volume)); err != nil {
		stream.Destroy()
		cubeCtx.Destroy()
		return nil, fmt.Errorf("failed to set volume: %w", err)
	}

	p.log.Info("stream opened",
		zap.String("backend", cubeCtx.BackendID()),
		zap.String("stream", stream.ID()),
		zap.Stringer("params", params),
		zap.Int("latency_frames", stream.Latency()))
	return p, nil
}

// Backend names the backend in use.
func (p *Player) Backend() string {
	return p.cubeCtx.BackendID()
}

// Stream exposes the underlying stream.
func (p *Player) Stream() *cubeb.Stream {
	return p.stream
}

func (p *Player) onState(_ *cubeb.Stream, _ any, st cubeb.State) error {
	select {
	case p.states <- st:
	case <-p.done:
	}
	return nil
}

// Run decodes and plays until the source drains, the stream fails, the
// user quits, or ctx is done.
func (p *Player) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	feedCtx, stopFeed := context.WithCancel(gctx)

	g.Go(func() error {
		err := p.feeder.Run(feedCtx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		defer stopFeed()
		return p.control(gctx)
	})

	return g.Wait()
}

func (p *Player) control(ctx context.Context) error {
	select {
	case <-p.feeder.Ready():
	case <-ctx.Done():
		return nil
	}

	p.sendStatic()
	if err := p.stream.Start(); err != nil {
		return err
	}

	var volume <-chan int
	var toggle, quit <-chan struct{}
	if c := p.config.Controls; c != nil {
		volume, toggle, quit = c.Volume, c.Toggle, c.Quit
	}

	ticker := time.NewTicker(p.config.StatusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-quit:
			p.log.Info("quit requested")
			return nil
		case st := <-p.states:
			p.report(st)
			switch st {
			case cubeb.StateDrained:
				p.log.Info("playback finished")
				return nil
			case cubeb.StateError:
				return ErrStreamFailed
			}
		case v := <-volume:
			if err := p.stream.SetVolume(float32(v) / 100); err != nil {
				p.log.Warn("volume change failed", zap.Int("volume", v), zap.Error(err))
			}
		case <-toggle:
			p.toggle()
		case <-ticker.C:
			p.sendProgress()
		}
	}
}

func (p *Player) toggle() {
	var err error
	if p.stream.State() == cubeb.StreamStarted {
		err = p.stream.Stop()
	} else {
		err = p.stream.Start()
	}
	if err != nil {
		p.log.Warn("toggle failed", zap.Stringer("state", p.stream.State()), zap.Error(err))
	}
}

func (p *Player) sendStatic() {
	params := p.stream.Params()
	meta := p.config.Source.Metadata()
	p.config.Status(ui.StatusMsg{
		Backend:  p.cubeCtx.BackendID(),
		Latency:  params.Duration(p.stream.Latency()),
		Format:   params.Format.String(),
		Rate:     params.Rate,
		Channels: params.Channels,
		Title:    meta.Title,
		Artist:   meta.Artist,
		Album:    meta.Album,
	})
}

func (p *Player) report(st cubeb.State) {
	p.log.Debug("state callback", zap.Stringer("state", st))
	msg := ui.StatusMsg{State: st.String()}
	if st == cubeb.StateError {
		msg.Err = ErrStreamFailed.Error()
	}
	p.config.Status(msg)
	p.sendProgress()
}

func (p *Player) sendProgress() {
	pos, err := p.stream.Position()
	if err != nil {
		return
	}
	params := p.stream.Params()
	p.config.Status(ui.StatusMsg{
		Position:  pos,
		Underruns: p.feeder.Underruns(),
		Buffered:  params.Duration(p.feeder.Buffered()),
	})
}

// Close destroys the stream and context and closes the source.
func (p *Player) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.done)
		p.stream.Destroy()
		p.cubeCtx.Destroy()
		err = p.config.Source.Close()
	})
	return err
}
