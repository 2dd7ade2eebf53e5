// ABOUTME: Library context owning one backend driver
// ABOUTME: Backend discovery, stream creation and teardown
package cubeb

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/DingusDevOrg/cubeb/pkg/audio"
	"github.com/DingusDevOrg/cubeb/pkg/audio/backend"
	_ "github.com/DingusDevOrg/cubeb/pkg/audio/backend/null"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

// Context is an initialized library instance bound to one backend.
type Context struct {
	name    string
	backend backend.Backend
	log     *zap.Logger
	metrics *metrics

	mu        sync.Mutex
	streams   map[*Stream]struct{}
	destroyed bool
}

// Init selects a backend and returns a ready Context. Without WithBackend the
// registered drivers are tried from highest priority down and the first one
// that initializes wins.
func Init(name string, opts ...Option) (*Context, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.meterProvider == nil {
		o.meterProvider = otel.GetMeterProvider()
	}

	m, err := newMetrics(o.meterProvider)
	if err != nil {
		return nil, newError("init", ErrError, err)
	}

	b, err := discover(name, o.backend, o.logger)
	if err != nil {
		return nil, newError("init", ErrError, err)
	}

	log := o.logger.With(zap.String("backend", b.Name()))
	if name != "" {
		log = log.With(zap.String("context", name))
	}
	log.Info("context initialized")

	return &Context{
		name:    name,
		backend: b,
		log:     log,
		metrics: m,
		streams: make(map[*Stream]struct{}),
	}, nil
}

func discover(contextName, only string, log *zap.Logger) (backend.Backend, error) {
	if only != "" {
		f, ok := backend.Lookup(only)
		if !ok {
			return nil, fmt.Errorf("%w: %q is not registered", backend.ErrNoBackend, only)
		}
		b, err := f.Init(contextName, log)
		if err != nil {
			return nil, fmt.Errorf("init %s backend: %w", f.Name, err)
		}
		return b, nil
	}

	errs := []error{backend.ErrNoBackend}
	for _, f := range backend.Factories() {
		b, err := f.Init(contextName, log)
		if err != nil {
			log.Debug("backend unavailable", zap.String("backend", f.Name), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", f.Name, err))
			continue
		}
		return b, nil
	}
	return nil, errors.Join(errs...)
}

// BackendID returns the name of the driver this context uses.
func (c *Context) BackendID() string {
	return c.backend.Name()
}

// Name returns the name given to Init.
func (c *Context) Name() string {
	return c.name
}

// StreamInit creates a stopped playback stream. latencyFrames is a target the
// backend rounds to its own granularity; see Stream.Latency.
//
// On success the data callback has already been invoked once on the calling
// goroutine to preroll the device buffer. If that invocation returns fewer
// frames than requested the first Start drains instead of playing on.
func (c *Context) StreamInit(name string, params audio.StreamParams, latencyFrames int,
	data DataCallback, state StateCallback, user any) (*Stream, error) {
	const op = "stream_init"

	if err := params.Validate(); err != nil {
		return nil, newError(op, ErrInvalidFormat, err)
	}
	if data == nil || state == nil {
		return nil, newError(op, ErrError, errors.New("nil callback"))
	}
	if latencyFrames <= 0 {
		return nil, newError(op, ErrError, fmt.Errorf("latency %d frames", latencyFrames))
	}

	c.mu.Lock()
	destroyed := c.destroyed
	c.mu.Unlock()
	if destroyed {
		return nil, newError(op, ErrError, errors.New("context destroyed"))
	}

	native, err := c.backend.StreamInit(name, params, latencyFrames)
	if err != nil {
		if errors.Is(err, backend.ErrUnsupportedFormat) {
			return nil, newError(op, ErrInvalidFormat, err)
		}
		return nil, newError(op, ErrError, err)
	}

	s := newStream(c, native, name, params, latencyFrames, data, state, user)
	if err := s.preroll(); err != nil {
		s.teardown()
		return nil, newError(op, ErrError, err)
	}

	c.mu.Lock()
	c.streams[s] = struct{}{}
	c.mu.Unlock()
	c.metrics.active.Add(context.Background(), 1, s.attrs)

	s.log.Debug("stream created",
		zap.Stringer("params", params),
		zap.Int("latency_requested", latencyFrames),
		zap.Int("latency", native.LatencyFrames()),
		zap.Int("buffer_frames", native.BufferFrames()))
	return s, nil
}

func (c *Context) release(s *Stream) {
	c.mu.Lock()
	delete(c.streams, s)
	c.mu.Unlock()
}

// Destroy closes the backend. All streams must have been destroyed first;
// streams still alive are reported in the log and left untouched.
func (c *Context) Destroy() {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	c.destroyed = true
	live := len(c.streams)
	c.mu.Unlock()

	if live > 0 {
		c.log.Warn("context destroyed with live streams", zap.Int("streams", live))
	}
	if err := c.backend.Close(); err != nil {
		c.log.Warn("backend close failed", zap.Error(err))
	}
	c.log.Info("context destroyed")
}
