// ABOUTME: Playback stream lifecycle and control operations
// ABOUTME: Start, stop, position, volume and destroy over the transition table
package cubeb

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/DingusDevOrg/cubeb/pkg/audio"
	"github.com/DingusDevOrg/cubeb/pkg/audio/backend"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Stream is one playback stream. Control methods may be called from any
// goroutine except from inside the stream's own callbacks.
type Stream struct {
	ctx     *Context
	native  backend.Stream
	id      string
	name    string
	params  audio.StreamParams
	latency int
	data    DataCallback
	stateCB StateCallback
	user    any
	log     *zap.Logger
	metrics *metrics
	attrs   metric.MeasurementOption

	// ctl serializes Start, Stop and Destroy, so at most one pump exists
	// and it is joined before the next one starts.
	ctl sync.Mutex

	// mu guards transitions and the pump handle. It is never held while
	// waiting for the pump.
	mu         sync.Mutex
	state      atomic.Int32
	pumpCancel context.CancelFunc
	pumpDone   chan struct{}

	// Owned by the pump while it runs and by ctl holders once it has been
	// joined.
	buf     []byte
	pending []byte
	eos     bool

	position atomic.Uint64
	volume   atomic.Uint32

	notifier *notifier
}

func newStream(c *Context, native backend.Stream, name string, params audio.StreamParams,
	latency int, data DataCallback, state StateCallback, user any) *Stream {
	id := uuid.NewString()
	s := &Stream{
		ctx:     c,
		native:  native,
		id:      id,
		name:    name,
		params:  params,
		latency: latency,
		data:    data,
		stateCB: state,
		user:    user,
		log:     c.log.With(zap.String("stream", name), zap.String("stream_id", id)),
		metrics: c.metrics,
		attrs:   backendAttrs(c.backend.Name()),
		buf:     make([]byte, params.FramesToBytes(native.BufferFrames())),
	}
	s.volume.Store(math.Float32bits(1))
	s.notifier = newNotifier(s.deliver)
	return s
}

// ID returns the unique identifier used in logs.
func (s *Stream) ID() string { return s.id }

// Name returns the name given to StreamInit.
func (s *Stream) Name() string { return s.name }

// Params returns the stream parameters.
func (s *Stream) Params() audio.StreamParams { return s.params }

// Latency returns the effective latency in frames after backend rounding.
func (s *Stream) Latency() int { return s.native.LatencyFrames() }

// User returns the user value given to StreamInit.
func (s *Stream) User() any { return s.user }

// State returns the current lifecycle state.
func (s *Stream) State() StreamState {
	return StreamState(s.state.Load())
}

// dispatch applies ev through the transition table. It is the only place the
// lifecycle state changes.
func (s *Stream) dispatch(ev event) (from StreamState, oc outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dispatchLocked(ev)
}

func (s *Stream) dispatchLocked(ev event) (StreamState, outcome) {
	from := StreamState(s.state.Load())
	e := lookup(from, ev)
	if e.outcome != move {
		if e.outcome == ignore {
			s.log.Debug("stale event ignored", zap.Stringer("event", ev), zap.Stringer("state", from))
		}
		return from, e.outcome
	}
	s.state.Store(int32(e.to))
	s.metrics.stateChanges.Add(context.Background(), 1, transitionAttrs(s.ctx.backend.Name(), e.to))
	s.log.Debug("state", zap.Stringer("from", from), zap.Stringer("to", e.to), zap.Stringer("event", ev))
	return from, move
}

func (s *Stream) deliver(st State) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("state callback panicked", zap.Stringer("state", st), zap.Any("panic", r))
		}
	}()
	if err := s.stateCB(s, s.user, st); err != nil {
		s.log.Warn("state callback failed", zap.Stringer("state", st), zap.Error(err))
	}
}

// Start begins playback. Starting a started or draining stream does nothing.
// A drained or errored stream cannot be restarted.
func (s *Stream) Start() error {
	const op = "stream_start"
	s.ctl.Lock()
	defer s.ctl.Unlock()

	s.mu.Lock()
	from := s.State()
	e := lookup(from, evStart)
	s.mu.Unlock()

	switch e.outcome {
	case noop:
		return nil
	case reject:
		return newError(op, ErrError, fmt.Errorf("stream is %s", from))
	}

	// Pump events only arrive while a pump runs, and none does in a
	// startable state, so the lookup above still holds.
	if err := s.native.Start(); err != nil {
		return newError(op, ErrError, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	s.mu.Lock()
	s.dispatchLocked(evStart)
	s.pumpCancel = cancel
	s.pumpDone = done
	s.mu.Unlock()

	s.notifier.push(StateStarted)
	go s.pump(ctx, done)
	return nil
}

// Stop pauses playback. When it returns no data callback is in flight.
// Stopping a stream that is not playing does nothing. Once the pump has
// stopped the stream is stopped; a backend that then fails to pause is
// logged and does not fail the call.
func (s *Stream) Stop() error {
	const op = "stream_stop"
	s.ctl.Lock()
	defer s.ctl.Unlock()

	from, oc := s.dispatch(evStop)
	if oc == reject {
		return newError(op, ErrError, fmt.Errorf("stream is %s", from))
	}
	s.joinPump()
	if oc != move {
		return nil
	}

	if err := s.native.Stop(); err != nil {
		s.log.Warn("backend stop failed", zap.Error(err))
	}
	s.notifier.push(StateStopped)
	return nil
}

// joinPump cancels the pump, if any, and waits for it to exit. The pump may
// already be exiting on its own after a drain or a failure.
func (s *Stream) joinPump() {
	s.mu.Lock()
	cancel, done := s.pumpCancel, s.pumpDone
	s.pumpCancel, s.pumpDone = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Position returns the number of frames played. It never decreases.
func (s *Stream) Position() (uint64, error) {
	const op = "stream_get_position"
	if s.State() == StreamDestroyed {
		return 0, newError(op, ErrError, errors.New("stream destroyed"))
	}
	p, err := s.native.Position()
	if err != nil {
		return 0, newError(op, ErrError, err)
	}
	for {
		last := s.position.Load()
		if p <= last {
			return last, nil
		}
		if s.position.CompareAndSwap(last, p) {
			return p, nil
		}
	}
}

// SetVolume sets the stream gain. v must be within [0, 1].
func (s *Stream) SetVolume(v float32) error {
	const op = "stream_set_volume"
	if math.IsNaN(float64(v)) || v < 0 || v > 1 {
		return newError(op, ErrError, fmt.Errorf("volume %v outside [0, 1]", v))
	}
	if s.State() == StreamDestroyed {
		return newError(op, ErrError, errors.New("stream destroyed"))
	}
	if err := s.native.SetVolume(v); err != nil {
		return newError(op, ErrError, err)
	}
	s.volume.Store(math.Float32bits(v))
	return nil
}

// Volume returns the last gain accepted by SetVolume.
func (s *Stream) Volume() float32 {
	return math.Float32frombits(s.volume.Load())
}

// Destroy stops the stream if it is playing, releases the backend stream and
// delivers any queued notifications before returning. It is safe to call
// more than once and must not be called from a callback.
func (s *Stream) Destroy() {
	s.ctl.Lock()
	defer s.ctl.Unlock()

	if s.State() == StreamDestroyed {
		return
	}

	_, oc := s.dispatch(evStop)
	s.joinPump()
	if oc == move {
		if err := s.native.Stop(); err != nil {
			s.log.Warn("backend stop failed", zap.Error(err))
		}
		s.notifier.push(StateStopped)
	}

	s.teardown()
	s.dispatch(evDestroy)
	s.ctx.release(s)
	s.metrics.active.Add(context.Background(), -1, s.attrs)
	s.log.Debug("stream destroyed")
}

// teardown releases the native stream and flushes notifications.
func (s *Stream) teardown() {
	if err := s.native.Close(); err != nil {
		s.log.Warn("backend stream close failed", zap.Error(err))
	}
	s.notifier.close()
}
