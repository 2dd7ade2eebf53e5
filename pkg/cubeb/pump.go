// ABOUTME: Stream pump goroutine and data callback invocation
// ABOUTME: Pulls frames from the application and blocks on the backend for cadence
package cubeb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// pump runs while the stream is started. Backend writes block while the
// device buffer is full, which paces the data callback to the device.
func (s *Stream) pump(ctx context.Context, done chan struct{}) {
	defer close(done)

	if !s.flush(ctx) {
		return
	}
	if s.eos {
		s.drain(ctx)
		return
	}

	frames := s.native.BufferFrames()
	for ctx.Err() == nil {
		n, err := s.invoke(frames)
		if err != nil {
			s.fail(err)
			return
		}
		s.pending = s.buf[:s.params.FramesToBytes(n)]
		if n < frames {
			s.eos = true
		}
		if !s.flush(ctx) {
			return
		}
		if s.eos {
			s.drain(ctx)
			return
		}
	}
}

// invoke runs the data callback once over the whole scratch buffer.
func (s *Stream) invoke(frames int) (n int, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("data callback panicked: %v", r)
		}
		s.metrics.callbacks.Add(context.Background(), 1, s.attrs)
		s.metrics.callbackDuration.Record(context.Background(), time.Since(start).Seconds(), s.attrs)
	}()

	n, err = s.data(s, s.user, s.buf[:s.params.FramesToBytes(frames)], frames)
	if err != nil {
		return 0, fmt.Errorf("data callback: %w", err)
	}
	if n < 0 || n > frames {
		return 0, fmt.Errorf("data callback returned %d frames for a request of %d", n, frames)
	}
	return n, nil
}

// flush hands pending frames to the backend. It reports false when the pump
// must exit: the context was cancelled, leaving the unwritten tail pending
// for the next Start, or the backend failed.
func (s *Stream) flush(ctx context.Context) bool {
	if len(s.pending) == 0 {
		return true
	}
	n, err := s.native.Write(ctx, s.pending)
	s.metrics.frames.Add(context.Background(), int64(s.params.BytesToFrames(n)), s.attrs)
	s.pending = s.pending[n:]
	if err == nil {
		return true
	}
	if ctx.Err() != nil {
		return false
	}
	s.fail(fmt.Errorf("backend write: %w", err))
	return false
}

// drain waits for the backend to play out everything queued after the data
// callback signalled end of stream.
func (s *Stream) drain(ctx context.Context) {
	if _, oc := s.dispatch(evDrainBegin); oc != move {
		return
	}
	if err := s.native.Drain(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.fail(fmt.Errorf("backend drain: %w", err))
		return
	}
	if _, oc := s.dispatch(evDrainEnd); oc != move {
		return
	}
	if err := s.native.Stop(); err != nil {
		s.log.Warn("backend stop after drain failed", zap.Error(err))
	}
	s.notifier.push(StateDrained)
}

// fail halts the stream after an asynchronous failure. The state notification
// is queued only by whichever failure wins the transition.
func (s *Stream) fail(err error) {
	if _, oc := s.dispatch(evFail); oc != move {
		return
	}
	s.log.Error("stream halted", zap.Error(err))
	s.metrics.errors.Add(context.Background(), 1, s.attrs)
	if err := s.native.Stop(); err != nil && !errors.Is(err, context.Canceled) {
		s.log.Warn("backend stop after failure failed", zap.Error(err))
	}
	s.notifier.push(StateError)
}

// preroll fills the device buffer once before the first Start. Frames the
// backend cannot take without blocking stay pending for the pump.
func (s *Stream) preroll() error {
	frames := s.native.BufferFrames()
	n, err := s.invoke(frames)
	if err != nil {
		return err
	}
	s.pending = s.buf[:s.params.FramesToBytes(n)]
	s.eos = n < frames

	ctx, cancel := context.WithTimeout(context.Background(), s.params.Duration(s.native.LatencyFrames()))
	defer cancel()
	written, err := s.native.Write(ctx, s.pending)
	s.metrics.frames.Add(context.Background(), int64(s.params.BytesToFrames(written)), s.attrs)
	s.pending = s.pending[written:]
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("preroll write: %w", err)
	}
	return nil
}
