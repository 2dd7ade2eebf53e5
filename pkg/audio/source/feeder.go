// ABOUTME: Decode-ahead bridge between a Source and a stream
// ABOUTME: Decodes on its own goroutine; the data callback only copies from the ring
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/DingusDevOrg/cubeb/internal/ring"
	"github.com/DingusDevOrg/cubeb/pkg/audio"
	"github.com/DingusDevOrg/cubeb/pkg/cubeb"
)

// Feeder decodes a Source ahead of playback.
type Feeder struct {
	src    Source
	params audio.StreamParams
	ring   *ring.Buffer
	chunk  []byte

	// finished is set after the last decoded byte is in the ring.
	finished  atomic.Bool
	err       atomic.Pointer[error]
	underruns atomic.Uint64

	ready     chan struct{}
	readyOnce sync.Once
}

// NewFeeder creates a feeder holding about capacityFrames decoded frames.
func NewFeeder(src Source, capacityFrames int) *Feeder {
	params := src.Params()
	return &Feeder{
		src:    src,
		params: params,
		ring:   ring.New(params.FramesToBytes(capacityFrames)),
		chunk:  make([]byte, params.FramesToBytes(max(capacityFrames/8, 1))),
		ready:  make(chan struct{}),
	}
}

// Ready is closed once the ring has filled or the source ended.
func (f *Feeder) Ready() <-chan struct{} {
	return f.ready
}

func (f *Feeder) markReady() {
	f.readyOnce.Do(func() { close(f.ready) })
}

// Run decodes until the source ends, fails, or ctx is done. It returns nil
// at end of source.
func (f *Feeder) Run(ctx context.Context) error {
	defer f.markReady()
	for {
		n, err := f.src.Read(f.chunk)
		if n > 0 {
			if f.ring.Free() < n {
				f.markReady()
			}
			if _, werr := f.ring.WriteAll(ctx, f.chunk[:n]); werr != nil {
				return werr
			}
		}
		if errors.Is(err, io.EOF) {
			f.finished.Store(true)
			return nil
		}
		if err != nil {
			err = fmt.Errorf("decode: %w", err)
			f.err.Store(&err)
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// DataCallback copies decoded frames into the stream. While the decoder
// lags it pads with silence; once the source is exhausted it returns a
// short count so the stream drains.
func (f *Feeder) DataCallback(_ *cubeb.Stream, _ any, buf []byte, frames int) (int, error) {
	finished := f.finished.Load()
	n := f.ring.ReadFrames(buf, f.params.FrameSize())
	if n == len(buf) {
		return frames, nil
	}
	if finished {
		return f.params.BytesToFrames(n), nil
	}
	if errp := f.err.Load(); errp != nil {
		return 0, *errp
	}
	audio.Silence(f.params.Format, buf[n:])
	f.underruns.Add(1)
	return frames, nil
}

// Underruns counts callbacks that had to pad with silence.
func (f *Feeder) Underruns() uint64 {
	return f.underruns.Load()
}

// Buffered returns decoded frames waiting in the ring.
func (f *Feeder) Buffered() int {
	return f.params.BytesToFrames(f.ring.Available())
}
