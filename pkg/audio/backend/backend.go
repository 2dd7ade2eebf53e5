// ABOUTME: Backend interface definition
// ABOUTME: Common interface for platform audio drivers driven by the stream engine
package backend

import (
	"context"
	"errors"
	"time"

	"github.com/DingusDevOrg/cubeb/pkg/audio"
)

var (
	ErrNoBackend         = errors.New("backend: no usable audio backend")
	ErrUnavailable       = errors.New("backend: not available on this system")
	ErrUnsupportedFormat = errors.New("backend: unsupported stream format")
	ErrClosed            = errors.New("backend: closed")
)

// Backend is one initialized native audio subsystem.
type Backend interface {
	// Name returns the registry name of the driver.
	Name() string

	// StreamInit creates a stopped playback stream. It returns an error
	// wrapping ErrUnsupportedFormat when params cannot be honored.
	// latencyFrames is a target; the driver rounds it to its granularity.
	StreamInit(name string, params audio.StreamParams, latencyFrames int) (Stream, error)

	// Close releases the subsystem. All streams must be closed first.
	Close() error
}

// Stream is a native playback stream. Write, Drain and Start are called from
// the engine's pump; Position and SetVolume may be called from any goroutine.
type Stream interface {
	// BufferFrames is the number of frames the engine requests per data callback.
	BufferFrames() int

	// LatencyFrames is the effective latency after rounding.
	LatencyFrames() int

	// Start begins consuming queued frames.
	Start() error

	// Stop pauses consumption. Queued frames stay queued.
	Stop() error

	// Write queues p, which holds whole frames. It blocks while the device
	// buffer is full and returns early with ctx's error when ctx is done,
	// reporting how many bytes were queued.
	Write(ctx context.Context, p []byte) (int, error)

	// Drain blocks until every queued frame has been played or ctx is done.
	Drain(ctx context.Context) error

	// Position returns frames played since the stream was created.
	Position() (uint64, error)

	// SetVolume sets the gain in [0, 1] for subsequently processed buffers.
	SetVolume(v float32) error

	// Close releases native resources. The stream must be stopped.
	Close() error
}

// Periods is the number of device periods a stream latency is split into.
const Periods = 4

// MaxLatency bounds the latency any driver will allocate buffers for.
const MaxLatency = 2 * time.Second

// RoundLatency splits latencyFrames into Periods periods whose size is a
// multiple of quantum, returning the period and the effective latency.
// Requests above MaxLatency at the stream rate are clamped to it.
func RoundLatency(params audio.StreamParams, latencyFrames, quantum int) (period, latency int) {
	if quantum <= 0 {
		quantum = 1
	}
	if limit := params.FramesIn(MaxLatency); limit > 0 && latencyFrames > limit {
		latencyFrames = limit
	}
	period = latencyFrames / Periods
	period = (period + quantum/2) / quantum * quantum
	if period < quantum {
		period = quantum
	}
	return period, period * Periods
}
