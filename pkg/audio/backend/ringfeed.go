// ABOUTME: Shared plumbing for callback-pulled drivers
// ABOUTME: RingFeed carries pump writes to a native device callback with gain and position
package backend

import (
	"context"
	"math"
	"sync/atomic"

	"github.com/DingusDevOrg/cubeb/internal/ring"
	"github.com/DingusDevOrg/cubeb/pkg/audio"
)

// RingFeed is the producer/consumer pair behind a callback-pulled device.
// The pump calls Write and Drain; the device callback calls Fill.
type RingFeed struct {
	params   audio.StreamParams
	ring     *ring.Buffer
	played   atomic.Uint64 // frames handed to the device
	under    atomic.Uint64 // callbacks that found less data than requested
	volume   atomic.Uint32 // float32 bits
	running  atomic.Bool
	capacity int
}

// NewRingFeed creates a feed holding at least capacityFrames frames.
func NewRingFeed(params audio.StreamParams, capacityFrames int) *RingFeed {
	f := &RingFeed{
		params:   params,
		ring:     ring.New(params.FramesToBytes(capacityFrames)),
		capacity: capacityFrames,
	}
	f.volume.Store(math.Float32bits(1))
	return f
}

// Write queues p, blocking while the ring is full.
func (f *RingFeed) Write(ctx context.Context, p []byte) (int, error) {
	return f.ring.WriteAll(ctx, p)
}

// Drain waits for the device to consume everything queued.
func (f *RingFeed) Drain(ctx context.Context) error {
	return f.ring.WaitEmpty(ctx)
}

// Fill is called from the device callback. It copies whole frames into out,
// applies gain, pads with silence and returns the number of real frames.
// While the feed is not running it outputs silence without consuming.
func (f *RingFeed) Fill(out []byte) int {
	if !f.running.Load() {
		audio.Silence(f.params.Format, out)
		return 0
	}
	n := f.ring.ReadFrames(out, f.params.FrameSize())
	if n < len(out) {
		audio.Silence(f.params.Format, out[n:])
		f.under.Add(1)
	}
	audio.ApplyGain(f.params.Format, out[:n], f.Volume())
	frames := f.params.BytesToFrames(n)
	f.played.Add(uint64(frames))
	return frames
}

// SetRunning switches the consumer side between playing and paused.
func (f *RingFeed) SetRunning(on bool) {
	f.running.Store(on)
}

// Running reports whether Fill consumes data.
func (f *RingFeed) Running() bool {
	return f.running.Load()
}

// Played returns frames handed to the device so far.
func (f *RingFeed) Played() uint64 {
	return f.played.Load()
}

// Underruns returns how many Fill calls ran short of data.
func (f *RingFeed) Underruns() uint64 {
	return f.under.Load()
}

// Buffered returns the number of whole frames waiting in the ring.
func (f *RingFeed) Buffered() int {
	return f.params.BytesToFrames(f.ring.Available())
}

// CapacityFrames returns the requested ring capacity.
func (f *RingFeed) CapacityFrames() int {
	return f.capacity
}

// SetVolume stores the gain used by subsequent Fill calls.
func (f *RingFeed) SetVolume(v float32) {
	f.volume.Store(math.Float32bits(v))
}

// Volume returns the stored gain.
func (f *RingFeed) Volume() float32 {
	return math.Float32frombits(f.volume.Load())
}
