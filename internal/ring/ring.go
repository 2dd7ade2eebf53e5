// ABOUTME: Lock-free single-producer single-consumer byte ring
// ABOUTME: Hands PCM from a stream pump to a device callback without locking
package ring

import (
	"context"
	"sync/atomic"
	"time"
)

// Buffer is a lock-free single-producer, single-consumer ring buffer.
//
// Two monotonically increasing atomic counters (writePos, readPos) index a
// power-of-two sized buffer with bitwise masking. The producer stores writePos
// after copying data in; the consumer loads writePos before copying data out.
// Go's sync/atomic is sequentially consistent, so the consumer always sees
// the bytes published by the position update it observed.
//
// Thread assignment:
//   - Write, WriteAll, Free, WaitEmpty: producer (the stream pump) only
//   - Read, ReadFrames, Available: consumer (the device callback) only
//
// After every read the consumer does a non-blocking send on a one-slot
// channel, which is how a blocked producer learns that space was freed. The
// consumer never blocks or allocates.
type Buffer struct {
	writePos atomic.Uint64
	_pad1    [56]byte
	readPos  atomic.Uint64
	_pad2    [56]byte

	buf   []byte
	mask  uint64
	space chan struct{}
}

// pollInterval bounds how long a blocked producer sleeps when the consumer
// stalls without signalling (e.g. a paused device).
const pollInterval = 5 * time.Millisecond

// New creates a ring buffer with capacity rounded up to the next power of two.
func New(minSize int) *Buffer {
	size := 1
	for size < minSize {
		size <<= 1
	}
	return &Buffer{
		buf:   make([]byte, size),
		mask:  uint64(size - 1),
		space: make(chan struct{}, 1),
	}
}

// Cap returns the buffer capacity in bytes.
func (rb *Buffer) Cap() int {
	return len(rb.buf)
}

// Write copies up to len(p) bytes into the buffer and returns how many were
// accepted. Non-blocking.
func (rb *Buffer) Write(p []byte) int {
	w := rb.writePos.Load()
	r := rb.readPos.Load()

	free := uint64(len(rb.buf)) - (w - r)
	if free == 0 {
		return 0
	}

	n := uint64(len(p))
	if n > free {
		n = free
	}

	pos := w & rb.mask
	first := uint64(len(rb.buf)) - pos
	if first >= n {
		copy(rb.buf[pos:pos+n], p[:n])
	} else {
		copy(rb.buf[pos:], p[:first])
		copy(rb.buf[:n-first], p[first:n])
	}

	rb.writePos.Store(w + n)
	return int(n)
}

// WriteAll blocks until all of p is in the buffer or ctx is done. It returns
// the number of bytes written, which is less than len(p) only with an error.
func (rb *Buffer) WriteAll(ctx context.Context, p []byte) (int, error) {
	written := 0
	for {
		written += rb.Write(p[written:])
		if written == len(p) {
			return written, nil
		}
		if err := rb.wait(ctx); err != nil {
			return written, err
		}
	}
}

// WaitEmpty blocks until the consumer has read everything or ctx is done.
func (rb *Buffer) WaitEmpty(ctx context.Context) error {
	for rb.Available() > 0 {
		if err := rb.wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (rb *Buffer) wait(ctx context.Context) error {
	timer := time.NewTimer(pollInterval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-rb.space:
		return nil
	case <-timer.C:
		return nil
	}
}

// Read copies up to len(p) bytes out of the buffer and returns how many were
// read. Non-blocking.
func (rb *Buffer) Read(p []byte) int {
	r := rb.readPos.Load()
	w := rb.writePos.Load()

	available := w - r
	if available == 0 {
		return 0
	}

	n := uint64(len(p))
	if n > available {
		n = available
	}

	pos := r & rb.mask
	first := uint64(len(rb.buf)) - pos
	if first >= n {
		copy(p[:n], rb.buf[pos:pos+n])
	} else {
		copy(p[:first], rb.buf[pos:])
		copy(p[first:n], rb.buf[:n-first])
	}

	rb.readPos.Store(r + n)
	rb.notify()
	return int(n)
}

// ReadFrames reads only whole frames of frameSize bytes, so a producer caught
// mid-frame never splits a sample across two device periods.
func (rb *Buffer) ReadFrames(p []byte, frameSize int) int {
	avail := rb.Available()
	if avail > len(p) {
		avail = len(p)
	}
	avail -= avail % frameSize
	if avail == 0 {
		return 0
	}
	return rb.Read(p[:avail])
}

func (rb *Buffer) notify() {
	select {
	case rb.space <- struct{}{}:
	default:
	}
}

// Available returns the number of bytes available to read.
func (rb *Buffer) Available() int {
	return int(rb.writePos.Load() - rb.readPos.Load())
}

// Free returns the number of bytes available to write.
func (rb *Buffer) Free() int {
	return len(rb.buf) - rb.Available()
}

// Reset discards buffered data. Both sides must be quiescent.
func (rb *Buffer) Reset() {
	rb.readPos.Store(rb.writePos.Load())
	rb.notify()
}
