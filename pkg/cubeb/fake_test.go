package cubeb

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DingusDevOrg/cubeb/pkg/audio"
	"github.com/DingusDevOrg/cubeb/pkg/audio/backend"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// fakeBackend is a scriptable driver. Streams accept writes up to capacity
// bytes and then block until the test consumes; capacity 0 never blocks.
type fakeBackend struct {
	name     string
	period   int
	capacity int
	pace     time.Duration
	initErr  error

	mu      sync.Mutex
	streams []*fakeStream
	closed  bool
}

func (b *fakeBackend) Name() string { return b.name }

func (b *fakeBackend) StreamInit(name string, params audio.StreamParams, latencyFrames int) (backend.Stream, error) {
	if b.initErr != nil {
		return nil, b.initErr
	}
	period := b.period
	if period == 0 {
		period = 64
	}
	s := &fakeStream{
		params:   params,
		period:   period,
		capacity: b.capacity,
		pace:     b.pace,
		space:    make(chan struct{}, 1),
		volume:   1,
	}
	b.mu.Lock()
	b.streams = append(b.streams, s)
	b.mu.Unlock()
	return s, nil
}

func (b *fakeBackend) Close() error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	return nil
}

func (b *fakeBackend) stream(i int) *fakeStream {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.streams[i]
}

type fakeStream struct {
	params   audio.StreamParams
	period   int
	capacity int
	pace     time.Duration
	space    chan struct{}

	mu        sync.Mutex
	data      []byte
	queued    int
	running   bool
	starts    int
	stops     int
	closed    bool
	position  uint64
	volume    float32
	writeErr  error
	startErr  error
	stopErr   error
	volumeErr error
	drainErr  error
}

func (s *fakeStream) BufferFrames() int  { return s.period }
func (s *fakeStream) LatencyFrames() int { return s.period * backend.Periods }

func (s *fakeStream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.startErr != nil {
		return s.startErr
	}
	s.running = true
	s.starts++
	return nil
}

func (s *fakeStream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.stops++
	return s.stopErr
}

func (s *fakeStream) Write(ctx context.Context, p []byte) (int, error) {
	if s.pace > 0 {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(s.pace):
		}
	}
	written := 0
	for {
		s.mu.Lock()
		if s.writeErr != nil {
			s.mu.Unlock()
			return written, s.writeErr
		}
		n := len(p) - written
		if s.capacity > 0 {
			n = min(n, s.capacity-s.queued)
			s.data = append(s.data, p[written:written+n]...)
			s.queued += n
		}
		written += n
		s.mu.Unlock()

		if written == len(p) {
			return written, nil
		}
		select {
		case <-ctx.Done():
			return written, ctx.Err()
		case <-s.space:
		}
	}
}

func (s *fakeStream) Drain(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drainErr
}

func (s *fakeStream) Position() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position, nil
}

func (s *fakeStream) SetVolume(v float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.volumeErr != nil {
		return s.volumeErr
	}
	s.volume = v
	return nil
}

func (s *fakeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// consume frees every queued byte, as if the device had played it.
func (s *fakeStream) consume() {
	s.mu.Lock()
	s.position += uint64(s.params.BytesToFrames(s.queued))
	s.queued = 0
	s.mu.Unlock()
	select {
	case s.space <- struct{}{}:
	default:
	}
}

func (s *fakeStream) full() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.capacity > 0 && s.queued == s.capacity
}

func (s *fakeStream) set(fn func(s *fakeStream)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}

func (s *fakeStream) snapshot() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.data...)
}

var fakeSeq atomic.Int64

// registerFake makes fb discoverable under a fresh name and returns it.
func registerFake(fb *fakeBackend) string {
	if fb.name == "" {
		fb.name = fmt.Sprintf("fake-%d", fakeSeq.Add(1))
	}
	backend.Register(backend.Factory{
		Name:     fb.name,
		Priority: -1000,
		Init: func(string, *zap.Logger) (backend.Backend, error) {
			return fb, nil
		},
	})
	return fb.name
}

func newFakeContext(t *testing.T, fb *fakeBackend, opts ...Option) *Context {
	t.Helper()
	name := registerFake(fb)
	opts = append([]Option{WithBackend(name), WithLogger(zaptest.NewLogger(t))}, opts...)
	c, err := Init("test", opts...)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(c.Destroy)
	return c
}

// recorder collects state notifications.
type recorder struct {
	mu     sync.Mutex
	states []State
	ch     chan State
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan State, 64)}
}

func (r *recorder) callback(_ *Stream, _ any, st State) error {
	r.mu.Lock()
	r.states = append(r.states, st)
	r.mu.Unlock()
	select {
	case r.ch <- st:
	default:
	}
	return nil
}

func (r *recorder) snapshot() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.states...)
}

func (r *recorder) await(t *testing.T, want State) {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case st := <-r.ch:
			if st == want {
				return
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s, got %v", want, r.snapshot())
		}
	}
}

// counter is a data callback that writes silence and counts invocations.
type counter struct {
	calls atomic.Int64
	// short, when positive, is the invocation number that returns half a buffer.
	short int64
	// failAt, when positive, is the invocation number that fails via fail.
	failAt int64
	fail   func(frames int) (int, error)
}

func (c *counter) callback(s *Stream, _ any, buf []byte, frames int) (int, error) {
	n := c.calls.Add(1)
	audio.Silence(s.Params().Format, buf)
	if c.failAt > 0 && n == c.failAt {
		return c.fail(frames)
	}
	if c.short > 0 && n == c.short {
		return frames / 2, nil
	}
	return frames, nil
}

func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal(msg)
		}
		time.Sleep(time.Millisecond)
	}
}

var errBoom = errors.New("boom")

var mono16 = audio.StreamParams{Format: audio.FormatS16LE, Rate: 48000, Channels: 1}
