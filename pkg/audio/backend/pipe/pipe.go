// ABOUTME: Pipe backend implementation
// ABOUTME: One player process per stream, fed by a writer goroutine from the ring
package pipe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/DingusDevOrg/cubeb/pkg/audio"
	"github.com/DingusDevOrg/cubeb/pkg/audio/backend"
	"go.uber.org/zap"
)

// Name is the registry name of the pipe driver.
const Name = "pipe"

// ErrPlayerExited reports that the player process went away under a stream.
var ErrPlayerExited = errors.New("pipe: player process exited")

const (
	quantum   = 64
	killAfter = time.Second
)

func init() {
	backend.Register(backend.Factory{
		Name:     Name,
		Priority: 10,
		Init: func(_ string, log *zap.Logger) (backend.Backend, error) {
			player, err := Detect()
			if err != nil {
				return nil, fmt.Errorf("%w: %v", backend.ErrUnavailable, err)
			}
			return New(log, player), nil
		},
	})
}

// Backend spawns player processes.
type Backend struct {
	log    *zap.Logger
	player Player
	closed atomic.Bool
}

// New creates a pipe backend using player for every stream.
func New(log *zap.Logger, player Player) *Backend {
	if log == nil {
		log = zap.NewNop()
	}
	return &Backend{log: log.Named(Name).With(zap.String("player", player.Name)), player: player}
}

func (b *Backend) Name() string { return Name }

// Player returns the player this backend spawns.
func (b *Backend) Player() Player { return b.player }

func (b *Backend) StreamInit(name string, params audio.StreamParams, latencyFrames int) (backend.Stream, error) {
	if b.closed.Load() {
		return nil, backend.ErrClosed
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", backend.ErrUnsupportedFormat, err)
	}

	period, latency := backend.RoundLatency(params, latencyFrames, quantum)
	args, err := b.player.Args(params, params.Duration(latency))
	if err != nil {
		return nil, err
	}

	dead, kill := context.WithCancelCause(context.Background())
	s := &Stream{
		name:    name,
		params:  params,
		period:  period,
		latency: latency,
		player:  b.player,
		args:    args,
		log:     b.log.With(zap.String("stream", name)),
		feed:    backend.NewRingFeed(params, latency),
		scratch: make([]byte, params.FramesToBytes(period)),
		dead:    dead,
		kill:    kill,
	}
	s.log.Debug("stream created", zap.Strings("args", args), zap.Int("period", period))
	return s, nil
}

func (b *Backend) Close() error {
	b.closed.Store(true)
	return nil
}

// Stream owns one player process, spawned on first Start.
type Stream struct {
	name    string
	params  audio.StreamParams
	period  int
	latency int
	player  Player
	args    []string
	log     *zap.Logger
	feed    *backend.RingFeed
	scratch []byte

	// dead is cancelled with the failure cause once the process is unusable.
	dead context.Context
	kill context.CancelCauseFunc

	mu      sync.Mutex
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	exited  chan struct{}
	cancel  context.CancelFunc
	done    chan struct{}
	closing atomic.Bool
}

func (s *Stream) BufferFrames() int  { return s.period }
func (s *Stream) LatencyFrames() int { return s.latency }

func (s *Stream) spawn() error {
	cmd := exec.Command(s.player.Path, s.args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("pipe: stdin for %s: %w", s.player.Name, err)
	}
	if err := cmd.Start(); err != nil {
		stdin.Close()
		return fmt.Errorf("%w: start %s: %v", backend.ErrUnavailable, s.player.Name, err)
	}
	s.cmd = cmd
	s.stdin = stdin
	s.exited = make(chan struct{})
	go s.monitor(cmd, s.exited)
	s.log.Info("player started", zap.Int("pid", cmd.Process.Pid))
	return nil
}

func (s *Stream) monitor(cmd *exec.Cmd, exited chan struct{}) {
	defer close(exited)
	err := cmd.Wait()
	if s.closing.Load() {
		return
	}
	s.log.Warn("player exited", zap.Error(err))
	s.kill(fmt.Errorf("%w: %v", ErrPlayerExited, err))
}

// Start spawns the player if needed and starts the writer goroutine.
func (s *Stream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := context.Cause(s.dead); err != nil {
		return err
	}
	if s.cancel != nil {
		return nil
	}
	if s.cmd == nil {
		if err := s.spawn(); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.feed.SetRunning(true)
	go s.write(ctx, s.stdin, s.done)
	return nil
}

// write is the device side: it moves one period at a time from the ring into
// the pipe, padding with silence so the player never starves mid-stream.
func (s *Stream) write(ctx context.Context, w io.Writer, done chan struct{}) {
	defer close(done)
	for ctx.Err() == nil {
		s.feed.Fill(s.scratch)
		if _, err := w.Write(s.scratch); err != nil {
			if !s.closing.Load() {
				s.kill(fmt.Errorf("pipe: write to %s: %w", s.player.Name, err))
			}
			return
		}
	}
}

// Stop halts the writer. The player process stays up and waits for data.
func (s *Stream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	return nil
}

func (s *Stream) stopLocked() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel, s.done = nil, nil
	s.feed.SetRunning(false)
}

// bind returns a context that is also cancelled when the player dies.
func (s *Stream) bind(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.dead, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// failure maps an error from a bound operation back to the player's failure
// when that is what interrupted it.
func (s *Stream) failure(parent context.Context, err error) error {
	if err != nil && parent.Err() == nil {
		if cause := context.Cause(s.dead); cause != nil {
			return cause
		}
	}
	return err
}

func (s *Stream) Write(ctx context.Context, p []byte) (int, error) {
	if cause := context.Cause(s.dead); cause != nil {
		return 0, cause
	}
	bctx, release := s.bind(ctx)
	defer release()
	n, err := s.feed.Write(bctx, p)
	return n, s.failure(ctx, err)
}

// Drain waits for the ring to empty and then for the player's latency.
func (s *Stream) Drain(ctx context.Context) error {
	bctx, release := s.bind(ctx)
	defer release()
	if err := s.feed.Drain(bctx); err != nil {
		return s.failure(ctx, err)
	}
	timer := time.NewTimer(s.params.Duration(s.latency))
	defer timer.Stop()
	select {
	case <-bctx.Done():
		return s.failure(ctx, bctx.Err())
	case <-timer.C:
		return nil
	}
}

// Position counts frames handed to the player.
func (s *Stream) Position() (uint64, error) {
	return s.feed.Played(), nil
}

// SetVolume is applied in software as frames leave the ring.
func (s *Stream) SetVolume(v float32) error {
	s.feed.SetVolume(v)
	return nil
}

// Close stops the writer, closes the player's stdin and waits for it to
// exit, killing it if it lingers.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closing.Store(true)
	s.kill(backend.ErrClosed)
	if s.stdin != nil {
		// Unblocks a writer stuck on a full pipe.
		s.stdin.Close()
	}
	s.stopLocked()
	if s.cmd == nil {
		return nil
	}

	select {
	case <-s.exited:
	case <-time.After(killAfter):
		s.log.Warn("player did not exit, killing")
		s.cmd.Process.Kill()
		<-s.exited
	}
	s.cmd = nil
	return nil
}
