// ABOUTME: Tests for player application orchestration
// ABOUTME: Runs real sessions against the null backend
package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/DingusDevOrg/cubeb/internal/ui"
	"github.com/DingusDevOrg/cubeb/pkg/audio"
	"github.com/DingusDevOrg/cubeb/pkg/audio/source"
	"github.com/DingusDevOrg/cubeb/pkg/cubeb"
)

var mono = audio.StreamParams{Format: audio.FormatS16LE, Rate: 48000, Channels: 1}

type statusLog struct {
	mu   sync.Mutex
	msgs []ui.StatusMsg
}

func (l *statusLog) add(m ui.StatusMsg) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msgs = append(l.msgs, m)
}

func (l *statusLog) states() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	for _, m := range l.msgs {
		if m.State != "" {
			out = append(out, m.State)
		}
	}
	return out
}

func (l *statusLog) lastPosition() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	var pos uint64
	for _, m := range l.msgs {
		pos = max(pos, m.Position)
	}
	return pos
}

func newPlayer(t *testing.T, src source.Source, status *statusLog, ctrl *ui.Controls) *Player {
	t.Helper()
	p, err := New(Config{
		Name:           "test",
		Backend:        "null",
		LatencyMs:      20,
		Volume:         0.5,
		Source:         src,
		Logger:         zaptest.NewLogger(t),
		Status:         status.add,
		Controls:       ctrl,
		StatusInterval: 20 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

func TestNewPlayer(t *testing.T) {
	p := newPlayer(t, source.NewTone(mono, 440), &statusLog{}, nil)

	if p.Backend() != "null" {
		t.Errorf("expected backend null, got %s", p.Backend())
	}
	if p.Stream().State() != cubeb.StreamCreated {
		t.Errorf("expected created stream, got %s", p.Stream().State())
	}
	if v := p.Stream().Volume(); v != 0.5 {
		t.Errorf("expected volume 0.5, got %v", v)
	}
}

func TestNewPlayerErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"no source", Config{Name: "x"}},
		{"unknown backend", Config{Name: "x", Backend: "nope", LatencyMs: 20, Source: source.NewTone(mono, 440)}},
		{"bad volume", Config{Name: "x", Backend: "null", LatencyMs: 20, Volume: 2, Source: source.NewTone(mono, 440)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestRunPlaysToEnd(t *testing.T) {
	status := &statusLog{}
	p := newPlayer(t, source.Take(source.NewTone(mono, 440), 4800), status, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if ctx.Err() != nil {
		t.Fatal("Run only returned at the deadline")
	}

	states := status.states()
	if len(states) < 2 || states[0] != "started" || states[len(states)-1] != "drained" {
		t.Errorf("expected started ... drained, got %v", states)
	}
	// The preroll ran before decoding began, so it may add a buffer of silence.
	if pos, _ := p.Stream().Position(); pos < 4800 || pos > 9600 {
		t.Errorf("expected position in [4800, 9600], got %d", pos)
	}
}

func TestRunToggleAndQuit(t *testing.T) {
	status := &statusLog{}
	ctrl := ui.NewControls()
	p := newPlayer(t, source.NewTone(mono, 440), status, ctrl)

	done := make(chan error, 1)
	go func() { done <- p.Run(context.Background()) }()

	waitFor(t, func() bool { return p.Stream().State() == cubeb.StreamStarted })
	ctrl.Toggle <- struct{}{}
	waitFor(t, func() bool { return p.Stream().State() == cubeb.StreamStopped })
	ctrl.Volume <- 25
	waitFor(t, func() bool { return p.Stream().Volume() == 0.25 })
	ctrl.Toggle <- struct{}{}
	waitFor(t, func() bool { return p.Stream().State() == cubeb.StreamStarted })

	ctrl.Quit <- struct{}{}
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after quit")
	}

	waitFor(t, func() bool { return status.lastPosition() > 0 })
}

type broken struct {
	*source.Tone
}

func (broken) Read([]byte) (int, error) { return 0, errors.New("corrupt frame") }

func TestRunDecodeFailure(t *testing.T) {
	p := newPlayer(t, broken{source.NewTone(mono, 440)}, &statusLog{}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.Run(ctx); err == nil {
		t.Fatal("expected Run to fail")
	}
}

func TestRunCancelled(t *testing.T) {
	p := newPlayer(t, source.NewTone(mono, 440), &statusLog{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	waitFor(t, func() bool { return p.Stream().State() == cubeb.StreamStarted })
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected nil on cancel, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
