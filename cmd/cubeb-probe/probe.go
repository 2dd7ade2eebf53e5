// ABOUTME: The probe scenario itself
// ABOUTME: Separated from main so it can run under go test
package main

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/DingusDevOrg/cubeb/pkg/audio"
	"github.com/DingusDevOrg/cubeb/pkg/cubeb"
)

type options struct {
	backend   string
	play      time.Duration
	minFrames uint64
}

type report struct {
	backend   string
	position  uint64
	latency   int
	callbacks int64
}

var probeParams = audio.StreamParams{Format: audio.FormatS16LE, Rate: 48000, Channels: 2}

const (
	probeLatency = 12000
	quietPeriod  = 200 * time.Millisecond
	notifyWait   = 2 * time.Second
)

func probe(opts options, log *zap.Logger) (report, error) {
	var rep report

	ctxOpts := []cubeb.Option{cubeb.WithLogger(log)}
	if opts.backend != "" {
		ctxOpts = append(ctxOpts, cubeb.WithBackend(opts.backend))
	}
	c, err := cubeb.Init("test", ctxOpts...)
	if err != nil {
		return rep, err
	}
	defer c.Destroy()
	rep.backend = c.BackendID()

	var calls atomic.Int64
	data := func(_ *cubeb.Stream, _ any, buf []byte, frames int) (int, error) {
		calls.Add(1)
		audio.Silence(probeParams.Format, buf)
		return frames, nil
	}

	var mu sync.Mutex
	var states []cubeb.State
	stopped := make(chan struct{})
	var once sync.Once
	stateCB := func(_ *cubeb.Stream, _ any, st cubeb.State) error {
		mu.Lock()
		states = append(states, st)
		mu.Unlock()
		if st == cubeb.StateStopped {
			once.Do(func() { close(stopped) })
		}
		return nil
	}

	s, err := c.StreamInit("test", probeParams, probeLatency, data, stateCB, nil)
	if err != nil {
		return rep, err
	}
	defer s.Destroy()
	rep.latency = s.Latency()

	if err := s.Start(); err != nil {
		return rep, err
	}
	time.Sleep(opts.play)

	pos, err := s.Position()
	if err != nil {
		return rep, err
	}
	rep.position = pos
	if pos < opts.minFrames {
		return rep, fmt.Errorf("position %d after %s, expected at least %d", pos, opts.play, opts.minFrames)
	}

	if err := s.Stop(); err != nil {
		return rep, err
	}
	select {
	case <-stopped:
	case <-time.After(notifyWait):
		return rep, errors.New("no stopped notification")
	}

	before := calls.Load()
	time.Sleep(quietPeriod)
	if after := calls.Load(); after != before {
		return rep, fmt.Errorf("%d data callbacks after stop", after-before)
	}
	rep.callbacks = before

	mu.Lock()
	defer mu.Unlock()
	if len(states) != 2 || states[0] != cubeb.StateStarted {
		return rep, fmt.Errorf("unexpected notifications %v", states)
	}
	return rep, nil
}
