// ABOUTME: Ordered delivery of state notifications
// ABOUTME: An unbounded queue drained by one goroutine per stream
package cubeb

import "sync"

// notifier delivers states in push order on its own goroutine, so the state
// callback never runs concurrently with itself and a slow callback never
// stalls the pump.
type notifier struct {
	deliver func(State)

	mu     sync.Mutex
	queue  []State
	closed bool
	wake   chan struct{}
	done   chan struct{}
}

func newNotifier(deliver func(State)) *notifier {
	n := &notifier{
		deliver: deliver,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go n.run()
	return n
}

// push queues st. Pushes after close are dropped.
func (n *notifier) push(st State) {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.queue = append(n.queue, st)
	n.mu.Unlock()
	n.signal()
}

func (n *notifier) signal() {
	select {
	case n.wake <- struct{}{}:
	default:
	}
}

func (n *notifier) run() {
	defer close(n.done)
	for {
		n.mu.Lock()
		for len(n.queue) == 0 && !n.closed {
			n.mu.Unlock()
			<-n.wake
			n.mu.Lock()
		}
		batch := n.queue
		n.queue = nil
		closed := n.closed
		n.mu.Unlock()

		for _, st := range batch {
			n.deliver(st)
		}
		if closed && len(batch) == 0 {
			return
		}
	}
}

// close delivers everything already queued and waits for the goroutine to
// exit. It must not be called from the deliver function.
func (n *notifier) close() {
	n.mu.Lock()
	n.closed = true
	n.mu.Unlock()
	n.signal()
	<-n.done
}
