// ABOUTME: Public callback signatures and state enumerations
// ABOUTME: Defines notification states, lifecycle states and callback types
package cubeb

import "fmt"

// State is a transition reported through the state callback. StateStarted,
// StateStopped and StateDrained are the classic cubeb states; StateError is
// an addition.
type State int

const (
	StateStarted State = iota
	StateStopped
	StateDrained
	// StateError extends the three playback states to report an asynchronous
	// failure: the pump has halted and the stream will not resume. It is only
	// delivered for a stream that was started or draining.
	StateError
)

func (s State) String() string {
	switch s {
	case StateStarted:
		return "started"
	case StateStopped:
		return "stopped"
	case StateDrained:
		return "drained"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// StreamState is the lifecycle state of a Stream.
type StreamState int32

const (
	StreamCreated StreamState = iota
	StreamStarted
	StreamStopped
	StreamDraining
	StreamDrained
	StreamErrored
	StreamDestroyed
)

func (s StreamState) String() string {
	switch s {
	case StreamCreated:
		return "created"
	case StreamStarted:
		return "started"
	case StreamStopped:
		return "stopped"
	case StreamDraining:
		return "draining"
	case StreamDrained:
		return "drained"
	case StreamErrored:
		return "errored"
	case StreamDestroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("StreamState(%d)", int(s))
	}
}

// DataCallback fills buf, which holds exactly frames frames, and returns the
// number of frames written. Returning fewer than frames marks end of stream.
// Returning an error halts the stream.
//
// It runs on the stream's pump goroutine and must complete well within one
// buffer period. Avoid blocking, locking and I/O.
type DataCallback func(s *Stream, user any, buf []byte, frames int) (int, error)

// StateCallback is notified of transitions in the order they happen. It may
// run on a different goroutine than the data callback and must not block.
// A returned error is logged and otherwise ignored.
type StateCallback func(s *Stream, user any, state State) error
