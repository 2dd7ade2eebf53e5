// ABOUTME: Stream lifecycle transition table
// ABOUTME: Every state change goes through dispatch over this table
package cubeb

type event int

const (
	evStart event = iota
	evStop
	evDrainBegin
	evDrainEnd
	evFail
	evDestroy
)

func (e event) String() string {
	switch e {
	case evStart:
		return "start"
	case evStop:
		return "stop"
	case evDrainBegin:
		return "drain-begin"
	case evDrainEnd:
		return "drain-end"
	case evFail:
		return "fail"
	case evDestroy:
		return "destroy"
	default:
		return "unknown"
	}
}

// outcome classifies a lookup in the transition table.
type outcome int

const (
	// move: the state changes to the entry's target.
	move outcome = iota
	// noop: the event is accepted but changes nothing.
	noop
	// ignore: a pump event that arrived after an application transition won.
	ignore
	// reject: the event is invalid in this state.
	reject
)

type edge struct {
	to      StreamState
	outcome outcome
}

func to(s StreamState) edge { return edge{to: s, outcome: move} }

var (
	stay   = edge{outcome: noop}
	refuse = edge{outcome: reject}
)

// Only a running pump fails, so evFail is absent from Created and Stopped:
// a failure that loses the race with Stop must not follow StateStopped.
var transitions = map[StreamState]map[event]edge{
	StreamCreated: {
		evStart:   to(StreamStarted),
		evStop:    stay,
		evDestroy: to(StreamDestroyed),
	},
	StreamStarted: {
		evStart:      stay,
		evStop:       to(StreamStopped),
		evDrainBegin: to(StreamDraining),
		evFail:       to(StreamErrored),
		evDestroy:    to(StreamDestroyed),
	},
	StreamStopped: {
		evStart:   to(StreamStarted),
		evStop:    stay,
		evDestroy: to(StreamDestroyed),
	},
	StreamDraining: {
		evStart:    stay,
		evStop:     to(StreamStopped),
		evDrainEnd: to(StreamDrained),
		evFail:     to(StreamErrored),
		evDestroy:  to(StreamDestroyed),
	},
	StreamDrained: {
		evStart:   refuse,
		evStop:    stay,
		evDestroy: to(StreamDestroyed),
	},
	StreamErrored: {
		evStart:   refuse,
		evStop:    stay,
		evDestroy: to(StreamDestroyed),
	},
	StreamDestroyed: {
		evStart:   refuse,
		evStop:    refuse,
		evDestroy: stay,
	},
}

// lookup returns the table entry for ev in from. Missing pump events are
// ignored; missing application events are rejected.
func lookup(from StreamState, ev event) edge {
	if e, ok := transitions[from][ev]; ok {
		return e
	}
	switch ev {
	case evDrainBegin, evDrainEnd, evFail:
		return edge{outcome: ignore}
	default:
		return refuse
	}
}
