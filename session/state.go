package session

import (
	"github.com/the-lightning-land/netconfig/network"
)

type State int

const (
	Idle State = iota
	Scanning
	AwaitingSelection
	AwaitingPassword
	Connecting
	Succeeded
	Failed
	AwaitingAccessPassword
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Scanning:
		return "scanning"
	case AwaitingSelection:
		return "awaiting_selection"
	case AwaitingPassword:
		return "awaiting_password"
	case Connecting:
		return "connecting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case AwaitingAccessPassword:
		return "awaiting_access_password"
	default:
		return "invalid"
	}
}

// Busy reports whether the session is blocked on the radio in this state.
func (s State) Busy() bool {
	return s == Scanning || s == Connecting
}

// Update is published to the sink on every state or status change.
type Update struct {
	State State
	// Status is the short progress line, e.g. the radio's status name.
	Status string
	// Message is a notice for the user, e.g. "Connection failed.".
	Message string
	// Ssid is the network being joined, if any.
	Ssid     string
	Networks []*network.Wifi
	Outcome  *network.Outcome
	Err      error
}

// Sink receives session updates. Update must not call back into the
// session.
type Sink interface {
	Update(update *Update)
}

type SinkFunc func(update *Update)

func (f SinkFunc) Update(update *Update) {
	f(update)
}

type multiSink []Sink

func (m multiSink) Update(update *Update) {
	for _, sink := range m {
		sink.Update(update)
	}
}

// MultiSink fans updates out to all given sinks in order.
func MultiSink(sinks ...Sink) Sink {
	var m multiSink
	for _, sink := range sinks {
		if sink != nil {
			m = append(m, sink)
		}
	}

	return m
}
