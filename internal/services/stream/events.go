package stream

import (
	"time"

	"github.com/temirov/flattree/internal/flatten"
)

// EventKind identifies the payload carried by an Event.
type EventKind string

const (
	EventKindProgress EventKind = "progress"
	EventKindDone     EventKind = "done"
	EventKindError    EventKind = "error"
)

// Event is one message of a scan stream. Every stream ends with exactly one done or error event.
type Event struct {
	Kind      EventKind
	ScanID    string
	EmittedAt time.Time

	Progress *flatten.Progress
	Result   *flatten.Result
	Err      *ErrorEvent
}

// ErrorEvent carries the message reported to the stream consumer.
type ErrorEvent struct {
	Message string
}

// Terminal reports whether the event ends the stream.
func (event Event) Terminal() bool {
	return event.Kind == EventKindDone || event.Kind == EventKindError
}
