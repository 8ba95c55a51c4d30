// Package streams fans batch progress out from the process generating it to
// the processes serving its subscribers.
package streams

import (
	"context"
	"time"

	"github.com/jimdaga/nextrend/internal/generation"
)

// Schema version constant
const (
	SchemaVersionV1 = "v1"
)

// StreamTTL is how long a batch's events stay readable after the last publish.
const StreamTTL = time.Hour

// Event kinds
const (
	EventSlot  = "slot"
	EventDone  = "done"
	EventError = "error"
)

// Event is one message on a batch stream. Slot events carry an Update; the
// final event is done or error.
type Event struct {
	Kind    string             `json:"kind"`
	Update  *generation.Update `json:"update,omitempty"`
	Message string             `json:"message,omitempty"`
}

// Terminal reports whether no further events follow.
func (e Event) Terminal() bool {
	return e.Kind == EventDone || e.Kind == EventError
}

// SlotEvent wraps a pipeline update.
func SlotEvent(u generation.Update) Event {
	return Event{Kind: EventSlot, Update: &u}
}

// DoneEvent ends a successful batch.
func DoneEvent() Event {
	return Event{Kind: EventDone}
}

// ErrorEvent ends a failed batch with the message shown to the user.
func ErrorEvent(msg string) Event {
	return Event{Kind: EventError, Message: msg}
}

// StreamKey is the Redis key of a batch's stream.
func StreamKey(batchID string) string {
	return "batch:" + batchID
}

// Broker publishes batch events and replays them to subscribers from the
// first event. Subscription channels close after a terminal event or when ctx
// is done.
type Broker interface {
	Publish(ctx context.Context, batchID string, ev Event) error
	Subscribe(ctx context.Context, batchID string) (<-chan Event, error)
	Close() error
}
