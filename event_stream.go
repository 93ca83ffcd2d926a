package eventstore

import "context"

// EventStream is a mutable, per-aggregate working set of committed and
// uncommitted events. It is produced fresh by every Store.GetEventStream
// or Store.GetFromSnapshot call and is not shared between callers: hold
// exclusive access to one for the full load-mutate-commit lifecycle.
type EventStream struct {
	StreamID          string
	Events            []Event
	UncommittedEvents []Event
}

// NewEventStream creates an EventStream seeded with already-committed
// events, e.g. the result of a Storage.GetEvents call.
func NewEventStream(streamID string, committed []Event) *EventStream {
	return &EventStream{
		StreamID: streamID,
		Events:   committed,
	}
}

// CurrentRevision returns the highest StreamRevision among the committed
// events, or -1 if the stream has no committed events yet.
func (s *EventStream) CurrentRevision() int64 {
	if len(s.Events) == 0 {
		return -1
	}
	return s.Events[len(s.Events)-1].StreamRevision
}

// AddEvent wraps payload in a new uncommitted Event and appends it to the
// pending batch. Order of addition is the order the events will receive
// their CommitSequence.
func (s *EventStream) AddEvent(payload any, opts ...EventOption) {
	event := Event{
		StreamID:   s.StreamID,
		Dispatched: false,
		Payload:    payload,
	}
	for _, opt := range opts {
		opt(&event)
	}
	s.UncommittedEvents = append(s.UncommittedEvents, event)
}

// committer is implemented by Store. EventStream.Commit is a thin
// delegation to it, leaving persistence to a collaborator instead of
// doing it itself.
type committer interface {
	Commit(ctx context.Context, stream *EventStream, expected Revision) (*EventStream, error)
}

// Commit delegates to store's commit protocol. It is a
// convenience so callers can write stream.Commit(ctx, store, Any{})
// instead of store.Commit(ctx, stream, Any{}).
func (s *EventStream) Commit(ctx context.Context, store committer, expected Revision) (*EventStream, error) {
	return store.Commit(ctx, s, expected)
}
