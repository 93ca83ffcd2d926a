package fixtures

import (
	"fmt"
	"time"

	"github.com/terraskye/eventstore"
)

// TestPayload is a configurable payload for use with TestEventBuilder.
type TestPayload struct {
	Data string
}

// TestEventBuilder provides a fluent API for constructing test Events.
type TestEventBuilder struct {
	streamID       string
	streamRevision int64
	commitID       string
	commitSequence int
	commitStamp    time.Time
	dispatched     bool
	payload        any
}

// NewTestEvent creates a TestEventBuilder with sensible defaults for
// streamID.
func NewTestEvent(streamID string) *TestEventBuilder {
	return &TestEventBuilder{
		streamID:    streamID,
		commitID:    "commit-1",
		commitStamp: time.Unix(0, 0).UTC(),
		payload:     TestPayload{},
	}
}

// WithRevision sets the StreamRevision.
func (b *TestEventBuilder) WithRevision(rev int64) *TestEventBuilder {
	b.streamRevision = rev
	return b
}

// WithCommitID sets the CommitID.
func (b *TestEventBuilder) WithCommitID(id string) *TestEventBuilder {
	b.commitID = id
	return b
}

// WithCommitSequence sets the CommitSequence.
func (b *TestEventBuilder) WithCommitSequence(seq int) *TestEventBuilder {
	b.commitSequence = seq
	return b
}

// WithCommitStamp sets the CommitStamp.
func (b *TestEventBuilder) WithCommitStamp(t time.Time) *TestEventBuilder {
	b.commitStamp = t
	return b
}

// WithDispatched sets the Dispatched flag.
func (b *TestEventBuilder) WithDispatched(dispatched bool) *TestEventBuilder {
	b.dispatched = dispatched
	return b
}

// WithPayload sets the payload.
func (b *TestEventBuilder) WithPayload(payload any) *TestEventBuilder {
	b.payload = payload
	return b
}

// Build constructs the Event.
func (b *TestEventBuilder) Build() eventstore.Event {
	return eventstore.Event{
		StreamID:       b.streamID,
		StreamRevision: b.streamRevision,
		CommitID:       b.commitID,
		CommitSequence: b.commitSequence,
		CommitStamp:    b.commitStamp,
		Dispatched:     b.dispatched,
		Payload:        b.payload,
	}
}

// BuildN builds n events on the same stream with sequential revisions
// starting at the builder's current revision, and distinct payload
// data so tests can tell them apart.
func (b *TestEventBuilder) BuildN(n int) []eventstore.Event {
	events := make([]eventstore.Event, n)
	for i := 0; i < n; i++ {
		events[i] = eventstore.Event{
			StreamID:       b.streamID,
			StreamRevision: b.streamRevision + int64(i),
			CommitID:       b.commitID,
			CommitSequence: i,
			CommitStamp:    b.commitStamp,
			Dispatched:     b.dispatched,
			Payload:        TestPayload{Data: fmt.Sprintf("event-%d", i+1)},
		}
	}
	return events
}

// NewUncommittedStream builds an EventStream with n uncommitted events
// on streamID, ready to be passed to Store.Commit.
func NewUncommittedStream(streamID string, n int) *eventstore.EventStream {
	stream := eventstore.NewEventStream(streamID, nil)
	for i := 0; i < n; i++ {
		stream.AddEvent(TestPayload{Data: fmt.Sprintf("event-%d", i+1)})
	}
	return stream
}
