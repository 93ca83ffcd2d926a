package eventstore

import "time"

// Event is an append-only record describing one committed fact about an
// aggregate's history. Identity fields (StreamRevision, CommitID,
// CommitSequence, CommitStamp) are unset on an uncommitted event and are
// sealed by Store.Commit; nothing else in this package mutates them
// afterwards.
type Event struct {
	StreamID       string
	StreamRevision int64
	CommitID       string
	CommitSequence int
	CommitStamp    time.Time
	Header         map[string]any
	Dispatched     bool
	Payload        any
}

// Snapshot is an opaque captured state of a stream at a given revision,
// used to shortcut replay. Revision is the StreamRevision of the last
// event folded into Data.
type Snapshot struct {
	ID       string
	StreamID string
	Revision int64
	Data     any
}

// NoSnapshot is the absent marker returned by Storage.GetSnapshot and
// Store.GetFromSnapshot when a stream has never been snapshotted.
var NoSnapshot = Snapshot{Revision: -1}

// EventOption customizes an uncommitted Event before it is queued for
// commit. The only field callers may set ahead of time is the Header,
// since every other field is assigned by the commit protocol.
type EventOption func(*Event)

// WithHeader attaches opaque metadata to an uncommitted event.
func WithHeader(header map[string]any) EventOption {
	return func(e *Event) {
		e.Header = header
	}
}
