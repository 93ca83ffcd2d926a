package eventstore

// Revision expresses the expected-revision precondition a caller attaches
// to Store.Commit, resolving concurrent commits to the same stream in
// favor of optimistic concurrency: a caller that wants the
// coordinator to detect a race opts in with ExplicitRevision; a caller
// that accepts the original caller-locked model uses Any.
type Revision interface {
	isRevision()
}

// Any appends without checking the stream's current revision: two
// concurrently loaded EventStreams committing with Any will silently
// interleave revisions.
type Any struct{}

func (Any) isRevision() {}

// NoStream requires the stream to not exist yet.
type NoStream struct{}

func (NoStream) isRevision() {}

// StreamExists requires the stream to already exist.
type StreamExists struct{}

func (StreamExists) isRevision() {}

// ExplicitRevision requires the stream's current revision (the
// StreamRevision of its last committed event) to equal exactly this
// value before the commit is allowed to proceed.
type ExplicitRevision int64

func (ExplicitRevision) isRevision() {}
