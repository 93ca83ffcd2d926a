package eventstore

import (
	"context"
	"fmt"
	"time"
)

// Store is the coordinator: it holds the injected Storage,
// Publisher, and Logger collaborators and drives the commit, load, and
// snapshot protocols. A zero-value Store is not usable; construct one
// with New.
type Store struct {
	storage    Storage
	publisher  Publisher
	logger     Logger
	dispatcher *Dispatcher

	publishingInterval time.Duration
	consoleLogger      bool
	skipDispatcher     bool

	started bool
}

// New creates an unconfigured Store. Bind collaborators with Use and
// Configure, then call Start.
func New() *Store {
	return &Store{
		publishingInterval: 100 * time.Millisecond,
	}
}

// Option customizes Store.Start, corresponding to the configuration
// options recognized at startup.
type Option func(*Store)

// WithPublishingInterval sets the Dispatcher's poll interval.
func WithPublishingInterval(d time.Duration) Option {
	return func(s *Store) {
		s.publishingInterval = d
	}
}

// WithConsoleLogger binds the built-in console logger at Start, unless
// a Logger was already bound via Use.
func WithConsoleLogger() Option {
	return func(s *Store) {
		s.consoleLogger = true
	}
}

// WithoutDispatcher skips constructing and starting the Dispatcher at
// Start. Use this for read-only tools (diagnostics, replay) that must
// not drain the undispatched backlog through a publisher: since
// Commit only hands events to the Dispatcher when one exists, a Store
// started this way can still read but can never publish or mark
// events dispatched.
func WithoutDispatcher() Option {
	return func(s *Store) {
		s.skipDispatcher = true
	}
}

// Use performs capability detection: module is bound to every
// recognized role (Storage, Publisher, Logger) it satisfies. A single
// module may fill multiple roles. It returns an error if module
// satisfies none of them, since that is almost always a caller mistake.
func (s *Store) Use(module any) error {
	if !s.detectRoles(module) {
		return fmt.Errorf("eventstore: %T implements none of Storage, Publisher, Logger", module)
	}
	return nil
}

// Configure invokes fn with the Store, allowing callers to batch several
// Use calls and option assignments in one place.
func (s *Store) Configure(fn func(*Store)) *Store {
	fn(s)
	return s
}

// Start fills any unbound role with a default (in-memory storage, a
// no-op publisher, optionally a console logger) and starts the
// Dispatcher. It is safe to call once; a second call is a no-op.
func (s *Store) Start(ctx context.Context, opts ...Option) error {
	for _, opt := range opts {
		opt(s)
	}
	if s.started {
		return nil
	}

	if s.storage == nil {
		s.storage = newDefaultStorage()
	}
	if s.publisher == nil {
		s.publisher = PublisherFunc(func(context.Context, Event) error { return nil })
	}
	if s.logger == nil {
		if s.consoleLogger {
			s.logger = newConsoleLogger()
		} else {
			s.logger = noopLogger{}
		}
	}

	if !s.skipDispatcher {
		s.dispatcher = NewDispatcher(s.storage, s.publisher, s.logger, s.publishingInterval)
		if err := s.dispatcher.Start(ctx); err != nil {
			return fmt.Errorf("eventstore: starting dispatcher: %w", err)
		}
	}

	s.started = true
	return nil
}

// Stop requests the Dispatcher to finish its current tick and exit. It
// is a no-op if Start was never called.
func (s *Store) Stop() error {
	if s.dispatcher == nil {
		return nil
	}
	return s.dispatcher.Stop()
}

// GetEventStream fetches events from Storage in [minRev, maxRev)
// (positional) and wraps them in a fresh EventStream. maxRev =
// -1 means open-ended.
func (s *Store) GetEventStream(ctx context.Context, streamID string, minRev, maxRev int64) (*EventStream, error) {
	if s.storage == nil {
		return nil, ErrConfigurationMissing
	}
	events, err := s.storage.GetEvents(ctx, streamID, minRev, maxRev)
	if err != nil {
		return nil, WrapBackendError("GetEvents", err)
	}
	return NewEventStream(streamID, events), nil
}

// GetFromSnapshot loads the latest snapshot with Revision <= maxRev, then
// the events from snapshot.Revision+1 (or 0 if none) up to maxRev.
func (s *Store) GetFromSnapshot(ctx context.Context, streamID string, maxRev int64) (Snapshot, *EventStream, error) {
	if s.storage == nil {
		return NoSnapshot, nil, ErrConfigurationMissing
	}

	snapshot, found, err := s.storage.GetSnapshot(ctx, streamID, maxRev)
	if err != nil {
		return NoSnapshot, nil, WrapBackendError("GetSnapshot", err)
	}
	if !found {
		snapshot = NoSnapshot
	}

	from := int64(0)
	if found {
		from = snapshot.Revision + 1
	}

	events, err := s.storage.GetEvents(ctx, streamID, from, maxRev)
	if err != nil {
		return NoSnapshot, nil, WrapBackendError("GetEvents", err)
	}

	return snapshot, NewEventStream(streamID, events), nil
}

// CreateSnapshot obtains a new id from Storage, assembles the Snapshot,
// and persists it.
func (s *Store) CreateSnapshot(ctx context.Context, streamID string, revision int64, data any) (Snapshot, error) {
	if s.storage == nil {
		return Snapshot{}, ErrConfigurationMissing
	}

	id, err := s.storage.GetID(ctx)
	if err != nil {
		return Snapshot{}, WrapBackendError("GetID", err)
	}

	snapshot := Snapshot{
		ID:       id,
		StreamID: streamID,
		Revision: revision,
		Data:     data,
	}

	if err := s.storage.AddSnapshot(ctx, snapshot); err != nil {
		return Snapshot{}, WrapBackendError("AddSnapshot", err)
	}
	return snapshot, nil
}

// Commit is the core protocol: it assigns a shared CommitID and
// gap-free StreamRevisions to stream's uncommitted events, persists
// them, hands them to the Dispatcher, and folds them into the stream's
// committed list. expected is the optimistic-concurrency precondition,
// checked against the last StreamRevision persisted in Storage; pass
// Any{} to opt out.
func (s *Store) Commit(ctx context.Context, stream *EventStream, expected Revision) (*EventStream, error) {
	if s.storage == nil {
		return nil, ErrConfigurationMissing
	}
	if len(stream.UncommittedEvents) == 0 {
		return stream, nil
	}

	currentRevision := stream.CurrentRevision()

	persisted, err := s.storage.GetEvents(ctx, stream.StreamID, 0, -1)
	if err != nil {
		return nil, WrapBackendError("GetEvents", err)
	}
	actualRevision := int64(-1)
	if len(persisted) > 0 {
		actualRevision = persisted[len(persisted)-1].StreamRevision
	}

	switch rev := expected.(type) {
	case Any:
		// no concurrency check
	case NoStream:
		if actualRevision != -1 {
			return nil, ErrStreamExists
		}
	case StreamExists:
		if actualRevision == -1 {
			return nil, ErrStreamNotFound
		}
	case ExplicitRevision:
		if int64(rev) != actualRevision {
			return nil, &RevisionConflictError{
				StreamID:         stream.StreamID,
				ExpectedRevision: rev,
				ActualRevision:   actualRevision,
			}
		}
	default:
		return nil, fmt.Errorf("eventstore: unsupported revision type %T", expected)
	}

	commitID, err := s.storage.GetID(ctx)
	if err != nil {
		return nil, WrapBackendError("GetID", err)
	}
	commitStamp := time.Now()

	for i := range stream.UncommittedEvents {
		currentRevision++
		stream.UncommittedEvents[i].CommitID = commitID
		stream.UncommittedEvents[i].CommitSequence = i
		stream.UncommittedEvents[i].CommitStamp = commitStamp
		stream.UncommittedEvents[i].StreamRevision = currentRevision
		stream.UncommittedEvents[i].Dispatched = false
	}

	if err := s.storage.AddEvents(ctx, stream.UncommittedEvents); err != nil {
		return nil, WrapBackendError("AddEvents", err)
	}

	if s.dispatcher != nil {
		s.dispatcher.AddUndispatchedEvents(stream.UncommittedEvents)
	}

	stream.Events = append(stream.Events, stream.UncommittedEvents...)
	stream.UncommittedEvents = nil

	return stream, nil
}

// GetAllEvents is a thin, diagnostics-only pass-through to Storage.
func (s *Store) GetAllEvents(ctx context.Context) ([]Event, error) {
	if s.storage == nil {
		return nil, ErrConfigurationMissing
	}
	events, err := s.storage.GetAllEvents(ctx)
	if err != nil {
		return nil, WrapBackendError("GetAllEvents", err)
	}
	return events, nil
}

// GetEvents is a thin, diagnostics-only pass-through to
// Storage.GetEventRange (best-effort window, not a
// substitute for GetEventStream on a known stream).
func (s *Store) GetEvents(ctx context.Context, index, amount int) ([]Event, error) {
	if s.storage == nil {
		return nil, ErrConfigurationMissing
	}
	events, err := s.storage.GetEventRange(ctx, index, amount)
	if err != nil {
		return nil, WrapBackendError("GetEventRange", err)
	}
	return events, nil
}
