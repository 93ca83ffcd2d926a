// Package fixtures provides configurable spies and builders for testing
// against the Storage, Publisher, and Logger contracts without a real
// backend, spy-style: key calls are counted (AddEvents, Publish, every
// Logger call) and AddEvents and Publish can be overridden with a
// function field.
package fixtures

import (
	"context"
	"sync"

	"github.com/terraskye/eventstore"
)

// StorageSpy is a configurable in-memory Storage for testing. It tracks
// calls and allows injecting custom behavior or failures.
type StorageSpy struct {
	mu sync.Mutex

	AddEventsFn func(ctx context.Context, events []eventstore.Event) error

	AddEventsCalls int
	LastAddedEvents []eventstore.Event

	events       map[string][]eventstore.Event
	snapshots    map[string][]eventstore.Snapshot
	undispatched []eventstore.Event

	addErr error
	idErr  error
	nextID string
}

// NewStorageSpy creates an empty StorageSpy.
func NewStorageSpy() *StorageSpy {
	return &StorageSpy{
		events:    make(map[string][]eventstore.Event),
		snapshots: make(map[string][]eventstore.Snapshot),
		nextID:    "id-1",
	}
}

// WithEvents pre-populates streamID with events.
func (s *StorageSpy) WithEvents(streamID string, events ...eventstore.Event) *StorageSpy {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[streamID] = events
	return s
}

// WithSnapshot pre-populates streamID with a snapshot.
func (s *StorageSpy) WithSnapshot(snapshot eventstore.Snapshot) *StorageSpy {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snapshot.StreamID] = append(s.snapshots[snapshot.StreamID], snapshot)
	return s
}

// FailOnAddEvents configures AddEvents to always return err.
func (s *StorageSpy) FailOnAddEvents(err error) *StorageSpy {
	s.addErr = err
	return s
}

// FailOnGetID configures GetID to always return err.
func (s *StorageSpy) FailOnGetID(err error) *StorageSpy {
	s.idErr = err
	return s
}

func (s *StorageSpy) AddEvents(ctx context.Context, events []eventstore.Event) error {
	s.mu.Lock()
	s.AddEventsCalls++
	s.LastAddedEvents = events
	s.mu.Unlock()

	if s.AddEventsFn != nil {
		return s.AddEventsFn(ctx, events)
	}
	if s.addErr != nil {
		return s.addErr
	}
	if len(events) == 0 {
		return nil
	}

	streamID := events[0].StreamID
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[streamID] = append(s.events[streamID], events...)
	s.undispatched = append(s.undispatched, events...)
	return nil
}

func (s *StorageSpy) AddSnapshot(_ context.Context, snapshot eventstore.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snapshot.StreamID] = append(s.snapshots[snapshot.StreamID], snapshot)
	return nil
}

func (s *StorageSpy) GetEvents(_ context.Context, streamID string, minRev, maxRev int64) ([]eventstore.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.events[streamID]
	if maxRev == -1 || maxRev > int64(len(all)) {
		maxRev = int64(len(all))
	}
	if minRev < 0 {
		minRev = 0
	}
	if minRev >= maxRev {
		return nil, nil
	}
	out := make([]eventstore.Event, maxRev-minRev)
	copy(out, all[minRev:maxRev])
	return out, nil
}

func (s *StorageSpy) GetAllEvents(_ context.Context) ([]eventstore.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []eventstore.Event
	for _, events := range s.events {
		out = append(out, events...)
	}
	return out, nil
}

func (s *StorageSpy) GetEventRange(_ context.Context, index, amount int) ([]eventstore.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []eventstore.Event
	for _, events := range s.events {
		all = append(all, events...)
	}
	if index >= len(all) {
		return nil, nil
	}
	end := index + amount
	if end > len(all) {
		end = len(all)
	}
	out := make([]eventstore.Event, end-index)
	copy(out, all[index:end])
	return out, nil
}

func (s *StorageSpy) GetSnapshot(_ context.Context, streamID string, maxRev int64) (eventstore.Snapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshots := s.snapshots[streamID]
	if len(snapshots) == 0 {
		return eventstore.NoSnapshot, false, nil
	}
	if maxRev == -1 {
		return snapshots[len(snapshots)-1], true, nil
	}
	best, found := eventstore.NoSnapshot, false
	for _, snap := range snapshots {
		if snap.Revision <= maxRev {
			best, found = snap, true
		}
	}
	return best, found, nil
}

func (s *StorageSpy) GetUndispatchedEvents(_ context.Context) ([]eventstore.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]eventstore.Event, len(s.undispatched))
	copy(out, s.undispatched)
	return out, nil
}

func (s *StorageSpy) SetEventToDispatched(_ context.Context, event eventstore.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.undispatched {
		if e.CommitID == event.CommitID && e.CommitSequence == event.CommitSequence {
			s.undispatched = append(s.undispatched[:i], s.undispatched[i+1:]...)
			break
		}
	}
	for i := range s.events[event.StreamID] {
		e := &s.events[event.StreamID][i]
		if e.CommitID == event.CommitID && e.CommitSequence == event.CommitSequence {
			e.Dispatched = true
			break
		}
	}
	return nil
}

func (s *StorageSpy) GetID(context.Context) (string, error) {
	if s.idErr != nil {
		return "", s.idErr
	}
	return s.nextID, nil
}

// Pre-built storage scenarios.

// EmptyStorage returns a StorageSpy with no events.
func EmptyStorage() *StorageSpy {
	return NewStorageSpy()
}

// StorageWithStream returns a StorageSpy pre-populated with n events on
// streamID, revisions 0..n-1.
func StorageWithStream(streamID string, n int) *StorageSpy {
	events := make([]eventstore.Event, n)
	for i := range events {
		events[i] = NewTestEvent(streamID).WithRevision(int64(i)).Build()
	}
	return NewStorageSpy().WithEvents(streamID, events...)
}

// FailingStorage returns a StorageSpy that fails every AddEvents call.
func FailingStorage(err error) *StorageSpy {
	return NewStorageSpy().FailOnAddEvents(err)
}
