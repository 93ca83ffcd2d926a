// Package memory provides a Storage backend that keeps every stream,
// snapshot, and undispatched-event index in process memory. It has no
// durability across restarts and exists as the reference implementation
// of the Storage contract and as a fixture for tests that exercise a
// Store end to end.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/terraskye/eventstore"
)

// Store is a Storage implementation. The zero value is not usable; use
// New.
type Store struct {
	mu           sync.RWMutex
	events       map[string][]eventstore.Event
	snapshots    map[string][]eventstore.Snapshot
	undispatched []eventstore.Event
}

var _ eventstore.Storage = (*Store)(nil)

// New creates an empty Store.
func New() *Store {
	return &Store{
		events:    make(map[string][]eventstore.Event),
		snapshots: make(map[string][]eventstore.Snapshot),
	}
}

func (s *Store) AddEvents(_ context.Context, events []eventstore.Event) error {
	if len(events) == 0 {
		return nil
	}

	streamID := events[0].StreamID
	for _, e := range events {
		if e.StreamID != streamID {
			return eventstore.ErrInvalidEventBatch
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[streamID] = append(s.events[streamID], events...)
	s.undispatched = append(s.undispatched, events...)
	return nil
}

func (s *Store) AddSnapshot(_ context.Context, snapshot eventstore.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snapshot.StreamID] = append(s.snapshots[snapshot.StreamID], snapshot)
	return nil
}

func (s *Store) GetEvents(_ context.Context, streamID string, minRev, maxRev int64) ([]eventstore.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if minRev < 0 {
		minRev = 0
	}

	var out []eventstore.Event
	for _, e := range s.events[streamID] {
		if e.StreamRevision < minRev {
			continue
		}
		if maxRev != -1 && e.StreamRevision >= maxRev {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *Store) GetAllEvents(_ context.Context) ([]eventstore.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []eventstore.Event
	for _, events := range s.events {
		out = append(out, events...)
	}
	sortByCommitStamp(out)
	return out, nil
}

func (s *Store) GetEventRange(_ context.Context, index, amount int) ([]eventstore.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var all []eventstore.Event
	for _, events := range s.events {
		all = append(all, events...)
	}
	sortByCommitStamp(all)

	if index < 0 || index >= len(all) {
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

func (s *Store) GetSnapshot(_ context.Context, streamID string, maxRev int64) (eventstore.Snapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

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

func (s *Store) GetUndispatchedEvents(_ context.Context) ([]eventstore.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]eventstore.Event, len(s.undispatched))
	copy(out, s.undispatched)
	return out, nil
}

func (s *Store) SetEventToDispatched(_ context.Context, event eventstore.Event) error {
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

func (s *Store) GetID(context.Context) (string, error) {
	return uuid.NewString(), nil
}

func sortByCommitStamp(events []eventstore.Event) {
	sort.Slice(events, func(i, j int) bool { return events[i].CommitStamp.Before(events[j].CommitStamp) })
}
