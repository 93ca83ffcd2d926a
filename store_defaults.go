package eventstore

import (
	"context"
	"log/slog"
	"os"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// defaultStorage is Store.Start's fallback in-memory Storage, used when
// no Storage is bound via Use before Start runs. It is an in-memory
// backend like storage/memory, duplicated here rather than imported:
// storage/memory imports this package to implement Storage, so
// importing it back would be a cycle. Two reads differ from
// storage/memory: GetEvents slices by position in the stream's log
// rather than filtering on StreamRevision, and GetEventRange stops
// collecting streams once index+amount events are gathered and sorts
// only those. Callers who want the same
// backend as an explicit, independently importable dependency (for
// tests, or to Use it alongside other capabilities) should import
// storage/memory directly instead of relying on this zero-config
// fallback.
type defaultStorage struct {
	mu           sync.RWMutex
	events       map[string][]Event
	snapshots    map[string][]Snapshot
	undispatched []Event
}

func newDefaultStorage() *defaultStorage {
	return &defaultStorage{
		events:    make(map[string][]Event),
		snapshots: make(map[string][]Snapshot),
	}
}

func (d *defaultStorage) AddEvents(_ context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}
	streamID := events[0].StreamID
	for _, e := range events {
		if e.StreamID != streamID {
			return ErrInvalidEventBatch
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.events[streamID] = append(d.events[streamID], events...)
	d.undispatched = append(d.undispatched, events...)
	return nil
}

func (d *defaultStorage) AddSnapshot(_ context.Context, snapshot Snapshot) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.snapshots[snapshot.StreamID] = append(d.snapshots[snapshot.StreamID], snapshot)
	return nil
}

func (d *defaultStorage) GetEvents(_ context.Context, streamID string, minRev, maxRev int64) ([]Event, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	all := d.events[streamID]
	if maxRev == -1 || maxRev > int64(len(all)) {
		maxRev = int64(len(all))
	}
	if minRev < 0 {
		minRev = 0
	}
	if minRev >= maxRev {
		return nil, nil
	}

	out := make([]Event, maxRev-minRev)
	copy(out, all[minRev:maxRev])
	return out, nil
}

func (d *defaultStorage) GetAllEvents(_ context.Context) ([]Event, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []Event
	for _, events := range d.events {
		out = append(out, events...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CommitStamp.Before(out[j].CommitStamp) })
	return out, nil
}

func (d *defaultStorage) GetEventRange(_ context.Context, index, amount int) ([]Event, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var all []Event
	for _, events := range d.events {
		all = append(all, events...)
		if len(all) >= index+amount {
			break
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CommitStamp.Before(all[j].CommitStamp) })

	if index >= len(all) {
		return nil, nil
	}
	end := index + amount
	if end > len(all) {
		end = len(all)
	}
	out := make([]Event, end-index)
	copy(out, all[index:end])
	return out, nil
}

func (d *defaultStorage) GetSnapshot(_ context.Context, streamID string, maxRev int64) (Snapshot, bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	snapshots := d.snapshots[streamID]
	if len(snapshots) == 0 {
		return NoSnapshot, false, nil
	}
	if maxRev == -1 {
		return snapshots[len(snapshots)-1], true, nil
	}

	best, found := NoSnapshot, false
	for _, snap := range snapshots {
		if snap.Revision <= maxRev {
			best, found = snap, true
		}
	}
	return best, found, nil
}

func (d *defaultStorage) GetUndispatchedEvents(_ context.Context) ([]Event, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]Event, len(d.undispatched))
	copy(out, d.undispatched)
	return out, nil
}

func (d *defaultStorage) SetEventToDispatched(_ context.Context, event Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i := range d.undispatched {
		e := &d.undispatched[i]
		if e.CommitID == event.CommitID && e.CommitSequence == event.CommitSequence {
			d.undispatched = append(d.undispatched[:i], d.undispatched[i+1:]...)
			break
		}
	}
	for i := range d.events[event.StreamID] {
		e := &d.events[event.StreamID][i]
		if e.CommitID == event.CommitID && e.CommitSequence == event.CommitSequence {
			e.Dispatched = true
			break
		}
	}
	return nil
}

func (d *defaultStorage) GetID(context.Context) (string, error) {
	return uuid.NewString(), nil
}

// consoleLogger is Store.Start's fallback when the WithConsoleLogger
// option is set and no Logger was already bound via Use.
type consoleLogger struct {
	l *slog.Logger
}

func newConsoleLogger() *consoleLogger {
	return &consoleLogger{l: slog.New(slog.NewTextHandler(os.Stderr, nil))}
}

func (c *consoleLogger) Info(msg string, args ...any)  { c.l.Info(msg, args...) }
func (c *consoleLogger) Debug(msg string, args ...any) { c.l.Debug(msg, args...) }
func (c *consoleLogger) Warn(msg string, args ...any)  { c.l.Warn(msg, args...) }
func (c *consoleLogger) Error(msg string, args ...any) { c.l.Error(msg, args...) }
