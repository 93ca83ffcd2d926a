package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/terraskye/eventstore"
	"github.com/terraskye/eventstore/storage/memory"
)

type orderCreated struct {
	OrderID    string
	CustomerID string
}

func newEvent(streamID string, revision int64, payload any) eventstore.Event {
	return eventstore.Event{
		StreamID:       streamID,
		StreamRevision: revision,
		CommitID:       "commit-1",
		CommitSequence: 0,
		CommitStamp:    time.Now(),
		Payload:        payload,
	}
}

func TestAddEvents_Empty(t *testing.T) {
	store := memory.New()

	if err := store.AddEvents(context.Background(), nil); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestAddEvents_MixedStreamIDs(t *testing.T) {
	store := memory.New()

	events := []eventstore.Event{
		newEvent("order-1", 0, orderCreated{OrderID: "order-1"}),
		newEvent("order-2", 0, orderCreated{OrderID: "order-2"}),
	}

	if err := store.AddEvents(context.Background(), events); err == nil {
		t.Fatal("expected error for mixed stream IDs, got nil")
	}
}

func TestAddEvents_ThenGetEvents(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	events := []eventstore.Event{
		newEvent("order-1", 0, orderCreated{OrderID: "order-1", CustomerID: "cust-1"}),
		newEvent("order-1", 1, orderCreated{OrderID: "order-1", CustomerID: "cust-1"}),
	}
	if err := store.AddEvents(ctx, events); err != nil {
		t.Fatalf("AddEvents: %v", err)
	}

	got, err := store.GetEvents(ctx, "order-1", 0, -1)
	if err != nil {
		t.Fatalf("GetEvents: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].StreamRevision != 0 || got[1].StreamRevision != 1 {
		t.Errorf("unexpected revisions: %+v", got)
	}
}

func TestGetEvents_UnknownStream(t *testing.T) {
	store := memory.New()

	got, err := store.GetEvents(context.Background(), "missing", 0, -1)
	if err != nil {
		t.Fatalf("expected no error for unknown stream, got %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty slice, got %d events", len(got))
	}
}

func TestGetEvents_BoundedRange(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	events := []eventstore.Event{
		newEvent("order-1", 0, orderCreated{}),
		newEvent("order-1", 1, orderCreated{}),
		newEvent("order-1", 2, orderCreated{}),
	}
	if err := store.AddEvents(ctx, events); err != nil {
		t.Fatalf("AddEvents: %v", err)
	}

	got, err := store.GetEvents(ctx, "order-1", 1, 2)
	if err != nil {
		t.Fatalf("GetEvents: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}
	if got[0].StreamRevision != 1 {
		t.Errorf("expected revision 1, got %d", got[0].StreamRevision)
	}
}

func TestAddSnapshot_ThenGetSnapshot(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	snap := eventstore.Snapshot{ID: "snap-1", StreamID: "order-1", Revision: 5, Data: "state"}
	if err := store.AddSnapshot(ctx, snap); err != nil {
		t.Fatalf("AddSnapshot: %v", err)
	}

	got, found, err := store.GetSnapshot(ctx, "order-1", -1)
	if err != nil {
		t.Fatalf("GetSnapshot: %v", err)
	}
	if !found {
		t.Fatal("expected snapshot to be found")
	}
	if got.Revision != 5 {
		t.Errorf("expected revision 5, got %d", got.Revision)
	}
}

func TestGetSnapshot_NoneExists(t *testing.T) {
	store := memory.New()

	_, found, err := store.GetSnapshot(context.Background(), "order-1", -1)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if found {
		t.Error("expected no snapshot to be found")
	}
}

func TestGetSnapshot_BeforeMaxRevision(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	if err := store.AddSnapshot(ctx, eventstore.Snapshot{StreamID: "order-1", Revision: 2}); err != nil {
		t.Fatalf("AddSnapshot: %v", err)
	}
	if err := store.AddSnapshot(ctx, eventstore.Snapshot{StreamID: "order-1", Revision: 8}); err != nil {
		t.Fatalf("AddSnapshot: %v", err)
	}

	got, found, err := store.GetSnapshot(ctx, "order-1", 5)
	if err != nil {
		t.Fatalf("GetSnapshot: %v", err)
	}
	if !found || got.Revision != 2 {
		t.Errorf("expected snapshot at revision 2, got %+v (found=%v)", got, found)
	}
}

func TestUndispatchedEvents_MarkedAfterDispatch(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	events := []eventstore.Event{newEvent("order-1", 0, orderCreated{})}
	if err := store.AddEvents(ctx, events); err != nil {
		t.Fatalf("AddEvents: %v", err)
	}

	pending, err := store.GetUndispatchedEvents(ctx)
	if err != nil {
		t.Fatalf("GetUndispatchedEvents: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 undispatched event, got %d", len(pending))
	}

	if err := store.SetEventToDispatched(ctx, pending[0]); err != nil {
		t.Fatalf("SetEventToDispatched: %v", err)
	}

	pending, err = store.GetUndispatchedEvents(ctx)
	if err != nil {
		t.Fatalf("GetUndispatchedEvents: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("expected no undispatched events left, got %d", len(pending))
	}

	all, err := store.GetEvents(ctx, "order-1", 0, -1)
	if err != nil {
		t.Fatalf("GetEvents: %v", err)
	}
	if !all[0].Dispatched {
		t.Error("expected event to be marked dispatched in the stream log")
	}
}

func TestGetID_ReturnsUniqueValues(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	a, err := store.GetID(ctx)
	if err != nil {
		t.Fatalf("GetID: %v", err)
	}
	b, err := store.GetID(ctx)
	if err != nil {
		t.Fatalf("GetID: %v", err)
	}
	if a == b {
		t.Error("expected distinct IDs across calls")
	}
}
