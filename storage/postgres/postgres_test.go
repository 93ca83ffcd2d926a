package postgres

import (
	"encoding/json"
	"testing"

	"github.com/terraskye/eventstore"
)

type orderPlaced struct {
	OrderID string `json:"orderId"`
}

func TestHeaderColumn_ValueRoundTripsThroughScan(t *testing.T) {
	h := headerColumn{"eventType": "OrderPlaced", "actor": "user-1"}

	value, err := h.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	raw, ok := value.([]byte)
	if !ok {
		s, ok := value.(string)
		if !ok {
			t.Fatalf("expected []byte or string, got %T", value)
		}
		raw = []byte(s)
	}

	var scanned headerColumn
	if err := scanned.Scan(raw); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if scanned["eventType"] != "OrderPlaced" || scanned["actor"] != "user-1" {
		t.Errorf("header did not round trip: %+v", scanned)
	}
}

func TestHeaderColumn_ValueOnNilYieldsEmptyObject(t *testing.T) {
	var h headerColumn
	value, err := h.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if value != "{}" {
		t.Errorf("expected empty object literal, got %v", value)
	}
}

func TestHeaderColumn_ScanNilYieldsEmptyMap(t *testing.T) {
	h := headerColumn{"stale": "value"}
	if err := h.Scan(nil); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(h) != 0 {
		t.Errorf("expected empty map after scanning nil, got %+v", h)
	}
}

func TestHeaderColumn_ScanRejectsUnsupportedType(t *testing.T) {
	var h headerColumn
	if err := h.Scan(42); err == nil {
		t.Fatal("expected error scanning non-[]byte source")
	}
}

func TestDecodeRows_ReconstructsRegisteredPayload(t *testing.T) {
	registry := eventstore.NewPayloadRegistry()
	registry.Register("OrderPlaced", func() any { return &orderPlaced{} })
	store := &Store{registry: registry}

	payload, err := json.Marshal(orderPlaced{OrderID: "o-1"})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	rows := []eventRow{{
		StreamID:       "order-1",
		StreamRevision: 1,
		CommitID:       "commit-1",
		EventType:      "OrderPlaced",
		Header:         headerColumn{"eventType": "OrderPlaced"},
		Payload:        payload,
	}}

	events, err := store.decodeRows(rows)
	if err != nil {
		t.Fatalf("decodeRows: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	decoded, ok := events[0].Payload.(*orderPlaced)
	if !ok {
		t.Fatalf("expected *orderPlaced, got %T", events[0].Payload)
	}
	if decoded.OrderID != "o-1" {
		t.Errorf("expected OrderID o-1, got %q", decoded.OrderID)
	}
	if events[0].StreamID != "order-1" || events[0].CommitID != "commit-1" {
		t.Errorf("identity fields did not round trip: %+v", events[0])
	}
}

func TestDecodeRows_UnknownEventTypeFails(t *testing.T) {
	registry := eventstore.NewPayloadRegistry()
	store := &Store{registry: registry}

	rows := []eventRow{{StreamID: "order-1", EventType: "Missing", Payload: json.RawMessage("{}")}}
	if _, err := store.decodeRows(rows); err == nil {
		t.Fatal("expected error decoding unregistered event type")
	}
}
