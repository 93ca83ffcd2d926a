package eventstore_test

import (
	"testing"

	"github.com/terraskye/eventstore"
)

func TestEventStream_CurrentRevision_EmptyStream(t *testing.T) {
	stream := eventstore.NewEventStream("order-1", nil)
	if got := stream.CurrentRevision(); got != -1 {
		t.Errorf("expected -1, got %d", got)
	}
}

func TestEventStream_AddEvent_QueuesUncommitted(t *testing.T) {
	stream := eventstore.NewEventStream("order-1", nil)
	stream.AddEvent("payload-1")
	stream.AddEvent("payload-2", eventstore.WithHeader(map[string]any{"eventType": "Test"}))

	if len(stream.UncommittedEvents) != 2 {
		t.Fatalf("expected 2 uncommitted events, got %d", len(stream.UncommittedEvents))
	}
	if stream.UncommittedEvents[1].Header["eventType"] != "Test" {
		t.Errorf("expected header to be set on second event")
	}
	for _, e := range stream.UncommittedEvents {
		if e.StreamID != "order-1" {
			t.Errorf("expected StreamID %q, got %q", "order-1", e.StreamID)
		}
	}
}
