package eventstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/terraskye/eventstore"
)

func TestWithEvent_RoundTripsThroughAccessors(t *testing.T) {
	stamp := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	event := eventstore.Event{
		StreamID:       "order-1",
		CommitID:       "commit-1",
		StreamRevision: 7,
		CommitStamp:    stamp,
	}

	ctx := eventstore.WithEvent(context.Background(), event)

	if got := eventstore.StreamIDFromContext(ctx); got != "order-1" {
		t.Errorf("StreamIDFromContext = %q, want %q", got, "order-1")
	}
	if got := eventstore.CommitIDFromContext(ctx); got != "commit-1" {
		t.Errorf("CommitIDFromContext = %q, want %q", got, "commit-1")
	}
	if got := eventstore.RevisionFromContext(ctx); got != 7 {
		t.Errorf("RevisionFromContext = %d, want 7", got)
	}
	if got := eventstore.CommitStampFromContext(ctx); !got.Equal(stamp) {
		t.Errorf("CommitStampFromContext = %v, want %v", got, stamp)
	}
}

func TestAccessors_DefaultOnEmptyContext(t *testing.T) {
	ctx := context.Background()

	if got := eventstore.StreamIDFromContext(ctx); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
	if got := eventstore.RevisionFromContext(ctx); got != -1 {
		t.Errorf("expected -1, got %d", got)
	}
	if got := eventstore.CommitStampFromContext(ctx); !got.IsZero() {
		t.Errorf("expected zero time, got %v", got)
	}
}
