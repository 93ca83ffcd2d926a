package eventstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/terraskye/eventstore"
	"github.com/terraskye/eventstore/fixtures"
)

func TestDispatcher_PublishesInOrderAndStopsOnFailure(t *testing.T) {
	storage := fixtures.EmptyStorage()
	if err := storage.AddEvents(context.Background(), fixtures.NewTestEvent("order-1").BuildN(3)); err != nil {
		t.Fatalf("seed AddEvents: %v", err)
	}

	publisher := fixtures.NewPublisherSpy().FailNTimes(1, errors.New("boom"))
	logger := fixtures.NewLoggerSpy()

	dispatcher := eventstore.NewDispatcher(storage, publisher, logger, 10*time.Millisecond)
	if err := dispatcher.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer dispatcher.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && publisher.PublishCalls < 3 {
		time.Sleep(20 * time.Millisecond)
	}

	if publisher.PublishCalls < 3 {
		t.Fatalf("expected at least 3 publish attempts (1 failure + 2 successes), got %d", publisher.PublishCalls)
	}

	for i, e := range publisher.PublishedEvents {
		if e.CommitSequence != i {
			t.Errorf("expected events published in order, event %d has CommitSequence %d", i, e.CommitSequence)
			break
		}
	}
}

func TestDispatcher_RecoversUndispatchedEventsOnStart(t *testing.T) {
	storage := fixtures.EmptyStorage()
	if err := storage.AddEvents(context.Background(), fixtures.NewTestEvent("order-1").BuildN(1)); err != nil {
		t.Fatalf("seed AddEvents: %v", err)
	}

	publisher := fixtures.NewPublisherSpy()
	logger := fixtures.NewLoggerSpy()

	dispatcher := eventstore.NewDispatcher(storage, publisher, logger, 10*time.Millisecond)
	if err := dispatcher.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer dispatcher.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && publisher.PublishCalls < 1 {
		time.Sleep(20 * time.Millisecond)
	}

	if publisher.PublishCalls < 1 {
		t.Fatal("expected the recovered event to be published")
	}
	if !logger.HasMessage("info", "eventstore: recovered undispatched events") {
		t.Error("expected recovery to be logged")
	}
}
