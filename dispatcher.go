package eventstore

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-co-op/gocron/v2"
)

// Dispatcher drives the publish loop: it holds events that have
// been committed but not yet handed to the Publisher, and periodically
// tries to publish the oldest one first. It never reorders and never
// skips ahead of a failure, so a stuck publisher stalls the whole
// stream rather than delivering out of order.
type Dispatcher struct {
	storage   Storage
	publisher Publisher
	logger    Logger
	interval  time.Duration

	scheduler gocron.Scheduler

	mu      sync.Mutex
	pending []Event

	tickMu sync.Mutex
}

// NewDispatcher wires a Dispatcher to its collaborators. storage,
// publisher, and logger must be non-nil; Store.Start guarantees this by
// filling defaults before constructing the Dispatcher.
func NewDispatcher(storage Storage, publisher Publisher, logger Logger, interval time.Duration) *Dispatcher {
	return &Dispatcher{
		storage:   storage,
		publisher: publisher,
		logger:    logger,
		interval:  interval,
	}
}

// Start recovers any events left undispatched by a previous run (a
// crash between AddEvents and a fully-drained publish loop) and begins
// polling at the configured interval.
func (d *Dispatcher) Start(ctx context.Context) error {
	events, err := d.storage.GetUndispatchedEvents(ctx)
	if err != nil {
		return WrapBackendError("GetUndispatchedEvents", err)
	}
	if len(events) > 0 {
		d.logger.Info("eventstore: recovered undispatched events", "count", len(events))
		d.mu.Lock()
		d.pending = append(d.pending, events...)
		d.mu.Unlock()
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	if _, err := scheduler.NewJob(
		gocron.DurationJob(d.interval),
		gocron.NewTask(func() { d.tick(ctx) }),
	); err != nil {
		return err
	}

	d.scheduler = scheduler
	d.scheduler.Start()
	return nil
}

// AddUndispatchedEvents enqueues a freshly committed batch for
// publishing. It is called synchronously from Store.Commit once
// Storage.AddEvents has succeeded and before Commit returns to the
// caller; a crash before the queue drains still finds the events via
// GetUndispatchedEvents on the next Start.
func (d *Dispatcher) AddUndispatchedEvents(batch []Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = append(d.pending, batch...)
}

// tick publishes pending events in order, stopping at the first
// failure so that a later event is never delivered before an earlier
// one. Persisting the dispatched flag is retried with backoff because a
// publish that already succeeded must not be replayed on the next tick;
// the publish itself is not retried here since a failed publish will be
// retried naturally on the next tick.
func (d *Dispatcher) tick(ctx context.Context) {
	if !d.tickMu.TryLock() {
		return
	}
	defer d.tickMu.Unlock()

	for {
		d.mu.Lock()
		if len(d.pending) == 0 {
			d.mu.Unlock()
			return
		}
		next := d.pending[0]
		d.mu.Unlock()

		if err := d.publisher.Publish(WithEvent(ctx, next), next); err != nil {
			d.logger.Warn("eventstore: publish failed, will retry next tick",
				"streamID", next.StreamID, "commitID", next.CommitID, "error", err)
			return
		}

		ackErr := backoff.Retry(func() error {
			return d.storage.SetEventToDispatched(ctx, next)
		}, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3))
		if ackErr != nil {
			d.logger.Error("eventstore: publish succeeded but ack failed, event will be re-published",
				"streamID", next.StreamID, "commitID", next.CommitID, "error", ackErr)
			return
		}

		d.mu.Lock()
		d.pending = d.pending[1:]
		d.mu.Unlock()
	}
}

// Stop halts the scheduler and lets an in-flight tick finish before
// returning, so a caller can shut down without racing an ack write.
func (d *Dispatcher) Stop() error {
	if d.scheduler == nil {
		return nil
	}
	if err := d.scheduler.Shutdown(); err != nil {
		return err
	}
	d.tickMu.Lock()
	defer d.tickMu.Unlock()
	return nil
}
