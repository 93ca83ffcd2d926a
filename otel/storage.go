package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/terraskye/eventstore"
)

var _ eventstore.Storage = (*TelemetryStorage)(nil)

// TelemetryStorage wraps a Storage with a span and a set of
// operation/duration/error metrics for every call, the decorator
// pattern used for wrapping a Storage with spans and metrics.
type TelemetryStorage struct {
	next eventstore.Storage
}

// WithStorageTelemetry wraps next.
func WithStorageTelemetry(next eventstore.Storage) eventstore.Storage {
	return TelemetryStorage{next: next}
}

func (t TelemetryStorage) AddEvents(ctx context.Context, events []eventstore.Event) error {
	var streamID string
	if len(events) > 0 {
		streamID = events[0].StreamID
	}

	ctx, span := tracer.Start(ctx, "Storage.AddEvents",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			AttrOperation.String("add_events"),
			AttrStreamID.String(streamID),
			AttrEventCount.Int(len(events)),
		),
	)
	defer span.End()

	start := time.Now()
	err := t.next.AddEvents(ctx, events)
	t.record(ctx, span, "add_events", start, err)
	if err == nil {
		EventsAppended.Add(ctx, int64(len(events)))
		DispatcherQueueDepth.Add(ctx, int64(len(events)))
	} else if conflict, ok := asConflict(err); ok {
		_ = conflict
		ConcurrencyConflicts.Add(ctx, 1, metric.WithAttributes(AttrStreamID.String(streamID)))
	}
	return err
}

func (t TelemetryStorage) AddSnapshot(ctx context.Context, snapshot eventstore.Snapshot) error {
	ctx, span := tracer.Start(ctx, "Storage.AddSnapshot",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(AttrOperation.String("add_snapshot"), AttrStreamID.String(snapshot.StreamID)),
	)
	defer span.End()

	start := time.Now()
	err := t.next.AddSnapshot(ctx, snapshot)
	t.record(ctx, span, "add_snapshot", start, err)
	return err
}

func (t TelemetryStorage) GetEvents(ctx context.Context, streamID string, minRev, maxRev int64) ([]eventstore.Event, error) {
	ctx, span := tracer.Start(ctx, "Storage.GetEvents",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(AttrOperation.String("get_events"), AttrStreamID.String(streamID)),
	)
	defer span.End()

	start := time.Now()
	events, err := t.next.GetEvents(ctx, streamID, minRev, maxRev)
	t.record(ctx, span, "get_events", start, err)
	return events, err
}

func (t TelemetryStorage) GetAllEvents(ctx context.Context) ([]eventstore.Event, error) {
	ctx, span := tracer.Start(ctx, "Storage.GetAllEvents", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	start := time.Now()
	events, err := t.next.GetAllEvents(ctx)
	t.record(ctx, span, "get_all_events", start, err)
	return events, err
}

func (t TelemetryStorage) GetEventRange(ctx context.Context, index, amount int) ([]eventstore.Event, error) {
	ctx, span := tracer.Start(ctx, "Storage.GetEventRange", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	start := time.Now()
	events, err := t.next.GetEventRange(ctx, index, amount)
	t.record(ctx, span, "get_event_range", start, err)
	return events, err
}

func (t TelemetryStorage) GetSnapshot(ctx context.Context, streamID string, maxRev int64) (eventstore.Snapshot, bool, error) {
	ctx, span := tracer.Start(ctx, "Storage.GetSnapshot",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(AttrOperation.String("get_snapshot"), AttrStreamID.String(streamID)),
	)
	defer span.End()

	start := time.Now()
	snapshot, found, err := t.next.GetSnapshot(ctx, streamID, maxRev)
	t.record(ctx, span, "get_snapshot", start, err)
	return snapshot, found, err
}

func (t TelemetryStorage) GetUndispatchedEvents(ctx context.Context) ([]eventstore.Event, error) {
	ctx, span := tracer.Start(ctx, "Storage.GetUndispatchedEvents", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	start := time.Now()
	events, err := t.next.GetUndispatchedEvents(ctx)
	t.record(ctx, span, "get_undispatched_events", start, err)
	if err == nil {
		DispatcherQueueDepth.Add(ctx, int64(len(events)))
	}
	return events, err
}

func (t TelemetryStorage) SetEventToDispatched(ctx context.Context, event eventstore.Event) error {
	ctx, span := tracer.Start(ctx, "Storage.SetEventToDispatched",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(AttrStreamID.String(event.StreamID), AttrCommitID.String(event.CommitID)),
	)
	defer span.End()

	start := time.Now()
	err := t.next.SetEventToDispatched(ctx, event)
	t.record(ctx, span, "set_event_to_dispatched", start, err)
	if err == nil {
		DispatcherQueueDepth.Add(ctx, -1)
	}
	return err
}

func (t TelemetryStorage) GetID(ctx context.Context) (string, error) {
	ctx, span := tracer.Start(ctx, "Storage.GetID", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	start := time.Now()
	id, err := t.next.GetID(ctx)
	t.record(ctx, span, "get_id", start, err)
	return id, err
}

func (t TelemetryStorage) record(ctx context.Context, span trace.Span, op string, start time.Time, err error) {
	StorageDuration.Record(ctx, float64(time.Since(start).Milliseconds()), metric.WithAttributes(AttrOperation.String(op)))
	StorageOperations.Add(ctx, 1, metric.WithAttributes(AttrOperation.String(op)))
	if err != nil {
		StorageErrors.Add(ctx, 1, metric.WithAttributes(AttrOperation.String(op)))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// asConflict walks err's Unwrap chain looking for a
// *eventstore.RevisionConflictError, since errors.As requires a
// pointer-to-pointer target this package doesn't otherwise need.
func asConflict(err error) (*eventstore.RevisionConflictError, bool) {
	for err != nil {
		if c, ok := err.(*eventstore.RevisionConflictError); ok {
			return c, true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = unwrapper.Unwrap()
	}
	return nil, false
}
