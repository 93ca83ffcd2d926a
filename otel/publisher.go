package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/terraskye/eventstore"
)

var _ eventstore.Publisher = (*TelemetryPublisher)(nil)

// TelemetryPublisher wraps a Publisher with a span and publish
// duration/error/success metrics, mirroring TelemetryStorage.
type TelemetryPublisher struct {
	next eventstore.Publisher
}

// WithPublisherTelemetry wraps next.
func WithPublisherTelemetry(next eventstore.Publisher) eventstore.Publisher {
	return TelemetryPublisher{next: next}
}

func (t TelemetryPublisher) Publish(ctx context.Context, event eventstore.Event) error {
	ctx, span := tracer.Start(ctx, "Publisher.Publish",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			AttrStreamID.String(event.StreamID),
			AttrCommitID.String(event.CommitID),
			AttrStreamRevision.Int64(event.StreamRevision),
		),
	)
	defer span.End()

	start := time.Now()
	err := t.next.Publish(ctx, event)
	PublishDuration.Record(ctx, float64(time.Since(start).Milliseconds()))

	if err != nil {
		PublishErrors.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	EventsPublished.Add(ctx, 1, metric.WithAttributes(AttrStreamID.String(event.StreamID)))
	return nil
}
