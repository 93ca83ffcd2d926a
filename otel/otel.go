package otel

import (
	"github.com/terraskye/eventstore"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName = "github.com/terraskye/eventstore"
)

// Semantic attribute keys following OpenTelemetry conventions.
const (
	AttrStreamID       = attribute.Key("eventstore.stream.id")
	AttrCommitID       = attribute.Key("eventstore.commit.id")
	AttrStreamRevision = attribute.Key("eventstore.stream.revision")

	AttrEventCount = attribute.Key("eventstore.events.count")

	AttrOperation    = attribute.Key("eventstore.operation")
	AttrConflictType = attribute.Key("eventstore.conflict.type")

	AttrErrorType  = attribute.Key("eventstore.error.type")
	AttrRetryCount = attribute.Key("eventstore.retry.count")
	AttrQueueDepth = attribute.Key("eventstore.dispatcher.queue_depth")
)

var (
	meter  = otel.Meter(instrumentationName, metric.WithInstrumentationVersion(eventstore.InstrumentationVersion))
	tracer = otel.Tracer(instrumentationName, trace.WithInstrumentationVersion(eventstore.InstrumentationVersion))

	StorageOperations, _ = meter.Int64Counter(
		"eventstore.storage.operations",
		metric.WithDescription("Number of Storage operations, by outcome"),
		metric.WithUnit("{operation}"),
	)

	StorageDuration, _ = meter.Float64Histogram(
		"eventstore.storage.duration",
		metric.WithDescription("Storage operation duration"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000),
	)

	StorageErrors, _ = meter.Int64Counter(
		"eventstore.storage.errors",
		metric.WithDescription("Number of Storage operation errors"),
		metric.WithUnit("{error}"),
	)

	EventsAppended, _ = meter.Int64Counter(
		"eventstore.events.appended",
		metric.WithDescription("Number of events appended to streams"),
		metric.WithUnit("{event}"),
	)

	EventsPublished, _ = meter.Int64Counter(
		"eventstore.events.published",
		metric.WithDescription("Number of events successfully published"),
		metric.WithUnit("{event}"),
	)

	PublishErrors, _ = meter.Int64Counter(
		"eventstore.publish.errors",
		metric.WithDescription("Number of publish attempts that failed"),
		metric.WithUnit("{error}"),
	)

	PublishDuration, _ = meter.Float64Histogram(
		"eventstore.publish.duration",
		metric.WithDescription("Publish call duration"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000),
	)

	ConcurrencyConflicts, _ = meter.Int64Counter(
		"eventstore.concurrency.conflicts",
		metric.WithDescription("Number of RevisionConflictError occurrences on Commit"),
		metric.WithUnit("{conflict}"),
	)

	DispatcherQueueDepth, _ = meter.Int64UpDownCounter(
		"eventstore.dispatcher.queue_depth",
		metric.WithDescription("Current number of undispatched events held by the Dispatcher"),
		metric.WithUnit("{event}"),
	)
)
