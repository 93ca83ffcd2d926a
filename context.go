package eventstore

import (
	"context"
	"time"
)

type ctxKey string

const (
	streamIDKey    ctxKey = "streamID"
	commitIDKey    ctxKey = "commitID"
	revisionKey    ctxKey = "revision"
	commitStampKey ctxKey = "commitStamp"
)

// WithEvent adds the identity of a committed event to the context so
// downstream middleware (logging, otel) can pull it back out without
// threading it through every function signature.
func WithEvent(ctx context.Context, event Event) context.Context {
	ctx = context.WithValue(ctx, streamIDKey, event.StreamID)
	ctx = context.WithValue(ctx, commitIDKey, event.CommitID)
	ctx = context.WithValue(ctx, revisionKey, event.StreamRevision)
	ctx = context.WithValue(ctx, commitStampKey, event.CommitStamp)
	return ctx
}

// StreamIDFromContext returns the StreamID or "" if not present.
func StreamIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(streamIDKey).(string); ok {
		return v
	}
	return ""
}

// CommitIDFromContext returns the CommitID or "" if not present.
func CommitIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(commitIDKey).(string); ok {
		return v
	}
	return ""
}

// RevisionFromContext returns the StreamRevision or -1 if not present.
func RevisionFromContext(ctx context.Context) int64 {
	if v, ok := ctx.Value(revisionKey).(int64); ok {
		return v
	}
	return -1
}

// CommitStampFromContext returns the CommitStamp or the zero time if not
// present.
func CommitStampFromContext(ctx context.Context) time.Time {
	if v, ok := ctx.Value(commitStampKey).(time.Time); ok {
		return v
	}
	return time.Time{}
}
