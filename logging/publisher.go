// Package logging supplies ambient logging collaborators: a Publisher
// decorator that logs every publish attempt, and a zerolog-backed
// eventstore.Logger for callers who want structured, leveled output
// richer than the built-in console logger.
package logging

import (
	"context"
	"log/slog"

	"github.com/terraskye/eventstore"
)

// WithMiddleware wraps next so every Publish call is logged with the
// event's stream identity pulled from context.
func WithMiddleware(logger *slog.Logger, next eventstore.Publisher) eventstore.Publisher {
	return eventstore.PublisherFunc(func(ctx context.Context, event eventstore.Event) error {
		l := logger.With(
			"stream-id", eventstore.StreamIDFromContext(ctx),
			"commit-id", eventstore.CommitIDFromContext(ctx),
			"revision", eventstore.RevisionFromContext(ctx),
		)

		l.DebugContext(ctx, "publish started")

		err := next.Publish(ctx, event)
		if err != nil {
			l.ErrorContext(ctx, "publish failed", "error", err)
		} else {
			l.DebugContext(ctx, "publish succeeded")
		}

		return err
	})
}
