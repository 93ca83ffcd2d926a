// Package log provides a Publisher that writes every event to a
// structured logger instead of an external broker, for local
// development and demos of the Dispatcher's at-least-once loop without
// standing up real infrastructure.
package log

import (
	"context"
	"log/slog"

	"github.com/terraskye/eventstore"
)

// Publisher logs every event at info level and never fails.
type Publisher struct {
	logger *slog.Logger
}

var _ eventstore.Publisher = Publisher{}

// New wraps logger. A nil logger falls back to slog.Default().
func New(logger *slog.Logger) Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return Publisher{logger: logger}
}

func (p Publisher) Publish(ctx context.Context, event eventstore.Event) error {
	p.logger.InfoContext(ctx, "event published",
		"streamID", event.StreamID,
		"commitID", event.CommitID,
		"revision", event.StreamRevision,
	)
	return nil
}
