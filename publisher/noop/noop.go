// Package noop provides a Publisher that discards every event, useful
// for local development and tests that only exercise the commit path.
package noop

import (
	"context"

	"github.com/terraskye/eventstore"
)

// Publisher discards every event and always succeeds.
type Publisher struct{}

var _ eventstore.Publisher = Publisher{}

// New returns a Publisher.
func New() Publisher { return Publisher{} }

func (Publisher) Publish(context.Context, eventstore.Event) error { return nil }
