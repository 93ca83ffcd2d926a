package fixtures

import (
	"context"
	"sync"

	"github.com/terraskye/eventstore"
)

// PublisherSpy is a configurable Publisher for testing the Dispatcher's
// retry and ordering behavior.
type PublisherSpy struct {
	mu sync.Mutex

	PublishFn func(ctx context.Context, event eventstore.Event) error

	// PublishCalls counts every attempt; PublishedEvents holds only the
	// events whose Publish call succeeded, in call order.
	PublishCalls    int
	PublishedEvents []eventstore.Event

	failUntilCall int
	err           error
}

// NewPublisherSpy creates a PublisherSpy that always succeeds.
func NewPublisherSpy() *PublisherSpy {
	return &PublisherSpy{}
}

// FailNTimes makes the first n Publish calls return err before
// succeeding, for exercising the Dispatcher's next-tick retry.
func (p *PublisherSpy) FailNTimes(n int, err error) *PublisherSpy {
	p.failUntilCall = n
	p.err = err
	return p
}

// AlwaysFail makes every Publish call return err.
func (p *PublisherSpy) AlwaysFail(err error) *PublisherSpy {
	p.failUntilCall = -1
	p.err = err
	return p
}

func (p *PublisherSpy) Publish(ctx context.Context, event eventstore.Event) error {
	p.mu.Lock()
	p.PublishCalls++
	call := p.PublishCalls
	fn := p.PublishFn
	shouldFail := p.failUntilCall < 0 || call <= p.failUntilCall
	err := p.err
	p.mu.Unlock()

	if fn != nil {
		err = fn(ctx, event)
	} else if !shouldFail {
		err = nil
	}
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.PublishedEvents = append(p.PublishedEvents, event)
	p.mu.Unlock()
	return nil
}
