// Package servicebus provides a Publisher backed by Azure Service Bus.
// Each event is marshaled to JSON and sent as a single message; the
// Dispatcher's at-least-once contract means the receiving side must
// tolerate duplicate deliveries.
package servicebus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"

	"github.com/terraskye/eventstore"
)

// Publisher sends events to a Service Bus queue or topic.
type Publisher struct {
	client *azservicebus.Client
	sender *azservicebus.Sender
}

var _ eventstore.Publisher = (*Publisher)(nil)

// New connects to Service Bus using connectionString and creates a
// sender for queueOrTopic.
func New(connectionString, queueOrTopic string) (*Publisher, error) {
	if connectionString == "" {
		return nil, fmt.Errorf("servicebus: connection string is empty")
	}

	client, err := azservicebus.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("servicebus: create client: %w", err)
	}

	sender, err := client.NewSender(queueOrTopic, nil)
	if err != nil {
		return nil, fmt.Errorf("servicebus: create sender: %w", err)
	}

	return &Publisher{client: client, sender: sender}, nil
}

func (p *Publisher) Publish(ctx context.Context, event eventstore.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("servicebus: marshal event for stream %q: %w", event.StreamID, err)
	}

	messageID := fmt.Sprintf("%s-%d", event.CommitID, event.CommitSequence)
	msg := &azservicebus.Message{
		Body:      body,
		MessageID: &messageID,
		ApplicationProperties: map[string]any{
			"streamID": event.StreamID,
			"commitID": event.CommitID,
		},
	}

	if err := p.sender.SendMessage(ctx, msg, nil); err != nil {
		return fmt.Errorf("servicebus: send message for stream %q: %w", event.StreamID, err)
	}
	return nil
}

// Close releases the sender and client.
func (p *Publisher) Close(ctx context.Context) error {
	if p.sender != nil {
		if err := p.sender.Close(ctx); err != nil {
			return err
		}
	}
	if p.client != nil {
		return p.client.Close(ctx)
	}
	return nil
}
