// Package notify announces committed documents as CloudEvents.
package notify

import (
	"context"
	"fmt"

	"github.com/Lllllllleong/legaldocflow/internal/models"
	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
)

const (
	EventType   = "br.adv.legaldocflow.document.processed"
	EventSource = "legaldocflow/process-document"
)

// Publisher sends document.processed events to an HTTP sink.
type Publisher struct {
	client cloudevents.Client
	target string
}

// NewPublisher creates a binary-mode HTTP CloudEvents client for target.
func NewPublisher(target string) (*Publisher, error) {
	if target == "" {
		return nil, fmt.Errorf("event sink url must be provided")
	}
	client, err := cloudevents.NewClientHTTP()
	if err != nil {
		return nil, fmt.Errorf("failed to create cloudevents client: %w", err)
	}
	return &Publisher{client: client, target: target}, nil
}

// DocumentProcessed publishes one event for a committed record.
func (p *Publisher) DocumentProcessed(ctx context.Context, e models.DocumentProcessedEvent) error {
	event := cloudevents.NewEvent()
	event.SetID(uuid.NewString())
	event.SetSource(EventSource)
	event.SetType(EventType)
	event.SetSubject(e.Slug)
	if err := event.SetData(cloudevents.ApplicationJSON, e); err != nil {
		return fmt.Errorf("failed to encode event data: %w", err)
	}

	result := p.client.Send(cloudevents.ContextWithTarget(ctx, p.target), event)
	if cloudevents.IsUndelivered(result) || !cloudevents.IsACK(result) {
		return fmt.Errorf("failed to deliver event for %s: %w", e.Slug, result)
	}
	return nil
}
