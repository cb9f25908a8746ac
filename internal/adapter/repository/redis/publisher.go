package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/iho/erpledger/internal/domain"
)

// eventMessage is the JSON published for each outbox event.
type eventMessage struct {
	ID            string         `json:"id"`
	Type          string         `json:"type"`
	CompanyID     string         `json:"company_id"`
	AggregateType string         `json:"aggregate_type"`
	AggregateID   string         `json:"aggregate_id"`
	Payload       map[string]any `json:"payload"`
	OccurredAt    string         `json:"occurred_at"`
}

// EventPublisher publishes outbox events to a Redis pub/sub channel.
// Subscribers receive every event on channel and the company's events on
// channel + ":" + company id.
type EventPublisher struct {
	client  *redis.Client
	channel string
}

// NewEventPublisher creates a new EventPublisher.
func NewEventPublisher(client *redis.Client, channel string) *EventPublisher {
	return &EventPublisher{client: client, channel: channel}
}

// Publish sends event to the shared and the per-company channel.
func (p *EventPublisher) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	msg, err := json.Marshal(eventMessage{
		ID:            event.ID,
		Type:          event.EventType,
		CompanyID:     event.CompanyID,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       event.Payload,
		OccurredAt:    event.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	})
	if err != nil {
		return fmt.Errorf("encode event %s: %w", event.ID, err)
	}

	pipe := p.client.Pipeline()
	pipe.Publish(ctx, p.channel, msg)
	if event.CompanyID != "" {
		pipe.Publish(ctx, p.channel+":"+event.CompanyID, msg)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish event %s: %w", event.ID, err)
	}

	return nil
}
