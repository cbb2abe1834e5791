// Package events publishes domain events to a message broker after commit.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	TopicOrders   = "orders"
	TopicProducts = "products"
)

const (
	OrderCreated       = "order_created"
	OrderStatusChanged = "order_status_changed"
	ProductCreated     = "product_created"
	ProductUpdated     = "product_updated"
	ProductDeleted     = "product_deleted"
)

type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Key        string    `json:"key"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

func New(typ, key string, payload any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       typ,
		Key:        key,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

type Publisher interface {
	Publish(ctx context.Context, topic string, ev Event) error
	Close() error
}

// Noop drops every event. It is used when EVENTS_DRIVER=none.
type Noop struct{}

func (Noop) Publish(context.Context, string, Event) error { return nil }
func (Noop) Close() error                                 { return nil }
