// Package events publishes domain events (orders placed, payments
// confirmed, admins promoted) for downstream consumers. Publishing is
// best-effort: the API never fails a request because an event was lost.
package events

import (
	"context"
	"time"
)

const (
	ToolCreated      = "tool.created"
	OrderCreated     = "order.created"
	OrderCancelled   = "order.cancelled"
	PaymentConfirmed = "payment.confirmed"
	UserPromoted     = "user.promoted"
)

type Event struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	Subject    string    `json:"subject"` // document id or email
	Actor      string    `json:"actor,omitempty"`
	Data       any       `json:"data,omitempty"`
}

// Publisher is safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop drops every event. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }
