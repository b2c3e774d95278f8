// Package messaging defines the event contract shared by publishers and their callers.
package messaging

import (
	"context"
)

// CheckoutCompletedSubject is published after an order was created from the storefront.
const CheckoutCompletedSubject = "storefront.checkout.completed"

type Event interface {
	Subject() string
	Payload() ([]byte, error)
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NoopPublisher drops every event. It is used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
