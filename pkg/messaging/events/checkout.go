// Package events holds the payloads published by the storefront.
package events

import (
	"encoding/json"
	"time"

	"github.com/abgdnv/storefront/pkg/messaging"
)

// Checkout sources.
const (
	SourceCart   = "cart"
	SourceBuyNow = "buy-now"
)

// CheckoutCompletedEvent is emitted once the Remote Commerce API accepted an order.
// Carrier holds the propagated trace context of the request that placed the order.
type CheckoutCompletedEvent struct {
	Carrier     map[string]string `json:"carrier,omitempty"`
	UserID      string            `json:"user_id"`
	Source      string            `json:"source"`
	ItemCount   int               `json:"item_count"`
	Subtotal    int64             `json:"subtotal"`
	CompletedAt time.Time         `json:"completed_at"`
}

func (e CheckoutCompletedEvent) Subject() string {
	return messaging.CheckoutCompletedSubject
}

func (e CheckoutCompletedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}
