package service

import (
	"context"
	"fmt"
	"time"

	"github.com/abgdnv/storefront/internal/commerce"
	storeerrors "github.com/abgdnv/storefront/internal/errors"
	"github.com/abgdnv/storefront/internal/inflight"
	"github.com/abgdnv/storefront/pkg/messaging/events"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

func (s *Service) Checkout(ctx context.Context, userID commerce.UserID) error {
	release, ok := s.guard.Acquire(userID.String(), inflight.Checkout)
	if !ok {
		return storeerrors.ErrActionInFlight
	}
	defer release()

	cart, err := s.Cart(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load cart: %w", err)
	}
	if cart.IsEmpty() {
		return storeerrors.ErrEmptyCart
	}
	if err := s.placeOrder(ctx, userID); err != nil {
		return err
	}
	s.orderPlaced(ctx, userID, events.SourceCart, cart.ItemCount(), cart.Subtotal())
	return nil
}

func (s *Service) BuyNow(ctx context.Context, userID commerce.UserID, productID int64, quantity int) error {
	release, ok := s.guard.Acquire(userID.String(), inflight.BuyNow)
	if !ok {
		return storeerrors.ErrActionInFlight
	}
	defer release()

	product, err := s.addToCart(ctx, userID, productID, quantity)
	if err != nil {
		return err
	}
	if err := s.placeOrder(ctx, userID); err != nil {
		return err
	}
	s.orderPlaced(ctx, userID, events.SourceBuyNow, quantity, product.Price*int64(quantity))
	return nil
}

func (s *Service) placeOrder(ctx context.Context, userID commerce.UserID) error {
	err := s.api.CreateOrder(ctx, commerce.CreateOrderRequest{UserID: userID, ShippingDetails: s.shipping})
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// orderPlaced records a successful order. Publishing failures are logged only.
func (s *Service) orderPlaced(ctx context.Context, userID commerce.UserID, source string, itemCount int, subtotal int64) {
	carrier := make(propagation.MapCarrier)
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	event := events.CheckoutCompletedEvent{
		Carrier:     carrier,
		UserID:      userID.String(),
		Source:      source,
		ItemCount:   itemCount,
		Subtotal:    subtotal,
		CompletedAt: time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish CheckoutCompletedEvent", "error", err)
	}
	s.ordersPlaced.Add(ctx, 1)
}
