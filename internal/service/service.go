// Package service implements the storefront pages' data flow on top of the Remote Commerce API.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/abgdnv/storefront/internal/commerce"
	"github.com/abgdnv/storefront/internal/inflight"
	"github.com/abgdnv/storefront/pkg/messaging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// CommerceAPI is the subset of the Remote Commerce API the storefront uses.
type CommerceAPI interface {
	Login(ctx context.Context, req commerce.LoginRequest) (commerce.UserID, error)
	Products(ctx context.Context) ([]commerce.Product, error)
	Product(ctx context.Context, id int64) (*commerce.Product, error)
	ProductsByCategory(ctx context.Context, categoryID int64) ([]commerce.Product, error)
	Categories(ctx context.Context) ([]commerce.Category, error)
	CartItems(ctx context.Context, userID commerce.UserID) ([]commerce.CartItem, error)
	AddToCart(ctx context.Context, req commerce.AddToCartRequest) error
	UpdateCartItem(ctx context.Context, itemID int64, quantity int) error
	RemoveCartItem(ctx context.Context, itemID int64) error
	CreateOrder(ctx context.Context, req commerce.CreateOrderRequest) error
	Orders(ctx context.Context, userID commerce.UserID) ([]commerce.Order, error)
}

// StorefrontService is what the page handlers need.
type StorefrontService interface {
	// Login exchanges credentials for a user identifier.
	Login(ctx context.Context, username, password string) (commerce.UserID, error)

	// Home returns the featured products and the category list. On a partial
	// failure the lists that did load are returned along with the error.
	Home(ctx context.Context) (Home, error)
	Category(ctx context.Context, categoryID int64) ([]commerce.Product, error)
	Product(ctx context.Context, productID int64) (*commerce.Product, error)

	// Cart returns a fresh snapshot of the user's cart.
	Cart(ctx context.Context, userID commerce.UserID) (Cart, error)
	// AddToCart refuses out-of-stock products and out-of-range quantities without
	// issuing the creation request.
	AddToCart(ctx context.Context, userID commerce.UserID, productID int64, quantity int) error
	// UpdateQuantity and RemoveItem return the cart reloaded after the mutation.
	UpdateQuantity(ctx context.Context, userID commerce.UserID, itemID int64, quantity int) (Cart, error)
	RemoveItem(ctx context.Context, userID commerce.UserID, itemID int64) (Cart, error)

	// Checkout places an order for the current cart. An empty cart is refused
	// with ErrEmptyCart and nothing is sent.
	Checkout(ctx context.Context, userID commerce.UserID) error
	// BuyNow adds a single product to the cart and places the order right away.
	BuyNow(ctx context.Context, userID commerce.UserID, productID int64, quantity int) error
	// InFlight reports whether action is currently running for the user.
	InFlight(userID commerce.UserID, action inflight.Action) bool

	Orders(ctx context.Context, userID commerce.UserID) ([]commerce.Order, error)
}

var (
	_ CommerceAPI       = (*commerce.Client)(nil)
	_ StorefrontService = (*Service)(nil)
)

// Service implements StorefrontService.
type Service struct {
	api          CommerceAPI
	guard        *inflight.Guard
	publisher    messaging.Publisher
	shipping     commerce.ShippingDetails
	logger       *slog.Logger
	ordersPlaced metric.Int64Counter
}

// NewService creates a Service. shipping is sent with every order.
func NewService(api CommerceAPI, guard *inflight.Guard, publisher messaging.Publisher, shipping commerce.ShippingDetails, logger *slog.Logger) *Service {
	meter := otel.Meter("storefront")
	ordersPlaced, err := meter.Int64Counter("storefront_orders_placed", metric.WithDescription("Total number of orders placed through the storefront"))
	if err != nil {
		panic(fmt.Sprintf("failed to create storefront_orders_placed counter: %v", err))
	}
	if publisher == nil {
		publisher = messaging.NoopPublisher{}
	}
	return &Service{
		api:          api,
		guard:        guard,
		publisher:    publisher,
		shipping:     shipping,
		logger:       logger.With("component", "service"),
		ordersPlaced: ordersPlaced,
	}
}

func (s *Service) Login(ctx context.Context, username, password string) (commerce.UserID, error) {
	return s.api.Login(ctx, commerce.LoginRequest{Username: username, Password: password})
}

func (s *Service) Orders(ctx context.Context, userID commerce.UserID) ([]commerce.Order, error) {
	return s.api.Orders(ctx, userID)
}

func (s *Service) InFlight(userID commerce.UserID, action inflight.Action) bool {
	return s.guard.Active(userID.String(), action)
}
