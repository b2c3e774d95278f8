package rest

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/abgdnv/storefront/internal/commerce"
	"github.com/abgdnv/storefront/internal/inflight"
	"github.com/abgdnv/storefront/internal/service"
	"github.com/abgdnv/storefront/internal/session"
	"github.com/stretchr/testify/mock"
)

// MockStorefrontService is a testify mock of service.StorefrontService.
type MockStorefrontService struct {
	mock.Mock
}

func (m *MockStorefrontService) Login(ctx context.Context, username, password string) (commerce.UserID, error) {
	args := m.Called(ctx, username, password)
	return args.Get(0).(commerce.UserID), args.Error(1)
}

func (m *MockStorefrontService) Home(ctx context.Context) (service.Home, error) {
	args := m.Called(ctx)
	return args.Get(0).(service.Home), args.Error(1)
}

func (m *MockStorefrontService) Category(ctx context.Context, categoryID int64) ([]commerce.Product, error) {
	args := m.Called(ctx, categoryID)
	products, _ := args.Get(0).([]commerce.Product)
	return products, args.Error(1)
}

func (m *MockStorefrontService) Product(ctx context.Context, productID int64) (*commerce.Product, error) {
	args := m.Called(ctx, productID)
	product, _ := args.Get(0).(*commerce.Product)
	return product, args.Error(1)
}

func (m *MockStorefrontService) Cart(ctx context.Context, userID commerce.UserID) (service.Cart, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(service.Cart), args.Error(1)
}

func (m *MockStorefrontService) AddToCart(ctx context.Context, userID commerce.UserID, productID int64, quantity int) error {
	return m.Called(ctx, userID, productID, quantity).Error(0)
}

func (m *MockStorefrontService) UpdateQuantity(ctx context.Context, userID commerce.UserID, itemID int64, quantity int) (service.Cart, error) {
	args := m.Called(ctx, userID, itemID, quantity)
	return args.Get(0).(service.Cart), args.Error(1)
}

func (m *MockStorefrontService) RemoveItem(ctx context.Context, userID commerce.UserID, itemID int64) (service.Cart, error) {
	args := m.Called(ctx, userID, itemID)
	return args.Get(0).(service.Cart), args.Error(1)
}

func (m *MockStorefrontService) Checkout(ctx context.Context, userID commerce.UserID) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *MockStorefrontService) BuyNow(ctx context.Context, userID commerce.UserID, productID int64, quantity int) error {
	return m.Called(ctx, userID, productID, quantity).Error(0)
}

func (m *MockStorefrontService) InFlight(userID commerce.UserID, action inflight.Action) bool {
	return m.Called(userID, action).Bool(0)
}

func (m *MockStorefrontService) Orders(ctx context.Context, userID commerce.UserID) ([]commerce.Order, error) {
	args := m.Called(ctx, userID)
	orders, _ := args.Get(0).([]commerce.Order)
	return orders, args.Error(1)
}

// staticStore always reports the same user; an empty userID means signed out.
type staticStore struct {
	userID string
}

func (s staticStore) Load(*http.Request) (string, error) {
	if s.userID == "" {
		return "", session.ErrNoSession
	}
	return s.userID, nil
}

func (s staticStore) Save(http.ResponseWriter, *http.Request, string) error { return nil }

func (s staticStore) Clear(http.ResponseWriter, *http.Request) error { return nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
