package service

import (
	"context"
	"io"
	"log/slog"

	"github.com/abgdnv/storefront/internal/commerce"
	"github.com/abgdnv/storefront/internal/inflight"
	"github.com/abgdnv/storefront/pkg/messaging"
	"github.com/stretchr/testify/mock"
)

// MockCommerceAPI is a testify mock of CommerceAPI.
type MockCommerceAPI struct {
	mock.Mock
}

func (m *MockCommerceAPI) Login(ctx context.Context, req commerce.LoginRequest) (commerce.UserID, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(commerce.UserID), args.Error(1)
}

func (m *MockCommerceAPI) Products(ctx context.Context) ([]commerce.Product, error) {
	args := m.Called(ctx)
	products, _ := args.Get(0).([]commerce.Product)
	return products, args.Error(1)
}

func (m *MockCommerceAPI) Product(ctx context.Context, id int64) (*commerce.Product, error) {
	args := m.Called(ctx, id)
	product, _ := args.Get(0).(*commerce.Product)
	return product, args.Error(1)
}

func (m *MockCommerceAPI) ProductsByCategory(ctx context.Context, categoryID int64) ([]commerce.Product, error) {
	args := m.Called(ctx, categoryID)
	products, _ := args.Get(0).([]commerce.Product)
	return products, args.Error(1)
}

func (m *MockCommerceAPI) Categories(ctx context.Context) ([]commerce.Category, error) {
	args := m.Called(ctx)
	categories, _ := args.Get(0).([]commerce.Category)
	return categories, args.Error(1)
}

func (m *MockCommerceAPI) CartItems(ctx context.Context, userID commerce.UserID) ([]commerce.CartItem, error) {
	args := m.Called(ctx, userID)
	items, _ := args.Get(0).([]commerce.CartItem)
	return items, args.Error(1)
}

func (m *MockCommerceAPI) AddToCart(ctx context.Context, req commerce.AddToCartRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *MockCommerceAPI) UpdateCartItem(ctx context.Context, itemID int64, quantity int) error {
	return m.Called(ctx, itemID, quantity).Error(0)
}

func (m *MockCommerceAPI) RemoveCartItem(ctx context.Context, itemID int64) error {
	return m.Called(ctx, itemID).Error(0)
}

func (m *MockCommerceAPI) CreateOrder(ctx context.Context, req commerce.CreateOrderRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *MockCommerceAPI) Orders(ctx context.Context, userID commerce.UserID) ([]commerce.Order, error) {
	args := m.Called(ctx, userID)
	orders, _ := args.Get(0).([]commerce.Order)
	return orders, args.Error(1)
}

// MockPublisher is a testify mock of messaging.Publisher.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event messaging.Event) error {
	return m.Called(ctx, event).Error(0)
}

var testShipping = commerce.ShippingDetails{
	PaymentMethod:      "credit_card",
	ShippingName:       "Taro Yamada",
	ShippingPostalCode: "123-4567",
	ShippingAddress:    "Shibuya, Tokyo",
	ShippingPhone:      "03-1234-5678",
}

func newTestService(api CommerceAPI, publisher messaging.Publisher) (*Service, *inflight.Guard) {
	guard := inflight.NewGuard()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(api, guard, publisher, testShipping, logger), guard
}
