package service

import (
	"context"
	"fmt"
	"slices"

	"github.com/abgdnv/storefront/internal/commerce"
	storeerrors "github.com/abgdnv/storefront/internal/errors"
	"github.com/abgdnv/storefront/internal/inflight"
)

// MaxQuantity caps the quantity selectable for a single product.
const MaxQuantity = 10

// Cart is a point-in-time snapshot of the user's cart. Totals are derived from
// the items on every call and never stored.
type Cart struct {
	Items []commerce.CartItem
}

// Subtotal is the sum of price × quantity over the items.
func (c Cart) Subtotal() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.Price * int64(item.Quantity)
	}
	return total
}

// ItemCount is the sum of quantities.
func (c Cart) ItemCount() int {
	var count int
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// QuantityOptions lists the selectable quantities for a product with the given stock:
// 1..min(MaxQuantity, stock). It is empty when the product is out of stock.
func QuantityOptions(stock int) []int {
	n := min(MaxQuantity, stock)
	if n <= 0 {
		return nil
	}
	options := make([]int, n)
	for i := range options {
		options[i] = i + 1
	}
	return options
}

// checkQuantity validates quantity against stock. Out of stock wins over a bad quantity.
func checkQuantity(quantity, stock int) error {
	if stock <= 0 {
		return storeerrors.ErrOutOfStock
	}
	if quantity < 1 || quantity > min(MaxQuantity, stock) {
		return fmt.Errorf("quantity %d outside 1..%d: %w", quantity, min(MaxQuantity, stock), storeerrors.ErrInvalidQuantity)
	}
	return nil
}

func (s *Service) Cart(ctx context.Context, userID commerce.UserID) (Cart, error) {
	items, err := s.api.CartItems(ctx, userID)
	if err != nil {
		return Cart{}, err
	}
	return Cart{Items: items}, nil
}

func (s *Service) AddToCart(ctx context.Context, userID commerce.UserID, productID int64, quantity int) error {
	release, ok := s.guard.Acquire(userID.String(), inflight.AddToCart)
	if !ok {
		return storeerrors.ErrActionInFlight
	}
	defer release()

	_, err := s.addToCart(ctx, userID, productID, quantity)
	return err
}

// addToCart checks the product's current stock before the creation request is sent.
func (s *Service) addToCart(ctx context.Context, userID commerce.UserID, productID int64, quantity int) (*commerce.Product, error) {
	product, err := s.api.Product(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load product %d: %w", productID, err)
	}
	if err := checkQuantity(quantity, product.Stock); err != nil {
		return nil, err
	}
	err = s.api.AddToCart(ctx, commerce.AddToCartRequest{
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add product %d to cart: %w", productID, err)
	}
	return product, nil
}

// UpdateQuantity bounds the quantity by the stock of the item in the current
// cart, the same range the quantity selector offers.
func (s *Service) UpdateQuantity(ctx context.Context, userID commerce.UserID, itemID int64, quantity int) (Cart, error) {
	if quantity < 1 || quantity > MaxQuantity {
		return Cart{}, fmt.Errorf("quantity %d outside 1..%d: %w", quantity, MaxQuantity, storeerrors.ErrInvalidQuantity)
	}
	items, err := s.api.CartItems(ctx, userID)
	if err != nil {
		return Cart{}, err
	}
	idx := slices.IndexFunc(items, func(it commerce.CartItem) bool { return it.ID == itemID })
	if idx < 0 {
		return Cart{}, fmt.Errorf("cart item %d not found: %w", itemID, storeerrors.ErrOperationFailed)
	}
	if err := checkQuantity(quantity, items[idx].Stock); err != nil {
		return Cart{}, err
	}
	if err := s.api.UpdateCartItem(ctx, itemID, quantity); err != nil {
		return Cart{}, err
	}
	return s.Cart(ctx, userID)
}

func (s *Service) RemoveItem(ctx context.Context, userID commerce.UserID, itemID int64) (Cart, error) {
	if err := s.api.RemoveCartItem(ctx, itemID); err != nil {
		return Cart{}, err
	}
	return s.Cart(ctx, userID)
}
