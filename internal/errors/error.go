// Package errors provides the error values shared by the storefront packages.
package errors

import "errors"

// ErrOperationFailed covers every failed call to the Remote Commerce API:
// transport failures, non-success statuses and malformed bodies alike.
var ErrOperationFailed = errors.New("operation failed")

var ErrOutOfStock = errors.New("product is out of stock")
var ErrInvalidQuantity = errors.New("invalid quantity")
var ErrEmptyCart = errors.New("cart is empty")
var ErrActionInFlight = errors.New("action already in progress")

var ErrProductNotFound = errors.New("product not found")
