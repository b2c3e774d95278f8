// Package commerce is the client of the Remote Commerce API.
package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	storeerrors "github.com/abgdnv/storefront/internal/errors"
)

// maxBodyBytes bounds how much of an API response is read.
const maxBodyBytes = 4 << 20

// Client calls the Remote Commerce API. Every failure, whether transport,
// status or decoding, is reported as ErrOperationFailed.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	healthPath string
}

// NewClient creates a Client for the API rooted at baseURL.
func NewClient(baseURL string, httpClient *http.Client, healthPath string) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid commerce API URL %q: %w", baseURL, err)
	}
	if healthPath == "" {
		healthPath = "/api/categories"
	}
	return &Client{baseURL: u, httpClient: httpClient, healthPath: healthPath}, nil
}

// Login exchanges credentials for a user identifier.
func (c *Client) Login(ctx context.Context, req LoginRequest) (UserID, error) {
	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, "/api/login", nil, req, &resp); err != nil {
		return "", err
	}
	if resp.UserID == "" {
		return "", fmt.Errorf("login response carries no user id: %w", storeerrors.ErrOperationFailed)
	}
	return resp.UserID, nil
}

func (c *Client) Products(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := c.do(ctx, http.MethodGet, "/api/products", nil, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *Client) Product(ctx context.Context, id int64) (*Product, error) {
	var product Product
	if err := c.do(ctx, http.MethodGet, "/api/products/"+strconv.FormatInt(id, 10), nil, nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *Client) ProductsByCategory(ctx context.Context, categoryID int64) ([]Product, error) {
	var products []Product
	path := "/api/products/category/" + strconv.FormatInt(categoryID, 10)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	var categories []Category
	if err := c.do(ctx, http.MethodGet, "/api/categories", nil, nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// CartItems returns the user's cart as a fresh snapshot.
func (c *Client) CartItems(ctx context.Context, userID UserID) ([]CartItem, error) {
	var items []CartItem
	query := url.Values{"user_id": {userID.String()}}
	if err := c.do(ctx, http.MethodGet, "/api/cart/items", query, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// AddToCart creates a cart line. The created item in the response is not used.
func (c *Client) AddToCart(ctx context.Context, req AddToCartRequest) error {
	return c.do(ctx, http.MethodPost, "/api/cart/add", nil, req, nil)
}

func (c *Client) UpdateCartItem(ctx context.Context, itemID int64, quantity int) error {
	path := "/api/cart/items/" + strconv.FormatInt(itemID, 10)
	return c.do(ctx, http.MethodPut, path, nil, updateCartItemRequest{Quantity: quantity}, nil)
}

func (c *Client) RemoveCartItem(ctx context.Context, itemID int64) error {
	return c.do(ctx, http.MethodDelete, "/api/cart/items/"+strconv.FormatInt(itemID, 10), nil, nil, nil)
}

// CreateOrder turns the user's cart into an order.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) error {
	return c.do(ctx, http.MethodPost, "/api/orders/create", nil, req, nil)
}

func (c *Client) Orders(ctx context.Context, userID UserID) ([]Order, error) {
	var orders []Order
	query := url.Values{"user_id": {userID.String()}}
	if err := c.do(ctx, http.MethodGet, "/api/orders", query, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// Ping checks that the API answers on its health path.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, c.healthPath, nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	target := c.baseURL.JoinPath(path)
	if query != nil {
		target.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %v: %w", method, path, err, storeerrors.ErrOperationFailed)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %v: %w", method, path, err, storeerrors.ErrOperationFailed)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %v: %w", method, path, err, storeerrors.ErrOperationFailed)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read %s %s: %v: %w", method, path, err, storeerrors.ErrOperationFailed)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s %s: status %d: %s: %w", method, path, resp.StatusCode, snippet(data), storeerrors.ErrOperationFailed)
	}
	if out == nil {
		return nil
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("%s %s: empty response body: %w", method, path, storeerrors.ErrOperationFailed)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s: %v: %w", method, path, err, storeerrors.ErrOperationFailed)
	}
	return nil
}

func snippet(data []byte) string {
	s := strings.TrimSpace(string(data))
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
