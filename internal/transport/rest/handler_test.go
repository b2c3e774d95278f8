package rest

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/abgdnv/storefront/internal/commerce"
	storeerrors "github.com/abgdnv/storefront/internal/errors"
	"github.com/abgdnv/storefront/internal/service"
	"github.com/abgdnv/storefront/internal/session"
	"github.com/abgdnv/storefront/pkg/auth"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, svc service.StorefrontService, store session.Store) http.Handler {
	t.Helper()
	h, err := NewHandler(svc, store, discardLogger())
	require.NoError(t, err)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func postForm(target string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestProtectedPages_RedirectBeforeFetch(t *testing.T) {
	testCases := []struct {
		name string
		req  *http.Request
	}{
		{name: "cart", req: httptest.NewRequest(http.MethodGet, "/cart", nil)},
		{name: "orders", req: httptest.NewRequest(http.MethodGet, "/order", nil)},
		{name: "cart added", req: httptest.NewRequest(http.MethodGet, "/cart/added", nil)},
		{name: "order thanks", req: httptest.NewRequest(http.MethodGet, "/order/thanks", nil)},
		{name: "checkout", req: postForm("/cart/checkout", nil)},
		{name: "add to cart", req: postForm("/product/7/cart", url.Values{"quantity": {"1"}})},
		{name: "buy now", req: postForm("/product/7/buy", url.Values{"quantity": {"1"}})},
		{name: "update quantity", req: postForm("/cart/items/1", url.Values{"quantity": {"2"}})},
		{name: "remove item", req: postForm("/cart/items/1/delete", nil)},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			svc := new(MockStorefrontService)
			router := newTestRouter(t, svc, staticStore{})

			// when
			rec := serve(router, tc.req)

			// then
			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, "/auth/login", rec.Header().Get("Location"))
			svc.AssertNotCalled(t, "Cart", mock.Anything, mock.Anything)
			svc.AssertNotCalled(t, "Orders", mock.Anything, mock.Anything)
			svc.AssertNotCalled(t, "Checkout", mock.Anything, mock.Anything)
			svc.AssertNotCalled(t, "AddToCart", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			svc.AssertNotCalled(t, "BuyNow", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			svc.AssertNotCalled(t, "UpdateQuantity", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			svc.AssertNotCalled(t, "RemoveItem", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestLogin_Success(t *testing.T) {
	// given
	tokens, err := auth.NewHMACTokens("0123456789abcdef0123456789abcdef", "storefront", 0)
	require.NoError(t, err)
	store := session.NewCookieStore(tokens, session.CookieOptions{Name: "sf_session"})
	svc := new(MockStorefrontService)
	svc.On("Login", mock.Anything, "taro", "secret").Return(commerce.UserID("42"), nil).Once()
	router := newTestRouter(t, svc, store)

	// when
	rec := serve(router, postForm("/auth/login", url.Values{"username": {"taro"}, "password": {"secret"}}))

	// then
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		next.AddCookie(c)
	}
	stored, err := store.Load(next)
	require.NoError(t, err)
	assert.Equal(t, "42", stored)
	svc.AssertExpectations(t)
}

func TestLogin_Failures(t *testing.T) {
	testCases := []struct {
		name  string
		form  url.Values
		setup func(svc *MockStorefrontService)
	}{
		{
			name: "rejected credentials",
			form: url.Values{"username": {"taro"}, "password": {"wrong"}},
			setup: func(svc *MockStorefrontService) {
				svc.On("Login", mock.Anything, "taro", "wrong").Return(commerce.UserID(""), storeerrors.ErrOperationFailed)
			},
		},
		{
			name:  "missing password",
			form:  url.Values{"username": {"taro"}},
			setup: func(*MockStorefrontService) {},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc := new(MockStorefrontService)
			tc.setup(svc)
			router := newTestRouter(t, svc, staticStore{})

			rec := serve(router, postForm("/auth/login", tc.form))

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), "Login failed")
			assert.Empty(t, rec.Result().Cookies())
		})
	}
}

func TestLogout(t *testing.T) {
	tokens, err := auth.NewHMACTokens("0123456789abcdef0123456789abcdef", "storefront", 0)
	require.NoError(t, err)
	store := session.NewCookieStore(tokens, session.CookieOptions{Name: "sf_session"})
	router := newTestRouter(t, new(MockStorefrontService), store)

	rec := serve(router, postForm("/auth/logout", nil))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/auth/login", rec.Header().Get("Location"))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestHome_RendersPartialData(t *testing.T) {
	svc := new(MockStorefrontService)
	svc.On("Home", mock.Anything).Return(service.Home{
		Categories: []commerce.Category{{ID: 3, Name: "Green tea"}},
	}, storeerrors.ErrOperationFailed)
	router := newTestRouter(t, svc, staticStore{})

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Green tea")
	assert.Contains(t, body, `href="/category/3"`)
	assert.Contains(t, body, "No products.")
}

func TestCategory_FailureRendersEmptyGrid(t *testing.T) {
	svc := new(MockStorefrontService)
	svc.On("Category", mock.Anything, int64(3)).Return(nil, storeerrors.ErrOperationFailed)
	router := newTestRouter(t, svc, staticStore{})

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/category/3", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No products in this category.")
}

func TestProduct(t *testing.T) {
	t.Run("out of stock disables the controls", func(t *testing.T) {
		svc := new(MockStorefrontService)
		svc.On("Product", mock.Anything, int64(7)).Return(&commerce.Product{ID: 7, Name: "Matcha", Price: 1200, Stock: 0}, nil)
		svc.On("InFlight", mock.Anything, mock.Anything).Return(false)
		router := newTestRouter(t, svc, staticStore{userID: "42"})

		rec := serve(router, httptest.NewRequest(http.MethodGet, "/product/7", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "Out of stock")
		assert.Contains(t, body, `<select name="quantity" disabled>`)
		assert.Regexp(t, `id="add-to-cart"[^>]* disabled`, body)
		assert.Regexp(t, `id="buy-now"[^>]* disabled`, body)
		assert.NotContains(t, body, "<option")
	})

	t.Run("in stock offers up to ten", func(t *testing.T) {
		svc := new(MockStorefrontService)
		svc.On("Product", mock.Anything, int64(7)).Return(&commerce.Product{ID: 7, Name: "Matcha", Price: 1200, Stock: 25}, nil)
		router := newTestRouter(t, svc, staticStore{})

		rec := serve(router, httptest.NewRequest(http.MethodGet, "/product/7", nil))

		body := rec.Body.String()
		assert.Equal(t, 10, strings.Count(body, "<option"))
		assert.Contains(t, body, "¥1,200")
		assert.NotRegexp(t, `id="add-to-cart"[^>]* disabled`, body)
		svc.AssertNotCalled(t, "InFlight", mock.Anything, mock.Anything)
	})

	t.Run("shows processing while a purchase runs", func(t *testing.T) {
		svc := new(MockStorefrontService)
		svc.On("Product", mock.Anything, int64(7)).Return(&commerce.Product{ID: 7, Name: "Matcha", Price: 1200, Stock: 5}, nil)
		svc.On("InFlight", commerce.UserID("42"), mock.Anything).Return(true)
		router := newTestRouter(t, svc, staticStore{userID: "42"})

		rec := serve(router, httptest.NewRequest(http.MethodGet, "/product/7", nil))

		assert.Contains(t, rec.Body.String(), "Processing...")
	})

	t.Run("not found", func(t *testing.T) {
		svc := new(MockStorefrontService)
		svc.On("Product", mock.Anything, int64(99)).Return(nil, storeerrors.ErrProductNotFound)
		router := newTestRouter(t, svc, staticStore{})

		rec := serve(router, httptest.NewRequest(http.MethodGet, "/product/99", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "Product not found.")
	})

	t.Run("invalid id", func(t *testing.T) {
		svc := new(MockStorefrontService)
		router := newTestRouter(t, svc, staticStore{})

		rec := serve(router, httptest.NewRequest(http.MethodGet, "/product/abc", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		svc.AssertNotCalled(t, "Product", mock.Anything, mock.Anything)
	})
}

func TestAddToCart(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		location string
	}{
		{name: "success", location: "/cart/added"},
		{name: "out of stock", err: storeerrors.ErrOutOfStock, location: "/product/7"},
		{name: "in flight", err: storeerrors.ErrActionInFlight, location: "/product/7"},
		{name: "api failure", err: storeerrors.ErrOperationFailed, location: "/product/7"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc := new(MockStorefrontService)
			svc.On("AddToCart", mock.Anything, commerce.UserID("42"), int64(7), 2).Return(tc.err).Once()
			router := newTestRouter(t, svc, staticStore{userID: "42"})

			rec := serve(router, postForm("/product/7/cart", url.Values{"quantity": {"2"}}))

			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, tc.location, rec.Header().Get("Location"))
			svc.AssertExpectations(t)
		})
	}

	t.Run("quantity out of range is not sent", func(t *testing.T) {
		svc := new(MockStorefrontService)
		router := newTestRouter(t, svc, staticStore{userID: "42"})

		rec := serve(router, postForm("/product/7/cart", url.Values{"quantity": {"11"}}))

		assert.Equal(t, "/product/7", rec.Header().Get("Location"))
		svc.AssertNotCalled(t, "AddToCart", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestBuyNow(t *testing.T) {
	svc := new(MockStorefrontService)
	svc.On("BuyNow", mock.Anything, commerce.UserID("42"), int64(7), 1).Return(nil).Once()
	router := newTestRouter(t, svc, staticStore{userID: "42"})

	rec := serve(router, postForm("/product/7/buy", url.Values{"quantity": {"1"}}))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/order/thanks", rec.Header().Get("Location"))
	svc.AssertExpectations(t)
}

var scenarioCart = service.Cart{Items: []commerce.CartItem{
	{ID: 1, ProductID: 10, Name: "Sencha", Price: 1000, Quantity: 2, Stock: 5},
	{ID: 2, ProductID: 11, Name: "Hojicha", Price: 500, Quantity: 1, Stock: 5},
}}

func TestCart_Totals(t *testing.T) {
	// given
	svc := new(MockStorefrontService)
	svc.On("Cart", mock.Anything, commerce.UserID("42")).Return(scenarioCart, nil)
	svc.On("InFlight", commerce.UserID("42"), mock.Anything).Return(false)
	router := newTestRouter(t, svc, staticStore{userID: "42"})

	// when
	rec := serve(router, httptest.NewRequest(http.MethodGet, "/cart", nil))

	// then
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `<strong id="subtotal">¥2,500</strong>`)
	assert.Contains(t, body, `<span id="item-count">3</span>`)
	assert.Contains(t, body, "¥2,000", "line total of the first item")
}

func TestCart_Empty(t *testing.T) {
	svc := new(MockStorefrontService)
	svc.On("Cart", mock.Anything, commerce.UserID("42")).Return(service.Cart{}, nil)
	svc.On("InFlight", commerce.UserID("42"), mock.Anything).Return(false)
	router := newTestRouter(t, svc, staticStore{userID: "42"})

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/cart", nil))

	body := rec.Body.String()
	assert.Contains(t, body, "Your cart is empty.")
	assert.Contains(t, body, `<button type="button" id="purchase" disabled>`)
	assert.NotContains(t, body, `action="/cart/checkout"`)
}

func TestCart_UpdateQuantityRendersReloadedCart(t *testing.T) {
	// given
	reloaded := service.Cart{Items: []commerce.CartItem{
		{ID: 1, ProductID: 10, Name: "Sencha", Price: 1000, Quantity: 3, Stock: 5},
		{ID: 2, ProductID: 11, Name: "Hojicha", Price: 500, Quantity: 1, Stock: 5},
	}}
	svc := new(MockStorefrontService)
	svc.On("UpdateQuantity", mock.Anything, commerce.UserID("42"), int64(1), 3).Return(reloaded, nil).Once()
	svc.On("InFlight", commerce.UserID("42"), mock.Anything).Return(false)
	router := newTestRouter(t, svc, staticStore{userID: "42"})

	// when
	rec := serve(router, postForm("/cart/items/1", url.Values{"quantity": {"3"}}))

	// then
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `<strong id="subtotal">¥3,500</strong>`)
	assert.Contains(t, body, `<option value="3" selected>3</option>`)
	svc.AssertExpectations(t)
}

func TestCart_MutationFailureRedirects(t *testing.T) {
	svc := new(MockStorefrontService)
	svc.On("RemoveItem", mock.Anything, commerce.UserID("42"), int64(2)).Return(service.Cart{}, storeerrors.ErrOperationFailed)
	router := newTestRouter(t, svc, staticStore{userID: "42"})

	rec := serve(router, postForm("/cart/items/2/delete", nil))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/cart", rec.Header().Get("Location"))
}

func TestCheckout(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		location string
	}{
		{name: "success", location: "/order/thanks"},
		{name: "empty cart", err: storeerrors.ErrEmptyCart, location: "/cart"},
		{name: "in flight", err: storeerrors.ErrActionInFlight, location: "/cart"},
		{name: "api failure", err: storeerrors.ErrOperationFailed, location: "/cart"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc := new(MockStorefrontService)
			svc.On("Checkout", mock.Anything, commerce.UserID("42")).Return(tc.err).Once()
			router := newTestRouter(t, svc, staticStore{userID: "42"})

			rec := serve(router, postForm("/cart/checkout", nil))

			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, tc.location, rec.Header().Get("Location"))
		})
	}
}

func TestOrders(t *testing.T) {
	t.Run("lists orders", func(t *testing.T) {
		svc := new(MockStorefrontService)
		svc.On("Orders", mock.Anything, commerce.UserID("42")).Return([]commerce.Order{{
			ID: 1, OrderNumber: "ORD-0001", Status: "pending", TotalAmount: 2500, CreatedAt: "2024-11-14T10:30:00",
			Details: []commerce.OrderDetail{{ID: 1, ProductID: 10, Quantity: 2, Price: 1000, ProductName: "Sencha"}},
		}}, nil)
		router := newTestRouter(t, svc, staticStore{userID: "42"})

		rec := serve(router, httptest.NewRequest(http.MethodGet, "/order", nil))

		body := rec.Body.String()
		assert.Contains(t, body, "ORD-0001")
		assert.Contains(t, body, "2024/11/14 10:30")
		assert.Contains(t, body, "¥2,500")
		assert.Contains(t, body, "Sencha")
	})

	t.Run("empty", func(t *testing.T) {
		svc := new(MockStorefrontService)
		svc.On("Orders", mock.Anything, commerce.UserID("42")).Return(nil, storeerrors.ErrOperationFailed)
		router := newTestRouter(t, svc, staticStore{userID: "42"})

		rec := serve(router, httptest.NewRequest(http.MethodGet, "/order", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "No orders yet.")
	})
}

func TestStaticPages(t *testing.T) {
	testCases := []struct {
		path      string
		text      string
		protected bool
	}{
		{path: "/cart/added", text: "added to your cart", protected: true},
		{path: "/order/thanks", text: "Thank you for your order!", protected: true},
		{path: "/auth/login", text: `name="username"`},
		{path: "/auth", text: `name="password"`},
	}
	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			// given
			signedOut := newTestRouter(t, new(MockStorefrontService), staticStore{})
			signedIn := newTestRouter(t, new(MockStorefrontService), staticStore{userID: "42"})

			// when
			anonymous := serve(signedOut, httptest.NewRequest(http.MethodGet, tc.path, nil))
			user := serve(signedIn, httptest.NewRequest(http.MethodGet, tc.path, nil))

			// then
			if tc.protected {
				assert.Equal(t, http.StatusSeeOther, anonymous.Code)
				assert.Equal(t, "/auth/login", anonymous.Header().Get("Location"))
			} else {
				assert.Equal(t, http.StatusOK, anonymous.Code)
				assert.Contains(t, anonymous.Body.String(), tc.text)
			}
			assert.Equal(t, http.StatusOK, user.Code)
			assert.Contains(t, user.Body.String(), tc.text)
		})
	}
}
