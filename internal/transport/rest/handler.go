// Package rest serves the storefront pages and the API relay.
package rest

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/storefront/internal/commerce"
	storeerrors "github.com/abgdnv/storefront/internal/errors"
	"github.com/abgdnv/storefront/internal/inflight"
	"github.com/abgdnv/storefront/internal/service"
	"github.com/abgdnv/storefront/internal/session"
	"github.com/abgdnv/storefront/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

const (
	loginPath      = "/auth/login"
	loginFailedMsg = "Login failed"
)

type Handler struct {
	service  service.StorefrontService
	store    session.Store
	validate *validator.Validate
	renderer *renderer
	logger   *slog.Logger
}

// NewHandler creates a Handler. It fails only if the embedded templates do not parse.
func NewHandler(service service.StorefrontService, store session.Store, logger *slog.Logger) (*Handler, error) {
	logger = logger.With("component", "rest")
	r, err := newRenderer(logger)
	if err != nil {
		return nil, err
	}
	return &Handler{
		service:  service,
		store:    store,
		validate: validator.New(),
		renderer: r,
		logger:   logger,
	}, nil
}

// RegisterRoutes registers the page routes. Every page sees the session;
// cart, order and purchase routes and their confirmation pages require a
// signed-in user.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(session.Loader(h.store, h.logger))

		r.Get("/", h.Home)
		r.Get("/category/{id}", h.Category)
		r.Get("/product/{id}", h.Product)

		r.Get("/auth", h.LoginPage)
		r.Get(loginPath, h.LoginPage)
		r.Post(loginPath, h.Login)
		r.Post("/auth/logout", h.Logout)

		r.Group(func(r chi.Router) {
			r.Use(session.RequireUser(loginPath))

			r.Post("/product/{id}/cart", h.AddToCart)
			r.Post("/product/{id}/buy", h.BuyNow)
			r.Get("/cart/added", h.CartAdded)

			r.Get("/cart", h.Cart)
			r.Post("/cart/items/{id}", h.UpdateQuantity)
			r.Post("/cart/items/{id}/delete", h.RemoveItem)
			r.Post("/cart/checkout", h.Checkout)

			r.Get("/order", h.Orders)
			r.Get("/order/thanks", h.Thanks)
		})
	})
}

type basePage struct {
	Session session.Session
}

type homePage struct {
	basePage
	Home service.Home
}

type categoryPage struct {
	basePage
	Products []commerce.Product
}

type productPage struct {
	basePage
	Product      *commerce.Product
	AddingToCart bool
	Purchasing   bool
}

type cartPage struct {
	basePage
	Cart       service.Cart
	Purchasing bool
}

type ordersPage struct {
	basePage
	Orders []commerce.Order
}

type loginPage struct {
	basePage
	Username string
	Error    string
}

func (h *Handler) base(r *http.Request) basePage {
	return basePage{Session: session.FromContext(r.Context())}
}

func userID(r *http.Request) commerce.UserID {
	return commerce.UserID(session.FromContext(r.Context()).UserID)
}

// Home renders featured products and categories. Fetch failures are logged and
// the affected list is shown empty.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	home, err := h.service.Home(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to load home page data", "error", err)
	}
	h.renderer.render(w, r, http.StatusOK, "home", homePage{basePage: h.base(r), Home: home})
}

func (h *Handler) Category(w http.ResponseWriter, r *http.Request) {
	data := categoryPage{basePage: h.base(r)}
	id, err := web.ParseIDParam(r, "id")
	if err != nil {
		h.logger.WarnContext(r.Context(), "Invalid category id", "error", err)
		h.renderer.render(w, r, http.StatusOK, "category", data)
		return
	}
	products, err := h.service.Category(r.Context(), id)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to load category products", "category_id", id, "error", err)
	}
	data.Products = products
	h.renderer.render(w, r, http.StatusOK, "category", data)
}

func (h *Handler) Product(w http.ResponseWriter, r *http.Request) {
	id, err := web.ParseIDParam(r, "id")
	if err != nil {
		h.logger.WarnContext(r.Context(), "Invalid product id", "error", err)
		h.renderer.render(w, r, http.StatusNotFound, "product_not_found", h.base(r))
		return
	}
	product, err := h.service.Product(r.Context(), id)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to load product", "product_id", id, "error", err)
		h.renderer.render(w, r, http.StatusNotFound, "product_not_found", h.base(r))
		return
	}
	data := productPage{basePage: h.base(r), Product: product}
	if data.Session.Authenticated() {
		data.AddingToCart = h.service.InFlight(userID(r), inflight.AddToCart)
		data.Purchasing = h.service.InFlight(userID(r), inflight.BuyNow)
	}
	h.renderer.render(w, r, http.StatusOK, "product", data)
}

// AddToCart redirects to the confirmation page, or back to the product on any failure.
func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	id, err := web.ParseIDParam(r, "id")
	if err != nil {
		h.logger.WarnContext(r.Context(), "Invalid product id", "error", err)
		web.SeeOther(w, r, "/")
		return
	}
	productURL := fmt.Sprintf("/product/%d", id)
	form, err := parseQuantityForm(r, h.validate)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Invalid add to cart form", "product_id", id, "error", err)
		web.SeeOther(w, r, productURL)
		return
	}
	if err := h.service.AddToCart(r.Context(), userID(r), id, form.Quantity); err != nil {
		h.logActionError(r, "Failed to add product to cart", err, "product_id", id)
		web.SeeOther(w, r, productURL)
		return
	}
	web.SeeOther(w, r, "/cart/added")
}

func (h *Handler) BuyNow(w http.ResponseWriter, r *http.Request) {
	id, err := web.ParseIDParam(r, "id")
	if err != nil {
		h.logger.WarnContext(r.Context(), "Invalid product id", "error", err)
		web.SeeOther(w, r, "/")
		return
	}
	productURL := fmt.Sprintf("/product/%d", id)
	form, err := parseQuantityForm(r, h.validate)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Invalid buy now form", "product_id", id, "error", err)
		web.SeeOther(w, r, productURL)
		return
	}
	if err := h.service.BuyNow(r.Context(), userID(r), id, form.Quantity); err != nil {
		h.logActionError(r, "Failed to buy product", err, "product_id", id)
		web.SeeOther(w, r, productURL)
		return
	}
	web.SeeOther(w, r, "/order/thanks")
}

func (h *Handler) Cart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.Cart(r.Context(), userID(r))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to load cart", "error", err)
	}
	h.renderCart(w, r, cart)
}

// UpdateQuantity renders the cart reloaded after the update.
func (h *Handler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	id, err := web.ParseIDParam(r, "id")
	if err != nil {
		h.logger.WarnContext(r.Context(), "Invalid cart item id", "error", err)
		web.SeeOther(w, r, "/cart")
		return
	}
	form, err := parseQuantityForm(r, h.validate)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Invalid quantity form", "item_id", id, "error", err)
		web.SeeOther(w, r, "/cart")
		return
	}
	cart, err := h.service.UpdateQuantity(r.Context(), userID(r), id, form.Quantity)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to update cart item", "item_id", id, "error", err)
		web.SeeOther(w, r, "/cart")
		return
	}
	h.renderCart(w, r, cart)
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, err := web.ParseIDParam(r, "id")
	if err != nil {
		h.logger.WarnContext(r.Context(), "Invalid cart item id", "error", err)
		web.SeeOther(w, r, "/cart")
		return
	}
	cart, err := h.service.RemoveItem(r.Context(), userID(r), id)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to remove cart item", "item_id", id, "error", err)
		web.SeeOther(w, r, "/cart")
		return
	}
	h.renderCart(w, r, cart)
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Checkout(r.Context(), userID(r)); err != nil {
		h.logActionError(r, "Failed to check out", err)
		web.SeeOther(w, r, "/cart")
		return
	}
	web.SeeOther(w, r, "/order/thanks")
}

func (h *Handler) Orders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.Orders(r.Context(), userID(r))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to load orders", "error", err)
	}
	h.renderer.render(w, r, http.StatusOK, "orders", ordersPage{basePage: h.base(r), Orders: orders})
}

func (h *Handler) CartAdded(w http.ResponseWriter, r *http.Request) {
	h.renderer.render(w, r, http.StatusOK, "cart_added", h.base(r))
}

func (h *Handler) Thanks(w http.ResponseWriter, r *http.Request) {
	h.renderer.render(w, r, http.StatusOK, "thanks", h.base(r))
}

func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.renderer.render(w, r, http.StatusOK, "login", loginPage{basePage: h.base(r)})
}

// Login stores the returned user id and goes home. Every failure re-renders the
// form with the same generic message.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	form, err := parseLoginForm(r, h.validate)
	failed := func(err error) {
		h.logger.WarnContext(r.Context(), "Login failed", "error", err)
		data := loginPage{basePage: h.base(r), Username: form.Username, Error: loginFailedMsg}
		h.renderer.render(w, r, http.StatusOK, "login", data)
	}
	if err != nil {
		failed(err)
		return
	}
	id, err := h.service.Login(r.Context(), form.Username, form.Password)
	if err != nil {
		failed(err)
		return
	}
	if err := h.store.Save(w, r, id.String()); err != nil {
		failed(err)
		return
	}
	h.logger.InfoContext(r.Context(), "User logged in", "user_id", id.String())
	web.SeeOther(w, r, "/")
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Clear(w, r); err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to clear session", "error", err)
	}
	web.SeeOther(w, r, loginPath)
}

func (h *Handler) renderCart(w http.ResponseWriter, r *http.Request, cart service.Cart) {
	data := cartPage{
		basePage:   h.base(r),
		Cart:       cart,
		Purchasing: h.service.InFlight(userID(r), inflight.Checkout),
	}
	h.renderer.render(w, r, http.StatusOK, "cart", data)
}

// logActionError logs refused actions at warn level and failed ones at error level.
func (h *Handler) logActionError(r *http.Request, msg string, err error, args ...any) {
	args = append(args, "error", err)
	switch {
	case errors.Is(err, storeerrors.ErrActionInFlight),
		errors.Is(err, storeerrors.ErrOutOfStock),
		errors.Is(err, storeerrors.ErrInvalidQuantity),
		errors.Is(err, storeerrors.ErrEmptyCart):
		h.logger.WarnContext(r.Context(), msg, args...)
	default:
		h.logger.ErrorContext(r.Context(), msg, args...)
	}
}
