package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/example/brownie-shop/internal/account"
	"github.com/example/brownie-shop/internal/api/middleware"
	"github.com/example/brownie-shop/internal/checkout"
	"github.com/example/brownie-shop/internal/domain/address"
	"github.com/example/brownie-shop/internal/domain/block"
	"github.com/example/brownie-shop/internal/domain/cart"
	"github.com/example/brownie-shop/internal/domain/order"
	"github.com/example/brownie-shop/internal/domain/product"
	"github.com/example/brownie-shop/internal/domain/user"
	"github.com/example/brownie-shop/internal/infrastructure/store"
	"github.com/example/brownie-shop/internal/money"
	"github.com/example/brownie-shop/internal/notify"
	"github.com/example/brownie-shop/internal/search"
	"github.com/example/brownie-shop/internal/session"
	"github.com/example/brownie-shop/internal/shop"
)

type Handlers struct {
	catalog  *search.Catalog
	checkout *checkout.Service
}

func NewHandlers(catalog *search.Catalog, checkoutService *checkout.Service) *Handlers {
	return &Handlers{
		catalog:  catalog,
		checkout: checkoutService,
	}
}

// ============================================
// Session
// ============================================

type sessionResponse struct {
	Authenticated bool          `json:"authenticated"`
	User          *user.Account `json:"user"`
	CartCount     int           `json:"cartCount"`
}

func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	sess := mustSession(r)
	respondJSON(w, r, http.StatusOK, sessionResponse{
		Authenticated: sess.IsAuthenticated(),
		User:          sess.Account(),
		CartCount:     sess.Cart.Count(),
	})
}

// ============================================
// Products
// ============================================

func (h *Handlers) GetProducts(w http.ResponseWriter, r *http.Request) {
	var (
		products []product.Product
		err      error
	)
	if q := r.URL.Query().Get("q"); q != "" {
		products, err = h.catalog.Search(r.Context(), q)
	} else {
		products, err = h.catalog.List(r.Context())
	}
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, products)
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalog.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, p)
}

type suggestion struct {
	product.Product
	Highlight []search.Segment `json:"highlight"`
}

func (h *Handlers) GetSuggestions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	products, err := h.catalog.Suggestions(r.Context(), q)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	out := make([]suggestion, len(products))
	for i, p := range products {
		out[i] = suggestion{Product: p, Highlight: search.Highlight(p.Name, q)}
	}
	respondJSON(w, r, http.StatusOK, out)
}

// ============================================
// Cart
// ============================================

type cartResponse struct {
	Items []cart.LineItem `json:"items"`
	Total money.Amount    `json:"total"`
	Count int             `json:"count"`
}

func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request) {
	respondCart(w, r, mustSession(r), http.StatusOK)
}

func (h *Handlers) AddToCart(w http.ResponseWriter, r *http.Request) {
	sess := mustSession(r)

	var req struct {
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, r, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	p, err := h.catalog.Get(r.Context(), req.ProductID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if err := sess.Cart.Add(r.Context(), *p, req.Quantity); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondCart(w, r, sess, http.StatusOK)
}

func (h *Handlers) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	sess := mustSession(r)

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, r, "invalid request body", http.StatusBadRequest)
		return
	}
	sess.Cart.UpdateQuantity(r.Context(), r.PathValue("productId"), req.Quantity)
	respondCart(w, r, sess, http.StatusOK)
}

func (h *Handlers) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	sess := mustSession(r)
	sess.Cart.Remove(r.Context(), r.PathValue("productId"))
	respondCart(w, r, sess, http.StatusOK)
}

func (h *Handlers) ClearCart(w http.ResponseWriter, r *http.Request) {
	sess := mustSession(r)
	sess.Cart.Clear(r.Context())
	respondCart(w, r, sess, http.StatusOK)
}

func respondCart(w http.ResponseWriter, r *http.Request, sess *session.Session, status int) {
	total, err := sess.Cart.Total()
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, status, cartResponse{
		Items: sess.Cart.Items(),
		Total: total,
		Count: sess.Cart.Count(),
	})
}

// ============================================
// Orders
// ============================================

func (h *Handlers) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req checkout.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, r, "invalid request body", http.StatusBadRequest)
		return
	}

	o, err := h.checkout.PlaceOrder(r.Context(), mustSession(r), req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, o)
}

func (h *Handlers) GetOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.checkout.History(r.Context(), mustSession(r))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, orders)
}

// ============================================
// Helper functions
// ============================================

// envelope wraps every response body. Notifications queued on the session
// during the request are drained into it.
type envelope struct {
	Data          any                   `json:"data,omitempty"`
	Error         string                `json:"error,omitempty"`
	Notifications []notify.Notification `json:"notifications"`
}

func mustSession(r *http.Request) *session.Session {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		panic("api: handler mounted without session middleware")
	}
	return sess
}

func drainNotes(r *http.Request) []notify.Notification {
	if sess, ok := middleware.GetSession(r.Context()); ok {
		return sess.Notes.Drain()
	}
	return []notify.Notification{}
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Data: data, Notifications: drainNotes(r)})
}

func respondJSONError(w http.ResponseWriter, r *http.Request, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Error: message, Notifications: drainNotes(r)})
}

// respondServiceError maps a service error onto an HTTP status.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[API] %s %s failed: %v", r.Method, r.URL.Path, err)
	}
	respondJSONError(w, r, err.Error(), status)
}

func statusFor(err error) int {
	var (
		priceErr *money.PriceParseError
		regErr   *shop.RegistrationError
		payErr   *shop.PaymentError
		gwErr    *store.GatewayError
	)
	if _, blocked := shop.IsBlocked(err); blocked {
		return http.StatusForbidden
	}

	switch {
	case shop.IsValidation(err),
		errors.As(err, &priceErr),
		errors.Is(err, shop.ErrEmptyCart),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, cart.ErrInvalidProduct),
		errors.Is(err, order.ErrEmptyOrder):
		return http.StatusBadRequest
	case errors.Is(err, shop.ErrNotAuthenticated),
		errors.Is(err, shop.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, shop.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, account.ErrEmailTaken),
		errors.Is(err, shop.ErrConflict),
		errors.Is(err, order.ErrInvalidStatus),
		errors.Is(err, order.ErrOrderCancelled),
		errors.Is(err, order.ErrOrderDelivered),
		errors.Is(err, block.ErrAlreadyBlocked):
		return http.StatusConflict
	case store.IsNotFound(err),
		errors.Is(err, product.ErrProductNotFound),
		errors.Is(err, user.ErrUserNotFound),
		errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, address.ErrAddressNotFound),
		errors.Is(err, block.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.As(err, &payErr),
		errors.As(err, &regErr),
		errors.As(err, &gwErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
