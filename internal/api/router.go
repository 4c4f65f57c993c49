package api

import (
	"log"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/example/brownie-shop/internal/api/middleware"
	"github.com/example/brownie-shop/internal/auth"
	"github.com/example/brownie-shop/internal/domain/user"
	"github.com/example/brownie-shop/internal/session"
)

// RouterConfig holds everything the router mounts.
type RouterConfig struct {
	Handlers      *Handlers
	AuthHandlers  *AuthHandlers
	AdminHandlers *AdminHandlers
	JWTService    *auth.JWTService
	Sessions      *session.Manager
	SecureCookie  bool
	WebDir        string
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	// Static files (web UI)
	if cfg.WebDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(cfg.WebDir)))
	}

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	withSession := middleware.SessionMiddleware(cfg.JWTService, cfg.Sessions, cfg.SecureCookie)
	public := func(h http.HandlerFunc) http.Handler {
		return withSession(h)
	}
	authed := func(h http.HandlerFunc) http.Handler {
		return withSession(middleware.RequireAuth(h))
	}
	adminOnly := func(h http.HandlerFunc) http.Handler {
		return withSession(middleware.RequireRole(user.RoleAdmin)(h))
	}

	h := cfg.Handlers
	mux.Handle("GET /session", public(h.GetSession))

	// Products
	mux.Handle("GET /products", public(h.GetProducts))
	mux.Handle("GET /products/suggestions", public(h.GetSuggestions))
	mux.Handle("GET /products/{id}", public(h.GetProduct))

	// Cart
	mux.Handle("GET /cart", public(h.GetCart))
	mux.Handle("DELETE /cart", public(h.ClearCart))
	mux.Handle("POST /cart/items", public(h.AddToCart))
	mux.Handle("PUT /cart/items/{productId}", public(h.UpdateCartItem))
	mux.Handle("DELETE /cart/items/{productId}", public(h.RemoveFromCart))

	// Orders. Checkout reports "please login" itself so that the shopper
	// gets a notification rather than a bare 401.
	mux.Handle("POST /checkout", public(h.PlaceOrder))
	mux.Handle("GET /orders", authed(h.GetOrders))

	// Auth
	a := cfg.AuthHandlers
	mux.Handle("POST /auth/register", public(a.Register))
	mux.Handle("POST /auth/login", public(a.Login))
	mux.Handle("POST /auth/logout", public(a.Logout))
	mux.Handle("GET /auth/me", authed(a.Me))

	// Profile
	mux.Handle("PATCH /account/profile", authed(a.UpdateProfile))
	mux.Handle("POST /account/addresses", authed(a.AddAddress))
	mux.Handle("PUT /account/addresses/{id}", authed(a.UpdateAddress))
	mux.Handle("DELETE /account/addresses/{id}", authed(a.DeleteAddress))
	mux.Handle("POST /account/addresses/{id}/default", authed(a.SetDefaultAddress))

	// Admin
	ad := cfg.AdminHandlers
	mux.Handle("GET /admin/stats", adminOnly(ad.GetStats))
	mux.Handle("POST /admin/products", adminOnly(ad.CreateProduct))
	mux.Handle("PUT /admin/products/{id}", adminOnly(ad.UpdateProduct))
	mux.Handle("DELETE /admin/products/{id}", adminOnly(ad.DeleteProduct))
	mux.Handle("GET /admin/orders", adminOnly(ad.GetOrders))
	mux.Handle("PATCH /admin/orders/{userId}/{orderId}/status", adminOnly(ad.UpdateOrderStatus))
	mux.Handle("GET /admin/users", adminOnly(ad.GetUsers))
	mux.Handle("GET /admin/users/{id}", adminOnly(ad.GetUser))
	mux.Handle("DELETE /admin/users/{id}", adminOnly(ad.DeleteUser))
	mux.Handle("POST /admin/users/{id}/block", adminOnly(ad.BlockUser))
	mux.Handle("DELETE /admin/users/{id}/block", adminOnly(ad.UnblockUser))

	return otelhttp.NewHandler(withLogging(mux), "brownie-shop")
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("[API] %s %s (%s)", r.Method, r.URL.Path, time.Since(start))
	})
}
