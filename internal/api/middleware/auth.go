package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/example/brownie-shop/internal/auth"
	"github.com/example/brownie-shop/internal/domain/user"
	"github.com/example/brownie-shop/internal/session"
)

const (
	// SessionCookieName carries the signed session token for browsers.
	SessionCookieName = "session_token"
	// SessionTokenHeader returns a newly issued token to API clients.
	SessionTokenHeader = "X-Session-Token"
)

// respondError writes a JSON error response
func respondError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// ExtractToken extracts the session token from cookie or Authorization header
func ExtractToken(r *http.Request) string {
	// Try cookie first (for browser)
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		return cookie.Value
	}
	// Fall back to Authorization header (for API clients)
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

type contextKey string

const (
	SessionContextKey contextKey = "session"
)

// SessionMiddleware attaches the caller's session to the request context,
// starting a new one when the token is missing, invalid or names a session
// that no longer exists. The session is locked for the whole request.
func SessionMiddleware(jwtService *auth.JWTService, sessions *session.Manager, secureCookie bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := resolveSession(r, jwtService, sessions)
			if sess == nil {
				created, err := sessions.Create(r.Context())
				if err != nil {
					log.Printf("[API] Failed to start session: %v", err)
					respondError(w, "failed to start session", http.StatusInternalServerError)
					return
				}
				token, expiresAt, err := jwtService.GenerateSessionToken(created.ID)
				if err != nil {
					log.Printf("[API] Failed to sign session token: %v", err)
					respondError(w, "failed to start session", http.StatusInternalServerError)
					return
				}
				SetSessionCookie(w, token, expiresAt, secureCookie || r.TLS != nil)
				w.Header().Set(SessionTokenHeader, token)
				sess = created
			}

			sess.Lock()
			defer sess.Unlock()

			ctx := context.WithValue(r.Context(), SessionContextKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func resolveSession(r *http.Request, jwtService *auth.JWTService, sessions *session.Manager) *session.Session {
	tokenString := ExtractToken(r)
	if tokenString == "" {
		return nil
	}
	claims, err := jwtService.ValidateSessionToken(tokenString)
	if err != nil {
		return nil
	}
	sess, err := sessions.Get(r.Context(), claims.SessionID)
	if err != nil {
		if !errors.Is(err, session.ErrSessionNotFound) {
			log.Printf("[API] Failed to restore session %s: %v", claims.SessionID, err)
		}
		return nil
	}
	return sess
}

// SetSessionCookie stores the session token in the browser.
func SetSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearSessionCookie removes the session cookie.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// RequireAuth rejects requests whose session has no signed-in account
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := GetSession(r.Context())
		if !ok || !sess.IsAuthenticated() {
			respondError(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole checks if the signed-in account has one of the required roles
func RequireRole(roles ...user.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := GetSession(r.Context())
			if !ok {
				respondError(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			acc := sess.Account()
			if acc == nil {
				respondError(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			for _, role := range roles {
				if acc.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			respondError(w, "forbidden", http.StatusForbidden)
		})
	}
}

// GetSession retrieves the session from the request context
func GetSession(ctx context.Context) (*session.Session, bool) {
	sess, ok := ctx.Value(SessionContextKey).(*session.Session)
	return sess, ok
}

// GetUserID is a helper to get the signed-in account id from context
func GetUserID(ctx context.Context) string {
	sess, ok := GetSession(ctx)
	if !ok {
		return ""
	}
	acc := sess.Account()
	if acc == nil {
		return ""
	}
	return acc.ID
}
