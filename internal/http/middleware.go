package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/access"
	"github.com/fjod/go_cart/storefront/internal/backend"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/fjod/go_cart/storefront/internal/storefront"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

const (
	SessionCookie   = "sf_session"
	HeaderSessionID = "X-Session-ID"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	sessionIDKey
	shopperKey
)

// RequestIDMiddleware takes the caller's X-Request-ID or mints one, echoes
// it and forwards it on every backend call made for the request.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(backend.HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		ctx = backend.WithRequestID(ctx, requestID)
		w.Header().Set(backend.HeaderRequestID, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestLogger writes one structured line per request.
func RequestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.InfoContext(r.Context(), "request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", getRequestID(r.Context()),
			)
		})
	}
}

// SessionMiddleware resolves the browser session from the sf_session cookie
// or the X-Session-ID header, starting a new one when neither carries a
// valid ID, and attaches the session's shopper to the request.
func SessionMiddleware(reg *storefront.Registry, secureCookie bool, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sid, fresh := sessionID(r)
			if fresh {
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookie,
					Value:    sid,
					Path:     "/",
					HttpOnly: true,
					Secure:   secureCookie,
					SameSite: http.SameSiteLaxMode,
				})
			}
			w.Header().Set(HeaderSessionID, sid)

			shopper, err := reg.Get(r.Context(), sid)
			if err != nil {
				handleError(w, r, log, err)
				return
			}

			ctx := context.WithValue(r.Context(), sessionIDKey, sid)
			ctx = context.WithValue(ctx, shopperKey, shopper)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionID(r *http.Request) (string, bool) {
	if c, err := r.Cookie(SessionCookie); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String(), false
		}
	}
	if id, err := uuid.Parse(r.Header.Get(HeaderSessionID)); err == nil {
		return id.String(), false
	}
	return uuid.NewString(), true
}

// RequireRole admits signed-in callers whose role the access rules allow
// for a route declared for roles. No roles means any signed-in caller.
func RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := getIdentity(r.Context())
			if !ok {
				respondError(w, http.StatusUnauthorized, "unauthorized", "Please login to continue")
				return
			}
			if !access.Allow(id.User.Role, roles...) {
				respondError(w, http.StatusForbidden, "permission_denied", "you are not allowed to access this page")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireCatalogManager admits callers that may edit products.
func RequireCatalogManager(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := getIdentity(r.Context())
		if !ok {
			respondError(w, http.StatusUnauthorized, "unauthorized", "Please login to continue")
			return
		}
		if !access.CanManageCatalog(id.User.Role) {
			respondError(w, http.StatusForbidden, "permission_denied", "only admins can manage products")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func getRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		return requestID
	}
	return ""
}

func getSessionID(ctx context.Context) string {
	if sid, ok := ctx.Value(sessionIDKey).(string); ok {
		return sid
	}
	return ""
}

func getShopper(ctx context.Context) *storefront.Shopper {
	if sh, ok := ctx.Value(shopperKey).(*storefront.Shopper); ok {
		return sh
	}
	return nil
}

func getIdentity(ctx context.Context) (session.Identity, bool) {
	sh := getShopper(ctx)
	if sh == nil {
		return session.Identity{}, false
	}
	return sh.Session.Current()
}
