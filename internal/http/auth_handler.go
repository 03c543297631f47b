package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/access"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/storefront"
)

type AuthHandler struct {
	registry *storefront.Registry
	opts     Options
}

func NewAuthHandler(registry *storefront.Registry, opts Options) *AuthHandler {
	return &AuthHandler{registry: registry, opts: opts}
}

type MeDTO struct {
	User      domain.User  `json:"user"`
	ExpiresAt *time.Time   `json:"expiresAt,omitempty"`
	Links     access.Links `json:"links"`
	Message   string       `json:"message,omitempty"`
}

// POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.opts.Timeout)
	defer cancel()

	var form storefront.RegisterForm
	if !decodeJSON(w, r, h.opts.MaxBodySize, &form) {
		return
	}

	user, err := h.registry.Register(ctx, form)
	if err != nil {
		handleError(w, r, h.opts.Log, err)
		return
	}

	respondJSON(w, http.StatusCreated, MeDTO{
		User:    user,
		Links:   access.Home(domain.RoleGuest),
		Message: "Registered successfully. Please login now.",
	})
}

// POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.opts.Timeout)
	defer cancel()

	var form storefront.LoginForm
	if !decodeJSON(w, r, h.opts.MaxBodySize, &form) {
		return
	}

	id, err := h.registry.Login(ctx, getSessionID(r.Context()), form)
	if err != nil {
		handleError(w, r, h.opts.Log, err)
		return
	}

	dto := MeDTO{
		User:    id.User,
		Links:   access.Home(id.User.Role),
		Message: "Login successful. Welcome " + id.User.Fullname,
	}
	if !id.ExpiresAt.IsZero() {
		dto.ExpiresAt = &id.ExpiresAt
	}
	respondJSON(w, http.StatusOK, dto)
}

// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.Logout(r.Context(), getSessionID(r.Context())); err != nil {
		handleError(w, r, h.opts.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := getIdentity(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "Please login to continue")
		return
	}
	dto := MeDTO{User: id.User, Links: access.Home(id.User.Role)}
	if !id.ExpiresAt.IsZero() {
		dto.ExpiresAt = &id.ExpiresAt
	}
	respondJSON(w, http.StatusOK, dto)
}
