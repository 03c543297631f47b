package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/backend"
	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/fjod/go_cart/storefront/internal/storefront"
)

type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Details string            `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}

// handleError maps a component error onto the HTTP status and code the
// browser sees. Remote errors keep the message the remote API gave.
func handleError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	var re *backend.RemoteError

	switch {
	case errors.Is(err, storefront.ErrInvalidForm):
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:  "please fix the highlighted fields",
			Code:   "validation_failed",
			Fields: storefront.FieldErrors(err),
		})
	case errors.Is(err, session.ErrNoSession),
		errors.Is(err, cart.ErrClosed),
		errors.Is(err, checkout.ErrNotLoggedIn):
		respondError(w, http.StatusUnauthorized, "unauthorized", "Please login to continue")
	case errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, checkout.ErrNoAddress),
		errors.Is(err, checkout.ErrNoPayment),
		errors.Is(err, checkout.ErrUnknownPayment),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, catalog.ErrInvalidProduct),
		errors.Is(err, catalog.ErrInvalidPriceRange),
		errors.Is(err, catalog.ErrInvalidRating),
		errors.Is(err, catalog.ErrInvalidSort):
		respondError(w, http.StatusBadRequest, "invalid_argument", err.Error())
	case errors.Is(err, checkout.ErrTotalChanged):
		respondError(w, http.StatusConflict, "total_changed", err.Error())
	case errors.Is(err, storefront.ErrTooManyAttempts):
		respondError(w, http.StatusTooManyRequests, "rate_limit_exceeded", err.Error())
	case errors.As(err, &re):
		if re.Status >= http.StatusInternalServerError {
			log.ErrorContext(r.Context(), "backend error", "status", re.Status, "error", err)
			respondError(w, http.StatusBadGateway, "bad_gateway", re.Message)
			return
		}
		respondError(w, re.Status, "remote_error", re.Message)
	case errors.Is(err, backend.ErrNetwork):
		log.ErrorContext(r.Context(), "backend unreachable", "error", err)
		respondError(w, http.StatusServiceUnavailable, "service_unavailable", "Something went wrong")
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "timeout", "request timed out")
	default:
		log.ErrorContext(r.Context(), "unhandled error", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
