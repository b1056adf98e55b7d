// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/auth"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/logger"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/payment"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/service"
)

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string, details map[string]any) {
	writeJSON(w, status, model.ErrorResponse{Error: msg, Code: code, Details: details})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &model.ValidationError{Message: "invalid request body: " + err.Error()}
	}
	return nil
}

// caller returns the identity Authenticate put on the request.
func caller(r *http.Request) service.Caller {
	id, _ := auth.FromContext(r.Context())
	return service.Caller{UserID: id.UserID, Role: id.Role}
}

// respondError maps err onto a status code and the error envelope. Server
// faults are logged with the request's logger and never echoed to the client.
func respondError(w http.ResponseWriter, r *http.Request, fallback *zap.Logger, err error) {
	log := logger.FromContext(r.Context(), fallback)

	var (
		partial     *model.PartialBookingFailureError
		unavailable *model.ProviderUnavailableError
		invalid     *model.ValidationError
		inventory   *model.InsufficientInventoryError
	)
	switch {
	case errors.As(err, &partial):
		log.Error("partial booking failure reached the client", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "PARTIAL_BOOKING_FAILURE",
			"booking could not be completed and needs manual reconciliation",
			map[string]any{"bookingId": partial.BookingID, "stage": partial.Stage})
	case errors.As(err, &unavailable):
		log.Warn("payment provider unavailable", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "PROVIDER_UNAVAILABLE",
			"payment provider is unavailable, please try again", nil)
	case errors.As(err, &invalid):
		var details map[string]any
		if invalid.Field != "" {
			details = map[string]any{"field": invalid.Field}
		}
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", invalid.Error(), details)
	case errors.As(err, &inventory):
		writeError(w, http.StatusBadRequest, "INSUFFICIENT_INVENTORY", inventory.Error(),
			map[string]any{"available": inventory.Available, "requested": inventory.Requested})
	case errors.Is(err, model.ErrEventNotBookable) && errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, "EVENT_NOT_FOUND", "event not found", nil)
	case errors.Is(err, model.ErrEventNotBookable):
		writeError(w, http.StatusConflict, "EVENT_NOT_BOOKABLE", "event is not open for booking", nil)
	case errors.Is(err, model.ErrPaymentVerificationFailed):
		writeError(w, http.StatusBadRequest, "PAYMENT_VERIFICATION_FAILED",
			"payment verification failed, the reservation has been released", nil)
	case errors.Is(err, model.ErrProviderRejected):
		log.Error("payment provider rejected the request", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "PROVIDER_REJECTED",
			"payment provider rejected the request", nil)
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "resource not found", nil)
	case errors.Is(err, model.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid username or password", nil)
	case errors.Is(err, model.ErrForbidden):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "access forbidden", nil)
	case errors.Is(err, model.ErrInvalidTransition),
		errors.Is(err, model.ErrTokenCommitted),
		errors.Is(err, model.ErrTokenReleased):
		writeError(w, http.StatusConflict, "INVALID_STATE", err.Error(), nil)
	case errors.Is(err, model.ErrConflict):
		writeError(w, http.StatusConflict, "CONFLICT", err.Error(), nil)
	default:
		log.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error", nil)
	}
}

// emptyIfNil keeps list responses as [] rather than null.
func emptyIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health. With a provider it also reports the
// payment mode and circuit breaker state; an open breaker marks the service
// degraded but still answers 200.
func HealthCheck(provider *payment.Breaker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{"status": "ok"}
		if provider != nil {
			state := provider.State()
			if state == "open" {
				body["status"] = "degraded"
			}
			body["payment"] = map[string]string{"mode": provider.Mode(), "breaker": state}
		}
		writeJSON(w, http.StatusOK, body)
	}
}
