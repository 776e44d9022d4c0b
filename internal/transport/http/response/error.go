package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/baechuer/otp-auth-service/internal/domain"
	"github.com/baechuer/otp-auth-service/internal/logger"
)

// ErrorBody keeps "error" as the human message; clients display it as-is.
type ErrorBody struct {
	Error     string            `json:"error"`
	Code      string            `json:"code"`
	Meta      map[string]string `json:"meta,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// WriteError converts an error into the JSON error response.
// Non-domain errors become a generic 500 without leaking details.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	code := "internal_error"
	message := "Internal server error"
	var meta map[string]string

	var de *domain.Error
	if errors.As(err, &de) {
		status = statusFor(de)
		code = de.Code
		message = de.Message
		meta = de.Meta
	}

	if status >= http.StatusInternalServerError {
		logger.WithCtx(r.Context()).Error().
			Err(err).
			Str("code", code).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request_failed")
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(ErrorBody{
		Error:     message,
		Code:      code,
		Meta:      meta,
		RequestID: RequestIDFromContext(r),
	})
}

func statusFor(de *domain.Error) int {
	if de.Code == "body_too_large" {
		return http.StatusRequestEntityTooLarge
	}
	return statusFromKind(de.Kind)
}

// statusFromKind maps domain error kinds to HTTP status codes.
func statusFromKind(kind domain.ErrKind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindAuth:
		return http.StatusUnauthorized
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		// clients already treat "User already exists" as a 400
		return http.StatusBadRequest
	case domain.KindDelivery:
		return http.StatusInternalServerError
	case domain.KindInfrastructure:
		return http.StatusServiceUnavailable
	case domain.KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
