package middleware

import (
	"net/http"

	"github.com/baechuer/otp-auth-service/internal/domain"
)

const DefaultBodyLimit int64 = 1 << 20

// BodyLimit caps request bodies. A declared Content-Length above the limit is
// refused up front; anything else is cut off by MaxBytesReader and surfaces
// from the JSON decoder as body_too_large.
func BodyLimit(maxBytes int64, writeErr WriteErrFunc) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultBodyLimit
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				writeErr(w, r, domain.ErrBodyTooLarge())
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
