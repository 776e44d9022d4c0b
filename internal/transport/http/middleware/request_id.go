package middleware

import (
	"net/http"

	"github.com/google/uuid"

	appCtx "github.com/baechuer/otp-auth-service/internal/pkg/context"
)

const HeaderXRequestID = "X-Request-Id"

// RequestID reuses an inbound X-Request-Id or mints one, echoes it back and
// stores it for logging and error bodies.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(HeaderXRequestID)
		if reqID == "" || len(reqID) > 128 {
			reqID = uuid.NewString()
		}

		w.Header().Set(HeaderXRequestID, reqID)

		ctx := appCtx.WithRequestID(r.Context(), reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
