package middleware

import (
	"net/http"
	"time"

	"github.com/baechuer/otp-auth-service/internal/logger"
)

// AccessLog writes one structured line per request. Bodies are never logged
// because they carry passwords and codes.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		lg := logger.WithCtx(r.Context())
		evt := lg.Info()
		if rec.status >= http.StatusInternalServerError {
			evt = lg.Warn()
		}
		evt.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Int("bytes", rec.bytes).
			Dur("duration", time.Since(start)).
			Str("remote_ip", r.RemoteAddr).
			Msg("http_request")
	})
}
