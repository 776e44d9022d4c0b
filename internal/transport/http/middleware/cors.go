package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS allows the configured browser origins with credentials. Preflight
// requests are answered here with 204 and never reach a handler.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	c := cors.Handler(cors.Options{
		AllowedOrigins:     allowedOrigins,
		AllowedMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:     []string{"Accept", "Authorization", "Content-Type", HeaderXRequestID},
		ExposedHeaders:     []string{HeaderXRequestID},
		AllowCredentials:   true,
		MaxAge:             3600,
		OptionsPassthrough: true,
	})

	return func(next http.Handler) http.Handler {
		preflight := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
		return c(preflight)
	}
}
