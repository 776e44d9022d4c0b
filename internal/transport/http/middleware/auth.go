package middleware

import (
	"net/http"
	"strings"

	"github.com/baechuer/otp-auth-service/internal/application/auth"
	"github.com/baechuer/otp-auth-service/internal/domain"
)

type SessionVerifier interface {
	VerifySession(token string) (auth.Claims, error)
}

type WriteErrFunc func(http.ResponseWriter, *http.Request, error)

// Auth verifies Authorization: Bearer <session token> and injects the
// identity into the request context. A missing header and an unusable token
// get different messages; both are 401.
func Auth(verifier SessionVerifier, writeErr WriteErrFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if strings.TrimSpace(h) == "" {
				writeErr(w, r, domain.ErrTokenMissing())
				return
			}

			parts := strings.SplitN(h, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeErr(w, r, domain.ErrUnauthorized(domain.ErrTokenInvalid()))
				return
			}

			raw := strings.TrimSpace(parts[1])
			if raw == "" {
				writeErr(w, r, domain.ErrUnauthorized(domain.ErrTokenInvalid()))
				return
			}

			claims, err := verifier.VerifySession(raw)
			if err != nil {
				writeErr(w, r, domain.ErrUnauthorized(err))
				return
			}

			// handshake tokens carry no user id and must not open account routes
			if strings.TrimSpace(claims.UserID) == "" {
				writeErr(w, r, domain.ErrUnauthorized(domain.ErrTokenInvalid()))
				return
			}

			ctx := WithUser(r.Context(), claims.UserID, claims.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
