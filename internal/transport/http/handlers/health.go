package http_handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/baechuer/otp-auth-service/internal/logger"
	"github.com/baechuer/otp-auth-service/internal/transport/http/dto"
	"github.com/baechuer/otp-auth-service/internal/transport/http/response"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db Pinger
}

func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// Root handles GET /
func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	response.OK(w, dto.MessageResponse{Message: "API is running ✅"})
}

// Healthz handles GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{"status": "ok"})
}

// Readyz handles GET /readyz
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := h.db.PingContext(ctx); err != nil {
			logger.WithCtx(r.Context()).Warn().Err(err).Msg("readiness_check_failed")
			response.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"error":  "database unavailable",
			})
			return
		}
	}

	response.OK(w, map[string]string{"status": "ready"})
}
