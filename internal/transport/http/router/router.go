package router

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type HealthHandler interface {
	Root(w http.ResponseWriter, r *http.Request)
	Healthz(w http.ResponseWriter, r *http.Request)
	Readyz(w http.ResponseWriter, r *http.Request)
}

type AuthHandler interface {
	// Email verification handshake
	SendCode(w http.ResponseWriter, r *http.Request)
	VerifyEmail(w http.ResponseWriter, r *http.Request)

	// Core auth
	Register(w http.ResponseWriter, r *http.Request)
	Login(w http.ResponseWriter, r *http.Request)

	// Account
	GetAccount(w http.ResponseWriter, r *http.Request)
	UpdateAccount(w http.ResponseWriter, r *http.Request)
}

type Deps struct {
	Health HealthHandler
	Auth   AuthHandler

	AuthMW func(http.Handler) http.Handler

	// Optional edge middleware, applied in this order when set.
	RequestIDMW func(http.Handler) http.Handler
	SecurityMW  func(http.Handler) http.Handler
	CORSMW      func(http.Handler) http.Handler
	MetricsMW   func(http.Handler) http.Handler
	AccessLogMW func(http.Handler) http.Handler
	BodyLimitMW func(http.Handler) http.Handler

	// Metrics is served on /metrics when set.
	Metrics http.Handler
}

func New(deps Deps) (http.Handler, error) {
	if deps.Health == nil {
		return nil, fmt.Errorf("nil Health handler")
	}
	if deps.Auth == nil {
		return nil, fmt.Errorf("nil Auth handler")
	}
	if deps.AuthMW == nil {
		return nil, fmt.Errorf("nil Auth middleware")
	}

	r := chi.NewRouter()

	for _, mw := range []func(http.Handler) http.Handler{
		deps.RequestIDMW,
		chimw.RealIP,
		chimw.Recoverer,
		chimw.Compress(5),
		deps.SecurityMW,
		deps.CORSMW,
		deps.MetricsMW,
		deps.AccessLogMW,
	} {
		if mw != nil {
			r.Use(mw)
		}
	}

	r.Get("/", deps.Health.Root)
	r.Get("/healthz", deps.Health.Healthz)
	r.Get("/readyz", deps.Health.Readyz)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Group(func(r chi.Router) {
		if deps.BodyLimitMW != nil {
			r.Use(deps.BodyLimitMW)
		}

		// --- Email verification ---
		r.Post("/send-code", deps.Auth.SendCode)
		r.Post("/verify-email", deps.Auth.VerifyEmail)

		// --- Core auth ---
		r.Post("/register", deps.Auth.Register)
		r.Post("/login", deps.Auth.Login)

		// --- Account ---
		r.Route("/account", func(r chi.Router) {
			r.Use(deps.AuthMW)
			r.Get("/", deps.Auth.GetAccount)
			r.Put("/", deps.Auth.UpdateAccount)
		})
	})

	return r, nil
}
