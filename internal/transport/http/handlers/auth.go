package http_handlers

import (
	"net/http"

	"github.com/baechuer/otp-auth-service/internal/application/auth"
	"github.com/baechuer/otp-auth-service/internal/domain"
	"github.com/baechuer/otp-auth-service/internal/logger"
	"github.com/baechuer/otp-auth-service/internal/transport/http/dto"
	"github.com/baechuer/otp-auth-service/internal/transport/http/middleware"
	"github.com/baechuer/otp-auth-service/internal/transport/http/response"
)

type AuthHandler struct {
	svc *auth.Service
}

func NewAuthHandler(svc *auth.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// SendCode handles POST /send-code
func (h *AuthHandler) SendCode(w http.ResponseWriter, r *http.Request) {
	var req dto.SendCodeRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		response.WriteError(w, r, err)
		return
	}

	res, err := h.svc.RequestCode(r.Context(), req.Email)
	middleware.OTPRequestsTotal.WithLabelValues(middleware.Outcome(err)).Inc()
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	logger.WithCtx(r.Context()).Info().
		Str("email", req.Email).
		Msg("otp_sent")

	response.OK(w, dto.TokenResponse{Message: "OTP sent", Token: res.Token})
}

// VerifyEmail handles POST /verify-email
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req dto.VerifyEmailRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		response.WriteError(w, r, err)
		return
	}

	res, err := h.svc.VerifyCode(r.Context(), req.Email, string(req.Code), req.Token)
	middleware.OTPVerificationsTotal.WithLabelValues(middleware.Outcome(err)).Inc()
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	logger.WithCtx(r.Context()).Info().
		Str("email", req.Email).
		Msg("email_verified")

	response.OK(w, dto.TokenResponse{Message: "Email verified", Token: res.Token})
}

// Register handles POST /register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		response.WriteError(w, r, err)
		return
	}

	res, err := h.svc.Register(r.Context(), auth.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Phone:     req.Phone,
		DOB:       req.DOBTime(),
		Address:   req.Address,
		Token:     req.Token,
	})
	middleware.RegistrationsTotal.WithLabelValues(middleware.Outcome(err)).Inc()
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	logger.WithCtx(r.Context()).Info().
		Str("user_id", res.User.ID).
		Str("email", res.User.Email).
		Msg("user_registered")

	response.Created(w, dto.RegisterResponse{
		Message: "Registration successful",
		User:    dto.NewUserView(res.User),
		Token:   res.Token,
	})
}

// Login handles POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		response.WriteError(w, r, err)
		return
	}

	res, err := h.svc.Login(r.Context(), req.Email, req.Password)
	middleware.LoginAttemptsTotal.WithLabelValues(middleware.Outcome(err)).Inc()
	if err != nil {
		if domain.Is(err, "invalid_credentials") {
			logger.WithCtx(r.Context()).Info().
				Str("email", req.Email).
				Msg("login_failed")
		}
		response.WriteError(w, r, err)
		return
	}

	logger.WithCtx(r.Context()).Info().
		Str("user_id", res.User.ID).
		Msg("user_logged_in")

	response.OK(w, dto.TokenResponse{Message: "Login successful", Token: res.Token})
}

// GetAccount handles GET /account
func (h *AuthHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.WriteError(w, r, domain.ErrTokenMissing())
		return
	}

	u, err := h.svc.Account(r.Context(), userID)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	response.OK(w, dto.AccountResponse{User: dto.NewUserView(u)})
}

// UpdateAccount handles PUT /account
func (h *AuthHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.WriteError(w, r, domain.ErrTokenMissing())
		return
	}

	var req dto.UpdateAccountRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		response.WriteError(w, r, err)
		return
	}

	u, err := h.svc.UpdateAccount(r.Context(), userID, req.ToProfileUpdate())
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	logger.WithCtx(r.Context()).Info().
		Str("user_id", u.ID).
		Msg("account_updated")

	response.OK(w, dto.AccountUpdatedResponse{
		Message: "Account updated successfully",
		User:    dto.NewUserView(u),
	})
}
