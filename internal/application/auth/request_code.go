package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/baechuer/otp-auth-service/internal/domain"
)

type RequestCodeResult struct {
	Token string
}

// RequestCode starts (or restarts) the handshake for email.
//
// The pending row is written before delivery and is left in place when
// delivery fails; a retry simply overwrites it.
func (s *Service) RequestCode(ctx context.Context, email string) (RequestCodeResult, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return RequestCodeResult{}, domain.ErrMissingField("Email is required", "email")
	}

	code, err := s.codes.NewCode()
	if err != nil {
		return RequestCodeResult{}, domain.ErrRandomFailed(err)
	}

	token, err := s.tokens.Issue(Claims{Email: email}, s.pendingTTL)
	if err != nil {
		return RequestCodeResult{}, err
	}

	if err := s.verifications.Upsert(ctx, email, code, token); err != nil {
		return RequestCodeResult{}, err
	}

	if err := s.notifier.Send(ctx, otpMessage(email, code)); err != nil {
		var de *domain.Error
		if errors.As(err, &de) && de.Kind == domain.KindDelivery {
			return RequestCodeResult{}, err
		}
		return RequestCodeResult{}, domain.ErrDeliveryFailed(err)
	}

	return RequestCodeResult{Token: token}, nil
}
