package auth

import (
	"context"
	"strings"

	"github.com/baechuer/otp-auth-service/internal/domain"
)

type VerifyCodeResult struct {
	Token string
}

// VerifyCode proves ownership of email by checking the code issued by
// RequestCode. The caller must present the token RequestCode returned; a
// token from a superseded request no longer matches the stored one.
func (s *Service) VerifyCode(ctx context.Context, email, code, token string) (VerifyCodeResult, error) {
	email = strings.TrimSpace(email)
	code = strings.TrimSpace(code)
	token = strings.TrimSpace(token)
	if email == "" || code == "" || token == "" {
		return VerifyCodeResult{}, domain.ErrMissingField("Email, code, and token required")
	}

	submitted, err := domain.ParseOTPCode(code)
	if err != nil {
		return VerifyCodeResult{}, err
	}

	pending, err := s.verifications.Get(ctx, email)
	if err != nil {
		if domain.Is(err, "verification_not_found") {
			return VerifyCodeResult{}, domain.ErrNoPendingVerification()
		}
		return VerifyCodeResult{}, err
	}

	if pending.Token != token {
		return VerifyCodeResult{}, domain.ErrTokenMismatch()
	}

	if _, err := s.tokens.Verify(token); err != nil {
		return VerifyCodeResult{}, err
	}

	if !pending.MatchesCode(submitted) {
		return VerifyCodeResult{}, domain.ErrInvalidCode()
	}

	verified, err := s.tokens.Issue(Claims{Email: email}, s.verifiedTTL)
	if err != nil {
		return VerifyCodeResult{}, err
	}

	// Conditional on the token we just compared: a concurrent request-code
	// or verify-code makes this a no-op and the caller loses the race.
	if err := s.verifications.MarkVerified(ctx, email, token, verified); err != nil {
		if domain.Is(err, "verification_not_found") {
			return VerifyCodeResult{}, domain.ErrTokenMismatch()
		}
		return VerifyCodeResult{}, err
	}

	return VerifyCodeResult{Token: verified}, nil
}
