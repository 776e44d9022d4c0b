package auth

import (
	"context"
	"strings"

	"github.com/baechuer/otp-auth-service/internal/domain"
)

type LoginResult struct {
	User  domain.User
	Token string
}

// Login authenticates a user and issues a session token.
// IMPORTANT: must not leak whether the email exists (avoid user enumeration).
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return LoginResult{}, domain.ErrMissingField("Email and password are required")
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if domain.Is(err, "user_not_found") {
			return LoginResult{}, domain.ErrInvalidCredentials()
		}
		return LoginResult{}, err
	}

	if err := s.hasher.Compare(u.PasswordHash, password); err != nil {
		return LoginResult{}, domain.ErrInvalidCredentials()
	}

	token, err := s.issueSession(u)
	if err != nil {
		return LoginResult{}, err
	}

	return LoginResult{User: u, Token: token}, nil
}

// VerifySession accepts only session tokens: handshake tokens carry no user id.
func (s *Service) VerifySession(token string) (Claims, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return Claims{}, err
	}
	if strings.TrimSpace(claims.UserID) == "" {
		return Claims{}, domain.ErrTokenInvalid()
	}
	return claims, nil
}

func (s *Service) issueSession(u domain.User) (string, error) {
	return s.tokens.Issue(Claims{UserID: u.ID, Email: u.Email}, s.sessionTTL)
}
