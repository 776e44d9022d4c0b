package auth

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/baechuer/otp-auth-service/internal/domain"
)

type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Phone     string
	DOB       time.Time
	Address   string
	Token     string
}

type RegisterResult struct {
	User  domain.User
	Token string
}

func (in RegisterInput) complete() bool {
	return in.FirstName != "" && in.LastName != "" && in.Email != "" &&
		in.Password != "" && in.Phone != "" && !in.DOB.IsZero() &&
		in.Address != "" && in.Token != ""
}

// Register consumes an email-verified handshake and creates the user.
func (s *Service) Register(ctx context.Context, in RegisterInput) (RegisterResult, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Token = strings.TrimSpace(in.Token)
	if !in.complete() {
		return RegisterResult{}, domain.ErrMissingField("All fields including token are required")
	}

	pending, err := s.verifications.Get(ctx, in.Email)
	if err != nil {
		if domain.Is(err, "verification_not_found") {
			return RegisterResult{}, domain.ErrVerificationRequired()
		}
		return RegisterResult{}, err
	}

	// Stored-value equality stops a token minted for another email; the
	// signature check stops forged or stale values. A row still holding a
	// code has not passed verify-code yet.
	if pending.Token == "" || pending.Token != in.Token || pending.CodeIssued() {
		return RegisterResult{}, domain.ErrTokenInvalid()
	}
	claims, err := s.tokens.Verify(in.Token)
	if err != nil || claims.Email != in.Email {
		return RegisterResult{}, domain.ErrTokenInvalid()
	}

	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return RegisterResult{}, domain.ErrUserAlreadyExists()
	} else if !domain.Is(err, "user_not_found") {
		return RegisterResult{}, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return RegisterResult{}, domain.ErrHashFailed(err)
	}

	created, err := s.users.Create(ctx, domain.User{
		ID:           uuid.NewString(),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: hash,
		Phone:        in.Phone,
		DOB:          in.DOB,
		Address:      in.Address,
	})
	if err != nil {
		return RegisterResult{}, err
	}

	if err := s.verifications.Delete(ctx, in.Email); err != nil {
		return RegisterResult{}, err
	}

	token, err := s.issueSession(created)
	if err != nil {
		return RegisterResult{}, err
	}

	return RegisterResult{User: created, Token: token}, nil
}
