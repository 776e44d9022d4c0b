package auth

import (
	"context"
	"strings"

	"github.com/baechuer/otp-auth-service/internal/domain"
)

// Account returns the profile of the authenticated user.
func (s *Service) Account(ctx context.Context, userID string) (domain.User, error) {
	if strings.TrimSpace(userID) == "" {
		return domain.User{}, domain.ErrTokenInvalid()
	}
	return s.users.GetByID(ctx, userID)
}

// UpdateAccount overwrites every mutable profile field. Email and password
// are not part of domain.ProfileUpdate and can never change here.
func (s *Service) UpdateAccount(ctx context.Context, userID string, p domain.ProfileUpdate) (domain.User, error) {
	if strings.TrimSpace(userID) == "" {
		return domain.User{}, domain.ErrTokenInvalid()
	}
	if p.FirstName == "" || p.LastName == "" || p.Phone == "" || p.DOB.IsZero() || p.Address == "" {
		return domain.User{}, domain.ErrMissingField("First name, last name, phone, dob, and address are required")
	}
	return s.users.UpdateProfile(ctx, userID, p)
}
