package dto

import (
	"time"

	"github.com/baechuer/otp-auth-service/internal/domain"
)

// UserView is the public profile; the password hash is never exposed.
type UserView struct {
	ID        string     `json:"id"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	DOB       string     `json:"dob"`
	Address   string     `json:"address"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

func NewUserView(u domain.User) UserView {
	v := UserView{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Phone:     u.Phone,
		Address:   u.Address,
	}
	if !u.DOB.IsZero() {
		v.DOB = u.DOB.Format(domain.DateLayout)
	}
	if !u.CreatedAt.IsZero() {
		t := u.CreatedAt.UTC()
		v.CreatedAt = &t
	}
	return v
}

type MessageResponse struct {
	Message string `json:"message"`
}

type TokenResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

type RegisterResponse struct {
	Message string   `json:"message"`
	User    UserView `json:"user"`
	Token   string   `json:"token"`
}

type AccountResponse struct {
	User UserView `json:"user"`
}

type AccountUpdatedResponse struct {
	Message string   `json:"message"`
	User    UserView `json:"user"`
}
