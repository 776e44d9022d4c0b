package dto

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/baechuer/otp-auth-service/internal/domain"
)

// -------- Handshake --------

type SendCodeRequest struct {
	Email string `json:"email" validate:"required,max=254"`
}

func (r *SendCodeRequest) Validate() error {
	trim(&r.Email)
	return validateStruct(r, "Email is required")
}

// OTPCode accepts the code as a JSON string or a JSON number.
type OTPCode string

func (c *OTPCode) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*c = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = OTPCode(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*c = OTPCode(n.String())
	return nil
}

type VerifyEmailRequest struct {
	Email string  `json:"email" validate:"required,max=254"`
	Code  OTPCode `json:"code" validate:"required"`
	Token string  `json:"token" validate:"required"`
}

func (r *VerifyEmailRequest) Validate() error {
	trim(&r.Email, &r.Token)
	code := string(r.Code)
	trim(&code)
	r.Code = OTPCode(code)
	return validateStruct(r, "Email, code, and token required")
}

// -------- Registration / login --------

type RegisterRequest struct {
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,max=254"`
	Password  string `json:"password" validate:"required,bcrypt_len"`
	Phone     string `json:"phone" validate:"required,max=32"`
	DOB       string `json:"dob" validate:"required,date_only"`
	Address   string `json:"address" validate:"required,max=500"`
	Token     string `json:"token" validate:"required"`
}

func (r *RegisterRequest) Validate() error {
	trim(&r.FirstName, &r.LastName, &r.Email, &r.Phone, &r.DOB, &r.Address, &r.Token)
	return validateStruct(r, "All fields including token are required")
}

// DOBTime must only be called after Validate.
func (r *RegisterRequest) DOBTime() time.Time {
	t, _ := time.Parse(domain.DateLayout, r.DOB)
	return t
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Validate() error {
	trim(&r.Email)
	return validateStruct(r, "Email and password are required")
}

// -------- Account --------

type UpdateAccountRequest struct {
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"required,max=100"`
	Phone     string `json:"phone" validate:"required,max=32"`
	DOB       string `json:"dob" validate:"required,date_only"`
	Address   string `json:"address" validate:"required,max=500"`
}

func (r *UpdateAccountRequest) Validate() error {
	trim(&r.FirstName, &r.LastName, &r.Phone, &r.DOB, &r.Address)
	return validateStruct(r, "First name, last name, phone, dob, and address are required")
}

func (r *UpdateAccountRequest) ToProfileUpdate() domain.ProfileUpdate {
	dob, _ := time.Parse(domain.DateLayout, r.DOB)
	return domain.ProfileUpdate{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Phone:     r.Phone,
		DOB:       dob,
		Address:   r.Address,
	}
}
