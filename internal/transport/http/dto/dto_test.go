package dto

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/otp-auth-service/internal/domain"
)

func metaField(t *testing.T, err error) string {
	t.Helper()
	de, ok := err.(*domain.Error)
	require.True(t, ok, "expected *domain.Error, got %T", err)
	return de.Meta["field"]
}

func TestSendCodeRequest_Validate(t *testing.T) {
	r := SendCodeRequest{Email: "   "}
	err := r.Validate()
	require.True(t, domain.Is(err, "missing_field"))
	assert.Equal(t, "Email is required", err.(*domain.Error).Message)
	assert.Equal(t, "email", metaField(t, err))

	r = SendCodeRequest{Email: "  a@x.com "}
	require.NoError(t, r.Validate())
	assert.Equal(t, "a@x.com", r.Email)
}

func TestSendCodeRequest_TooLong(t *testing.T) {
	r := SendCodeRequest{Email: strings.Repeat("a", 250) + "@x.com"}
	err := r.Validate()
	require.True(t, domain.Is(err, "invalid_field"))
	assert.Equal(t, "email", metaField(t, err))
}

func TestOTPCode_AcceptsStringOrNumber(t *testing.T) {
	cases := map[string]OTPCode{
		`{"code":"482913"}`: "482913",
		`{"code":482913}`:   "482913",
		`{"code":"012345"}`: "012345",
		`{"code":null}`:     "",
	}
	for body, want := range cases {
		var r VerifyEmailRequest
		require.NoError(t, json.Unmarshal([]byte(body), &r), body)
		assert.Equal(t, want, r.Code, body)
	}

	var r VerifyEmailRequest
	assert.Error(t, json.Unmarshal([]byte(`{"code":true}`), &r))
}

func TestVerifyEmailRequest_Validate(t *testing.T) {
	for _, r := range []VerifyEmailRequest{
		{Code: "123456", Token: "t"},
		{Email: "a@x.com", Token: "t"},
		{Email: "a@x.com", Code: "123456"},
		{Email: "a@x.com", Code: "  ", Token: "t"},
	} {
		err := r.Validate()
		require.True(t, domain.Is(err, "missing_field"), "%+v", r)
		assert.Equal(t, "Email, code, and token required", err.(*domain.Error).Message)
	}

	ok := VerifyEmailRequest{Email: "a@x.com", Code: " 123456 ", Token: " t "}
	require.NoError(t, ok.Validate())
	assert.Equal(t, OTPCode("123456"), ok.Code)
	assert.Equal(t, "t", ok.Token)
}

func validRegister() RegisterRequest {
	return RegisterRequest{
		FirstName: "Ada", LastName: "Lovelace", Email: "a@x.com", Password: "pw",
		Phone: "0400000000", DOB: "1990-03-04", Address: "1 Analytical St", Token: "tok",
	}
}

func TestRegisterRequest_Validate(t *testing.T) {
	r := validRegister()
	require.NoError(t, r.Validate())
	assert.True(t, r.DOBTime().Equal(time.Date(1990, time.March, 4, 0, 0, 0, 0, time.UTC)))

	r = validRegister()
	r.Token = ""
	err := r.Validate()
	require.True(t, domain.Is(err, "missing_field"))
	assert.Equal(t, "All fields including token are required", err.(*domain.Error).Message)
	assert.Equal(t, "token", metaField(t, err))

	r = validRegister()
	r.DOB = "04/03/1990"
	err = r.Validate()
	require.True(t, domain.Is(err, "invalid_field"))
	assert.Equal(t, "dob", metaField(t, err))

	r = validRegister()
	r.Password = strings.Repeat("p", 73)
	err = r.Validate()
	require.True(t, domain.Is(err, "invalid_field"))
	assert.Equal(t, "password", metaField(t, err))
}

func TestRegisterRequest_MissingWinsOverInvalid(t *testing.T) {
	r := validRegister()
	r.DOB = "nope"
	r.Phone = ""
	err := r.Validate()
	assert.True(t, domain.Is(err, "missing_field"))
}

func TestLoginRequest_Validate(t *testing.T) {
	r := LoginRequest{Email: "a@x.com"}
	err := r.Validate()
	require.True(t, domain.Is(err, "missing_field"))
	assert.Equal(t, "Email and password are required", err.(*domain.Error).Message)

	r = LoginRequest{Email: " a@x.com", Password: " spaces kept "}
	require.NoError(t, r.Validate())
	assert.Equal(t, " spaces kept ", r.Password)
}

func TestUpdateAccountRequest(t *testing.T) {
	r := UpdateAccountRequest{FirstName: "Ada", LastName: "King", Phone: "1", DOB: "1990-03-04"}
	err := r.Validate()
	require.True(t, domain.Is(err, "missing_field"))
	assert.Equal(t, "address", metaField(t, err))

	r.Address = "Ockham Park"
	require.NoError(t, r.Validate())
	p := r.ToProfileUpdate()
	assert.Equal(t, "Ockham Park", p.Address)
	assert.Equal(t, 1990, p.DOB.Year())
}

func TestNewUserView_HidesHashAndFormatsDOB(t *testing.T) {
	u := domain.User{
		ID: "u1", FirstName: "Ada", Email: "a@x.com", PasswordHash: "$2a$secret",
		DOB:       time.Date(1990, time.March, 4, 0, 0, 0, 0, time.UTC),
		CreatedAt: time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
	b, err := json.Marshal(NewUserView(u))
	require.NoError(t, err)

	s := string(b)
	assert.NotContains(t, s, "secret")
	assert.Contains(t, s, `"dob":"1990-03-04"`)
	assert.Contains(t, s, `"first_name":"Ada"`)
	assert.Contains(t, s, `"created_at":"2025-01-01T00:00:00Z"`)

	b, err = json.Marshal(NewUserView(domain.User{ID: "u2"}))
	require.NoError(t, err)
	assert.NotContains(t, string(b), "created_at")
}
