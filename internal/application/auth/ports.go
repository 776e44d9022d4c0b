package auth

import (
	"context"
	"time"

	"github.com/baechuer/otp-auth-service/internal/domain"
)

/*
UserRepo
--------
Persistence port for users.
GetByEmail / GetByID return domain.ErrUserNotFound when absent.
Create returns domain.ErrUserAlreadyExists on a duplicate email.
*/
type UserRepo interface {
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByID(ctx context.Context, id string) (domain.User, error)
	Create(ctx context.Context, u domain.User) (domain.User, error)
	UpdateProfile(ctx context.Context, id string, p domain.ProfileUpdate) (domain.User, error)
}

/*
VerificationRepo
----------------
Persistence port for the pending email-verification rows.
Every method is a single atomic statement keyed on email.
*/
type VerificationRepo interface {
	// Upsert creates the row or overwrites code, token and created_at.
	Upsert(ctx context.Context, email string, code int, token string) error
	// Get returns domain.ErrVerificationNotFound when no row exists.
	Get(ctx context.Context, email string) (domain.PendingVerification, error)
	// MarkVerified swaps the token and clears the code, but only while the row
	// still holds expectedToken and an unconsumed code. Otherwise it returns
	// domain.ErrVerificationNotFound.
	MarkVerified(ctx context.Context, email, expectedToken, newToken string) error
	Delete(ctx context.Context, email string) error
}

/*
PasswordHasher
--------------
Abstracts bcrypt.
*/
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash string, password string) error // nil if match
}

/*
TokenIssuer
-----------
Signs and verifies bearer tokens. It does not care which claim shape it
carries: pending and verified tokens only set Email, session tokens set
UserID too.
*/
type Claims struct {
	UserID string
	Email  string
	Exp    time.Time
}

type TokenIssuer interface {
	Issue(claims Claims, ttl time.Duration) (string, error)
	Verify(token string) (Claims, error)
}

// CodeGenerator produces OTP codes in [domain.MinOTPCode, domain.MaxOTPCode].
type CodeGenerator interface {
	NewCode() (int, error)
}

/*
Notifier
--------
Delivers a message to an email address, directly over SMTP or via the
broker and the mailer worker.
*/
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type Notifier interface {
	Send(ctx context.Context, msg Message) error
}
