package auth

import (
	"fmt"
	"time"
)

const (
	DefaultPendingTTL  = 15 * time.Minute
	DefaultVerifiedTTL = time.Hour
	DefaultSessionTTL  = time.Hour

	otpSubject = "Your Verification Code"
)

type Service struct {
	users         UserRepo
	verifications VerificationRepo
	hasher        PasswordHasher
	tokens        TokenIssuer
	codes         CodeGenerator
	notifier      Notifier

	pendingTTL  time.Duration
	verifiedTTL time.Duration
	sessionTTL  time.Duration
}

type Config struct {
	PendingTTL  time.Duration
	VerifiedTTL time.Duration
	SessionTTL  time.Duration
}

func NewService(
	users UserRepo,
	verifications VerificationRepo,
	hasher PasswordHasher,
	tokens TokenIssuer,
	codes CodeGenerator,
	notifier Notifier,
	cfg Config,
) *Service {
	pending := cfg.PendingTTL
	if pending <= 0 {
		pending = DefaultPendingTTL
	}
	verified := cfg.VerifiedTTL
	if verified <= 0 {
		verified = DefaultVerifiedTTL
	}
	session := cfg.SessionTTL
	if session <= 0 {
		session = DefaultSessionTTL
	}
	return &Service{
		users:         users,
		verifications: verifications,
		hasher:        hasher,
		tokens:        tokens,
		codes:         codes,
		notifier:      notifier,

		pendingTTL:  pending,
		verifiedTTL: verified,
		sessionTTL:  session,
	}
}

// otpMessage renders the email carrying a freshly issued code.
func otpMessage(email string, code int) Message {
	return Message{
		To:      email,
		Subject: otpSubject,
		Body:    fmt.Sprintf("Your OTP is %d", code),
	}
}
