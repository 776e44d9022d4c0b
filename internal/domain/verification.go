package domain

import (
	"strconv"
	"strings"
	"time"
)

const (
	MinOTPCode = 100000
	MaxOTPCode = 999999
)

// PendingVerification is the single in-flight handshake row for an email.
//
// Code is non-nil only between request-code and a successful verify-code.
// Token always holds the latest token issued for the email.
type PendingVerification struct {
	Email     string
	Code      *int
	Token     string
	CreatedAt time.Time
}

// CodeIssued reports whether the row still waits for a code.
func (p PendingVerification) CodeIssued() bool {
	return p.Code != nil
}

// MatchesCode compares a submitted code numerically with the stored one.
// A consumed (nil) code never matches.
func (p PendingVerification) MatchesCode(code int) bool {
	return p.Code != nil && *p.Code == code
}

// ParseOTPCode converts a submitted code to an integer. Leading zeros and
// surrounding whitespace are tolerated; anything non-numeric is rejected.
func ParseOTPCode(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, ErrInvalidCodeFormat()
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0, ErrInvalidCodeFormat()
		}
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, ErrInvalidCodeFormat()
	}
	return n, nil
}
