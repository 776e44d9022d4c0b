package domain

import (
	"errors"
	"fmt"
)

// ErrKind is used to map domain errors to HTTP status codes consistently.
type ErrKind string

const (
	KindValidation     ErrKind = "validation"     // 400
	KindAuth           ErrKind = "auth"           // 401
	KindNotFound       ErrKind = "not_found"      // 404
	KindConflict       ErrKind = "conflict"       // 400
	KindDelivery       ErrKind = "delivery"       // 500
	KindInfrastructure ErrKind = "infrastructure" // 503
	KindInternal       ErrKind = "internal"       // 500
)

// Error is a structured domain error.
// - Kind: high-level category for HTTP mapping
// - Code: stable machine code (do not change casually)
// - Message: safe summary for clients
// - Meta: optional details (field, reason, etc.)
// - Cause: wrapped internal error for logging/diagnostics
type Error struct {
	Kind    ErrKind
	Code    string
	Message string
	Meta    map[string]string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Kind, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Kind, e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func New(kind ErrKind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

func Wrap(kind ErrKind, code, msg string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Message: msg, Cause: cause}
}

func WithMeta(err *Error, meta map[string]string) *Error {
	err.Meta = meta
	return err
}

// Is reports whether err is a domain error carrying code.
func Is(err error, code string) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// KindOf returns the kind of a domain error, or KindInternal for anything else.
func KindOf(err error) ErrKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// ----------------------
// Validation errors (400)
// ----------------------

func ErrInvalidJSON(cause error) *Error {
	return Wrap(KindValidation, "invalid_json", "Invalid JSON body", cause)
}

func ErrBodyTooLarge() *Error {
	return New(KindValidation, "body_too_large", "Request body too large")
}

// ErrMissingField carries the client-facing message of the endpoint that
// rejected the request, e.g. "Email is required".
func ErrMissingField(message string, fields ...string) *Error {
	err := New(KindValidation, "missing_field", message)
	if len(fields) > 0 {
		meta := make(map[string]string, 1)
		meta["field"] = fields[0]
		err.Meta = meta
	}
	return err
}

func ErrInvalidField(field, reason string) *Error {
	return WithMeta(New(KindValidation, "invalid_field", "Invalid "+field), map[string]string{
		"field":  field,
		"reason": reason,
	})
}

func ErrInvalidCodeFormat() *Error {
	return WithMeta(New(KindValidation, "invalid_code_format", "Code must be numeric"), map[string]string{
		"field": "code",
	})
}

// ----------------------
// Handshake errors
// ----------------------

// ErrNoPendingVerification is returned by verify-code when no code was requested.
func ErrNoPendingVerification() *Error {
	return New(KindValidation, "no_pending_verification", "No OTP requested")
}

// ErrVerificationRequired is returned by register when the email never went
// through (or already finished) the handshake.
func ErrVerificationRequired() *Error {
	return New(KindValidation, "verification_required", "Email verification required")
}

func ErrTokenMismatch() *Error {
	return New(KindAuth, "token_mismatch", "Token mismatch")
}

func ErrInvalidCode() *Error {
	return New(KindValidation, "invalid_code", "Invalid OTP")
}

// ----------------------
// Auth errors (401)
// ----------------------

// ErrInvalidCredentials is used for every login failure so unknown emails and
// wrong passwords are indistinguishable.
func ErrInvalidCredentials() *Error {
	return New(KindValidation, "invalid_credentials", "Invalid credentials")
}

func ErrTokenMissing() *Error {
	return New(KindAuth, "token_missing", "Unauthorized: No token provided")
}

func ErrTokenInvalid() *Error {
	return New(KindAuth, "token_invalid", "Invalid token")
}

func ErrTokenExpired() *Error {
	return New(KindAuth, "token_expired", "Token is expired")
}

// ErrUnauthorized is the single response used by bearer-protected routes once
// a token was presented but could not be accepted.
func ErrUnauthorized(cause error) *Error {
	return Wrap(KindAuth, "unauthorized", "Invalid or expired token", cause)
}

// ----------------------
// Not found (404)
// ----------------------

func ErrUserNotFound() *Error {
	return New(KindNotFound, "user_not_found", "User not found")
}

// ErrVerificationNotFound is the storage-level miss; the handshake translates
// it into the step-specific error.
func ErrVerificationNotFound() *Error {
	return New(KindNotFound, "verification_not_found", "Verification not found")
}

// ----------------------
// Conflict
// ----------------------

func ErrUserAlreadyExists() *Error {
	return New(KindConflict, "user_already_exists", "User already exists")
}

// ----------------------
// Delivery / infrastructure / internal (5xx)
// ----------------------

func ErrDeliveryFailed(cause error) *Error {
	return Wrap(KindDelivery, "delivery_failed", "Failed to send verification code", cause)
}

func ErrDBUnavailable(cause error) *Error {
	return Wrap(KindInfrastructure, "db_unavailable", "Database unavailable", cause)
}

func ErrHashFailed(cause error) *Error {
	return Wrap(KindInternal, "hash_failed", "Internal server error", cause)
}

func ErrTokenSignFailed(cause error) *Error {
	return Wrap(KindInternal, "token_sign_failed", "Internal server error", cause)
}

func ErrRandomFailed(cause error) *Error {
	return Wrap(KindInternal, "random_failed", "Internal server error", cause)
}

func ErrInternal(cause error) *Error {
	return Wrap(KindInternal, "internal_error", "Internal server error", cause)
}
