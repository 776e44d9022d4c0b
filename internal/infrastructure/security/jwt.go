package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/baechuer/otp-auth-service/internal/application/auth"
	"github.com/baechuer/otp-auth-service/internal/domain"
)

type JWTSigner struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewJWTSigner(secret string, issuer string) *JWTSigner {
	return &JWTSigner{
		secret: []byte(secret),
		issuer: issuer,
		now:    time.Now,
	}
}

// tokenClaims keeps the claim names the frontend already decodes.
type tokenClaims struct {
	UserID string `json:"userId,omitempty"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

func (s *JWTSigner) Issue(c auth.Claims, ttl time.Duration) (string, error) {
	now := s.now()
	subject := c.UserID
	if subject == "" {
		subject = c.Email
	}
	claims := tokenClaims{
		UserID: c.UserID,
		Email:  c.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			// jti keeps two tokens minted in the same second distinct
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", domain.ErrTokenSignFailed(err)
	}
	return signed, nil
}

func (s *JWTSigner) Verify(token string) (auth.Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return auth.Claims{}, domain.ErrTokenExpired()
		}
		return auth.Claims{}, domain.ErrTokenInvalid()
	}

	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return auth.Claims{}, domain.ErrTokenInvalid()
	}

	exp := time.Time{}
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}

	return auth.Claims{
		UserID: claims.UserID,
		Email:  claims.Email,
		Exp:    exp,
	}, nil
}
