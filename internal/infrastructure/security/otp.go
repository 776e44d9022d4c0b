package security

import (
	"crypto/rand"
	"io"
	"math/big"

	"github.com/baechuer/otp-auth-service/internal/domain"
)

// RandomCodes draws uniformly distributed 6-digit codes from crypto/rand.
type RandomCodes struct {
	src io.Reader
}

func NewRandomCodes() *RandomCodes {
	return &RandomCodes{src: rand.Reader}
}

func (g *RandomCodes) NewCode() (int, error) {
	span := big.NewInt(domain.MaxOTPCode - domain.MinOTPCode + 1)
	n, err := rand.Int(g.src, span)
	if err != nil {
		return 0, err
	}
	return domain.MinOTPCode + int(n.Int64()), nil
}
