package helpers

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt only looks at the first 72 bytes. Longer inputs are cut here, on
// both the hashing and the verifying side, instead of being rejected.
const maxPasswordBytes = 72

const (
	DefaultBcryptCost         = 12
	TemporaryPasswordLength   = 10
	temporaryPasswordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

type PasswordHasher struct {
	cost int
}

func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &PasswordHasher{cost: cost}
}

func truncatePassword(password string) []byte {
	b := []byte(password)
	if len(b) > maxPasswordBytes {
		b = b[:maxPasswordBytes]
	}
	return b
}

func (h *PasswordHasher) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword(truncatePassword(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(bytes), nil
}

func (h *PasswordHasher) VerifyPassword(providedPassword string, hashedPassword string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), truncatePassword(providedPassword))
	return err == nil
}

// GenerateTemporaryPassword returns a random alphanumeric string drawn from
// crypto/rand.
func GenerateTemporaryPassword(length int) (string, error) {
	if length <= 0 {
		length = TemporaryPasswordLength
	}
	max := big.NewInt(int64(len(temporaryPasswordAlphabet)))
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate temporary password: %w", err)
		}
		b[i] = temporaryPasswordAlphabet[n.Int64()]
	}
	return string(b), nil
}
