// Package security provides password hashing and token-based sessions.
package security

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/campusworks/eventhub/internal/errors"
)

// HashPassword hashes a plaintext password with bcrypt at the given cost.
// A non-positive cost falls back to bcrypt's default.
func HashPassword(password string, cost int) (string, error) {
	if len(password) == 0 {
		return "", errors.Newf("password must not be empty").
			Component("security").
			Category(errors.CategoryValidation).
			Build()
	}
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", errors.New(err).
			Component("security").
			Category(errors.CategoryAuth).
			Context("operation", "hash_password").
			Build()
	}
	return string(hash), nil
}

// CheckPassword reports whether the plaintext password matches the hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
