package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// hashPassword creates a salted bcrypt hash of the given password. bcrypt
// generates a fresh random salt per call, so hashing the same password
// twice yields different strings -- callers must never compare hashes for
// equality, only verify through verifyPassword.
func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// verifyPassword checks a plaintext password against a stored bcrypt hash.
// Returns true if the password matches.
func verifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
