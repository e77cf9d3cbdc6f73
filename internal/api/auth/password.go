package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost is the fixed work factor for passwords at rest.
const bcryptCost = 10

// HashPassword derives a salted adaptive hash from a plaintext password.
// Plaintext passwords never persist beyond this call.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// CheckPassword reports whether the plaintext matches the stored hash.
// Comparison is constant-time inside the primitive.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
