package utils

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const MinPasswordLength = 6

var errPasswordTooShort = errors.New("password too short")

// HashPassword validates the plaintext length and returns a bcrypt hash.
func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", errPasswordTooShort
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(b), err
}

// PasswordMatches reports whether password is the plaintext of hash.
func PasswordMatches(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
