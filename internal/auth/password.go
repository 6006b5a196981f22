package auth

import (
	"errors"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// Password policy constants. These are the policy knobs; handlers and
// services reference the errors, not the numbers.
const (
	// MinPasswordLength is the minimum required password length
	MinPasswordLength = 8
	// MaxPasswordLength is the maximum allowed password length (bcrypt limit)
	MaxPasswordLength = 72
	// DefaultBcryptCost is the default bcrypt cost factor
	DefaultBcryptCost = 12
)

var (
	// ErrPasswordTooShort is returned when password is too short
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	// ErrPasswordTooLong is returned when password is too long
	ErrPasswordTooLong = errors.New("password must be at most 72 characters")
	// ErrPasswordAllLetters is returned when password contains only letters
	ErrPasswordAllLetters = errors.New("password must contain at least one digit or symbol")
)

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), DefaultBcryptCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// CheckPassword compares a password with its hash
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// ValidatePasswordStrength validates password meets the configured policy:
// minimum length plus at least one non-alphabetic character.
func ValidatePasswordStrength(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > MaxPasswordLength {
		return ErrPasswordTooLong
	}

	hasNonAlpha := false
	for _, char := range password {
		if !unicode.IsLetter(char) {
			hasNonAlpha = true
			break
		}
	}
	if !hasNonAlpha {
		return ErrPasswordAllLetters
	}

	return nil
}

// IsWeakPassword reports whether err is a password policy violation
func IsWeakPassword(err error) bool {
	return errors.Is(err, ErrPasswordTooShort) ||
		errors.Is(err, ErrPasswordTooLong) ||
		errors.Is(err, ErrPasswordAllLetters)
}
