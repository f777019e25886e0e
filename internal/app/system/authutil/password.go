// Package authutil holds password rules and bcrypt helpers shared by the
// login and seeding paths.
package authutil

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength = 6
	MaxPasswordLength = 128

	// BcryptCost is the work factor for stored password hashes.
	BcryptCost = 12
)

var (
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
	ErrPasswordTooLong  = errors.New("password must be at most 128 characters")
	ErrPasswordCommon   = errors.New("password is too common")
)

var commonPasswords = map[string]struct{}{
	"123456": {}, "1234567": {}, "12345678": {}, "123456789": {},
	"password": {}, "qwerty": {}, "abc123": {}, "iloveyou": {},
	"letmein": {}, "football": {}, "welcome": {}, "monkey": {},
	"honeybee": {}, "beekeeper": {},
}

// ValidatePassword checks length and rejects a short list of common choices
// (case-insensitively).
func ValidatePassword(pw string) error {
	switch {
	case len(pw) < MinPasswordLength:
		return ErrPasswordTooShort
	case len(pw) > MaxPasswordLength:
		return ErrPasswordTooLong
	}
	if _, common := commonPasswords[strings.ToLower(pw)]; common {
		return ErrPasswordCommon
	}
	return nil
}

// HashPassword returns the bcrypt hash of pw.
func HashPassword(pw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether pw matches hash. An empty hash never matches.
func CheckPassword(hash, pw string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// dummyHash is compared against when the login id is unknown so that
// missing accounts take as long to reject as wrong passwords.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("swarmhub-timing-equalizer"), BcryptCost)

// EqualizeTiming burns one bcrypt comparison.
func EqualizeTiming(pw string) {
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(pw))
}
