// Package secrets handles API key hashing and verification. The kiosk API key
// is never stored in clear; config carries only its bcrypt hash.
package secrets

import (
	"golang.org/x/crypto/bcrypt"

	dErrors "afilia/pkg/domain-errors"
)

// Hash creates a bcrypt hash of the provided API key.
func Hash(key string) (string, error) {
	if key == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "api key must not be empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify compares a bcrypt hash against a presented API key.
func Verify(hash, key string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)); err != nil {
		return dErrors.New(dErrors.CodeUnauthorized, "invalid api key")
	}
	return nil
}
