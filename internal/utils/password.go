package utils

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns a bcrypt digest of plain using the given cost.
// bcrypt generates a fresh random salt per call and encodes algorithm,
// cost and salt into the digest, so verification needs no separate salt
// lookup. The plaintext is never logged or returned.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword reports whether plain matches the stored bcrypt digest.
// A mismatch yields (false, nil); a malformed stored digest yields a
// non-nil error so callers can surface it as an internal failure rather
// than a silent "no match".
func VerifyPassword(hash, plain string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}
