package utils

import (
	"crypto/rand"
	"math/big"
)

// codeAlphabet matches the alphanumeric alphabet authorization codes
// are drawn from. At 32 characters a code carries ~190 bits of entropy.
const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// AuthCodeLength is the fixed length of generated authorization codes.
const AuthCodeLength = 32

// NewAuthCode returns a fresh authorization code drawn from a
// cryptographically secure source. Each character is chosen with
// rand.Int to avoid modulo bias.
func NewAuthCode() (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))
	buf := make([]byte, AuthCodeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return string(buf), nil
}
