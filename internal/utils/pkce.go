package utils

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
)

// ComputeS256Challenge derives the PKCE code challenge from a verifier:
// base64url(SHA-256(verifier)) without padding, per RFC 7636 §4.2.
func ComputeS256Challenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// ValidatePKCE checks a code verifier against the challenge stored at
// authorization time. When the stored method is S256 the challenge is
// recomputed from the verifier; any other stored method falls back to a
// direct comparison (plain). Comparisons are constant time.
func ValidatePKCE(verifier, challenge, method string) bool {
	expected := verifier
	if method == "S256" {
		expected = ComputeS256Challenge(verifier)
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(challenge)) == 1
}
