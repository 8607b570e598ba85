package utils // package utils provides helpers for session tokens, hashing and PKCE

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating and parsing signed tokens
)

// ErrTokenExpired is returned by ParseSessionToken when the token's
// signature is valid but its exp claim has passed. Callers use it to
// report "expired" distinctly from "otherwise invalid".
var ErrTokenExpired = errors.New("token expired")

// SessionToken represents a signed session JWT along with its expiry.
// The token string is opaque to callers: it is re-presented verbatim in
// a cookie or bearer header and never parsed outside this package.
type SessionToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// SessionClaims holds the claims extracted from a validated session
// token.
type SessionClaims struct {
	UserID   string // sub claim
	Username string // username convenience claim
}

// NewSessionToken builds and signs an HS256 JWT for a user. The claims
// are subject (sub = user id), issued at (iat), expiration (exp = iat +
// ttl) and a human-readable username. The same secret must be supplied
// when parsing.
func NewSessionToken(secret, userID, username string, ttl time.Duration) (SessionToken, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub":      userID,
		"username": username,
		"iat":      now.Unix(),
		"exp":      exp.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return SessionToken{}, err
	}
	return SessionToken{Token: signed, Exp: exp}, nil
}

// ParseSessionToken verifies the signature and expiry of a session JWT
// and returns its claims. The signing method must be HMAC; tokens signed
// with any other algorithm are rejected. Expired tokens return
// ErrTokenExpired; every other failure (malformed, wrong signature,
// wrong algorithm) returns a generic error.
func ParseSessionToken(secret, raw string) (SessionClaims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return SessionClaims{}, ErrTokenExpired
		}
		return SessionClaims{}, err
	}
	if !tok.Valid {
		return SessionClaims{}, errors.New("invalid token")
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return SessionClaims{}, errors.New("invalid claims")
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return SessionClaims{}, errors.New("missing sub claim")
	}
	username, _ := claims["username"].(string)
	return SessionClaims{UserID: sub, Username: username}, nil
}
