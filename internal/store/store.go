// Package store defines the persistence interfaces consumed by the auth
// handlers and middleware, together with the sentinel errors shared by
// every implementation. The MySQL-backed implementation lives in
// internal/repository; an in-memory implementation suitable for tests
// is provided in this package.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/datahub-labs/auth-service/internal/model"
)

// ErrNotFound is returned when a user, token or authorization code does
// not exist. Handlers translate it into 401/404/invalid_grant depending
// on the call site.
var ErrNotFound = errors.New("not found")

// ErrUsernameExists is returned by CreateUser when the username is
// already taken. Handlers translate it into HTTP 409.
var ErrUsernameExists = errors.New("username already exists")

// UserStore persists account records. Usernames are unique; uniqueness
// is enforced by the store, not by callers.
type UserStore interface {
	// CreateUser inserts a new user with the given (already hashed)
	// password and returns the stored record including its generated id.
	CreateUser(ctx context.Context, username, passwordHash string) (model.User, error)
	// GetUserByUsername fetches a user by exact username.
	GetUserByUsername(ctx context.Context, username string) (model.User, error)
	// GetUserByID fetches a user by id.
	GetUserByID(ctx context.Context, id string) (model.User, error)
}

// TokenStore persists session token records, one per user.
type TokenStore interface {
	// UpsertToken stores the token for the user, replacing any prior
	// record. Concurrent logins by the same user race benignly: the
	// last writer wins.
	UpsertToken(ctx context.Context, userID, token string, expiresAt time.Time) error
	// FindToken returns the record holding exactly this token string.
	FindToken(ctx context.Context, token string) (model.SessionToken, error)
	// DeleteTokenByUser removes the user's token record, revoking the
	// session out-of-band of its cryptographic expiry. Deleting a
	// non-existent record is not an error.
	DeleteTokenByUser(ctx context.Context, userID string) error
}

// AuthCodeStore persists single-use authorization codes.
type AuthCodeStore interface {
	// CreateAuthCode inserts a new authorization code record.
	CreateAuthCode(ctx context.Context, code model.AuthCode) error
	// GetAuthCode fetches a code record by code string.
	GetAuthCode(ctx context.Context, code string) (model.AuthCode, error)
	// MarkAuthCodeUsed flips the used flag in a single conditional
	// update and reports whether this call performed the transition.
	// Exactly one of any number of concurrent calls for the same code
	// observes true; the rest observe false. Marking an unknown code
	// returns ErrNotFound.
	MarkAuthCodeUsed(ctx context.Context, code string) (bool, error)
}
