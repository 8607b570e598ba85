package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/datahub-labs/auth-service/internal/model"
	"github.com/datahub-labs/auth-service/internal/store"
)

// TokenRepo persists session tokens in the `session_tokens` table. The
// table is keyed by user_id so a login replaces the user's previous
// token in a single statement.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// UpsertToken stores the token for the user, replacing any prior row.
func (r *TokenRepo) UpsertToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO session_tokens (user_id, token, expires_at) VALUES (?,?,?)
		 ON DUPLICATE KEY UPDATE token=VALUES(token), expires_at=VALUES(expires_at)`,
		userID, token, expiresAt)
	return err
}

// FindToken returns the record holding exactly this token string. The
// lookup is the revocation check performed once per protected request.
func (r *TokenRepo) FindToken(ctx context.Context, token string) (model.SessionToken, error) {
	var t model.SessionToken
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id, token, expires_at FROM session_tokens WHERE token=? LIMIT 1",
		token).Scan(&t.UserID, &t.Token, &t.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.SessionToken{}, store.ErrNotFound
	}
	return t, err
}

// DeleteTokenByUser removes the user's token record. Logout calls this
// so that a captured bearer token stops authenticating immediately.
func (r *TokenRepo) DeleteTokenByUser(ctx context.Context, userID string) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM session_tokens WHERE user_id=?", userID)
	return err
}
