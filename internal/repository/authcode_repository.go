package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/datahub-labs/auth-service/internal/model"
	"github.com/datahub-labs/auth-service/internal/store"
)

// AuthCodeRepo persists authorization codes in the `auth_codes` table.
// Codes are never deleted; redeemed ones keep their used flag and
// expired ones age out harmlessly.
type AuthCodeRepo struct{ DB *sql.DB }

func NewAuthCodeRepo(db *sql.DB) *AuthCodeRepo { return &AuthCodeRepo{DB: db} }

// CreateAuthCode inserts a new authorization code record.
func (r *AuthCodeRepo) CreateAuthCode(ctx context.Context, c model.AuthCode) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO auth_codes
		 (code, user_id, client_id, redirect_uri, code_challenge, code_challenge_method, scope, created_at, expires_at, used)
		 VALUES (?,?,?,?,?,?,?,?,?,?)`,
		c.Code, c.UserID, c.ClientID, c.RedirectURI, c.CodeChallenge,
		c.CodeChallengeMethod, c.Scope, c.CreatedAt, c.ExpiresAt, c.Used)
	return err
}

// GetAuthCode fetches a code record by code string.
func (r *AuthCodeRepo) GetAuthCode(ctx context.Context, code string) (model.AuthCode, error) {
	var c model.AuthCode
	err := r.DB.QueryRowContext(ctx,
		`SELECT code, user_id, client_id, redirect_uri, code_challenge, code_challenge_method,
		        scope, created_at, expires_at, used
		 FROM auth_codes WHERE code=? LIMIT 1`,
		code).Scan(&c.Code, &c.UserID, &c.ClientID, &c.RedirectURI, &c.CodeChallenge,
		&c.CodeChallengeMethod, &c.Scope, &c.CreatedAt, &c.ExpiresAt, &c.Used)
	if errors.Is(err, sql.ErrNoRows) {
		return model.AuthCode{}, store.ErrNotFound
	}
	return c, err
}

// MarkAuthCodeUsed flips the used flag with a conditional UPDATE so
// that two concurrent redemptions of the same code cannot both succeed:
// the affected-row count tells the caller whether it won the race.
func (r *AuthCodeRepo) MarkAuthCodeUsed(ctx context.Context, code string) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE auth_codes SET used=1 WHERE code=? AND used=0", code)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if rows == 1 {
		return true, nil
	}
	// Zero rows touched: either already used or unknown.
	var exists int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM auth_codes WHERE code=? LIMIT 1", code).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, store.ErrNotFound
		}
		return false, err
	}
	return false, nil
}
