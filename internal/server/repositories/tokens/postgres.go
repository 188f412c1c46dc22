// Package tokens provides a PostgreSQL-backed repository for the session
// token store. Rows are never deleted: revocation rewrites the expiration
// instant so the record stays behind as a tombstone.
package tokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/avorobjovs/tunepin/internal/common"
	"github.com/avorobjovs/tunepin/internal/dbx"
	"github.com/avorobjovs/tunepin/internal/server/models"
)

// PostgresRepository implements token storage over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new token row.
func (r *PostgresRepository) Create(ctx context.Context, token *models.Token) error {
	query := `
		INSERT INTO user_tokens (id, user_id, kind, token, expires_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := r.db.ExecContext(ctx, query,
		token.ID, token.UserID, token.Kind, token.Value, token.Expires); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Find returns the token row for the given opaque value, regardless of kind
// or expiration. If not found, it returns common.ErrorNotFound.
func (r *PostgresRepository) Find(ctx context.Context, value string) (*models.Token, error) {
	query := `
		SELECT id, user_id, kind, token, expires_at
		FROM user_tokens
		WHERE token = $1
	`
	token := &models.Token{}
	if err := r.db.QueryRowContext(ctx, query, value).Scan(
		&token.ID, &token.UserID, &token.Kind, &token.Value, &token.Expires); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return token, nil
}

// LatestValid returns the unexpired token of the given kind with the
// furthest-future expiration for userID, or common.ErrorNotFound when no
// valid token of that kind exists. Older valid tokens of the same kind are
// deliberately never selected.
func (r *PostgresRepository) LatestValid(ctx context.Context, userID string, kind models.TokenKind, now time.Time) (*models.Token, error) {
	query := `
		SELECT id, user_id, kind, token, expires_at
		FROM user_tokens
		WHERE user_id = $1 AND kind = $2 AND expires_at > $3
		ORDER BY expires_at DESC
		LIMIT 1
	`
	token := &models.Token{}
	if err := r.db.QueryRowContext(ctx, query, userID, kind, now).Scan(
		&token.ID, &token.UserID, &token.Kind, &token.Value, &token.Expires); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return token, nil
}

// Expire rewrites the expiration instant of the token with the given value.
// Touching a value that no longer matches any row affects nothing and is
// not an error, which keeps revocation idempotent.
func (r *PostgresRepository) Expire(ctx context.Context, value string, at time.Time) error {
	query := `
		UPDATE user_tokens
		SET expires_at = $2
		WHERE token = $1
	`
	if _, err := r.db.ExecContext(ctx, query, value, at); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
