// Package music provides PostgreSQL-backed repositories for the music
// catalog and per-user pins.
package music

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/avorobjovs/tunepin/internal/common"
	"github.com/avorobjovs/tunepin/internal/dbx"
	"github.com/avorobjovs/tunepin/internal/server/models"
)

const uniqueViolation = "23505"

// PostgresRepository implements catalog storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new catalog item. A duplicate (resource_type, resource_id)
// pair yields common.ErrorAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, item *models.MusicItem) error {
	query := `
		INSERT INTO music_items (id, resource_type, resource_id)
		VALUES ($1, $2, $3)
	`
	if _, err := r.db.ExecContext(ctx, query, item.ID, item.ResourceType, item.ResourceID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// GetByID returns the catalog item with the given ID, or common.ErrorNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.MusicItem, error) {
	query := `
		SELECT id, resource_type, resource_id, pin_count, listen_count
		FROM music_items
		WHERE id = $1
	`
	item := &models.MusicItem{}
	if err := r.db.QueryRowContext(ctx, query, id).Scan(
		&item.ID, &item.ResourceType, &item.ResourceID, &item.PinCount, &item.ListenCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return item, nil
}

// TopByPinCount returns up to limit items ranked by pin count, most pinned
// first.
func (r *PostgresRepository) TopByPinCount(ctx context.Context, limit int) ([]*models.MusicItem, error) {
	query := `
		SELECT id, resource_type, resource_id, pin_count, listen_count
		FROM music_items
		ORDER BY pin_count DESC, created_at
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// InsertPin records a pin for (userID, itemID). It reports whether a new row
// was inserted; pinning an already-pinned item affects nothing.
func (r *PostgresRepository) InsertPin(ctx context.Context, userID, itemID string) (bool, error) {
	query := `
		INSERT INTO user_pinned_music (user_id, music_item_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, query, userID, itemID)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return n == 1, nil
}

// DeletePin removes the pin for (userID, itemID) and reports whether a row
// was removed.
func (r *PostgresRepository) DeletePin(ctx context.Context, userID, itemID string) (bool, error) {
	query := `
		DELETE FROM user_pinned_music
		WHERE user_id = $1 AND music_item_id = $2
	`
	res, err := r.db.ExecContext(ctx, query, userID, itemID)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return n == 1, nil
}

// ListPinned returns the items pinned by userID, most recently created first.
func (r *PostgresRepository) ListPinned(ctx context.Context, userID string) ([]*models.MusicItem, error) {
	query := `
		SELECT m.id, m.resource_type, m.resource_id, m.pin_count, m.listen_count
		FROM music_items m
		JOIN user_pinned_music p ON p.music_item_id = m.id
		WHERE p.user_id = $1
		ORDER BY m.created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// AdjustPinCount shifts an item's pin counter by delta (positive or negative).
func (r *PostgresRepository) AdjustPinCount(ctx context.Context, itemID string, delta int64) error {
	query := `
		UPDATE music_items
		SET pin_count = pin_count + $2
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, itemID, delta); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// IncrementListenCount bumps an item's listen counter by one.
func (r *PostgresRepository) IncrementListenCount(ctx context.Context, itemID string) error {
	query := `
		UPDATE music_items
		SET listen_count = listen_count + 1
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, itemID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func scanItems(rows *sql.Rows) ([]*models.MusicItem, error) {
	var result []*models.MusicItem
	for rows.Next() {
		var item models.MusicItem
		if err := rows.Scan(
			&item.ID, &item.ResourceType, &item.ResourceID, &item.PinCount, &item.ListenCount,
		); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
