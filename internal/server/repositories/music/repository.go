package music

import (
	"context"

	"github.com/avorobjovs/tunepin/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, item *models.MusicItem) error
	GetByID(ctx context.Context, id string) (*models.MusicItem, error)
	TopByPinCount(ctx context.Context, limit int) ([]*models.MusicItem, error)
	InsertPin(ctx context.Context, userID, itemID string) (bool, error)
	DeletePin(ctx context.Context, userID, itemID string) (bool, error)
	ListPinned(ctx context.Context, userID string) ([]*models.MusicItem, error)
	AdjustPinCount(ctx context.Context, itemID string, delta int64) error
	IncrementListenCount(ctx context.Context, itemID string) error
}
