package tokens

import (
	"context"
	"time"

	"github.com/avorobjovs/tunepin/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, token *models.Token) error
	Find(ctx context.Context, value string) (*models.Token, error)
	LatestValid(ctx context.Context, userID string, kind models.TokenKind, now time.Time) (*models.Token, error)
	Expire(ctx context.Context, value string, at time.Time) error
}
