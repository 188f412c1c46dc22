package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/avorobjovs/tunepin/internal/common"
	"github.com/avorobjovs/tunepin/internal/dbx"
	"github.com/avorobjovs/tunepin/internal/logging"
	"github.com/avorobjovs/tunepin/internal/server/cache"
	"github.com/avorobjovs/tunepin/internal/server/config"
	"github.com/avorobjovs/tunepin/internal/server/models"
	"github.com/avorobjovs/tunepin/internal/server/repositories/repomanager"
)

// defaultListCacheKey stores the serialized public list.
const defaultListCacheKey = "tunepin:music:default"

// CatalogService manages the music catalog: adding items, per-user pins,
// listen counters and the public default list. The default list is served
// from cache when one is configured; the cache may be nil.
type CatalogService struct {
	db           *sql.DB
	repomanager  repomanager.RepositoryManager
	cache        cache.Cache
	logger       logging.Logger
	listLimit    int
	listCacheTTL time.Duration
}

// NewCatalogService constructs a CatalogService. c may be nil to disable
// caching of the default list.
func NewCatalogService(db *sql.DB, m repomanager.RepositoryManager, c cache.Cache, logger logging.Logger, cfg *config.Config) *CatalogService {
	return &CatalogService{
		db:           db,
		repomanager:  m,
		cache:        c,
		logger:       logger,
		listLimit:    cfg.DefaultListLimit,
		listCacheTTL: cfg.DefaultListCacheTTL,
	}
}

// AddItem registers a new music resource in the catalog.
func (s *CatalogService) AddItem(ctx context.Context, resourceType models.ResourceType, resourceID string) (*models.MusicItem, error) {
	if !models.KnownResourceType(resourceType) || resourceID == "" {
		return nil, common.ErrorInvalidRequest
	}
	item := &models.MusicItem{
		ID:           uuid.NewString(),
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
	if err := s.repomanager.Music(s.db).Create(ctx, item); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("error creating music item: %w", err)
	}
	s.invalidateDefaultList(ctx)
	return item, nil
}

// GetItem returns a catalog item by ID.
func (s *CatalogService) GetItem(ctx context.Context, id string) (*models.MusicItem, error) {
	item, err := s.repomanager.Music(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error searching music item: %w", err)
	}
	return item, nil
}

// DefaultList returns the public list of items ranked by pin count, serving
// from cache when possible.
func (s *CatalogService) DefaultList(ctx context.Context) ([]*models.MusicItem, error) {
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, defaultListCacheKey); err == nil {
			var items []*models.MusicItem
			if err := json.Unmarshal([]byte(raw), &items); err == nil {
				return items, nil
			}
			// a corrupt entry is dropped and rebuilt from the database
			_ = s.cache.Del(ctx, defaultListCacheKey)
		}
	}

	items, err := s.repomanager.Music(s.db).TopByPinCount(ctx, s.listLimit)
	if err != nil {
		return nil, fmt.Errorf("error listing music items: %w", err)
	}

	if s.cache != nil {
		if raw, err := json.Marshal(items); err == nil {
			if err := s.cache.Set(ctx, defaultListCacheKey, raw, s.listCacheTTL); err != nil {
				s.logger.Warn(ctx, "failed to cache default list", "error", err)
			}
		}
	}
	return items, nil
}

// Pin records a pin by userID on the given item. Pinning an already-pinned
// item changes nothing. Returns the item with its current pin count.
func (s *CatalogService) Pin(ctx context.Context, userID, itemID string) (*models.MusicItem, error) {
	var item *models.MusicItem
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Music(tx)
		if _, err := repo.GetByID(ctx, itemID); err != nil {
			return err
		}
		inserted, err := repo.InsertPin(ctx, userID, itemID)
		if err != nil {
			return err
		}
		if inserted {
			if err := repo.AdjustPinCount(ctx, itemID, 1); err != nil {
				return err
			}
		}
		var err2 error
		item, err2 = repo.GetByID(ctx, itemID)
		return err2
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error pinning music item: %w", err)
	}
	s.invalidateDefaultList(ctx)
	return item, nil
}

// Unpin removes userID's pin from the given item. Unpinning an item that was
// never pinned is a no-op.
func (s *CatalogService) Unpin(ctx context.Context, userID, itemID string) (*models.MusicItem, error) {
	var item *models.MusicItem
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Music(tx)
		if _, err := repo.GetByID(ctx, itemID); err != nil {
			return err
		}
		removed, err := repo.DeletePin(ctx, userID, itemID)
		if err != nil {
			return err
		}
		if removed {
			if err := repo.AdjustPinCount(ctx, itemID, -1); err != nil {
				return err
			}
		}
		var err2 error
		item, err2 = repo.GetByID(ctx, itemID)
		return err2
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error unpinning music item: %w", err)
	}
	s.invalidateDefaultList(ctx)
	return item, nil
}

// ListPinned returns the items pinned by userID.
func (s *CatalogService) ListPinned(ctx context.Context, userID string) ([]*models.MusicItem, error) {
	items, err := s.repomanager.Music(s.db).ListPinned(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing pinned items: %w", err)
	}
	return items, nil
}

// RegisterListen bumps the listen counter of the given item.
func (s *CatalogService) RegisterListen(ctx context.Context, itemID string) error {
	repo := s.repomanager.Music(s.db)
	if _, err := repo.GetByID(ctx, itemID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("error searching music item: %w", err)
	}
	if err := repo.IncrementListenCount(ctx, itemID); err != nil {
		return fmt.Errorf("error counting listen: %w", err)
	}
	return nil
}

// invalidateDefaultList drops the cached public list after a write that may
// change its contents or ordering.
func (s *CatalogService) invalidateDefaultList(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, defaultListCacheKey); err != nil {
		s.logger.Warn(ctx, "failed to invalidate default list cache", "error", err)
	}
}
