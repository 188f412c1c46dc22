// Package services contains server-side business logic. This file implements
// AuthService, which owns the whole session credential lifecycle: minting
// opaque tokens, deciding between reuse and rotation, verifying presented
// tokens, and revoking them.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/avorobjovs/tunepin/internal/common"
	"github.com/avorobjovs/tunepin/internal/dbx"
	"github.com/avorobjovs/tunepin/internal/server/config"
	"github.com/avorobjovs/tunepin/internal/server/models"
	"github.com/avorobjovs/tunepin/internal/server/repositories/repomanager"
	"github.com/avorobjovs/tunepin/internal/server/repositories/tokens"
)

const (
	// tokenRandomBytes is the entropy of an opaque token value before
	// base64 encoding (24 bytes = 192 bits).
	tokenRandomBytes = 24

	// revocationBackdate is how far into the past a revoked token's
	// expiration is rewritten. Keeping the row behind as a tombstone makes
	// "already revoked" distinguishable from "never existed".
	revocationBackdate = time.Second

	// legacyRenewalWindow applies in single-token mode, where the access
	// token itself plays the renewal-threshold role.
	legacyRenewalWindow = 60 * time.Second
)

// dummyPasswordHash is compared against when the principal does not exist,
// so that absent-user and wrong-password take the same time.
var dummyPasswordHash, _ = bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)

// TokenPair is the outcome of an issuance request. Refresh is nil unless a
// full rotation minted a new refresh token; on the reuse and access-only
// paths the caller keeps whatever refresh token it already holds.
type TokenPair struct {
	Access  *models.Token
	Refresh *models.Token
}

// AuthService provides authentication-related operations:
//   - Register: create principals
//   - VerifyPassword: check primary credentials
//   - IssueTokens: reuse or rotate the session token pair
//   - Verify: resolve a presented token to its principal
//   - Revoke / RevokeCurrent: invalidate tokens
//
// Rotation for a given principal is serialized with a per-principal mutex so
// two concurrent issuance requests cannot both decide to mint.
type AuthService struct {
	db                   *sql.DB
	repomanager          repomanager.RepositoryManager
	accessTTL            time.Duration
	refreshTTL           time.Duration
	refreshRenewalWindow time.Duration

	mu        sync.Mutex
	userLocks map[string]*sync.Mutex

	// now is a seam for tests that exercise expiry boundaries.
	now func() time.Time
}

// NewAuthService constructs an AuthService using repositories and server config.
func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *AuthService {
	return &AuthService{
		db:                   db,
		repomanager:          m,
		accessTTL:            cfg.AccessTokenTTL,
		refreshTTL:           cfg.RefreshTokenTTL,
		refreshRenewalWindow: cfg.RefreshRenewalWindow,
		userLocks:            make(map[string]*sync.Mutex),
		now:                  time.Now,
	}
}

// singleTokenMode reports whether the service runs in the legacy mode where
// only access-kind tokens exist.
func (s *AuthService) singleTokenMode() bool {
	return s.refreshTTL == 0
}

// lockUser serializes rotation per principal. The returned func releases the
// lock. The map keeps one mutex per principal for the process lifetime and is
// never pruned.
func (s *AuthService) lockUser(userID string) func() {
	s.mu.Lock()
	l, ok := s.userLocks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.userLocks[userID] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// Register creates a new principal with the given email and secret.
func (s *AuthService) Register(ctx context.Context, email, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, common.ErrorInternal
	}
	user := &models.User{ID: uuid.NewString(), Email: email, PasswordHash: string(hash)}
	repo := s.repomanager.Users(s.db)
	u, err := repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}

// VerifyPassword resolves a primary credential to its principal. Both an
// unknown email and a wrong password return an absence (nil, nil); only
// store failures produce an error.
func (s *AuthService) VerifyPassword(ctx context.Context, email, password string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// burn the same bcrypt cost as a real comparison
			_ = bcrypt.CompareHashAndPassword(dummyPasswordHash, []byte(password))
			return nil, nil
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil
	}
	return user, nil
}

// Verify resolves a presented token of the expected kind to its principal.
// Unknown, expired, and wrong-kind tokens all yield the same absence
// (nil, nil); Verify never writes to the store.
func (s *AuthService) Verify(ctx context.Context, value string, expectedKind models.TokenKind) (*models.User, error) {
	if value == "" {
		return nil, nil
	}
	repo := s.repomanager.Tokens(s.db)
	token, err := repo.Find(ctx, value)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("error searching token: %w", err)
	}
	if token.Kind != expectedKind {
		return nil, nil
	}
	if !token.Valid(s.now()) {
		return nil, nil
	}
	user, err := s.repomanager.Users(s.db).GetByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}
	return user, nil
}

// IssueTokens applies the rotation policy for the principal and returns the
// credential pair to hand out. With forceFullRotation=false the common hot
// path reuses the current access token without touching the store.
func (s *AuthService) IssueTokens(ctx context.Context, user *models.User, forceFullRotation bool) (*TokenPair, error) {
	unlock := s.lockUser(user.ID)
	defer unlock()

	if s.singleTokenMode() {
		return s.issueSingle(ctx, user, forceFullRotation)
	}

	now := s.now()
	repo := s.repomanager.Tokens(s.db)

	activeAccess, err := s.latestValid(ctx, user.ID, models.KindAccess, now)
	if err != nil {
		return nil, err
	}
	activeRefresh, err := s.latestValid(ctx, user.ID, models.KindRefresh, now)
	if err != nil {
		return nil, err
	}

	refreshHealthy := activeRefresh != nil && activeRefresh.Expires.After(now.Add(s.refreshRenewalWindow))

	// Rule 1: reuse. No store write on this path.
	if !forceFullRotation && refreshHealthy && activeAccess != nil {
		return &TokenPair{Access: activeAccess}, nil
	}

	// Rule 2: the refresh token is healthy but the access token lapsed,
	// so mint a replacement access token only.
	if !forceFullRotation && refreshHealthy {
		access, err := s.mintToken(ctx, repo, user.ID, models.KindAccess, s.accessTTL)
		if err != nil {
			return nil, err
		}
		return &TokenPair{Access: access}, nil
	}

	// Rule 3: full rotation. Revoke whatever is live, then mint a fresh
	// pair. Runs in one transaction so a failed mint never leaves the
	// principal with both tokens revoked and nothing issued.
	var pair *TokenPair
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repoTx := s.repomanager.Tokens(tx)
		if activeRefresh != nil {
			if err := repoTx.Expire(ctx, activeRefresh.Value, s.now().Add(-revocationBackdate)); err != nil {
				return fmt.Errorf("error revoking refresh token: %w", err)
			}
		}
		if activeAccess != nil {
			if err := repoTx.Expire(ctx, activeAccess.Value, s.now().Add(-revocationBackdate)); err != nil {
				return fmt.Errorf("error revoking access token: %w", err)
			}
		}
		refresh, err := s.mintToken(ctx, repoTx, user.ID, models.KindRefresh, s.refreshTTL)
		if err != nil {
			return err
		}
		access, err := s.mintToken(ctx, repoTx, user.ID, models.KindAccess, s.accessTTL)
		if err != nil {
			return err
		}
		pair = &TokenPair{Access: access, Refresh: refresh}
		return nil
	}); err != nil {
		return nil, err
	}
	return pair, nil
}

// issueSingle is the degenerate legacy policy: one access-kind token, reused
// while it has more than legacyRenewalWindow left, otherwise rotated.
func (s *AuthService) issueSingle(ctx context.Context, user *models.User, forceFullRotation bool) (*TokenPair, error) {
	now := s.now()

	active, err := s.latestValid(ctx, user.ID, models.KindAccess, now)
	if err != nil {
		return nil, err
	}
	if !forceFullRotation && active != nil && active.Expires.After(now.Add(legacyRenewalWindow)) {
		return &TokenPair{Access: active}, nil
	}

	var pair *TokenPair
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repoTx := s.repomanager.Tokens(tx)
		if active != nil {
			if err := repoTx.Expire(ctx, active.Value, s.now().Add(-revocationBackdate)); err != nil {
				return fmt.Errorf("error revoking access token: %w", err)
			}
		}
		access, err := s.mintToken(ctx, repoTx, user.ID, models.KindAccess, s.accessTTL)
		if err != nil {
			return err
		}
		pair = &TokenPair{Access: access}
		return nil
	}); err != nil {
		return nil, err
	}
	return pair, nil
}

// Revoke invalidates the given token by backdating its expiration. Revoking
// an already-revoked or expired token is a harmless no-op; a failed store
// write is surfaced, never swallowed.
func (s *AuthService) Revoke(ctx context.Context, token *models.Token) error {
	repo := s.repomanager.Tokens(s.db)
	if err := repo.Expire(ctx, token.Value, s.now().Add(-revocationBackdate)); err != nil {
		return fmt.Errorf("error revoking token: %w", err)
	}
	return nil
}

// RevokeCurrent invalidates the principal's current access and refresh
// tokens, if any (logout). Each revocation is independent and idempotent.
func (s *AuthService) RevokeCurrent(ctx context.Context, user *models.User) error {
	unlock := s.lockUser(user.ID)
	defer unlock()

	now := s.now()
	for _, kind := range []models.TokenKind{models.KindAccess, models.KindRefresh} {
		active, err := s.latestValid(ctx, user.ID, kind, now)
		if err != nil {
			return err
		}
		if active == nil {
			continue
		}
		if err := s.Revoke(ctx, active); err != nil {
			return err
		}
	}
	return nil
}

// --- helpers below ---

// latestValid returns the live token of a kind with the furthest expiration,
// or nil when the principal holds none.
func (s *AuthService) latestValid(ctx context.Context, userID string, kind models.TokenKind, now time.Time) (*models.Token, error) {
	token, err := s.repomanager.Tokens(s.db).LatestValid(ctx, userID, kind, now)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("error searching %s token: %w", kind, err)
	}
	return token, nil
}

// mintToken is the token factory: a fresh random opaque value with
// expiration now+ttl, persisted through the given repository handle.
func (s *AuthService) mintToken(ctx context.Context, repo tokens.Repository, userID string, kind models.TokenKind, ttl time.Duration) (*models.Token, error) {
	value, err := common.MakeRandBase64String(tokenRandomBytes)
	if err != nil {
		return nil, common.ErrorInternal
	}
	token := &models.Token{
		ID:      uuid.NewString(),
		UserID:  userID,
		Kind:    kind,
		Value:   value,
		Expires: s.now().Add(ttl),
	}
	if err := repo.Create(ctx, token); err != nil {
		return nil, fmt.Errorf("error creating %s token: %w", kind, err)
	}
	return token, nil
}
