// Package httpapi exposes the service over JSON/HTTP: a gorilla/mux router,
// per-route token-kind middleware and thin handlers delegating to the
// service layer.
package httpapi

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/avorobjovs/tunepin/internal/logging"
	"github.com/avorobjovs/tunepin/internal/server/models"
	"github.com/avorobjovs/tunepin/internal/server/services"
)

// AuthService is the slice of the auth service the HTTP layer needs.
type AuthService interface {
	Register(ctx context.Context, email, password string) (*models.User, error)
	VerifyPassword(ctx context.Context, email, password string) (*models.User, error)
	IssueTokens(ctx context.Context, user *models.User, forceFullRotation bool) (*services.TokenPair, error)
	Verify(ctx context.Context, value string, kind models.TokenKind) (*models.User, error)
	RevokeCurrent(ctx context.Context, user *models.User) error
}

// CatalogService is the slice of the catalog service the HTTP layer needs.
type CatalogService interface {
	AddItem(ctx context.Context, resourceType models.ResourceType, resourceID string) (*models.MusicItem, error)
	DefaultList(ctx context.Context) ([]*models.MusicItem, error)
	Pin(ctx context.Context, userID, itemID string) (*models.MusicItem, error)
	Unpin(ctx context.Context, userID, itemID string) (*models.MusicItem, error)
	ListPinned(ctx context.Context, userID string) ([]*models.MusicItem, error)
	RegisterListen(ctx context.Context, itemID string) error
}

// Server ties handlers to services.
type Server struct {
	auth    AuthService
	catalog CatalogService
	logger  logging.Logger
}

func NewServer(auth AuthService, catalog CatalogService, logger logging.Logger) *Server {
	return &Server{auth: auth, catalog: catalog, logger: logger}
}

// Router builds the route table. Each protected route names the token kind
// it accepts; only the refresh endpoint takes refresh-kind tokens.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/users", s.handleSignup).Methods(http.MethodPost)
	api.Handle("/users/{id}", s.requireToken(models.KindAccess, s.handleGetUser)).Methods(http.MethodGet)

	api.HandleFunc("/tokens", s.handleCreateTokens).Methods(http.MethodPost)
	api.Handle("/tokens/refresh", s.requireToken(models.KindRefresh, s.handleRefreshTokens)).Methods(http.MethodPost)
	api.Handle("/tokens", s.requireToken(models.KindAccess, s.handleDeleteTokens)).Methods(http.MethodDelete)

	api.HandleFunc("/music/default", s.handleDefaultList).Methods(http.MethodGet)
	api.Handle("/music", s.requireToken(models.KindAccess, s.handleAddItem)).Methods(http.MethodPost)
	api.Handle("/music/pinned", s.requireToken(models.KindAccess, s.handleListPinned)).Methods(http.MethodGet)
	api.Handle("/music/{id}/pin", s.requireToken(models.KindAccess, s.handlePin)).Methods(http.MethodPost)
	api.Handle("/music/{id}/pin", s.requireToken(models.KindAccess, s.handleUnpin)).Methods(http.MethodDelete)
	api.Handle("/music/{id}/listen", s.requireToken(models.KindAccess, s.handleListen)).Methods(http.MethodPost)

	return r
}
