// Package admin implements the maintenance commands shipped with the server
// binary distribution: seeding the catalog and creating users from the
// terminal.
package admin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/term"

	"github.com/avorobjovs/tunepin/internal/common"
	"github.com/avorobjovs/tunepin/internal/logging"
	"github.com/avorobjovs/tunepin/internal/server/config"
	"github.com/avorobjovs/tunepin/internal/server/models"
	"github.com/avorobjovs/tunepin/internal/server/repositories/repomanager"
	"github.com/avorobjovs/tunepin/internal/server/services"
)

// seedResources is the initial catalog shipped with a fresh installation.
var seedResources = []string{
	"BnSjnz_mSxk",
	"JvKjJeXrFvc",
	"gtmzPUmq7XU",
	"M5QY2_8704o",
	"wtg7AetxuWo",
	"X1uaOtiJ9Vc",
	"O6CyK4HJ2xU",
	"iAYMJk9IsDA",
	"waqxrK-EFI0",
}

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// sqlOpen is a seam for tests.
var sqlOpen = sql.Open

// Catalog is the slice of the catalog service the admin commands need.
type Catalog interface {
	AddItem(ctx context.Context, resourceType models.ResourceType, resourceID string) (*models.MusicItem, error)
}

// Auth is the slice of the auth service the admin commands need.
type Auth interface {
	Register(ctx context.Context, email, password string) (*models.User, error)
}

type App struct {
	db      *sql.DB
	catalog Catalog
	auth    Auth
	logger  logging.Logger
}

// NewApp opens the database, applies migrations and wires the services the
// admin commands run against.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	db, err := sqlOpen("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return &App{
		db:      db,
		catalog: services.NewCatalogService(db, rm, nil, logger, cfg),
		auth:    services.NewAuthService(db, rm, cfg),
		logger:  logger,
	}, nil
}

// Close releases the database connection.
func (app *App) Close() error {
	if app.db == nil {
		return nil
	}
	return app.db.Close()
}

// Seed inserts the initial catalog. Items that already exist are skipped, so
// running seed repeatedly is safe.
func (app *App) Seed(ctx context.Context) error {
	var added, skipped int
	for _, resourceID := range seedResources {
		_, err := app.catalog.AddItem(ctx, models.ResourceYouTube, resourceID)
		switch {
		case err == nil:
			added++
		case errors.Is(err, common.ErrorAlreadyExists):
			skipped++
		default:
			return fmt.Errorf("error seeding %q: %w", resourceID, err)
		}
	}
	app.logger.Info(ctx, "seed finished", "added", added, "skipped", skipped)
	return nil
}

// UserAdd creates a user, prompting for the password without echo.
func (app *App) UserAdd(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return common.ErrorInvalidRequest
	}

	fmt.Println("Enter password")
	password, err := readPassword(int(os.Stdin.Fd()))
	if err != nil {
		return fmt.Errorf("error reading password: %w", err)
	}
	if len(password) == 0 {
		return common.ErrorInvalidRequest
	}

	user, err := app.auth.Register(ctx, email, string(password))
	if err != nil {
		return fmt.Errorf("error creating user: %w", err)
	}
	app.logger.Info(ctx, "user created", "id", user.ID, "email", user.Email)
	return nil
}
