package repomanager

import (
	"context"
	"database/sql"

	"github.com/avorobjovs/tunepin/internal/dbx"
	"github.com/avorobjovs/tunepin/internal/server/repositories/music"
	"github.com/avorobjovs/tunepin/internal/server/repositories/tokens"
	"github.com/avorobjovs/tunepin/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Tokens(db dbx.DBTX) tokens.Repository
	Music(db dbx.DBTX) music.Repository
}
