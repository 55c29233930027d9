package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/userservice/internal/dbx"
	"github.com/dmitrijs2005/userservice/internal/server/repositories/avatars"
	"github.com/dmitrijs2005/userservice/internal/server/repositories/settings"
	"github.com/dmitrijs2005/userservice/internal/server/repositories/signoutmarks"
	"github.com/dmitrijs2005/userservice/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so services can run
// the same repository against the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Settings(db dbx.DBTX) settings.Repository
	Avatars(db dbx.DBTX) avatars.Repository
	SignOutMarks(db dbx.DBTX) signoutmarks.Repository
}
