// Package repomanager selects and binds the per-aggregate repositories for
// one storage backend. Services obtain repositories bound either to the
// shared *sql.DB or to an in-flight transaction.
package repomanager

import (
	"context"

	"github.com/kappapiana/sentinel-solo/internal/dbx"
	"github.com/kappapiana/sentinel-solo/internal/repositories/matters"
	"github.com/kappapiana/sentinel-solo/internal/repositories/sessions"
	"github.com/kappapiana/sentinel-solo/internal/repositories/timeentries"
	"github.com/kappapiana/sentinel-solo/internal/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Users(db dbx.DBTX) users.Repository
	Matters(db dbx.DBTX) matters.Repository
	TimeEntries(db dbx.DBTX) timeentries.Repository
	Sessions(db dbx.DBTX) sessions.Repository

	// SyncIDSequences realigns id generators with the highest imported ids
	// after a snapshot restore. A no-op on backends whose generators follow
	// explicit-id inserts automatically.
	SyncIDSequences(ctx context.Context, db dbx.DBTX) error
}
