package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/kappapiana/sentinel-solo/internal/dbx"
	migrations "github.com/kappapiana/sentinel-solo/internal/migrations/sqlite"
	"github.com/kappapiana/sentinel-solo/internal/repositories/matters"
	"github.com/kappapiana/sentinel-solo/internal/repositories/sessions"
	"github.com/kappapiana/sentinel-solo/internal/repositories/timeentries"
	"github.com/kappapiana/sentinel-solo/internal/repositories/users"
)

// SQLiteRepositoryManager backs the default single-process deployment with
// an embedded SQLite file.
type SQLiteRepositoryManager struct {
	db *sql.DB
}

func NewSQLiteRepositoryManager(dsn string) (*SQLiteRepositoryManager, *sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("db open error: %w", err)
	}

	m := &SQLiteRepositoryManager{db: db}
	if err := m.RunMigrations(context.Background()); err != nil {
		return nil, nil, fmt.Errorf("migration error: %w", err)
	}

	return m, db, nil
}

func (m *SQLiteRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}

	return goose.UpContext(ctx, m.db, ".")
}

func (m *SQLiteRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) Matters(db dbx.DBTX) matters.Repository {
	return matters.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) TimeEntries(db dbx.DBTX) timeentries.Repository {
	return timeentries.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) Sessions(db dbx.DBTX) sessions.Repository {
	return sessions.NewSQLiteRepository(db)
}

// SyncIDSequences is a no-op: sqlite_sequence follows explicit-id inserts.
func (m *SQLiteRepositoryManager) SyncIDSequences(ctx context.Context, db dbx.DBTX) error {
	return nil
}
