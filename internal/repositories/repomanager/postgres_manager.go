package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/kappapiana/sentinel-solo/internal/dbx"
	migrations "github.com/kappapiana/sentinel-solo/internal/migrations/postgres"
	"github.com/kappapiana/sentinel-solo/internal/repositories/matters"
	"github.com/kappapiana/sentinel-solo/internal/repositories/sessions"
	"github.com/kappapiana/sentinel-solo/internal/repositories/timeentries"
	"github.com/kappapiana/sentinel-solo/internal/repositories/users"
)

// PostgresRepositoryManager backs the shared remote-database mode, where
// several processes use one PostgreSQL instance.
type PostgresRepositoryManager struct {
	db *sql.DB
}

func NewPostgresRepositoryManager(dsn string) (*PostgresRepositoryManager, *sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("db open error: %w", err)
	}

	m := &PostgresRepositoryManager{db: db}
	if err := m.RunMigrations(context.Background()); err != nil {
		return nil, nil, fmt.Errorf("migration error: %w", err)
	}

	return m, db, nil
}

func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	return goose.UpContext(ctx, m.db, ".")
}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Matters(db dbx.DBTX) matters.Repository {
	return matters.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) TimeEntries(db dbx.DBTX) timeentries.Repository {
	return timeentries.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Sessions(db dbx.DBTX) sessions.Repository {
	return sessions.NewPostgresRepository(db)
}

// SyncIDSequences moves the serial sequences past the highest imported id
// so post-restore inserts do not collide with restored rows.
func (m *PostgresRepositoryManager) SyncIDSequences(ctx context.Context, db dbx.DBTX) error {
	for _, table := range []string{"users", "matters", "time_entries"} {
		query := fmt.Sprintf(
			`SELECT setval(pg_get_serial_sequence('%s', 'id'), COALESCE((SELECT MAX(id) FROM %s), 0) + 1, false)`,
			table, table)
		if _, err := db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("sequence sync error for %s: %w", table, err)
		}
	}
	return nil
}
