package repomanager

import (
	"database/sql"
	"strings"
)

// Open picks the storage backend from the DSN: postgres:// and postgresql://
// URLs go to PostgreSQL, anything else is treated as a SQLite file path
// (including ":memory:").
func Open(dsn string) (RepositoryManager, *sql.DB, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return NewPostgresRepositoryManager(dsn)
	}
	return NewSQLiteRepositoryManager(dsn)
}
