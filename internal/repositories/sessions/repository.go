// Package sessions provides persistence for revocable login sessions.
// A session row backs the jti claim of an issued token; deleting the row
// kills the token. Snapshot import deletes all rows so every live session
// must re-authenticate against the restored dataset.
package sessions

import (
	"context"

	"github.com/kappapiana/sentinel-solo/internal/models"
)

// Repository is the storage contract for sessions.
type Repository interface {
	// Create inserts a new session row.
	Create(ctx context.Context, s *models.Session) error

	// Get returns the session with the given id or common.ErrNotFound.
	Get(ctx context.Context, id string) (*models.Session, error)

	// Delete removes one session (logout).
	Delete(ctx context.Context, id string) error

	// DeleteForUser removes every session of one user (user deletion).
	DeleteForUser(ctx context.Context, userID int64) error

	// DeleteAll removes every session (snapshot restore).
	DeleteAll(ctx context.Context) error
}
