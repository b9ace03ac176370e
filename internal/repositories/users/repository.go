// Package users provides user account persistence. Account rows are the
// ownership anchors for every matter and time entry; admin-only operations
// (list, create, update, delete, snapshot import) go through this package.
package users

import (
	"context"

	"github.com/kappapiana/sentinel-solo/internal/models"
)

// Repository is the storage contract for user accounts.
type Repository interface {
	// Create inserts a new user and returns it with the assigned id.
	Create(ctx context.Context, u *models.User) (*models.User, error)

	// GetByID returns the user with the given id or common.ErrNotFound.
	GetByID(ctx context.Context, id int64) (*models.User, error)

	// GetByUsername returns the user with the given username or
	// common.ErrNotFound.
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// List returns all users ordered by username.
	List(ctx context.Context) ([]*models.User, error)

	// Update persists username, admin flag and default hourly rate.
	Update(ctx context.Context, u *models.User) error

	// UpdatePassword replaces the stored credential hash.
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error

	// Delete removes the user row.
	Delete(ctx context.Context, id int64) error

	// Count returns the number of users (zero means first-run bootstrap).
	Count(ctx context.Context) (int, error)

	// DeleteAll removes every user row (snapshot restore only).
	DeleteAll(ctx context.Context) error

	// Import inserts a user preserving its original id (snapshot restore).
	Import(ctx context.Context, u models.SnapshotUser) error
}
