// Package matters provides persistence for the matter forest. Every query
// carries the owner predicate explicitly; the visibility rule lives at the
// data-access boundary, not in caller discipline.
package matters

import (
	"context"

	"github.com/kappapiana/sentinel-solo/internal/models"
)

// Repository is the storage contract for matters.
type Repository interface {
	// Create inserts a new matter and returns it with the assigned id.
	Create(ctx context.Context, m *models.Matter) (*models.Matter, error)

	// GetByID returns the matter with the given id if it belongs to ownerID,
	// common.ErrNotFound otherwise (out-of-scope looks identical to absent).
	GetByID(ctx context.Context, ownerID, id int64) (*models.Matter, error)

	// ListByOwner returns every matter of the owner ordered by code. The
	// result is the arena the hierarchy walks operate on.
	ListByOwner(ctx context.Context, ownerID int64) ([]*models.Matter, error)

	// ListAll returns every matter of every owner (snapshot export only).
	ListAll(ctx context.Context) ([]*models.Matter, error)

	// CodeExists reports whether the owner already uses the given code.
	CodeExists(ctx context.Context, ownerID int64, code string) (bool, error)

	// Update persists name, code and hourly rate for an owner's matter.
	Update(ctx context.Context, m *models.Matter) error

	// UpdateParent reparents an owner's matter. Only the parent link of the
	// moved node changes; time entries are untouched.
	UpdateParent(ctx context.Context, ownerID, id int64, parentID *int64) error

	// Delete removes an owner's matter row.
	Delete(ctx context.Context, ownerID, id int64) error

	// DeleteByOwner removes every matter of one owner (user deletion).
	DeleteByOwner(ctx context.Context, ownerID int64) error

	// DeleteAll removes every matter row (snapshot restore only).
	DeleteAll(ctx context.Context) error

	// Import inserts a matter preserving its original id and parent link.
	Import(ctx context.Context, m models.SnapshotMatter) error
}
