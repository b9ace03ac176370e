// Package timeentries provides persistence for billable time entries.
// As with matters, every query carries the owner predicate explicitly.
package timeentries

import (
	"context"
	"time"

	"github.com/kappapiana/sentinel-solo/internal/models"
)

// Repository is the storage contract for time entries.
type Repository interface {
	// Create inserts a new entry and returns it with the assigned id.
	// Inserting a second open entry for one owner fails on the store's
	// partial unique index, which keeps the one-running-timer invariant even
	// under concurrent starts.
	Create(ctx context.Context, e *models.TimeEntry) (*models.TimeEntry, error)

	// GetByID returns the owner's entry or common.ErrNotFound.
	GetByID(ctx context.Context, ownerID, id int64) (*models.TimeEntry, error)

	// FindOpen returns the owner's running entry or common.ErrNotFound.
	FindOpen(ctx context.Context, ownerID int64) (*models.TimeEntry, error)

	// Close stamps the end time and duration on an open entry.
	Close(ctx context.Context, ownerID, id int64, end time.Time, durationSeconds float64) error

	// Update persists matter, description, times, duration and invoiced flag.
	Update(ctx context.Context, e *models.TimeEntry) error

	// Delete removes the owner's entry row.
	Delete(ctx context.Context, ownerID, id int64) error

	// DeleteByOwner removes every entry of one owner (user deletion).
	DeleteByOwner(ctx context.Context, ownerID int64) error

	// ListClosed returns all of the owner's closed entries, oldest first.
	ListClosed(ctx context.Context, ownerID int64) ([]*models.TimeEntry, error)

	// ListAll returns every entry of every owner (snapshot export only).
	ListAll(ctx context.Context) ([]*models.TimeEntry, error)

	// ListForRange returns the owner's entries with start_time in [from, to),
	// oldest first.
	ListForRange(ctx context.Context, ownerID int64, from, to time.Time) ([]*models.TimeEntry, error)

	// ListByMatters returns the owner's closed entries under the given
	// matter ids, optionally bounded to start_time in [from, to).
	ListByMatters(ctx context.Context, ownerID int64, matterIDs []int64, from, to *time.Time) ([]*models.TimeEntry, error)

	// ReassignMatter points every entry of fromMatterID at toMatterID
	// (merge support; runs inside the merge transaction).
	ReassignMatter(ctx context.Context, ownerID, fromMatterID, toMatterID int64) error

	// MarkInvoiced flips the invoiced flag on the given owner's entries.
	MarkInvoiced(ctx context.Context, ownerID int64, ids []int64) error

	// DeleteAll removes every entry row (snapshot restore only).
	DeleteAll(ctx context.Context) error

	// Import inserts an entry preserving its original ids.
	Import(ctx context.Context, e models.SnapshotTimeEntry) error
}
