package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kappapiana/sentinel-solo/internal/common"
	"github.com/kappapiana/sentinel-solo/internal/dbx"
	"github.com/kappapiana/sentinel-solo/internal/logging"
	"github.com/kappapiana/sentinel-solo/internal/models"
	"github.com/kappapiana/sentinel-solo/internal/repositories/repomanager"
)

// now is a seam for tests needing a deterministic clock.
var now = time.Now

// TimeEntryService implements the timer lifecycle and manual entry editing.
type TimeEntryService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

// NewTimeEntryService constructs a TimeEntryService over the given store.
func NewTimeEntryService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *TimeEntryService {
	return &TimeEntryService{db: db, repomanager: m, logger: logger}
}

// requireLoggable returns the matter if it is visible to the scope owner and
// is not a root client.
func requireLoggable(ctx context.Context, repo interface {
	GetByID(ctx context.Context, ownerID, id int64) (*models.Matter, error)
}, scope Scope, matterID int64) (*models.Matter, error) {
	m, err := repo.GetByID(ctx, scope.UserID, matterID)
	if err != nil {
		return nil, err
	}
	if m.IsRoot() {
		return nil, fmt.Errorf("%w: time cannot be logged on a client", common.ErrInvalidOperation)
	}
	return m, nil
}

// StartTimer opens a running entry on the given matter. At most one entry
// per owner may be open; a second start fails instead of stacking. The
// existence check runs in the same transaction as the insert, and the
// store's partial unique index backs it up against concurrent starts from
// other connections.
func (s *TimeEntryService) StartTimer(ctx context.Context, scope Scope, matterID int64, description string) (*models.TimeEntry, error) {
	var created *models.TimeEntry
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := requireLoggable(ctx, s.repomanager.Matters(tx), scope, matterID); err != nil {
			return err
		}

		entries := s.repomanager.TimeEntries(tx)
		if _, err := entries.FindOpen(ctx, scope.UserID); err == nil {
			return fmt.Errorf("%w: a timer is already running", common.ErrInvalidOperation)
		} else if !errors.Is(err, common.ErrNotFound) {
			return err
		}

		var err error
		created, err = entries.Create(ctx, &models.TimeEntry{
			OwnerID:     scope.UserID,
			MatterID:    matterID,
			Description: description,
			StartTime:   now().UTC(),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "timer started", "entry", created.ID, "matter", matterID)
	return created, nil
}

// StopTimer closes the owner's running entry, stamping the end time and the
// derived duration. With no running entry it fails with ErrNotFound.
func (s *TimeEntryService) StopTimer(ctx context.Context, scope Scope) (*models.TimeEntry, error) {
	var stopped *models.TimeEntry
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		entries := s.repomanager.TimeEntries(tx)
		open, err := entries.FindOpen(ctx, scope.UserID)
		if err != nil {
			return err
		}

		end := now().UTC()
		duration := end.Sub(open.StartTime).Seconds()
		if err := entries.Close(ctx, scope.UserID, open.ID, end, duration); err != nil {
			return err
		}

		open.EndTime = &end
		open.DurationSeconds = duration
		stopped = open
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "timer stopped", "entry", stopped.ID, "seconds", stopped.DurationSeconds)
	return stopped, nil
}

// ContinueEntry opens a new running entry on the same matter and description
// as a previous one, linked to it through the activity group. The group id
// is the first entry of the activity: the predecessor's group when it has
// one, the predecessor's own id otherwise.
func (s *TimeEntryService) ContinueEntry(ctx context.Context, scope Scope, entryID int64) (*models.TimeEntry, error) {
	var created *models.TimeEntry
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		entries := s.repomanager.TimeEntries(tx)

		prev, err := entries.GetByID(ctx, scope.UserID, entryID)
		if err != nil {
			return err
		}
		if prev.Open() {
			return fmt.Errorf("%w: entry is still running", common.ErrInvalidOperation)
		}

		if _, err := entries.FindOpen(ctx, scope.UserID); err == nil {
			return fmt.Errorf("%w: a timer is already running", common.ErrInvalidOperation)
		} else if !errors.Is(err, common.ErrNotFound) {
			return err
		}

		groupID := prev.ID
		if prev.ActivityGroupID != nil {
			groupID = *prev.ActivityGroupID
		}

		created, err = entries.Create(ctx, &models.TimeEntry{
			OwnerID:         scope.UserID,
			MatterID:        prev.MatterID,
			Description:     prev.Description,
			StartTime:       now().UTC(),
			ActivityGroupID: &groupID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "entry continued", "from", entryID, "entry", created.ID)
	return created, nil
}

// AddManualEntry records a closed entry from an explicit start plus either
// an end time or a duration (exactly one of the two).
func (s *TimeEntryService) AddManualEntry(ctx context.Context, scope Scope, matterID int64, start time.Time, end *time.Time, durationSeconds *float64, description string) (*models.TimeEntry, error) {
	if (end == nil) == (durationSeconds == nil) {
		return nil, common.Validationf("exactly one of end time or duration is required")
	}

	start = start.UTC()
	var endTime time.Time
	if end != nil {
		endTime = end.UTC()
	} else {
		if *durationSeconds <= 0 {
			return nil, common.Validationf("duration must be positive")
		}
		endTime = start.Add(time.Duration(*durationSeconds * float64(time.Second)))
	}
	if !endTime.After(start) {
		return nil, common.Validationf("end time must be after start time")
	}
	duration := endTime.Sub(start).Seconds()

	var created *models.TimeEntry
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := requireLoggable(ctx, s.repomanager.Matters(tx), scope, matterID); err != nil {
			return err
		}

		var err error
		created, err = s.repomanager.TimeEntries(tx).Create(ctx, &models.TimeEntry{
			OwnerID:         scope.UserID,
			MatterID:        matterID,
			Description:     description,
			StartTime:       start,
			EndTime:         &endTime,
			DurationSeconds: duration,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateEntryParams carries the optional field updates for UpdateEntry.
// Nil fields are left unchanged.
type UpdateEntryParams struct {
	MatterID    *int64
	Description *string
	StartTime   *time.Time
	EndTime     *time.Time
	Invoiced    *bool
}

// UpdateEntry edits one of the scope owner's entries. Changing either
// timestamp on a closed entry recomputes the duration; moving the entry to
// another matter requires the target to be a loggable matter in scope.
func (s *TimeEntryService) UpdateEntry(ctx context.Context, scope Scope, entryID int64, params UpdateEntryParams) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		entries := s.repomanager.TimeEntries(tx)
		e, err := entries.GetByID(ctx, scope.UserID, entryID)
		if err != nil {
			return err
		}

		if params.MatterID != nil {
			if _, err := requireLoggable(ctx, s.repomanager.Matters(tx), scope, *params.MatterID); err != nil {
				return err
			}
			e.MatterID = *params.MatterID
		}
		if params.Description != nil {
			e.Description = *params.Description
		}
		if params.StartTime != nil {
			e.StartTime = params.StartTime.UTC()
		}
		if params.EndTime != nil {
			end := params.EndTime.UTC()
			e.EndTime = &end
		}
		if params.Invoiced != nil {
			e.Invoiced = *params.Invoiced
		}

		if e.EndTime != nil {
			if !e.EndTime.After(e.StartTime) {
				return common.Validationf("end time must be after start time")
			}
			e.DurationSeconds = e.EndTime.Sub(e.StartTime).Seconds()
		}

		return entries.Update(ctx, e)
	})
}

// DeleteEntry removes one of the scope owner's entries.
func (s *TimeEntryService) DeleteEntry(ctx context.Context, scope Scope, entryID int64) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		entries := s.repomanager.TimeEntries(tx)
		if _, err := entries.GetByID(ctx, scope.UserID, entryID); err != nil {
			return err
		}
		return entries.Delete(ctx, scope.UserID, entryID)
	})
}

// GetRunningEntry returns the owner's open entry, or ErrNotFound when no
// timer is running.
func (s *TimeEntryService) GetRunningEntry(ctx context.Context, scope Scope) (*models.TimeEntry, error) {
	return s.repomanager.TimeEntries(s.db).FindOpen(ctx, scope.UserID)
}

// EntriesForDay returns the owner's entries starting within the given
// calendar day, in the day's own location.
func (s *TimeEntryService) EntriesForDay(ctx context.Context, scope Scope, day time.Time) ([]*models.TimeEntry, error) {
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	to := from.Add(24 * time.Hour)
	return s.repomanager.TimeEntries(s.db).ListForRange(ctx, scope.UserID, from.UTC(), to.UTC())
}
