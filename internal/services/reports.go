package services

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/kappapiana/sentinel-solo/internal/common"
	"github.com/kappapiana/sentinel-solo/internal/dbx"
	"github.com/kappapiana/sentinel-solo/internal/logging"
	"github.com/kappapiana/sentinel-solo/internal/repositories/repomanager"
)

// ReportSortMode selects the client ordering of the report.
type ReportSortMode string

const (
	// SortByUninvoiced orders clients by not-yet-invoiced time, descending.
	SortByUninvoiced ReportSortMode = "uninvoiced"
	// SortByTotal orders clients by total time, descending.
	SortByTotal ReportSortMode = "total"
)

// MatterReportRow is the per-matter aggregate of the report. Amounts are nil
// when the matter's effective rate is undefined.
type MatterReportRow struct {
	MatterID          int64
	Path              string
	TotalSeconds      float64
	UninvoicedSeconds float64
	TotalAmount       *float64
	UninvoicedAmount  *float64
	RateSource        RateSource
}

// ClientReport groups the matter rows of one client with the client's own
// time totals.
type ClientReport struct {
	Client            string
	TotalSeconds      float64
	UninvoicedSeconds float64
	Matters           []*MatterReportRow
}

// TimesheetLine is one exported entry with its computed amount.
type TimesheetLine struct {
	EntryID     int64
	MatterID    int64
	Path        string
	Description string
	StartTime   time.Time
	EndTime     time.Time
	Seconds     float64
	Rate        *float64
	RateSource  RateSource
	Amount      *float64
	Invoiced    bool
}

// ReportService implements the aggregation engine: per-client/per-matter
// totals and the flat timesheet export.
type ReportService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

// NewReportService constructs a ReportService over the given store.
func NewReportService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *ReportService {
	return &ReportService{db: db, repomanager: m, logger: logger}
}

// TimeByClientAndMatter aggregates the owner's closed entries by matter,
// grouped under their root clients. The client is the first path segment,
// derived from the current tree on every call, so the report is consistent
// immediately after a move or merge. The rate source is resolved per matter,
// not per entry.
func (s *ReportService) TimeByClientAndMatter(ctx context.Context, scope Scope, sortMode ReportSortMode) ([]*ClientReport, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, scope.UserID)
	if err != nil {
		return nil, err
	}
	arena, err := loadArena(ctx, s.repomanager.Matters(s.db), scope.UserID)
	if err != nil {
		return nil, err
	}
	entries, err := s.repomanager.TimeEntries(s.db).ListClosed(ctx, scope.UserID)
	if err != nil {
		return nil, err
	}

	type acc struct {
		total      float64
		uninvoiced float64
	}
	byMatter := make(map[int64]*acc)
	for _, e := range entries {
		if _, ok := arena[e.MatterID]; !ok {
			return nil, common.Validationf("entry %d references unknown matter %d", e.ID, e.MatterID)
		}
		a := byMatter[e.MatterID]
		if a == nil {
			a = &acc{}
			byMatter[e.MatterID] = a
		}
		a.total += e.DurationSeconds
		if !e.Invoiced {
			a.uninvoiced += e.DurationSeconds
		}
	}

	byClient := make(map[string]*ClientReport)
	for matterID, a := range byMatter {
		path, err := fullPath(arena, matterID)
		if err != nil {
			return nil, err
		}
		root, err := rootOf(arena, matterID)
		if err != nil {
			return nil, err
		}
		rate, source, err := resolveRate(arena, user, matterID)
		if err != nil {
			return nil, err
		}

		row := &MatterReportRow{
			MatterID:          matterID,
			Path:              path,
			TotalSeconds:      a.total,
			UninvoicedSeconds: a.uninvoiced,
			TotalAmount:       amountFor(a.total, rate),
			UninvoicedAmount:  amountFor(a.uninvoiced, rate),
			RateSource:        source,
		}

		c := byClient[root.Name]
		if c == nil {
			c = &ClientReport{Client: root.Name}
			byClient[root.Name] = c
		}
		c.TotalSeconds += a.total
		c.UninvoicedSeconds += a.uninvoiced
		c.Matters = append(c.Matters, row)
	}

	out := make([]*ClientReport, 0, len(byClient))
	for _, c := range byClient {
		sort.Slice(c.Matters, func(i, j int) bool { return c.Matters[i].Path < c.Matters[j].Path })
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		var ki, kj float64
		if sortMode == SortByTotal {
			ki, kj = out[i].TotalSeconds, out[j].TotalSeconds
		} else {
			ki, kj = out[i].UninvoicedSeconds, out[j].UninvoicedSeconds
		}
		if ki != kj {
			return ki > kj
		}
		return out[i].Client < out[j].Client
	})
	return out, nil
}

// ExportTimesheet returns the owner's closed entries under the selected
// matters (descendants included), optionally bounded by a start-time range,
// each with its computed amount and rate source. With markInvoiced set, the
// invoiced flag is flipped on every returned entry in the same transaction
// that reads them; a preview never marks anything.
func (s *ReportService) ExportTimesheet(ctx context.Context, scope Scope, matterIDs []int64, from, to *time.Time, markInvoiced bool) ([]*TimesheetLine, error) {
	if len(matterIDs) == 0 {
		return nil, common.Validationf("at least one matter must be selected")
	}

	var lines []*TimesheetLine
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		user, err := s.repomanager.Users(tx).GetByID(ctx, scope.UserID)
		if err != nil {
			return err
		}
		arena, err := loadArena(ctx, s.repomanager.Matters(tx), scope.UserID)
		if err != nil {
			return err
		}
		selected, err := descendantIDs(arena, matterIDs)
		if err != nil {
			return err
		}

		entryRepo := s.repomanager.TimeEntries(tx)
		entries, err := entryRepo.ListByMatters(ctx, scope.UserID, selected, from, to)
		if err != nil {
			return err
		}

		paths := make(map[int64]string, len(selected))
		rates := make(map[int64]*float64, len(selected))
		sources := make(map[int64]RateSource, len(selected))
		for _, id := range selected {
			if paths[id], err = fullPath(arena, id); err != nil {
				return err
			}
			if rates[id], sources[id], err = resolveRate(arena, user, id); err != nil {
				return err
			}
		}

		ids := make([]int64, 0, len(entries))
		lines = make([]*TimesheetLine, 0, len(entries))
		for _, e := range entries {
			lines = append(lines, &TimesheetLine{
				EntryID:     e.ID,
				MatterID:    e.MatterID,
				Path:        paths[e.MatterID],
				Description: e.Description,
				StartTime:   e.StartTime,
				EndTime:     *e.EndTime,
				Seconds:     e.DurationSeconds,
				Rate:        rates[e.MatterID],
				RateSource:  sources[e.MatterID],
				Amount:      amountFor(e.DurationSeconds, rates[e.MatterID]),
				Invoiced:    e.Invoiced,
			})
			ids = append(ids, e.ID)
		}

		if markInvoiced && len(ids) > 0 {
			if err := entryRepo.MarkInvoiced(ctx, scope.UserID, ids); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if markInvoiced {
		s.logger.Info(ctx, "timesheet exported", "entries", len(lines), "marked_invoiced", true)
	}
	return lines, nil
}
