package timeentries

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kappapiana/sentinel-solo/internal/common"
	"github.com/kappapiana/sentinel-solo/internal/dbx"
	"github.com/kappapiana/sentinel-solo/internal/models"
)

// PostgresRepository implements Repository over a dbx.DBTX for the shared
// remote-database mode.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, e *models.TimeEntry) (*models.TimeEntry, error) {
	query := `INSERT INTO time_entries
		(owner_id, matter_id, description, start_time, end_time, duration_seconds, invoiced, activity_group_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	row := r.db.QueryRowContext(ctx, query,
		e.OwnerID, e.MatterID, e.Description, e.StartTime, nullTime(e.EndTime),
		e.DurationSeconds, e.Invoiced, nullInt(e.ActivityGroupID))
	if err := row.Scan(&e.ID); err != nil {
		return nil, common.StoreErr(err)
	}
	return e, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, ownerID, id int64) (*models.TimeEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM time_entries WHERE owner_id = $1 AND id = $2`
	return scanEntryRow(r.db.QueryRowContext(ctx, query, ownerID, id))
}

func (r *PostgresRepository) FindOpen(ctx context.Context, ownerID int64) (*models.TimeEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM time_entries
		WHERE owner_id = $1 AND end_time IS NULL
		ORDER BY start_time DESC LIMIT 1`
	return scanEntryRow(r.db.QueryRowContext(ctx, query, ownerID))
}

func (r *PostgresRepository) Close(ctx context.Context, ownerID, id int64, end time.Time, durationSeconds float64) error {
	query := `UPDATE time_entries SET end_time = $1, duration_seconds = $2
		WHERE owner_id = $3 AND id = $4 AND end_time IS NULL`
	return expectOneRow(r.db.ExecContext(ctx, query, end, durationSeconds, ownerID, id))
}

func (r *PostgresRepository) Update(ctx context.Context, e *models.TimeEntry) error {
	query := `UPDATE time_entries SET matter_id = $1, description = $2, start_time = $3,
		end_time = $4, duration_seconds = $5, invoiced = $6
		WHERE owner_id = $7 AND id = $8`
	return expectOneRow(r.db.ExecContext(ctx, query,
		e.MatterID, e.Description, e.StartTime, nullTime(e.EndTime),
		e.DurationSeconds, e.Invoiced, e.OwnerID, e.ID))
}

func (r *PostgresRepository) Delete(ctx context.Context, ownerID, id int64) error {
	query := `DELETE FROM time_entries WHERE owner_id = $1 AND id = $2`
	return expectOneRow(r.db.ExecContext(ctx, query, ownerID, id))
}

func (r *PostgresRepository) ListClosed(ctx context.Context, ownerID int64) ([]*models.TimeEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM time_entries
		WHERE owner_id = $1 AND end_time IS NOT NULL
		ORDER BY start_time`
	return r.queryEntries(ctx, query, ownerID)
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]*models.TimeEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM time_entries ORDER BY id`
	return r.queryEntries(ctx, query)
}

func (r *PostgresRepository) ListForRange(ctx context.Context, ownerID int64, from, to time.Time) ([]*models.TimeEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM time_entries
		WHERE owner_id = $1 AND start_time >= $2 AND start_time < $3
		ORDER BY start_time`
	return r.queryEntries(ctx, query, ownerID, from, to)
}

func (r *PostgresRepository) ListByMatters(ctx context.Context, ownerID int64, matterIDs []int64, from, to *time.Time) ([]*models.TimeEntry, error) {
	if len(matterIDs) == 0 {
		return nil, nil
	}
	args := []any{ownerID}
	for _, id := range matterIDs {
		args = append(args, id)
	}
	query := `SELECT ` + entryColumns + ` FROM time_entries
		WHERE owner_id = $1 AND end_time IS NOT NULL
		AND matter_id IN (` + pgPlaceholders(2, len(matterIDs)) + `)`
	if from != nil {
		args = append(args, *from)
		query += fmt.Sprintf(` AND start_time >= $%d`, len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += fmt.Sprintf(` AND start_time < $%d`, len(args))
	}
	query += ` ORDER BY start_time`
	return r.queryEntries(ctx, query, args...)
}

func (r *PostgresRepository) ReassignMatter(ctx context.Context, ownerID, fromMatterID, toMatterID int64) error {
	query := `UPDATE time_entries SET matter_id = $1 WHERE owner_id = $2 AND matter_id = $3`
	if _, err := r.db.ExecContext(ctx, query, toMatterID, ownerID, fromMatterID); err != nil {
		return common.StoreErr(err)
	}
	return nil
}

func (r *PostgresRepository) MarkInvoiced(ctx context.Context, ownerID int64, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	args := []any{ownerID}
	for _, id := range ids {
		args = append(args, id)
	}
	query := `UPDATE time_entries SET invoiced = TRUE
		WHERE owner_id = $1 AND id IN (` + pgPlaceholders(2, len(ids)) + `)`
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return common.StoreErr(err)
	}
	return nil
}

func (r *PostgresRepository) DeleteByOwner(ctx context.Context, ownerID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM time_entries WHERE owner_id = $1`, ownerID); err != nil {
		return common.StoreErr(err)
	}
	return nil
}

func (r *PostgresRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM time_entries`); err != nil {
		return common.StoreErr(err)
	}
	return nil
}

func (r *PostgresRepository) Import(ctx context.Context, e models.SnapshotTimeEntry) error {
	query := `INSERT INTO time_entries
		(id, owner_id, matter_id, description, start_time, end_time, duration_seconds, invoiced, activity_group_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.OwnerID, e.MatterID, e.Description, e.StartTime, nullTime(e.EndTime),
		e.DurationSeconds, e.Invoiced, nullInt(e.ActivityGroupID))
	if err != nil {
		return common.StoreErr(err)
	}
	return nil
}

func (r *PostgresRepository) queryEntries(ctx context.Context, query string, args ...any) ([]*models.TimeEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, common.StoreErr(err)
	}
	defer rows.Close()

	var result []*models.TimeEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, common.StoreErr(err)
	}
	return result, nil
}

// pgPlaceholders returns "$start, $start+1, ..." with n slots.
func pgPlaceholders(start, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", start+i)
	}
	return strings.Join(parts, ", ")
}
