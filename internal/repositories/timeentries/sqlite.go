package timeentries

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/kappapiana/sentinel-solo/internal/common"
	"github.com/kappapiana/sentinel-solo/internal/dbx"
	"github.com/kappapiana/sentinel-solo/internal/models"
)

const entryColumns = `id, owner_id, matter_id, description, start_time, end_time,
	duration_seconds, invoiced, activity_group_id`

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, e *models.TimeEntry) (*models.TimeEntry, error) {
	query := `INSERT INTO time_entries
		(owner_id, matter_id, description, start_time, end_time, duration_seconds, invoiced, activity_group_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`
	row := r.db.QueryRowContext(ctx, query,
		e.OwnerID, e.MatterID, e.Description, e.StartTime, nullTime(e.EndTime),
		e.DurationSeconds, e.Invoiced, nullInt(e.ActivityGroupID))
	if err := row.Scan(&e.ID); err != nil {
		return nil, common.StoreErr(err)
	}
	return e, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, ownerID, id int64) (*models.TimeEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM time_entries WHERE owner_id = ? AND id = ?`
	return scanEntryRow(r.db.QueryRowContext(ctx, query, ownerID, id))
}

func (r *SQLiteRepository) FindOpen(ctx context.Context, ownerID int64) (*models.TimeEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM time_entries
		WHERE owner_id = ? AND end_time IS NULL
		ORDER BY start_time DESC LIMIT 1`
	return scanEntryRow(r.db.QueryRowContext(ctx, query, ownerID))
}

func (r *SQLiteRepository) Close(ctx context.Context, ownerID, id int64, end time.Time, durationSeconds float64) error {
	query := `UPDATE time_entries SET end_time = ?, duration_seconds = ?
		WHERE owner_id = ? AND id = ? AND end_time IS NULL`
	return expectOneRow(r.db.ExecContext(ctx, query, end, durationSeconds, ownerID, id))
}

func (r *SQLiteRepository) Update(ctx context.Context, e *models.TimeEntry) error {
	query := `UPDATE time_entries SET matter_id = ?, description = ?, start_time = ?,
		end_time = ?, duration_seconds = ?, invoiced = ?
		WHERE owner_id = ? AND id = ?`
	return expectOneRow(r.db.ExecContext(ctx, query,
		e.MatterID, e.Description, e.StartTime, nullTime(e.EndTime),
		e.DurationSeconds, e.Invoiced, e.OwnerID, e.ID))
}

func (r *SQLiteRepository) Delete(ctx context.Context, ownerID, id int64) error {
	query := `DELETE FROM time_entries WHERE owner_id = ? AND id = ?`
	return expectOneRow(r.db.ExecContext(ctx, query, ownerID, id))
}

func (r *SQLiteRepository) ListClosed(ctx context.Context, ownerID int64) ([]*models.TimeEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM time_entries
		WHERE owner_id = ? AND end_time IS NOT NULL
		ORDER BY start_time`
	return r.queryEntries(ctx, query, ownerID)
}

func (r *SQLiteRepository) ListAll(ctx context.Context) ([]*models.TimeEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM time_entries ORDER BY id`
	return r.queryEntries(ctx, query)
}

func (r *SQLiteRepository) ListForRange(ctx context.Context, ownerID int64, from, to time.Time) ([]*models.TimeEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM time_entries
		WHERE owner_id = ? AND start_time >= ? AND start_time < ?
		ORDER BY start_time`
	return r.queryEntries(ctx, query, ownerID, from, to)
}

func (r *SQLiteRepository) ListByMatters(ctx context.Context, ownerID int64, matterIDs []int64, from, to *time.Time) ([]*models.TimeEntry, error) {
	if len(matterIDs) == 0 {
		return nil, nil
	}
	args := []any{ownerID}
	for _, id := range matterIDs {
		args = append(args, id)
	}
	query := `SELECT ` + entryColumns + ` FROM time_entries
		WHERE owner_id = ? AND end_time IS NOT NULL
		AND matter_id IN (` + placeholders(len(matterIDs)) + `)`
	if from != nil {
		query += ` AND start_time >= ?`
		args = append(args, *from)
	}
	if to != nil {
		query += ` AND start_time < ?`
		args = append(args, *to)
	}
	query += ` ORDER BY start_time`
	return r.queryEntries(ctx, query, args...)
}

func (r *SQLiteRepository) ReassignMatter(ctx context.Context, ownerID, fromMatterID, toMatterID int64) error {
	query := `UPDATE time_entries SET matter_id = ? WHERE owner_id = ? AND matter_id = ?`
	if _, err := r.db.ExecContext(ctx, query, toMatterID, ownerID, fromMatterID); err != nil {
		return common.StoreErr(err)
	}
	return nil
}

func (r *SQLiteRepository) MarkInvoiced(ctx context.Context, ownerID int64, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	args := []any{ownerID}
	for _, id := range ids {
		args = append(args, id)
	}
	query := `UPDATE time_entries SET invoiced = 1
		WHERE owner_id = ? AND id IN (` + placeholders(len(ids)) + `)`
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return common.StoreErr(err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteByOwner(ctx context.Context, ownerID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM time_entries WHERE owner_id = ?`, ownerID); err != nil {
		return common.StoreErr(err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM time_entries`); err != nil {
		return common.StoreErr(err)
	}
	return nil
}

func (r *SQLiteRepository) Import(ctx context.Context, e models.SnapshotTimeEntry) error {
	query := `INSERT INTO time_entries
		(id, owner_id, matter_id, description, start_time, end_time, duration_seconds, invoiced, activity_group_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.OwnerID, e.MatterID, e.Description, e.StartTime, nullTime(e.EndTime),
		e.DurationSeconds, e.Invoiced, nullInt(e.ActivityGroupID))
	if err != nil {
		return common.StoreErr(err)
	}
	return nil
}

func (r *SQLiteRepository) queryEntries(ctx context.Context, query string, args ...any) ([]*models.TimeEntry, error) {
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

// placeholders returns "?, ?, ..." with n slots.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntryRow(row *sql.Row) (*models.TimeEntry, error) {
	return scanEntry(row)
}

func scanEntry(row rowScanner) (*models.TimeEntry, error) {
	e := &models.TimeEntry{}
	var end sql.NullTime
	var group sql.NullInt64
	if err := row.Scan(&e.ID, &e.OwnerID, &e.MatterID, &e.Description, &e.StartTime,
		&end, &e.DurationSeconds, &e.Invoiced, &group); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, common.StoreErr(err)
	}
	e.EndTime = timePtr(end)
	e.ActivityGroupID = intPtr(group)
	return e, nil
}

func expectOneRow(res sql.Result, err error) error {
	if err != nil {
		return common.StoreErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return common.StoreErr(err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func intPtr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func nullTime(v *time.Time) sql.NullTime {
	if v == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *v, Valid: true}
}

func timePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
