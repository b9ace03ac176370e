package matters

import (
	"context"
	"database/sql"
	"errors"

	"github.com/kappapiana/sentinel-solo/internal/common"
	"github.com/kappapiana/sentinel-solo/internal/dbx"
	"github.com/kappapiana/sentinel-solo/internal/models"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, m *models.Matter) (*models.Matter, error) {
	query := `INSERT INTO matters (owner_id, code, name, parent_id, hourly_rate)
		VALUES (?, ?, ?, ?, ?) RETURNING id`
	row := r.db.QueryRowContext(ctx, query,
		m.OwnerID, m.Code, m.Name, nullInt(m.ParentID), nullFloat(m.HourlyRate))
	if err := row.Scan(&m.ID); err != nil {
		return nil, common.StoreErr(err)
	}
	return m, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, ownerID, id int64) (*models.Matter, error) {
	query := `SELECT id, owner_id, code, name, parent_id, hourly_rate
		FROM matters WHERE owner_id = ? AND id = ?`
	return scanMatter(r.db.QueryRowContext(ctx, query, ownerID, id))
}

func (r *SQLiteRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*models.Matter, error) {
	query := `SELECT id, owner_id, code, name, parent_id, hourly_rate
		FROM matters WHERE owner_id = ? ORDER BY code`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, common.StoreErr(err)
	}
	defer rows.Close()

	var result []*models.Matter
	for rows.Next() {
		m, err := scanMatterRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, common.StoreErr(err)
	}
	return result, nil
}

func (r *SQLiteRepository) ListAll(ctx context.Context) ([]*models.Matter, error) {
	query := `SELECT id, owner_id, code, name, parent_id, hourly_rate FROM matters ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, common.StoreErr(err)
	}
	defer rows.Close()

	var result []*models.Matter
	for rows.Next() {
		m, err := scanMatterRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, common.StoreErr(err)
	}
	return result, nil
}

func (r *SQLiteRepository) CodeExists(ctx context.Context, ownerID int64, code string) (bool, error) {
	var n int
	query := `SELECT COUNT(*) FROM matters WHERE owner_id = ? AND code = ?`
	if err := r.db.QueryRowContext(ctx, query, ownerID, code).Scan(&n); err != nil {
		return false, common.StoreErr(err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, m *models.Matter) error {
	query := `UPDATE matters SET code = ?, name = ?, hourly_rate = ?
		WHERE owner_id = ? AND id = ?`
	return expectOneRow(r.db.ExecContext(ctx, query,
		m.Code, m.Name, nullFloat(m.HourlyRate), m.OwnerID, m.ID))
}

func (r *SQLiteRepository) UpdateParent(ctx context.Context, ownerID, id int64, parentID *int64) error {
	query := `UPDATE matters SET parent_id = ? WHERE owner_id = ? AND id = ?`
	return expectOneRow(r.db.ExecContext(ctx, query, nullInt(parentID), ownerID, id))
}

func (r *SQLiteRepository) Delete(ctx context.Context, ownerID, id int64) error {
	query := `DELETE FROM matters WHERE owner_id = ? AND id = ?`
	return expectOneRow(r.db.ExecContext(ctx, query, ownerID, id))
}

func (r *SQLiteRepository) DeleteByOwner(ctx context.Context, ownerID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM matters WHERE owner_id = ?`, ownerID); err != nil {
		return common.StoreErr(err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM matters`); err != nil {
		return common.StoreErr(err)
	}
	return nil
}

func (r *SQLiteRepository) Import(ctx context.Context, m models.SnapshotMatter) error {
	query := `INSERT INTO matters (id, owner_id, code, name, parent_id, hourly_rate)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		m.ID, m.OwnerID, m.Code, m.Name, nullInt(m.ParentID), nullFloat(m.HourlyRate))
	if err != nil {
		return common.StoreErr(err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMatter(row *sql.Row) (*models.Matter, error) {
	m, err := scanMatterRow(row)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func scanMatterRow(row rowScanner) (*models.Matter, error) {
	m := &models.Matter{}
	var parent sql.NullInt64
	var rate sql.NullFloat64
	if err := row.Scan(&m.ID, &m.OwnerID, &m.Code, &m.Name, &parent, &rate); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, common.StoreErr(err)
	}
	m.ParentID = intPtr(parent)
	m.HourlyRate = floatPtr(rate)
	return m, nil
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

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
