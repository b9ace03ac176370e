package users

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

func (r *SQLiteRepository) Create(ctx context.Context, u *models.User) (*models.User, error) {
	query := `INSERT INTO users (username, password_hash, is_admin, default_hourly_rate)
		VALUES (?, ?, ?, ?) RETURNING id`
	row := r.db.QueryRowContext(ctx, query,
		u.Username, u.PasswordHash, u.IsAdmin, nullFloat(u.DefaultHourlyRate))
	if err := row.Scan(&u.ID); err != nil {
		return nil, common.StoreErr(err)
	}
	return u, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT id, username, password_hash, is_admin, default_hourly_rate
		FROM users WHERE id = ?`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLiteRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT id, username, password_hash, is_admin, default_hourly_rate
		FROM users WHERE username = ?`
	return scanUser(r.db.QueryRowContext(ctx, query, username))
}

func (r *SQLiteRepository) List(ctx context.Context) ([]*models.User, error) {
	query := `SELECT id, username, password_hash, is_admin, default_hourly_rate
		FROM users ORDER BY username`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, common.StoreErr(err)
	}
	defer rows.Close()

	var result []*models.User
	for rows.Next() {
		u := &models.User{}
		var rate sql.NullFloat64
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsAdmin, &rate); err != nil {
			return nil, common.StoreErr(err)
		}
		u.DefaultHourlyRate = floatPtr(rate)
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, common.StoreErr(err)
	}
	return result, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, u *models.User) error {
	query := `UPDATE users SET username = ?, is_admin = ?, default_hourly_rate = ?
		WHERE id = ?`
	return expectOneRow(r.db.ExecContext(ctx, query,
		u.Username, u.IsAdmin, nullFloat(u.DefaultHourlyRate), u.ID))
}

func (r *SQLiteRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	query := `UPDATE users SET password_hash = ? WHERE id = ?`
	return expectOneRow(r.db.ExecContext(ctx, query, passwordHash, id))
}

func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM users WHERE id = ?`
	return expectOneRow(r.db.ExecContext(ctx, query, id))
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, common.StoreErr(err)
	}
	return count, nil
}

func (r *SQLiteRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM users`); err != nil {
		return common.StoreErr(err)
	}
	return nil
}

func (r *SQLiteRepository) Import(ctx context.Context, u models.SnapshotUser) error {
	query := `INSERT INTO users (id, username, password_hash, is_admin, default_hourly_rate)
		VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		u.ID, u.Username, u.PasswordHash, u.IsAdmin, nullFloat(u.DefaultHourlyRate))
	if err != nil {
		return common.StoreErr(err)
	}
	return nil
}

// scanUser maps a single-row query onto a User, translating sql.ErrNoRows
// into the engine's not-found kind.
func scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	var rate sql.NullFloat64
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsAdmin, &rate); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, common.StoreErr(err)
	}
	u.DefaultHourlyRate = floatPtr(rate)
	return u, nil
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
