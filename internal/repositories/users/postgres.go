package users

import (
	"context"
	"database/sql"

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

func (r *PostgresRepository) Create(ctx context.Context, u *models.User) (*models.User, error) {
	query := `INSERT INTO users (username, password_hash, is_admin, default_hourly_rate)
		VALUES ($1, $2, $3, $4) RETURNING id`
	row := r.db.QueryRowContext(ctx, query,
		u.Username, u.PasswordHash, u.IsAdmin, nullFloat(u.DefaultHourlyRate))
	if err := row.Scan(&u.ID); err != nil {
		return nil, common.StoreErr(err)
	}
	return u, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT id, username, password_hash, is_admin, default_hourly_rate
		FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT id, username, password_hash, is_admin, default_hourly_rate
		FROM users WHERE username = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, username))
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.User, error) {
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

func (r *PostgresRepository) Update(ctx context.Context, u *models.User) error {
	query := `UPDATE users SET username = $1, is_admin = $2, default_hourly_rate = $3
		WHERE id = $4`
	return expectOneRow(r.db.ExecContext(ctx, query,
		u.Username, u.IsAdmin, nullFloat(u.DefaultHourlyRate), u.ID))
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1 WHERE id = $2`
	return expectOneRow(r.db.ExecContext(ctx, query, passwordHash, id))
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM users WHERE id = $1`
	return expectOneRow(r.db.ExecContext(ctx, query, id))
}

func (r *PostgresRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, common.StoreErr(err)
	}
	return count, nil
}

func (r *PostgresRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM users`); err != nil {
		return common.StoreErr(err)
	}
	return nil
}

func (r *PostgresRepository) Import(ctx context.Context, u models.SnapshotUser) error {
	query := `INSERT INTO users (id, username, password_hash, is_admin, default_hourly_rate)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.ExecContext(ctx, query,
		u.ID, u.Username, u.PasswordHash, u.IsAdmin, nullFloat(u.DefaultHourlyRate))
	if err != nil {
		return common.StoreErr(err)
	}
	return nil
}
