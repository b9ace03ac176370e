package sessions

import (
	"context"
	"database/sql"
	"errors"

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

func (r *PostgresRepository) Create(ctx context.Context, s *models.Session) error {
	query := `INSERT INTO sessions (id, user_id, expires) VALUES ($1, $2, $3)`
	if _, err := r.db.ExecContext(ctx, query, s.ID, s.UserID, s.Expires); err != nil {
		return common.StoreErr(err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Session, error) {
	query := `SELECT id, user_id, expires, created_at FROM sessions WHERE id = $1`
	s := &models.Session{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&s.ID, &s.UserID, &s.Expires, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, common.StoreErr(err)
	}
	return s, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return common.StoreErr(err)
	}
	return nil
}

func (r *PostgresRepository) DeleteForUser(ctx context.Context, userID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID); err != nil {
		return common.StoreErr(err)
	}
	return nil
}

func (r *PostgresRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions`); err != nil {
		return common.StoreErr(err)
	}
	return nil
}
