package matters

import (
	"context"

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

func (r *PostgresRepository) Create(ctx context.Context, m *models.Matter) (*models.Matter, error) {
	query := `INSERT INTO matters (owner_id, code, name, parent_id, hourly_rate)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`
	row := r.db.QueryRowContext(ctx, query,
		m.OwnerID, m.Code, m.Name, nullInt(m.ParentID), nullFloat(m.HourlyRate))
	if err := row.Scan(&m.ID); err != nil {
		return nil, common.StoreErr(err)
	}
	return m, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, ownerID, id int64) (*models.Matter, error) {
	query := `SELECT id, owner_id, code, name, parent_id, hourly_rate
		FROM matters WHERE owner_id = $1 AND id = $2`
	return scanMatter(r.db.QueryRowContext(ctx, query, ownerID, id))
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*models.Matter, error) {
	query := `SELECT id, owner_id, code, name, parent_id, hourly_rate
		FROM matters WHERE owner_id = $1 ORDER BY code`
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

func (r *PostgresRepository) ListAll(ctx context.Context) ([]*models.Matter, error) {
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

func (r *PostgresRepository) CodeExists(ctx context.Context, ownerID int64, code string) (bool, error) {
	var n int
	query := `SELECT COUNT(*) FROM matters WHERE owner_id = $1 AND code = $2`
	if err := r.db.QueryRowContext(ctx, query, ownerID, code).Scan(&n); err != nil {
		return false, common.StoreErr(err)
	}
	return n > 0, nil
}

func (r *PostgresRepository) Update(ctx context.Context, m *models.Matter) error {
	query := `UPDATE matters SET code = $1, name = $2, hourly_rate = $3
		WHERE owner_id = $4 AND id = $5`
	return expectOneRow(r.db.ExecContext(ctx, query,
		m.Code, m.Name, nullFloat(m.HourlyRate), m.OwnerID, m.ID))
}

func (r *PostgresRepository) UpdateParent(ctx context.Context, ownerID, id int64, parentID *int64) error {
	query := `UPDATE matters SET parent_id = $1 WHERE owner_id = $2 AND id = $3`
	return expectOneRow(r.db.ExecContext(ctx, query, nullInt(parentID), ownerID, id))
}

func (r *PostgresRepository) Delete(ctx context.Context, ownerID, id int64) error {
	query := `DELETE FROM matters WHERE owner_id = $1 AND id = $2`
	return expectOneRow(r.db.ExecContext(ctx, query, ownerID, id))
}

func (r *PostgresRepository) DeleteByOwner(ctx context.Context, ownerID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM matters WHERE owner_id = $1`, ownerID); err != nil {
		return common.StoreErr(err)
	}
	return nil
}

func (r *PostgresRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM matters`); err != nil {
		return common.StoreErr(err)
	}
	return nil
}

func (r *PostgresRepository) Import(ctx context.Context, m models.SnapshotMatter) error {
	query := `INSERT INTO matters (id, owner_id, code, name, parent_id, hourly_rate)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, query,
		m.ID, m.OwnerID, m.Code, m.Name, nullInt(m.ParentID), nullFloat(m.HourlyRate))
	if err != nil {
		return common.StoreErr(err)
	}
	return nil
}
