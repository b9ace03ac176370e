package sessions

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kappapiana/sentinel-solo/internal/common"
	"github.com/kappapiana/sentinel-solo/internal/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+sessions\s*\(id,\s*user_id,\s*expires\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*$`

	expires := time.Date(2026, 3, 2, 21, 0, 0, 0, time.UTC)
	mock.ExpectExec(q).
		WithArgs("sid-1", int64(7), expires).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &models.Session{ID: "sid-1", UserID: 7, Expires: expires})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
}

func TestGet_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*user_id,\s*expires,\s*created_at\s+FROM\s+sessions\s+WHERE\s+id\s*=\s*\$1\s*$`

	expires := time.Date(2026, 3, 2, 21, 0, 0, 0, time.UTC)
	created := expires.Add(-12 * time.Hour)
	rows := sqlmock.NewRows([]string{"id", "user_id", "expires", "created_at"}).
		AddRow("sid-1", int64(7), expires, created)
	mock.ExpectQuery(q).
		WithArgs("sid-1").
		WillReturnRows(rows)

	got, err := repo.Get(context.Background(), "sid-1")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.UserID != 7 || !got.Expires.Equal(expires) {
		t.Fatalf("unexpected session: %+v", got)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*user_id,\s*expires,\s*created_at\s+FROM\s+sessions\s+WHERE\s+id\s*=\s*\$1\s*$`

	mock.ExpectQuery(q).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "ghost")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want common.ErrNotFound, got %v", err)
	}
}

func TestDelete_Idempotent(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^DELETE\s+FROM\s+sessions\s+WHERE\s+id\s*=\s*\$1\s*$`

	mock.ExpectExec(q).
		WithArgs("sid-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	// Deleting an already revoked session is not an error.
	if err := repo.Delete(context.Background(), "sid-1"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
}

func TestDeleteForUser(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^DELETE\s+FROM\s+sessions\s+WHERE\s+user_id\s*=\s*\$1\s*$`

	mock.ExpectExec(q).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	if err := repo.DeleteForUser(context.Background(), 7); err != nil {
		t.Fatalf("DeleteForUser error: %v", err)
	}
}
