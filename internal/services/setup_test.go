package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kappapiana/sentinel-solo/internal/config"
	"github.com/kappapiana/sentinel-solo/internal/logging"
	"github.com/kappapiana/sentinel-solo/internal/models"
	"github.com/kappapiana/sentinel-solo/internal/repositories/repomanager"
)

type nopLogger struct{}

func (nopLogger) Debug(ctx context.Context, msg string, args ...any) {}
func (nopLogger) Info(ctx context.Context, msg string, args ...any)  {}
func (nopLogger) Warn(ctx context.Context, msg string, args ...any)  {}
func (nopLogger) Error(ctx context.Context, msg string, args ...any) {}
func (nopLogger) With(args ...any) logging.Logger                    { return nopLogger{} }

type testEngine struct {
	db       *sql.DB
	rm       repomanager.RepositoryManager
	users    *UserService
	matters  *MatterService
	timers   *TimeEntryService
	reports  *ReportService
	snapshot *SnapshotService
}

func newTestEngine(t *testing.T) *testEngine {
	t.Helper()

	rm, db, err := repomanager.NewSQLiteRepositoryManager(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cfg := &config.Config{}
	cfg.LoadDefaults()

	return &testEngine{
		db:       db,
		rm:       rm,
		users:    NewUserService(db, rm, cfg, nopLogger{}),
		matters:  NewMatterService(db, rm, nopLogger{}),
		timers:   NewTimeEntryService(db, rm, nopLogger{}),
		reports:  NewReportService(db, rm, nopLogger{}),
		snapshot: NewSnapshotService(db, rm, cfg, nopLogger{}),
	}
}

// newUser inserts a user directly and returns its owner scope.
func (e *testEngine) newUser(t *testing.T, username string, admin bool, defaultRate *float64) (*models.User, Scope) {
	t.Helper()
	u, err := e.rm.Users(e.db).Create(context.Background(), &models.User{
		Username:          username,
		PasswordHash:      "x",
		IsAdmin:           admin,
		DefaultHourlyRate: defaultRate,
	})
	require.NoError(t, err)
	return u, Scope{UserID: u.ID, Admin: admin}
}

// newMatter creates a matter through the service.
func (e *testEngine) newMatter(t *testing.T, scope Scope, name string, parentID *int64, rate *float64) *models.Matter {
	t.Helper()
	m, err := e.matters.Add(context.Background(), scope, name, parentID, nil, rate)
	require.NoError(t, err)
	return m
}

// setNow pins the service clock for the duration of the test.
func setNow(t *testing.T, fixed time.Time) {
	t.Helper()
	prev := now
	now = func() time.Time { return fixed }
	t.Cleanup(func() { now = prev })
}

// addClosedEntry records a closed manual entry of the given length.
func addClosedEntry(t *testing.T, e *testEngine, scope Scope, matterID int64, start time.Time, seconds float64) *models.TimeEntry {
	t.Helper()
	entry, err := e.timers.AddManualEntry(context.Background(), scope, matterID, start, nil, &seconds, "")
	require.NoError(t, err)
	return entry
}

func mustParseTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02 15:04", s)
	require.NoError(t, err)
	return ts
}

func ptrFloat(v float64) *float64 { return &v }

func ptrTime(v time.Time) *time.Time { return &v }
