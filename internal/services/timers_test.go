package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kappapiana/sentinel-solo/internal/common"
)

func TestStartStopTimer(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	_, scope := e.newUser(t, "alice", false, nil)

	client := e.newMatter(t, scope, "Acme", nil, nil)
	m := e.newMatter(t, scope, "Website", &client.ID, nil)

	started := mustParseTime(t, "2026-03-02 09:00")
	setNow(t, started)

	entry, err := e.timers.StartTimer(ctx, scope, m.ID, "fixing things")
	require.NoError(t, err)
	assert.True(t, entry.Open())

	running, err := e.timers.GetRunningEntry(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, running.ID)

	setNow(t, started.Add(90*time.Minute))
	stopped, err := e.timers.StopTimer(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, stopped.ID)
	assert.InDelta(t, 5400.0, stopped.DurationSeconds, 0.01)

	_, err = e.timers.GetRunningEntry(ctx, scope)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestStartTimer_SecondStartFails(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	_, scope := e.newUser(t, "alice", false, nil)

	client := e.newMatter(t, scope, "Acme", nil, nil)
	m := e.newMatter(t, scope, "Website", &client.ID, nil)

	_, err := e.timers.StartTimer(ctx, scope, m.ID, "")
	require.NoError(t, err)

	_, err = e.timers.StartTimer(ctx, scope, m.ID, "")
	assert.ErrorIs(t, err, common.ErrInvalidOperation)
}

func TestStartTimer_RootRejected(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	_, scope := e.newUser(t, "alice", false, nil)

	client := e.newMatter(t, scope, "Acme", nil, nil)

	_, err := e.timers.StartTimer(ctx, scope, client.ID, "")
	assert.ErrorIs(t, err, common.ErrInvalidOperation)
}

func TestStartTimer_OtherOwnersMatterNotFound(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	_, alice := e.newUser(t, "alice", false, nil)
	_, bob := e.newUser(t, "bob", false, nil)

	client := e.newMatter(t, bob, "Globex", nil, nil)
	m := e.newMatter(t, bob, "Secret", &client.ID, nil)

	_, err := e.timers.StartTimer(ctx, alice, m.ID, "")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestStartTimer_PerOwnerIndependent(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	_, alice := e.newUser(t, "alice", false, nil)
	_, bob := e.newUser(t, "bob", false, nil)

	ac := e.newMatter(t, alice, "Acme", nil, nil)
	am := e.newMatter(t, alice, "Website", &ac.ID, nil)
	bc := e.newMatter(t, bob, "Globex", nil, nil)
	bm := e.newMatter(t, bob, "Intranet", &bc.ID, nil)

	_, err := e.timers.StartTimer(ctx, alice, am.ID, "")
	require.NoError(t, err)
	_, err = e.timers.StartTimer(ctx, bob, bm.ID, "")
	require.NoError(t, err)
}

func TestStopTimer_NoneRunning(t *testing.T) {
	e := newTestEngine(t)
	_, scope := e.newUser(t, "alice", false, nil)

	_, err := e.timers.StopTimer(context.Background(), scope)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestContinueEntry_SharesActivityGroup(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	_, scope := e.newUser(t, "alice", false, nil)

	client := e.newMatter(t, scope, "Acme", nil, nil)
	m := e.newMatter(t, scope, "Website", &client.ID, nil)

	start := mustParseTime(t, "2026-03-02 09:00")
	first := addClosedEntry(t, e, scope, m.ID, start, 1800)

	setNow(t, start.Add(2*time.Hour))
	second, err := e.timers.ContinueEntry(ctx, scope, first.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, second.MatterID)
	require.NotNil(t, second.ActivityGroupID)
	// The first segment of an activity is the group anchor.
	assert.Equal(t, first.ID, *second.ActivityGroupID)

	setNow(t, start.Add(3*time.Hour))
	_, err = e.timers.StopTimer(ctx, scope)
	require.NoError(t, err)

	// Continuing a continuation still points at the original anchor.
	setNow(t, start.Add(4*time.Hour))
	third, err := e.timers.ContinueEntry(ctx, scope, second.ID)
	require.NoError(t, err)
	require.NotNil(t, third.ActivityGroupID)
	assert.Equal(t, first.ID, *third.ActivityGroupID)
}

func TestContinueEntry_BlockedByRunningTimer(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	_, scope := e.newUser(t, "alice", false, nil)

	client := e.newMatter(t, scope, "Acme", nil, nil)
	m := e.newMatter(t, scope, "Website", &client.ID, nil)

	start := mustParseTime(t, "2026-03-02 09:00")
	closed := addClosedEntry(t, e, scope, m.ID, start, 600)

	_, err := e.timers.StartTimer(ctx, scope, m.ID, "")
	require.NoError(t, err)

	_, err = e.timers.ContinueEntry(ctx, scope, closed.ID)
	assert.ErrorIs(t, err, common.ErrInvalidOperation)
}

func TestAddManualEntry_EndOrDuration(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	_, scope := e.newUser(t, "alice", false, nil)

	client := e.newMatter(t, scope, "Acme", nil, nil)
	m := e.newMatter(t, scope, "Website", &client.ID, nil)

	start := mustParseTime(t, "2026-03-02 09:00")

	// With an explicit end.
	end := start.Add(45 * time.Minute)
	entry, err := e.timers.AddManualEntry(ctx, scope, m.ID, start, ptrTime(end), nil, "call")
	require.NoError(t, err)
	assert.InDelta(t, 2700.0, entry.DurationSeconds, 0.01)

	// With a duration.
	entry, err = e.timers.AddManualEntry(ctx, scope, m.ID, start, nil, ptrFloat(600), "")
	require.NoError(t, err)
	require.NotNil(t, entry.EndTime)
	assert.InDelta(t, 600.0, entry.DurationSeconds, 0.01)

	// Both or neither are rejected.
	_, err = e.timers.AddManualEntry(ctx, scope, m.ID, start, ptrTime(end), ptrFloat(600), "")
	assert.ErrorIs(t, err, common.ErrValidation)
	_, err = e.timers.AddManualEntry(ctx, scope, m.ID, start, nil, nil, "")
	assert.ErrorIs(t, err, common.ErrValidation)

	// End before start is rejected.
	_, err = e.timers.AddManualEntry(ctx, scope, m.ID, start, ptrTime(start.Add(-time.Minute)), nil, "")
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestUpdateEntry_RecomputesDuration(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	_, scope := e.newUser(t, "alice", false, nil)

	client := e.newMatter(t, scope, "Acme", nil, nil)
	m := e.newMatter(t, scope, "Website", &client.ID, nil)

	start := mustParseTime(t, "2026-03-02 09:00")
	entry := addClosedEntry(t, e, scope, m.ID, start, 600)

	newEnd := start.Add(30 * time.Minute)
	err := e.timers.UpdateEntry(ctx, scope, entry.ID, UpdateEntryParams{EndTime: &newEnd})
	require.NoError(t, err)

	updated, err := e.rm.TimeEntries(e.db).GetByID(ctx, scope.UserID, entry.ID)
	require.NoError(t, err)
	assert.InDelta(t, 1800.0, updated.DurationSeconds, 0.01)
}

func TestDeleteEntry_OwnerScoped(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	_, alice := e.newUser(t, "alice", false, nil)
	_, bob := e.newUser(t, "bob", false, nil)

	client := e.newMatter(t, alice, "Acme", nil, nil)
	m := e.newMatter(t, alice, "Website", &client.ID, nil)
	entry := addClosedEntry(t, e, alice, m.ID, mustParseTime(t, "2026-03-02 09:00"), 600)

	err := e.timers.DeleteEntry(ctx, bob, entry.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	require.NoError(t, e.timers.DeleteEntry(ctx, alice, entry.ID))
}

func TestEntriesForDay(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	_, scope := e.newUser(t, "alice", false, nil)

	client := e.newMatter(t, scope, "Acme", nil, nil)
	m := e.newMatter(t, scope, "Website", &client.ID, nil)

	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	addClosedEntry(t, e, scope, m.ID, day.Add(9*time.Hour), 600)
	addClosedEntry(t, e, scope, m.ID, day.Add(15*time.Hour), 600)
	addClosedEntry(t, e, scope, m.ID, day.Add(26*time.Hour), 600) // next day

	entries, err := e.timers.EntriesForDay(ctx, scope, day)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
