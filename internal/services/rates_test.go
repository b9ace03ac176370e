package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectiveRate_Cascade(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	_, scope := e.newUser(t, "alice", false, ptrFloat(100))

	client := e.newMatter(t, scope, "Acme", nil, nil)
	website := e.newMatter(t, scope, "Website", &client.ID, ptrFloat(50))
	bugfix := e.newMatter(t, scope, "Bugfix", &website.ID, nil)

	// Own rate wins.
	rate, source, err := e.matters.EffectiveRate(ctx, scope, website.ID)
	require.NoError(t, err)
	require.NotNil(t, rate)
	assert.Equal(t, 50.0, *rate)
	assert.Equal(t, RateSourceMatter, source)

	// Nearest ancestor with a rate.
	rate, source, err = e.matters.EffectiveRate(ctx, scope, bugfix.ID)
	require.NoError(t, err)
	require.NotNil(t, rate)
	assert.Equal(t, 50.0, *rate)
	assert.Equal(t, RateSourceAncestor, source)

	// No matter-level rate anywhere in the chain: user default.
	loose := e.newMatter(t, scope, "Loose end", &client.ID, nil)
	rate, source, err = e.matters.EffectiveRate(ctx, scope, loose.ID)
	require.NoError(t, err)
	require.NotNil(t, rate)
	assert.Equal(t, 100.0, *rate)
	assert.Equal(t, RateSourceUserDefault, source)
}

func TestEffectiveRate_UndefinedIsNotZero(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	_, scope := e.newUser(t, "alice", false, nil)

	client := e.newMatter(t, scope, "Acme", nil, nil)
	m := e.newMatter(t, scope, "Website", &client.ID, nil)

	rate, source, err := e.matters.EffectiveRate(ctx, scope, m.ID)
	require.NoError(t, err)
	assert.Nil(t, rate)
	assert.Equal(t, RateSourceNone, source)

	assert.Nil(t, amountFor(3600, rate))
}

func TestEffectiveRate_MatterRateAlwaysWins(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	_, scope := e.newUser(t, "alice", false, ptrFloat(100))

	client := e.newMatter(t, scope, "Acme", nil, ptrFloat(80))
	m := e.newMatter(t, scope, "Website", &client.ID, nil)

	_, source, err := e.matters.EffectiveRate(ctx, scope, m.ID)
	require.NoError(t, err)
	assert.Equal(t, RateSourceAncestor, source)

	// Setting a matter-level rate flips the source to the matter itself,
	// whatever the ancestors or the user default say.
	require.NoError(t, e.matters.Update(ctx, scope, m.ID, m.Name, m.Code, ptrFloat(60)))
	rate, source, err := e.matters.EffectiveRate(ctx, scope, m.ID)
	require.NoError(t, err)
	require.NotNil(t, rate)
	assert.Equal(t, 60.0, *rate)
	assert.Equal(t, RateSourceMatter, source)
}

func TestEffectiveRate_RecomputedAfterMove(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	_, scope := e.newUser(t, "alice", false, nil)

	cheap := e.newMatter(t, scope, "Cheap", nil, ptrFloat(40))
	pricey := e.newMatter(t, scope, "Pricey", nil, ptrFloat(90))
	m := e.newMatter(t, scope, "Task", &cheap.ID, nil)

	rate, _, err := e.matters.EffectiveRate(ctx, scope, m.ID)
	require.NoError(t, err)
	require.NotNil(t, rate)
	assert.Equal(t, 40.0, *rate)

	require.NoError(t, e.matters.Move(ctx, scope, m.ID, &pricey.ID))

	rate, _, err = e.matters.EffectiveRate(ctx, scope, m.ID)
	require.NoError(t, err)
	require.NotNil(t, rate)
	assert.Equal(t, 90.0, *rate)
}

func TestAmountFor(t *testing.T) {
	amount := amountFor(5400, ptrFloat(50))
	require.NotNil(t, amount)
	assert.InDelta(t, 75.0, *amount, 0.001)

	assert.Nil(t, amountFor(5400, nil))
}
