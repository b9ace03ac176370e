package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatSeconds(t *testing.T) {
	assert.Equal(t, "0:00", formatSeconds(0))
	assert.Equal(t, "0:30", formatSeconds(1800))
	assert.Equal(t, "1:30", formatSeconds(5400))
	assert.Equal(t, "10:05", formatSeconds(36300))
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "-", formatAmount(nil))
	v := 75.0
	assert.Equal(t, "75.00", formatAmount(&v))
}

func TestParseID(t *testing.T) {
	id, err := parseID(" 42 ")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	_, err = parseID("abc")
	assert.Error(t, err)
}

func TestParseOptionalID(t *testing.T) {
	id, err := parseOptionalID("")
	require.NoError(t, err)
	assert.Nil(t, id)

	id, err = parseOptionalID("7")
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, int64(7), *id)
}

func TestParseOptionalRate(t *testing.T) {
	rate, err := parseOptionalRate("")
	require.NoError(t, err)
	assert.Nil(t, rate)

	rate, err = parseOptionalRate("50.5")
	require.NoError(t, err)
	require.NotNil(t, rate)
	assert.Equal(t, 50.5, *rate)

	_, err = parseOptionalRate("lots")
	assert.Error(t, err)
}

func TestParseDay(t *testing.T) {
	day, err := parseDay("2026-03-02")
	require.NoError(t, err)
	assert.Equal(t, 2026, day.Year())
	assert.Equal(t, time.March, day.Month())
	assert.Equal(t, 2, day.Day())

	_, err = parseDay("02/03/2026")
	assert.Error(t, err)
}

func TestParseTimestamp(t *testing.T) {
	ts, err := parseTimestamp("2026-03-02 09:30")
	require.NoError(t, err)
	assert.Equal(t, 9, ts.Hour())
	assert.Equal(t, 30, ts.Minute())

	_, err = parseTimestamp("2026-03-02")
	assert.Error(t, err)
}

func TestParseIDList(t *testing.T) {
	ids, err := parseIDList("1, 2,3")
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids)

	_, err = parseIDList("")
	assert.Error(t, err)

	_, err = parseIDList("1,x")
	assert.Error(t, err)
}
