package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var msk = time.FixedZone("MSK", 3*60*60)

func TestDateKeyUsesBusinessTimezone(t *testing.T) {
	// 22:30 UTC is already the next day at UTC+3
	ts := time.Date(2024, 3, 10, 22, 30, 0, 0, time.UTC)

	assert.Equal(t, "2024-03-10", DateKey(ts, time.UTC))
	assert.Equal(t, "2024-03-11", DateKey(ts, msk))
}

func TestMonthKeyCrossesMonthBoundary(t *testing.T) {
	ts := time.Date(2024, 1, 31, 21, 0, 0, 0, time.UTC)

	assert.Equal(t, "2024-01", MonthKey(ts, time.UTC))
	assert.Equal(t, "2024-02", MonthKey(ts, msk))
}

func TestPreviousDateKey(t *testing.T) {
	ts := time.Date(2024, 3, 1, 0, 5, 0, 0, msk)

	assert.Equal(t, "2024-02-29", PreviousDateKey(ts, msk))
}

func TestParseKeys(t *testing.T) {
	_, err := ParseDateKey("2024-02-30", msk)
	require.Error(t, err)

	d, err := ParseDateKey("2024-02-29", msk)
	require.NoError(t, err)
	assert.Equal(t, 29, d.Day())

	_, err = ParseMonthKey("2024-13", msk)
	require.Error(t, err)
}

func TestFrozenClock(t *testing.T) {
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	c := NewFrozen(start, msk)

	assert.Equal(t, 13, c.Now().Hour())
	assert.Equal(t, msk, c.Location())

	c.Advance(90 * time.Minute)
	assert.True(t, c.Now().Equal(start.Add(90*time.Minute)))

	c.Set(start)
	assert.True(t, c.Now().Equal(start))
}

func TestLoadFallsBackToUTC(t *testing.T) {
	c, err := Load("Mars/Olympus_Mons")
	require.Error(t, err)
	assert.Equal(t, time.UTC, c.Location())

	c, err = Load("UTC")
	require.NoError(t, err)
	assert.Equal(t, "UTC", c.Location().String())
}
