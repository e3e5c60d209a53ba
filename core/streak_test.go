package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d, hour int) time.Time {
	return time.Date(y, m, d, hour, 0, 0, 0, time.UTC)
}

func TestStreak_FirstActivity(t *testing.T) {
	var rec StreakRecord
	rec, grew := rec.Advance(day(2025, 3, 10, 14))
	assert.True(t, grew)
	assert.Equal(t, 1, rec.Current)
	assert.Equal(t, 1, rec.Longest)
	assert.Equal(t, 1, rec.TotalActiveDays)
	assert.Equal(t, day(2025, 3, 10, 0), rec.LastActivity)
}

func TestStreak_SameDayIdempotent(t *testing.T) {
	var rec StreakRecord
	rec, _ = rec.Advance(day(2025, 3, 10, 8))
	again, grew := rec.Advance(day(2025, 3, 10, 23))
	assert.False(t, grew)
	assert.Equal(t, rec, again)
}

func TestStreak_ConsecutiveDays(t *testing.T) {
	var rec StreakRecord
	for i := 0; i < 5; i++ {
		var grew bool
		rec, grew = rec.Advance(day(2025, 3, 10+i, 12))
		require.True(t, grew)
	}
	assert.Equal(t, 5, rec.Current)
	assert.Equal(t, 5, rec.Longest)
	assert.Equal(t, 5, rec.TotalActiveDays)
}

func TestStreak_GapResets(t *testing.T) {
	var rec StreakRecord
	rec, _ = rec.Advance(day(2025, 3, 10, 12))
	rec, _ = rec.Advance(day(2025, 3, 11, 12))
	rec, _ = rec.Advance(day(2025, 3, 12, 12))

	rec, grew := rec.Advance(day(2025, 3, 15, 12))
	assert.False(t, grew)
	assert.Equal(t, 1, rec.Current)
	assert.Equal(t, 3, rec.Longest, "longest untouched by a reset")
	assert.Equal(t, 4, rec.TotalActiveDays)
}

func TestStreak_MidnightBoundary(t *testing.T) {
	var rec StreakRecord
	// 23:59:59 and 00:00:00 the next day are consecutive calendar days.
	rec, _ = rec.Advance(time.Date(2025, 3, 10, 23, 59, 59, 0, time.UTC))
	rec, grew := rec.Advance(time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC))
	assert.True(t, grew)
	assert.Equal(t, 2, rec.Current)
}

func TestStreak_NonUTCInput(t *testing.T) {
	loc := time.FixedZone("UTC+13", 13*3600)
	var rec StreakRecord
	// 2025-03-11 01:00 +13 is 2025-03-10 12:00 UTC; day math must use UTC.
	rec, _ = rec.Advance(time.Date(2025, 3, 11, 1, 0, 0, 0, loc))
	assert.Equal(t, day(2025, 3, 10, 0), rec.LastActivity)

	_, grew := rec.Advance(day(2025, 3, 10, 20))
	assert.False(t, grew, "same UTC day regardless of input zone")
}

func TestStreak_Active(t *testing.T) {
	var rec StreakRecord
	assert.False(t, rec.Active(day(2025, 3, 10, 12)))

	rec, _ = rec.Advance(day(2025, 3, 10, 12))
	assert.True(t, rec.Active(day(2025, 3, 10, 18)))
	assert.True(t, rec.Active(day(2025, 3, 11, 2)))
	assert.False(t, rec.Active(day(2025, 3, 12, 2)))
}

func TestStreak_LongestPreservedAcrossRebuild(t *testing.T) {
	var rec StreakRecord
	rec, _ = rec.Advance(day(2025, 1, 1, 9))
	rec, _ = rec.Advance(day(2025, 1, 2, 9))
	rec, _ = rec.Advance(day(2025, 1, 3, 9))
	rec, _ = rec.Advance(day(2025, 2, 1, 9)) // reset
	rec, _ = rec.Advance(day(2025, 2, 2, 9))

	assert.Equal(t, 2, rec.Current)
	assert.Equal(t, 3, rec.Longest)
	require.GreaterOrEqual(t, rec.Longest, rec.Current)
}
