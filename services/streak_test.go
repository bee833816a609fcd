package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeStreak_EmptyLedger(t *testing.T) {
	streak, err := ComputeStreak(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, streak)
}

func TestComputeStreak_SingleDay(t *testing.T) {
	streak, err := ComputeStreak([]string{"2024-03-01"})
	require.NoError(t, err)
	assert.Equal(t, 1, streak)
}

func TestComputeStreak_ConsecutiveDaysExtendRun(t *testing.T) {
	streak, err := ComputeStreak([]string{"2024-03-01", "2024-03-02", "2024-03-03"})
	require.NoError(t, err)
	assert.Equal(t, 3, streak)
}

func TestComputeStreak_GapResetsRun(t *testing.T) {
	streak, err := ComputeStreak([]string{"2024-03-01", "2024-03-03"})
	require.NoError(t, err)
	assert.Equal(t, 1, streak)
}

func TestComputeStreak_ReportsRunEndingAtMostRecentDay(t *testing.T) {
	// An early long run does not win; only the run ending at the latest
	// check-in counts.
	streak, err := ComputeStreak([]string{
		"2024-03-01", "2024-03-02", "2024-03-03", "2024-03-04",
		"2024-03-10", "2024-03-11",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, streak)
}

func TestComputeStreak_MonthBoundary(t *testing.T) {
	streak, err := ComputeStreak([]string{"2024-01-31", "2024-02-01"})
	require.NoError(t, err)
	assert.Equal(t, 2, streak)
}

func TestComputeStreak_DuplicateDayIsInvariantViolation(t *testing.T) {
	_, err := ComputeStreak([]string{"2024-03-01", "2024-03-01"})
	require.ErrorIs(t, err, ErrInvariantViolation)
}

func TestComputeStreak_OutOfOrderIsInvariantViolation(t *testing.T) {
	_, err := ComputeStreak([]string{"2024-03-02", "2024-03-01"})
	require.ErrorIs(t, err, ErrInvariantViolation)
}

func TestComputeStreak_MalformedDate(t *testing.T) {
	_, err := ComputeStreak([]string{"yesterday"})
	require.Error(t, err)
}

func TestDayString_UsesUTC(t *testing.T) {
	// 23:30 on March 1st in UTC-5 is already March 2nd in UTC; the ledger
	// day must follow the server UTC clock, not the client's.
	local := time.Date(2024, 3, 1, 23, 30, 0, 0, time.FixedZone("UTC-5", -5*3600))
	assert.Equal(t, "2024-03-02", DayString(local))
}
