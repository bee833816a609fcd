package services

import (
	"errors"
	"fmt"
	"time"
)

// DayLayout is the canonical calendar-day encoding used by the check-in
// ledger. All day arithmetic happens on server UTC dates; client-local time
// never reaches this package.
const DayLayout = "2006-01-02"

const (
	vipStreakThreshold = 7
	vipGrantDuration   = 30 * 24 * time.Hour
)

// ErrInvariantViolation reports ledger contents the engine's own write path
// cannot produce (duplicate or out-of-order days). It indicates storage
// corruption outside this core's control and is surfaced, never repaired.
var ErrInvariantViolation = errors.New("check-in ledger violates day-uniqueness invariant")

// DayString renders the UTC calendar day for an instant.
func DayString(now time.Time) string {
	return now.UTC().Format(DayLayout)
}

// ComputeStreak returns the length of the run of consecutive calendar days
// ending at the most recent check-in. Dates must be ascending DayLayout
// strings as stored in the ledger. The run is reported even when its last
// day is in the past; whether a stale run still counts as "current" is the
// caller's recency policy, not decided here.
func ComputeStreak(dates []string) (int, error) {
	if len(dates) == 0 {
		return 0, nil
	}

	prev, err := time.Parse(DayLayout, dates[0])
	if err != nil {
		return 0, fmt.Errorf("malformed ledger date %q: %w", dates[0], err)
	}

	run := 1
	for _, raw := range dates[1:] {
		cur, err := time.Parse(DayLayout, raw)
		if err != nil {
			return 0, fmt.Errorf("malformed ledger date %q: %w", raw, err)
		}
		switch days := int(cur.Sub(prev) / (24 * time.Hour)); {
		case days <= 0:
			return 0, fmt.Errorf("%w: %s after %s", ErrInvariantViolation, raw, prev.Format(DayLayout))
		case days == 1:
			run++
		default:
			run = 1
		}
		prev = cur
	}
	return run, nil
}
