package core

import "time"

// StreakRecord tracks consecutive-day activity. All day-boundary math uses
// the UTC calendar; using local wall-clock time would make the transitions
// depend on where each request happened to be handled.
type StreakRecord struct {
	Current         int       `json:"current"`
	Longest         int       `json:"longest"`
	LastActivity    time.Time `json:"last_activity"` // UTC day start; zero when no activity yet
	TotalActiveDays int       `json:"total_active_days"`
}

// DayStart truncates a timestamp to the start of its UTC calendar day.
func DayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// daysBetween returns whole calendar days from a to b (both truncated).
func daysBetween(a, b time.Time) int {
	return int(DayStart(b).Sub(DayStart(a)) / (24 * time.Hour))
}

// Advance applies one activity event at the given instant and reports
// whether the streak counter grew. The transition is idempotent for
// same-day repeats:
//
//	no prior record  -> streak 1, one active day
//	same day         -> unchanged
//	consecutive day  -> streak+1
//	gap of 2+ days   -> streak resets to 1, longest untouched
func (r StreakRecord) Advance(now time.Time) (StreakRecord, bool) {
	today := DayStart(now)
	prev := r.Current

	switch {
	case r.LastActivity.IsZero():
		r.Current = 1
		r.TotalActiveDays = 1
	default:
		switch daysBetween(r.LastActivity, now) {
		case 0:
			return r, false
		case 1:
			r.Current++
			r.TotalActiveDays++
		default:
			r.Current = 1
			r.TotalActiveDays++
		}
	}
	r.LastActivity = today
	if r.Current > r.Longest {
		r.Longest = r.Current
	}
	return r, r.Current > prev
}

// Active reports whether the streak is still alive at the given instant,
// i.e. the last activity was today or yesterday. It shares the same
// day-boundary computation as Advance so the read and write paths cannot
// drift apart.
func (r StreakRecord) Active(now time.Time) bool {
	if r.LastActivity.IsZero() {
		return false
	}
	return daysBetween(r.LastActivity, now) <= 1
}
