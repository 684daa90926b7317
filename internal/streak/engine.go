package streak

import "time"

// State is the streak counter for one (member, task) pair as stored.
type State struct {
	Current        int
	Longest        int
	LastCompletion *time.Time
}

// Advance returns the state after recording a completion at completedAt.
// Streaks count calendar days, so only the day of each completion matters:
// a completion the day after the last one extends the streak, a repeat on
// the same day leaves it unchanged, and anything else (a gap of two or more
// days, or a completion dated before the last recorded one) starts over at 1.
// Longest is never reset. LastCompletion always moves to completedAt, even
// for same-day repeats.
func Advance(prev State, completedAt time.Time) State {
	next := prev

	if prev.LastCompletion == nil {
		next.Current = 1
	} else {
		switch daysBetween(*prev.LastCompletion, completedAt) {
		case 0:
			// Same-day repeat: no double-counting
		case 1:
			next.Current = prev.Current + 1
		default:
			next.Current = 1
		}
	}

	if next.Current > next.Longest {
		next.Longest = next.Current
	}

	t := completedAt
	next.LastCompletion = &t
	return next
}

// daysBetween returns the whole-day calendar distance from a to b.
// Negative when b falls on an earlier day than a.
func daysBetween(a, b time.Time) int {
	return int(startOfDay(b).Sub(startOfDay(a)).Hours() / 24)
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
