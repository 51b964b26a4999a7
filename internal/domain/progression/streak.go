package progression

import "time"

// StreakClass selects which counter an activity advances.
type StreakClass string

const (
	StreakAny      StreakClass = "any"
	StreakLearning StreakClass = "learning"
)

// StreakState is one streak counter with its last qualifying day.
type StreakState struct {
	Current  int
	Max      int
	LastDate string
}

// AdvanceStreak applies one qualifying activity on day to s.
// Same day is a no-op, the following day extends the streak, any larger gap restarts it at 1.
// A day earlier than LastDate is treated as already counted.
func AdvanceStreak(s StreakState, day string) (StreakState, bool) {
	if day == "" || day == s.LastDate {
		return s, false
	}
	if s.LastDate == "" {
		return bump(StreakState{Current: 0, Max: s.Max}, day), true
	}
	gap, ok := dayGap(s.LastDate, day)
	switch {
	case !ok:
		return bump(StreakState{Current: 0, Max: s.Max}, day), true
	case gap < 0:
		return s, false
	case gap == 1:
		return bump(s, day), true
	default:
		return bump(StreakState{Current: 0, Max: s.Max}, day), true
	}
}

func bump(s StreakState, day string) StreakState {
	s.Current++
	if s.Current > s.Max {
		s.Max = s.Current
	}
	s.LastDate = day
	return s
}

func dayGap(from, to string) (int, bool) {
	a, err := time.Parse(DayLayout, from)
	if err != nil {
		return 0, false
	}
	b, err := time.Parse(DayLayout, to)
	if err != nil {
		return 0, false
	}
	return int(b.Sub(a).Hours() / 24), true
}
