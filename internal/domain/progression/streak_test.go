package progression

import "testing"

func TestAdvanceStreak(t *testing.T) {
	s, changed := AdvanceStreak(StreakState{}, "2026-03-01")
	if !changed || s.Current != 1 || s.Max != 1 || s.LastDate != "2026-03-01" {
		t.Fatalf("first day: got=%+v changed=%v", s, changed)
	}

	same, changed := AdvanceStreak(s, "2026-03-01")
	if changed || same != s {
		t.Fatalf("same day should be a no-op: got=%+v changed=%v", same, changed)
	}

	s, _ = AdvanceStreak(s, "2026-03-02")
	s, _ = AdvanceStreak(s, "2026-03-03")
	if s.Current != 3 || s.Max != 3 {
		t.Fatalf("consecutive days: want=3/3 got=%d/%d", s.Current, s.Max)
	}

	s, changed = AdvanceStreak(s, "2026-03-06")
	if !changed || s.Current != 1 || s.Max != 3 {
		t.Fatalf("gap resets: want=1/3 got=%d/%d", s.Current, s.Max)
	}
}

func TestAdvanceStreakAcrossMonthBoundary(t *testing.T) {
	s := StreakState{Current: 4, Max: 9, LastDate: "2026-02-28"}
	s, _ = AdvanceStreak(s, "2026-03-01")
	if s.Current != 5 || s.Max != 9 {
		t.Fatalf("month boundary: want=5/9 got=%d/%d", s.Current, s.Max)
	}
}

func TestAdvanceStreakIgnoresEarlierDay(t *testing.T) {
	s := StreakState{Current: 2, Max: 2, LastDate: "2026-03-10"}
	got, changed := AdvanceStreak(s, "2026-03-09")
	if changed || got != s {
		t.Fatalf("earlier day: got=%+v changed=%v", got, changed)
	}
}
