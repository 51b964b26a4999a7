package progression

import (
	"math"
	"time"
)

const (
	XPPerLevel     = 100
	BaseActivityXP = 10

	// DayLayout is the calendar-day format used for streak dates and daily caps.
	DayLayout = "2006-01-02"
)

// LevelForXP is floor(total/100)+1. Negative totals never occur; they read as level 1.
func LevelForXP(total int) int {
	if total < 0 {
		return 1
	}
	return total/XPPerLevel + 1
}

// XPToNextLevel is max(0, level*100 - total).
func XPToNextLevel(level, total int) int {
	if d := level*XPPerLevel - total; d > 0 {
		return d
	}
	return 0
}

// ClampScore bounds a score to [0,100].
func ClampScore(score float64) float64 {
	switch {
	case math.IsNaN(score):
		return 0
	case score < 0:
		return 0
	case score > 100:
		return 100
	}
	return score
}

// PerformanceBonus maps a clamped score to its bonus tier.
func PerformanceBonus(score float64) int {
	switch {
	case score >= 100:
		return 5
	case score >= 90:
		return 4
	case score >= 80:
		return 3
	case score >= 70:
		return 2
	case score >= 60:
		return 1
	default:
		return 0
	}
}

// ComputeXP returns base XP plus the performance bonus for score.
func ComputeXP(score float64) int {
	return BaseActivityXP + PerformanceBonus(ClampScore(score))
}

// CalendarDay is the UTC calendar day of t.
func CalendarDay(t time.Time) string {
	return t.UTC().Format(DayLayout)
}
