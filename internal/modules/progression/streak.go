package progression

import (
	"context"
	"time"

	"github.com/google/uuid"

	domainagg "github.com/yungbote/learnquest-backend/internal/domain/aggregates"
	types "github.com/yungbote/learnquest-backend/internal/domain/progression"
)

type StreakTracker struct {
	agg domainagg.ProgressionAggregate
}

// Touch records activity of class on the UTC calendar day of at.
func (s *StreakTracker) Touch(ctx context.Context, userID uuid.UUID, at time.Time, class types.StreakClass) (StreakSummary, error) {
	if userID == uuid.Nil {
		return StreakSummary{}, validationErr("invalid_user_id", "missing user_id")
	}
	if at.IsZero() {
		return StreakSummary{}, validationErr("invalid_timestamp", "missing activity date")
	}
	if class == "" {
		class = types.StreakAny
	}
	res, err := s.agg.TouchStreak(ctx, domainagg.TouchStreakInput{
		UserID: userID,
		Day:    types.CalendarDay(at),
		Class:  class,
	})
	if err != nil {
		return StreakSummary{}, fromAggregate(err)
	}
	return StreakSummary{
		CurrentStreak:  res.CurrentStreak,
		MaxStreak:      res.MaxStreak,
		LearningStreak: res.LearningStreak,
	}, nil
}
