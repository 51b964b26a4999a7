package progression

import (
	"context"
	"strings"

	"github.com/google/uuid"

	domainagg "github.com/yungbote/learnquest-backend/internal/domain/aggregates"
	types "github.com/yungbote/learnquest-backend/internal/domain/progression"
)

type LedgerResult struct {
	TotalXP       int  `json:"total_xp"`
	Level         int  `json:"level"`
	LeveledUp     bool `json:"leveled_up"`
	PreviousLevel int  `json:"previous_level"`
}

func ledgerResultOf(r domainagg.LedgerResult) LedgerResult {
	return LedgerResult{
		TotalXP:       r.TotalXP,
		Level:         r.Level,
		LeveledUp:     r.LeveledUp,
		PreviousLevel: r.PreviousLevel,
	}
}

// XPLedger is the only writer of a learner's total XP and level.
type XPLedger struct {
	agg   domainagg.ProgressionAggregate
	board *LeaderboardProjector
}

// Apply adds a non-negative delta. Level is recomputed in the same statement.
func (l *XPLedger) Apply(ctx context.Context, userID uuid.UUID, delta int) (LedgerResult, error) {
	if userID == uuid.Nil {
		return LedgerResult{}, validationErr("invalid_user_id", "missing user_id")
	}
	if delta < 0 {
		return LedgerResult{}, validationErr("invalid_xp_delta", "xp delta must be >= 0, got %d", delta)
	}
	res, err := l.agg.ApplyXP(ctx, domainagg.ApplyXPInput{
		UserID: userID,
		Delta:  delta,
		Source: types.XPSourceActivity,
	})
	if err != nil {
		return LedgerResult{}, fromAggregate(err)
	}
	if delta > 0 {
		l.board.Invalidate(ctx)
	}
	return ledgerResultOf(res), nil
}

// Adjust applies an administrative signed correction. The total never drops below zero.
func (l *XPLedger) Adjust(ctx context.Context, userID uuid.UUID, delta int, reason, actor string) (LedgerResult, error) {
	if userID == uuid.Nil {
		return LedgerResult{}, validationErr("invalid_user_id", "missing user_id")
	}
	if strings.TrimSpace(reason) == "" {
		return LedgerResult{}, validationErr("invalid_reason", "adjustment reason is required")
	}
	res, err := l.agg.AdjustXP(ctx, domainagg.AdjustXPInput{
		UserID: userID,
		Delta:  delta,
		Reason: strings.TrimSpace(reason),
		Actor:  strings.TrimSpace(actor),
	})
	if err != nil {
		return LedgerResult{}, fromAggregate(err)
	}
	l.board.Invalidate(ctx)
	return ledgerResultOf(res), nil
}
