package progression

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	domainagg "github.com/yungbote/learnquest-backend/internal/domain/aggregates"
	types "github.com/yungbote/learnquest-backend/internal/domain/progression"
	"github.com/yungbote/learnquest-backend/internal/platform/ctxutil"
	"github.com/yungbote/learnquest-backend/internal/platform/logger"
)

const (
	maxClockSkew = 5 * time.Minute
	maxTimeSpent = 24 * 60 * 60
)

// CompletionEvent is one submitted activity completion.
type CompletionEvent struct {
	UserID          uuid.UUID      `json:"user_id"`
	ContentID       uuid.UUID      `json:"content_id"`
	ContentType     string         `json:"content_type"`
	ActivityVariant string         `json:"activity_variant,omitempty"`
	Score           float64        `json:"score"`
	TimeSpent       int            `json:"time_spent"`
	Timestamp       time.Time      `json:"timestamp"`
	Data            map[string]any `json:"data,omitempty"`
}

type StreakSummary struct {
	CurrentStreak  int `json:"current_streak"`
	MaxStreak      int `json:"max_streak"`
	LearningStreak int `json:"learning_streak"`
}

type CompletionResult struct {
	SubmissionID     uuid.UUID         `json:"submission_id"`
	Awarded          bool              `json:"awarded"`
	Outcome          string            `json:"outcome"`
	ActivityVariant  string            `json:"activity_variant"`
	XPGained         int               `json:"xp_gained"`
	ActivityXP       int               `json:"activity_xp"`
	PerformanceBonus int               `json:"performance_bonus"`
	LeveledUp        bool              `json:"leveled_up"`
	NewLevel         int               `json:"new_level"`
	TotalXP          int               `json:"total_xp"`
	Streak           StreakSummary     `json:"streak"`
	NewAchievements  []AchievementView `json:"new_achievements"`
	RecordID         uuid.UUID         `json:"record_id"`
	Attempt          int               `json:"attempt"`
}

// CompletionGate is the engine's single entry point for activity completions.
type CompletionGate struct {
	agg         domainagg.ProgressionAggregate
	policies    *PolicyRegistry
	catalog     *Catalog
	board       *LeaderboardProjector
	window      time.Duration
	maxBackdate time.Duration
	clock       func() time.Time
	tracer      trace.Tracer
	log         *logger.Logger
}

// SubmitCompletion validates ev, resolves its variant policy and records it in one transaction.
// Duplicate and capped submissions are outcomes, not errors.
func (g *CompletionGate) SubmitCompletion(ctx context.Context, ev CompletionEvent) (CompletionResult, error) {
	ctx, span := g.tracer.Start(ctx, "progression.SubmitCompletion")
	defer span.End()
	log := g.log
	if req, ok := ctxutil.RequestFrom(ctx); ok {
		log = log.With("request_id", req.ID)
	}

	var out CompletionResult
	policy, score, err := g.validate(ev)
	if err != nil {
		span.SetStatus(codes.Error, "validation")
		return out, err
	}
	span.SetAttributes(
		attribute.String("progression.content_type", ev.ContentType),
		attribute.String("progression.activity_variant", policy.Name),
	)

	at := ev.Timestamp.UTC()
	submissionID := uuid.New()
	xp, bonus := policy.ActivityXP(score)

	in := domainagg.RecordCompletionInput{
		UserID:           ev.UserID,
		ContentID:        ev.ContentID,
		ContentType:      strings.ToLower(strings.TrimSpace(ev.ContentType)),
		ActivityVariant:  policy.Name,
		SubmissionID:     submissionID,
		Score:            score,
		TimeSpent:        ev.TimeSpent,
		At:               at,
		ActivityXP:       xp,
		PerformanceBonus: bonus,
		DuplicateWindow:  g.window,
		AttemptTracked:   policy.AttemptTracked,
		StreakClass:      types.StreakClassFor(strings.ToLower(strings.TrimSpace(ev.ContentType))),
		Rules:            g.catalog,
		Data:             ev.Data,
	}
	if policy.AttemptTracked {
		in.GuardKey = types.VariantGuardKey(policy.Name)
		in.RecordKey = "attempt:" + submissionID.String()
	} else {
		in.GuardKey = types.ContentGuardKey(ev.ContentID, policy.Name)
		in.RecordKey = types.ContentClaimKey(ev.ContentID, policy.Name)
	}
	switch policy.Cap {
	case CapDaily:
		in.ClaimKey = types.DailyClaimKey(policy.Name, types.CalendarDay(at))
		in.CapOutcome = types.OutcomeDailyCapReached
	case CapOncePerContent:
		in.ClaimKey = types.ContentClaimKey(ev.ContentID, policy.Name)
		in.CapOutcome = types.OutcomeAlreadyCompleted
	}

	res, err := g.agg.RecordCompletion(ctx, in)
	if err != nil {
		mapped := fromAggregate(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "record completion")
		log.Warn("completion failed",
			"user_id", ev.UserID.String(),
			"activity_variant", policy.Name,
			"retryable", IsRetryable(mapped),
			"error", err,
		)
		return out, mapped
	}

	out = CompletionResult{
		SubmissionID:     submissionID,
		Awarded:          res.Outcome == types.OutcomeAwarded,
		Outcome:          res.Outcome,
		ActivityVariant:  policy.Name,
		ActivityXP:       res.ActivityXP,
		PerformanceBonus: res.PerformanceBonus,
		XPGained:         res.ActivityXP + res.AchievementXP,
		LeveledUp:        res.Ledger.LeveledUp,
		NewLevel:         res.Ledger.Level,
		TotalXP:          res.Ledger.TotalXP,
		Streak: StreakSummary{
			CurrentStreak:  res.Streak.CurrentStreak,
			MaxStreak:      res.Streak.MaxStreak,
			LearningStreak: res.Streak.LearningStreak,
		},
		NewAchievements: g.views(res.Achievements),
		RecordID:        res.RecordID,
		Attempt:         res.Attempts,
	}
	span.SetAttributes(
		attribute.String("progression.outcome", out.Outcome),
		attribute.Int("progression.xp_gained", out.XPGained),
	)

	if out.XPGained > 0 {
		g.board.Invalidate(ctx)
	}
	log.Debug("completion recorded",
		"user_id", ev.UserID.String(),
		"activity_variant", policy.Name,
		"outcome", out.Outcome,
		"xp_gained", out.XPGained,
		"level", out.NewLevel,
		"achievements", len(out.NewAchievements),
	)
	return out, nil
}

func (g *CompletionGate) validate(ev CompletionEvent) (VariantPolicy, float64, error) {
	switch {
	case ev.UserID == uuid.Nil:
		return VariantPolicy{}, 0, validationErr("invalid_user_id", "missing user_id")
	case ev.ContentID == uuid.Nil:
		return VariantPolicy{}, 0, validationErr("invalid_content_id", "missing content_id")
	case strings.TrimSpace(ev.ContentType) == "":
		return VariantPolicy{}, 0, validationErr("invalid_content_type", "missing content_type")
	case ev.Timestamp.IsZero():
		return VariantPolicy{}, 0, validationErr("invalid_timestamp", "missing timestamp")
	case math.IsNaN(ev.Score) || math.IsInf(ev.Score, 0):
		return VariantPolicy{}, 0, validationErr("invalid_score", "score must be a finite number")
	case ev.TimeSpent < 0 || ev.TimeSpent > maxTimeSpent:
		return VariantPolicy{}, 0, validationErr("invalid_time_spent", "time_spent must be between 0 and %d seconds", maxTimeSpent)
	}
	now := g.clock()
	if ev.Timestamp.After(now.Add(maxClockSkew)) {
		return VariantPolicy{}, 0, validationErr("invalid_timestamp", "timestamp is in the future")
	}
	// Daily caps and the duplicate window are keyed on the event time.
	if g.maxBackdate > 0 && ev.Timestamp.Before(now.Add(-g.maxBackdate)) {
		return VariantPolicy{}, 0, validationErr("invalid_timestamp", "timestamp is older than %s", g.maxBackdate)
	}
	policy, err := g.policies.Resolve(ev.ContentType, ev.ActivityVariant)
	if err != nil {
		return VariantPolicy{}, 0, err
	}
	return policy, types.ClampScore(ev.Score), nil
}

func (g *CompletionGate) views(unlocked []domainagg.UnlockedAchievement) []AchievementView {
	out := make([]AchievementView, 0, len(unlocked))
	for _, u := range unlocked {
		out = append(out, achievementView(g.catalog, u.AchievementID, u.Name, u.Rarity, u.XPReward, u.UnlockedAt))
	}
	return out
}
