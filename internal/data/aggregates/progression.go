package aggregates

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/yungbote/learnquest-backend/internal/data/repos"
	domainagg "github.com/yungbote/learnquest-backend/internal/domain/aggregates"
	types "github.com/yungbote/learnquest-backend/internal/domain/progression"
	"github.com/yungbote/learnquest-backend/internal/platform/dbctx"
	"gorm.io/datatypes"
)

const (
	maxSessionsPerRecord = 50
	maxDisplayNameRunes  = 64
)

type ProgressionAggregateDeps struct {
	Base BaseDeps

	Stats   repos.UserStatsRepo
	Records repos.ProgressRecordRepo
	Unlocks repos.AchievementUnlockRepo
	Claims  repos.XPAwardClaimRepo
	Guards  repos.SubmissionGuardRepo
	Txns    repos.XPTransactionRepo
}

type progressionAggregate struct {
	deps ProgressionAggregateDeps
}

func NewProgressionAggregate(deps ProgressionAggregateDeps) domainagg.ProgressionAggregate {
	deps.Base = deps.Base.withDefaults()
	return &progressionAggregate{deps: deps}
}

func (a *progressionAggregate) Contract() domainagg.Contract {
	return domainagg.ProgressionAggregateContract
}

func (a *progressionAggregate) configured() bool {
	d := a.deps
	return d.Stats != nil && d.Records != nil && d.Unlocks != nil && d.Claims != nil && d.Guards != nil && d.Txns != nil
}

func (a *progressionAggregate) RecordCompletion(ctx context.Context, in domainagg.RecordCompletionInput) (domainagg.RecordCompletionResult, error) {
	const op = "Progression.LearnerProgress.RecordCompletion"
	var out domainagg.RecordCompletionResult
	if err := validateCompletion(in); err != nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, err.Error(), nil)
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "progression aggregate repos not configured", nil)
	}
	at := in.At.UTC()
	day := types.CalendarDay(at)

	err := inWriteTx(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		out = domainagg.RecordCompletionResult{}
		if err := a.deps.Stats.Ensure(dbc, in.UserID); err != nil {
			return err
		}
		before, err := a.deps.Stats.LockByUserID(dbc, in.UserID)
		if err != nil {
			return err
		}
		out.Ledger = domainagg.LedgerResult{TotalXP: before.TotalXP, Level: before.Level, PreviousLevel: before.Level}
		out.Streak = streakResultOf(before)

		fresh, err := a.deps.Guards.Acquire(dbc, in.UserID, in.GuardKey, at, in.DuplicateWindow, in.SubmissionID)
		if err != nil {
			return err
		}
		outcome := types.OutcomeAwarded
		switch {
		case !fresh:
			outcome = types.OutcomeDuplicate
		case in.ClaimKey != "":
			claimed, err := a.deps.Claims.TryClaim(dbc, &types.XPAwardClaim{
				UserID:       in.UserID,
				ClaimKey:     in.ClaimKey,
				SubmissionID: in.SubmissionID,
				Amount:       in.ActivityXP,
				ClaimedAt:    at,
			})
			if err != nil {
				return err
			}
			if !claimed {
				outcome = in.CapOutcome
				if outcome == "" {
					outcome = types.OutcomeDailyCapReached
				}
			}
		}
		out.Outcome = outcome

		if outcome == types.OutcomeAwarded && in.ActivityXP > 0 {
			led, err := a.applyXP(dbc, in.UserID, in.ActivityXP, types.XPSourceActivity, in.SubmissionID.String(), map[string]any{
				"content_id":        in.ContentID.String(),
				"activity_variant":  in.ActivityVariant,
				"performance_bonus": in.PerformanceBonus,
			})
			if err != nil {
				return err
			}
			out.Ledger = led
			out.ActivityXP = in.ActivityXP
			out.PerformanceBonus = in.PerformanceBonus
		}

		if outcome != types.OutcomeDuplicate {
			sr, err := a.touchStreak(dbc, before, day, in.StreakClass)
			if err != nil {
				return err
			}
			out.Streak = sr
		}

		rec, err := a.writeRecord(dbc, in, at, outcome, out.ActivityXP)
		if err != nil {
			return err
		}
		out.RecordID = rec.ID
		out.Attempts = rec.Attempts

		if outcome != types.OutcomeDuplicate && in.Rules != nil {
			unlocked, led, err := a.evaluate(dbc, in.UserID, at, in.Rules)
			if err != nil {
				return err
			}
			out.Achievements = unlocked
			for _, u := range unlocked {
				out.AchievementXP += u.XPReward
			}
			if led != nil {
				out.Ledger = *led
			}
		}

		out.Ledger.PreviousLevel = before.Level
		out.Ledger.LeveledUp = out.Ledger.Level > before.Level
		return nil
	})
	return out, err
}

func validateCompletion(in domainagg.RecordCompletionInput) error {
	switch {
	case in.UserID == uuid.Nil:
		return fmt.Errorf("missing user_id")
	case in.ContentID == uuid.Nil:
		return fmt.Errorf("missing content_id")
	case in.SubmissionID == uuid.Nil:
		return fmt.Errorf("missing submission_id")
	case strings.TrimSpace(in.ContentType) == "":
		return fmt.Errorf("missing content_type")
	case strings.TrimSpace(in.ActivityVariant) == "":
		return fmt.Errorf("missing activity_variant")
	case in.GuardKey == "" || in.RecordKey == "":
		return fmt.Errorf("missing guard_key or record_key")
	case in.ActivityXP < 0:
		return fmt.Errorf("activity xp must be >= 0")
	case in.At.IsZero():
		return fmt.Errorf("missing timestamp")
	}
	return nil
}

// applyXP is the single ledger write path. It must run inside dbc.Tx.
func (a *progressionAggregate) applyXP(dbc dbctx.Context, userID uuid.UUID, delta int, source, ref string, meta map[string]any) (domainagg.LedgerResult, error) {
	var out domainagg.LedgerResult
	if err := RequireNonNegative(delta, "xp delta"); err != nil {
		return out, err
	}
	row, err := a.deps.Stats.IncrementXP(dbc, userID, delta)
	if err != nil {
		return out, err
	}
	if row.Level != types.LevelForXP(row.TotalXP) {
		return out, InvariantError(fmt.Sprintf("level %d out of sync with total_xp %d", row.Level, row.TotalXP))
	}
	if err := a.journal(dbc, userID, source, ref, delta, row, meta); err != nil {
		return out, err
	}
	prev := types.LevelForXP(row.TotalXP - delta)
	return domainagg.LedgerResult{
		TotalXP:       row.TotalXP,
		Level:         row.Level,
		PreviousLevel: prev,
		LeveledUp:     row.Level > prev,
	}, nil
}

func (a *progressionAggregate) journal(dbc dbctx.Context, userID uuid.UUID, source, ref string, delta int, row *types.UserStats, meta map[string]any) error {
	if meta == nil {
		meta = map[string]any{}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return a.deps.Txns.Append(dbc, &types.XPTransaction{
		UserID:     userID,
		Source:     source,
		Reference:  ref,
		Delta:      delta,
		TotalAfter: row.TotalXP,
		LevelAfter: row.Level,
		Metadata:   datatypes.JSON(metaJSON),
		CreatedAt:  a.deps.Base.Clock(),
	})
}

func (a *progressionAggregate) touchStreak(dbc dbctx.Context, row *types.UserStats, day string, class types.StreakClass) (domainagg.StreakResult, error) {
	updates := map[string]interface{}{}

	anyNext, changed := types.AdvanceStreak(types.StreakState{
		Current:  row.CurrentStreak,
		Max:      row.MaxStreak,
		LastDate: row.LastActiveDate,
	}, day)
	if changed {
		updates["current_streak"] = anyNext.Current
		updates["max_streak"] = anyNext.Max
		updates["last_active_date"] = anyNext.LastDate
	}
	out := domainagg.StreakResult{
		CurrentStreak:     anyNext.Current,
		MaxStreak:         anyNext.Max,
		LearningStreak:    row.LearningStreak,
		MaxLearningStreak: row.MaxLearningStreak,
	}

	if class == types.StreakLearning {
		next, changed := types.AdvanceStreak(types.StreakState{
			Current:  row.LearningStreak,
			Max:      row.MaxLearningStreak,
			LastDate: row.LastLearningDate,
		}, day)
		if changed {
			updates["learning_streak"] = next.Current
			updates["max_learning_streak"] = next.Max
			updates["last_learning_date"] = next.LastDate
		}
		out.LearningStreak = next.Current
		out.MaxLearningStreak = next.Max
	}

	if len(updates) == 0 {
		return out, nil
	}
	if err := a.deps.Stats.UpdateFields(dbc, row.UserID, updates); err != nil {
		return out, err
	}
	row.CurrentStreak, row.MaxStreak = out.CurrentStreak, out.MaxStreak
	row.LearningStreak, row.MaxLearningStreak = out.LearningStreak, out.MaxLearningStreak
	if v, ok := updates["last_active_date"].(string); ok {
		row.LastActiveDate = v
	}
	if v, ok := updates["last_learning_date"].(string); ok {
		row.LastLearningDate = v
	}
	return out, nil
}

func streakResultOf(row *types.UserStats) domainagg.StreakResult {
	return domainagg.StreakResult{
		CurrentStreak:     row.CurrentStreak,
		MaxStreak:         row.MaxStreak,
		LearningStreak:    row.LearningStreak,
		MaxLearningStreak: row.MaxLearningStreak,
	}
}

func (a *progressionAggregate) writeRecord(dbc dbctx.Context, in domainagg.RecordCompletionInput, at time.Time, outcome string, xp int) (*types.ProgressRecord, error) {
	session := types.ProgressSession{
		SubmissionID: in.SubmissionID.String(),
		Score:        in.Score,
		TimeSpent:    in.TimeSpent,
		XPAwarded:    xp,
		Outcome:      outcome,
		At:           at,
	}
	data := map[string]any{}
	for k, v := range in.Data {
		data[k] = v
	}
	data["quizType"] = in.ActivityVariant
	data["xpAwarded"] = xp
	data["lastOutcome"] = outcome
	if outcome == types.OutcomeAwarded {
		data["performanceBonus"] = in.PerformanceBonus
	}

	var existing *types.ProgressRecord
	if !in.AttemptTracked {
		var err error
		existing, err = a.deps.Records.GetByKey(dbc, in.UserID, in.RecordKey)
		if err != nil {
			return nil, err
		}
	}
	if existing == nil {
		attempts := 1
		if in.AttemptTracked {
			prior, err := a.deps.Records.CountAttempts(dbc, in.UserID, in.ContentID, in.ActivityVariant)
			if err != nil {
				return nil, err
			}
			attempts = prior + 1
		}
		sessionsJSON, err := json.Marshal([]types.ProgressSession{session})
		if err != nil {
			return nil, err
		}
		dataJSON, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		first := at
		rec := &types.ProgressRecord{
			ID:               uuid.New(),
			UserID:           in.UserID,
			RecordKey:        in.RecordKey,
			ContentID:        in.ContentID,
			ContentType:      in.ContentType,
			ActivityVariant:  in.ActivityVariant,
			SubmissionID:     in.SubmissionID,
			Completed:        true,
			Score:            in.Score,
			Attempts:         attempts,
			TimeSpent:        in.TimeSpent,
			Outcome:          outcome,
			TotalXPEarned:    xp,
			LastAccessed:     at,
			FirstCompletedAt: &first,
			Sessions:         datatypes.JSON(sessionsJSON),
			Data:             datatypes.JSON(dataJSON),
		}
		if _, err := a.deps.Records.Create(dbc, []*types.ProgressRecord{rec}); err != nil {
			return nil, err
		}
		return rec, nil
	}

	var sessions []types.ProgressSession
	if len(existing.Sessions) > 0 {
		if err := json.Unmarshal(existing.Sessions, &sessions); err != nil {
			return nil, err
		}
	}
	sessions = append(sessions, session)
	if len(sessions) > maxSessionsPerRecord {
		sessions = sessions[len(sessions)-maxSessionsPerRecord:]
	}
	sessionsJSON, err := json.Marshal(sessions)
	if err != nil {
		return nil, err
	}
	var prevData map[string]any
	if len(existing.Data) > 0 {
		_ = json.Unmarshal(existing.Data, &prevData)
	}
	for k, v := range prevData {
		if _, ok := data[k]; !ok {
			data[k] = v
		}
	}
	data["xpAwarded"] = existing.TotalXPEarned + xp
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{
		"attempts":        existing.Attempts + 1,
		"time_spent":      existing.TimeSpent + in.TimeSpent,
		"total_xp_earned": existing.TotalXPEarned + xp,
		"submission_id":   in.SubmissionID,
		"sessions":        datatypes.JSON(sessionsJSON),
		"data":            datatypes.JSON(dataJSON),
		"completed":       true,
		"updated_at":      a.deps.Base.Clock(),
	}
	if at.After(existing.LastAccessed) {
		updates["last_accessed"] = at
	}
	if in.Score > existing.Score {
		updates["score"] = in.Score
	}
	if existing.FirstCompletedAt == nil {
		updates["first_completed_at"] = at
	}
	// Once awarded, a singleton record stays awarded so completion counts keep it.
	if existing.Outcome != types.OutcomeAwarded && outcome != types.OutcomeDuplicate {
		updates["outcome"] = outcome
	}
	ok, err := a.deps.Base.CASGuard.UpdateIfUnchanged(dbc, types.ProgressRecord{}, existing.ID, "attempts", existing.Attempts, updates)
	if err != nil {
		return nil, err
	}
	if err := RequireCASSuccess(ok, "progress record changed concurrently"); err != nil {
		return nil, err
	}
	existing.Attempts++
	return existing, nil
}

// evaluate runs one pass of rules against a fresh snapshot inside dbc.Tx.
// The returned ledger is nil when no reward was paid.
func (a *progressionAggregate) evaluate(dbc dbctx.Context, userID uuid.UUID, at time.Time, rules domainagg.AchievementRules) ([]domainagg.UnlockedAchievement, *domainagg.LedgerResult, error) {
	snap, unlocked, err := a.snapshot(dbc, userID)
	if err != nil {
		return nil, nil, err
	}
	grants := rules.Qualifying(snap, unlocked)

	out := make([]domainagg.UnlockedAchievement, 0, len(grants))
	var last *domainagg.LedgerResult
	for _, g := range grants {
		if unlocked[g.AchievementID] {
			continue
		}
		inserted, err := a.deps.Unlocks.TryInsert(dbc, &types.AchievementUnlock{
			UserID:        userID,
			AchievementID: g.AchievementID,
			Rarity:        g.Rarity,
			XPReward:      g.XPReward,
			UnlockedAt:    at,
		})
		if err != nil {
			return nil, nil, err
		}
		if !inserted {
			continue
		}
		unlocked[g.AchievementID] = true
		if g.XPReward > 0 {
			led, err := a.applyXP(dbc, userID, g.XPReward, types.XPSourceAchievement, g.AchievementID, map[string]any{
				"rarity": g.Rarity,
			})
			if err != nil {
				return nil, nil, err
			}
			last = &led
		}
		out = append(out, domainagg.UnlockedAchievement{
			AchievementID: g.AchievementID,
			Name:          g.Name,
			Rarity:        g.Rarity,
			XPReward:      g.XPReward,
			UnlockedAt:    at,
		})
	}
	return out, last, nil
}

func (a *progressionAggregate) snapshot(dbc dbctx.Context, userID uuid.UUID) (domainagg.StatsSnapshot, map[string]bool, error) {
	var snap domainagg.StatsSnapshot
	stats, err := a.deps.Stats.GetByUserID(dbc, userID)
	if err != nil {
		return snap, nil, err
	}
	if stats == nil {
		stats = types.NewUserStats(userID, a.deps.Base.Clock())
	}
	quiz, err := a.deps.Records.QuizSummary(dbc, userID)
	if err != nil {
		return snap, nil, err
	}
	byType, err := a.deps.Records.CompletedByType(dbc, userID)
	if err != nil {
		return snap, nil, err
	}
	unlocked, err := a.deps.Unlocks.UnlockedIDs(dbc, userID)
	if err != nil {
		return snap, nil, err
	}
	snap = domainagg.StatsSnapshot{
		UserID:           userID,
		TotalXP:          stats.TotalXP,
		Level:            stats.Level,
		CurrentStreak:    stats.CurrentStreak,
		MaxStreak:        stats.MaxStreak,
		LearningStreak:   stats.LearningStreak,
		QuizzesCompleted: quiz.Completed,
		AverageQuizScore: quiz.AverageScore,
		PerfectScores:    quiz.PerfectScores,
		CompletedByType:  byType,
	}
	return snap, unlocked, nil
}

func (a *progressionAggregate) ApplyXP(ctx context.Context, in domainagg.ApplyXPInput) (domainagg.LedgerResult, error) {
	const op = "Progression.LearnerProgress.ApplyXP"
	var out domainagg.LedgerResult
	if in.UserID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing user_id", nil)
	}
	if in.Delta < 0 {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "xp delta must be >= 0", nil)
	}
	source := strings.TrimSpace(in.Source)
	if source == "" {
		source = types.XPSourceActivity
	}
	err := inWriteTx(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		if err := a.deps.Stats.Ensure(dbc, in.UserID); err != nil {
			return err
		}
		led, err := a.applyXP(dbc, in.UserID, in.Delta, source, in.Reference, in.Metadata)
		if err != nil {
			return err
		}
		out = led
		return nil
	})
	return out, err
}

func (a *progressionAggregate) AdjustXP(ctx context.Context, in domainagg.AdjustXPInput) (domainagg.LedgerResult, error) {
	const op = "Progression.LearnerProgress.AdjustXP"
	var out domainagg.LedgerResult
	if in.UserID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing user_id", nil)
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "adjustment reason is required", nil)
	}
	err := inWriteTx(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		if err := a.deps.Stats.Ensure(dbc, in.UserID); err != nil {
			return err
		}
		before, err := a.deps.Stats.LockByUserID(dbc, in.UserID)
		if err != nil {
			return err
		}
		row, err := a.deps.Stats.AdjustXP(dbc, in.UserID, in.Delta)
		if err != nil {
			return err
		}
		applied := row.TotalXP - before.TotalXP
		if err := a.journal(dbc, in.UserID, types.XPSourceAdjustment, reason, applied, row, map[string]any{
			"requested_delta": in.Delta,
			"actor":           strings.TrimSpace(in.Actor),
		}); err != nil {
			return err
		}
		out = domainagg.LedgerResult{
			TotalXP:       row.TotalXP,
			Level:         row.Level,
			PreviousLevel: before.Level,
			LeveledUp:     row.Level > before.Level,
		}
		return nil
	})
	return out, err
}

func (a *progressionAggregate) TouchStreak(ctx context.Context, in domainagg.TouchStreakInput) (domainagg.StreakResult, error) {
	const op = "Progression.LearnerProgress.TouchStreak"
	var out domainagg.StreakResult
	if in.UserID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing user_id", nil)
	}
	if _, err := time.Parse(types.DayLayout, in.Day); err != nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "day must be YYYY-MM-DD", err)
	}
	err := inWriteTx(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		if err := a.deps.Stats.Ensure(dbc, in.UserID); err != nil {
			return err
		}
		row, err := a.deps.Stats.LockByUserID(dbc, in.UserID)
		if err != nil {
			return err
		}
		sr, err := a.touchStreak(dbc, row, in.Day, in.Class)
		if err != nil {
			return err
		}
		out = sr
		return nil
	})
	return out, err
}

func (a *progressionAggregate) EvaluateAchievements(ctx context.Context, in domainagg.EvaluateAchievementsInput) ([]domainagg.UnlockedAchievement, error) {
	const op = "Progression.LearnerProgress.EvaluateAchievements"
	if in.UserID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing user_id", nil)
	}
	if in.Rules == nil {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "achievement rules not configured", nil)
	}
	at := in.At.UTC()
	if in.At.IsZero() {
		at = a.deps.Base.Clock()
	}
	var out []domainagg.UnlockedAchievement
	err := inWriteTx(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		if err := a.deps.Stats.Ensure(dbc, in.UserID); err != nil {
			return err
		}
		if _, err := a.deps.Stats.LockByUserID(dbc, in.UserID); err != nil {
			return err
		}
		unlocked, _, err := a.evaluate(dbc, in.UserID, at, in.Rules)
		if err != nil {
			return err
		}
		out = unlocked
		return nil
	})
	return out, err
}

func (a *progressionAggregate) UpdateProfile(ctx context.Context, in domainagg.UpdateProfileInput) error {
	const op = "Progression.LearnerProgress.UpdateProfile"
	if in.UserID == uuid.Nil {
		return domainagg.NewError(domainagg.CodeValidation, op, "missing user_id", nil)
	}
	updates := map[string]interface{}{}
	if in.DisplayName != nil {
		name := strings.TrimSpace(*in.DisplayName)
		if utf8.RuneCountInString(name) > maxDisplayNameRunes {
			return domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf("display name longer than %d characters", maxDisplayNameRunes), nil)
		}
		updates["display_name"] = name
	}
	if in.ShowOnLeaderboard != nil {
		updates["show_on_leaderboard"] = *in.ShowOnLeaderboard
	}
	if len(updates) == 0 {
		return nil
	}
	return inWriteTx(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		if err := a.deps.Stats.Ensure(dbc, in.UserID); err != nil {
			return err
		}
		return a.deps.Stats.UpdateFields(dbc, in.UserID, updates)
	})
}

func (a *progressionAggregate) PurgeUser(ctx context.Context, userID uuid.UUID) (domainagg.PurgeResult, error) {
	const op = "Progression.LearnerProgress.PurgeUser"
	var out domainagg.PurgeResult
	if userID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing user_id", nil)
	}
	err := inWriteTx(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		out = domainagg.PurgeResult{}
		deletes := []func(dbctx.Context, uuid.UUID) (int64, error){
			a.deps.Records.DeleteByUserID,
			a.deps.Unlocks.DeleteByUserID,
			a.deps.Claims.DeleteByUserID,
			a.deps.Guards.DeleteByUserID,
			a.deps.Txns.DeleteByUserID,
			a.deps.Stats.DeleteByUserID,
		}
		for _, del := range deletes {
			n, err := del(dbc, userID)
			if err != nil {
				return err
			}
			out.RowsDeleted += n
		}
		return nil
	})
	return out, err
}
