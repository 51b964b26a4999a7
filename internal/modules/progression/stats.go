package progression

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/learnquest-backend/internal/data/repos"
	types "github.com/yungbote/learnquest-backend/internal/domain/progression"
	"github.com/yungbote/learnquest-backend/internal/platform/dbctx"
	"github.com/yungbote/learnquest-backend/internal/platform/logger"
)

type UserStatsView struct {
	UserID                uuid.UUID `json:"user_id"`
	DisplayName           string    `json:"display_name"`
	Level                 int       `json:"level"`
	TotalXP               int       `json:"total_xp"`
	XPToNextLevel         int       `json:"xp_to_next_level"`
	CurrentStreak         int       `json:"current_streak"`
	MaxStreak             int       `json:"max_streak"`
	LearningStreak        int       `json:"learning_streak"`
	TotalQuizzesCompleted int       `json:"total_quizzes_completed"`
	AverageScore          float64   `json:"average_score"`
	PerfectScores         int       `json:"perfect_scores"`
	ShowOnLeaderboard     bool      `json:"show_on_leaderboard"`
}

// StatsReader serves lock-free reads of learner progress.
type StatsReader struct {
	stats   repos.UserStatsRepo
	records repos.ProgressRecordRepo
	log     *logger.Logger
}

// GetUserStats returns the learner's stats. Unknown learners read as level 1 with zero counters.
func (r *StatsReader) GetUserStats(ctx context.Context, userID uuid.UUID) (UserStatsView, error) {
	if userID == uuid.Nil {
		return UserStatsView{}, validationErr("invalid_user_id", "missing user_id")
	}
	var (
		row  *types.UserStats
		quiz repos.QuizSummary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		row, err = r.stats.GetByUserID(dbctx.Context{Ctx: gctx}, userID)
		return err
	})
	g.Go(func() error {
		var err error
		quiz, err = r.records.QuizSummary(dbctx.Context{Ctx: gctx}, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return UserStatsView{}, readErr("Progression.GetUserStats", err)
	}
	if row == nil {
		row = types.NewUserStats(userID, time.Time{})
	}
	return UserStatsView{
		UserID:                userID,
		DisplayName:           row.DisplayName,
		Level:                 row.Level,
		TotalXP:               row.TotalXP,
		XPToNextLevel:         types.XPToNextLevel(row.Level, row.TotalXP),
		CurrentStreak:         row.CurrentStreak,
		MaxStreak:             row.MaxStreak,
		LearningStreak:        row.LearningStreak,
		TotalQuizzesCompleted: quiz.Completed,
		AverageScore:          math.Round(quiz.AverageScore*100) / 100,
		PerfectScores:         quiz.PerfectScores,
		ShowOnLeaderboard:     row.ShowOnLeaderboard,
	}, nil
}

// ListProgress returns a learner's progress records, newest first, optionally for one content item.
func (r *StatsReader) ListProgress(ctx context.Context, userID uuid.UUID, contentID *uuid.UUID, limit int) ([]*types.ProgressRecord, error) {
	if userID == uuid.Nil {
		return nil, validationErr("invalid_user_id", "missing user_id")
	}
	rows, err := r.records.ListByUser(dbctx.Context{Ctx: ctx}, userID, contentID, limit)
	if err != nil {
		return nil, readErr("Progression.ListProgress", err)
	}
	return rows, nil
}
