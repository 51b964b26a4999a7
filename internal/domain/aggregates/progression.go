package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/learnquest-backend/internal/domain/progression"
)

var ProgressionAggregateContract = Contract{
	Name: "Progression.LearnerProgress",
	Owns: []string{
		progression.UserStats{}.TableName(),
		progression.ProgressRecord{}.TableName(),
		progression.AchievementUnlock{}.TableName(),
		progression.XPAwardClaim{}.TableName(),
		progression.SubmissionGuard{}.TableName(),
		progression.XPTransaction{}.TableName(),
	},
	Notes: "XP, level, streak, cap, progress record and unlock writes for one learner commit together.",
}

// ProgressionAggregate owns a learner's progression invariants.
//
// Write method failures return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodeConflict, CodeRetryable, CodeInternal.
type ProgressionAggregate interface {
	Aggregate

	// RecordCompletion runs the duplicate window, cap claim, ledger, streak, progress record
	// and achievement steps of one submission in a single transaction.
	RecordCompletion(ctx context.Context, in RecordCompletionInput) (RecordCompletionResult, error)

	// ApplyXP adds a non-negative delta to the learner's ledger.
	ApplyXP(ctx context.Context, in ApplyXPInput) (LedgerResult, error)

	// AdjustXP applies a signed administrative correction, flooring the total at zero.
	AdjustXP(ctx context.Context, in AdjustXPInput) (LedgerResult, error)

	// TouchStreak records qualifying activity on a calendar day.
	TouchStreak(ctx context.Context, in TouchStreakInput) (StreakResult, error)

	// EvaluateAchievements unlocks every not-yet-unlocked achievement whose rule holds.
	EvaluateAchievements(ctx context.Context, in EvaluateAchievementsInput) ([]UnlockedAchievement, error)

	// UpdateProfile sets the learner's leaderboard name and opt-in flag.
	UpdateProfile(ctx context.Context, in UpdateProfileInput) error

	// PurgeUser deletes every progression row a learner owns.
	PurgeUser(ctx context.Context, userID uuid.UUID) (PurgeResult, error)
}

// AchievementRules decides which achievements a stats snapshot qualifies for.
// Implementations must be pure and return grants in catalog order.
type AchievementRules interface {
	Qualifying(snap StatsSnapshot, unlocked map[string]bool) []AchievementGrant
}

// StatsSnapshot is the read model predicates are evaluated against.
type StatsSnapshot struct {
	UserID           uuid.UUID
	TotalXP          int
	Level            int
	CurrentStreak    int
	MaxStreak        int
	LearningStreak   int
	QuizzesCompleted int
	AverageQuizScore float64
	PerfectScores    int
	CompletedByType  map[string]int
}

type AchievementGrant struct {
	AchievementID string
	Name          string
	Rarity        string
	XPReward      int
}

type UnlockedAchievement struct {
	AchievementID string
	Name          string
	Rarity        string
	XPReward      int
	UnlockedAt    time.Time
}

type RecordCompletionInput struct {
	UserID          uuid.UUID
	ContentID       uuid.UUID
	ContentType     string
	ActivityVariant string
	SubmissionID    uuid.UUID
	Score           float64
	TimeSpent       int
	At              time.Time

	// ActivityXP is paid when the submission is neither a duplicate nor capped.
	ActivityXP       int
	PerformanceBonus int

	GuardKey        string
	DuplicateWindow time.Duration

	// ClaimKey is empty for uncapped variants. CapOutcome is reported when the claim already exists.
	ClaimKey   string
	CapOutcome string

	// AttemptTracked variants get a new record per submission under RecordKey;
	// otherwise RecordKey names the singleton record updated in place.
	AttemptTracked bool
	RecordKey      string
	StreakClass    progression.StreakClass

	Rules AchievementRules
	Data  map[string]any
}

type RecordCompletionResult struct {
	Outcome          string
	ActivityXP       int
	AchievementXP    int
	PerformanceBonus int
	Ledger           LedgerResult
	Streak           StreakResult
	Achievements     []UnlockedAchievement
	RecordID         uuid.UUID
	Attempts         int
}

type ApplyXPInput struct {
	UserID    uuid.UUID
	Delta     int
	Source    string
	Reference string
	Metadata  map[string]any
}

type AdjustXPInput struct {
	UserID uuid.UUID
	Delta  int
	Reason string
	Actor  string
}

// LedgerResult describes the ledger after a write. PreviousLevel is the level before it.
type LedgerResult struct {
	TotalXP       int
	Level         int
	PreviousLevel int
	LeveledUp     bool
}

type TouchStreakInput struct {
	UserID uuid.UUID
	Day    string
	Class  progression.StreakClass
}

type StreakResult struct {
	CurrentStreak     int
	MaxStreak         int
	LearningStreak    int
	MaxLearningStreak int
}

type EvaluateAchievementsInput struct {
	UserID uuid.UUID
	At     time.Time
	Rules  AchievementRules
}

type UpdateProfileInput struct {
	UserID            uuid.UUID
	DisplayName       *string
	ShowOnLeaderboard *bool
}

type PurgeResult struct {
	RowsDeleted int64
}
