package progression

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/yungbote/learnquest-backend/internal/data/aggregates"
	"github.com/yungbote/learnquest-backend/internal/data/repos"
	domainagg "github.com/yungbote/learnquest-backend/internal/domain/aggregates"
	"github.com/yungbote/learnquest-backend/internal/platform/logger"
)

const (
	DefaultDuplicateWindow = 2 * time.Minute
	DefaultMaxBackdate     = 24 * time.Hour
	tracerName             = "github.com/yungbote/learnquest-backend/internal/modules/progression"
)

type EngineDeps struct {
	DB  *gorm.DB
	Log *logger.Logger

	Catalog  *Catalog
	Policies *PolicyRegistry
	Cache    LeaderboardCache

	// Runner and Hooks default to a gorm transaction runner and log hooks.
	Runner aggregates.TxRunner
	Hooks  aggregates.Hooks

	DuplicateWindow time.Duration
	Clock           func() time.Time
	Tracer          trace.Tracer

	// MaxBackdate bounds how far before Clock() a completion timestamp may be.
	MaxBackdate time.Duration
}

// Engine bundles the progression components over one aggregate.
type Engine struct {
	Gate         *CompletionGate
	Ledger       *XPLedger
	Streaks      *StreakTracker
	Achievements *AchievementEvaluator
	Leaderboard  *LeaderboardProjector
	Stats        *StatsReader

	agg domainagg.ProgressionAggregate
	log *logger.Logger
}

func NewEngine(deps EngineDeps) (*Engine, error) {
	if deps.DB == nil {
		return nil, configErr("progression engine requires a database")
	}
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	if deps.Policies == nil {
		deps.Policies = DefaultPolicies()
	}
	if deps.Catalog == nil {
		c, err := LoadCatalog("", DefaultPredicates())
		if err != nil {
			return nil, err
		}
		deps.Catalog = c
	}
	if deps.DuplicateWindow <= 0 {
		deps.DuplicateWindow = DefaultDuplicateWindow
	}
	if deps.MaxBackdate <= 0 {
		deps.MaxBackdate = DefaultMaxBackdate
	}
	if deps.Clock == nil {
		deps.Clock = func() time.Time { return time.Now().UTC() }
	}
	if deps.Tracer == nil {
		deps.Tracer = otel.Tracer(tracerName)
	}
	if deps.Hooks == nil {
		deps.Hooks = aggregates.NewLogHooks(deps.Log)
	}

	log := deps.Log.With("module", "progression")
	stats := repos.NewUserStatsRepo(deps.DB, deps.Log)
	records := repos.NewProgressRecordRepo(deps.DB, deps.Log)
	unlocks := repos.NewAchievementUnlockRepo(deps.DB, deps.Log)

	agg := aggregates.NewProgressionAggregate(aggregates.ProgressionAggregateDeps{
		Base: aggregates.BaseDeps{
			DB:       deps.DB,
			Log:      deps.Log,
			Runner:   deps.Runner,
			Hooks:    deps.Hooks,
			CASGuard: aggregates.NewCASGuard(deps.DB),
			Clock:    deps.Clock,
		},
		Stats:   stats,
		Records: records,
		Unlocks: unlocks,
		Claims:  repos.NewXPAwardClaimRepo(deps.DB, deps.Log),
		Guards:  repos.NewSubmissionGuardRepo(deps.DB, deps.Log),
		Txns:    repos.NewXPTransactionRepo(deps.DB, deps.Log),
	})

	board := &LeaderboardProjector{agg: agg, stats: stats, cache: deps.Cache, log: log.With("component", "leaderboard")}
	achievements := &AchievementEvaluator{agg: agg, catalog: deps.Catalog, unlocks: unlocks, clock: deps.Clock, log: log.With("component", "achievements")}
	e := &Engine{
		Ledger:       &XPLedger{agg: agg, board: board},
		Streaks:      &StreakTracker{agg: agg},
		Achievements: achievements,
		Leaderboard:  board,
		Stats:        &StatsReader{stats: stats, records: records, log: log.With("component", "stats")},
		agg:          agg,
		log:          log,
	}
	e.Gate = &CompletionGate{
		agg:         agg,
		policies:    deps.Policies,
		catalog:     deps.Catalog,
		board:       board,
		window:      deps.DuplicateWindow,
		maxBackdate: deps.MaxBackdate,
		clock:       deps.Clock,
		tracer:      deps.Tracer,
		log:         log.With("component", "completion_gate"),
	}
	return e, nil
}

// PurgeUser hard-deletes every progression row owned by userID.
func (e *Engine) PurgeUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, validationErr("invalid_user_id", "missing user_id")
	}
	res, err := e.agg.PurgeUser(ctx, userID)
	if err != nil {
		return 0, fromAggregate(err)
	}
	e.Leaderboard.Invalidate(ctx)
	e.log.Info("purged learner progression", "user_id", userID.String(), "rows", res.RowsDeleted)
	return res.RowsDeleted, nil
}
