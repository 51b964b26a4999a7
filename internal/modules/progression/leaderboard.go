package progression

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/learnquest-backend/internal/data/repos"
	domainagg "github.com/yungbote/learnquest-backend/internal/domain/aggregates"
	"github.com/yungbote/learnquest-backend/internal/platform/dbctx"
	"github.com/yungbote/learnquest-backend/internal/platform/logger"
)

const (
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 100
)

// LeaderboardCache stores encoded leaderboard pages keyed by limit under a generation.
// Clear starts a new generation; a page put under an older generation is never served.
type LeaderboardCache interface {
	GetPage(ctx context.Context, limit int) (page []byte, gen int64, ok bool, err error)
	PutPage(ctx context.Context, gen int64, limit int, page []byte) error
	Clear(ctx context.Context) error
}

type LeaderboardEntry struct {
	Rank    int       `json:"rank"`
	UserID  uuid.UUID `json:"user_id"`
	Name    string    `json:"name"`
	TotalXP int       `json:"total_xp"`
	Level   int       `json:"level"`
}

// LeaderboardProjector serves the ranked read model. It never blocks writers.
type LeaderboardProjector struct {
	agg   domainagg.ProgressionAggregate
	stats repos.UserStatsRepo
	cache LeaderboardCache
	log   *logger.Logger
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLeaderboardLimit
	case limit > MaxLeaderboardLimit:
		return MaxLeaderboardLimit
	}
	return limit
}

// GetLeaderboard ranks opted-in learners by total XP, ties broken by ascending user id.
func (p *LeaderboardProjector) GetLeaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	limit = clampLimit(limit)
	var (
		gen       int64
		cacheable bool
	)
	if p.cache != nil {
		raw, g, ok, err := p.cache.GetPage(ctx, limit)
		gen, cacheable = g, err == nil
		if err != nil {
			p.log.Warn("leaderboard cache read failed", "error", err)
		} else if ok {
			var page []LeaderboardEntry
			if err := json.Unmarshal(raw, &page); err == nil {
				return page, nil
			}
			p.log.Warn("leaderboard cache page undecodable", "limit", limit)
		}
	}

	rows, err := p.stats.ListLeaderboard(dbctx.Context{Ctx: ctx}, limit)
	if err != nil {
		return nil, readErr("Progression.GetLeaderboard", err)
	}
	page := make([]LeaderboardEntry, 0, len(rows))
	for i, r := range rows {
		page = append(page, LeaderboardEntry{
			Rank:    i + 1,
			UserID:  r.UserID,
			Name:    displayName(r.DisplayName, r.UserID),
			TotalXP: r.TotalXP,
			Level:   r.Level,
		})
	}

	// gen was read before the query, so a Clear that raced it leaves this page unreachable.
	if cacheable {
		if raw, err := json.Marshal(page); err == nil {
			if err := p.cache.PutPage(ctx, gen, limit, raw); err != nil {
				p.log.Warn("leaderboard cache write failed", "error", err)
			}
		}
	}
	return page, nil
}

// Invalidate drops cached pages. Failures only delay freshness until the TTL expires.
func (p *LeaderboardProjector) Invalidate(ctx context.Context) {
	if p == nil || p.cache == nil {
		return
	}
	if err := p.cache.Clear(ctx); err != nil {
		p.log.Warn("leaderboard cache invalidation failed", "error", err)
	}
}

// UpdateProfile sets a learner's leaderboard name and opt-in. Nil fields are left unchanged.
func (p *LeaderboardProjector) UpdateProfile(ctx context.Context, userID uuid.UUID, name *string, show *bool) error {
	if userID == uuid.Nil {
		return validationErr("invalid_user_id", "missing user_id")
	}
	if name == nil && show == nil {
		return validationErr("invalid_profile", "nothing to update")
	}
	if err := p.agg.UpdateProfile(ctx, domainagg.UpdateProfileInput{
		UserID:            userID,
		DisplayName:       name,
		ShowOnLeaderboard: show,
	}); err != nil {
		return fromAggregate(err)
	}
	p.Invalidate(ctx)
	return nil
}

func displayName(name string, userID uuid.UUID) string {
	if n := strings.TrimSpace(name); n != "" {
		return n
	}
	return "Learner " + userID.String()[:8]
}
