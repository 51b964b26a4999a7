package progression

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/learnquest-backend/internal/data/repos"
	domainagg "github.com/yungbote/learnquest-backend/internal/domain/aggregates"
	"github.com/yungbote/learnquest-backend/internal/platform/dbctx"
	"github.com/yungbote/learnquest-backend/internal/platform/logger"
)

type AchievementView struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Rarity      string     `json:"rarity"`
	XPReward    int        `json:"xp_reward"`
	UnlockedAt  *time.Time `json:"unlocked_at,omitempty"`
}

func achievementView(c *Catalog, id, name, rarity string, reward int, at time.Time) AchievementView {
	v := AchievementView{ID: id, Name: name, Rarity: rarity, XPReward: reward}
	if def, ok := c.Get(id); ok {
		v.Description = def.Description
		if v.Name == "" {
			v.Name = def.Name
		}
	}
	if v.Name == "" {
		v.Name = id
	}
	if !at.IsZero() {
		t := at.UTC()
		v.UnlockedAt = &t
	}
	return v
}

// AchievementEvaluator unlocks catalog achievements against a learner's current stats.
type AchievementEvaluator struct {
	agg     domainagg.ProgressionAggregate
	catalog *Catalog
	unlocks repos.AchievementUnlockRepo
	clock   func() time.Time
	log     *logger.Logger
}

func (e *AchievementEvaluator) Catalog() *Catalog { return e.catalog }

// Evaluate unlocks every qualifying achievement and pays its reward through the ledger.
// A second call with no state change in between returns an empty list.
func (e *AchievementEvaluator) Evaluate(ctx context.Context, userID uuid.UUID) ([]AchievementView, error) {
	if userID == uuid.Nil {
		return nil, validationErr("invalid_user_id", "missing user_id")
	}
	unlocked, err := e.agg.EvaluateAchievements(ctx, domainagg.EvaluateAchievementsInput{
		UserID: userID,
		At:     e.clock(),
		Rules:  e.catalog,
	})
	if err != nil {
		return nil, fromAggregate(err)
	}
	out := make([]AchievementView, 0, len(unlocked))
	for _, u := range unlocked {
		out = append(out, achievementView(e.catalog, u.AchievementID, u.Name, u.Rarity, u.XPReward, u.UnlockedAt))
	}
	if len(out) > 0 {
		e.log.Info("achievements unlocked", "user_id", userID.String(), "count", len(out))
	}
	return out, nil
}

// ListUnlocked returns a learner's unlocked achievements, oldest first.
func (e *AchievementEvaluator) ListUnlocked(ctx context.Context, userID uuid.UUID) ([]AchievementView, error) {
	if userID == uuid.Nil {
		return nil, validationErr("invalid_user_id", "missing user_id")
	}
	rows, err := e.unlocks.ListByUser(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, readErr("Progression.ListUnlocked", err)
	}
	out := make([]AchievementView, 0, len(rows))
	for _, r := range rows {
		out = append(out, achievementView(e.catalog, r.AchievementID, "", r.Rarity, r.XPReward, r.UnlockedAt))
	}
	return out, nil
}

// CatalogViews lists every catalog entry in evaluation order.
func (e *AchievementEvaluator) CatalogViews() []AchievementView {
	defs := e.catalog.Definitions()
	out := make([]AchievementView, 0, len(defs))
	for _, d := range defs {
		out = append(out, AchievementView{
			ID:          d.ID,
			Name:        d.Name,
			Description: d.Description,
			Rarity:      string(d.Rarity),
			XPReward:    d.XPReward,
		})
	}
	return out
}
