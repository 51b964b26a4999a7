package progression

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/learnquest-backend/internal/domain/progression"
	"github.com/yungbote/learnquest-backend/internal/platform/dbctx"
	"github.com/yungbote/learnquest-backend/internal/platform/logger"
)

type AchievementUnlockRepo interface {
	TryInsert(dbc dbctx.Context, row *types.AchievementUnlock) (bool, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.AchievementUnlock, error)
	UnlockedIDs(dbc dbctx.Context, userID uuid.UUID) (map[string]bool, error)
	DeleteByUserID(dbc dbctx.Context, userID uuid.UUID) (int64, error)
}

type achievementUnlockRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAchievementUnlockRepo(db *gorm.DB, baseLog *logger.Logger) AchievementUnlockRepo {
	return &achievementUnlockRepo{db: db, log: baseLog.With("repo", "AchievementUnlockRepo")}
}

func (r *achievementUnlockRepo) tx(dbc dbctx.Context) *gorm.DB {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx)
}

// TryInsert inserts the unlock unless (user_id, achievement_id) already exists.
// It reports whether this call created the row.
func (r *achievementUnlockRepo) TryInsert(dbc dbctx.Context, row *types.AchievementUnlock) (bool, error) {
	if row == nil || row.UserID == uuid.Nil || row.AchievementID == "" {
		return false, fmt.Errorf("missing user_id or achievement_id")
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	res := r.tx(dbc).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "achievement_id"}},
			DoNothing: true,
		}).
		Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *achievementUnlockRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.AchievementUnlock, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("missing user_id")
	}
	var out []*types.AchievementUnlock
	if err := r.tx(dbc).
		Where("user_id = ?", userID).
		Order("unlocked_at ASC").
		Order("achievement_id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *achievementUnlockRepo) UnlockedIDs(dbc dbctx.Context, userID uuid.UUID) (map[string]bool, error) {
	var ids []string
	if err := r.tx(dbc).
		Model(&types.AchievementUnlock{}).
		Where("user_id = ?", userID).
		Pluck("achievement_id", &ids).Error; err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

func (r *achievementUnlockRepo) DeleteByUserID(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, fmt.Errorf("missing user_id")
	}
	res := r.tx(dbc).Where("user_id = ?", userID).Delete(&types.AchievementUnlock{})
	return res.RowsAffected, res.Error
}
