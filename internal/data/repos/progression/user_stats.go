package progression

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/learnquest-backend/internal/domain/progression"
	"github.com/yungbote/learnquest-backend/internal/platform/dbctx"
	"github.com/yungbote/learnquest-backend/internal/platform/logger"
)

type UserStatsRepo interface {
	Ensure(dbc dbctx.Context, userID uuid.UUID) error
	GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.UserStats, error)
	LockByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.UserStats, error)
	IncrementXP(dbc dbctx.Context, userID uuid.UUID, delta int) (*types.UserStats, error)
	AdjustXP(dbc dbctx.Context, userID uuid.UUID, delta int) (*types.UserStats, error)
	UpdateFields(dbc dbctx.Context, userID uuid.UUID, updates map[string]interface{}) error
	ListLeaderboard(dbc dbctx.Context, limit int) ([]*types.UserStats, error)
	DeleteByUserID(dbc dbctx.Context, userID uuid.UUID) (int64, error)
}

type userStatsRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserStatsRepo(db *gorm.DB, baseLog *logger.Logger) UserStatsRepo {
	return &userStatsRepo{db: db, log: baseLog.With("repo", "UserStatsRepo")}
}

func (r *userStatsRepo) tx(dbc dbctx.Context) *gorm.DB {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx)
}

// Ensure lazily creates the zero-state row. Concurrent callers race safely on the primary key.
func (r *userStatsRepo) Ensure(dbc dbctx.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return fmt.Errorf("missing user_id")
	}
	row := types.NewUserStats(userID, time.Now().UTC())
	return r.tx(dbc).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(row).Error
}

// GetByUserID returns nil when the user has no row yet.
func (r *userStatsRepo) GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.UserStats, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("missing user_id")
	}
	var out types.UserStats
	err := r.tx(dbc).Where("user_id = ?", userID).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// LockByUserID takes the row lock for the rest of dbc.Tx and returns the locked row.
// The lock is taken with a no-op UPDATE so it behaves the same on every dialect.
func (r *userStatsRepo) LockByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.UserStats, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("missing user_id")
	}
	if dbc.Tx == nil {
		return nil, fmt.Errorf("LockByUserID requires dbc.Tx")
	}
	res := dbc.Tx.WithContext(dbc.Ctx).
		Model(&types.UserStats{}).
		Where("user_id = ?", userID).
		Update("updated_at", time.Now().UTC())
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	var out types.UserStats
	if err := dbc.Tx.WithContext(dbc.Ctx).Where("user_id = ?", userID).Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// IncrementXP adds delta and recomputes level in one statement.
func (r *userStatsRepo) IncrementXP(dbc dbctx.Context, userID uuid.UUID, delta int) (*types.UserStats, error) {
	return r.applyXP(dbc, userID, map[string]interface{}{
		"total_xp":   gorm.Expr("total_xp + ?", delta),
		"level":      gorm.Expr("(total_xp + ?) / ? + 1", delta, types.XPPerLevel),
		"updated_at": time.Now().UTC(),
	})
}

// AdjustXP adds a signed delta and floors the total at zero.
func (r *userStatsRepo) AdjustXP(dbc dbctx.Context, userID uuid.UUID, delta int) (*types.UserStats, error) {
	return r.applyXP(dbc, userID, map[string]interface{}{
		"total_xp":   gorm.Expr("CASE WHEN total_xp + ? < 0 THEN 0 ELSE total_xp + ? END", delta, delta),
		"level":      gorm.Expr("CASE WHEN total_xp + ? < 0 THEN 1 ELSE (total_xp + ?) / ? + 1 END", delta, delta, types.XPPerLevel),
		"updated_at": time.Now().UTC(),
	})
}

func (r *userStatsRepo) applyXP(dbc dbctx.Context, userID uuid.UUID, updates map[string]interface{}) (*types.UserStats, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("missing user_id")
	}
	t := r.tx(dbc)
	res := t.Model(&types.UserStats{}).Where("user_id = ?", userID).Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	var out types.UserStats
	if err := t.Where("user_id = ?", userID).Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *userStatsRepo) UpdateFields(dbc dbctx.Context, userID uuid.UUID, updates map[string]interface{}) error {
	if userID == uuid.Nil {
		return fmt.Errorf("missing user_id")
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["updated_at"] = time.Now().UTC()
	return r.tx(dbc).
		Model(&types.UserStats{}).
		Where("user_id = ?", userID).
		Updates(updates).Error
}

// ListLeaderboard orders by total_xp descending with ascending user_id as the tie-break.
func (r *userStatsRepo) ListLeaderboard(dbc dbctx.Context, limit int) ([]*types.UserStats, error) {
	if limit <= 0 {
		limit = 10
	}
	var out []*types.UserStats
	if err := r.tx(dbc).
		Model(&types.UserStats{}).
		Where("show_on_leaderboard = ?", true).
		Order("total_xp DESC").
		Order("user_id ASC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *userStatsRepo) DeleteByUserID(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, fmt.Errorf("missing user_id")
	}
	res := r.tx(dbc).Where("user_id = ?", userID).Delete(&types.UserStats{})
	return res.RowsAffected, res.Error
}
