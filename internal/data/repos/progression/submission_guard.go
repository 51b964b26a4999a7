package progression

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/learnquest-backend/internal/domain/progression"
	"github.com/yungbote/learnquest-backend/internal/platform/dbctx"
	"github.com/yungbote/learnquest-backend/internal/platform/logger"
)

type SubmissionGuardRepo interface {
	// Acquire returns true when the last submission seen for (user, key) is at least window before at.
	// A submission dated at or before the last-seen mark is never fresh. The mark moves forward either way.
	Acquire(dbc dbctx.Context, userID uuid.UUID, key string, at time.Time, window time.Duration, submissionID uuid.UUID) (bool, error)
	DeleteByUserID(dbc dbctx.Context, userID uuid.UUID) (int64, error)
}

type submissionGuardRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSubmissionGuardRepo(db *gorm.DB, baseLog *logger.Logger) SubmissionGuardRepo {
	return &submissionGuardRepo{db: db, log: baseLog.With("repo", "SubmissionGuardRepo")}
}

func (r *submissionGuardRepo) Acquire(dbc dbctx.Context, userID uuid.UUID, key string, at time.Time, window time.Duration, submissionID uuid.UUID) (bool, error) {
	if userID == uuid.Nil || key == "" {
		return false, fmt.Errorf("missing user_id or guard_key")
	}
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	t = t.WithContext(dbc.Ctx)

	atMS := at.UnixMilli()
	winMS := window.Milliseconds()
	now := time.Now().UTC()
	updates := map[string]interface{}{
		"last_seen_ms":       gorm.Expr("CASE WHEN last_seen_ms > ? THEN last_seen_ms ELSE ? END", atMS, atMS),
		"last_submission_id": submissionID,
		"updated_at":         now,
	}

	// Compare-and-set: only when the mark is a full window behind at.
	res := t.Model(&types.SubmissionGuard{}).
		Where("user_id = ? AND guard_key = ? AND last_seen_ms <= ?", userID, key, atMS-winMS).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 1 {
		return true, nil
	}

	ins := t.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "guard_key"}},
		DoNothing: true,
	}).Create(&types.SubmissionGuard{
		ID:               uuid.New(),
		UserID:           userID,
		GuardKey:         key,
		LastSeenMS:       atMS,
		LastSubmissionID: submissionID,
		UpdatedAt:        now,
	})
	if ins.Error != nil {
		return false, ins.Error
	}
	if ins.RowsAffected == 1 {
		return true, nil
	}

	// Inside the window or out of order: a duplicate still counts as the most recent submission.
	if err := t.Model(&types.SubmissionGuard{}).
		Where("user_id = ? AND guard_key = ?", userID, key).
		Updates(updates).Error; err != nil {
		return false, err
	}
	return false, nil
}

func (r *submissionGuardRepo) DeleteByUserID(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	res := t.WithContext(dbc.Ctx).Where("user_id = ?", userID).Delete(&types.SubmissionGuard{})
	return res.RowsAffected, res.Error
}
