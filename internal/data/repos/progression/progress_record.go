package progression

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/learnquest-backend/internal/domain/progression"
	"github.com/yungbote/learnquest-backend/internal/platform/dbctx"
	"github.com/yungbote/learnquest-backend/internal/platform/logger"
)

// QuizSummary aggregates completed, non-duplicate quiz attempts.
type QuizSummary struct {
	Completed     int
	AverageScore  float64
	PerfectScores int
}

type ProgressRecordRepo interface {
	Create(dbc dbctx.Context, rows []*types.ProgressRecord) ([]*types.ProgressRecord, error)
	GetByKey(dbc dbctx.Context, userID uuid.UUID, recordKey string) (*types.ProgressRecord, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	ListByUser(dbc dbctx.Context, userID uuid.UUID, contentID *uuid.UUID, limit int) ([]*types.ProgressRecord, error)
	CountAttempts(dbc dbctx.Context, userID, contentID uuid.UUID, variant string) (int, error)
	QuizSummary(dbc dbctx.Context, userID uuid.UUID) (QuizSummary, error)
	CompletedByType(dbc dbctx.Context, userID uuid.UUID) (map[string]int, error)
	DeleteByUserID(dbc dbctx.Context, userID uuid.UUID) (int64, error)
}

type progressRecordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProgressRecordRepo(db *gorm.DB, baseLog *logger.Logger) ProgressRecordRepo {
	return &progressRecordRepo{db: db, log: baseLog.With("repo", "ProgressRecordRepo")}
}

func (r *progressRecordRepo) tx(dbc dbctx.Context) *gorm.DB {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx)
}

func (r *progressRecordRepo) Create(dbc dbctx.Context, rows []*types.ProgressRecord) ([]*types.ProgressRecord, error) {
	if len(rows) == 0 {
		return []*types.ProgressRecord{}, nil
	}
	for _, row := range rows {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
	}
	if err := r.tx(dbc).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// GetByKey returns nil when no record exists for (user, key).
func (r *progressRecordRepo) GetByKey(dbc dbctx.Context, userID uuid.UUID, recordKey string) (*types.ProgressRecord, error) {
	if userID == uuid.Nil || recordKey == "" {
		return nil, fmt.Errorf("missing user_id or record_key")
	}
	var out types.ProgressRecord
	err := r.tx(dbc).
		Where("user_id = ? AND record_key = ?", userID, recordKey).
		Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *progressRecordRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing id")
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["updated_at"] = time.Now().UTC()
	return r.tx(dbc).
		Model(&types.ProgressRecord{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *progressRecordRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, contentID *uuid.UUID, limit int) ([]*types.ProgressRecord, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("missing user_id")
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := r.tx(dbc).Model(&types.ProgressRecord{}).Where("user_id = ?", userID)
	if contentID != nil && *contentID != uuid.Nil {
		q = q.Where("content_id = ?", *contentID)
	}
	var out []*types.ProgressRecord
	if err := q.Order("last_accessed DESC").Order("id ASC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *progressRecordRepo) CountAttempts(dbc dbctx.Context, userID, contentID uuid.UUID, variant string) (int, error) {
	var n int64
	if err := r.tx(dbc).
		Model(&types.ProgressRecord{}).
		Where("user_id = ? AND content_id = ? AND activity_variant = ?", userID, contentID, variant).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return int(n), nil
}

func (r *progressRecordRepo) QuizSummary(dbc dbctx.Context, userID uuid.UUID) (QuizSummary, error) {
	var row struct {
		Completed     int
		AverageScore  float64
		PerfectScores int
	}
	err := r.tx(dbc).
		Model(&types.ProgressRecord{}).
		Select("COUNT(*) AS completed, COALESCE(AVG(score), 0) AS average_score, "+
			"COALESCE(SUM(CASE WHEN score >= 100 THEN 1 ELSE 0 END), 0) AS perfect_scores").
		Where("user_id = ? AND content_type = ? AND completed = ? AND outcome <> ?",
			userID, types.ContentQuiz, true, types.OutcomeDuplicate).
		Scan(&row).Error
	if err != nil {
		return QuizSummary{}, err
	}
	return QuizSummary(row), nil
}

// CompletedByType counts distinct completed content per content type.
func (r *progressRecordRepo) CompletedByType(dbc dbctx.Context, userID uuid.UUID) (map[string]int, error) {
	var rows []struct {
		ContentType string
		N           int
	}
	err := r.tx(dbc).
		Model(&types.ProgressRecord{}).
		Select("content_type, COUNT(DISTINCT content_id) AS n").
		Where("user_id = ? AND completed = ? AND outcome <> ?", userID, true, types.OutcomeDuplicate).
		Group("content_type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(rows))
	for _, row := range rows {
		out[row.ContentType] = row.N
	}
	return out, nil
}

func (r *progressRecordRepo) DeleteByUserID(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, fmt.Errorf("missing user_id")
	}
	res := r.tx(dbc).Where("user_id = ?", userID).Delete(&types.ProgressRecord{})
	return res.RowsAffected, res.Error
}
