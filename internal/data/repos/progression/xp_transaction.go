package progression

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/learnquest-backend/internal/domain/progression"
	"github.com/yungbote/learnquest-backend/internal/platform/dbctx"
	"github.com/yungbote/learnquest-backend/internal/platform/logger"
)

type XPTransactionRepo interface {
	Append(dbc dbctx.Context, row *types.XPTransaction) error
	ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.XPTransaction, error)
	DeleteByUserID(dbc dbctx.Context, userID uuid.UUID) (int64, error)
}

type xpTransactionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewXPTransactionRepo(db *gorm.DB, baseLog *logger.Logger) XPTransactionRepo {
	return &xpTransactionRepo{db: db, log: baseLog.With("repo", "XPTransactionRepo")}
}

func (r *xpTransactionRepo) tx(dbc dbctx.Context) *gorm.DB {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx)
}

func (r *xpTransactionRepo) Append(dbc dbctx.Context, row *types.XPTransaction) error {
	if row == nil || row.UserID == uuid.Nil {
		return fmt.Errorf("missing user_id")
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if len(row.Metadata) == 0 {
		row.Metadata = []byte("{}")
	}
	return r.tx(dbc).Create(row).Error
}

func (r *xpTransactionRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.XPTransaction, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	var out []*types.XPTransaction
	if err := r.tx(dbc).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *xpTransactionRepo) DeleteByUserID(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	res := r.tx(dbc).Where("user_id = ?", userID).Delete(&types.XPTransaction{})
	return res.RowsAffected, res.Error
}
