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

type XPAwardClaimRepo interface {
	TryClaim(dbc dbctx.Context, row *types.XPAwardClaim) (bool, error)
	DeleteByUserID(dbc dbctx.Context, userID uuid.UUID) (int64, error)
}

type xpAwardClaimRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewXPAwardClaimRepo(db *gorm.DB, baseLog *logger.Logger) XPAwardClaimRepo {
	return &xpAwardClaimRepo{db: db, log: baseLog.With("repo", "XPAwardClaimRepo")}
}

// TryClaim is the conditional insert behind every cap: false means the window already paid out.
func (r *xpAwardClaimRepo) TryClaim(dbc dbctx.Context, row *types.XPAwardClaim) (bool, error) {
	if row == nil || row.UserID == uuid.Nil || row.ClaimKey == "" {
		return false, fmt.Errorf("missing user_id or claim_key")
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	res := t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "claim_key"}},
			DoNothing: true,
		}).
		Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *xpAwardClaimRepo) DeleteByUserID(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	res := t.WithContext(dbc.Ctx).Where("user_id = ?", userID).Delete(&types.XPAwardClaim{})
	return res.RowsAffected, res.Error
}
