package progression

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	XPSourceActivity    = "activity"
	XPSourceAchievement = "achievement"
	XPSourceAdjustment  = "adjustment"
)

// XPTransaction journals every ledger mutation.
type XPTransaction struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID      `gorm:"type:uuid;not null;index:idx_xp_transaction_user_created,priority:1" json:"user_id"`
	Source     string         `gorm:"type:text;not null;index" json:"source"`
	Reference  string         `gorm:"type:text;not null;default:''" json:"reference"`
	Delta      int            `gorm:"not null" json:"delta"`
	TotalAfter int            `gorm:"not null" json:"total_after"`
	LevelAfter int            `gorm:"not null" json:"level_after"`
	Metadata   datatypes.JSON `gorm:"not null" json:"metadata"`
	CreatedAt  time.Time      `gorm:"not null;index:idx_xp_transaction_user_created,priority:2" json:"created_at"`
}

func (XPTransaction) TableName() string { return "xp_transaction" }
