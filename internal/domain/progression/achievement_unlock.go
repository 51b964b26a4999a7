package progression

import (
	"time"

	"github.com/google/uuid"
)

// AchievementUnlock is append-only; (user_id, achievement_id) is unique.
type AchievementUnlock struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_achievement_unlock_user_achievement,priority:1" json:"user_id"`
	AchievementID string    `gorm:"type:text;not null;uniqueIndex:idx_achievement_unlock_user_achievement,priority:2" json:"achievement_id"`
	Rarity        string    `gorm:"type:text;not null" json:"rarity"`
	XPReward      int       `gorm:"not null;default:0" json:"xp_reward"`
	UnlockedAt    time.Time `gorm:"not null;index" json:"unlocked_at"`
}

func (AchievementUnlock) TableName() string { return "achievement_unlock" }
