package progression

import (
	"time"

	"github.com/google/uuid"
)

// UserStats is the per-user progression row. total_xp and level are only ever written
// together by the ledger increment, so level always equals LevelForXP(total_xp).
type UserStats struct {
	UserID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	DisplayName string    `gorm:"type:text;not null;default:''" json:"display_name"`

	TotalXP int `gorm:"not null;default:0;index" json:"total_xp"`
	Level   int `gorm:"not null;default:1" json:"level"`

	CurrentStreak  int    `gorm:"not null;default:0" json:"current_streak"`
	MaxStreak      int    `gorm:"not null;default:0" json:"max_streak"`
	LastActiveDate string `gorm:"type:varchar(10);not null;default:''" json:"last_active_date"`

	LearningStreak    int    `gorm:"not null;default:0" json:"learning_streak"`
	MaxLearningStreak int    `gorm:"not null;default:0" json:"max_learning_streak"`
	LastLearningDate  string `gorm:"type:varchar(10);not null;default:''" json:"last_learning_date"`

	ShowOnLeaderboard bool `gorm:"not null;default:true;index" json:"show_on_leaderboard"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (UserStats) TableName() string { return "user_stats" }

// NewUserStats returns the zero-state row a user gets on first contact.
func NewUserStats(userID uuid.UUID, now time.Time) *UserStats {
	return &UserStats{
		UserID:            userID,
		TotalXP:           0,
		Level:             1,
		ShowOnLeaderboard: true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}
