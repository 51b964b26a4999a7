package progression

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	OutcomeAwarded          = "awarded"
	OutcomeDuplicate        = "duplicate"
	OutcomeDailyCapReached  = "daily_cap_reached"
	OutcomeAlreadyCompleted = "already_completed"
)

// ProgressRecord is one user's progress on one piece of content.
// Attempt-tracked variants (quizzes, reviews) get a row per submission; singleton content
// (sections, media) keeps a single row that is updated in place.
type ProgressRecord struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_progress_record_user_key,priority:1;index:idx_progress_record_user_variant,priority:1" json:"user_id"`

	// attempt:<submission_id> | content:<content_id>:<variant>
	RecordKey string `gorm:"type:text;not null;uniqueIndex:idx_progress_record_user_key,priority:2" json:"record_key"`

	ContentID       uuid.UUID `gorm:"type:uuid;not null;index" json:"content_id"`
	ContentType     string    `gorm:"type:text;not null;index" json:"content_type"`
	ActivityVariant string    `gorm:"type:text;not null;index:idx_progress_record_user_variant,priority:2" json:"activity_variant"`
	SubmissionID    uuid.UUID `gorm:"type:uuid;not null;index" json:"submission_id"`

	Completed bool    `gorm:"not null;default:false" json:"completed"`
	Score     float64 `gorm:"not null;default:0" json:"score"`
	Attempts  int     `gorm:"not null;default:0" json:"attempts"`
	TimeSpent int     `gorm:"not null;default:0" json:"time_spent"`
	Outcome   string  `gorm:"type:text;not null;index" json:"outcome"`

	TotalXPEarned    int        `gorm:"not null;default:0" json:"total_xp_earned"`
	LastAccessed     time.Time  `gorm:"not null;index" json:"last_accessed"`
	FirstCompletedAt *time.Time `json:"first_completed_at,omitempty"`

	Sessions datatypes.JSON `gorm:"not null" json:"sessions"`
	Data     datatypes.JSON `gorm:"not null" json:"data"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (ProgressRecord) TableName() string { return "progress_record" }

// ProgressSession is one submission snapshot appended to ProgressRecord.Sessions.
type ProgressSession struct {
	SubmissionID string    `json:"submission_id"`
	Score        float64   `json:"score"`
	TimeSpent    int       `json:"time_spent"`
	XPAwarded    int       `json:"xp_awarded"`
	Outcome      string    `json:"outcome"`
	At           time.Time `json:"at"`
}
