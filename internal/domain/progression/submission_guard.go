package progression

import (
	"time"

	"github.com/google/uuid"
)

// SubmissionGuard holds the last time a (user, guard_key) pair was submitted, in unix ms.
// The duplicate window is enforced by a conditional update on this row.
type SubmissionGuard struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_submission_guard_user_key,priority:1" json:"user_id"`
	GuardKey         string    `gorm:"type:text;not null;uniqueIndex:idx_submission_guard_user_key,priority:2" json:"guard_key"`
	LastSeenMS       int64     `gorm:"not null;default:0" json:"last_seen_ms"`
	LastSubmissionID uuid.UUID `gorm:"type:uuid;not null" json:"last_submission_id"`
	UpdatedAt        time.Time `gorm:"not null" json:"updated_at"`
}

func (SubmissionGuard) TableName() string { return "submission_guard" }

func VariantGuardKey(variant string) string {
	return "variant:" + variant
}

func ContentGuardKey(contentID uuid.UUID, variant string) string {
	return "content:" + contentID.String() + ":" + variant
}
