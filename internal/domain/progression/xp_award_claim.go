package progression

import (
	"time"

	"github.com/google/uuid"
)

// XPAwardClaim records that a capped activity has already paid out for its window.
// The unique (user_id, claim_key) index is the cap.
type XPAwardClaim struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_xp_award_claim_user_key,priority:1" json:"user_id"`
	ClaimKey     string    `gorm:"type:text;not null;uniqueIndex:idx_xp_award_claim_user_key,priority:2" json:"claim_key"`
	SubmissionID uuid.UUID `gorm:"type:uuid;not null" json:"submission_id"`
	Amount       int       `gorm:"not null;default:0" json:"amount"`
	ClaimedAt    time.Time `gorm:"not null" json:"claimed_at"`
}

func (XPAwardClaim) TableName() string { return "xp_award_claim" }

// DailyClaimKey keys a once-per-day award.
func DailyClaimKey(variant, day string) string {
	return "daily:" + variant + ":" + day
}

// ContentClaimKey keys a once-per-content award.
func ContentClaimKey(contentID uuid.UUID, variant string) string {
	return "content:" + contentID.String() + ":" + variant
}
