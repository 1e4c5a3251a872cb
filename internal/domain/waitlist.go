package domain

import (
	"time"

	"github.com/google/uuid"
)

// WaitlistEntry is append-only. The unique email index is what turns a
// duplicate signup into the "already subscribed" path.
type WaitlistEntry struct {
	ID             uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Email          string    `gorm:"uniqueIndex;not null;column:email" json:"email"`
	ReferralSource string    `gorm:"column:referral_source" json:"referral_source"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (WaitlistEntry) TableName() string { return "waitlist_entry" }
