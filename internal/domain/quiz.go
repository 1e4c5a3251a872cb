package domain

import (
	"time"

	"github.com/google/uuid"
)

// QuizSubmission holds the latest readiness-quiz result per email. Retaking
// the quiz overwrites the prior score.
type QuizSubmission struct {
	ID    uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Email string    `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Score int       `gorm:"not null;column:score" json:"score"`
	Tier  int       `gorm:"not null;column:tier" json:"tier"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (QuizSubmission) TableName() string { return "quiz_submission" }
