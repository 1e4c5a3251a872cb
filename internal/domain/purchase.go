package domain

import (
	"time"

	"github.com/google/uuid"
)

// PurchaseSession mirrors a completed Stripe checkout session. It is created
// lazily on the first successful download verification and is immutable
// afterwards; rows are never deleted by the service.
type PurchaseSession struct {
	ID              uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	StripeSessionID string    `gorm:"uniqueIndex;not null;column:stripe_session_id" json:"stripe_session_id"`
	Email           string    `gorm:"not null;column:email" json:"email"`
	CustomerName    string    `gorm:"column:customer_name" json:"customer_name"`
	CustomerAddress string    `gorm:"column:customer_address" json:"customer_address"`
	AmountTotal     int64     `gorm:"column:amount_total" json:"amount_total"`
	Currency        string    `gorm:"size:3;column:currency" json:"currency"`
	PaymentStatus   string    `gorm:"column:payment_status" json:"payment_status"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	ExpiresAt time.Time `gorm:"not null;column:expires_at" json:"expires_at"`
}

func (PurchaseSession) TableName() string { return "purchase_session" }

// DownloadAttempt is one row per download request, successful or not. Only
// rows with Success=true count toward the download cap.
type DownloadAttempt struct {
	ID                uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	PurchaseSessionID uuid.UUID  `gorm:"type:uuid;index;not null;column:purchase_session_id" json:"purchase_session_id"`
	FileName          string     `gorm:"column:file_name" json:"file_name"`
	RequesterIP       string     `gorm:"size:45;column:requester_ip" json:"requester_ip"`
	UserAgent         string     `gorm:"size:255;column:user_agent" json:"user_agent"`
	Success           bool       `gorm:"not null;column:success" json:"success"`
	SignedURL         string     `gorm:"column:signed_url" json:"signed_url"`
	URLExpiresAt      *time.Time `gorm:"column:url_expires_at" json:"url_expires_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (DownloadAttempt) TableName() string { return "download_attempt" }
