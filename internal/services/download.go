package services

import (
	"context"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/lyfeworks/toolkit-backend/internal/domain"
	"github.com/lyfeworks/toolkit-backend/internal/platform/apierr"
	"github.com/lyfeworks/toolkit-backend/internal/platform/gcp"
	"github.com/lyfeworks/toolkit-backend/internal/platform/logger"
	"github.com/lyfeworks/toolkit-backend/internal/platform/stripepay"
	"github.com/lyfeworks/toolkit-backend/internal/repos"
)

const (
	maxDownloads   = 3
	accessWindow   = 30 * 24 * time.Hour
	downloadURLTTL = 10 * time.Minute
	maxEmailLength = 255

	maxIPLength        = 45
	maxUserAgentLength = 255
)

var (
	// Stripe checkout session ids look like cs_test_a1B2... or cs_live_...
	sessionIDPattern = regexp.MustCompile(`^cs_(test_|live_)?[A-Za-z0-9]+$`)
	emailPattern     = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// DownloadService authorizes toolkit downloads for completed purchases:
// verify the Stripe session, mirror it locally, enforce the 30-day access
// window and the 3-download cap, then issue a short-lived signed URL.
type DownloadService interface {
	VerifyPurchase(ctx context.Context, in VerifyPurchaseInput) (*VerifyPurchaseOutput, error)
}

type VerifyPurchaseInput struct {
	SessionID   string
	Email       string
	RequesterIP string
	UserAgent   string
}

type VerifyPurchaseOutput struct {
	DownloadURL        string
	FileName           string
	RemainingDownloads int
	URLExpiresAt       time.Time
}

type downloadService struct {
	db          *gorm.DB
	log         *logger.Logger
	stripe      stripepay.Client
	sessionRepo repos.PurchaseSessionRepo
	attemptRepo repos.DownloadAttemptRepo
	bucket      gcp.BucketService
	toolkitKey  string
}

func NewDownloadService(
	db *gorm.DB,
	log *logger.Logger,
	stripeClient stripepay.Client,
	sessionRepo repos.PurchaseSessionRepo,
	attemptRepo repos.DownloadAttemptRepo,
	bucket gcp.BucketService,
	toolkitKey string,
) DownloadService {
	serviceLog := log.With("service", "DownloadService")
	return &downloadService{
		db:          db,
		log:         serviceLog,
		stripe:      stripeClient,
		sessionRepo: sessionRepo,
		attemptRepo: attemptRepo,
		bucket:      bucket,
		toolkitKey:  toolkitKey,
	}
}

func (ds *downloadService) VerifyPurchase(ctx context.Context, in VerifyPurchaseInput) (*VerifyPurchaseOutput, error) {
	// Input validation happens before any provider call and has no side
	// effects.
	sessionID := strings.TrimSpace(in.SessionID)
	if !sessionIDPattern.MatchString(sessionID) {
		return nil, apierr.BadRequest("invalid_session_id", "invalid session ID format")
	}
	email := strings.TrimSpace(in.Email)
	if len(email) > maxEmailLength || !emailPattern.MatchString(email) {
		return nil, apierr.BadRequest("invalid_email", "invalid email address")
	}

	checkout, err := ds.stripe.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		ds.log.Warn("Stripe session lookup failed", "stripe_session_id", sessionID, "error", err)
		return nil, err
	}
	if checkout.PaymentStatus != stripepay.PaymentStatusPaid {
		return nil, apierr.BadRequest("payment_not_completed", "payment not completed")
	}
	if !strings.EqualFold(strings.TrimSpace(checkout.CustomerEmail), email) {
		return nil, apierr.BadRequest("email_mismatch", "email does not match purchase record")
	}

	purchase, err := ds.sessionRepo.GetByStripeSessionID(ctx, nil, sessionID)
	if err != nil {
		ds.log.Error("Purchase session lookup failed", "stripe_session_id", sessionID, "error", err)
		return nil, err
	}
	if purchase == nil {
		createdAt := checkout.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		purchase, err = ds.sessionRepo.Create(ctx, nil, &domain.PurchaseSession{
			StripeSessionID: sessionID,
			Email:           strings.ToLower(strings.TrimSpace(checkout.CustomerEmail)),
			CustomerName:    checkout.CustomerName,
			CustomerAddress: checkout.CustomerAddress,
			AmountTotal:     checkout.AmountTotal,
			Currency:        checkout.Currency,
			PaymentStatus:   checkout.PaymentStatus,
			CreatedAt:       createdAt,
			ExpiresAt:       createdAt.Add(accessWindow),
		})
		if err != nil {
			ds.log.Error("Purchase session create failed", "stripe_session_id", sessionID, "error", err)
			return nil, err
		}
	}

	if time.Now().After(purchase.ExpiresAt) {
		ds.logAttempt(ctx, purchase, in, false, "", nil)
		return nil, apierr.BadRequest("access_expired", "access expired")
	}

	// Count-then-insert with no transactional guard: concurrent requests
	// for the same session can race past the cap.
	count, err := ds.attemptRepo.CountSuccessful(ctx, nil, purchase.ID)
	if err != nil {
		ds.log.Error("Download count query failed", "purchase_session_id", purchase.ID, "error", err)
		return nil, err
	}
	if count >= maxDownloads {
		ds.logAttempt(ctx, purchase, in, false, "", nil)
		return nil, apierr.BadRequest("download_limit_reached", "download limit reached")
	}

	signedURL, err := ds.bucket.SignedURL(gcp.BucketCategoryToolkit, ds.toolkitKey, downloadURLTTL)
	if err != nil {
		ds.log.Error("Signed URL generation failed", "purchase_session_id", purchase.ID, "error", err)
		return nil, err
	}
	urlExpiresAt := time.Now().Add(downloadURLTTL).UTC()

	ds.logAttempt(ctx, purchase, in, true, signedURL, &urlExpiresAt)

	return &VerifyPurchaseOutput{
		DownloadURL:        signedURL,
		FileName:           ds.toolkitKey,
		RemainingDownloads: maxDownloads - int(count) - 1,
		URLExpiresAt:       urlExpiresAt,
	}, nil
}

// logAttempt is best-effort: a ledger write failure never blocks the
// response.
func (ds *downloadService) logAttempt(ctx context.Context, purchase *domain.PurchaseSession, in VerifyPurchaseInput, success bool, signedURL string, urlExpiresAt *time.Time) {
	attempt := &domain.DownloadAttempt{
		PurchaseSessionID: purchase.ID,
		FileName:          ds.toolkitKey,
		RequesterIP:       truncate(in.RequesterIP, maxIPLength),
		UserAgent:         truncate(in.UserAgent, maxUserAgentLength),
		Success:           success,
		SignedURL:         signedURL,
		URLExpiresAt:      urlExpiresAt,
	}
	if _, err := ds.attemptRepo.Create(ctx, nil, attempt); err != nil {
		ds.log.Warn("Failed to log download attempt", "purchase_session_id", purchase.ID, "error", err)
	}
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max]
}
