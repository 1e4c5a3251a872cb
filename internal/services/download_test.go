package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lyfeworks/toolkit-backend/internal/domain"
	"github.com/lyfeworks/toolkit-backend/internal/platform/apierr"
	"github.com/lyfeworks/toolkit-backend/internal/platform/stripepay"
)

type fakeStripeClient struct {
	session  *stripepay.CheckoutSession
	getErr   error
	getCalls int
}

func (f *fakeStripeClient) GetCheckoutSession(_ context.Context, sessionID string) (*stripepay.CheckoutSession, error) {
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.session, nil
}

func (f *fakeStripeClient) CreateCheckoutSession(_ context.Context, _ stripepay.CreateCheckoutSessionInput) (*stripepay.CheckoutSession, error) {
	return f.session, nil
}

type fakeSessionRepo struct {
	sessions map[string]*domain.PurchaseSession
	getErr   error
}

func (f *fakeSessionRepo) Create(_ context.Context, _ *gorm.DB, s *domain.PurchaseSession) (*domain.PurchaseSession, error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if f.sessions == nil {
		f.sessions = map[string]*domain.PurchaseSession{}
	}
	f.sessions[s.StripeSessionID] = s
	return s, nil
}

func (f *fakeSessionRepo) GetByStripeSessionID(_ context.Context, _ *gorm.DB, id string) (*domain.PurchaseSession, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.sessions[id], nil
}

type fakeAttemptRepo struct {
	attempts  []*domain.DownloadAttempt
	createErr error
	countErr  error
}

func (f *fakeAttemptRepo) Create(_ context.Context, _ *gorm.DB, a *domain.DownloadAttempt) (*domain.DownloadAttempt, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	f.attempts = append(f.attempts, a)
	return a, nil
}

func (f *fakeAttemptRepo) CountSuccessful(_ context.Context, _ *gorm.DB, sessionID uuid.UUID) (int64, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	var n int64
	for _, a := range f.attempts {
		if a.PurchaseSessionID == sessionID && a.Success {
			n++
		}
	}
	return n, nil
}

func (f *fakeAttemptRepo) ListBySession(_ context.Context, _ *gorm.DB, sessionID uuid.UUID) ([]*domain.DownloadAttempt, error) {
	var out []*domain.DownloadAttempt
	for _, a := range f.attempts {
		if a.PurchaseSessionID == sessionID {
			out = append(out, a)
		}
	}
	return out, nil
}

func paidSession(id, email string) *stripepay.CheckoutSession {
	return &stripepay.CheckoutSession{
		ID:            id,
		PaymentStatus: stripepay.PaymentStatusPaid,
		CustomerEmail: email,
		CustomerName:  "Jane Doe",
		AmountTotal:   4900,
		Currency:      "usd",
		CreatedAt:     time.Now().UTC().Add(-time.Hour),
	}
}

func newDownloadServiceForTest(stripe *fakeStripeClient, sessions *fakeSessionRepo, attempts *fakeAttemptRepo, bucket *fakeBucketService) DownloadService {
	return NewDownloadService(nil, testLogger(), stripe, sessions, attempts, bucket, "end-of-lyfe-toolkit.pdf")
}

func verifyInput(sessionID, email string) VerifyPurchaseInput {
	return VerifyPurchaseInput{
		SessionID:   sessionID,
		Email:       email,
		RequesterIP: "203.0.113.9",
		UserAgent:   "test-agent",
	}
}

func TestVerifyPurchaseRejectsMalformedSessionIDBeforeAnyCall(t *testing.T) {
	t.Parallel()

	stripe := &fakeStripeClient{}
	svc := newDownloadServiceForTest(stripe, &fakeSessionRepo{}, &fakeAttemptRepo{}, &fakeBucketService{})

	_, err := svc.VerifyPurchase(context.Background(), verifyInput("bad id", "jane@example.com"))
	if err == nil {
		t.Fatalf("expected rejection for session id with a space")
	}
	if apierr.CodeOf(err) != "invalid_session_id" {
		t.Fatalf("unexpected code: %q", apierr.CodeOf(err))
	}
	if stripe.getCalls != 0 {
		t.Fatalf("stripe must not be called for malformed input, got %d calls", stripe.getCalls)
	}
}

func TestVerifyPurchaseRejectsBadEmail(t *testing.T) {
	t.Parallel()

	stripe := &fakeStripeClient{}
	svc := newDownloadServiceForTest(stripe, &fakeSessionRepo{}, &fakeAttemptRepo{}, &fakeBucketService{})

	cases := []string{"", "no-at-sign", "a b@example.com", strings.Repeat("x", 250) + "@example.com"}
	for _, email := range cases {
		if _, err := svc.VerifyPurchase(context.Background(), verifyInput("cs_test_abc123", email)); err == nil {
			t.Fatalf("expected rejection for email %q", email)
		}
	}
	if stripe.getCalls != 0 {
		t.Fatalf("stripe must not be called for invalid email, got %d calls", stripe.getCalls)
	}
}

func TestVerifyPurchaseRefusesUnpaid(t *testing.T) {
	t.Parallel()

	sess := paidSession("cs_test_abc123", "jane@example.com")
	sess.PaymentStatus = "unpaid"
	svc := newDownloadServiceForTest(&fakeStripeClient{session: sess}, &fakeSessionRepo{}, &fakeAttemptRepo{}, &fakeBucketService{})

	_, err := svc.VerifyPurchase(context.Background(), verifyInput("cs_test_abc123", "jane@example.com"))
	if err == nil || apierr.CodeOf(err) != "payment_not_completed" {
		t.Fatalf("expected payment_not_completed, got %v", err)
	}
}

func TestVerifyPurchaseRefusesEmailMismatch(t *testing.T) {
	t.Parallel()

	svc := newDownloadServiceForTest(
		&fakeStripeClient{session: paidSession("cs_test_abc123", "owner@example.com")},
		&fakeSessionRepo{}, &fakeAttemptRepo{}, &fakeBucketService{},
	)

	_, err := svc.VerifyPurchase(context.Background(), verifyInput("cs_test_abc123", "intruder@example.com"))
	if err == nil || apierr.CodeOf(err) != "email_mismatch" {
		t.Fatalf("expected email_mismatch, got %v", err)
	}
}

func TestVerifyPurchaseEmailMatchIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	svc := newDownloadServiceForTest(
		&fakeStripeClient{session: paidSession("cs_test_abc123", "Jane@Example.COM")},
		&fakeSessionRepo{}, &fakeAttemptRepo{}, &fakeBucketService{},
	)

	out, err := svc.VerifyPurchase(context.Background(), verifyInput("cs_test_abc123", "jane@example.com"))
	if err != nil {
		t.Fatalf("case-insensitive match should succeed: %v", err)
	}
	if out.DownloadURL == "" {
		t.Fatalf("expected a signed URL")
	}
}

func TestVerifyPurchaseLazilyCreatesPurchaseSession(t *testing.T) {
	t.Parallel()

	sessions := &fakeSessionRepo{}
	stripeSess := paidSession("cs_test_abc123", "jane@example.com")
	svc := newDownloadServiceForTest(&fakeStripeClient{session: stripeSess}, sessions, &fakeAttemptRepo{}, &fakeBucketService{})

	if _, err := svc.VerifyPurchase(context.Background(), verifyInput("cs_test_abc123", "jane@example.com")); err != nil {
		t.Fatalf("VerifyPurchase: %v", err)
	}

	created := sessions.sessions["cs_test_abc123"]
	if created == nil {
		t.Fatalf("expected purchase session to be created")
	}
	if created.Email != "jane@example.com" || created.CustomerName != "Jane Doe" {
		t.Fatalf("buyer metadata not copied: %+v", created)
	}
	wantExpiry := created.CreatedAt.Add(30 * 24 * time.Hour)
	if !created.ExpiresAt.Equal(wantExpiry) {
		t.Fatalf("expiry: got=%v want=%v", created.ExpiresAt, wantExpiry)
	}
}

func TestVerifyPurchaseRefusesExpiredAccess(t *testing.T) {
	t.Parallel()

	sessions := &fakeSessionRepo{}
	attempts := &fakeAttemptRepo{}
	old := time.Now().UTC().Add(-31 * 24 * time.Hour)
	existing := &domain.PurchaseSession{
		ID:              uuid.New(),
		StripeSessionID: "cs_test_abc123",
		Email:           "jane@example.com",
		CreatedAt:       old,
		ExpiresAt:       old.Add(30 * 24 * time.Hour),
	}
	sessions.sessions = map[string]*domain.PurchaseSession{existing.StripeSessionID: existing}

	svc := newDownloadServiceForTest(
		&fakeStripeClient{session: paidSession("cs_test_abc123", "jane@example.com")},
		sessions, attempts, &fakeBucketService{},
	)

	_, err := svc.VerifyPurchase(context.Background(), verifyInput("cs_test_abc123", "jane@example.com"))
	if err == nil || apierr.CodeOf(err) != "access_expired" {
		t.Fatalf("expected access_expired, got %v", err)
	}
	if len(attempts.attempts) != 1 || attempts.attempts[0].Success {
		t.Fatalf("expected one failed attempt row, got %+v", attempts.attempts)
	}
}

func TestVerifyPurchaseEnforcesDownloadCap(t *testing.T) {
	t.Parallel()

	sessions := &fakeSessionRepo{}
	attempts := &fakeAttemptRepo{}
	svc := newDownloadServiceForTest(
		&fakeStripeClient{session: paidSession("cs_test_abc123", "jane@example.com")},
		sessions, attempts, &fakeBucketService{},
	)

	for i := 0; i < 3; i++ {
		out, err := svc.VerifyPurchase(context.Background(), verifyInput("cs_test_abc123", "jane@example.com"))
		if err != nil {
			t.Fatalf("download %d: %v", i+1, err)
		}
		if want := 3 - i - 1; out.RemainingDownloads != want {
			t.Fatalf("download %d remaining: got=%d want=%d", i+1, out.RemainingDownloads, want)
		}
	}

	_, err := svc.VerifyPurchase(context.Background(), verifyInput("cs_test_abc123", "jane@example.com"))
	if err == nil || apierr.CodeOf(err) != "download_limit_reached" {
		t.Fatalf("expected download_limit_reached on 4th request, got %v", err)
	}
	if err.Error() != "download limit reached" {
		t.Fatalf("unexpected message: %q", err.Error())
	}

	// 3 successes + 1 refusal row.
	if len(attempts.attempts) != 4 {
		t.Fatalf("expected 4 ledger rows, got %d", len(attempts.attempts))
	}
	if attempts.attempts[3].Success {
		t.Fatalf("4th row should be a failed attempt")
	}
}

func TestVerifyPurchaseTruncatesRequesterMetadata(t *testing.T) {
	t.Parallel()

	attempts := &fakeAttemptRepo{}
	svc := newDownloadServiceForTest(
		&fakeStripeClient{session: paidSession("cs_test_abc123", "jane@example.com")},
		&fakeSessionRepo{}, attempts, &fakeBucketService{},
	)

	in := verifyInput("cs_test_abc123", "jane@example.com")
	in.RequesterIP = strings.Repeat("1", 60)
	in.UserAgent = strings.Repeat("u", 300)
	if _, err := svc.VerifyPurchase(context.Background(), in); err != nil {
		t.Fatalf("VerifyPurchase: %v", err)
	}

	row := attempts.attempts[0]
	if len(row.RequesterIP) != 45 {
		t.Fatalf("ip not truncated to 45: %d", len(row.RequesterIP))
	}
	if len(row.UserAgent) != 255 {
		t.Fatalf("user agent not truncated to 255: %d", len(row.UserAgent))
	}
}

func TestVerifyPurchaseSwallowsLedgerWriteFailure(t *testing.T) {
	t.Parallel()

	attempts := &fakeAttemptRepo{createErr: errors.New("insert failed")}
	svc := newDownloadServiceForTest(
		&fakeStripeClient{session: paidSession("cs_test_abc123", "jane@example.com")},
		&fakeSessionRepo{}, attempts, &fakeBucketService{},
	)

	out, err := svc.VerifyPurchase(context.Background(), verifyInput("cs_test_abc123", "jane@example.com"))
	if err != nil {
		t.Fatalf("ledger failure must not block the response: %v", err)
	}
	if out.DownloadURL == "" || out.RemainingDownloads != 2 {
		t.Fatalf("unexpected output: %+v", out)
	}
}

func TestVerifyPurchaseSurfacesStripeError(t *testing.T) {
	t.Parallel()

	svc := newDownloadServiceForTest(
		&fakeStripeClient{getErr: errors.New("stripe: no such session")},
		&fakeSessionRepo{}, &fakeAttemptRepo{}, &fakeBucketService{},
	)

	_, err := svc.VerifyPurchase(context.Background(), verifyInput("cs_test_abc123", "jane@example.com"))
	if err == nil || !strings.Contains(err.Error(), "no such session") {
		t.Fatalf("expected stripe error surfaced verbatim, got %v", err)
	}
}
