package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/lyfeworks/toolkit-backend/internal/domain"
	"github.com/lyfeworks/toolkit-backend/internal/platform/gcp"
	"github.com/lyfeworks/toolkit-backend/internal/platform/resend"
)

func TestTierBands(t *testing.T) {
	t.Parallel()

	for s := 0; s <= 8; s++ {
		if got := Tier(s); got != TierEarlyExplorer {
			t.Fatalf("Tier(%d): got=%d want=%d", s, got, TierEarlyExplorer)
		}
	}
	for s := 9; s <= 16; s++ {
		if got := Tier(s); got != TierThoughtfulPlanner {
			t.Fatalf("Tier(%d): got=%d want=%d", s, got, TierThoughtfulPlanner)
		}
	}
	for s := 17; s <= 24; s++ {
		if got := Tier(s); got != TierLegacyLeader {
			t.Fatalf("Tier(%d): got=%d want=%d", s, got, TierLegacyLeader)
		}
	}
}

func TestTierExampleScore(t *testing.T) {
	t.Parallel()

	// Eight answers worth 1,1,1,1,2,1,2,1 sum to 10.
	answers := []int{1, 1, 1, 1, 2, 1, 2, 1}
	score := 0
	for _, a := range answers {
		score += a
	}
	if score != 10 {
		t.Fatalf("example score: got=%d want=10", score)
	}
	tier := Tier(score)
	if tier != TierThoughtfulPlanner {
		t.Fatalf("Tier(10): got=%d want=%d", tier, TierThoughtfulPlanner)
	}
	if got := TierLabel(tier); got != "Thoughtful Planner" {
		t.Fatalf("TierLabel(2): got=%q want=%q", got, "Thoughtful Planner")
	}
}

// --- fakes shared across service tests ---

type fakeQuizRepo struct {
	upserted []*domain.QuizSubmission
	err      error
}

func (f *fakeQuizRepo) UpsertByEmail(_ context.Context, _ *gorm.DB, s *domain.QuizSubmission) (*domain.QuizSubmission, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.upserted = append(f.upserted, s)
	return s, nil
}

func (f *fakeQuizRepo) GetByEmail(_ context.Context, _ *gorm.DB, email string) (*domain.QuizSubmission, error) {
	for _, s := range f.upserted {
		if s.Email == email {
			return s, nil
		}
	}
	return nil, nil
}

type fakeWaitlistRepo struct {
	emails map[string]bool
	err    error
}

func (f *fakeWaitlistRepo) Create(_ context.Context, _ *gorm.DB, e *domain.WaitlistEntry) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.emails == nil {
		f.emails = map[string]bool{}
	}
	if f.emails[e.Email] {
		return false, nil
	}
	f.emails[e.Email] = true
	return true, nil
}

type fakeBucketService struct {
	signErr   error
	signCalls int
}

func (f *fakeBucketService) UploadFile(context.Context, gcp.BucketCategory, string, io.Reader) error {
	return nil
}
func (f *fakeBucketService) DownloadFile(context.Context, gcp.BucketCategory, string) (io.ReadCloser, error) {
	return nil, nil
}
func (f *fakeBucketService) SignedURL(category gcp.BucketCategory, key string, ttl time.Duration) (string, error) {
	f.signCalls++
	if f.signErr != nil {
		return "", f.signErr
	}
	return fmt.Sprintf("https://signed.example.com/%s/%s?ttl=%d", category, key, int(ttl.Seconds())), nil
}
func (f *fakeBucketService) GetPublicURL(category gcp.BucketCategory, key string) string {
	return fmt.Sprintf("https://public.example.com/%s/%s", category, key)
}

type fakeMailer struct {
	quizSends    []string
	confirmSends []string
	err          error
}

func (f *fakeMailer) SendQuizResult(_ context.Context, email string, _ int, _ string) (*resend.SendEmailResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.quizSends = append(f.quizSends, email)
	return &resend.SendEmailResult{StatusCode: 200, EmailID: "em_test"}, nil
}

func (f *fakeMailer) SendWaitlistConfirmation(_ context.Context, email string) (*resend.SendEmailResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.confirmSends = append(f.confirmSends, email)
	return &resend.SendEmailResult{StatusCode: 200, EmailID: "em_test"}, nil
}

func newQuizServiceForTest(quizRepo *fakeQuizRepo, waitlistRepo *fakeWaitlistRepo, bucket *fakeBucketService, mailer MailerService) QuizService {
	log := testLogger()
	return NewQuizService(nil, log, quizRepo, waitlistRepo, bucket, mailer, nil, "guide.pdf", "")
}

func TestSubmitResultsUpsertsAndSigns(t *testing.T) {
	t.Parallel()

	quizRepo := &fakeQuizRepo{}
	waitlistRepo := &fakeWaitlistRepo{}
	bucket := &fakeBucketService{}
	mailer := &fakeMailer{}
	svc := newQuizServiceForTest(quizRepo, waitlistRepo, bucket, mailer)

	out, err := svc.SubmitResults(context.Background(), QuizResultsInput{Email: "Jane@Example.com", Score: 10})
	if err != nil {
		t.Fatalf("SubmitResults: %v", err)
	}
	if out.Tier != TierThoughtfulPlanner || out.TierLabel != "Thoughtful Planner" {
		t.Fatalf("unexpected tier: got=%d/%q", out.Tier, out.TierLabel)
	}
	if out.DownloadURL == "" {
		t.Fatalf("expected download URL")
	}
	if len(quizRepo.upserted) != 1 || quizRepo.upserted[0].Email != "jane@example.com" {
		t.Fatalf("expected lowercased upsert, got %+v", quizRepo.upserted)
	}
	if quizRepo.upserted[0].Score != 10 || quizRepo.upserted[0].Tier != 2 {
		t.Fatalf("unexpected submission: %+v", quizRepo.upserted[0])
	}
	if !waitlistRepo.emails["jane@example.com"] {
		t.Fatalf("expected waitlist entry")
	}
	if len(mailer.quizSends) != 1 {
		t.Fatalf("expected one result email, got %d", len(mailer.quizSends))
	}
}

func TestSubmitResultsRejectsBadInput(t *testing.T) {
	t.Parallel()

	svc := newQuizServiceForTest(&fakeQuizRepo{}, &fakeWaitlistRepo{}, &fakeBucketService{}, &fakeMailer{})

	if _, err := svc.SubmitResults(context.Background(), QuizResultsInput{Email: "not-an-email", Score: 10}); err == nil {
		t.Fatalf("expected invalid email error")
	}
	if _, err := svc.SubmitResults(context.Background(), QuizResultsInput{Email: "ok@example.com", Score: 25}); err == nil {
		t.Fatalf("expected out-of-range score error")
	}
	if _, err := svc.SubmitResults(context.Background(), QuizResultsInput{Email: "ok@example.com", Score: -1}); err == nil {
		t.Fatalf("expected out-of-range score error")
	}
}

func TestSubmitResultsSurvivesEmailFailure(t *testing.T) {
	t.Parallel()

	quizRepo := &fakeQuizRepo{}
	svc := newQuizServiceForTest(quizRepo, &fakeWaitlistRepo{}, &fakeBucketService{}, &fakeMailer{err: errors.New("smtp down")})

	out, err := svc.SubmitResults(context.Background(), QuizResultsInput{Email: "jane@example.com", Score: 20})
	if err != nil {
		t.Fatalf("SubmitResults should not fail on email error: %v", err)
	}
	if out.Tier != TierLegacyLeader {
		t.Fatalf("Tier(20): got=%d want=%d", out.Tier, TierLegacyLeader)
	}
	if len(quizRepo.upserted) != 1 {
		t.Fatalf("expected submission saved despite email failure")
	}
}
