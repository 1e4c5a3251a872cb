package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/lyfeworks/toolkit-backend/internal/domain"
	"github.com/lyfeworks/toolkit-backend/internal/platform/apierr"
	"github.com/lyfeworks/toolkit-backend/internal/platform/convertkit"
	"github.com/lyfeworks/toolkit-backend/internal/platform/gcp"
	"github.com/lyfeworks/toolkit-backend/internal/platform/logger"
	"github.com/lyfeworks/toolkit-backend/internal/repos"
)

// Readiness tiers derived from the eight-question quiz. Eight answers worth
// 1-3 points each put the score in the 8-24 range.
const (
	TierEarlyExplorer     = 1
	TierThoughtfulPlanner = 2
	TierLegacyLeader      = 3

	quizMinScore = 0
	quizMaxScore = 24

	guideURLTTL = 24 * time.Hour
)

// Tier maps a quiz score to its readiness tier: 1 for scores up to 8, 2 up
// to 16, 3 above that.
func Tier(score int) int {
	switch {
	case score <= 8:
		return TierEarlyExplorer
	case score <= 16:
		return TierThoughtfulPlanner
	default:
		return TierLegacyLeader
	}
}

func TierLabel(tier int) string {
	switch tier {
	case TierEarlyExplorer:
		return "Early Explorer"
	case TierThoughtfulPlanner:
		return "Thoughtful Planner"
	case TierLegacyLeader:
		return "Legacy Leader"
	default:
		return "Unknown"
	}
}

func TierResultCopy(tier int) string {
	switch tier {
	case TierEarlyExplorer:
		return "You're at the very start of your planning journey. The good news: starting is the hardest part, and you just did."
	case TierThoughtfulPlanner:
		return "You've put real thought into what matters. A few structured steps will turn those intentions into a plan your family can actually use."
	case TierLegacyLeader:
		return "You're ahead of almost everyone. The toolkit will help you close the last gaps and keep everything in one place."
	default:
		return ""
	}
}

type QuizService interface {
	SubmitResults(ctx context.Context, in QuizResultsInput) (*QuizResultsOutput, error)
}

type QuizResultsInput struct {
	Email string
	Score int
}

type QuizResultsOutput struct {
	Tier        int
	TierLabel   string
	DownloadURL string
}

type quizService struct {
	db           *gorm.DB
	log          *logger.Logger
	quizRepo     repos.QuizSubmissionRepo
	waitlistRepo repos.WaitlistEntryRepo
	bucket       gcp.BucketService
	mailer       MailerService
	convertKit   convertkit.Client
	guideKey     string
	quizTagID    string
}

func NewQuizService(
	db *gorm.DB,
	log *logger.Logger,
	quizRepo repos.QuizSubmissionRepo,
	waitlistRepo repos.WaitlistEntryRepo,
	bucket gcp.BucketService,
	mailer MailerService,
	convertKit convertkit.Client,
	guideKey string,
	quizTagID string,
) QuizService {
	serviceLog := log.With("service", "QuizService")
	return &quizService{
		db:           db,
		log:          serviceLog,
		quizRepo:     quizRepo,
		waitlistRepo: waitlistRepo,
		bucket:       bucket,
		mailer:       mailer,
		convertKit:   convertKit,
		guideKey:     guideKey,
		quizTagID:    quizTagID,
	}
}

func (qs *quizService) SubmitResults(ctx context.Context, in QuizResultsInput) (*QuizResultsOutput, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if !emailPattern.MatchString(email) || len(email) > maxEmailLength {
		return nil, apierr.BadRequest("invalid_email", "invalid email address")
	}
	if in.Score < quizMinScore || in.Score > quizMaxScore {
		return nil, apierr.BadRequest("invalid_score", fmt.Sprintf("score must be between %d and %d", quizMinScore, quizMaxScore))
	}

	// The tier is always recomputed server side; a client-supplied tier is
	// advisory only.
	tier := Tier(in.Score)

	submission := &domain.QuizSubmission{
		Email: email,
		Score: in.Score,
		Tier:  tier,
	}
	if _, err := qs.quizRepo.UpsertByEmail(ctx, nil, submission); err != nil {
		qs.log.Error("Failed to upsert quiz submission", "error", err)
		return nil, fmt.Errorf("failed to save quiz submission: %w", err)
	}

	if _, err := qs.waitlistRepo.Create(ctx, nil, &domain.WaitlistEntry{
		Email:          email,
		ReferralSource: "quiz",
	}); err != nil {
		qs.log.Warn("Failed to add quiz taker to waitlist", "error", err)
	}

	downloadURL, err := qs.bucket.SignedURL(gcp.BucketCategoryGuide, qs.guideKey, guideURLTTL)
	if err != nil {
		qs.log.Error("Failed to sign guide URL", "error", err)
		return nil, fmt.Errorf("failed to generate guide download link: %w", err)
	}

	if qs.mailer != nil {
		if _, err := qs.mailer.SendQuizResult(ctx, email, tier, downloadURL); err != nil {
			qs.log.Warn("Quiz result email failed", "error", err, "tier", tier)
		}
	}
	if qs.convertKit != nil && qs.quizTagID != "" {
		if err := qs.convertKit.TagSubscriber(ctx, qs.quizTagID, email); err != nil {
			qs.log.Warn("ConvertKit quiz tag failed", "error", err)
		}
	}

	return &QuizResultsOutput{
		Tier:        tier,
		TierLabel:   TierLabel(tier),
		DownloadURL: downloadURL,
	}, nil
}
