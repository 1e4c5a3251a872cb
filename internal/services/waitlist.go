package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/lyfeworks/toolkit-backend/internal/domain"
	"github.com/lyfeworks/toolkit-backend/internal/platform/apierr"
	"github.com/lyfeworks/toolkit-backend/internal/platform/convertkit"
	"github.com/lyfeworks/toolkit-backend/internal/platform/logger"
	"github.com/lyfeworks/toolkit-backend/internal/platform/resend"
	"github.com/lyfeworks/toolkit-backend/internal/repos"
)

type WaitlistService interface {
	Join(ctx context.Context, in JoinWaitlistInput) (*JoinWaitlistOutput, error)
	SendConfirmation(ctx context.Context, email string) (*resend.SendEmailResult, error)
}

type JoinWaitlistInput struct {
	Email          string
	ReferralSource string
}

type JoinWaitlistOutput struct {
	AlreadySubscribed bool
}

type waitlistService struct {
	db           *gorm.DB
	log          *logger.Logger
	waitlistRepo repos.WaitlistEntryRepo
	mailer       MailerService
	convertKit   convertkit.Client
	formID       string
}

func NewWaitlistService(
	db *gorm.DB,
	log *logger.Logger,
	waitlistRepo repos.WaitlistEntryRepo,
	mailer MailerService,
	convertKit convertkit.Client,
	formID string,
) WaitlistService {
	serviceLog := log.With("service", "WaitlistService")
	return &waitlistService{
		db:           db,
		log:          serviceLog,
		waitlistRepo: waitlistRepo,
		mailer:       mailer,
		convertKit:   convertKit,
		formID:       formID,
	}
}

func (ws *waitlistService) Join(ctx context.Context, in JoinWaitlistInput) (*JoinWaitlistOutput, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if !emailPattern.MatchString(email) || len(email) > maxEmailLength {
		return nil, apierr.BadRequest("invalid_email", "invalid email address")
	}

	created, err := ws.waitlistRepo.Create(ctx, nil, &domain.WaitlistEntry{
		Email:          email,
		ReferralSource: strings.TrimSpace(in.ReferralSource),
	})
	if err != nil {
		ws.log.Error("Waitlist insert failed", "error", err)
		return nil, err
	}

	// Confirmation email and list subscription are both best-effort; a
	// provider failure is logged and the signup still succeeds.
	if ws.mailer != nil {
		if _, err := ws.mailer.SendWaitlistConfirmation(ctx, email); err != nil {
			ws.log.Warn("Waitlist confirmation email failed", "error", err)
		}
	}
	if ws.convertKit != nil && ws.formID != "" {
		if err := ws.convertKit.SubscribeToForm(ctx, ws.formID, email); err != nil {
			ws.log.Warn("ConvertKit subscribe failed", "error", err)
		}
	}

	return &JoinWaitlistOutput{AlreadySubscribed: !created}, nil
}

func (ws *waitlistService) SendConfirmation(ctx context.Context, email string) (*resend.SendEmailResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailPattern.MatchString(email) || len(email) > maxEmailLength {
		return nil, apierr.BadRequest("invalid_email", "invalid email address")
	}
	if ws.mailer == nil {
		return nil, apierr.BadRequest("email_unavailable", "email provider not configured")
	}
	return ws.mailer.SendWaitlistConfirmation(ctx, email)
}
