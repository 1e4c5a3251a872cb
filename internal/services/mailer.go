package services

import (
	"context"
	"fmt"

	"github.com/lyfeworks/toolkit-backend/internal/platform/logger"
	"github.com/lyfeworks/toolkit-backend/internal/platform/resend"
)

// MailerService renders the funnel's transactional emails and hands them to
// the email provider. Callers treat every send as best-effort.
type MailerService interface {
	SendQuizResult(ctx context.Context, email string, tier int, downloadURL string) (*resend.SendEmailResult, error)
	SendWaitlistConfirmation(ctx context.Context, email string) (*resend.SendEmailResult, error)
}

type mailerService struct {
	log    *logger.Logger
	resend resend.Client
}

func NewMailerService(log *logger.Logger, resendClient resend.Client) MailerService {
	serviceLog := log.With("service", "MailerService")
	return &mailerService{log: serviceLog, resend: resendClient}
}

func (ms *mailerService) SendQuizResult(ctx context.Context, email string, tier int, downloadURL string) (*resend.SendEmailResult, error) {
	if ms.resend == nil {
		return nil, fmt.Errorf("email provider not configured")
	}

	label := TierLabel(tier)
	subject := fmt.Sprintf("Your End-of-Lyfe readiness result: %s", label)
	html := fmt.Sprintf(quizResultHTML, label, TierResultCopy(tier), downloadURL)

	return ms.resend.Send(ctx, resend.SendEmailRequest{
		To:      []string{email},
		Subject: subject,
		HTML:    html,
	})
}

func (ms *mailerService) SendWaitlistConfirmation(ctx context.Context, email string) (*resend.SendEmailResult, error) {
	if ms.resend == nil {
		return nil, fmt.Errorf("email provider not configured")
	}

	return ms.resend.Send(ctx, resend.SendEmailRequest{
		To:      []string{email},
		Subject: "You're on the End-of-Lyfe Toolkit waitlist",
		HTML:    waitlistConfirmationHTML,
	})
}

const quizResultHTML = `<div style="font-family:Georgia,serif;max-width:560px;margin:0 auto">
  <h1 style="font-size:22px">You're a %s</h1>
  <p>%s</p>
  <p><a href="%s">Download your free planning guide</a> &mdash; the link is good for 24 hours.</p>
  <p style="color:#777;font-size:13px">You're receiving this because you took the End-of-Lyfe readiness quiz.</p>
</div>`

const waitlistConfirmationHTML = `<div style="font-family:Georgia,serif;max-width:560px;margin:0 auto">
  <h1 style="font-size:22px">You're in.</h1>
  <p>We'll email you the moment the End-of-Lyfe Toolkit opens up again.</p>
  <p style="color:#777;font-size:13px">If this wasn't you, you can safely ignore this email.</p>
</div>`
