package services

import (
	"context"
	"strings"

	"github.com/lyfeworks/toolkit-backend/internal/platform/apierr"
	"github.com/lyfeworks/toolkit-backend/internal/platform/logger"
	"github.com/lyfeworks/toolkit-backend/internal/platform/stripepay"
)

type CheckoutService interface {
	CreateSession(ctx context.Context, in CreateCheckoutInput) (*CreateCheckoutOutput, error)
}

type CreateCheckoutInput struct {
	PriceCents    int64
	CustomerEmail string
	CustomerName  string
	CouponCode    string
}

type CreateCheckoutOutput struct {
	URL string
}

type checkoutService struct {
	log    *logger.Logger
	stripe stripepay.Client
}

func NewCheckoutService(log *logger.Logger, stripeClient stripepay.Client) CheckoutService {
	serviceLog := log.With("service", "CheckoutService")
	return &checkoutService{log: serviceLog, stripe: stripeClient}
}

func (cs *checkoutService) CreateSession(ctx context.Context, in CreateCheckoutInput) (*CreateCheckoutOutput, error) {
	if in.PriceCents <= 0 {
		return nil, apierr.BadRequest("invalid_price", "price must be positive")
	}
	if email := strings.TrimSpace(in.CustomerEmail); email != "" {
		if !emailPattern.MatchString(email) || len(email) > maxEmailLength {
			return nil, apierr.BadRequest("invalid_email", "invalid email address")
		}
	}

	session, err := cs.stripe.CreateCheckoutSession(ctx, stripepay.CreateCheckoutSessionInput{
		PriceCents:    in.PriceCents,
		CustomerEmail: in.CustomerEmail,
		CustomerName:  in.CustomerName,
		CouponCode:    in.CouponCode,
	})
	if err != nil {
		cs.log.Error("Checkout session create failed", "error", err)
		return nil, err
	}

	return &CreateCheckoutOutput{URL: session.URL}, nil
}
