package stripepay

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v76"
	stripeclient "github.com/stripe/stripe-go/v76/client"

	"github.com/lyfeworks/toolkit-backend/internal/platform/logger"
)

// PaymentStatusPaid is the only payment status that authorizes a download.
const PaymentStatusPaid = "paid"

type Client interface {
	GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error)
	CreateCheckoutSession(ctx context.Context, in CreateCheckoutSessionInput) (*CheckoutSession, error)
}

// CheckoutSession is the slice of a Stripe checkout session the funnel
// cares about.
type CheckoutSession struct {
	ID              string
	URL             string
	PaymentStatus   string
	CustomerEmail   string
	CustomerName    string
	CustomerAddress string
	AmountTotal     int64
	Currency        string
	CreatedAt       time.Time
}

type CreateCheckoutSessionInput struct {
	PriceCents    int64
	CustomerEmail string
	CustomerName  string
	CouponCode    string
}

type Config struct {
	SecretKey   string
	ProductName string
	ProductDesc string
	SuccessURL  string
	CancelURL   string
}

func ConfigFromEnv() Config {
	return Config{
		SecretKey:   strings.TrimSpace(os.Getenv("STRIPE_SECRET_KEY")),
		ProductName: strings.TrimSpace(os.Getenv("STRIPE_PRODUCT_NAME")),
		ProductDesc: strings.TrimSpace(os.Getenv("STRIPE_PRODUCT_DESCRIPTION")),
		SuccessURL:  strings.TrimSpace(os.Getenv("CHECKOUT_SUCCESS_URL")),
		CancelURL:   strings.TrimSpace(os.Getenv("CHECKOUT_CANCEL_URL")),
	}
}

func NewFromEnv(log *logger.Logger) (Client, error) {
	return New(log, ConfigFromEnv())
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, fmt.Errorf("missing STRIPE_SECRET_KEY")
	}
	if cfg.ProductName == "" {
		cfg.ProductName = "End-of-Lyfe Toolkit"
	}
	if cfg.SuccessURL == "" {
		cfg.SuccessURL = "https://endoflyfe.com/thank-you?session_id={CHECKOUT_SESSION_ID}"
	}
	if cfg.CancelURL == "" {
		cfg.CancelURL = "https://endoflyfe.com/checkout"
	}

	sc := &stripeclient.API{}
	sc.Init(cfg.SecretKey, nil)

	return &client{
		log: log.With("client", "StripeClient"),
		cfg: cfg,
		api: sc,
	}, nil
}

type client struct {
	log *logger.Logger
	cfg Config
	api *stripeclient.API
}

func (c *client) GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := c.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: retrieve checkout session: %w", err)
	}
	return fromStripeSession(s), nil
}

func (c *client) CreateCheckoutSession(ctx context.Context, in CreateCheckoutSessionInput) (*CheckoutSession, error) {
	if in.PriceCents <= 0 {
		return nil, fmt.Errorf("stripe: price must be positive")
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(c.cfg.SuccessURL),
		CancelURL:  stripe.String(c.cfg.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(string(stripe.CurrencyUSD)),
					UnitAmount: stripe.Int64(in.PriceCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(c.cfg.ProductName),
						Description: stripe.String(c.cfg.ProductDesc),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	params.AddMetadata("product", "end-of-lyfe-toolkit")
	params.AddMetadata("source", "funnel")

	if email := strings.TrimSpace(in.CustomerEmail); email != "" {
		params.CustomerEmail = stripe.String(email)
	}
	if coupon := strings.TrimSpace(in.CouponCode); coupon != "" {
		params.Discounts = []*stripe.CheckoutSessionDiscountParams{
			{Coupon: stripe.String(coupon)},
		}
	}

	s, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create checkout session: %w", err)
	}
	return fromStripeSession(s), nil
}

func fromStripeSession(s *stripe.CheckoutSession) *CheckoutSession {
	out := &CheckoutSession{
		ID:            s.ID,
		URL:           s.URL,
		PaymentStatus: string(s.PaymentStatus),
		AmountTotal:   s.AmountTotal,
		Currency:      string(s.Currency),
		CreatedAt:     time.Unix(s.Created, 0).UTC(),
	}
	if s.CustomerDetails != nil {
		out.CustomerEmail = s.CustomerDetails.Email
		out.CustomerName = s.CustomerDetails.Name
		out.CustomerAddress = formatAddress(s.CustomerDetails.Address)
	}
	return out
}

func formatAddress(a *stripe.Address) string {
	if a == nil {
		return ""
	}
	parts := []string{}
	for _, p := range []string{a.Line1, a.Line2, a.City, a.State, a.PostalCode, a.Country} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, strings.TrimSpace(p))
		}
	}
	return strings.Join(parts, ", ")
}
