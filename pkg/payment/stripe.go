package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/masumBillah-1/AssetVerse-Server-Site/internal/service"
	"github.com/masumBillah-1/AssetVerse-Server-Site/pkg/config"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"go.uber.org/zap"
)

var hundred = decimal.NewFromInt(100)

// StripeProvider opens Stripe hosted checkout sessions for package upgrades
type StripeProvider struct {
	api    *client.API
	cfg    config.StripeConfig
	logger *zap.Logger
}

// NewStripeProvider creates a provider bound to cfg.SecretKey
func NewStripeProvider(cfg config.StripeConfig, logger *zap.Logger) (*StripeProvider, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("stripe secret key is not configured")
	}
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	return &StripeProvider{
		api:    client.New(cfg.SecretKey, nil),
		cfg:    cfg,
		logger: logger,
	}, nil
}

// CreateCheckoutSession opens a one-off payment session and returns its URL
func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, req service.CheckoutRequest) (string, error) {
	params := SessionParams(p.cfg, req)
	params.Context = ctx

	p.logger.Info("Creating checkout session",
		zap.String("package_id", req.PackageID),
		zap.String("owner_email", req.OwnerEmail))

	s, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		p.logger.Error("Checkout session creation failed", zap.Error(err))
		return "", fmt.Errorf("stripe checkout: %w", err)
	}
	return s.URL, nil
}

// GetCheckoutSession looks a session up so a reported payment can be
// confirmed before it is recorded
func (p *StripeProvider) GetCheckoutSession(ctx context.Context, sessionID string) (*service.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := p.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("stripe session %s: %w", sessionID, service.ErrNotFound)
		}
		p.logger.Error("Checkout session lookup failed", zap.String("session_id", sessionID), zap.Error(err))
		return nil, fmt.Errorf("stripe session %s: %w", sessionID, err)
	}
	return SessionFromStripe(s), nil
}

// SessionFromStripe reads back what SessionParams put on the session
func SessionFromStripe(s *stripe.CheckoutSession) *service.CheckoutSession {
	return &service.CheckoutSession{
		ID:          s.ID,
		Paid:        s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		PackageID:   s.Metadata["packageId"],
		PackageName: s.Metadata["packageName"],
		OwnerEmail:  s.Metadata["hrEmail"],
		Amount:      decimal.New(s.AmountTotal, -2),
	}
}

// UnitAmount converts a price into the smallest currency unit
func UnitAmount(price decimal.Decimal) int64 {
	return price.Mul(hundred).Round(0).IntPart()
}

// SessionParams builds the checkout request for a single package purchase.
// The package id and buyer travel as metadata so the success page can
// report them back to /payment-success.
func SessionParams(cfg config.StripeConfig, req service.CheckoutRequest) *stripe.CheckoutSessionParams {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(cfg.SuccessURL),
		CancelURL:  stripe.String(cfg.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(cfg.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.PackageName + " package"),
					},
					UnitAmount: stripe.Int64(UnitAmount(req.Price)),
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	if req.OwnerEmail != "" {
		params.CustomerEmail = stripe.String(req.OwnerEmail)
	}
	params.AddMetadata("packageId", req.PackageID)
	params.AddMetadata("packageName", req.PackageName)
	params.AddMetadata("hrEmail", req.OwnerEmail)
	return params
}
