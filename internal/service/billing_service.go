package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/masumBillah-1/AssetVerse-Server-Site/internal/model"
	"github.com/masumBillah-1/AssetVerse-Server-Site/internal/store"
	"github.com/masumBillah-1/AssetVerse-Server-Site/pkg/config"
	"github.com/masumBillah-1/AssetVerse-Server-Site/pkg/logger"
	"github.com/masumBillah-1/AssetVerse-Server-Site/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CheckoutRequest is what the payment processor needs to open a hosted
// checkout
type CheckoutRequest struct {
	PackageID   string
	PackageName string
	Price       decimal.Decimal
	OwnerEmail  string
}

// CheckoutSession is the processor's record of a checkout
type CheckoutSession struct {
	ID          string
	Paid        bool
	PackageID   string
	PackageName string
	OwnerEmail  string
	Amount      decimal.Decimal
}

// CheckoutProvider opens hosted checkout sessions and looks them up again
// once the buyer comes back. GetCheckoutSession wraps ErrNotFound for an
// unknown session id.
type CheckoutProvider interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (string, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error)
}

// PaymentInput is a completed checkout as reported by the processor
type PaymentInput struct {
	SessionID   string
	OwnerEmail  string
	PackageID   string
	PackageName string
	Amount      decimal.Decimal
}

// PaymentResult references the ledger line for a session
type PaymentResult struct {
	Payment         *model.Payment `json:"payment"`
	AlreadyRecorded bool           `json:"alreadyRecorded"`
}

// BillingOptions configures BillingService
type BillingOptions struct {
	Currency string
	ClaimTTL time.Duration
}

// BillingService owns the tier catalogue and the payment ledger
type BillingService struct {
	billing  store.BillingStore
	accounts store.AccountStore
	claims   store.ClaimStore
	checkout CheckoutProvider
	opts     BillingOptions
	logger   *zap.Logger
}

// NewBillingService creates a new billing service. checkout may be nil, in
// which case CreateCheckout reports ErrCheckoutUnavailable.
func NewBillingService(
	billing store.BillingStore,
	accounts store.AccountStore,
	claims store.ClaimStore,
	checkout CheckoutProvider,
	opts BillingOptions,
	logger *zap.Logger,
) *BillingService {
	if opts.Currency == "" {
		opts.Currency = "usd"
	}
	if opts.ClaimTTL <= 0 {
		opts.ClaimTTL = 10 * time.Minute
	}
	return &BillingService{
		billing:  billing,
		accounts: accounts,
		claims:   claims,
		checkout: checkout,
		opts:     opts,
		logger:   logger,
	}
}

// SeedPackages upserts the tier catalogue
func (s *BillingService) SeedPackages(ctx context.Context, tiers []config.PackageTier) error {
	for _, t := range tiers {
		pkg := &model.Package{
			ID:            t.ID,
			Name:          t.Name,
			EmployeeLimit: t.EmployeeLimit,
			Price:         t.Price,
			Features:      pq.StringArray(t.Features),
		}
		if err := s.billing.UpsertPackage(ctx, pkg); err != nil {
			return fmt.Errorf("seed package %s: %w", t.ID, err)
		}
	}
	s.logger.Info("Package tiers seeded", zap.Int("count", len(tiers)))
	return nil
}

// ListPackages returns the tier catalogue cheapest first
func (s *BillingService) ListPackages(ctx context.Context) ([]*model.Package, error) {
	pkgs, err := s.billing.ListPackages(ctx)
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	return pkgs, nil
}

// CreateCheckout opens a hosted checkout for packageID priced from the
// catalogue
func (s *BillingService) CreateCheckout(ctx context.Context, ownerEmail, packageID string) (string, error) {
	if s.checkout == nil {
		return "", ErrCheckoutUnavailable
	}
	if packageID == "" {
		return "", validationf("packageId is required")
	}
	pkg, err := s.billing.GetPackage(ctx, packageID)
	if err != nil {
		return "", notFound(err, "package")
	}

	url, err := s.checkout.CreateCheckoutSession(ctx, CheckoutRequest{
		PackageID:   pkg.ID,
		PackageName: pkg.Name,
		Price:       pkg.Price,
		OwnerEmail:  ownerEmail,
	})
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return url, nil
}

// RecordPayment records a completed checkout once per session id and moves
// the owner onto the purchased tier. With a checkout provider configured the
// session must be paid and match the package and owner, and the amount is
// taken from the processor. The ledger line is written before the owner is
// looked up, so an unknown owner leaves an orphaned payment.
func (s *BillingService) RecordPayment(ctx context.Context, in PaymentInput) (*PaymentResult, error) {
	log := logger.FromContextOr(ctx, s.logger)

	in.SessionID = strings.TrimSpace(in.SessionID)
	in.OwnerEmail = normalizeEmail(in.OwnerEmail)
	switch {
	case in.SessionID == "":
		return nil, validationf("sessionId is required")
	case in.OwnerEmail == "":
		return nil, validationf("hrEmail is required")
	case in.PackageID == "":
		return nil, validationf("packageId is required")
	case in.Amount.IsNegative():
		return nil, validationf("amount must not be negative")
	}

	claimKey := "payment:" + in.SessionID
	claimed, err := s.claims.Claim(ctx, claimKey, s.opts.ClaimTTL)
	if err != nil {
		// The unique session index still guards the ledger
		log.Warn("Payment claim unavailable", zap.String("session_id", in.SessionID), zap.Error(err))
		claimed = true
	} else if claimed {
		defer func() {
			if err := s.claims.Release(context.WithoutCancel(ctx), claimKey); err != nil {
				log.Warn("Failed to release payment claim", zap.String("session_id", in.SessionID), zap.Error(err))
			}
		}()
	}

	if existing, err := s.billing.GetPaymentBySession(ctx, in.SessionID); err == nil {
		prometheus.RecordPayment("duplicate")
		return &PaymentResult{Payment: existing, AlreadyRecorded: true}, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("lookup payment: %w", err)
	}
	if !claimed {
		prometheus.RecordPayment("in_progress")
		return nil, ErrPaymentInProgress
	}

	if s.checkout != nil {
		if in, err = s.verifySession(ctx, in); err != nil {
			if errors.Is(err, ErrPaymentUnverified) {
				prometheus.RecordPayment("unverified")
				log.Warn("Payment rejected by checkout verification",
					zap.String("session_id", in.SessionID),
					zap.Error(err))
			}
			return nil, err
		}
	}

	pkg, err := s.billing.GetPackage(ctx, in.PackageID)
	if err != nil {
		return nil, notFound(err, "package")
	}

	name := in.PackageName
	if name == "" {
		name = pkg.Name
	}
	now := time.Now()
	payment := &model.Payment{
		SessionID:   in.SessionID,
		OwnerEmail:  in.OwnerEmail,
		PackageID:   pkg.ID,
		PackageName: name,
		Amount:      in.Amount,
		Currency:    s.opts.Currency,
		Status:      model.PaymentStatusPaid,
		CreatedAt:   now,
	}
	if err := s.billing.CreatePayment(ctx, payment); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			existing, getErr := s.billing.GetPaymentBySession(ctx, in.SessionID)
			if getErr != nil {
				return nil, fmt.Errorf("load duplicate payment: %w", getErr)
			}
			prometheus.RecordPayment("duplicate")
			return &PaymentResult{Payment: existing, AlreadyRecorded: true}, nil
		}
		return nil, fmt.Errorf("record payment: %w", err)
	}

	tier := strings.ToLower(pkg.Name)
	entry := model.SubscriptionEntry{Tier: tier, Amount: in.Amount.StringFixed(2), Date: now}
	if err := s.accounts.ApplySubscription(ctx, in.OwnerEmail, tier, pkg.EmployeeLimit, now, entry); err != nil {
		prometheus.RecordPayment("orphaned")
		log.Error("Payment recorded for unknown owner",
			zap.String("session_id", in.SessionID),
			zap.String("payment_id", payment.ID),
			zap.Error(err))
		return nil, notFound(err, "owner")
	}

	prometheus.RecordPayment("recorded")
	log.Info("Payment recorded",
		zap.String("session_id", in.SessionID),
		zap.String("payment_id", payment.ID),
		zap.String("tier", tier),
		zap.Int("package_limit", pkg.EmployeeLimit))
	return &PaymentResult{Payment: payment}, nil
}

// verifySession checks the reported purchase against the processor and
// returns it with the processor's amount
func (s *BillingService) verifySession(ctx context.Context, in PaymentInput) (PaymentInput, error) {
	session, err := s.checkout.GetCheckoutSession(ctx, in.SessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return in, fmt.Errorf("checkout session %s: %w", in.SessionID, ErrPaymentUnverified)
		}
		return in, fmt.Errorf("get checkout session: %w", err)
	}
	switch {
	case !session.Paid:
		return in, fmt.Errorf("checkout session %s is not paid: %w", in.SessionID, ErrPaymentUnverified)
	case session.PackageID != in.PackageID:
		return in, fmt.Errorf("checkout session %s bought %q: %w", in.SessionID, session.PackageID, ErrPaymentUnverified)
	case normalizeEmail(session.OwnerEmail) != in.OwnerEmail:
		return in, fmt.Errorf("checkout session %s belongs to another buyer: %w", in.SessionID, ErrPaymentUnverified)
	}

	in.Amount = session.Amount
	if in.PackageName == "" {
		in.PackageName = session.PackageName
	}
	return in, nil
}

// ListPayments returns an owner's payments newest first
func (s *BillingService) ListPayments(ctx context.Context, ownerEmail string) ([]*model.Payment, error) {
	payments, err := s.billing.ListPayments(ctx, normalizeEmail(ownerEmail))
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}
