package store

import (
	"context"

	"github.com/masumBillah-1/AssetVerse-Server-Site/internal/model"
	"gorm.io/gorm/clause"
)

// UpsertPackage inserts a tier or overwrites the one with the same id
func (s *PostgresStore) UpsertPackage(ctx context.Context, pkg *model.Package) error {
	db, done := s.withContext(ctx, "package_upsert")
	defer done()

	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "employee_limit", "price", "features", "updated_at"}),
	}).Create(pkg).Error
	return translate(err, "upsert package %s", pkg.ID)
}

// GetPackage loads a tier by id
func (s *PostgresStore) GetPackage(ctx context.Context, id string) (*model.Package, error) {
	db, done := s.withContext(ctx, "package_get")
	defer done()

	var pkg model.Package
	if err := db.Where("id = ?", id).First(&pkg).Error; err != nil {
		return nil, translate(err, "get package %s", id)
	}
	return &pkg, nil
}

// ListPackages returns every tier cheapest first
func (s *PostgresStore) ListPackages(ctx context.Context) ([]*model.Package, error) {
	db, done := s.withContext(ctx, "package_list")
	defer done()

	var pkgs []*model.Package
	if err := db.Order("price ASC").Order("id ASC").Find(&pkgs).Error; err != nil {
		return nil, translate(err, "list packages")
	}
	return pkgs, nil
}

// CreatePayment inserts a ledger line; the unique session index turns a
// repeat into ErrDuplicate
func (s *PostgresStore) CreatePayment(ctx context.Context, payment *model.Payment) error {
	db, done := s.withContext(ctx, "payment_create")
	defer done()

	return translate(db.Create(payment).Error, "insert payment %s", payment.SessionID)
}

// GetPaymentBySession loads the ledger line for a checkout session
func (s *PostgresStore) GetPaymentBySession(ctx context.Context, sessionID string) (*model.Payment, error) {
	db, done := s.withContext(ctx, "payment_get")
	defer done()

	var payment model.Payment
	if err := db.Where("session_id = ?", sessionID).First(&payment).Error; err != nil {
		return nil, translate(err, "get payment %s", sessionID)
	}
	return &payment, nil
}

// ListPayments returns an owner's payments newest first
func (s *PostgresStore) ListPayments(ctx context.Context, ownerEmail string) ([]*model.Payment, error) {
	db, done := s.withContext(ctx, "payment_list")
	defer done()

	var payments []*model.Payment
	if err := db.Where("owner_email = ?", ownerEmail).Order("created_at DESC").Find(&payments).Error; err != nil {
		return nil, translate(err, "list payments for %s", ownerEmail)
	}
	return payments, nil
}
