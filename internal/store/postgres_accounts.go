package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/masumBillah-1/AssetVerse-Server-Site/internal/model"
	"gorm.io/gorm"
)

// CreateAccount inserts a new account
func (s *PostgresStore) CreateAccount(ctx context.Context, account *model.Account) error {
	db, done := s.withContext(ctx, "account_create")
	defer done()

	return translate(db.Create(account).Error, "insert account %s", account.Email)
}

// GetAccountByID loads an account by id
func (s *PostgresStore) GetAccountByID(ctx context.Context, id string) (*model.Account, error) {
	db, done := s.withContext(ctx, "account_get")
	defer done()

	var account model.Account
	if err := db.Where("id = ?", id).First(&account).Error; err != nil {
		return nil, translate(err, "get account %s", id)
	}
	return &account, nil
}

// GetAccountByEmail loads an account by its unique email
func (s *PostgresStore) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	db, done := s.withContext(ctx, "account_get")
	defer done()

	var account model.Account
	if err := db.Where("email = ?", email).First(&account).Error; err != nil {
		return nil, translate(err, "get account %s", email)
	}
	return &account, nil
}

// GetAccountsByIDs loads every existing account among ids
func (s *PostgresStore) GetAccountsByIDs(ctx context.Context, ids []string) ([]*model.Account, error) {
	if len(ids) == 0 {
		return []*model.Account{}, nil
	}
	db, done := s.withContext(ctx, "account_list")
	defer done()

	var accounts []*model.Account
	if err := db.Where("id IN ?", ids).Find(&accounts).Error; err != nil {
		return nil, translate(err, "get accounts by ids")
	}
	return accounts, nil
}

// ListAccounts returns accounts matching filter in creation order
func (s *PostgresStore) ListAccounts(ctx context.Context, filter AccountFilter) ([]*model.Account, error) {
	db, done := s.withContext(ctx, "account_list")
	defer done()

	query := db.Model(&model.Account{})
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.AffiliatedWith != "" {
		query = query.Where("? = ANY(COALESCE(affiliated_companies, "+emptyArray+"))", filter.AffiliatedWith)
	}

	var accounts []*model.Account
	if err := query.Order("created_at ASC").Find(&accounts).Error; err != nil {
		return nil, translate(err, "list accounts")
	}
	return accounts, nil
}

// UpdateProfile writes the profile and owner columns of account
func (s *PostgresStore) UpdateProfile(ctx context.Context, account *model.Account) error {
	db, done := s.withContext(ctx, "account_update")
	defer done()

	result := db.Model(&model.Account{}).
		Where("id = ?", account.ID).
		Select("name", "role", "photo_url", "date_of_birth", "company_name", "company_logo",
			"subscription", "package_limit", "skills").
		Updates(account)
	return requireRows(result, "update account %s", account.ID)
}

// AddAffiliation appends tenantID to the member's affiliations unless present
func (s *PostgresStore) AddAffiliation(ctx context.Context, accountID, tenantID string) error {
	db, done := s.withContext(ctx, "account_affiliate")
	defer done()

	result := db.Model(&model.Account{}).
		Where("id = ? AND NOT (? = ANY(COALESCE(affiliated_companies, "+emptyArray+")))", accountID, tenantID).
		Update("affiliated_companies", gorm.Expr("array_append(COALESCE(affiliated_companies, "+emptyArray+"), ?)", tenantID))
	if result.Error != nil {
		return translate(result.Error, "affiliate account %s", accountID)
	}
	if result.RowsAffected == 0 {
		// Either already affiliated or the account is gone
		if _, err := s.GetAccountByID(ctx, accountID); err != nil {
			return err
		}
	}
	return nil
}

// RemoveAffiliation drops tenantID from the member's affiliations
func (s *PostgresStore) RemoveAffiliation(ctx context.Context, accountID, tenantID string) error {
	db, done := s.withContext(ctx, "account_unaffiliate")
	defer done()

	result := db.Model(&model.Account{}).
		Where("id = ?", accountID).
		Update("affiliated_companies", gorm.Expr("array_remove(COALESCE(affiliated_companies, "+emptyArray+"), ?)", tenantID))
	return requireRows(result, "unaffiliate account %s", accountID)
}

// CountAffiliatedMembers counts members whose affiliations contain tenantID
func (s *PostgresStore) CountAffiliatedMembers(ctx context.Context, tenantID string) (int64, error) {
	db, done := s.withContext(ctx, "account_count")
	defer done()

	var count int64
	err := db.Model(&model.Account{}).
		Where("role = ? AND ? = ANY(COALESCE(affiliated_companies, "+emptyArray+"))", model.RoleMember, tenantID).
		Count(&count).Error
	if err != nil {
		return 0, translate(err, "count members of %s", tenantID)
	}
	return count, nil
}

// SetCurrentEmployees persists a recomputed member count on the owner
func (s *PostgresStore) SetCurrentEmployees(ctx context.Context, ownerID string, count int) error {
	db, done := s.withContext(ctx, "account_update")
	defer done()

	result := db.Model(&model.Account{}).Where("id = ?", ownerID).Update("current_employees", count)
	return requireRows(result, "set member count of %s", ownerID)
}

// ApplySubscription updates the owner's tier and appends to its history in
// a single statement
func (s *PostgresStore) ApplySubscription(ctx context.Context, ownerEmail, tier string, limit int, startedAt time.Time, entry model.SubscriptionEntry) error {
	db, done := s.withContext(ctx, "account_subscription")
	defer done()

	appended, err := json.Marshal([]model.SubscriptionEntry{entry})
	if err != nil {
		return fmt.Errorf("encode subscription entry: %w", err)
	}

	result := db.Model(&model.Account{}).
		Where("email = ? AND role = ?", ownerEmail, model.RoleOwner).
		Updates(map[string]interface{}{
			"subscription":            tier,
			"package_limit":           limit,
			"subscription_started_at": startedAt,
			"subscription_history":    gorm.Expr("COALESCE(subscription_history, '[]'::jsonb) || ?::jsonb", string(appended)),
		})
	return requireRows(result, "apply subscription to %s", ownerEmail)
}
