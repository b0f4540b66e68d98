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
	"github.com/masumBillah-1/AssetVerse-Server-Site/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AccountInput is the signup profile accepted by CreateAccount
type AccountInput struct {
	Name        string
	Email       string
	Password    string
	Role        string
	PhotoURL    string
	DateOfBirth *time.Time
	CompanyName string
	CompanyLogo string
	Skills      []string
}

// AccountPatch is a partial profile update; nil fields are left untouched
type AccountPatch struct {
	Name         *string
	Role         *string
	PhotoURL     *string
	DateOfBirth  *time.Time
	CompanyName  *string
	CompanyLogo  *string
	Subscription *string
	PackageLimit *int
	Skills       *[]string
}

// DirectoryService owns accounts, tenant resolution and affiliations
type DirectoryService struct {
	accounts store.AccountStore
	logger   *zap.Logger
}

// NewDirectoryService creates a new directory service
func NewDirectoryService(accounts store.AccountStore, logger *zap.Logger) *DirectoryService {
	return &DirectoryService{accounts: accounts, logger: logger}
}

// ParseRole maps a wire role onto model.Role. The legacy "hr" and
// "employee" names are accepted; empty means member.
func ParseRole(role string) (model.Role, error) {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "", "member", "employee":
		return model.RoleMember, nil
	case "owner", "hr":
		return model.RoleOwner, nil
	}
	return "", validationf("unknown role %q", role)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateAccount registers a new account with the defaults of its role
func (s *DirectoryService) CreateAccount(ctx context.Context, in AccountInput) (*model.Account, error) {
	email := normalizeEmail(in.Email)
	if email == "" {
		return nil, validationf("email is required")
	}
	role, err := ParseRole(in.Role)
	if err != nil {
		return nil, err
	}

	account := &model.Account{
		Name:        strings.TrimSpace(in.Name),
		Email:       email,
		Role:        role,
		PhotoURL:    in.PhotoURL,
		DateOfBirth: in.DateOfBirth,
		CreatedAt:   time.Now(),
	}
	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		account.PasswordHash = string(hash)
	}

	switch role {
	case model.RoleOwner:
		account.CompanyName = in.CompanyName
		account.CompanyLogo = in.CompanyLogo
		account.ApplyOwnerDefaults()
	case model.RoleMember:
		account.Skills = pq.StringArray(in.Skills)
		account.ApplyMemberDefaults()
	}

	if err := s.accounts.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, validationf("email %s is already registered", email)
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	logger.FromContextOr(ctx, s.logger).Info("Account created",
		zap.String("account_id", account.ID),
		zap.String("role", string(account.Role)))
	return account, nil
}

// Authenticate checks an email/password pair
func (s *DirectoryService) Authenticate(ctx context.Context, email, password string) (*model.Account, error) {
	account, err := s.accounts.GetAccountByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	if account.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return account, nil
}

// ResolveTenantID is the single answer to "which tenant": an owner is its
// own tenant, a member belongs to its first affiliation.
func ResolveTenantID(account *model.Account) (string, error) {
	if account.IsOwner() {
		return account.ID, nil
	}
	if len(account.AffiliatedCompanies) == 0 {
		return "", fmt.Errorf("account %s: %w", account.ID, ErrUnresolvableTenant)
	}
	return account.AffiliatedCompanies[0], nil
}

// GetAccountByEmail loads an account by email
func (s *DirectoryService) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	account, err := s.accounts.GetAccountByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, notFound(err, "account")
	}
	return account, nil
}

// GetAccountByID loads an account by id
func (s *DirectoryService) GetAccountByID(ctx context.Context, id string) (*model.Account, error) {
	account, err := s.accounts.GetAccountByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "account")
	}
	return account, nil
}

// GetOwner loads the owner account of tenantID
func (s *DirectoryService) GetOwner(ctx context.Context, tenantID string) (*model.Account, error) {
	owner, err := s.GetAccountByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !owner.IsOwner() {
		return nil, fmt.Errorf("tenant %s: %w", tenantID, ErrNotFound)
	}
	return owner, nil
}

// ListMembersOfTenant returns the owner followed by every affiliated member
func (s *DirectoryService) ListMembersOfTenant(ctx context.Context, tenantID string) ([]*model.Account, error) {
	owner, err := s.GetOwner(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	members, err := s.ListMembers(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return append([]*model.Account{owner}, members...), nil
}

// ListMembers returns the member accounts affiliated with tenantID
func (s *DirectoryService) ListMembers(ctx context.Context, tenantID string) ([]*model.Account, error) {
	members, err := s.accounts.ListAccounts(ctx, store.AccountFilter{
		Role:           model.RoleMember,
		AffiliatedWith: tenantID,
	})
	if err != nil {
		return nil, fmt.Errorf("list members of %s: %w", tenantID, err)
	}
	return members, nil
}

// ListOwners returns every tenant owner
func (s *DirectoryService) ListOwners(ctx context.Context) ([]*model.Account, error) {
	owners, err := s.accounts.ListAccounts(ctx, store.AccountFilter{Role: model.RoleOwner})
	if err != nil {
		return nil, fmt.Errorf("list owners: %w", err)
	}
	return owners, nil
}

// UpdateRoleAndDetails applies patch to the account with email, creating it
// when absent. Promotion to owner fills owner defaults the patch left unset;
// demotion to member keeps existing skills and affiliations.
func (s *DirectoryService) UpdateRoleAndDetails(ctx context.Context, email string, patch AccountPatch) (*model.Account, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, validationf("email is required")
	}

	account, err := s.accounts.GetAccountByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return s.createFromPatch(ctx, email, patch)
	}
	if err != nil {
		return nil, fmt.Errorf("load account %s: %w", email, err)
	}

	if err := applyAccountPatch(account, patch); err != nil {
		return nil, err
	}
	if err := s.accounts.UpdateProfile(ctx, account); err != nil {
		return nil, notFound(err, "update account")
	}

	logger.FromContextOr(ctx, s.logger).Info("Account updated",
		zap.String("account_id", account.ID),
		zap.String("role", string(account.Role)))
	return account, nil
}

func (s *DirectoryService) createFromPatch(ctx context.Context, email string, patch AccountPatch) (*model.Account, error) {
	account := &model.Account{Email: email, Role: model.RoleMember, CreatedAt: time.Now()}
	if err := applyAccountPatch(account, patch); err != nil {
		return nil, err
	}
	if err := s.accounts.CreateAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("upsert account %s: %w", email, err)
	}
	return account, nil
}

func applyAccountPatch(account *model.Account, patch AccountPatch) error {
	if patch.Role != nil {
		role, err := ParseRole(*patch.Role)
		if err != nil {
			return err
		}
		account.Role = role
	}
	if patch.Name != nil {
		account.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.PhotoURL != nil {
		account.PhotoURL = *patch.PhotoURL
	}
	if patch.DateOfBirth != nil {
		account.DateOfBirth = patch.DateOfBirth
	}
	if patch.CompanyName != nil {
		account.CompanyName = *patch.CompanyName
	}
	if patch.CompanyLogo != nil {
		account.CompanyLogo = *patch.CompanyLogo
	}
	if patch.Subscription != nil {
		account.Subscription = strings.ToLower(*patch.Subscription)
	}
	if patch.PackageLimit != nil {
		if *patch.PackageLimit < 1 {
			return validationf("packageLimit must be positive")
		}
		account.PackageLimit = *patch.PackageLimit
	}
	if patch.Skills != nil {
		account.Skills = pq.StringArray(*patch.Skills)
	}

	if account.IsOwner() {
		account.ApplyOwnerDefaults()
	} else {
		account.ApplyMemberDefaults()
	}
	return nil
}

// RecountMembers recomputes an owner's member count from the affiliations
// and persists it
func (s *DirectoryService) RecountMembers(ctx context.Context, ownerID string) (int, error) {
	count, err := s.accounts.CountAffiliatedMembers(ctx, ownerID)
	if err != nil {
		return 0, fmt.Errorf("count members of %s: %w", ownerID, err)
	}
	if err := s.accounts.SetCurrentEmployees(ctx, ownerID, int(count)); err != nil {
		return 0, notFound(err, "persist member count")
	}
	return int(count), nil
}

// RemoveMember drops memberID from the owner's tenant and recounts
func (s *DirectoryService) RemoveMember(ctx context.Context, ownerID, memberID string) (int, error) {
	member, err := s.GetAccountByID(ctx, memberID)
	if err != nil {
		return 0, err
	}
	if member.IsOwner() || !member.AffiliatedWith(ownerID) {
		return 0, fmt.Errorf("member %s of %s: %w", memberID, ownerID, ErrNotFound)
	}

	if err := s.accounts.RemoveAffiliation(ctx, memberID, ownerID); err != nil {
		return 0, notFound(err, "remove affiliation")
	}
	count, err := s.RecountMembers(ctx, ownerID)
	if err != nil {
		return 0, err
	}

	logger.FromContextOr(ctx, s.logger).Info("Member removed from tenant",
		zap.String("tenant_id", ownerID),
		zap.String("member_id", memberID),
		zap.Int("current_employees", count))
	return count, nil
}
