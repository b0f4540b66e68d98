package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Role tags an account as a tenant owner (HR manager) or a member (employee)
type Role string

const (
	RoleOwner  Role = "owner"
	RoleMember Role = "member"
)

// Owner defaults applied on signup and on promotion to owner
const (
	DefaultSubscription = "basic"
	DefaultPackageLimit = 5
)

// SubscriptionEntry is one append-only line of an owner's billing history
type SubscriptionEntry struct {
	Tier   string    `json:"tier"`
	Amount string    `json:"amount"`
	Date   time.Time `json:"date"`
}

// Account is both the identity record and, for owners, the tenant itself.
// The tenant id of an owner is its own ID.
type Account struct {
	ID           string     `json:"id" gorm:"type:varchar(36);primaryKey"`
	Name         string     `json:"name" gorm:"type:varchar(100)"`
	Email        string     `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string     `json:"-" gorm:"type:varchar(255)"`
	Role         Role       `json:"role" gorm:"type:varchar(20);index;not null"`
	PhotoURL     string     `json:"photoURL" gorm:"type:text"`
	DateOfBirth  *time.Time `json:"dateOfBirth,omitempty"`

	// Owner-only
	CompanyName           string                               `json:"companyName,omitempty" gorm:"type:varchar(150)"`
	CompanyLogo           string                               `json:"companyLogo,omitempty" gorm:"type:text"`
	Subscription          string                               `json:"subscription,omitempty" gorm:"type:varchar(50)"`
	PackageLimit          int                                  `json:"packageLimit,omitempty"`
	CurrentEmployees      int                                  `json:"currentEmployees"`
	SubscriptionStartedAt *time.Time                           `json:"subscriptionStartedAt,omitempty"`
	SubscriptionHistory   datatypes.JSONSlice[SubscriptionEntry] `json:"subscriptionHistory,omitempty" gorm:"type:jsonb"`

	// Member-only
	Skills              pq.StringArray `json:"skills,omitempty" gorm:"type:text[]"`
	AffiliatedCompanies pq.StringArray `json:"affiliatedCompanies,omitempty" gorm:"type:text[];default:'{}'"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// BeforeCreate assigns the store-generated id
func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// IsOwner reports whether the account is a tenant owner
func (a *Account) IsOwner() bool {
	return a.Role == RoleOwner
}

// AffiliatedWith reports whether tenantID is in the member's affiliation set
func (a *Account) AffiliatedWith(tenantID string) bool {
	for _, id := range a.AffiliatedCompanies {
		if id == tenantID {
			return true
		}
	}
	return false
}

// ApplyOwnerDefaults fills owner fields left unset
func (a *Account) ApplyOwnerDefaults() {
	if a.Subscription == "" {
		a.Subscription = DefaultSubscription
	}
	if a.PackageLimit <= 0 {
		a.PackageLimit = DefaultPackageLimit
	}
}

// ApplyMemberDefaults makes nil member sets empty without clearing existing
// entries
func (a *Account) ApplyMemberDefaults() {
	if a.Skills == nil {
		a.Skills = pq.StringArray{}
	}
	if a.AffiliatedCompanies == nil {
		a.AffiliatedCompanies = pq.StringArray{}
	}
}

// Clone returns a copy that shares no slices with a
func (a *Account) Clone() *Account {
	c := *a
	c.Skills = append(pq.StringArray(nil), a.Skills...)
	c.AffiliatedCompanies = append(pq.StringArray(nil), a.AffiliatedCompanies...)
	c.SubscriptionHistory = append(datatypes.JSONSlice[SubscriptionEntry](nil), a.SubscriptionHistory...)
	if a.Skills != nil && c.Skills == nil {
		c.Skills = pq.StringArray{}
	}
	if a.AffiliatedCompanies != nil && c.AffiliatedCompanies == nil {
		c.AffiliatedCompanies = pq.StringArray{}
	}
	return &c
}

// AccountProfile is the public identity snapshot used in analytics
type AccountProfile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Profile returns the account's public identity snapshot
func (a *Account) Profile() AccountProfile {
	return AccountProfile{ID: a.ID, Name: a.Name, Email: a.Email, Role: a.Role}
}
