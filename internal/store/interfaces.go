package store

import (
	"context"
	"errors"
	"time"

	"github.com/masumBillah-1/AssetVerse-Server-Site/internal/model"
)

var (
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique key is already taken
	ErrDuplicate = errors.New("duplicate")
)

// AccountFilter narrows ListAccounts. Zero fields match everything.
type AccountFilter struct {
	Role           model.Role
	AffiliatedWith string
}

// AccountStore persists accounts. Owners double as tenants.
type AccountStore interface {
	CreateAccount(ctx context.Context, account *model.Account) error
	GetAccountByID(ctx context.Context, id string) (*model.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*model.Account, error)
	GetAccountsByIDs(ctx context.Context, ids []string) ([]*model.Account, error)
	// ListAccounts returns matches in creation order
	ListAccounts(ctx context.Context, filter AccountFilter) ([]*model.Account, error)
	// UpdateProfile writes identity, role and owner fields; affiliations,
	// counters and subscription history are left to their own operations
	UpdateProfile(ctx context.Context, account *model.Account) error
	// AddAffiliation has set semantics: adding an existing tenant is a no-op
	AddAffiliation(ctx context.Context, accountID, tenantID string) error
	RemoveAffiliation(ctx context.Context, accountID, tenantID string) error
	CountAffiliatedMembers(ctx context.Context, tenantID string) (int64, error)
	SetCurrentEmployees(ctx context.Context, ownerID string, count int) error
	// ApplySubscription sets tier and limit and appends entry to the history
	ApplySubscription(ctx context.Context, ownerEmail, tier string, limit int, startedAt time.Time, entry model.SubscriptionEntry) error
}

// ItemFilter narrows ListItems. Zero fields match everything.
type ItemFilter struct {
	CompanyID  string
	ReturnType model.ReturnType
}

// ItemStore persists inventory items
type ItemStore interface {
	CreateItem(ctx context.Context, item *model.Item) error
	GetItem(ctx context.Context, id string) (*model.Item, error)
	// ListItems returns matches newest first
	ListItems(ctx context.Context, filter ItemFilter) ([]*model.Item, error)
	UpdateItem(ctx context.Context, id string, patch model.ItemPatch) (*model.Item, error)
	// DecrementQuantity atomically subtracts by and returns the new quantity
	DecrementQuantity(ctx context.Context, id string, by int) (int, error)
	DeleteItem(ctx context.Context, id string) error
}

// RequestFilter narrows ListRequests and CountRequests
type RequestFilter struct {
	EmployeeEmail string
	CompanyID     string
	Status        model.RequestStatus
}

// RequestStore persists asset requests
type RequestStore interface {
	CreateRequest(ctx context.Context, request *model.Request) error
	GetRequest(ctx context.Context, id string) (*model.Request, error)
	// ListRequests returns matches newest first
	ListRequests(ctx context.Context, filter RequestFilter) ([]*model.Request, error)
	UpdateRequest(ctx context.Context, id string, patch model.RequestPatch) (*model.Request, error)
	MarkApproved(ctx context.Context, id string, at time.Time) error
	CountRequests(ctx context.Context, filter RequestFilter) (int64, error)
}

// NotificationFilter narrows ListNotifications
type NotificationFilter struct {
	RecipientID string
	CompanyID   string
}

// NotificationStore persists per-recipient notification records
type NotificationStore interface {
	InsertNotifications(ctx context.Context, notifications []*model.Notification) error
	GetNotification(ctx context.Context, id string) (*model.Notification, error)
	// ListNotifications returns matches newest first
	ListNotifications(ctx context.Context, filter NotificationFilter) ([]*model.Notification, error)
	// AddReader adds accountID to readBy and reports whether it was absent
	AddReader(ctx context.Context, id, accountID string) (bool, error)
	MarkAllRead(ctx context.Context, recipientID string) (int64, error)
	CountUnread(ctx context.Context, recipientID string) (int64, error)
	// DeleteNotification removes id only when it belongs to recipientID
	DeleteNotification(ctx context.Context, id, recipientID string) error
	DeleteRead(ctx context.Context, recipientID string) (int64, error)
}

// BillingStore persists the tier catalogue and the payment ledger
type BillingStore interface {
	UpsertPackage(ctx context.Context, pkg *model.Package) error
	GetPackage(ctx context.Context, id string) (*model.Package, error)
	// ListPackages returns tiers cheapest first
	ListPackages(ctx context.Context) ([]*model.Package, error)
	// CreatePayment returns ErrDuplicate when the session id is taken
	CreatePayment(ctx context.Context, payment *model.Payment) error
	GetPaymentBySession(ctx context.Context, sessionID string) (*model.Payment, error)
	ListPayments(ctx context.Context, ownerEmail string) ([]*model.Payment, error)
}

// Store is the full document store used by the services
type Store interface {
	AccountStore
	ItemStore
	RequestStore
	NotificationStore
	BillingStore

	Ping(ctx context.Context) error
	Close() error
}

// ClaimStore hands out short-lived exclusive claims on keys
type ClaimStore interface {
	// Claim returns false when another caller holds key
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
	Close() error
}
