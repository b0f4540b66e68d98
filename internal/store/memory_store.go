package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/masumBillah-1/AssetVerse-Server-Site/internal/model"
)

// MemoryStore implements Store in process memory. Every record is copied
// on the way in and out so callers never share state with the store.
type MemoryStore struct {
	mu  sync.RWMutex
	seq int64

	accounts      map[string]*model.Account
	accountSeq    map[string]int64
	items         map[string]*model.Item
	itemSeq       map[string]int64
	requests      map[string]*model.Request
	requestSeq    map[string]int64
	notifications map[string]*model.Notification
	notifySeq     map[string]int64
	packages      map[string]*model.Package
	payments      map[string]*model.Payment
	paymentSeq    map[string]int64
}

// NewMemoryStore returns an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts:      make(map[string]*model.Account),
		accountSeq:    make(map[string]int64),
		items:         make(map[string]*model.Item),
		itemSeq:       make(map[string]int64),
		requests:      make(map[string]*model.Request),
		requestSeq:    make(map[string]int64),
		notifications: make(map[string]*model.Notification),
		notifySeq:     make(map[string]int64),
		packages:      make(map[string]*model.Package),
		payments:      make(map[string]*model.Payment),
		paymentSeq:    make(map[string]int64),
	}
}

// Ping always succeeds
func (s *MemoryStore) Ping(ctx context.Context) error { return ctx.Err() }

// Close is a no-op
func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) next() int64 {
	s.seq++
	return s.seq
}

func stamp(created *time.Time) time.Time {
	if created.IsZero() {
		*created = time.Now()
	}
	return *created
}

// newestFirst orders by creation time, breaking ties by insertion order
func newestFirst[T any](records []T, created func(T) time.Time, seq func(T) int64) {
	sort.SliceStable(records, func(i, j int) bool {
		ci, cj := created(records[i]), created(records[j])
		if !ci.Equal(cj) {
			return ci.After(cj)
		}
		return seq(records[i]) > seq(records[j])
	})
}

// Accounts

func (s *MemoryStore) CreateAccount(ctx context.Context, account *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.accounts {
		if existing.Email == account.Email {
			return fmt.Errorf("insert account %s: %w", account.Email, ErrDuplicate)
		}
	}
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	stamp(&account.CreatedAt)
	account.UpdatedAt = account.CreatedAt
	if account.AffiliatedCompanies == nil {
		account.AffiliatedCompanies = pq.StringArray{}
	}
	s.accounts[account.ID] = account.Clone()
	s.accountSeq[account.ID] = s.next()
	return nil
}

func (s *MemoryStore) GetAccountByID(ctx context.Context, id string) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[id]
	if !ok {
		return nil, fmt.Errorf("get account %s: %w", id, ErrNotFound)
	}
	return a.Clone(), nil
}

func (s *MemoryStore) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.accounts {
		if a.Email == email {
			return a.Clone(), nil
		}
	}
	return nil, fmt.Errorf("get account %s: %w", email, ErrNotFound)
}

func (s *MemoryStore) GetAccountsByIDs(ctx context.Context, ids []string) ([]*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Account, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if a, ok := s.accounts[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, a.Clone())
		}
	}
	return out, nil
}

func (s *MemoryStore) ListAccounts(ctx context.Context, filter AccountFilter) ([]*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*model.Account{}
	for _, a := range s.accounts {
		if filter.Role != "" && a.Role != filter.Role {
			continue
		}
		if filter.AffiliatedWith != "" && !a.AffiliatedWith(filter.AffiliatedWith) {
			continue
		}
		out = append(out, a.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return s.accountSeq[out[i].ID] < s.accountSeq[out[j].ID]
	})
	return out, nil
}

func (s *MemoryStore) UpdateProfile(ctx context.Context, account *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[account.ID]
	if !ok {
		return fmt.Errorf("update account %s: %w", account.ID, ErrNotFound)
	}
	a.Name = account.Name
	a.Role = account.Role
	a.PhotoURL = account.PhotoURL
	a.DateOfBirth = account.DateOfBirth
	a.CompanyName = account.CompanyName
	a.CompanyLogo = account.CompanyLogo
	a.Subscription = account.Subscription
	a.PackageLimit = account.PackageLimit
	a.Skills = append(pq.StringArray{}, account.Skills...)
	a.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) AddAffiliation(ctx context.Context, accountID, tenantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[accountID]
	if !ok {
		return fmt.Errorf("affiliate account %s: %w", accountID, ErrNotFound)
	}
	if !a.AffiliatedWith(tenantID) {
		a.AffiliatedCompanies = append(a.AffiliatedCompanies, tenantID)
		a.UpdatedAt = time.Now()
	}
	return nil
}

func (s *MemoryStore) RemoveAffiliation(ctx context.Context, accountID, tenantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[accountID]
	if !ok {
		return fmt.Errorf("unaffiliate account %s: %w", accountID, ErrNotFound)
	}
	kept := pq.StringArray{}
	for _, id := range a.AffiliatedCompanies {
		if id != tenantID {
			kept = append(kept, id)
		}
	}
	a.AffiliatedCompanies = kept
	a.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) CountAffiliatedMembers(ctx context.Context, tenantID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, a := range s.accounts {
		if a.Role == model.RoleMember && a.AffiliatedWith(tenantID) {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) SetCurrentEmployees(ctx context.Context, ownerID string, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[ownerID]
	if !ok {
		return fmt.Errorf("set member count of %s: %w", ownerID, ErrNotFound)
	}
	a.CurrentEmployees = count
	a.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) ApplySubscription(ctx context.Context, ownerEmail, tier string, limit int, startedAt time.Time, entry model.SubscriptionEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.accounts {
		if a.Email != ownerEmail || a.Role != model.RoleOwner {
			continue
		}
		a.Subscription = tier
		a.PackageLimit = limit
		started := startedAt
		a.SubscriptionStartedAt = &started
		a.SubscriptionHistory = append(a.SubscriptionHistory, entry)
		a.UpdatedAt = time.Now()
		return nil
	}
	return fmt.Errorf("apply subscription to %s: %w", ownerEmail, ErrNotFound)
}

// Items

func (s *MemoryStore) CreateItem(ctx context.Context, item *model.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.Status == "" {
		item.Status = model.ItemStatusAvailable
	}
	stamp(&item.CreatedAt)
	item.UpdatedAt = item.CreatedAt
	c := *item
	s.items[item.ID] = &c
	s.itemSeq[item.ID] = s.next()
	return nil
}

func (s *MemoryStore) GetItem(ctx context.Context, id string) (*model.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("get item %s: %w", id, ErrNotFound)
	}
	c := *item
	return &c, nil
}

func (s *MemoryStore) ListItems(ctx context.Context, filter ItemFilter) ([]*model.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*model.Item{}
	for _, item := range s.items {
		if filter.CompanyID != "" && item.CompanyID != filter.CompanyID {
			continue
		}
		if filter.ReturnType != "" && item.ReturnType != filter.ReturnType {
			continue
		}
		c := *item
		out = append(out, &c)
	}
	newestFirst(out,
		func(i *model.Item) time.Time { return i.CreatedAt },
		func(i *model.Item) int64 { return s.itemSeq[i.ID] })
	return out, nil
}

func (s *MemoryStore) UpdateItem(ctx context.Context, id string, patch model.ItemPatch) (*model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("update item %s: %w", id, ErrNotFound)
	}
	patch.Apply(item)
	item.UpdatedAt = time.Now()
	c := *item
	return &c, nil
}

func (s *MemoryStore) DecrementQuantity(ctx context.Context, id string, by int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return 0, fmt.Errorf("decrement item %s: %w", id, ErrNotFound)
	}
	item.Quantity -= by
	item.UpdatedAt = time.Now()
	return item.Quantity, nil
}

func (s *MemoryStore) DeleteItem(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return fmt.Errorf("delete item %s: %w", id, ErrNotFound)
	}
	delete(s.items, id)
	delete(s.itemSeq, id)
	return nil
}

// Requests

func (s *MemoryStore) CreateRequest(ctx context.Context, request *model.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	stamp(&request.CreatedAt)
	request.UpdatedAt = request.CreatedAt
	c := *request
	s.requests[request.ID] = &c
	s.requestSeq[request.ID] = s.next()
	return nil
}

func (s *MemoryStore) GetRequest(ctx context.Context, id string) (*model.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.requests[id]
	if !ok {
		return nil, fmt.Errorf("get request %s: %w", id, ErrNotFound)
	}
	c := *r
	return &c, nil
}

func (f RequestFilter) matches(r *model.Request) bool {
	return (f.EmployeeEmail == "" || r.EmployeeEmail == f.EmployeeEmail) &&
		(f.CompanyID == "" || r.CompanyID == f.CompanyID) &&
		(f.Status == "" || r.Status == f.Status)
}

func (s *MemoryStore) ListRequests(ctx context.Context, filter RequestFilter) ([]*model.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*model.Request{}
	for _, r := range s.requests {
		if filter.matches(r) {
			c := *r
			out = append(out, &c)
		}
	}
	newestFirst(out,
		func(r *model.Request) time.Time { return r.CreatedAt },
		func(r *model.Request) int64 { return s.requestSeq[r.ID] })
	return out, nil
}

func (s *MemoryStore) UpdateRequest(ctx context.Context, id string, patch model.RequestPatch) (*model.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.requests[id]
	if !ok {
		return nil, fmt.Errorf("update request %s: %w", id, ErrNotFound)
	}
	if patch.Status != nil {
		r.Status = *patch.Status
	}
	if patch.Note != nil {
		r.Note = *patch.Note
	}
	r.UpdatedAt = time.Now()
	c := *r
	return &c, nil
}

func (s *MemoryStore) MarkApproved(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.requests[id]
	if !ok {
		return fmt.Errorf("approve request %s: %w", id, ErrNotFound)
	}
	r.Status = model.RequestApproved
	approved := at
	r.ApprovedAt = &approved
	r.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) CountRequests(ctx context.Context, filter RequestFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, r := range s.requests {
		if filter.matches(r) {
			count++
		}
	}
	return count, nil
}

// Notifications

func (s *MemoryStore) InsertNotifications(ctx context.Context, notifications []*model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range notifications {
		if n.ID == "" {
			n.ID = uuid.NewString()
		}
		if n.ReadBy == nil {
			n.ReadBy = pq.StringArray{}
		}
		stamp(&n.CreatedAt)
		s.notifications[n.ID] = n.Clone()
		s.notifySeq[n.ID] = s.next()
	}
	return nil
}

func (s *MemoryStore) GetNotification(ctx context.Context, id string) (*model.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.notifications[id]
	if !ok {
		return nil, fmt.Errorf("get notification %s: %w", id, ErrNotFound)
	}
	return n.Clone(), nil
}

func (s *MemoryStore) ListNotifications(ctx context.Context, filter NotificationFilter) ([]*model.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*model.Notification{}
	for _, n := range s.notifications {
		if filter.RecipientID != "" && n.RecipientID != filter.RecipientID {
			continue
		}
		if filter.CompanyID != "" && n.CompanyID != filter.CompanyID {
			continue
		}
		out = append(out, n.Clone())
	}
	newestFirst(out,
		func(n *model.Notification) time.Time { return n.CreatedAt },
		func(n *model.Notification) int64 { return s.notifySeq[n.ID] })
	return out, nil
}

func (s *MemoryStore) AddReader(ctx context.Context, id, accountID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok || n.ReadByAccount(accountID) {
		return false, nil
	}
	n.ReadBy = append(n.ReadBy, accountID)
	return true, nil
}

func (s *MemoryStore) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var modified int64
	for _, n := range s.notifications {
		if n.RecipientID == recipientID && !n.ReadByAccount(recipientID) {
			n.ReadBy = append(n.ReadBy, recipientID)
			modified++
		}
	}
	return modified, nil
}

func (s *MemoryStore) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, n := range s.notifications {
		if n.RecipientID == recipientID && !n.ReadByAccount(recipientID) {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) DeleteNotification(ctx context.Context, id, recipientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok || n.RecipientID != recipientID {
		return fmt.Errorf("delete notification %s: %w", id, ErrNotFound)
	}
	delete(s.notifications, id)
	delete(s.notifySeq, id)
	return nil
}

func (s *MemoryStore) DeleteRead(ctx context.Context, recipientID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, n := range s.notifications {
		if n.RecipientID == recipientID && n.ReadByAccount(recipientID) {
			delete(s.notifications, id)
			delete(s.notifySeq, id)
			deleted++
		}
	}
	return deleted, nil
}

// Billing

func (s *MemoryStore) UpsertPackage(ctx context.Context, pkg *model.Package) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	c := *pkg
	c.Features = append(pq.StringArray{}, pkg.Features...)
	if existing, ok := s.packages[pkg.ID]; ok {
		c.CreatedAt = existing.CreatedAt
	} else {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	s.packages[pkg.ID] = &c
	return nil
}

func (s *MemoryStore) GetPackage(ctx context.Context, id string) (*model.Package, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pkg, ok := s.packages[id]
	if !ok {
		return nil, fmt.Errorf("get package %s: %w", id, ErrNotFound)
	}
	c := *pkg
	c.Features = append(pq.StringArray{}, pkg.Features...)
	return &c, nil
}

func (s *MemoryStore) ListPackages(ctx context.Context) ([]*model.Package, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Package, 0, len(s.packages))
	for _, pkg := range s.packages {
		c := *pkg
		c.Features = append(pq.StringArray{}, pkg.Features...)
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if cmp := out[i].Price.Cmp(out[j].Price); cmp != 0 {
			return cmp < 0
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) CreatePayment(ctx context.Context, payment *model.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.payments {
		if existing.SessionID == payment.SessionID {
			return fmt.Errorf("insert payment %s: %w", payment.SessionID, ErrDuplicate)
		}
	}
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	stamp(&payment.CreatedAt)
	c := *payment
	s.payments[payment.ID] = &c
	s.paymentSeq[payment.ID] = s.next()
	return nil
}

func (s *MemoryStore) GetPaymentBySession(ctx context.Context, sessionID string) (*model.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.payments {
		if p.SessionID == sessionID {
			c := *p
			return &c, nil
		}
	}
	return nil, fmt.Errorf("get payment %s: %w", sessionID, ErrNotFound)
}

func (s *MemoryStore) ListPayments(ctx context.Context, ownerEmail string) ([]*model.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*model.Payment{}
	for _, p := range s.payments {
		if p.OwnerEmail == ownerEmail {
			c := *p
			out = append(out, &c)
		}
	}
	newestFirst(out,
		func(p *model.Payment) time.Time { return p.CreatedAt },
		func(p *model.Payment) int64 { return s.paymentSeq[p.ID] })
	return out, nil
}
