package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/masumBillah-1/AssetVerse-Server-Site/internal/model"
	"github.com/masumBillah-1/AssetVerse-Server-Site/internal/store"
	"github.com/masumBillah-1/AssetVerse-Server-Site/pkg/logger"
	"github.com/masumBillah-1/AssetVerse-Server-Site/prometheus"
	"go.uber.org/zap"
)

// RequestInput describes a member's request for an item
type RequestInput struct {
	ItemID string
	Note   string
}

// ApproveResult is the state left behind by an approval
type ApproveResult struct {
	Request          *model.Request `json:"request"`
	CurrentEmployees int            `json:"currentEmployees"`
	PackageLimit     int            `json:"packageLimit"`
	ItemQuantity     int            `json:"assetQuantity"`
	AlreadyApproved  bool           `json:"alreadyApproved"`
}

// RequestService runs the request/approval workflow
type RequestService struct {
	directory     *DirectoryService
	inventory     *InventoryService
	notifications *NotificationService
	requests      store.RequestStore
	accounts      store.AccountStore
	logger        *zap.Logger
}

// NewRequestService creates a new request service
func NewRequestService(
	directory *DirectoryService,
	inventory *InventoryService,
	notifications *NotificationService,
	requests store.RequestStore,
	accounts store.AccountStore,
	logger *zap.Logger,
) *RequestService {
	return &RequestService{
		directory:     directory,
		inventory:     inventory,
		notifications: notifications,
		requests:      requests,
		accounts:      accounts,
		logger:        logger,
	}
}

// CreateRequest records a pending request and notifies the item's tenant
// owner, and only the owner
func (s *RequestService) CreateRequest(ctx context.Context, employeeEmail string, in RequestInput) (*model.Request, error) {
	in.ItemID = strings.TrimSpace(in.ItemID)
	if in.ItemID == "" {
		return nil, validationf("assetId is required")
	}

	employee, err := s.directory.GetAccountByEmail(ctx, employeeEmail)
	if err != nil {
		return nil, err
	}
	item, err := s.inventory.GetItem(ctx, in.ItemID)
	if err != nil {
		return nil, err
	}

	request := &model.Request{
		EmployeeEmail: employee.Email,
		EmployeeName:  employee.Name,
		ItemID:        item.ID,
		ItemName:      item.Name,
		ItemType:      item.Type,
		CompanyID:     item.CompanyID,
		Status:        model.RequestPending,
		Note:          in.Note,
		CreatedAt:     time.Now(),
	}
	if err := s.requests.CreateRequest(ctx, request); err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	owner, err := s.directory.GetOwner(ctx, item.CompanyID)
	if err != nil {
		return nil, err
	}
	if _, err := s.notifications.Deliver(ctx, Event{
		TenantID:  item.CompanyID,
		Type:      model.NotificationAssetRequest,
		Message:   fmt.Sprintf("%s requested %q", employee.Name, item.Name),
		RequestID: request.ID,
		ItemID:    item.ID,
	}, []*model.Account{owner}); err != nil {
		return nil, fmt.Errorf("notify owner: %w", err)
	}

	logger.FromContextOr(ctx, s.logger).Info("Asset requested",
		zap.String("request_id", request.ID),
		zap.String("item_id", item.ID),
		zap.String("tenant_id", item.CompanyID))
	return request, nil
}

// GetRequestInTenant loads a request and reports it missing when it belongs
// to another tenant
func (s *RequestService) GetRequestInTenant(ctx context.Context, tenantID, id string) (*model.Request, error) {
	request, err := s.requests.GetRequest(ctx, id)
	if err != nil {
		return nil, notFound(err, "request")
	}
	if request.CompanyID != tenantID {
		return nil, fmt.Errorf("request %s: %w", id, ErrNotFound)
	}
	return request, nil
}

// ApproveForOwner approves a request of ownerID's tenant
func (s *RequestService) ApproveForOwner(ctx context.Context, ownerID, requestID string) (*ApproveResult, error) {
	if _, err := s.GetRequestInTenant(ctx, ownerID, requestID); err != nil {
		return nil, err
	}
	return s.Approve(ctx, requestID)
}

// Approve moves a pending request to approved after the capacity gate.
// Side effects are separate writes: status, affiliation, decrement and the
// member recount.
func (s *RequestService) Approve(ctx context.Context, requestID string) (*ApproveResult, error) {
	log := logger.FromContextOr(ctx, s.logger)

	request, err := s.requests.GetRequest(ctx, requestID)
	if err != nil {
		return nil, notFound(err, "request")
	}
	member, err := s.directory.GetAccountByEmail(ctx, request.EmployeeEmail)
	if err != nil {
		return nil, fmt.Errorf("requesting member: %w", err)
	}
	item, err := s.inventory.GetItem(ctx, request.ItemID)
	if err != nil {
		return nil, fmt.Errorf("requested item: %w", err)
	}
	owner, err := s.directory.GetOwner(ctx, item.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("tenant owner: %w", err)
	}

	switch request.Status {
	case model.RequestApproved:
		prometheus.RecordApproval("already_approved")
		return &ApproveResult{
			Request:          request,
			CurrentEmployees: owner.CurrentEmployees,
			PackageLimit:     owner.PackageLimit,
			ItemQuantity:     item.Quantity,
			AlreadyApproved:  true,
		}, nil
	case model.RequestPending:
	default:
		return nil, validationf("request is %s", request.Status)
	}

	if owner.CurrentEmployees >= owner.PackageLimit {
		prometheus.RecordApproval("limit_reached")
		log.Info("Approval blocked by employee limit",
			zap.String("request_id", requestID),
			zap.String("tenant_id", owner.ID),
			zap.Int("current", owner.CurrentEmployees),
			zap.Int("limit", owner.PackageLimit))
		return nil, &LimitReachedError{Current: owner.CurrentEmployees, Limit: owner.PackageLimit}
	}

	now := time.Now()
	if err := s.requests.MarkApproved(ctx, requestID, now); err != nil {
		return nil, notFound(err, "approve request")
	}
	if err := s.accounts.AddAffiliation(ctx, member.ID, owner.ID); err != nil {
		return nil, notFound(err, "affiliate member")
	}
	qty, err := s.inventory.DecrementQuantity(ctx, item.ID, 1)
	if err != nil {
		return nil, err
	}
	count, err := s.directory.RecountMembers(ctx, owner.ID)
	if err != nil {
		return nil, err
	}

	if _, err := s.notifications.Deliver(ctx, Event{
		TenantID:  owner.ID,
		Type:      model.NotificationRequestApproved,
		Message:   fmt.Sprintf("Your request for %q was approved", item.Name),
		RequestID: request.ID,
		ItemID:    item.ID,
	}, []*model.Account{member}); err != nil {
		log.Warn("Failed to notify member of approval",
			zap.String("request_id", requestID),
			zap.Error(err))
	}

	request.Status = model.RequestApproved
	request.ApprovedAt = &now
	prometheus.RecordApproval("approved")
	log.Info("Request approved",
		zap.String("request_id", requestID),
		zap.String("tenant_id", owner.ID),
		zap.String("member_id", member.ID),
		zap.Int("current_employees", count))

	return &ApproveResult{
		Request:          request,
		CurrentEmployees: count,
		PackageLimit:     owner.PackageLimit,
		ItemQuantity:     qty,
	}, nil
}

// ListRequests returns requests newest first
func (s *RequestService) ListRequests(ctx context.Context, filter store.RequestFilter) ([]*model.Request, error) {
	requests, err := s.requests.ListRequests(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	return requests, nil
}

// UpdateRequest applies a field patch, e.g. marking an item returned. A
// request only becomes approved through Approve, and an approved request can
// only move on to returned.
func (s *RequestService) UpdateRequest(ctx context.Context, id string, patch model.RequestPatch) (*model.Request, error) {
	if patch.Empty() {
		return nil, validationf("nothing to update")
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return nil, validationf("unknown requestStatus %q", *patch.Status)
		}
		if *patch.Status == model.RequestApproved {
			return nil, validationf("use approve to approve a request")
		}
	}

	current, err := s.requests.GetRequest(ctx, id)
	if err != nil {
		return nil, notFound(err, "request")
	}
	if patch.Status != nil && !statusChangeAllowed(current.Status, *patch.Status) {
		return nil, validationf("request is %s and cannot become %s", current.Status, *patch.Status)
	}

	request, err := s.requests.UpdateRequest(ctx, id, patch)
	if err != nil {
		return nil, notFound(err, "update request")
	}
	return request, nil
}

func statusChangeAllowed(from, to model.RequestStatus) bool {
	if from == to {
		return true
	}
	switch from {
	case model.RequestPending:
		return to == model.RequestRejected
	case model.RequestApproved:
		return to == model.RequestReturned
	}
	return false
}

// PendingCount counts pending requests of tenantID, or of every tenant when
// tenantID is empty
func (s *RequestService) PendingCount(ctx context.Context, tenantID string) (int64, error) {
	return s.count(ctx, tenantID, model.RequestPending)
}

// ApprovedCount counts approved requests of tenantID, or of every tenant
// when tenantID is empty
func (s *RequestService) ApprovedCount(ctx context.Context, tenantID string) (int64, error) {
	return s.count(ctx, tenantID, model.RequestApproved)
}

func (s *RequestService) count(ctx context.Context, tenantID string, status model.RequestStatus) (int64, error) {
	n, err := s.requests.CountRequests(ctx, store.RequestFilter{CompanyID: tenantID, Status: status})
	if err != nil {
		return 0, fmt.Errorf("count %s requests: %w", status, err)
	}
	return n, nil
}

// IsLimitReached reports whether err carries a LimitReachedError
func IsLimitReached(err error) (*LimitReachedError, bool) {
	var limit *LimitReachedError
	ok := errors.As(err, &limit)
	return limit, ok
}
