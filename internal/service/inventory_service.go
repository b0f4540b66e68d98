package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/masumBillah-1/AssetVerse-Server-Site/internal/model"
	"github.com/masumBillah-1/AssetVerse-Server-Site/internal/store"
	"github.com/masumBillah-1/AssetVerse-Server-Site/pkg/logger"
	"github.com/masumBillah-1/AssetVerse-Server-Site/prometheus"
	"go.uber.org/zap"
)

// ItemInput describes an item to add
type ItemInput struct {
	Name       string
	Type       string
	Image      string
	Quantity   int
	ReturnType model.ReturnType
}

// AddItemResult reports the created item and how many notifications the
// fan-out wrote
type AddItemResult struct {
	Item     *model.Item `json:"asset"`
	Notified int         `json:"notified"`
}

// InventoryService manages tenant inventory
type InventoryService struct {
	directory     *DirectoryService
	notifications *NotificationService
	items         store.ItemStore
	logger        *zap.Logger
}

// NewInventoryService creates a new inventory service
func NewInventoryService(
	directory *DirectoryService,
	notifications *NotificationService,
	items store.ItemStore,
	logger *zap.Logger,
) *InventoryService {
	return &InventoryService{
		directory:     directory,
		notifications: notifications,
		items:         items,
		logger:        logger,
	}
}

func validReturnType(rt model.ReturnType) bool {
	return rt == model.Returnable || rt == model.NonReturnable
}

// AddItem stores an item under the creator's tenant and tells everyone in
// that tenant about it
func (s *InventoryService) AddItem(ctx context.Context, in ItemInput, creatorEmail string) (*AddItemResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, validationf("productName is required")
	}
	if in.Quantity < 0 {
		return nil, validationf("productQuantity must not be negative")
	}
	if in.ReturnType == "" {
		in.ReturnType = model.Returnable
	}
	if !validReturnType(in.ReturnType) {
		return nil, validationf("unknown returnType %q", in.ReturnType)
	}

	creator, err := s.directory.GetAccountByEmail(ctx, creatorEmail)
	if err != nil {
		return nil, err
	}
	tenantID, err := ResolveTenantID(creator)
	if err != nil {
		return nil, err
	}
	owner := creator
	if !creator.IsOwner() {
		if owner, err = s.directory.GetOwner(ctx, tenantID); err != nil {
			return nil, err
		}
	}

	item := &model.Item{
		Name:        in.Name,
		Type:        in.Type,
		Image:       in.Image,
		Quantity:    in.Quantity,
		ReturnType:  in.ReturnType,
		Status:      model.ItemStatusAvailable,
		CompanyID:   tenantID,
		CompanyName: owner.CompanyName,
		CreatedBy: model.Creator{
			AccountID: creator.ID,
			Name:      creator.Name,
			Email:     creator.Email,
		},
		CreatedAt: time.Now(),
	}
	if err := s.items.CreateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}

	notified, err := s.notifications.FanOut(ctx, Event{
		TenantID: tenantID,
		Type:     model.NotificationAssetAdded,
		Message:  fmt.Sprintf("New asset %q was added by %s", item.Name, creator.Name),
		ItemID:   item.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("notify asset added: %w", err)
	}

	logger.FromContextOr(ctx, s.logger).Info("Asset added",
		zap.String("item_id", item.ID),
		zap.String("tenant_id", tenantID),
		zap.Int("notified", notified))
	return &AddItemResult{Item: item, Notified: notified}, nil
}

// ListItems returns items newest first
func (s *InventoryService) ListItems(ctx context.Context, filter store.ItemFilter) ([]*model.Item, error) {
	if filter.ReturnType != "" && !validReturnType(filter.ReturnType) {
		return nil, validationf("unknown returnType %q", filter.ReturnType)
	}
	items, err := s.items.ListItems(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

// GetItem loads an item by id
func (s *InventoryService) GetItem(ctx context.Context, id string) (*model.Item, error) {
	item, err := s.items.GetItem(ctx, id)
	if err != nil {
		return nil, notFound(err, "item")
	}
	return item, nil
}

// GetItemInTenant loads an item and reports it missing when it belongs to
// another tenant
func (s *InventoryService) GetItemInTenant(ctx context.Context, tenantID, id string) (*model.Item, error) {
	item, err := s.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.CompanyID != tenantID {
		return nil, fmt.Errorf("item %s: %w", id, ErrNotFound)
	}
	return item, nil
}

// DecrementQuantity subtracts by from the item's quantity. A result below
// zero is allowed but logged.
func (s *InventoryService) DecrementQuantity(ctx context.Context, id string, by int) (int, error) {
	if by < 1 {
		return 0, validationf("decrement must be positive")
	}
	qty, err := s.items.DecrementQuantity(ctx, id, by)
	if err != nil {
		return 0, notFound(err, "decrement item")
	}
	if qty < 0 {
		prometheus.RecordNegativeInventory()
		logger.FromContextOr(ctx, s.logger).Warn("Item quantity went negative",
			zap.String("item_id", id),
			zap.Int("quantity", qty))
	}
	return qty, nil
}

// UpdateItem applies a field patch
func (s *InventoryService) UpdateItem(ctx context.Context, id string, patch model.ItemPatch) (*model.Item, error) {
	if patch.Empty() {
		return nil, validationf("nothing to update")
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, validationf("productName must not be empty")
	}
	if patch.Quantity != nil && *patch.Quantity < 0 {
		return nil, validationf("productQuantity must not be negative")
	}
	if patch.ReturnType != nil && !validReturnType(*patch.ReturnType) {
		return nil, validationf("unknown returnType %q", *patch.ReturnType)
	}

	item, err := s.items.UpdateItem(ctx, id, patch)
	if err != nil {
		return nil, notFound(err, "update item")
	}
	return item, nil
}

// DeleteItem removes an item
func (s *InventoryService) DeleteItem(ctx context.Context, id string) error {
	if err := s.items.DeleteItem(ctx, id); err != nil {
		return notFound(err, "delete item")
	}
	logger.FromContextOr(ctx, s.logger).Info("Asset deleted", zap.String("item_id", id))
	return nil
}
