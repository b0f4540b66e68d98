package store

import (
	"context"
	"fmt"
	"time"

	"github.com/masumBillah-1/AssetVerse-Server-Site/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateItem inserts a new item
func (s *PostgresStore) CreateItem(ctx context.Context, item *model.Item) error {
	db, done := s.withContext(ctx, "item_create")
	defer done()

	return translate(db.Create(item).Error, "insert item %s", item.Name)
}

// GetItem loads an item by id
func (s *PostgresStore) GetItem(ctx context.Context, id string) (*model.Item, error) {
	db, done := s.withContext(ctx, "item_get")
	defer done()

	var item model.Item
	if err := db.Where("id = ?", id).First(&item).Error; err != nil {
		return nil, translate(err, "get item %s", id)
	}
	return &item, nil
}

// ListItems returns items matching filter newest first
func (s *PostgresStore) ListItems(ctx context.Context, filter ItemFilter) ([]*model.Item, error) {
	db, done := s.withContext(ctx, "item_list")
	defer done()

	query := db.Model(&model.Item{})
	if filter.CompanyID != "" {
		query = query.Where("company_id = ?", filter.CompanyID)
	}
	if filter.ReturnType != "" {
		query = query.Where("return_type = ?", filter.ReturnType)
	}

	var items []*model.Item
	if err := query.Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, translate(err, "list items")
	}
	return items, nil
}

// UpdateItem applies patch and returns the updated item
func (s *PostgresStore) UpdateItem(ctx context.Context, id string, patch model.ItemPatch) (*model.Item, error) {
	db, done := s.withContext(ctx, "item_update")
	defer done()

	var item model.Item
	result := db.Model(&item).
		Clauses(clause.Returning{}).
		Where("id = ?", id).
		Updates(patch.Columns())
	if err := requireRows(result, "update item %s", id); err != nil {
		return nil, err
	}
	return &item, nil
}

// DecrementQuantity subtracts by from the item's quantity. No floor is
// applied; callers decide what a negative result means.
func (s *PostgresStore) DecrementQuantity(ctx context.Context, id string, by int) (int, error) {
	db, done := s.withContext(ctx, "item_decrement")
	defer done()

	var item model.Item
	result := db.Model(&item).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "quantity"}}}).
		Where("id = ?", id).
		Update("quantity", gorm.Expr("quantity - ?", by))
	if err := requireRows(result, "decrement item %s", id); err != nil {
		return 0, err
	}
	return item.Quantity, nil
}

// DeleteItem soft-deletes an item
func (s *PostgresStore) DeleteItem(ctx context.Context, id string) error {
	db, done := s.withContext(ctx, "item_delete")
	defer done()

	return requireRows(db.Where("id = ?", id).Delete(&model.Item{}), "delete item %s", id)
}

// CreateRequest inserts a new request
func (s *PostgresStore) CreateRequest(ctx context.Context, request *model.Request) error {
	db, done := s.withContext(ctx, "request_create")
	defer done()

	return translate(db.Create(request).Error, "insert request for item %s", request.ItemID)
}

// GetRequest loads a request by id
func (s *PostgresStore) GetRequest(ctx context.Context, id string) (*model.Request, error) {
	db, done := s.withContext(ctx, "request_get")
	defer done()

	var request model.Request
	if err := db.Where("id = ?", id).First(&request).Error; err != nil {
		return nil, translate(err, "get request %s", id)
	}
	return &request, nil
}

func requestQuery(db *gorm.DB, filter RequestFilter) *gorm.DB {
	query := db.Model(&model.Request{})
	if filter.EmployeeEmail != "" {
		query = query.Where("employee_email = ?", filter.EmployeeEmail)
	}
	if filter.CompanyID != "" {
		query = query.Where("company_id = ?", filter.CompanyID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	return query
}

// ListRequests returns requests matching filter newest first
func (s *PostgresStore) ListRequests(ctx context.Context, filter RequestFilter) ([]*model.Request, error) {
	db, done := s.withContext(ctx, "request_list")
	defer done()

	var requests []*model.Request
	if err := requestQuery(db, filter).Order("created_at DESC").Find(&requests).Error; err != nil {
		return nil, translate(err, "list requests")
	}
	return requests, nil
}

// UpdateRequest applies patch and returns the updated request
func (s *PostgresStore) UpdateRequest(ctx context.Context, id string, patch model.RequestPatch) (*model.Request, error) {
	db, done := s.withContext(ctx, "request_update")
	defer done()

	cols := map[string]interface{}{}
	if patch.Status != nil {
		cols["status"] = string(*patch.Status)
	}
	if patch.Note != nil {
		cols["note"] = *patch.Note
	}

	var request model.Request
	result := db.Model(&request).Clauses(clause.Returning{}).Where("id = ?", id).Updates(cols)
	if err := requireRows(result, "update request %s", id); err != nil {
		return nil, err
	}
	return &request, nil
}

// MarkApproved moves a request to approved with its approval timestamp
func (s *PostgresStore) MarkApproved(ctx context.Context, id string, at time.Time) error {
	db, done := s.withContext(ctx, "request_approve")
	defer done()

	result := db.Model(&model.Request{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":      string(model.RequestApproved),
		"approved_at": at,
	})
	return requireRows(result, "approve request %s", id)
}

// CountRequests counts requests matching filter
func (s *PostgresStore) CountRequests(ctx context.Context, filter RequestFilter) (int64, error) {
	db, done := s.withContext(ctx, "request_count")
	defer done()

	var count int64
	if err := requestQuery(db, filter).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count requests: %w", err)
	}
	return count, nil
}
