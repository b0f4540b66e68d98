package store

import (
	"context"

	"github.com/masumBillah-1/AssetVerse-Server-Site/internal/model"
	"gorm.io/gorm"
)

const notificationBatchSize = 500

// InsertNotifications bulk-inserts one row per recipient. Batches are not
// wrapped in a transaction so a failure can leave a prefix inserted.
func (s *PostgresStore) InsertNotifications(ctx context.Context, notifications []*model.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	db, done := s.withContext(ctx, "notification_insert")
	defer done()

	err := db.Session(&gorm.Session{SkipDefaultTransaction: true}).
		CreateInBatches(notifications, notificationBatchSize).Error
	return translate(err, "insert %d notifications", len(notifications))
}

// GetNotification loads a notification by id
func (s *PostgresStore) GetNotification(ctx context.Context, id string) (*model.Notification, error) {
	db, done := s.withContext(ctx, "notification_get")
	defer done()

	var n model.Notification
	if err := db.Where("id = ?", id).First(&n).Error; err != nil {
		return nil, translate(err, "get notification %s", id)
	}
	return &n, nil
}

// ListNotifications returns notifications matching filter newest first
func (s *PostgresStore) ListNotifications(ctx context.Context, filter NotificationFilter) ([]*model.Notification, error) {
	db, done := s.withContext(ctx, "notification_list")
	defer done()

	query := db.Model(&model.Notification{})
	if filter.RecipientID != "" {
		query = query.Where("recipient_id = ?", filter.RecipientID)
	}
	if filter.CompanyID != "" {
		query = query.Where("company_id = ?", filter.CompanyID)
	}

	var notifications []*model.Notification
	if err := query.Order("created_at DESC").Find(&notifications).Error; err != nil {
		return nil, translate(err, "list notifications")
	}
	return notifications, nil
}

// AddReader appends accountID to readBy unless already present
func (s *PostgresStore) AddReader(ctx context.Context, id, accountID string) (bool, error) {
	db, done := s.withContext(ctx, "notification_read")
	defer done()

	result := db.Model(&model.Notification{}).
		Where("id = ? AND NOT (? = ANY(COALESCE(read_by, "+emptyArray+")))", id, accountID).
		Update("read_by", gorm.Expr("array_append(COALESCE(read_by, "+emptyArray+"), ?)", accountID))
	if result.Error != nil {
		return false, translate(result.Error, "mark notification %s read", id)
	}
	return result.RowsAffected == 1, nil
}

// MarkAllRead adds recipientID to readBy on each of its unread notifications
func (s *PostgresStore) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	db, done := s.withContext(ctx, "notification_read_all")
	defer done()

	result := db.Model(&model.Notification{}).
		Where("recipient_id = ? AND NOT (? = ANY(COALESCE(read_by, "+emptyArray+")))", recipientID, recipientID).
		Update("read_by", gorm.Expr("array_append(COALESCE(read_by, "+emptyArray+"), ?)", recipientID))
	if result.Error != nil {
		return 0, translate(result.Error, "mark all read for %s", recipientID)
	}
	return result.RowsAffected, nil
}

// CountUnread counts recipientID's notifications it has not acknowledged
func (s *PostgresStore) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	db, done := s.withContext(ctx, "notification_count")
	defer done()

	var count int64
	err := db.Model(&model.Notification{}).
		Where("recipient_id = ? AND NOT (? = ANY(COALESCE(read_by, "+emptyArray+")))", recipientID, recipientID).
		Count(&count).Error
	if err != nil {
		return 0, translate(err, "count unread for %s", recipientID)
	}
	return count, nil
}

// DeleteNotification removes a notification owned by recipientID
func (s *PostgresStore) DeleteNotification(ctx context.Context, id, recipientID string) error {
	db, done := s.withContext(ctx, "notification_delete")
	defer done()

	result := db.Where("id = ? AND recipient_id = ?", id, recipientID).Delete(&model.Notification{})
	return requireRows(result, "delete notification %s", id)
}

// DeleteRead removes every notification recipientID has acknowledged
func (s *PostgresStore) DeleteRead(ctx context.Context, recipientID string) (int64, error) {
	db, done := s.withContext(ctx, "notification_delete")
	defer done()

	result := db.Where("recipient_id = ? AND ? = ANY(COALESCE(read_by, "+emptyArray+"))", recipientID, recipientID).
		Delete(&model.Notification{})
	if result.Error != nil {
		return 0, translate(result.Error, "clear read for %s", recipientID)
	}
	return result.RowsAffected, nil
}
