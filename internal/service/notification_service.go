package service

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/masumBillah-1/AssetVerse-Server-Site/internal/model"
	"github.com/masumBillah-1/AssetVerse-Server-Site/internal/store"
	"github.com/masumBillah-1/AssetVerse-Server-Site/pkg/logger"
	"github.com/masumBillah-1/AssetVerse-Server-Site/prometheus"
	"go.uber.org/zap"
)

// Event is something that happened in a tenant and is worth telling people
type Event struct {
	TenantID  string
	Type      model.NotificationType
	Message   string
	RequestID string
	ItemID    string
}

// NotificationView is a notification annotated with the viewer's read state
type NotificationView struct {
	*model.Notification
	Read bool `json:"read"`
}

// NotificationStat is one notification's line in the tenant analytics
type NotificationStat struct {
	ID          string                 `json:"id"`
	Type        model.NotificationType `json:"type"`
	Message     string                 `json:"message"`
	RecipientID string                 `json:"recipientId"`
	CreatedAt   time.Time              `json:"createdAt"`
	ReadCount   int                    `json:"readCount"`
	Readers     []model.AccountProfile `json:"readers"`
}

// TenantAnalytics aggregates read state over every notification of a tenant
type TenantAnalytics struct {
	TotalNotifications int                `json:"totalNotifications"`
	TotalReads         int                `json:"totalReads"`
	AverageReads       float64            `json:"averageReads"`
	UnreadByAll        int                `json:"unreadByAll"`
	Notifications      []NotificationStat `json:"notifications"`
}

// NotificationService fans events out into per-recipient records and
// manages their read state
type NotificationService struct {
	directory     *DirectoryService
	notifications store.NotificationStore
	accounts      store.AccountStore
	logger        *zap.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(
	directory *DirectoryService,
	notifications store.NotificationStore,
	accounts store.AccountStore,
	logger *zap.Logger,
) *NotificationService {
	return &NotificationService{
		directory:     directory,
		notifications: notifications,
		accounts:      accounts,
		logger:        logger,
	}
}

// FanOut delivers event to the owner and every member of its tenant
func (s *NotificationService) FanOut(ctx context.Context, event Event) (int, error) {
	recipients, err := s.directory.ListMembersOfTenant(ctx, event.TenantID)
	if err != nil {
		return 0, fmt.Errorf("resolve recipients: %w", err)
	}
	return s.Deliver(ctx, event, recipients)
}

// Deliver writes one notification per recipient in a single bulk insert
func (s *NotificationService) Deliver(ctx context.Context, event Event, recipients []*model.Account) (int, error) {
	if len(recipients) == 0 {
		return 0, nil
	}

	now := time.Now()
	records := make([]*model.Notification, 0, len(recipients))
	for _, r := range recipients {
		records = append(records, &model.Notification{
			RecipientID: r.ID,
			CompanyID:   event.TenantID,
			Type:        event.Type,
			Message:     event.Message,
			RequestID:   event.RequestID,
			ItemID:      event.ItemID,
			ReadBy:      pq.StringArray{},
			CreatedAt:   now,
		})
	}

	if err := s.notifications.InsertNotifications(ctx, records); err != nil {
		return 0, fmt.Errorf("insert notifications: %w", err)
	}

	prometheus.RecordFanOut(string(event.Type), len(records))
	logger.FromContextOr(ctx, s.logger).Debug("Notifications fanned out",
		zap.String("tenant_id", event.TenantID),
		zap.String("type", string(event.Type)),
		zap.Int("recipients", len(records)))
	return len(records), nil
}

// ListForRecipient returns accountID's notifications newest first
func (s *NotificationService) ListForRecipient(ctx context.Context, accountID string) ([]NotificationView, error) {
	records, err := s.notifications.ListNotifications(ctx, store.NotificationFilter{RecipientID: accountID})
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	views := make([]NotificationView, 0, len(records))
	for _, n := range records {
		views = append(views, NotificationView{Notification: n, Read: n.ReadByAccount(accountID)})
	}
	return views, nil
}

// MarkRead acknowledges a notification for its recipient. A notification
// that belongs to someone else is reported as not found.
func (s *NotificationService) MarkRead(ctx context.Context, notificationID, accountID string) (alreadyRead bool, err error) {
	n, err := s.notifications.GetNotification(ctx, notificationID)
	if err != nil {
		return false, notFound(err, "notification")
	}
	if n.RecipientID != accountID {
		return false, fmt.Errorf("notification %s: %w", notificationID, ErrNotFound)
	}
	if n.ReadByAccount(accountID) {
		return true, nil
	}

	added, err := s.notifications.AddReader(ctx, notificationID, accountID)
	if err != nil {
		return false, fmt.Errorf("mark read: %w", err)
	}
	return !added, nil
}

// MarkAllRead acknowledges every unread notification of accountID
func (s *NotificationService) MarkAllRead(ctx context.Context, accountID string) (int64, error) {
	modified, err := s.notifications.MarkAllRead(ctx, accountID)
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	return modified, nil
}

// UnreadCount counts accountID's unacknowledged notifications
func (s *NotificationService) UnreadCount(ctx context.Context, accountID string) (int64, error) {
	count, err := s.notifications.CountUnread(ctx, accountID)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return count, nil
}

// DeleteOwn deletes a notification addressed to accountID
func (s *NotificationService) DeleteOwn(ctx context.Context, notificationID, accountID string) error {
	if err := s.notifications.DeleteNotification(ctx, notificationID, accountID); err != nil {
		return notFound(err, "delete notification")
	}
	return nil
}

// ClearRead deletes every notification accountID has acknowledged
func (s *NotificationService) ClearRead(ctx context.Context, accountID string) (int64, error) {
	deleted, err := s.notifications.DeleteRead(ctx, accountID)
	if err != nil {
		return 0, fmt.Errorf("clear read: %w", err)
	}
	return deleted, nil
}

// TenantAnalytics aggregates every notification of tenantID regardless of
// recipient
func (s *NotificationService) TenantAnalytics(ctx context.Context, tenantID string) (*TenantAnalytics, error) {
	records, err := s.notifications.ListNotifications(ctx, store.NotificationFilter{CompanyID: tenantID})
	if err != nil {
		return nil, fmt.Errorf("list tenant notifications: %w", err)
	}

	readerIDs := []string{}
	seen := map[string]bool{}
	for _, n := range records {
		for _, id := range n.ReadBy {
			if !seen[id] {
				seen[id] = true
				readerIDs = append(readerIDs, id)
			}
		}
	}
	readers, err := s.accounts.GetAccountsByIDs(ctx, readerIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve readers: %w", err)
	}
	profiles := make(map[string]model.AccountProfile, len(readers))
	for _, a := range readers {
		profiles[a.ID] = a.Profile()
	}

	result := &TenantAnalytics{Notifications: make([]NotificationStat, 0, len(records))}
	for _, n := range records {
		stat := NotificationStat{
			ID:          n.ID,
			Type:        n.Type,
			Message:     n.Message,
			RecipientID: n.RecipientID,
			CreatedAt:   n.CreatedAt,
			ReadCount:   len(n.ReadBy),
			Readers:     make([]model.AccountProfile, 0, len(n.ReadBy)),
		}
		for _, id := range n.ReadBy {
			if p, ok := profiles[id]; ok {
				stat.Readers = append(stat.Readers, p)
			}
		}
		result.TotalReads += stat.ReadCount
		if stat.ReadCount == 0 {
			result.UnreadByAll++
		}
		result.Notifications = append(result.Notifications, stat)
	}
	result.TotalNotifications = len(records)
	if result.TotalNotifications > 0 {
		result.AverageReads = float64(result.TotalReads) / float64(result.TotalNotifications)
	}
	return result, nil
}
