package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// NotificationType tags the event a notification was fanned out for
type NotificationType string

const (
	NotificationAssetAdded      NotificationType = "asset_added"
	NotificationAssetRequest    NotificationType = "asset_request"
	NotificationRequestApproved NotificationType = "request_approved"
)

// Notification is one recipient's copy of an event. An event with N
// recipients is stored as N rows.
type Notification struct {
	ID          string           `json:"id" gorm:"type:varchar(36);primaryKey"`
	RecipientID string           `json:"recipientId" gorm:"type:varchar(36);index;not null"`
	CompanyID   string           `json:"companyId" gorm:"type:varchar(36);index"`
	Type        NotificationType `json:"type" gorm:"type:varchar(40);not null"`
	Message     string           `json:"message" gorm:"type:text;not null"`
	RequestID   string           `json:"requestId,omitempty" gorm:"type:varchar(36)"`
	ItemID      string           `json:"assetId,omitempty" gorm:"type:varchar(36)"`
	ReadBy      pq.StringArray   `json:"readBy" gorm:"type:text[];default:'{}'"`
	CreatedAt   time.Time        `json:"createdAt" gorm:"index"`
}

// BeforeCreate assigns the store-generated id
func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}

// ReadByAccount reports whether accountID has acknowledged the notification
func (n *Notification) ReadByAccount(accountID string) bool {
	for _, id := range n.ReadBy {
		if id == accountID {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no slices with n
func (n *Notification) Clone() *Notification {
	c := *n
	c.ReadBy = append(pq.StringArray{}, n.ReadBy...)
	return &c
}
