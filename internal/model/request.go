package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RequestStatus is the lifecycle state of an asset request
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
	RequestReturned RequestStatus = "returned"
)

// Valid reports whether s is a known status
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestPending, RequestApproved, RequestRejected, RequestReturned:
		return true
	}
	return false
}

// Request is a member's ask for one unit of an item. CompanyID is captured
// from the item at creation and never re-derived.
type Request struct {
	ID            string        `json:"id" gorm:"type:varchar(36);primaryKey"`
	EmployeeEmail string        `json:"requesterEmail" gorm:"type:varchar(255);index;not null"`
	EmployeeName  string        `json:"requesterName" gorm:"type:varchar(100)"`
	ItemID        string        `json:"assetId" gorm:"type:varchar(36);index;not null"`
	ItemName      string        `json:"assetName" gorm:"type:varchar(150)"`
	ItemType      string        `json:"assetType" gorm:"type:varchar(100)"`
	CompanyID     string        `json:"companyId" gorm:"type:varchar(36);index;not null"`
	Status        RequestStatus `json:"requestStatus" gorm:"type:varchar(20);index;not null"`
	Note          string        `json:"note,omitempty" gorm:"type:text"`
	CreatedAt     time.Time     `json:"requestDate" gorm:"index"`
	ApprovedAt    *time.Time    `json:"approvalDate,omitempty"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// BeforeCreate assigns the store-generated id
func (r *Request) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// RequestPatch is a partial update; nil fields are left untouched
type RequestPatch struct {
	Status *RequestStatus `json:"requestStatus"`
	Note   *string        `json:"note"`
}

// Empty reports whether the patch changes nothing
func (p RequestPatch) Empty() bool {
	return p.Status == nil && p.Note == nil
}
