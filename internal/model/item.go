package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReturnType is an item's return policy
type ReturnType string

const (
	Returnable    ReturnType = "returnable"
	NonReturnable ReturnType = "non-returnable"
)

// ItemStatusAvailable is the status of every newly added item
const ItemStatusAvailable = "available"

// Creator is the denormalized snapshot of whoever added an item
type Creator struct {
	AccountID string `json:"accountId" gorm:"type:varchar(36)"`
	Name      string `json:"name" gorm:"type:varchar(100)"`
	Email     string `json:"email" gorm:"type:varchar(255)"`
}

// Item is a tenant-owned inventory line
type Item struct {
	ID          string     `json:"id" gorm:"type:varchar(36);primaryKey"`
	Name        string     `json:"productName" gorm:"type:varchar(150);not null"`
	Type        string     `json:"productType" gorm:"type:varchar(100)"`
	Image       string     `json:"productImage,omitempty" gorm:"type:text"`
	Quantity    int        `json:"productQuantity"`
	ReturnType  ReturnType `json:"returnType" gorm:"type:varchar(20);index"`
	Status      string     `json:"status" gorm:"type:varchar(20);default:'available'"`
	CompanyID   string     `json:"companyId" gorm:"type:varchar(36);index;not null"`
	CompanyName string     `json:"companyName,omitempty" gorm:"type:varchar(150)"`
	CreatedBy   Creator    `json:"createdBy" gorm:"embedded;embeddedPrefix:creator_"`

	CreatedAt time.Time      `json:"createdAt" gorm:"index"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// BeforeCreate assigns the store-generated id
func (i *Item) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

// ItemPatch is a partial update; nil fields are left untouched
type ItemPatch struct {
	Name       *string     `json:"productName"`
	Type       *string     `json:"productType"`
	Image      *string     `json:"productImage"`
	Quantity   *int        `json:"productQuantity" validate:"omitempty,min=0"`
	ReturnType *ReturnType `json:"returnType" validate:"omitempty,oneof=returnable non-returnable"`
	Status     *string     `json:"status"`
}

// Empty reports whether the patch changes nothing
func (p ItemPatch) Empty() bool {
	return p.Name == nil && p.Type == nil && p.Image == nil &&
		p.Quantity == nil && p.ReturnType == nil && p.Status == nil
}

// Apply copies the set fields onto item
func (p ItemPatch) Apply(item *Item) {
	if p.Name != nil {
		item.Name = *p.Name
	}
	if p.Type != nil {
		item.Type = *p.Type
	}
	if p.Image != nil {
		item.Image = *p.Image
	}
	if p.Quantity != nil {
		item.Quantity = *p.Quantity
	}
	if p.ReturnType != nil {
		item.ReturnType = *p.ReturnType
	}
	if p.Status != nil {
		item.Status = *p.Status
	}
}

// Columns returns the patch as a column map for an UPDATE
func (p ItemPatch) Columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if p.Name != nil {
		cols["name"] = *p.Name
	}
	if p.Type != nil {
		cols["type"] = *p.Type
	}
	if p.Image != nil {
		cols["image"] = *p.Image
	}
	if p.Quantity != nil {
		cols["quantity"] = *p.Quantity
	}
	if p.ReturnType != nil {
		cols["return_type"] = string(*p.ReturnType)
	}
	if p.Status != nil {
		cols["status"] = *p.Status
	}
	return cols
}
