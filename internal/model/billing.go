package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentStatusPaid is the status recorded for a completed checkout
const PaymentStatusPaid = "paid"

// Package is a subscription tier definition
type Package struct {
	ID            string          `json:"id" gorm:"type:varchar(50);primaryKey"`
	Name          string          `json:"name" gorm:"type:varchar(100);not null"`
	EmployeeLimit int             `json:"employeeLimit" gorm:"not null"`
	Price         decimal.Decimal `json:"price" gorm:"type:numeric(12,2);not null"`
	Features      pq.StringArray  `json:"features" gorm:"type:text[]"`
	CreatedAt     time.Time       `json:"-"`
	UpdatedAt     time.Time       `json:"-"`
}

// Payment is the ledger line for one completed checkout session
type Payment struct {
	ID          string          `json:"id" gorm:"type:varchar(36);primaryKey"`
	SessionID   string          `json:"sessionId" gorm:"type:varchar(255);uniqueIndex;not null"`
	OwnerEmail  string          `json:"hrEmail" gorm:"type:varchar(255);index;not null"`
	PackageID   string          `json:"packageId" gorm:"type:varchar(50);not null"`
	PackageName string          `json:"packageName" gorm:"type:varchar(100)"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:numeric(12,2);not null"`
	Currency    string          `json:"currency" gorm:"type:varchar(10)"`
	Status      string          `json:"status" gorm:"type:varchar(20)"`
	CreatedAt   time.Time       `json:"paymentDate" gorm:"index"`
}

// BeforeCreate assigns the store-generated id
func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
