package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Discount is a redeemable code; Name is the code customers enter.
type Discount struct {
	ID          string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name        string          `json:"name" gorm:"uniqueIndex;type:varchar(64);not null"`
	Description string          `json:"description"`
	Type        DiscountType    `json:"type" gorm:"type:varchar(20);not null"`
	Value       decimal.Decimal `json:"value" gorm:"type:decimal(12,2);not null"`
	StartDate   *time.Time      `json:"start_date,omitempty"`
	EndDate     *time.Time      `json:"end_date,omitempty"`
	IsActive    bool            `json:"is_active" gorm:"not null"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// WithinWindow reports whether now falls inside the optional start/end window.
func (d *Discount) WithinWindow(now time.Time) bool {
	if d.StartDate != nil && now.Before(*d.StartDate) {
		return false
	}
	if d.EndDate != nil && now.After(*d.EndDate) {
		return false
	}
	return true
}

// IsApplicableAt reports whether the discount can be redeemed at now.
func (d *Discount) IsApplicableAt(now time.Time) bool {
	return d.IsActive && d.WithinWindow(now)
}
