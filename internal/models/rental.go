package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Rental is a single-product reservation outside the cart/order flow.
type Rental struct {
	ID             string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID         string          `json:"user_id" gorm:"type:varchar(36);index;not null"`
	ProductID      string          `json:"product_id" gorm:"type:varchar(36);index;not null"`
	StartDate      time.Time       `json:"start_date" gorm:"not null"`
	EndDate        time.Time       `json:"end_date" gorm:"not null"`
	RentalPrice    decimal.Decimal `json:"rental_price" gorm:"type:decimal(12,2);not null"`
	DiscountAmount decimal.Decimal `json:"discount_amount" gorm:"type:decimal(12,2);not null;default:0"`
	TotalPrice     decimal.Decimal `json:"total_price" gorm:"type:decimal(12,2);not null"`
	Status         RentalStatus    `json:"status" gorm:"type:varchar(20);not null;default:'pending'"`
	PaymentStatus  PaymentStatus   `json:"payment_status" gorm:"type:varchar(20);not null;default:'pending'"`
	Notes          string          `json:"notes"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
