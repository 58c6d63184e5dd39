package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItem represents a single line within an order. Dates are absent for undated lines.
type OrderItem struct {
	ID          string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID     string          `json:"order_id" gorm:"type:varchar(36);index;not null"`
	ProductID   string          `json:"product_id" gorm:"type:varchar(36);index;not null"`
	ProductName string          `json:"product_name" gorm:"type:varchar(200)"`
	UnitRate    decimal.Decimal `json:"unit_rate" gorm:"type:decimal(12,2);not null"`
	Quantity    int             `json:"quantity" gorm:"not null"`
	StartDate   *time.Time      `json:"start_date,omitempty"`
	EndDate     *time.Time      `json:"end_date,omitempty"`
	Days        int             `json:"days" gorm:"not null;default:1"`
	TotalPrice  decimal.Decimal `json:"total_price" gorm:"type:decimal(12,2);not null"`
}

// Order represents a customer checkout. Total always equals Subtotal - DiscountAmount.
type Order struct {
	ID                  string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderNumber         string          `json:"order_number" gorm:"uniqueIndex;type:varchar(40);not null"`
	UserID              string          `json:"user_id" gorm:"type:varchar(36);index;not null"`
	Items               []OrderItem     `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Subtotal            decimal.Decimal `json:"subtotal" gorm:"type:decimal(12,2);not null"`
	DiscountCode        string          `json:"discount_code,omitempty" gorm:"type:varchar(64)"`
	DiscountAmount      decimal.Decimal `json:"discount_amount" gorm:"type:decimal(12,2);not null;default:0"`
	Total               decimal.Decimal `json:"total" gorm:"type:decimal(12,2);not null"`
	Status              OrderStatus     `json:"status" gorm:"type:varchar(20);not null;default:'pending'"`
	DeliveryAddress     string          `json:"delivery_address"`
	ContactPhone        string          `json:"contact_phone" gorm:"type:varchar(32)"`
	Notes               string          `json:"notes"`
	NotificationChannel Channel         `json:"notification_channel" gorm:"type:varchar(20)"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}
