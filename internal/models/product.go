package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductStatus is the availability state of a catalog item.
type ProductStatus string

const (
	ProductAvailable   ProductStatus = "available"
	ProductRented      ProductStatus = "rented"
	ProductSold        ProductStatus = "sold"
	ProductMaintenance ProductStatus = "maintenance"
)

// Valid reports whether s is a known product status.
func (s ProductStatus) Valid() bool {
	switch s {
	case ProductAvailable, ProductRented, ProductSold, ProductMaintenance:
		return true
	}
	return false
}

// Product represents a rentable and/or purchasable item in the catalog.
type Product struct {
	ID             string            `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name           string            `json:"name" gorm:"type:varchar(200);not null"`
	Slug           string            `json:"slug" gorm:"uniqueIndex;type:varchar(220);not null"`
	Description    string            `json:"description"`
	CategoryID     *string           `json:"category_id,omitempty" gorm:"type:varchar(36);index"`
	Category       *Category         `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	Images         []string          `json:"images" gorm:"serializer:json"`
	Status         ProductStatus     `json:"status" gorm:"type:varchar(20);not null;default:'available'"`
	PricePerHour   decimal.Decimal   `json:"price_per_hour" gorm:"type:decimal(12,2);not null;default:0"`
	PricePerDay    decimal.Decimal   `json:"price_per_day" gorm:"type:decimal(12,2);not null;default:0"`
	PricePerWeek   decimal.Decimal   `json:"price_per_week" gorm:"type:decimal(12,2);not null;default:0"`
	SalePrice      decimal.Decimal   `json:"sale_price" gorm:"type:decimal(12,2);not null;default:0"`
	Quantity       int               `json:"quantity" gorm:"not null;default:0"`
	IsRentable     bool              `json:"is_rentable" gorm:"not null"`
	IsPurchasable  bool              `json:"is_purchasable" gorm:"not null"`
	Specifications map[string]string `json:"specifications" gorm:"serializer:json"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
	DeletedAt      gorm.DeletedAt    `json:"-" gorm:"index"`
}

// UnitRate is the price charged per unit for one line. Dated lines and rentable
// items are charged by the day; undated purchasable items at the sale price.
func (p *Product) UnitRate(dated bool) decimal.Decimal {
	if !dated && p.IsPurchasable && p.SalePrice.IsPositive() {
		return p.SalePrice
	}
	return p.PricePerDay
}
