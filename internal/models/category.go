package models

import "time"

// Category groups products in the catalog.
type Category struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name         string    `json:"name" gorm:"type:varchar(120);not null"`
	Slug         string    `json:"slug" gorm:"uniqueIndex;type:varchar(140);not null"`
	Description  string    `json:"description"`
	Image        string    `json:"image"`
	DisplayOrder int       `json:"display_order" gorm:"not null;default:0"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
