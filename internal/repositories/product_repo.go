package repositories

import (
	"context"

	"rentstore/internal/models"
)

// ProductFilter narrows catalog listings. Zero values match everything.
type ProductFilter struct {
	CategorySlug string
	Status       models.ProductStatus
	RentableOnly bool
}

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	GetAll(ctx context.Context, filter ProductFilter) ([]models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	GetBySlug(ctx context.Context, slug string) (*models.Product, error)
	SlugExists(ctx context.Context, slug, excludeID string) (bool, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error
}
