package repositories

import (
	"context"
	"fmt"

	"rentstore/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DiscountRepository defines the interface for discount data access.
type DiscountRepository interface {
	GetAll(ctx context.Context) ([]models.Discount, error)
	GetByID(ctx context.Context, id string) (*models.Discount, error)
	// FindActiveByName matches the stored code exactly and only among active discounts.
	FindActiveByName(ctx context.Context, name string) (*models.Discount, error)
	Create(ctx context.Context, discount *models.Discount) error
	Update(ctx context.Context, discount *models.Discount) error
	Delete(ctx context.Context, id string) error
}

// GORMDiscountRepository is a GORM implementation of DiscountRepository.
type GORMDiscountRepository struct {
	db *gorm.DB
}

func NewGORMDiscountRepository(db *gorm.DB) *GORMDiscountRepository {
	return &GORMDiscountRepository{db: db}
}

func (r *GORMDiscountRepository) GetAll(ctx context.Context) ([]models.Discount, error) {
	var discounts []models.Discount
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&discounts).Error; err != nil {
		return nil, translate(err, "failed to get discounts")
	}
	return discounts, nil
}

func (r *GORMDiscountRepository) GetByID(ctx context.Context, id string) (*models.Discount, error) {
	var discount models.Discount
	if err := r.db.WithContext(ctx).First(&discount, "id = ?", id).Error; err != nil {
		return nil, translate(err, fmt.Sprintf("discount with ID %s", id))
	}
	return &discount, nil
}

func (r *GORMDiscountRepository) FindActiveByName(ctx context.Context, name string) (*models.Discount, error) {
	var discount models.Discount
	err := r.db.WithContext(ctx).
		Where("name = ? AND is_active = ?", name, true).
		First(&discount).Error
	if err != nil {
		return nil, translate(err, fmt.Sprintf("discount code %s", name))
	}
	return &discount, nil
}

func (r *GORMDiscountRepository) Create(ctx context.Context, discount *models.Discount) error {
	if discount.ID == "" {
		discount.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(discount).Error; err != nil {
		return translate(err, "failed to create discount")
	}
	return nil
}

func (r *GORMDiscountRepository) Update(ctx context.Context, discount *models.Discount) error {
	return updateAll(r.db.WithContext(ctx), &models.Discount{}, discount.ID, discount, "discount")
}

func (r *GORMDiscountRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(r.db.WithContext(ctx), &models.Discount{}, id, "discount")
}
