package repositories

import (
	"context"
	"fmt"

	"rentstore/internal/apperrors"
	"rentstore/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RentalRepository defines the interface for rental data access.
type RentalRepository interface {
	GetAll(ctx context.Context) ([]models.Rental, error)
	GetByUser(ctx context.Context, userID string) ([]models.Rental, error)
	GetByID(ctx context.Context, id string) (*models.Rental, error)
	Create(ctx context.Context, rental *models.Rental) error
	Update(ctx context.Context, rental *models.Rental) error
	UpdateStatus(ctx context.Context, id string, status models.RentalStatus) error
	UpdatePaymentStatus(ctx context.Context, id string, status models.PaymentStatus) error
	Delete(ctx context.Context, id string) error
}

// GORMRentalRepository is a GORM implementation of RentalRepository.
type GORMRentalRepository struct {
	db *gorm.DB
}

func NewGORMRentalRepository(db *gorm.DB) *GORMRentalRepository {
	return &GORMRentalRepository{db: db}
}

func (r *GORMRentalRepository) GetAll(ctx context.Context) ([]models.Rental, error) {
	var rentals []models.Rental
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&rentals).Error; err != nil {
		return nil, translate(err, "failed to get rentals")
	}
	return rentals, nil
}

func (r *GORMRentalRepository) GetByUser(ctx context.Context, userID string) ([]models.Rental, error) {
	var rentals []models.Rental
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&rentals).Error; err != nil {
		return nil, translate(err, "failed to get user rentals")
	}
	return rentals, nil
}

func (r *GORMRentalRepository) GetByID(ctx context.Context, id string) (*models.Rental, error) {
	var rental models.Rental
	if err := r.db.WithContext(ctx).First(&rental, "id = ?", id).Error; err != nil {
		return nil, translate(err, fmt.Sprintf("rental with ID %s", id))
	}
	return &rental, nil
}

func (r *GORMRentalRepository) Create(ctx context.Context, rental *models.Rental) error {
	if rental.ID == "" {
		rental.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(rental).Error; err != nil {
		return translate(err, "failed to create rental")
	}
	return nil
}

// Update writes the editable fields; status and payment status have their own operations.
func (r *GORMRentalRepository) Update(ctx context.Context, rental *models.Rental) error {
	return updateAll(r.db.WithContext(ctx), &models.Rental{}, rental.ID, rental, "rental", "Status", "PaymentStatus", "UserID")
}

func (r *GORMRentalRepository) UpdateStatus(ctx context.Context, id string, status models.RentalStatus) error {
	return r.updateColumn(ctx, id, "status", status)
}

func (r *GORMRentalRepository) UpdatePaymentStatus(ctx context.Context, id string, status models.PaymentStatus) error {
	return r.updateColumn(ctx, id, "payment_status", status)
}

func (r *GORMRentalRepository) updateColumn(ctx context.Context, id, column string, value any) error {
	res := r.db.WithContext(ctx).Model(&models.Rental{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return translate(res.Error, fmt.Sprintf("failed to update rental %s", column))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("rental with ID %s not found for update: %w", id, apperrors.ErrNotFound)
	}
	return nil
}

func (r *GORMRentalRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(r.db.WithContext(ctx), &models.Rental{}, id, "rental")
}
