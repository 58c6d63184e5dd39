package repositories

import (
	"context"
	"fmt"
	"time"

	"rentstore/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{db: db}
}

// Create creates a new user in the database.
func (r *GORMUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return translate(err, "failed to create user")
	}
	return nil
}

// GetByEmail retrieves a user by their email from the database.
func (r *GORMUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, translate(err, fmt.Sprintf("user with email %s", email))
	}
	return &user, nil
}

// GetByID retrieves a user by their ID from the database.
func (r *GORMUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err, fmt.Sprintf("user with ID %s", id))
	}
	return &user, nil
}

// Update writes every column of user, including a cleared reset code pair.
func (r *GORMUserRepository) Update(ctx context.Context, user *models.User) error {
	return updateAll(r.db.WithContext(ctx), &models.User{}, user.ID, user, "user")
}

func (r *GORMUserRepository) ClearExpiredResetCodes(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("reset_code_expiry IS NOT NULL AND reset_code_expiry < ?", now).
		Updates(map[string]any{"reset_code": nil, "reset_code_expiry": nil, "reset_attempts": 0})
	if res.Error != nil {
		return 0, translate(res.Error, "failed to clear expired reset codes")
	}
	return res.RowsAffected, nil
}
