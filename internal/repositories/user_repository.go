package repositories

import (
	"context"
	"time"

	"rentstore/internal/models"
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	// ClearExpiredResetCodes nulls reset code and expiry for every code that expired before now.
	ClearExpiredResetCodes(ctx context.Context, now time.Time) (int64, error)
}
