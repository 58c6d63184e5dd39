package repositories

import (
	"context"
	"fmt"

	"rentstore/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationRepository stores the notification outbox.
type NotificationRepository interface {
	Create(ctx context.Context, task *models.NotificationTask) error
	GetByID(ctx context.Context, id string) (*models.NotificationTask, error)
	Update(ctx context.Context, task *models.NotificationTask) error
	// ListRetryable returns failed tasks that have been attempted fewer than maxAttempts times.
	ListRetryable(ctx context.Context, maxAttempts int) ([]models.NotificationTask, error)
}

type GORMNotificationRepository struct {
	db *gorm.DB
}

func NewGORMNotificationRepository(db *gorm.DB) *GORMNotificationRepository {
	return &GORMNotificationRepository{db: db}
}

func (r *GORMNotificationRepository) Create(ctx context.Context, task *models.NotificationTask) error {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return translate(err, "failed to create notification task")
	}
	return nil
}

func (r *GORMNotificationRepository) GetByID(ctx context.Context, id string) (*models.NotificationTask, error) {
	var task models.NotificationTask
	if err := r.db.WithContext(ctx).First(&task, "id = ?", id).Error; err != nil {
		return nil, translate(err, fmt.Sprintf("notification task %s", id))
	}
	return &task, nil
}

func (r *GORMNotificationRepository) Update(ctx context.Context, task *models.NotificationTask) error {
	return updateAll(r.db.WithContext(ctx), &models.NotificationTask{}, task.ID, task, "notification task")
}

func (r *GORMNotificationRepository) ListRetryable(ctx context.Context, maxAttempts int) ([]models.NotificationTask, error) {
	var tasks []models.NotificationTask
	err := r.db.WithContext(ctx).
		Where("status = ? AND attempts < ?", models.TaskFailed, maxAttempts).
		Order("updated_at ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, translate(err, "failed to list retryable notification tasks")
	}
	return tasks, nil
}
