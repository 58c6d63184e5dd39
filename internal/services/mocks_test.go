package services_test

import (
	"context"
	"io"
	"os"
	"testing"
	"time"

	"rentstore/internal/logger"
	"rentstore/internal/models"
	"rentstore/internal/notify"

	"github.com/stretchr/testify/mock"
)

// TestMain silences logging during tests.
func TestMain(m *testing.M) {
	logger.InitializeWithWriter(io.Discard, "error", "text")
	os.Exit(m.Run())
}

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	if user.ID == "" {
		user.ID = "user-new"
	}
	return args.Error(0)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) ClearExpiredResetCodes(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

// MockDiscountRepository is a mock implementation of repositories.DiscountRepository
type MockDiscountRepository struct {
	mock.Mock
}

func (m *MockDiscountRepository) GetAll(ctx context.Context) ([]models.Discount, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Discount), args.Error(1)
}

func (m *MockDiscountRepository) GetByID(ctx context.Context, id string) (*models.Discount, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Discount), args.Error(1)
}

func (m *MockDiscountRepository) FindActiveByName(ctx context.Context, name string) (*models.Discount, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Discount), args.Error(1)
}

func (m *MockDiscountRepository) Create(ctx context.Context, discount *models.Discount) error {
	return m.Called(ctx, discount).Error(0)
}

func (m *MockDiscountRepository) Update(ctx context.Context, discount *models.Discount) error {
	return m.Called(ctx, discount).Error(0)
}

func (m *MockDiscountRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// MockNotificationRepository is a mock implementation of repositories.NotificationRepository
type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) Create(ctx context.Context, task *models.NotificationTask) error {
	args := m.Called(ctx, task)
	if task.ID == "" {
		task.ID = "task-1"
	}
	return args.Error(0)
}

func (m *MockNotificationRepository) GetByID(ctx context.Context, id string) (*models.NotificationTask, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.NotificationTask), args.Error(1)
}

func (m *MockNotificationRepository) Update(ctx context.Context, task *models.NotificationTask) error {
	return m.Called(ctx, task).Error(0)
}

func (m *MockNotificationRepository) ListRetryable(ctx context.Context, maxAttempts int) ([]models.NotificationTask, error) {
	args := m.Called(ctx, maxAttempts)
	return args.Get(0).([]models.NotificationTask), args.Error(1)
}

// MockRentalRepository is a mock implementation of repositories.RentalRepository
type MockRentalRepository struct {
	mock.Mock
}

func (m *MockRentalRepository) GetAll(ctx context.Context) ([]models.Rental, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Rental), args.Error(1)
}

func (m *MockRentalRepository) GetByUser(ctx context.Context, userID string) ([]models.Rental, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.Rental), args.Error(1)
}

func (m *MockRentalRepository) GetByID(ctx context.Context, id string) (*models.Rental, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Rental), args.Error(1)
}

func (m *MockRentalRepository) Create(ctx context.Context, rental *models.Rental) error {
	return m.Called(ctx, rental).Error(0)
}

func (m *MockRentalRepository) Update(ctx context.Context, rental *models.Rental) error {
	return m.Called(ctx, rental).Error(0)
}

func (m *MockRentalRepository) UpdateStatus(ctx context.Context, id string, status models.RentalStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *MockRentalRepository) UpdatePaymentStatus(ctx context.Context, id string, status models.PaymentStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *MockRentalRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// MockSender is a mock implementation of notify.Sender
type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, msg notify.Message) (notify.Result, error) {
	args := m.Called(ctx, msg)
	return args.Get(0).(notify.Result), args.Error(1)
}

// MockTaskQueue is a mock implementation of services.TaskQueue
type MockTaskQueue struct {
	mock.Mock
}

func (m *MockTaskQueue) Enqueue(ctx context.Context, taskID string) error {
	return m.Called(ctx, taskID).Error(0)
}

// MockNotifier is a mock implementation of services.OrderNotifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) EnqueueOrderConfirmation(ctx context.Context, order *models.Order, channel models.Channel, destination string) error {
	return m.Called(ctx, order, channel, destination).Error(0)
}
