package repositories_test

import (
	"context"
	"testing"
	"time"

	"rentstore/internal/apperrors"
	"rentstore/internal/config"
	"rentstore/internal/models"
	"rentstore/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repositories.Open(config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	})
	require.NoError(t, err)
	require.NoError(t, repositories.AutoMigrate(db))
	return db
}

func TestOrderRepository_CreateAndGetWithItems(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewGORMOrderRepository(newTestDB(t))

	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(72 * time.Hour)
	order := &models.Order{
		OrderNumber: "ORD-1",
		UserID:      "user-1",
		Subtotal:    decimal.NewFromInt(30000),
		Total:       decimal.NewFromInt(30000),
		Status:      models.OrderPending,
		Items: []models.OrderItem{{
			ProductID:  "prod-1",
			UnitRate:   decimal.NewFromInt(5000),
			Quantity:   2,
			StartDate:  &start,
			EndDate:    &end,
			Days:       3,
			TotalPrice: decimal.NewFromInt(30000),
		}},
	}
	require.NoError(t, repo.Create(ctx, order))
	assert.NotEmpty(t, order.ID)

	got, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, order.ID, got.Items[0].OrderID)
	assert.True(t, got.Total.Equal(decimal.NewFromInt(30000)))

	duplicate := &models.Order{OrderNumber: "ORD-1", UserID: "user-2"}
	err = repo.Create(ctx, duplicate)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	require.NoError(t, repo.Delete(ctx, order.ID))
	_, err = repo.GetByID(ctx, order.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDiscountRepository_FindActiveByName(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewGORMDiscountRepository(newTestDB(t))

	require.NoError(t, repo.Create(ctx, &models.Discount{Name: "SPRING10", Type: models.DiscountPercentage, Value: decimal.NewFromInt(10), IsActive: true}))
	off := &models.Discount{Name: "OFF", Type: models.DiscountFixed, Value: decimal.NewFromInt(100), IsActive: false}
	require.NoError(t, repo.Create(ctx, off))
	stored, err := repo.GetByID(ctx, off.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive, "inactive flag survives insert")

	found, err := repo.FindActiveByName(ctx, "SPRING10")
	require.NoError(t, err)
	assert.Equal(t, models.DiscountPercentage, found.Type)

	found.IsActive = false
	require.NoError(t, repo.Update(ctx, found))
	_, err = repo.FindActiveByName(ctx, "SPRING10")
	assert.ErrorIs(t, err, apperrors.ErrNotFound, "deactivated by update")

	_, err = repo.FindActiveByName(ctx, "spring10")
	assert.ErrorIs(t, err, apperrors.ErrNotFound, "lookup is exact")

	_, err = repo.FindActiveByName(ctx, "OFF")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestProductRepository_UpdateMissingIsNotFound(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewGORMProductRepository(newTestDB(t))

	err := repo.Update(ctx, &models.Product{ID: "missing", Name: "Drill", Slug: "drill"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	p := &models.Product{Name: "Drill", Slug: "drill", Status: models.ProductAvailable, PricePerDay: decimal.NewFromInt(1500)}
	require.NoError(t, repo.Create(ctx, p))
	exists, err := repo.SlugExists(ctx, "drill", "")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = repo.SlugExists(ctx, "drill", p.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestProductRepository_KeepsFalseFlagsOnCreate(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewGORMProductRepository(newTestDB(t))

	saleOnly := &models.Product{Name: "Gloves", Slug: "gloves", Status: models.ProductAvailable, IsRentable: false, IsPurchasable: true}
	require.NoError(t, repo.Create(ctx, saleOnly))
	require.NoError(t, repo.Create(ctx, &models.Product{Name: "Drill", Slug: "drill", Status: models.ProductAvailable, IsRentable: true}))

	got, err := repo.GetByID(ctx, saleOnly.ID)
	require.NoError(t, err)
	assert.False(t, got.IsRentable)
	assert.True(t, got.IsPurchasable)

	rentable, err := repo.GetAll(ctx, repositories.ProductFilter{RentableOnly: true})
	require.NoError(t, err)
	require.Len(t, rentable, 1)
	assert.Equal(t, "Drill", rentable[0].Name)
}

func TestProductRepository_FilterByCategory(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	categories := repositories.NewGORMCategoryRepository(db)
	products := repositories.NewGORMProductRepository(db)

	tools := &models.Category{Name: "Tools", Slug: "tools"}
	require.NoError(t, categories.Create(ctx, tools))
	require.NoError(t, products.Create(ctx, &models.Product{Name: "Drill", Slug: "drill", CategoryID: &tools.ID, Status: models.ProductAvailable}))
	require.NoError(t, products.Create(ctx, &models.Product{Name: "Tent", Slug: "tent", Status: models.ProductAvailable}))

	list, err := products.GetAll(ctx, repositories.ProductFilter{CategorySlug: "tools"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Drill", list[0].Name)
	require.NotNil(t, list[0].Category)
	assert.Equal(t, "Tools", list[0].Category.Name)

	require.NoError(t, categories.Delete(ctx, tools.ID))
	drill, err := products.GetBySlug(ctx, "drill")
	require.NoError(t, err)
	assert.Nil(t, drill.CategoryID)
}

func TestRentalRepository_StatusColumns(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewGORMRentalRepository(newTestDB(t))

	rental := &models.Rental{
		UserID:        "user-1",
		ProductID:     "prod-1",
		StartDate:     time.Now(),
		EndDate:       time.Now().Add(48 * time.Hour),
		RentalPrice:   decimal.NewFromInt(3000),
		TotalPrice:    decimal.NewFromInt(3000),
		Status:        models.RentalPending,
		PaymentStatus: models.PaymentPending,
	}
	require.NoError(t, repo.Create(ctx, rental))
	require.NoError(t, repo.UpdatePaymentStatus(ctx, rental.ID, models.PaymentPaid))

	rental.Notes = "deliver before noon"
	rental.Status = models.RentalCompleted
	require.NoError(t, repo.Update(ctx, rental))

	got, err := repo.GetByID(ctx, rental.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, got.PaymentStatus)
	assert.Equal(t, models.RentalPending, got.Status, "general update leaves status alone")
	assert.Equal(t, "deliver before noon", got.Notes)

	assert.ErrorIs(t, repo.UpdateStatus(ctx, "missing", models.RentalActive), apperrors.ErrNotFound)
}

func TestUserRepository_ClearExpiredResetCodes(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewGORMUserRepository(newTestDB(t))

	code := "123456"
	expired := time.Now().Add(-time.Hour)
	fresh := time.Now().Add(time.Hour)
	a := &models.User{Email: "a@example.com", Password: "x", ResetCode: &code, ResetCodeExpiry: &expired}
	b := &models.User{Email: "b@example.com", Password: "x", ResetCode: &code, ResetCodeExpiry: &fresh}
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	n, err := repo.ClearExpiredResetCodes(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	gotA, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, gotA.ResetCode)
	assert.Nil(t, gotA.ResetCodeExpiry)

	gotB, err := repo.GetByEmail(ctx, "b@example.com")
	require.NoError(t, err)
	assert.NotNil(t, gotB.ResetCode)
	assert.NotNil(t, gotB.ResetCodeExpiry)

	err = repo.Create(ctx, &models.User{Email: "a@example.com", Password: "y"})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestNotificationRepository_ListRetryable(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewGORMNotificationRepository(newTestDB(t))

	tasks := []*models.NotificationTask{
		{Kind: models.TaskKindOrderConfirmation, Channel: models.ChannelEmail, Destination: "a@x", Status: models.TaskFailed, Attempts: 1},
		{Kind: models.TaskKindOrderConfirmation, Channel: models.ChannelEmail, Destination: "b@x", Status: models.TaskFailed, Attempts: 5},
		{Kind: models.TaskKindOrderConfirmation, Channel: models.ChannelEmail, Destination: "c@x", Status: models.TaskSent, Attempts: 1},
	}
	for _, task := range tasks {
		require.NoError(t, repo.Create(ctx, task))
	}

	retryable, err := repo.ListRetryable(ctx, 5)
	require.NoError(t, err)
	require.Len(t, retryable, 1)
	assert.Equal(t, "a@x", retryable[0].Destination)
}
