package services_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"rentstore/internal/apperrors"
	"rentstore/internal/models"
	"rentstore/internal/repositories"
	"rentstore/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type orderFixture struct {
	orders    *repositories.MockOrderRepository
	products  *repositories.MockProductRepository
	users     *MockUserRepository
	discounts *MockDiscountRepository
	notifier  *MockNotifier
	svc       *services.OrderService
	drill     *models.Product
	ladder    *models.Product
	user      *models.User
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	ctx := context.Background()
	f := &orderFixture{
		orders:    repositories.NewMockOrderRepository(),
		products:  repositories.NewMockProductRepository(),
		users:     new(MockUserRepository),
		discounts: new(MockDiscountRepository),
		notifier:  new(MockNotifier),
	}
	f.drill = &models.Product{Name: "Drill", PricePerDay: decimal.NewFromInt(5000), IsRentable: true, Status: models.ProductAvailable}
	f.ladder = &models.Product{Name: "Ladder", PricePerDay: decimal.NewFromInt(1000), SalePrice: decimal.NewFromInt(20000), IsPurchasable: true, Status: models.ProductAvailable}
	require.NoError(t, f.products.Create(ctx, f.drill))
	require.NoError(t, f.products.Create(ctx, f.ladder))

	f.user = &models.User{ID: "user-1", Email: "buyer@example.com", WhatsAppPhone: "87011112233", PreferredChannel: models.ChannelMessaging}
	f.users.On("GetByID", mock.Anything, "user-1").Return(f.user, nil)

	f.svc = services.NewOrderService(f.orders, f.products, f.users, services.NewDiscountService(f.discounts), f.notifier)
	f.svc.SetClock(fixedClock(time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)))
	return f
}

func dates(days int) (*time.Time, *time.Time) {
	start := time.Date(2024, 6, 2, 10, 0, 0, 0, time.UTC)
	end := start.Add(time.Duration(days) * 24 * time.Hour)
	return &start, &end
}

func TestOrderService_CreateOrder(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	start, end := dates(3)
	f.discounts.On("FindActiveByName", mock.Anything, "SAVE10").
		Return(&models.Discount{Name: "SAVE10", Type: models.DiscountPercentage, Value: decimal.NewFromInt(10), IsActive: true}, nil)
	f.notifier.On("EnqueueOrderConfirmation", mock.Anything, mock.AnythingOfType("*models.Order"), models.ChannelMessaging, "87011112233").
		Return(nil).Once()

	order, err := f.svc.CreateOrder(ctx, services.CreateOrderInput{
		UserID: "user-1",
		Items: []services.OrderItemInput{
			{ProductID: f.drill.ID, Quantity: 2, StartDate: start, EndDate: end},
			{ProductID: f.ladder.ID, Quantity: 1},
		},
		DiscountCode:    "save10",
		DeliveryAddress: " Almaty ",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, order.ID)
	assert.Regexp(t, regexp.MustCompile(`^ORD-20240601093000-[A-HJ-NP-Z2-9]{4}$`), order.OrderNumber)
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, "Almaty", order.DeliveryAddress)
	assert.Equal(t, models.ChannelMessaging, order.NotificationChannel)
	assert.Equal(t, "SAVE10", order.DiscountCode)

	require.Len(t, order.Items, 2)
	assert.Equal(t, 3, order.Items[0].Days)
	assert.True(t, decimal.NewFromInt(30000).Equal(order.Items[0].TotalPrice))
	assert.Equal(t, 1, order.Items[1].Days)
	assert.True(t, decimal.NewFromInt(20000).Equal(order.Items[1].UnitRate), "undated purchasable line uses the sale price")

	assert.True(t, decimal.NewFromInt(50000).Equal(order.Subtotal))
	assert.True(t, decimal.NewFromInt(5000).Equal(order.DiscountAmount))
	assert.True(t, decimal.NewFromInt(45000).Equal(order.Total))
	assert.True(t, order.Total.Equal(order.Subtotal.Sub(order.DiscountAmount)))

	stored, err := f.orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Items, 2)
	f.notifier.AssertExpectations(t)
}

func TestOrderService_CreateOrder_NotificationFailureDoesNotFailOrder(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	f.notifier.On("EnqueueOrderConfirmation", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("smtp exploded")).Once()

	order, err := f.svc.CreateOrder(ctx, services.CreateOrderInput{
		UserID:  "user-1",
		Items:   []services.OrderItemInput{{ProductID: f.drill.ID, Quantity: 1}},
		Channel: models.ChannelEmail,
	})

	require.NoError(t, err)
	require.NotNil(t, order)
	_, err = f.orders.GetByID(ctx, order.ID)
	assert.NoError(t, err)
	f.notifier.AssertExpectations(t)
}

func TestOrderService_CreateOrder_Validation(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	start, end := dates(2)

	tests := []struct {
		name string
		in   services.CreateOrderInput
		want error
	}{
		{"empty cart", services.CreateOrderInput{UserID: "user-1"}, apperrors.ErrValidation},
		{"zero quantity", services.CreateOrderInput{UserID: "user-1", Items: []services.OrderItemInput{{ProductID: f.drill.ID}}}, apperrors.ErrValidation},
		{"end before start", services.CreateOrderInput{UserID: "user-1", Items: []services.OrderItemInput{{ProductID: f.drill.ID, Quantity: 1, StartDate: end, EndDate: start}}}, apperrors.ErrValidation},
		{"half range", services.CreateOrderInput{UserID: "user-1", Items: []services.OrderItemInput{{ProductID: f.drill.ID, Quantity: 1, StartDate: start}}}, apperrors.ErrValidation},
		{"renting a sale-only item", services.CreateOrderInput{UserID: "user-1", Items: []services.OrderItemInput{{ProductID: f.ladder.ID, Quantity: 1, StartDate: start, EndDate: end}}}, apperrors.ErrValidation},
		{"unknown product", services.CreateOrderInput{UserID: "user-1", Items: []services.OrderItemInput{{ProductID: "nope", Quantity: 1}}}, apperrors.ErrNotFound},
		{"bad channel", services.CreateOrderInput{UserID: "user-1", Channel: "pigeon", Items: []services.OrderItemInput{{ProductID: f.drill.ID, Quantity: 1}}}, apperrors.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order, err := f.svc.CreateOrder(ctx, tt.in)
			assert.Nil(t, order)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	all, err := f.orders.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	f.notifier.AssertNotCalled(t, "EnqueueOrderConfirmation", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderService_CreateOrder_DiscountErrorsPropagate(t *testing.T) {
	f := newOrderFixture(t)
	past := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	f.discounts.On("FindActiveByName", mock.Anything, "GONE").
		Return(&models.Discount{Name: "GONE", IsActive: true, EndDate: &past}, nil)

	_, err := f.svc.CreateOrder(context.Background(), services.CreateOrderInput{
		UserID:       "user-1",
		Items:        []services.OrderItemInput{{ProductID: f.drill.ID, Quantity: 1}},
		DiscountCode: "gone",
	})

	assert.ErrorIs(t, err, apperrors.ErrNotApplicable)
}

func TestOrderService_CreateOrder_PersistenceFailure(t *testing.T) {
	f := newOrderFixture(t)
	f.orders.FailCreate = errors.New("disk full")

	order, err := f.svc.CreateOrder(context.Background(), services.CreateOrderInput{
		UserID: "user-1",
		Items:  []services.OrderItemInput{{ProductID: f.drill.ID, Quantity: 1}},
	})

	assert.Nil(t, order)
	assert.ErrorIs(t, err, apperrors.ErrPersistence)
	f.notifier.AssertNotCalled(t, "EnqueueOrderConfirmation", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderService_CreateOrder_FixedDiscountClamped(t *testing.T) {
	f := newOrderFixture(t)
	cheap := &models.Product{Name: "Gloves", PricePerDay: decimal.NewFromInt(3000), IsRentable: true}
	require.NoError(t, f.products.Create(context.Background(), cheap))
	f.discounts.On("FindActiveByName", mock.Anything, "BIG").
		Return(&models.Discount{Name: "BIG", Type: models.DiscountFixed, Value: decimal.NewFromInt(5000), IsActive: true}, nil)
	f.notifier.On("EnqueueOrderConfirmation", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	order, err := f.svc.CreateOrder(context.Background(), services.CreateOrderInput{
		UserID:       "user-1",
		Items:        []services.OrderItemInput{{ProductID: cheap.ID, Quantity: 1}},
		DiscountCode: "BIG",
	})

	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(3000).Equal(order.DiscountAmount))
	assert.True(t, order.Total.IsZero())
}

func TestOrderService_UpdateOrderStatus(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	f.notifier.On("EnqueueOrderConfirmation", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	order, err := f.svc.CreateOrder(ctx, services.CreateOrderInput{
		UserID: "user-1",
		Items:  []services.OrderItemInput{{ProductID: f.drill.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	updated, err := f.svc.UpdateOrderStatus(ctx, order.ID, models.OrderProcessing)
	require.NoError(t, err)
	assert.Equal(t, models.OrderProcessing, updated.Status)

	_, err = f.svc.UpdateOrderStatus(ctx, order.ID, models.OrderPending)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	_, err = f.svc.UpdateOrderStatus(ctx, order.ID, "lost")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = f.svc.UpdateOrderStatus(ctx, "missing", models.OrderShipped)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	require.NoError(t, f.svc.DeleteOrder(ctx, order.ID))
	_, err = f.svc.GetOrderByID(ctx, order.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
