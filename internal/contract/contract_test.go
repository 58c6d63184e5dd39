package contract_test

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentstore/internal/apperrors"
	"rentstore/internal/config"
	"rentstore/internal/contract"
	"rentstore/internal/models"
)

func sampleOrder(items int) *models.Order {
	start := time.Date(2024, 6, 2, 10, 0, 0, 0, time.UTC)
	end := start.Add(72 * time.Hour)
	order := &models.Order{
		ID:              "order-1",
		OrderNumber:     "ORD-20240601093000-ABCD",
		DeliveryAddress: "Almaty, Abay ave. 1",
		Subtotal:        decimal.NewFromInt(30000),
		DiscountCode:    "SAVE10",
		DiscountAmount:  decimal.NewFromInt(3000),
		Total:           decimal.NewFromInt(27000),
		CreatedAt:       time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC),
	}
	for i := 0; i < items; i++ {
		order.Items = append(order.Items, models.OrderItem{
			ProductName: fmt.Sprintf("Rotary hammer drill with a very long catalog name number %d", i),
			UnitRate:    decimal.NewFromInt(5000),
			Quantity:    2,
			StartDate:   &start,
			EndDate:     &end,
			Days:        3,
			TotalPrice:  decimal.NewFromInt(30000),
		})
	}
	return order
}

func newBuilder(at time.Time) *contract.Builder {
	b := contract.NewBuilder(config.CompanyConfig{Name: "Rentstore LLP", Address: "Almaty", Phone: "+7 727 000 00 00"})
	b.SetClock(func() time.Time { return at })
	return b
}

func TestRender_IsDeterministicWithinADay(t *testing.T) {
	customer := &models.User{Email: "buyer@example.com", FirstName: "Aru", LastName: "Sadykova"}
	order := sampleOrder(1)

	morning, err := newBuilder(time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC)).Render(order, customer)
	require.NoError(t, err)
	evening, err := newBuilder(time.Date(2024, 6, 3, 20, 15, 0, 0, time.UTC)).Render(order, customer)
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(morning, []byte("%PDF")))
	assert.Equal(t, morning, evening)

	nextDay, err := newBuilder(time.Date(2024, 6, 4, 8, 0, 0, 0, time.UTC)).Render(order, customer)
	require.NoError(t, err)
	assert.NotEqual(t, morning, nextDay)
}

func TestRender_PaginatesLongOrders(t *testing.T) {
	customer := &models.User{Email: "buyer@example.com"}
	short, err := newBuilder(time.Now()).Render(sampleOrder(1), customer)
	require.NoError(t, err)
	long, err := newBuilder(time.Now()).Render(sampleOrder(80), customer)
	require.NoError(t, err)

	assert.Greater(t, bytes.Count(long, []byte("/Type /Page\n")), bytes.Count(short, []byte("/Type /Page\n")))
}

func TestRender_RequiresCustomer(t *testing.T) {
	_, err := newBuilder(time.Now()).Render(sampleOrder(1), nil)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "contract-ORD-1.pdf", contract.FileName(&models.Order{OrderNumber: "ORD-1"}))
}
