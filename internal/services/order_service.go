package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"rentstore/internal/apperrors"
	"rentstore/internal/logger"
	"rentstore/internal/models"
	"rentstore/internal/pricing"
	"rentstore/internal/repositories"
)

// orderNumberAttempts bounds regeneration when an order number collides with an existing one.
const orderNumberAttempts = 3

// OrderNotifier schedules the confirmation for a persisted order.
type OrderNotifier interface {
	EnqueueOrderConfirmation(ctx context.Context, order *models.Order, channel models.Channel, destination string) error
}

// OrderItemInput is one requested line. Dates are optional but must be given together.
type OrderItemInput struct {
	ProductID string
	Quantity  int
	StartDate *time.Time
	EndDate   *time.Time
}

// CreateOrderInput is everything checkout needs. An empty Channel falls back to the user's
// preferred channel.
type CreateOrderInput struct {
	UserID          string
	Items           []OrderItemInput
	DiscountCode    string
	DeliveryAddress string
	ContactPhone    string
	Notes           string
	Channel         models.Channel
}

// OrderService handles business logic related to orders.
type OrderService struct {
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	userRepo    repositories.UserRepository
	discounts   *DiscountService
	notifier    OrderNotifier
	now         func() time.Time
	log         *slog.Logger
}

// NewOrderService creates a new OrderService.
func NewOrderService(
	orderRepo repositories.OrderRepository,
	productRepo repositories.ProductRepository,
	userRepo repositories.UserRepository,
	discounts *DiscountService,
	notifier OrderNotifier,
) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		discounts:   discounts,
		notifier:    notifier,
		now:         time.Now,
		log:         logger.WithService("orders"),
	}
}

// SetClock replaces the time source used for order numbers.
func (s *OrderService) SetClock(now func() time.Time) {
	s.now = now
}

// CreateOrder prices the requested lines, persists the order with its items and schedules the
// confirmation. Once the order is stored, notification problems are logged and never returned.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	if in.UserID == "" {
		return nil, fmt.Errorf("user is required: %w", apperrors.ErrValidation)
	}
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("cart is empty: %w", apperrors.ErrValidation)
	}

	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	channel := in.Channel
	if channel == "" {
		channel = user.PreferredChannel
	}
	if channel == "" {
		channel = models.ChannelEmail
	}
	if !channel.Valid() {
		return nil, fmt.Errorf("unknown notification channel %q: %w", channel, apperrors.ErrValidation)
	}

	items, lines, err := s.buildItems(ctx, in.Items)
	if err != nil {
		return nil, err
	}

	var discount *models.Discount
	code := NormalizeCode(in.DiscountCode)
	if code != "" {
		if discount, err = s.discounts.FindActiveByCode(ctx, code); err != nil {
			return nil, err
		}
	}

	quote := pricing.Quote(lines, discount)
	if quote.Total.IsNegative() {
		return nil, fmt.Errorf("order total is negative: %w", apperrors.ErrValidation)
	}
	if discount == nil {
		code = ""
	}

	order := &models.Order{
		UserID:              in.UserID,
		Items:               items,
		Subtotal:            quote.Subtotal,
		DiscountCode:        code,
		DiscountAmount:      quote.DiscountAmount,
		Total:               quote.Total,
		Status:              models.OrderPending,
		DeliveryAddress:     strings.TrimSpace(in.DeliveryAddress),
		ContactPhone:        strings.TrimSpace(in.ContactPhone),
		Notes:               in.Notes,
		NotificationChannel: channel,
	}
	if err := s.persist(ctx, order); err != nil {
		return nil, err
	}

	s.log.Info("order created", "order_id", order.ID, "order_number", order.OrderNumber, "total", order.Total.StringFixed(2))

	if err := s.notifier.EnqueueOrderConfirmation(ctx, order, channel, user.Destination(channel)); err != nil {
		s.log.Error("failed to schedule order confirmation", "order_id", order.ID, "error", err)
	}
	return order, nil
}

func (s *OrderService) buildItems(ctx context.Context, requested []OrderItemInput) ([]models.OrderItem, []pricing.Line, error) {
	items := make([]models.OrderItem, 0, len(requested))
	lines := make([]pricing.Line, 0, len(requested))

	for _, r := range requested {
		if r.Quantity < 1 {
			return nil, nil, fmt.Errorf("quantity for product %s must be at least 1: %w", r.ProductID, apperrors.ErrValidation)
		}
		if (r.StartDate == nil) != (r.EndDate == nil) {
			return nil, nil, fmt.Errorf("start and end dates for product %s must be set together: %w", r.ProductID, apperrors.ErrValidation)
		}
		dated := r.StartDate != nil
		if dated && r.EndDate.Before(*r.StartDate) {
			return nil, nil, fmt.Errorf("end date is before start date for product %s: %w", r.ProductID, apperrors.ErrValidation)
		}

		product, err := s.productRepo.GetByID(ctx, r.ProductID)
		if err != nil {
			return nil, nil, err
		}
		if dated && !product.IsRentable {
			return nil, nil, fmt.Errorf("product %s cannot be rented: %w", product.Name, apperrors.ErrValidation)
		}

		line := pricing.Line{
			Rate:      product.UnitRate(dated),
			Quantity:  r.Quantity,
			StartDate: r.StartDate,
			EndDate:   r.EndDate,
		}
		lines = append(lines, line)
		items = append(items, models.OrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			UnitRate:    line.Rate,
			Quantity:    line.Quantity,
			StartDate:   r.StartDate,
			EndDate:     r.EndDate,
			Days:        line.Days(),
			TotalPrice:  line.Total(),
		})
	}
	return items, lines, nil
}

// persist stores the order, regenerating the number if it collides with an existing one.
func (s *OrderService) persist(ctx context.Context, order *models.Order) error {
	var err error
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		if order.OrderNumber, err = generateOrderNumber(s.now()); err != nil {
			return err
		}
		err = s.orderRepo.Create(ctx, order)
		if !errors.Is(err, apperrors.ErrConflict) {
			break
		}
		order.ID = ""
		for i := range order.Items {
			order.Items[i].ID = ""
		}
	}
	if err != nil {
		if errors.Is(err, apperrors.ErrPersistence) {
			return err
		}
		return fmt.Errorf("failed to create order: %w: %w", apperrors.ErrPersistence, err)
	}
	return nil
}

// GetAllOrders retrieves all orders.
func (s *OrderService) GetAllOrders(ctx context.Context) ([]models.Order, error) {
	return s.orderRepo.GetAll(ctx)
}

func (s *OrderService) GetUserOrders(ctx context.Context, userID string) ([]models.Order, error) {
	return s.orderRepo.GetByUser(ctx, userID)
}

// GetOrderByID retrieves a single order by its ID.
func (s *OrderService) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	return s.orderRepo.GetByID(ctx, id)
}

// UpdateOrderStatus moves the order along its status machine.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("invalid order status %q: %w", status, apperrors.ErrValidation)
	}
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransitionTo(status) {
		return nil, fmt.Errorf("order %s cannot move from %s to %s: %w", order.OrderNumber, order.Status, status, apperrors.ErrInvalidTransition)
	}
	if err := s.orderRepo.UpdateStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("failed to update order status for order %s: %w", id, err)
	}
	order.Status = status
	return order, nil
}

func (s *OrderService) DeleteOrder(ctx context.Context, id string) error {
	return s.orderRepo.Delete(ctx, id)
}
