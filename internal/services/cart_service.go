package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"rentstore/internal/apperrors"
	"rentstore/internal/cart"
	"rentstore/internal/models"
	"rentstore/internal/repositories"

	"github.com/shopspring/decimal"
)

// CartView is a cart together with its current totals.
type CartView struct {
	Items          []cart.Item     `json:"items"`
	Promo          *cart.Promo     `json:"promo,omitempty"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Total          decimal.Decimal `json:"total"`
}

// CheckoutInput is the contact part of an order; lines and promo come from the cart.
type CheckoutInput struct {
	DeliveryAddress string
	ContactPhone    string
	Notes           string
	Channel         models.Channel
}

// CartService keeps one cart per key (the user ID) in a cart.Storage.
type CartService struct {
	storage   cart.Storage
	products  repositories.ProductRepository
	discounts *DiscountService
	orders    *OrderService
	// Serializes load-modify-save cycles.
	mu sync.Mutex
}

func NewCartService(storage cart.Storage, products repositories.ProductRepository, discounts *DiscountService, orders *OrderService) *CartService {
	return &CartService{storage: storage, products: products, discounts: discounts, orders: orders}
}

func view(c *cart.Cart) *CartView {
	totals := c.Totals()
	return &CartView{
		Items:          c.Items,
		Promo:          c.Promo,
		Subtotal:       totals.Subtotal,
		DiscountAmount: totals.DiscountAmount,
		Total:          totals.Total,
	}
}

// mutate loads the cart for key, applies fn and saves the result. A failing fn is saved too
// when keepOnError is set, which ApplyPromo needs to persist the cleared promo.
func (s *CartService) mutate(ctx context.Context, key string, keepOnError bool, fn func(c *cart.Cart) error) (*CartView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.storage.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	fnErr := fn(c)
	if fnErr != nil && !keepOnError {
		return nil, fnErr
	}
	if err := s.storage.Save(ctx, key, c); err != nil {
		return nil, err
	}
	if fnErr != nil {
		return nil, fnErr
	}
	return view(c), nil
}

func (s *CartService) GetCart(ctx context.Context, key string) (*CartView, error) {
	c, err := s.storage.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	return view(c), nil
}

func (s *CartService) AddItem(ctx context.Context, key, productID string) (*CartView, error) {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.Status == models.ProductSold || product.Status == models.ProductMaintenance {
		return nil, fmt.Errorf("product %s is %s: %w", product.Name, product.Status, apperrors.ErrValidation)
	}
	return s.mutate(ctx, key, false, func(c *cart.Cart) error {
		c.AddItem(*product)
		return nil
	})
}

func (s *CartService) UpdateQuantity(ctx context.Context, key, productID string, delta int) (*CartView, error) {
	return s.mutate(ctx, key, false, func(c *cart.Cart) error {
		return c.UpdateQuantity(productID, delta)
	})
}

func (s *CartService) SetDates(ctx context.Context, key, productID string, start, end *time.Time) (*CartView, error) {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if start != nil && !product.IsRentable {
		return nil, fmt.Errorf("product %s cannot be rented: %w", product.Name, apperrors.ErrValidation)
	}
	return s.mutate(ctx, key, false, func(c *cart.Cart) error {
		return c.SetDates(*product, start, end)
	})
}

func (s *CartService) RemoveItem(ctx context.Context, key, productID string) (*CartView, error) {
	return s.mutate(ctx, key, false, func(c *cart.Cart) error {
		c.RemoveItem(productID)
		return nil
	})
}

// ApplyPromo stores code on the cart. On failure the previous promo is removed.
func (s *CartService) ApplyPromo(ctx context.Context, key, code string) (*CartView, error) {
	return s.mutate(ctx, key, true, func(c *cart.Cart) error {
		return c.ApplyPromo(ctx, s.discounts, code)
	})
}

func (s *CartService) ClearPromo(ctx context.Context, key string) (*CartView, error) {
	return s.mutate(ctx, key, false, func(c *cart.Cart) error {
		c.ClearPromo()
		return nil
	})
}

// Checkout turns the cart of userID into an order and empties the cart on success.
func (s *CartService) Checkout(ctx context.Context, userID string, in CheckoutInput) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.storage.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, fmt.Errorf("cart is empty: %w", apperrors.ErrValidation)
	}

	items := make([]OrderItemInput, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, OrderItemInput{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			StartDate: it.StartDate,
			EndDate:   it.EndDate,
		})
	}
	var code string
	if c.Promo != nil {
		code = c.Promo.Code
	}

	order, err := s.orders.CreateOrder(ctx, CreateOrderInput{
		UserID:          userID,
		Items:           items,
		DiscountCode:    code,
		DeliveryAddress: in.DeliveryAddress,
		ContactPhone:    in.ContactPhone,
		Notes:           in.Notes,
		Channel:         in.Channel,
	})
	if err != nil {
		return nil, err
	}

	if err := s.storage.Clear(ctx, userID); err != nil {
		s.orders.log.Warn("order placed but cart was not cleared", "order_id", order.ID, "error", err)
	}
	return order, nil
}
