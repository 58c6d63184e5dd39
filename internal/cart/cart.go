// Package cart holds the shopping cart state container and its storage port.
package cart

import (
	"context"
	"fmt"
	"strings"
	"time"

	"rentstore/internal/apperrors"
	"rentstore/internal/models"
	"rentstore/internal/pricing"

	"github.com/shopspring/decimal"
)

// Item is one cart line.
type Item struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitRate  decimal.Decimal `json:"unit_rate"`
	Image     string          `json:"image,omitempty"`
	Quantity  int             `json:"quantity"`
	StartDate *time.Time      `json:"start_date,omitempty"`
	EndDate   *time.Time      `json:"end_date,omitempty"`
}

// Line converts the item to a pricing line.
func (i Item) Line() pricing.Line {
	return pricing.Line{Rate: i.UnitRate, Quantity: i.Quantity, StartDate: i.StartDate, EndDate: i.EndDate}
}

// Promo is the discount applied to the cart for the current session.
type Promo struct {
	Code  string              `json:"code"`
	Type  models.DiscountType `json:"type"`
	Value decimal.Decimal     `json:"value"`
}

// PromoLookup resolves a promo code to an applicable discount.
type PromoLookup interface {
	FindActiveByCode(ctx context.Context, code string) (*models.Discount, error)
}

// Cart is an ordered collection of items plus an optional promo.
type Cart struct {
	Items []Item `json:"items"`
	Promo *Promo `json:"promo,omitempty"`
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{Items: []Item{}}
}

func (c *Cart) index(productID string) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// AddItem increments the quantity of an existing line or appends a new undated line.
func (c *Cart) AddItem(product models.Product) {
	if i := c.index(product.ID); i >= 0 {
		c.Items[i].Quantity++
		return
	}
	var image string
	if len(product.Images) > 0 {
		image = product.Images[0]
	}
	c.Items = append(c.Items, Item{
		ProductID: product.ID,
		Name:      product.Name,
		UnitRate:  product.UnitRate(false),
		Image:     image,
		Quantity:  1,
	})
}

// UpdateQuantity adds delta to the line's quantity, never going below 1.
func (c *Cart) UpdateQuantity(productID string, delta int) error {
	i := c.index(productID)
	if i < 0 {
		return fmt.Errorf("product %s is not in the cart: %w", productID, apperrors.ErrNotFound)
	}
	c.Items[i].Quantity = max(1, c.Items[i].Quantity+delta)
	return nil
}

// SetDates sets or clears the rental period of a line. Rate is re-derived because dated
// lines are always charged by the day.
func (c *Cart) SetDates(product models.Product, start, end *time.Time) error {
	i := c.index(product.ID)
	if i < 0 {
		return fmt.Errorf("product %s is not in the cart: %w", product.ID, apperrors.ErrNotFound)
	}
	if (start == nil) != (end == nil) {
		return fmt.Errorf("start and end dates must be set together: %w", apperrors.ErrValidation)
	}
	if start != nil && end.Before(*start) {
		return fmt.Errorf("end date is before start date: %w", apperrors.ErrValidation)
	}
	c.Items[i].StartDate = start
	c.Items[i].EndDate = end
	c.Items[i].UnitRate = product.UnitRate(start != nil)
	return nil
}

// RemoveItem drops the line for productID. Removing an absent product is a no-op.
func (c *Cart) RemoveItem(productID string) {
	if i := c.index(productID); i >= 0 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
	}
}

// ApplyPromo looks code up and stores it on success. Any failure clears the current promo.
func (c *Cart) ApplyPromo(ctx context.Context, lookup PromoLookup, code string) error {
	discount, err := lookup.FindActiveByCode(ctx, code)
	if err != nil {
		c.Promo = nil
		return err
	}
	c.Promo = &Promo{Code: strings.ToUpper(strings.TrimSpace(code)), Type: discount.Type, Value: discount.Value}
	return nil
}

// ClearPromo removes the applied promo.
func (c *Cart) ClearPromo() {
	c.Promo = nil
}

// Lines returns the pricing lines of all items.
func (c *Cart) Lines() []pricing.Line {
	lines := make([]pricing.Line, 0, len(c.Items))
	for _, item := range c.Items {
		lines = append(lines, item.Line())
	}
	return lines
}

// Totals prices the cart with its promo.
func (c *Cart) Totals() pricing.Result {
	if c.Promo == nil {
		return pricing.Quote(c.Lines(), nil)
	}
	return pricing.Quote(c.Lines(), &models.Discount{Type: c.Promo.Type, Value: c.Promo.Value})
}

// IsEmpty reports whether the cart has no items.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}
