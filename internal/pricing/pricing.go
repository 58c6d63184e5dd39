// Package pricing computes rental line totals, subtotals and discounts.
// All amounts are decimal values rounded to two places.
package pricing

import (
	"math"
	"time"

	"rentstore/internal/models"

	"github.com/shopspring/decimal"
)

const day = 24 * time.Hour

// Line is one priced cart or order line.
type Line struct {
	Rate      decimal.Decimal
	Quantity  int
	StartDate *time.Time
	EndDate   *time.Time
}

// Days returns the billable duration of the line.
func (l Line) Days() int {
	return LineDuration(l.StartDate, l.EndDate)
}

// Total returns rate * quantity * days.
func (l Line) Total() decimal.Decimal {
	return LineTotal(l.Rate, l.Quantity, l.Days())
}

// Result is the outcome of applying a discount to a subtotal.
type Result struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	Total          decimal.Decimal
}

// LineDuration returns the number of whole days between start and end, rounded up.
// Missing dates, same-day and inverted ranges all count as one day.
func LineDuration(start, end *time.Time) int {
	if start == nil || end == nil {
		return 1
	}
	days := int(math.Ceil(float64(end.Sub(*start)) / float64(day)))
	if days < 1 {
		return 1
	}
	return days
}

// LineTotal returns rate * quantity * days.
func LineTotal(rate decimal.Decimal, quantity, days int) decimal.Decimal {
	return rate.Mul(decimal.NewFromInt(int64(quantity))).Mul(decimal.NewFromInt(int64(days))).Round(2)
}

// Subtotal sums the totals of all lines.
func Subtotal(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Total())
	}
	return sum.Round(2)
}

// ApplyDiscount reduces subtotal by a percentage or fixed amount.
// Fixed discounts are clamped to the subtotal and the total never drops below zero.
func ApplyDiscount(subtotal decimal.Decimal, kind models.DiscountType, value decimal.Decimal) Result {
	amount := decimal.Zero
	switch kind {
	case models.DiscountPercentage:
		amount = subtotal.Mul(value).Div(decimal.NewFromInt(100))
	case models.DiscountFixed:
		amount = value
	}
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	if amount.GreaterThan(subtotal) {
		amount = subtotal
	}
	amount = amount.Round(2)

	total := subtotal.Sub(amount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	return Result{
		Subtotal:       subtotal.Round(2),
		DiscountAmount: amount,
		Total:          total.Round(2),
	}
}

// Quote prices lines with an optional discount. A nil discount yields no reduction.
func Quote(lines []Line, discount *models.Discount) Result {
	subtotal := Subtotal(lines)
	if discount == nil {
		return Result{Subtotal: subtotal, DiscountAmount: decimal.Zero, Total: subtotal}
	}
	return ApplyDiscount(subtotal, discount.Type, discount.Value)
}
