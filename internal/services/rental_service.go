package services

import (
	"context"
	"fmt"
	"time"

	"rentstore/internal/apperrors"
	"rentstore/internal/models"
	"rentstore/internal/pricing"
	"rentstore/internal/repositories"

	"github.com/shopspring/decimal"
)

// CreateRentalInput describes a single-product reservation. A nil RentalPrice is computed
// from the product's day rate and the rental duration.
type CreateRentalInput struct {
	UserID         string
	ProductID      string
	StartDate      time.Time
	EndDate        time.Time
	RentalPrice    *decimal.Decimal
	DiscountAmount decimal.Decimal
	Notes          string
}

// UpdateRentalInput carries the editable fields; nil leaves a field unchanged.
type UpdateRentalInput struct {
	StartDate      *time.Time
	EndDate        *time.Time
	RentalPrice    *decimal.Decimal
	DiscountAmount *decimal.Decimal
	Notes          *string
}

// RentalService manages rental records and their status machines.
type RentalService struct {
	rentalRepo  repositories.RentalRepository
	productRepo repositories.ProductRepository
	userRepo    repositories.UserRepository
}

func NewRentalService(rentalRepo repositories.RentalRepository, productRepo repositories.ProductRepository, userRepo repositories.UserRepository) *RentalService {
	return &RentalService{rentalRepo: rentalRepo, productRepo: productRepo, userRepo: userRepo}
}

// rentalTotal keeps total == price - discount with the discount clamped to [0, price].
func rentalTotal(price, discount decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	if price.IsNegative() {
		return decimal.Zero, decimal.Zero, fmt.Errorf("rental price cannot be negative: %w", apperrors.ErrValidation)
	}
	if discount.IsNegative() {
		return decimal.Zero, decimal.Zero, fmt.Errorf("discount cannot be negative: %w", apperrors.ErrValidation)
	}
	price = price.Round(2)
	discount = decimal.Min(discount, price).Round(2)
	return discount, price.Sub(discount), nil
}

// CreateRental records a pending rental. No availability check is made against other rentals
// of the same product, and an end date before the start date is accepted as a one-day rental.
func (s *RentalService) CreateRental(ctx context.Context, in CreateRentalInput) (*models.Rental, error) {
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return nil, fmt.Errorf("start and end dates are required: %w", apperrors.ErrValidation)
	}
	if _, err := s.userRepo.GetByID(ctx, in.UserID); err != nil {
		return nil, err
	}
	product, err := s.productRepo.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.IsRentable {
		return nil, fmt.Errorf("product %s cannot be rented: %w", product.Name, apperrors.ErrValidation)
	}

	var price decimal.Decimal
	if in.RentalPrice != nil {
		price = *in.RentalPrice
	} else {
		days := pricing.LineDuration(&in.StartDate, &in.EndDate)
		price = pricing.LineTotal(product.PricePerDay, 1, days)
	}
	discount, total, err := rentalTotal(price, in.DiscountAmount)
	if err != nil {
		return nil, err
	}

	rental := &models.Rental{
		UserID:         in.UserID,
		ProductID:      in.ProductID,
		StartDate:      in.StartDate,
		EndDate:        in.EndDate,
		RentalPrice:    price.Round(2),
		DiscountAmount: discount,
		TotalPrice:     total,
		Status:         models.RentalPending,
		PaymentStatus:  models.PaymentPending,
		Notes:          in.Notes,
	}
	if err := s.rentalRepo.Create(ctx, rental); err != nil {
		return nil, err
	}
	return rental, nil
}

func (s *RentalService) GetRentalByID(ctx context.Context, id string) (*models.Rental, error) {
	return s.rentalRepo.GetByID(ctx, id)
}

func (s *RentalService) GetAllRentals(ctx context.Context) ([]models.Rental, error) {
	return s.rentalRepo.GetAll(ctx)
}

func (s *RentalService) GetUserRentals(ctx context.Context, userID string) ([]models.Rental, error) {
	return s.rentalRepo.GetByUser(ctx, userID)
}

// UpdateRental edits dates, prices and notes. Status fields have their own operations.
func (s *RentalService) UpdateRental(ctx context.Context, id string, in UpdateRentalInput) (*models.Rental, error) {
	rental, err := s.rentalRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.StartDate != nil {
		rental.StartDate = *in.StartDate
	}
	if in.EndDate != nil {
		rental.EndDate = *in.EndDate
	}
	if in.RentalPrice != nil {
		rental.RentalPrice = in.RentalPrice.Round(2)
	}
	if in.DiscountAmount != nil {
		rental.DiscountAmount = *in.DiscountAmount
	}
	if in.Notes != nil {
		rental.Notes = *in.Notes
	}

	rental.DiscountAmount, rental.TotalPrice, err = rentalTotal(rental.RentalPrice, rental.DiscountAmount)
	if err != nil {
		return nil, err
	}
	if err := s.rentalRepo.Update(ctx, rental); err != nil {
		return nil, err
	}
	return rental, nil
}

// UpdateRentalStatus moves the rental along pending → active → completed, or to cancelled.
func (s *RentalService) UpdateRentalStatus(ctx context.Context, id string, status models.RentalStatus) (*models.Rental, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("invalid rental status %q: %w", status, apperrors.ErrValidation)
	}
	rental, err := s.rentalRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !rental.Status.CanTransitionTo(status) {
		return nil, fmt.Errorf("rental %s cannot move from %s to %s: %w", id, rental.Status, status, apperrors.ErrInvalidTransition)
	}
	if err := s.rentalRepo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	rental.Status = status
	return rental, nil
}

// UpdatePaymentStatus changes only the payment axis.
func (s *RentalService) UpdatePaymentStatus(ctx context.Context, id string, status models.PaymentStatus) (*models.Rental, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("invalid payment status %q: %w", status, apperrors.ErrValidation)
	}
	rental, err := s.rentalRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !rental.PaymentStatus.CanTransitionTo(status) {
		return nil, fmt.Errorf("rental %s payment cannot move from %s to %s: %w", id, rental.PaymentStatus, status, apperrors.ErrInvalidTransition)
	}
	if err := s.rentalRepo.UpdatePaymentStatus(ctx, id, status); err != nil {
		return nil, err
	}
	rental.PaymentStatus = status
	return rental, nil
}

func (s *RentalService) DeleteRental(ctx context.Context, id string) error {
	return s.rentalRepo.Delete(ctx, id)
}
