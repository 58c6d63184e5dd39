package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"rentstore/internal/apperrors"
	"rentstore/internal/models"
	"rentstore/internal/repositories"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// DiscountService resolves promo codes and manages discount records.
type DiscountService struct {
	repo repositories.DiscountRepository
	now  func() time.Time
}

func NewDiscountService(repo repositories.DiscountRepository) *DiscountService {
	return &DiscountService{repo: repo, now: time.Now}
}

// SetClock replaces the time source used for window checks.
func (s *DiscountService) SetClock(now func() time.Time) {
	s.now = now
}

// NormalizeCode is the canonical form codes are stored and looked up in.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// FindActiveByCode returns the discount for code if it can be redeemed now.
// Unknown and inactive codes are ErrNotFound; codes outside their window are ErrNotApplicable.
func (s *DiscountService) FindActiveByCode(ctx context.Context, code string) (*models.Discount, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, fmt.Errorf("discount code is empty: %w", apperrors.ErrNotFound)
	}

	discount, err := s.repo.FindActiveByName(ctx, code)
	if err != nil {
		return nil, err
	}
	if !discount.WithinWindow(s.now()) {
		return nil, fmt.Errorf("discount code %s is outside its validity window: %w", code, apperrors.ErrNotApplicable)
	}
	return discount, nil
}

func (s *DiscountService) GetAllDiscounts(ctx context.Context) ([]models.Discount, error) {
	return s.repo.GetAll(ctx)
}

func (s *DiscountService) GetDiscountByID(ctx context.Context, id string) (*models.Discount, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *DiscountService) CreateDiscount(ctx context.Context, discount *models.Discount) error {
	discount.Name = NormalizeCode(discount.Name)
	if err := validateDiscount(discount); err != nil {
		return err
	}
	return s.repo.Create(ctx, discount)
}

func (s *DiscountService) UpdateDiscount(ctx context.Context, discount *models.Discount) error {
	discount.Name = NormalizeCode(discount.Name)
	if err := validateDiscount(discount); err != nil {
		return err
	}
	return s.repo.Update(ctx, discount)
}

func (s *DiscountService) DeleteDiscount(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func validateDiscount(d *models.Discount) error {
	if d.Name == "" {
		return fmt.Errorf("discount code is required: %w", apperrors.ErrValidation)
	}
	switch d.Type {
	case models.DiscountPercentage:
		if d.Value.GreaterThan(hundred) {
			return fmt.Errorf("percentage discount cannot exceed 100: %w", apperrors.ErrValidation)
		}
	case models.DiscountFixed:
	default:
		return fmt.Errorf("unknown discount type %q: %w", d.Type, apperrors.ErrValidation)
	}
	if !d.Value.IsPositive() {
		return fmt.Errorf("discount value must be positive: %w", apperrors.ErrValidation)
	}
	if d.StartDate != nil && d.EndDate != nil && d.EndDate.Before(*d.StartDate) {
		return fmt.Errorf("discount ends before it starts: %w", apperrors.ErrValidation)
	}
	return nil
}
