package services

import (
	"context"
	"fmt"
	"strings"

	"rentstore/internal/apperrors"
	"rentstore/internal/models"
	"rentstore/internal/repositories"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
)

type slugExistsFunc func(ctx context.Context, slug, excludeID string) (bool, error)

// uniqueSlug derives a slug from name and appends -2, -3... until it is free.
func uniqueSlug(ctx context.Context, name, excludeID string, exists slugExistsFunc) (string, error) {
	base := slug.Make(name)
	if base == "" {
		return "", fmt.Errorf("name %q has no characters usable in a slug: %w", name, apperrors.ErrValidation)
	}
	candidate := base
	for i := 2; ; i++ {
		taken, err := exists(ctx, candidate, excludeID)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo repositories.ProductRepository
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository) *ProductService {
	return &ProductService{
		repo: repo,
	}
}

// GetAllProducts lists products matching filter.
func (s *ProductService) GetAllProducts(ctx context.Context, filter repositories.ProductFilter) ([]models.Product, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("unknown product status %q: %w", filter.Status, apperrors.ErrValidation)
	}
	return s.repo.GetAll(ctx, filter)
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *ProductService) GetProductBySlug(ctx context.Context, productSlug string) (*models.Product, error) {
	return s.repo.GetBySlug(ctx, productSlug)
}

// CreateProduct validates product and assigns it a unique slug.
func (s *ProductService) CreateProduct(ctx context.Context, product *models.Product) error {
	if err := validateProduct(product); err != nil {
		return err
	}
	sl, err := uniqueSlug(ctx, product.Name, "", s.repo.SlugExists)
	if err != nil {
		return err
	}
	product.Slug = sl
	return s.repo.Create(ctx, product)
}

// UpdateProduct re-derives the slug only when the name changed.
func (s *ProductService) UpdateProduct(ctx context.Context, product *models.Product) error {
	if err := validateProduct(product); err != nil {
		return err
	}
	current, err := s.repo.GetByID(ctx, product.ID)
	if err != nil {
		return err
	}
	product.Slug = current.Slug
	if current.Name != product.Name || product.Slug == "" {
		sl, err := uniqueSlug(ctx, product.Name, product.ID, s.repo.SlugExists)
		if err != nil {
			return err
		}
		product.Slug = sl
	}
	return s.repo.Update(ctx, product)
}

// DeleteProduct deletes a product by its ID.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func validateProduct(p *models.Product) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return fmt.Errorf("product name is required: %w", apperrors.ErrValidation)
	}
	if p.Status == "" {
		p.Status = models.ProductAvailable
	}
	if !p.Status.Valid() {
		return fmt.Errorf("unknown product status %q: %w", p.Status, apperrors.ErrValidation)
	}
	for _, price := range []struct {
		name  string
		value decimal.Decimal
	}{
		{"price_per_hour", p.PricePerHour},
		{"price_per_day", p.PricePerDay},
		{"price_per_week", p.PricePerWeek},
		{"sale_price", p.SalePrice},
	} {
		if price.value.IsNegative() {
			return fmt.Errorf("%s cannot be negative: %w", price.name, apperrors.ErrValidation)
		}
	}
	if p.Quantity < 0 {
		return fmt.Errorf("quantity cannot be negative: %w", apperrors.ErrValidation)
	}
	if p.CategoryID != nil && *p.CategoryID == "" {
		p.CategoryID = nil
	}
	return nil
}

// CategoryService handles category management.
type CategoryService struct {
	repo repositories.CategoryRepository
}

func NewCategoryService(repo repositories.CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

func (s *CategoryService) GetAllCategories(ctx context.Context) ([]models.Category, error) {
	return s.repo.GetAll(ctx)
}

func (s *CategoryService) GetCategoryBySlug(ctx context.Context, categorySlug string) (*models.Category, error) {
	return s.repo.GetBySlug(ctx, categorySlug)
}

func (s *CategoryService) CreateCategory(ctx context.Context, category *models.Category) error {
	category.Name = strings.TrimSpace(category.Name)
	if category.Name == "" {
		return fmt.Errorf("category name is required: %w", apperrors.ErrValidation)
	}
	sl, err := uniqueSlug(ctx, category.Name, "", s.repo.SlugExists)
	if err != nil {
		return err
	}
	category.Slug = sl
	return s.repo.Create(ctx, category)
}

func (s *CategoryService) UpdateCategory(ctx context.Context, category *models.Category) error {
	category.Name = strings.TrimSpace(category.Name)
	if category.Name == "" {
		return fmt.Errorf("category name is required: %w", apperrors.ErrValidation)
	}
	current, err := s.repo.GetByID(ctx, category.ID)
	if err != nil {
		return err
	}
	category.Slug = current.Slug
	if current.Name != category.Name {
		sl, err := uniqueSlug(ctx, category.Name, category.ID, s.repo.SlugExists)
		if err != nil {
			return err
		}
		category.Slug = sl
	}
	return s.repo.Update(ctx, category)
}

// DeleteCategory removes the category; its products become uncategorized.
func (s *CategoryService) DeleteCategory(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
