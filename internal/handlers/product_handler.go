package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"rentstore/internal/models"
	"rentstore/internal/repositories"
	"rentstore/internal/services"
)

// ProductHandler serves the equipment catalog.
type ProductHandler struct {
	service  *services.ProductService
	validate *validator.Validate
}

func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{service: service, validate: validator.New()}
}

// RegisterRoutes registers the product routes. Reads are public, writes need an admin token.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, guards Guards) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/slug/:slug", h.HandleGetProductBySlug)
	productRoutes.Get("/:id", h.HandleGetProductByID)
	productRoutes.Post("/", guards.Auth, guards.Admin, h.HandleCreateProduct)
	productRoutes.Put("/:id", guards.Auth, guards.Admin, h.HandleUpdateProduct)
	productRoutes.Delete("/:id", guards.Auth, guards.Admin, h.HandleDeleteProduct)
}

// ProductRequest is the writable part of a product.
type ProductRequest struct {
	Name           string            `json:"name" validate:"required,max=200"`
	Description    string            `json:"description"`
	CategoryID     *string           `json:"category_id"`
	Images         []string          `json:"images" validate:"omitempty,dive,url"`
	Status         string            `json:"status" validate:"omitempty,oneof=available rented sold maintenance"`
	PricePerHour   decimal.Decimal   `json:"price_per_hour"`
	PricePerDay    decimal.Decimal   `json:"price_per_day"`
	PricePerWeek   decimal.Decimal   `json:"price_per_week"`
	SalePrice      decimal.Decimal   `json:"sale_price"`
	Quantity       int               `json:"quantity" validate:"gte=0"`
	IsRentable     *bool             `json:"is_rentable"`
	IsPurchasable  bool              `json:"is_purchasable"`
	Specifications map[string]string `json:"specifications"`
}

func (r ProductRequest) apply(p *models.Product) {
	p.Name = r.Name
	p.Description = r.Description
	p.CategoryID = r.CategoryID
	p.Images = r.Images
	p.Status = models.ProductStatus(r.Status)
	p.PricePerHour = r.PricePerHour
	p.PricePerDay = r.PricePerDay
	p.PricePerWeek = r.PricePerWeek
	p.SalePrice = r.SalePrice
	p.Quantity = r.Quantity
	p.IsRentable = r.IsRentable == nil || *r.IsRentable
	p.IsPurchasable = r.IsPurchasable
	p.Specifications = r.Specifications
}

// HandleGetProducts lists products, optionally filtered by ?category=, ?status= and ?rentable=true.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	filter := repositories.ProductFilter{
		CategorySlug: c.Query("category"),
		Status:       models.ProductStatus(c.Query("status")),
		RentableOnly: c.QueryBool("rentable", false),
	}
	products, err := h.service.GetAllProducts(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err, "Could not retrieve products")
	}
	return c.JSON(products)
}

func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	product, err := h.service.GetProductByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err, "Could not retrieve product")
	}
	return c.JSON(product)
}

func (h *ProductHandler) HandleGetProductBySlug(c *fiber.Ctx) error {
	product, err := h.service.GetProductBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return respondError(c, err, "Could not retrieve product")
	}
	return c.JSON(product)
}

func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var req ProductRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}

	var product models.Product
	req.apply(&product)
	if err := h.service.CreateProduct(c.UserContext(), &product); err != nil {
		return respondError(c, err, "Could not create product")
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	var req ProductRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}

	product, err := h.service.GetProductByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err, "Could not update product")
	}
	req.apply(product)
	if err := h.service.UpdateProduct(c.UserContext(), product); err != nil {
		return respondError(c, err, "Could not update product")
	}
	return c.JSON(product)
}

func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	if err := h.service.DeleteProduct(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, err, "Could not delete product")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
