package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"rentstore/internal/models"
	"rentstore/internal/services"
)

type DiscountHandler struct {
	service  *services.DiscountService
	validate *validator.Validate
}

func NewDiscountHandler(service *services.DiscountService) *DiscountHandler {
	return &DiscountHandler{service: service, validate: validator.New()}
}

// RegisterRoutes exposes the public code check and the admin management routes.
func (h *DiscountHandler) RegisterRoutes(router fiber.Router, guards Guards) {
	discountRoutes := router.Group("/discounts")
	discountRoutes.Get("/check/:code", h.HandleCheckCode)
	discountRoutes.Get("/", guards.Auth, guards.Admin, h.HandleGetDiscounts)
	discountRoutes.Get("/:id", guards.Auth, guards.Admin, h.HandleGetDiscountByID)
	discountRoutes.Post("/", guards.Auth, guards.Admin, h.HandleCreateDiscount)
	discountRoutes.Put("/:id", guards.Auth, guards.Admin, h.HandleUpdateDiscount)
	discountRoutes.Delete("/:id", guards.Auth, guards.Admin, h.HandleDeleteDiscount)
}

type DiscountRequest struct {
	Name        string          `json:"name" validate:"required,max=64"`
	Description string          `json:"description"`
	Type        string          `json:"type" validate:"required,oneof=percentage fixed"`
	Value       decimal.Decimal `json:"value"`
	StartDate   string          `json:"start_date"`
	EndDate     string          `json:"end_date"`
	IsActive    *bool           `json:"is_active"`
}

func (r DiscountRequest) apply(d *models.Discount) error {
	start, err := parseDate("start_date", r.StartDate)
	if err != nil {
		return err
	}
	end, err := parseDate("end_date", r.EndDate)
	if err != nil {
		return err
	}
	d.Name = r.Name
	d.Description = r.Description
	d.Type = models.DiscountType(r.Type)
	d.Value = r.Value
	d.StartDate = start
	d.EndDate = end
	d.IsActive = r.IsActive == nil || *r.IsActive
	return nil
}

// HandleCheckCode reports whether a promo code can be applied right now.
func (h *DiscountHandler) HandleCheckCode(c *fiber.Ctx) error {
	discount, err := h.service.FindActiveByCode(c.UserContext(), c.Params("code"))
	if err != nil {
		return respondError(c, err, "Promo code cannot be applied")
	}
	return c.JSON(fiber.Map{
		"code":  discount.Name,
		"type":  discount.Type,
		"value": discount.Value,
	})
}

func (h *DiscountHandler) HandleGetDiscounts(c *fiber.Ctx) error {
	discounts, err := h.service.GetAllDiscounts(c.UserContext())
	if err != nil {
		return respondError(c, err, "Could not retrieve discounts")
	}
	return c.JSON(discounts)
}

func (h *DiscountHandler) HandleGetDiscountByID(c *fiber.Ctx) error {
	discount, err := h.service.GetDiscountByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err, "Could not retrieve discount")
	}
	return c.JSON(discount)
}

func (h *DiscountHandler) HandleCreateDiscount(c *fiber.Ctx) error {
	var req DiscountRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}

	var discount models.Discount
	if err := req.apply(&discount); err != nil {
		return respondError(c, err, "Could not create discount")
	}
	if err := h.service.CreateDiscount(c.UserContext(), &discount); err != nil {
		return respondError(c, err, "Could not create discount")
	}
	return c.Status(fiber.StatusCreated).JSON(discount)
}

func (h *DiscountHandler) HandleUpdateDiscount(c *fiber.Ctx) error {
	var req DiscountRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}

	discount, err := h.service.GetDiscountByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err, "Could not update discount")
	}
	if err := req.apply(discount); err != nil {
		return respondError(c, err, "Could not update discount")
	}
	if err := h.service.UpdateDiscount(c.UserContext(), discount); err != nil {
		return respondError(c, err, "Could not update discount")
	}
	return c.JSON(discount)
}

func (h *DiscountHandler) HandleDeleteDiscount(c *fiber.Ctx) error {
	if err := h.service.DeleteDiscount(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, err, "Could not delete discount")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
