package handlers

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"rentstore/internal/apperrors"
	"rentstore/internal/middleware"
	"rentstore/internal/models"
	"rentstore/internal/services"
)

// RentalHandler exposes rental records. Customers book and read their own rentals; status,
// payment and price changes are admin operations.
type RentalHandler struct {
	service  *services.RentalService
	validate *validator.Validate
}

func NewRentalHandler(service *services.RentalService) *RentalHandler {
	return &RentalHandler{service: service, validate: validator.New()}
}

func (h *RentalHandler) RegisterRoutes(router fiber.Router, guards Guards) {
	rentalRoutes := router.Group("/rentals", guards.Auth)
	rentalRoutes.Get("/", h.HandleGetRentals)
	rentalRoutes.Get("/:id", h.HandleGetRentalByID)
	rentalRoutes.Post("/", h.HandleCreateRental)
	rentalRoutes.Put("/:id", guards.Admin, h.HandleUpdateRental)
	rentalRoutes.Patch("/:id/status", guards.Admin, h.HandleUpdateRentalStatus)
	rentalRoutes.Patch("/:id/payment", guards.Admin, h.HandleUpdatePaymentStatus)
	rentalRoutes.Delete("/:id", guards.Admin, h.HandleDeleteRental)
}

func (h *RentalHandler) HandleGetRentals(c *fiber.Ctx) error {
	var (
		rentals []models.Rental
		err     error
	)
	if middleware.IsAdmin(c) {
		rentals, err = h.service.GetAllRentals(c.UserContext())
	} else {
		rentals, err = h.service.GetUserRentals(c.UserContext(), middleware.UserID(c))
	}
	if err != nil {
		return respondError(c, err, "Could not retrieve rentals")
	}
	return c.JSON(rentals)
}

func (h *RentalHandler) HandleGetRentalByID(c *fiber.Ctx) error {
	rentalID := c.Params("id")
	rental, err := h.service.GetRentalByID(c.UserContext(), rentalID)
	if err == nil && rental.UserID != middleware.UserID(c) && !middleware.IsAdmin(c) {
		err = fmt.Errorf("rental with ID %s not found: %w", rentalID, apperrors.ErrNotFound)
	}
	if err != nil {
		return respondError(c, err, "Could not retrieve rental")
	}
	return c.JSON(rental)
}

// CreateRentalRequest books one product. Only admins may book for another user or set prices.
type CreateRentalRequest struct {
	UserID         string           `json:"user_id"`
	ProductID      string           `json:"product_id" validate:"required"`
	StartDate      string           `json:"start_date" validate:"required"`
	EndDate        string           `json:"end_date" validate:"required"`
	RentalPrice    *decimal.Decimal `json:"rental_price"`
	DiscountAmount decimal.Decimal  `json:"discount_amount"`
	Notes          string           `json:"notes" validate:"max=2000"`
}

func (h *RentalHandler) HandleCreateRental(c *fiber.Ctx) error {
	var req CreateRentalRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}

	in, err := req.input(c)
	if err != nil {
		return respondError(c, err, "Could not create rental")
	}
	rental, err := h.service.CreateRental(c.UserContext(), in)
	if err != nil {
		return respondError(c, err, "Could not create rental")
	}
	return c.Status(fiber.StatusCreated).JSON(rental)
}

func (r CreateRentalRequest) input(c *fiber.Ctx) (services.CreateRentalInput, error) {
	start, err := parseDate("start_date", r.StartDate)
	if err != nil {
		return services.CreateRentalInput{}, err
	}
	end, err := parseDate("end_date", r.EndDate)
	if err != nil {
		return services.CreateRentalInput{}, err
	}
	in := services.CreateRentalInput{
		UserID:    middleware.UserID(c),
		ProductID: r.ProductID,
		StartDate: *start,
		EndDate:   *end,
		Notes:     r.Notes,
	}
	if middleware.IsAdmin(c) {
		if r.UserID != "" {
			in.UserID = r.UserID
		}
		in.RentalPrice = r.RentalPrice
		in.DiscountAmount = r.DiscountAmount
	} else if r.RentalPrice != nil || !r.DiscountAmount.IsZero() {
		return services.CreateRentalInput{}, fmt.Errorf("only staff can set rental prices: %w", apperrors.ErrForbidden)
	}
	return in, nil
}

type UpdateRentalRequest struct {
	StartDate      *string          `json:"start_date"`
	EndDate        *string          `json:"end_date"`
	RentalPrice    *decimal.Decimal `json:"rental_price"`
	DiscountAmount *decimal.Decimal `json:"discount_amount"`
	Notes          *string          `json:"notes" validate:"omitempty,max=2000"`
}

func (h *RentalHandler) HandleUpdateRental(c *fiber.Ctx) error {
	var req UpdateRentalRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}

	in := services.UpdateRentalInput{
		RentalPrice:    req.RentalPrice,
		DiscountAmount: req.DiscountAmount,
		Notes:          req.Notes,
	}
	var err error
	if req.StartDate != nil {
		if in.StartDate, err = parseDate("start_date", *req.StartDate); err != nil {
			return respondError(c, err, "Could not update rental")
		}
	}
	if req.EndDate != nil {
		if in.EndDate, err = parseDate("end_date", *req.EndDate); err != nil {
			return respondError(c, err, "Could not update rental")
		}
	}

	rental, err := h.service.UpdateRental(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return respondError(c, err, "Could not update rental")
	}
	return c.JSON(rental)
}

func (h *RentalHandler) HandleUpdateRentalStatus(c *fiber.Ctx) error {
	var req StatusRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}

	rental, err := h.service.UpdateRentalStatus(c.UserContext(), c.Params("id"), models.RentalStatus(req.Status))
	if err != nil {
		return respondError(c, err, "Could not update rental status")
	}
	return c.JSON(rental)
}

func (h *RentalHandler) HandleUpdatePaymentStatus(c *fiber.Ctx) error {
	var req StatusRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}

	rental, err := h.service.UpdatePaymentStatus(c.UserContext(), c.Params("id"), models.PaymentStatus(req.Status))
	if err != nil {
		return respondError(c, err, "Could not update payment status")
	}
	return c.JSON(rental)
}

func (h *RentalHandler) HandleDeleteRental(c *fiber.Ctx) error {
	if err := h.service.DeleteRental(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, err, "Could not delete rental")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
