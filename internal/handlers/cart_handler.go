package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"rentstore/internal/middleware"
	"rentstore/internal/models"
	"rentstore/internal/services"
)

// CartHandler serves the caller's cart, keyed by the authenticated user ID.
type CartHandler struct {
	service  *services.CartService
	validate *validator.Validate
}

func NewCartHandler(service *services.CartService) *CartHandler {
	return &CartHandler{service: service, validate: validator.New()}
}

func (h *CartHandler) RegisterRoutes(router fiber.Router, guards Guards) {
	cartRoutes := router.Group("/cart", guards.Auth)
	cartRoutes.Get("/", h.HandleGetCart)
	cartRoutes.Post("/items", h.HandleAddItem)
	cartRoutes.Patch("/items/:productId", h.HandleUpdateQuantity)
	cartRoutes.Put("/items/:productId/dates", h.HandleSetDates)
	cartRoutes.Delete("/items/:productId", h.HandleRemoveItem)
	cartRoutes.Post("/promo", h.HandleApplyPromo)
	cartRoutes.Delete("/promo", h.HandleClearPromo)
	cartRoutes.Post("/checkout", h.HandleCheckout)
}

func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	view, err := h.service.GetCart(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, err, "Could not load cart")
	}
	return c.JSON(view)
}

type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
}

func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	var req AddItemRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}

	view, err := h.service.AddItem(c.UserContext(), middleware.UserID(c), req.ProductID)
	if err != nil {
		return respondError(c, err, "Could not add item")
	}
	return c.JSON(view)
}

type QuantityRequest struct {
	Delta int `json:"delta" validate:"required"`
}

// HandleUpdateQuantity changes a line's quantity by delta, never below 1.
func (h *CartHandler) HandleUpdateQuantity(c *fiber.Ctx) error {
	var req QuantityRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}

	view, err := h.service.UpdateQuantity(c.UserContext(), middleware.UserID(c), c.Params("productId"), req.Delta)
	if err != nil {
		return respondError(c, err, "Could not update quantity")
	}
	return c.JSON(view)
}

// DatesRequest sets or, when both are empty, clears a line's rental period.
type DatesRequest struct {
	StartDate string `json:"start_date" validate:"required_with=EndDate"`
	EndDate   string `json:"end_date" validate:"required_with=StartDate"`
}

func (h *CartHandler) HandleSetDates(c *fiber.Ctx) error {
	var req DatesRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}

	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		return respondError(c, err, "Could not set rental dates")
	}
	end, err := parseDate("end_date", req.EndDate)
	if err != nil {
		return respondError(c, err, "Could not set rental dates")
	}

	view, err := h.service.SetDates(c.UserContext(), middleware.UserID(c), c.Params("productId"), start, end)
	if err != nil {
		return respondError(c, err, "Could not set rental dates")
	}
	return c.JSON(view)
}

func (h *CartHandler) HandleRemoveItem(c *fiber.Ctx) error {
	view, err := h.service.RemoveItem(c.UserContext(), middleware.UserID(c), c.Params("productId"))
	if err != nil {
		return respondError(c, err, "Could not remove item")
	}
	return c.JSON(view)
}

type PromoRequest struct {
	Code string `json:"code" validate:"required,max=64"`
}

// HandleApplyPromo applies a promo code. A rejected code also removes the previous one.
func (h *CartHandler) HandleApplyPromo(c *fiber.Ctx) error {
	var req PromoRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}

	view, err := h.service.ApplyPromo(c.UserContext(), middleware.UserID(c), req.Code)
	if err != nil {
		return respondError(c, err, "Promo code cannot be applied")
	}
	return c.JSON(view)
}

func (h *CartHandler) HandleClearPromo(c *fiber.Ctx) error {
	view, err := h.service.ClearPromo(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, err, "Could not clear promo code")
	}
	return c.JSON(view)
}

// HandleCheckout places an order from the cart and empties it.
func (h *CartHandler) HandleCheckout(c *fiber.Ctx) error {
	var req ContactRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}

	order, err := h.service.Checkout(c.UserContext(), middleware.UserID(c), services.CheckoutInput{
		DeliveryAddress: req.DeliveryAddress,
		ContactPhone:    req.ContactPhone,
		Notes:           req.Notes,
		Channel:         models.Channel(req.Channel),
	})
	if err != nil {
		return respondError(c, err, "Checkout failed")
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}
