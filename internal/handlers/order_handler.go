package handlers

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"rentstore/internal/apperrors"
	"rentstore/internal/contract"
	"rentstore/internal/middleware"
	"rentstore/internal/models"
	"rentstore/internal/services"
)

// CustomerLookup loads the account an order belongs to.
type CustomerLookup interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service   *services.OrderService
	customers CustomerLookup
	contracts *contract.Builder
	validate  *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService, customers CustomerLookup, contracts *contract.Builder) *OrderHandler {
	return &OrderHandler{
		service:   service,
		customers: customers,
		contracts: contracts,
		validate:  validator.New(),
	}
}

// RegisterRoutes registers the order routes with the Fiber app.
func (h *OrderHandler) RegisterRoutes(router fiber.Router, guards Guards) {
	orderRoutes := router.Group("/orders", guards.Auth)
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Get("/:id/contract", h.HandleGetContract)
	orderRoutes.Post("/", h.HandleCreateOrder)
	orderRoutes.Patch("/:id/status", guards.Admin, h.HandleUpdateOrderStatus)
	orderRoutes.Delete("/:id", guards.Admin, h.HandleDeleteOrder)
}

// HandleGetOrders lists every order for admins and the caller's own orders otherwise.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	var (
		orders []models.Order
		err    error
	)
	if middleware.IsAdmin(c) {
		orders, err = h.service.GetAllOrders(c.UserContext())
	} else {
		orders, err = h.service.GetUserOrders(c.UserContext(), middleware.UserID(c))
	}
	if err != nil {
		return respondError(c, err, "Could not retrieve orders")
	}
	return c.JSON(orders)
}

// ownedOrder loads the order and hides it from anyone but its owner and admins.
func (h *OrderHandler) ownedOrder(c *fiber.Ctx) (*models.Order, error) {
	orderID := c.Params("id")
	order, err := h.service.GetOrderByID(c.UserContext(), orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != middleware.UserID(c) && !middleware.IsAdmin(c) {
		return nil, fmt.Errorf("order with ID %s not found: %w", orderID, apperrors.ErrNotFound)
	}
	return order, nil
}

// HandleGetOrderByID retrieves a single order by its ID.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	order, err := h.ownedOrder(c)
	if err != nil {
		return respondError(c, err, "Could not retrieve order")
	}
	return c.JSON(order)
}

// HandleGetContract streams the rental agreement PDF for the order.
func (h *OrderHandler) HandleGetContract(c *fiber.Ctx) error {
	order, err := h.ownedOrder(c)
	if err != nil {
		return respondError(c, err, "Could not retrieve order")
	}
	customer, err := h.customers.GetUser(c.UserContext(), order.UserID)
	if err != nil {
		return respondError(c, err, "Could not load order customer")
	}

	pdf, err := h.contracts.Render(order, customer)
	if err != nil {
		return respondError(c, err, "Could not generate contract")
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, contract.FileName(order)))
	return c.Send(pdf)
}

// OrderItemRequest is one line of a direct order. Dates are optional and go together.
type OrderItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
	StartDate string `json:"start_date" validate:"required_with=EndDate"`
	EndDate   string `json:"end_date" validate:"required_with=StartDate"`
}

// ContactRequest carries delivery details shared by direct orders and checkout.
type ContactRequest struct {
	DeliveryAddress string `json:"delivery_address" validate:"max=500"`
	ContactPhone    string `json:"contact_phone" validate:"max=32"`
	Notes           string `json:"notes" validate:"max=2000"`
	Channel         string `json:"channel" validate:"omitempty,oneof=email messaging"`
}

type CreateOrderRequest struct {
	Items        []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	DiscountCode string             `json:"discount_code" validate:"max=64"`
	ContactRequest
}

func (r CreateOrderRequest) input(userID string) (services.CreateOrderInput, error) {
	items := make([]services.OrderItemInput, 0, len(r.Items))
	for _, it := range r.Items {
		start, err := parseDate("start_date", it.StartDate)
		if err != nil {
			return services.CreateOrderInput{}, err
		}
		end, err := parseDate("end_date", it.EndDate)
		if err != nil {
			return services.CreateOrderInput{}, err
		}
		items = append(items, services.OrderItemInput{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			StartDate: start,
			EndDate:   end,
		})
	}
	return services.CreateOrderInput{
		UserID:          userID,
		Items:           items,
		DiscountCode:    r.DiscountCode,
		DeliveryAddress: r.DeliveryAddress,
		ContactPhone:    r.ContactPhone,
		Notes:           r.Notes,
		Channel:         models.Channel(r.Channel),
	}, nil
}

// HandleCreateOrder creates an order for the caller from explicit lines.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var req CreateOrderRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}

	in, err := req.input(middleware.UserID(c))
	if err != nil {
		return respondError(c, err, "Could not create order")
	}
	createdOrder, err := h.service.CreateOrder(c.UserContext(), in)
	if err != nil {
		return respondError(c, err, "Could not create order")
	}

	// Return the created order with its new ID and a 201 Created status
	return c.Status(fiber.StatusCreated).JSON(createdOrder)
}

type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// HandleUpdateOrderStatus updates the status of an existing order.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	var req StatusRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}

	order, err := h.service.UpdateOrderStatus(c.UserContext(), c.Params("id"), models.OrderStatus(req.Status))
	if err != nil {
		return respondError(c, err, "Could not update order status")
	}
	return c.JSON(order)
}

func (h *OrderHandler) HandleDeleteOrder(c *fiber.Ctx) error {
	if err := h.service.DeleteOrder(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, err, "Could not delete order")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
