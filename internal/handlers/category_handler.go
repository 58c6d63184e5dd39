package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"rentstore/internal/models"
	"rentstore/internal/services"
)

type CategoryHandler struct {
	service  *services.CategoryService
	validate *validator.Validate
}

func NewCategoryHandler(service *services.CategoryService) *CategoryHandler {
	return &CategoryHandler{service: service, validate: validator.New()}
}

func (h *CategoryHandler) RegisterRoutes(router fiber.Router, guards Guards) {
	categoryRoutes := router.Group("/categories")
	categoryRoutes.Get("/", h.HandleGetCategories)
	categoryRoutes.Get("/:slug", h.HandleGetCategoryBySlug)
	categoryRoutes.Post("/", guards.Auth, guards.Admin, h.HandleCreateCategory)
	categoryRoutes.Put("/:id", guards.Auth, guards.Admin, h.HandleUpdateCategory)
	categoryRoutes.Delete("/:id", guards.Auth, guards.Admin, h.HandleDeleteCategory)
}

type CategoryRequest struct {
	Name         string `json:"name" validate:"required,max=120"`
	Description  string `json:"description"`
	Image        string `json:"image" validate:"omitempty,url"`
	DisplayOrder int    `json:"display_order"`
}

func (r CategoryRequest) apply(cat *models.Category) {
	cat.Name = r.Name
	cat.Description = r.Description
	cat.Image = r.Image
	cat.DisplayOrder = r.DisplayOrder
}

func (h *CategoryHandler) HandleGetCategories(c *fiber.Ctx) error {
	categories, err := h.service.GetAllCategories(c.UserContext())
	if err != nil {
		return respondError(c, err, "Could not retrieve categories")
	}
	return c.JSON(categories)
}

func (h *CategoryHandler) HandleGetCategoryBySlug(c *fiber.Ctx) error {
	category, err := h.service.GetCategoryBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return respondError(c, err, "Could not retrieve category")
	}
	return c.JSON(category)
}

func (h *CategoryHandler) HandleCreateCategory(c *fiber.Ctx) error {
	var req CategoryRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}

	var category models.Category
	req.apply(&category)
	if err := h.service.CreateCategory(c.UserContext(), &category); err != nil {
		return respondError(c, err, "Could not create category")
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

func (h *CategoryHandler) HandleUpdateCategory(c *fiber.Ctx) error {
	var req CategoryRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}

	category := models.Category{ID: c.Params("id")}
	req.apply(&category)
	if err := h.service.UpdateCategory(c.UserContext(), &category); err != nil {
		return respondError(c, err, "Could not update category")
	}
	return c.JSON(category)
}

func (h *CategoryHandler) HandleDeleteCategory(c *fiber.Ctx) error {
	if err := h.service.DeleteCategory(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, err, "Could not delete category")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
