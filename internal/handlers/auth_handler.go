package handlers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"rentstore/internal/apperrors"
	"rentstore/internal/middleware"
	"rentstore/internal/models"
	"rentstore/internal/services"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the authentication routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router, guards Guards) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/register", h.HandleRegister)
	authRoutes.Post("/login", h.HandleLogin)
	authRoutes.Post("/forgot-password", h.HandleForgotPassword)
	authRoutes.Post("/reset-password", h.HandleResetPassword)
	authRoutes.Get("/me", guards.Auth, h.HandleMe)
	authRoutes.Patch("/me", guards.Auth, h.HandleUpdateProfile)
}

// RegisterRequest represents the request body for registration.
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	FirstName string `json:"first_name" validate:"max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
	Phone     string `json:"phone" validate:"max=32"`
}

// HandleRegister handles new user registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req RegisterRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}

	user, err := h.authService.RegisterUser(c.UserContext(), services.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	})
	if err != nil {
		return respondError(c, err, "Registration failed")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"user":    user,
	})
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// HandleLogin handles user login and issues a JWT token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}

	token, user, err := h.authService.LoginUser(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err, "Authentication failed")
	}

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"token":   token,
		"user":    user,
	})
}

type ForgotPasswordRequest struct {
	Email   string `json:"email" validate:"required,email"`
	Channel string `json:"channel" validate:"omitempty,oneof=email messaging"`
}

// HandleForgotPassword sends a reset code. Unknown emails get the same answer as known ones.
func (h *AuthHandler) HandleForgotPassword(c *fiber.Ctx) error {
	var req ForgotPasswordRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}

	result, err := h.authService.ForgotPassword(c.UserContext(), req.Email, models.Channel(req.Channel))
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return respondError(c, err, "Could not send reset code")
	}

	return c.JSON(fiber.Map{
		"message": "If the account exists, a reset code has been sent",
		"demo":    result.Demo,
	})
}

type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Code        string `json:"code" validate:"required,len=6,numeric"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

func (h *AuthHandler) HandleResetPassword(c *fiber.Ctx) error {
	var req ResetPasswordRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}

	if err := h.authService.ResetPassword(c.UserContext(), req.Email, req.Code, req.NewPassword); err != nil {
		return respondError(c, err, "Password reset failed")
	}
	return c.JSON(fiber.Map{"message": "Password has been reset"})
}

// HandleMe returns the authenticated user's profile.
func (h *AuthHandler) HandleMe(c *fiber.Ctx) error {
	user, err := h.authService.GetUser(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, err, "Could not retrieve profile")
	}
	return c.JSON(user)
}

// UpdateProfileRequest changes only the fields present in the body.
type UpdateProfileRequest struct {
	FirstName         *string `json:"first_name" validate:"omitempty,max=100"`
	LastName          *string `json:"last_name" validate:"omitempty,max=100"`
	Phone             *string `json:"phone" validate:"omitempty,max=32"`
	NotificationEmail *string `json:"notification_email" validate:"omitempty,email"`
	WhatsAppPhone     *string `json:"whatsapp_phone" validate:"omitempty,max=32"`
	PreferredChannel  *string `json:"preferred_channel" validate:"omitempty,oneof=email messaging"`
	CurrentPassword   string  `json:"current_password"`
	NewPassword       string  `json:"new_password" validate:"omitempty,min=6"`
}

func (h *AuthHandler) HandleUpdateProfile(c *fiber.Ctx) error {
	var req UpdateProfileRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}

	in := services.UpdateProfileInput{
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Phone:             req.Phone,
		NotificationEmail: req.NotificationEmail,
		WhatsAppPhone:     req.WhatsAppPhone,
		CurrentPassword:   req.CurrentPassword,
		NewPassword:       req.NewPassword,
	}
	if req.PreferredChannel != nil {
		ch := models.Channel(*req.PreferredChannel)
		in.PreferredChannel = &ch
	}

	user, err := h.authService.UpdateProfile(c.UserContext(), middleware.UserID(c), in)
	if err != nil {
		return respondError(c, err, "Could not update profile")
	}
	return c.JSON(user)
}
