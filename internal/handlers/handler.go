package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"rentstore/internal/apperrors"
	"rentstore/internal/logger"
)

const dateLayout = "2006-01-02"

// Guards are the middlewares protected routes are registered behind.
type Guards struct {
	Auth  fiber.Handler
	Admin fiber.Handler
}

// decodeStrict reads a single JSON document into dst, rejecting fields dst does not declare.
// An empty body leaves dst untouched.
func decodeStrict(body []byte, dst any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

// bind parses the request body into dst and validates it. When ok is false the error
// response has already been written and err is what the handler must return.
func bind(c *fiber.Ctx, validate *validator.Validate, dst any) (ok bool, err error) {
	if err := decodeStrict(c.Body(), dst); err != nil {
		logger.Debug("Error parsing request body", "path", c.Path(), "error", err)
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := validate.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Validation failed",
				"error":   err.Error(),
			})
		}
		errorMessages := make(map[string]string)
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  errorMessages,
		})
	}
	return true, nil
}

// statusFor maps an application error category onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrPersistence):
		return fiber.StatusInternalServerError
	case errors.Is(err, apperrors.ErrChannelNotReady):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, apperrors.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, apperrors.ErrAuth):
		return fiber.StatusUnauthorized
	case errors.Is(err, apperrors.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, apperrors.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, apperrors.ErrConflict), errors.Is(err, apperrors.ErrInvalidTransition):
		return fiber.StatusConflict
	case errors.Is(err, apperrors.ErrNotApplicable):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes the JSON error body for err. Internal failures are logged and their
// details withheld from the client.
func respondError(c *fiber.Ctx, err error, message string) error {
	status := statusFor(err)
	if status >= fiber.StatusInternalServerError && status != fiber.StatusServiceUnavailable {
		logger.Error(message, "method", c.Method(), "path", c.Path(), "error", err)
		return c.Status(status).JSON(fiber.Map{"message": message})
	}
	logger.Debug(message, "method", c.Method(), "path", c.Path(), "error", err)
	return c.Status(status).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}

// parseDate accepts a calendar date or an RFC 3339 timestamp. Empty input yields nil.
func parseDate(field, raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{dateLayout, time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%s must be a date like 2006-01-02: %w", field, apperrors.ErrValidation)
}
