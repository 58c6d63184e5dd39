// Package apperrors holds the error categories shared by services and handlers.
// Callers wrap one of these with fmt.Errorf("...: %w", ...) and classify with errors.Is.
package apperrors

import "errors"

var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrNotApplicable     = errors.New("not applicable")
	ErrChannelNotReady   = errors.New("notification channel not ready")
	ErrPersistence       = errors.New("persistence failure")
	ErrAuth              = errors.New("authentication failed")
	ErrForbidden         = errors.New("forbidden")
	ErrConflict          = errors.New("conflict")
	ErrInvalidTransition = errors.New("invalid status transition")
)
