// Package apperr holds the error taxonomy shared by the server and the console.
package apperr

import (
	"errors"
	"fmt"

	"rmc-erp/internal/entity"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrOrderNotFound = fmt.Errorf("Order not found: %w", ErrNotFound)
	ErrUserNotFound  = fmt.Errorf("User not found: %w", ErrNotFound)

	ErrPlantNotFound      = fmt.Errorf("Plant not found: %w", ErrNotFound)
	ErrMixerNotFound      = fmt.Errorf("Transit mixer not found: %w", ErrNotFound)
	ErrAssignmentNotFound = fmt.Errorf("Assignment not found: %w", ErrNotFound)

	// ErrStaleOrder means the order changed between read and write.
	ErrStaleOrder = errors.New("order was modified concurrently")
	// ErrDuplicate means a row with the same unique key already exists.
	ErrDuplicate = errors.New("duplicate entry")
)

// ValidationError reports bad or missing input. Message is safe to show to users.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Validation builds a *ValidationError.
func Validation(msg string) error {
	return &ValidationError{Message: msg}
}

// AuthorizationError reports a role mismatch.
type AuthorizationError struct {
	Role     string
	Required string
}

func (e *AuthorizationError) Error() string {
	if e.Role == "" {
		return fmt.Sprintf("%s role required", e.Required)
	}
	return fmt.Sprintf("role %s is not allowed, %s required", e.Role, e.Required)
}

// InvalidTransitionError reports a status change the lifecycle does not allow.
type InvalidTransitionError struct {
	From entity.OrderStatus
	To   entity.OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("Order cannot move from %s to %s", e.From, e.To)
}

// ConflictError reports a scheduling clash with another order.
type ConflictError struct {
	Message         string
	ConflictOrderID string
}

func (e *ConflictError) Error() string { return e.Message }

// Message returns the user-facing text of err, or fallback when err carries none.
func Message(err error, fallback string) string {
	var ve *ValidationError
	var ce *ConflictError
	var te *InvalidTransitionError
	switch {
	case errors.As(err, &ve):
		return ve.Message
	case errors.As(err, &ce):
		return ce.Message
	case errors.As(err, &te):
		return te.Error()
	case errors.Is(err, ErrOrderNotFound):
		return "Order not found"
	case errors.Is(err, ErrUserNotFound):
		return "User not found"
	case errors.Is(err, ErrPlantNotFound):
		return "Plant not found"
	case errors.Is(err, ErrMixerNotFound):
		return "Transit mixer not found"
	case errors.Is(err, ErrAssignmentNotFound):
		return "Assignment not found"
	}
	return fallback
}
