package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound    = errors.New("resource not found")
	ErrRunNotFound = fmt.Errorf("%w: run", ErrNotFound)

	// Input errors
	ErrInvalidInput     = errors.New("invalid input")
	ErrMissingField     = fmt.Errorf("%w: missing required field", ErrInvalidInput)
	ErrZeroDenominator  = fmt.Errorf("%w: non-positive denominator", ErrInvalidInput)
	ErrUnknownMethod    = fmt.Errorf("%w: unknown update method", ErrInvalidInput)
	ErrNonFiniteInput   = fmt.Errorf("%w: non-finite value", ErrInvalidInput)
	ErrInsufficientData = errors.New("insufficient data for aggregation")

	// Numerical errors
	ErrNumericalDegeneracy = errors.New("numerical degeneracy")
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewMissingFieldError(method, field string) error {
	return fmt.Errorf("%w %s for method %s", ErrMissingField, field, method)
}

func NewDenominatorError(field string, value float64) error {
	return fmt.Errorf("%w: %s = %g", ErrZeroDenominator, field, value)
}

func NewNonFiniteInputError(field string, value float64) error {
	return fmt.Errorf("%w: %s = %g", ErrNonFiniteInput, field, value)
}

func NewDegeneracyError(quantity string, value float64) error {
	return fmt.Errorf("%w: %s is %g", ErrNumericalDegeneracy, quantity, value)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

func IsNumericalDegeneracy(err error) bool {
	return errors.Is(err, ErrNumericalDegeneracy)
}
