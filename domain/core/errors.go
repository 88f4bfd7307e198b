package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Input errors
	ErrEmptyInput       = errors.New("no values to summarize")
	ErrInvalidThreshold = errors.New("threshold must be greater than zero")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidCell      = errors.New("invalid cell value")

	// Data errors
	ErrNoData          = errors.New("no rows for date")
	ErrSchemaDetection = errors.New("required column not found")
	ErrTableNotFound   = errors.New("table not found")

	// Storage errors
	ErrUnsafeIdentifier = errors.New("unsafe SQL identifier")
)

// Error constructors with context
func NewNoDataError(table, date string) error {
	return fmt.Errorf("%w: %s on %s", ErrNoData, table, date)
}

func NewSchemaDetectionError(role string, columns []string) error {
	return fmt.Errorf("%w: no %s column among %v", ErrSchemaDetection, role, columns)
}

func NewInvalidThresholdError(threshold float64) error {
	return fmt.Errorf("%w: got %v", ErrInvalidThreshold, threshold)
}

func NewInvalidDateError(value string, err error) error {
	return fmt.Errorf("%w %q: %v", ErrInvalidDate, value, err)
}

// Error checking helpers
func IsEmptyInputError(err error) bool {
	return errors.Is(err, ErrEmptyInput)
}

func IsNoDataError(err error) bool {
	return errors.Is(err, ErrNoData)
}

func IsSchemaDetectionError(err error) bool {
	return errors.Is(err, ErrSchemaDetection)
}

func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidThreshold) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidCell) ||
		errors.Is(err, ErrUnsafeIdentifier)
}
