package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Input errors
	ErrSchema        = errors.New("schema error")
	ErrBatchTooLarge = errors.New("batch exceeds row limit")

	// Model errors
	ErrModelNotFitted   = errors.New("model not fitted")
	ErrModelRequired    = errors.New("model required")
	ErrInsufficientData = errors.New("insufficient data for training")
)

// NewSchemaError reports a missing or non-numeric column. row is the zero-based
// row position, or -1 when the problem is frame-wide.
func NewSchemaError(column string, row int, reason string) error {
	if row < 0 {
		return fmt.Errorf("%w: column %s: %s", ErrSchema, column, reason)
	}
	return fmt.Errorf("%w: column %s, row %d: %s", ErrSchema, column, row, reason)
}

func NewBatchTooLargeError(rows, limit int) error {
	return fmt.Errorf("%w: %d rows, limit %d", ErrBatchTooLarge, rows, limit)
}

func NewModelNotFittedError(reason string) error {
	return fmt.Errorf("%w: %s", ErrModelNotFitted, reason)
}

func NewModelRequiredError(reason string) error {
	return fmt.Errorf("%w: %s", ErrModelRequired, reason)
}

func NewInsufficientDataError(labeled, minimum int) error {
	return fmt.Errorf("%w: %d labeled rows, need at least %d", ErrInsufficientData, labeled, minimum)
}

// Error checking helpers
func IsSchemaError(err error) bool {
	return errors.Is(err, ErrSchema)
}

func IsModelNotFittedError(err error) bool {
	return errors.Is(err, ErrModelNotFitted)
}

func IsModelRequiredError(err error) bool {
	return errors.Is(err, ErrModelRequired)
}

func IsInsufficientDataError(err error) bool {
	return errors.Is(err, ErrInsufficientData)
}

func IsBatchTooLargeError(err error) bool {
	return errors.Is(err, ErrBatchTooLarge)
}
