package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for VIN validation failures.
var (
	ErrMissingVIN    = errors.New("missing VIN")
	ErrVINLength     = errors.New("wrong VIN length")
	ErrVINCharacters = errors.New("invalid VIN characters")
)

// User-facing messages, one per failure the checker can surface.
const (
	MsgMissingVIN     = "Please enter a VIN"
	MsgVINLength      = "VIN must be exactly 17 characters"
	MsgVINCharacters  = "Invalid VIN format. VINs cannot contain letters I, O, or Q."
	MsgNetwork        = "Network error. Please check your connection and try again."
	MsgDecodeFailed   = "Failed to decode VIN. Please try again."
	MsgDecodeNoResult = "Could not decode VIN. Please check if the VIN is valid."
)

var validationMessages = map[error]string{
	ErrMissingVIN:    MsgMissingVIN,
	ErrVINLength:     MsgVINLength,
	ErrVINCharacters: MsgVINCharacters,
}

// ValidationError wraps a sentinel with context.
type ValidationError struct {
	Field   string
	Value   string
	Wrapped error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s (value=%q)", e.Wrapped, e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error { return e.Wrapped }

// Message returns the text shown to the user for this failure.
func (e *ValidationError) Message() string {
	if m, ok := validationMessages[e.Wrapped]; ok {
		return m
	}
	return e.Error()
}

// NewValidationError creates a ValidationError.
func NewValidationError(field, value string, wrapped error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Wrapped: wrapped}
}
