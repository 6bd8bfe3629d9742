package errors

import (
	stderrors "errors"
	"fmt"
)

// Error codes used across the service.
const (
	CodeValidation    = "VALIDATION_ERROR"
	CodeConfiguration = "CONFIGURATION_ERROR"
	CodeDelivery      = "DELIVERY_ERROR"
	CodeNotFound      = "NOT_FOUND"
	CodeInternal      = "INTERNAL_ERROR"
)

// AppError represents an application error with a stable code.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s - %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause to errors.Is/As.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewValidationError creates an error for malformed caller input. No side
// effects may have been committed when one is returned.
func NewValidationError(message string, err error) *AppError {
	return &AppError{Code: CodeValidation, Message: message, Err: err}
}

// NewConfigurationError creates an error for inconsistent rule or template
// configuration. The offending rule is skipped, never fatal.
func NewConfigurationError(message string, err error) *AppError {
	return &AppError{Code: CodeConfiguration, Message: message, Err: err}
}

// NewDeliveryError creates an error for a per-channel send failure. It is
// recorded on the channel log and isolated there.
func NewDeliveryError(message string, err error) *AppError {
	return &AppError{Code: CodeDelivery, Message: message, Err: err}
}

// NewNotFoundError creates a new not found error.
func NewNotFoundError(message string, err error) *AppError {
	return &AppError{Code: CodeNotFound, Message: message, Err: err}
}

// NewInternalError creates a new internal error.
func NewInternalError(message string, err error) *AppError {
	return &AppError{Code: CodeInternal, Message: message, Err: err}
}

// HasCode reports whether err is an AppError carrying the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr) && appErr.Code == code
}
