package errors

import (
	"net/http"

	"streetsearch/internal/errors"
)

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	HTTPCode() int     // HTTP status code
	ErrorCode() string // Business error code
	Message() string   // User-friendly error message
	Details() string   // Detailed error information (optional)
}

// BaseError is a basic error structure that implements the AppError interface
type BaseError struct {
	httpCode  int
	errorCode string
	message   string
	details   string
}

// NewBaseError creates a new base error
func NewBaseError(httpCode int, errorCode, message, details string) *BaseError {
	return &BaseError{
		httpCode:  httpCode,
		errorCode: errorCode,
		message:   message,
		details:   details,
	}
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.details != "" {
		return e.message + ": " + e.details
	}

	return e.message
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

// HTTPCode returns the HTTP status code
func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

// ErrorCode returns the business error code
func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

// Message returns the user-friendly error message
func (e *BaseError) Message() string {
	return e.message
}

// Details returns detailed error information
func (e *BaseError) Details() string {
	return e.details
}

// WithDetails adds detailed error information
func (e *BaseError) WithDetails(details string) *BaseError {
	return &BaseError{
		httpCode:  e.httpCode,
		errorCode: e.errorCode,
		message:   e.message,
		details:   details,
	}
}

// Is matches any BaseError carrying the same error code, so a copy made by
// WithDetails still satisfies errors.Is against the predefined value
func (e *BaseError) Is(target error) bool {
	other, ok := target.(*BaseError)
	if !ok {
		return false
	}

	return e.errorCode == other.errorCode
}

// Predefined error types
var (
	// Engine errors
	ErrEngineNotReady = NewBaseError(
		http.StatusServiceUnavailable,
		"ENGINE_NOT_READY",
		"Routing engine is not ready",
		"",
	)

	ErrSnapDistanceExceeded = NewBaseError(
		http.StatusUnprocessableEntity,
		"SNAP_DISTANCE_EXCEEDED",
		"Coordinate is too far from the road network",
		"",
	)

	ErrSearchFailed = NewBaseError(
		http.StatusInternalServerError,
		"SEARCH_FAILED",
		"Search failed",
		"",
	)

	ErrSearchCanceled = NewBaseError(
		http.StatusServiceUnavailable,
		"SEARCH_CANCELED",
		"Search was canceled before it finished",
		"",
	)

	// Request errors
	ErrValidationFailed = NewBaseError(
		http.StatusBadRequest,
		"VALIDATION_FAILED",
		"Request validation failed",
		"",
	)

	ErrInvalidRequest = NewBaseError(
		http.StatusBadRequest,
		"INVALID_REQUEST",
		"Invalid routing request",
		"",
	)

	ErrTooManyItems = NewBaseError(
		http.StatusBadRequest,
		"TOO_MANY_ITEMS",
		"Too many items in one request",
		"",
	)
)
