// Package validator adapts go-playground/validator to echo.Validator.
package validator

import (
	domainerrors "streetsearch/internal/domain/errors"

	"github.com/go-playground/validator/v10"
)

// CustomValidator validates bound request bodies
type CustomValidator struct {
	validator *validator.Validate
}

// New creates a validator for echo
func New() *CustomValidator {
	return &CustomValidator{validator: validator.New()}
}

// Validate implements echo.Validator. Failures are reported as VALIDATION_FAILED.
func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return domainerrors.ErrValidationFailed.WithDetails(err.Error())
	}

	return nil
}
