// Package domain holds the error vocabulary shared by the stores, the services
// and the HTTP layer.
package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrNotFound indicates that a referenced row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden indicates the actor lacks the capability or ownership.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict indicates a unique-key clash.
	ErrConflict = errors.New("conflict")

	// ErrPrecondition indicates a blocking precondition, e.g. submitting
	// against a conference without criteria.
	ErrPrecondition = errors.New("precondition failed")
)

// ValidationError lists every input invariant that failed for one entity.
type ValidationError struct {
	Entity string
	Errors []string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation error for %s: %s", e.Entity, e.Errors[0])
	}
	return fmt.Sprintf("validation errors for %s: %s", e.Entity, strings.Join(e.Errors, "; "))
}

func (e *ValidationError) Add(format string, args ...any) {
	e.Errors = append(e.Errors, fmt.Sprintf(format, args...))
}

func (e *ValidationError) HasErrors() bool { return len(e.Errors) > 0 }

// Err returns e when it carries failures, nil otherwise.
func (e *ValidationError) Err() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

func NewValidationError(entity string) *ValidationError {
	return &ValidationError{Entity: entity}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateStruct runs struct-tag validation and folds the failures into a
// ValidationError.
func ValidateStruct(entity string, v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) {
		return err
	}
	ve := NewValidationError(entity)
	for _, f := range fields {
		if f.Param() != "" {
			ve.Add("%s failed %s=%s", f.Field(), f.Tag(), f.Param())
		} else {
			ve.Add("%s failed %s", f.Field(), f.Tag())
		}
	}
	return ve
}
