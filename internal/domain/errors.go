package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Errores compartidos por todos los módulos de dominio.
var (
	ErrValidation         = errors.New("validation error")
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrPreconditionFailed = errors.New("precondition failed")
)

// FieldError describe un campo inválido de un formulario.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError junta todos los campos inválidos de un submit.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Errors: []FieldError{{Field: field, Message: message}}}
}

// Checker acumula errores de campo; Err devuelve nil si no hubo ninguno.
type Checker struct {
	errs []FieldError
}

func (c *Checker) Add(field, message string) {
	c.errs = append(c.errs, FieldError{Field: field, Message: message})
}

// Required falla si el string está vacío (ignorando espacios).
func (c *Checker) Required(field, value string) bool {
	if strings.TrimSpace(value) == "" {
		c.Add(field, "required")
		return false
	}
	return true
}

// Length exige min <= len(value) <= max (max 0 = sin tope).
func (c *Checker) Length(field, value string, min, max int) {
	n := len([]rune(strings.TrimSpace(value)))
	if n < min {
		c.Add(field, fmt.Sprintf("must be at least %d characters", min))
		return
	}
	if max > 0 && n > max {
		c.Add(field, fmt.Sprintf("must be at most %d characters", max))
	}
}

func (c *Checker) Positive(field string, value float64) {
	if value <= 0 {
		c.Add(field, "must be positive")
	}
}

func (c *Checker) PositiveInt(field string, value float64) {
	if value <= 0 || value != float64(int64(value)) {
		c.Add(field, "must be a positive integer")
	}
}

func (c *Checker) NonNegative(field string, value float64) {
	if value < 0 {
		c.Add(field, "must not be negative")
	}
}

func (c *Checker) OneOf(field, value string, allowed ...string) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	c.Add(field, "must be one of "+strings.Join(allowed, ", "))
}

func (c *Checker) Err() error {
	if len(c.errs) == 0 {
		return nil
	}
	return &ValidationError{Errors: c.errs}
}
