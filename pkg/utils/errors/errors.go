// Package errors defines the application error taxonomy.
//
// Validation errors identify the offending field and mean the affected
// sub-computation is withheld rather than approximated. Degraded inputs that
// were substituted with documented defaults are not errors at all; they are
// recorded as warning annotations on the produced values.
package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies an AppError.
type ErrorType uint

const (
	// ErrorTypeUnknown is the zero classification.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeValidation marks malformed or missing required input.
	ErrorTypeValidation
	// ErrorTypeNotFound marks a missing resource.
	ErrorTypeNotFound
	// ErrorTypeInternal marks an unexpected internal failure.
	ErrorTypeInternal
)

// AppError carries a classification, an optional offending field, and an
// optional wrapped cause.
type AppError struct {
	Type    ErrorType
	Field   string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	switch {
	case e.Field != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Field, e.Message, e.Err)
	case e.Field != "":
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	default:
		return e.Message
	}
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Validation creates a validation error naming the offending field.
func Validation(field, message string) error {
	return &AppError{Type: ErrorTypeValidation, Field: field, Message: message}
}

// Validationf creates a validation error with a formatted message.
func Validationf(field, format string, args ...interface{}) error {
	return &AppError{Type: ErrorTypeValidation, Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFound creates a not-found error.
func NotFound(message string) error {
	return &AppError{Type: ErrorTypeNotFound, Message: message}
}

// Internal creates an internal error.
func Internal(message string) error {
	return &AppError{Type: ErrorTypeInternal, Message: message}
}

// Wrap wraps err with a message, preserving the classification of the
// innermost AppError if there is one.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return &AppError{Type: ae.Type, Field: ae.Field, Message: message, Err: err}
	}
	return &AppError{Type: ErrorTypeUnknown, Message: message, Err: err}
}

// Wrapf wraps err with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	return Wrap(err, fmt.Sprintf(format, args...))
}

// IsValidation reports whether err is (or wraps) a validation error.
func IsValidation(err error) bool {
	var ae *AppError
	return errors.As(err, &ae) && ae.Type == ErrorTypeValidation
}

// IsNotFound reports whether err is (or wraps) a not-found error.
func IsNotFound(err error) bool {
	var ae *AppError
	return errors.As(err, &ae) && ae.Type == ErrorTypeNotFound
}

// FieldOf returns the offending field of err, if it carries one.
func FieldOf(err error) string {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Field
	}
	return ""
}
