package invoice

import (
	"errors"
	"fmt"

	"github.com/LeeviJ/triolasku-sub000/internal/store"
)

// Common invoice errors
var (
	// ErrCompanyNotFound is returned when the issuing company does not exist.
	ErrCompanyNotFound = store.ErrCompanyNotFound

	// ErrCustomerNotFound is returned when the referenced customer does not exist.
	ErrCustomerNotFound = store.ErrCustomerNotFound

	// ErrInvoiceNotFound is returned when the invoice does not exist.
	ErrInvoiceNotFound = store.ErrInvoiceNotFound

	// ErrInvalidStatus is returned for a status outside draft, ready, sent,
	// paid and overdue.
	ErrInvalidStatus = errors.New("invalid invoice status")

	// ErrMissingCompany is returned when an invoice has no company id.
	ErrMissingCompany = errors.New("invoice has no company")
)

// InvoiceError wraps errors with the invoice operation that failed.
type InvoiceError struct {
	// Op is the operation that failed (e.g., "Save", "SetStatus").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *InvoiceError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("invoice: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("invoice: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *InvoiceError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *InvoiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewInvoiceError creates a new InvoiceError.
func NewInvoiceError(op string, err error, details string) *InvoiceError {
	return &InvoiceError{
		Op:      op,
		Err:     err,
		Details: details,
	}
}

// WrapInvoiceError wraps an error as an InvoiceError if it isn't already one.
func WrapInvoiceError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var invoiceErr *InvoiceError
	if errors.As(err, &invoiceErr) {
		return err
	}

	return NewInvoiceError(op, err, details)
}

// ValidationError represents errors in invoice data validation.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s (value: %v)", e.Field, e.Message, e.Value)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}
