// Package shop holds the error taxonomy shared by the storefront services.
package shop

import (
	"errors"
	"fmt"
)

var (
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrConflict           = errors.New("document was modified concurrently, reload and retry")
	ErrForbidden          = errors.New("forbidden")
)

// ValidationError reports a malformed or missing input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Invalid is shorthand for building a ValidationError.
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// BlockedAccountError is returned when a block record vetoes a login.
type BlockedAccountError struct {
	Reason string
}

func (e *BlockedAccountError) Error() string {
	return "account is blocked: " + e.Reason
}

// RegistrationError wraps a failure to create an account.
type RegistrationError struct {
	Err error
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("registration failed: %v", e.Err)
}

func (e *RegistrationError) Unwrap() error { return e.Err }

// PaymentError wraps any failure to persist an order. No payment processor
// is contacted; the name matches what the storefront shows the shopper.
type PaymentError struct {
	Err error
}

func (e *PaymentError) Error() string {
	return fmt.Sprintf("payment failed: %v", e.Err)
}

func (e *PaymentError) Unwrap() error { return e.Err }

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsBlocked returns the block reason when err is a BlockedAccountError.
func IsBlocked(err error) (string, bool) {
	var be *BlockedAccountError
	if errors.As(err, &be) {
		return be.Reason, true
	}
	return "", false
}
