package store

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("not found")

// GatewayError wraps any failed call to the backing store. Status is the
// HTTP status for the REST gateway and zero otherwise.
type GatewayError struct {
	Op     string
	Status int
	Err    error
}

func (e *GatewayError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("gateway %s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("gateway %s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

func gatewayErr(op string, status int, err error) error {
	return &GatewayError{Op: op, Status: status, Err: err}
}

// IsNotFound reports whether err means the document does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
