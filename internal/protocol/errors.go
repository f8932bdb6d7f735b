package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrNotConfigured     = errors.New("protocol: not configured")
	ErrInvalidTransition = errors.New("protocol: invalid state transition")
	ErrPrototypeNotFound = errors.New("protocol: no prototype matches message")
	ErrEmptyReceive      = errors.New("protocol: receive buffer is empty")
)

// TransactionError records a failed transaction for one device message.
type TransactionError struct {
	Device    string
	Message   string
	Iteration int
	Err       error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("transaction %s/%s (iteration %d): %v", e.Device, e.Message, e.Iteration, e.Err)
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}
