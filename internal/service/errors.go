package service

import (
	"errors"
	"fmt"
)

// Sentinel failures of the ticketing operations.  Handlers map them to HTTP
// statuses with errors.Is / errors.As.
var (
	ErrEmptyCart    = errors.New("cart is empty")
	ErrCartChanged  = errors.New("cart changed during checkout")
	ErrUnauthorized = errors.New("invalid credentials")
	ErrForbidden    = errors.New("forbidden")
	ErrEmailTaken   = errors.New("email already registered")
)

// NotFoundError reports a missing catalog, cart or ticket entity.
type NotFoundError struct {
	Entity string // "event", "offer", "sport", "cart item", "ticket", "user"
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func notFound(entity string, id interface{}) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: fmt.Sprint(id)}
}

// InsufficientCapacityError reports that an event cannot absorb the seats
// an item needs.  Requested and Available are seat counts, not offer
// quantities.
type InsufficientCapacityError struct {
	EventID   uint64
	EventName string
	Requested int
	Available int
}

func (e *InsufficientCapacityError) Error() string {
	return fmt.Sprintf("not enough seats for %s: requested %d, available %d",
		e.EventName, e.Requested, e.Available)
}

// InvalidInputError reports a request value outside its allowed range.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StorageError wraps an unexpected persistence failure.  Its message is
// for logs only and must not reach clients.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *StorageError) Unwrap() error { return e.Err }

func storage(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
