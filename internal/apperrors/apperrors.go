package apperrors

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrPriceUnavailable signals that the provider has no price for a symbol.
// It is not a hard failure: callers exclude the asset and keep going.
var ErrPriceUnavailable = errors.New("price unavailable")

// ErrValidation describes a rejected input field.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return e.Field + ": " + e.Message
}

// NotFoundError is returned when a referenced entity does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// NewNotFound builds a NotFoundError for the given entity and identifier.
func NewNotFound(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// InsufficientHoldingsError rejects a sell that exceeds the held quantity.
// The whole operation is rolled back; no partial state survives.
type InsufficientHoldingsError struct {
	Symbol    string
	Held      decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientHoldingsError) Error() string {
	return fmt.Sprintf("insufficient holdings of %s: held %s, requested %s",
		e.Symbol, e.Held.String(), e.Requested.String())
}

// ProviderError wraps a per-symbol failure during a batch price refresh.
// The refresh logs it and continues with the remaining symbols.
type ProviderError struct {
	Symbol string
	Err    error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error for %s: %v", e.Symbol, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
