package models

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// NotFoundError indicates a referenced entity does not exist or is not
// owned by the caller. Ownership failures are deliberately indistinguishable
// from absence.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// ValidationError indicates missing or malformed request fields. Surfaced
// before any persistence is attempted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// InsufficientSharesError indicates a sell exceeds the current position.
type InsufficientSharesError struct {
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientSharesError) Error() string {
	return fmt.Sprintf("cannot sell %s shares, only %s held", e.Requested, e.Available)
}

// NegativeSharesError indicates a transaction deletion would drive the
// position below zero.
type NegativeSharesError struct {
	Current decimal.Decimal
	Delta   decimal.Decimal
}

func (e *NegativeSharesError) Error() string {
	return fmt.Sprintf("deleting this transaction would leave %s shares", e.Current.Sub(e.Delta))
}

// ConflictError indicates a unique-constraint violation, e.g. a duplicate
// ISIN mapping for the same user.
type ConflictError struct {
	Resource string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s already exists", e.Resource)
}

// QuoteUnavailableError indicates the quote capability could not produce a
// price for a symbol. Callers recover via fallback prices; this error is
// never propagated as a hard failure.
type QuoteUnavailableError struct {
	Symbol string
	Err    error
}

func (e *QuoteUnavailableError) Error() string {
	return fmt.Sprintf("no quote available for %s: %v", e.Symbol, e.Err)
}

func (e *QuoteUnavailableError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var c *ConflictError
	return errors.As(err, &c)
}
