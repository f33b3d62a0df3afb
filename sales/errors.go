/*
errors.go - Error taxonomy for the sales engine

PURPOSE:
  All error types in one place. Repository operations return these; the
  forecast engine never does (it reports failures as values).

ERROR CATEGORIES:
  1. Validation errors - a field cannot be coerced to its semantic type.
     Raised before any store mutation.
  2. Store errors - a statement failed. The transaction was rolled back and
     the connection released before the error was returned.
  3. Not-found - NOT an error. Get returns nil, update/delete return 0 rows.

USAGE:
  id, err := store.InsertSale(ctx, in)
  switch {
  case errors.Is(err, sales.ErrValidation):
      // bad input, store untouched
  case errors.Is(err, sales.ErrForeignKey):
      // referenced product/client missing, or still referenced on delete
  case errors.Is(err, sales.ErrStore):
      // any other persistence failure
  }
*/
package sales

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("invalid field value")

	// ErrStore is matched by every *StoreError.
	ErrStore = errors.New("store operation failed")

	// ErrForeignKey is matched by a *StoreError caused by a foreign-key
	// constraint violation.
	ErrForeignKey = errors.New("foreign key constraint failed")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// ValidationError reports a field that failed coercion or validation.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, fmt.Sprint(e.Value), e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// StoreError reports a failed repository operation. Op is the operation
// ("insert", "list", ...) and Entity the record kind ("sale", ...).
type StoreError struct {
	Op     string
	Entity string
	Err    error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Entity, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is makes every StoreError match ErrStore in addition to its cause chain.
func (e *StoreError) Is(target error) bool {
	return target == ErrStore
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsConflict returns true if the error is a referential-integrity conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrForeignKey)
}
