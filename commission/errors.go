/*
errors.go - Centralized error types for the commission engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The API layer classifies these with the helpers at the bottom to
  choose HTTP status codes.

ERROR CATEGORIES:
  1. Input errors     - Malformed amounts or payout keys (caller's fault)
  2. Business errors  - Insufficient funds, stale-state conflicts
  3. Authorization    - Executive capability missing
  4. Transport errors - Ledger unreadable; retry is safe

USAGE:
  if errors.Is(err, commission.ErrInsufficientFunds) {
      var ife *commission.InsufficientFundsError
      errors.As(err, &ife) // Available, Requested, Shortfall
  }

SEE ALSO:
  - reconciler.go: Wraps ledger failures in DataUnavailableError
  - workflow.go: Returns business and authorization errors
*/
package commission

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidInput is returned for malformed amounts or payout keys.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInsufficientFunds is returned when a withdrawal exceeds the
	// seller's available balance.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrAlreadyProcessed is returned when processing a request that has
	// already reached a terminal state. Expected under concurrent
	// approval/rejection; the caller should refresh.
	ErrAlreadyProcessed = errors.New("withdrawal request already processed")

	// ErrUnauthorized is returned when the workflow is invoked without the
	// executive capability. The auth collaborator should have blocked this
	// earlier; seeing it indicates a bug upstream, not a retryable state.
	ErrUnauthorized = errors.New("executive capability required")

	// ErrDataUnavailable is returned when the underlying ledgers cannot be
	// read or written. Transient; retrying the whole operation is safe.
	ErrDataUnavailable = errors.New("ledger data unavailable")

	// ErrSellerNotFound is returned when a referenced seller doesn't exist.
	ErrSellerNotFound = errors.New("seller not found")

	// ErrRequestNotFound is returned when a referenced withdrawal request
	// doesn't exist.
	ErrRequestNotFound = errors.New("withdrawal request not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientFundsError provides details about a balance shortage.
type InsufficientFundsError struct {
	SellerID  SellerID
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: available %s, requested %s, shortfall %s",
		e.Available, e.Requested, e.Shortfall())
}

func (e *InsufficientFundsError) Unwrap() error {
	return ErrInsufficientFunds
}

// Shortfall is the amount by which the request exceeds the balance.
func (e *InsufficientFundsError) Shortfall() decimal.Decimal {
	return e.Requested.Sub(e.Available)
}

// DataUnavailableError wraps a storage failure with the operation that hit it.
type DataUnavailableError struct {
	Op  string
	Err error
}

func (e *DataUnavailableError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *DataUnavailableError) Unwrap() []error {
	return []error{ErrDataUnavailable, e.Err}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input
// or a recoverable business-rule violation.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInsufficientFunds)
}

// IsConflict returns true for stale-state conflicts (request already
// handled; the caller should refresh and retry from current state).
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyProcessed)
}

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrDataUnavailable)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSellerNotFound) ||
		errors.Is(err, ErrRequestNotFound)
}
