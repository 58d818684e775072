/*
Package commission implements the commission balance and withdrawal
reconciliation engine for the seller dashboard.

PURPOSE:
  This package contains the domain types and core algorithms for tracking
  a seller's earned commission: computing commission from the sale ledger,
  reserving funds against pending withdrawal requests, and processing
  approval/rejection of those requests while keeping the persisted balance
  snapshot consistent with the underlying transaction history.

KEY CONCEPTS IN THIS FILE (types.go):
  - Sale: An immutable sale record (source of gross revenue)
  - WithdrawalRequest: A seller's request to cash out commission
  - BalanceRecord: Derived per-seller balance snapshot
  - Seller: The account the ledgers are keyed by

DESIGN PRINCIPLES:
  1. Derived state: The balance is a pure function of the ledgers,
     recomputed wholesale rather than incrementally patched
  2. Precision: Uses decimal.Decimal to avoid floating-point errors
  3. Guarded transitions: A withdrawal request moves out of pending
     exactly once, via a conditional write

SEE ALSO:
  - calculator.go: Commission calculation from sales
  - reconciler.go: Balance recomputation and persistence
  - workflow.go: Withdrawal request lifecycle
  - store.go: Persistence interfaces
*/
package commission

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type SellerID string
type SaleID string
type RequestID string

// =============================================================================
// COMMISSION RATE
// =============================================================================

// DefaultCommissionRate is the fraction of gross sale value credited to
// the seller. Configurable at startup; see Calculator.
var DefaultCommissionRate = decimal.RequireFromString("0.10")

// MustParseDecimal parses a decimal string, returning zero on failure.
// For literals in wiring code and tests.
func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// =============================================================================
// SALE - Immutable fact, source of truth for gross revenue
// =============================================================================

// Sale records a completed sale. Sales are append-only: they are never
// mutated or deleted by this engine.
type Sale struct {
	ID          SaleID
	SellerID    SellerID
	GrossAmount decimal.Decimal
	Description string
	CreatedAt   time.Time
}

// =============================================================================
// WITHDRAWAL REQUEST - pending → approved | rejected
// =============================================================================

type WithdrawalStatus string

const (
	StatusPending  WithdrawalStatus = "pending"
	StatusApproved WithdrawalStatus = "approved"
	StatusRejected WithdrawalStatus = "rejected"
)

// Terminal reports whether the status admits no further transitions.
func (s WithdrawalStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// WithdrawalRequest is a seller's request to cash out earned commission.
// Created in pending state; transitions to approved or rejected exactly
// once, by an executive actor. Terminal states are final.
type WithdrawalRequest struct {
	ID              RequestID
	SellerID        SellerID
	RequestedAmount decimal.Decimal
	Status          WithdrawalStatus

	// PayoutKey is the destination identifier (e.g. a PIX key).
	PayoutKey string

	RequestedAt time.Time
	ProcessedAt *time.Time
	ProcessedBy string
	Notes       string
}

// =============================================================================
// BALANCE RECORD - Derived snapshot, one per seller
// =============================================================================

// BalanceRecord summarizes a seller's commission position. It is a
// materialized view over the sale ledger and the withdrawal request
// store: safe to discard and regenerate at any time, it holds no
// information not derivable from them.
//
// Invariants after every reconciliation:
//   - TotalCommission  = rate × Σ gross sale amounts
//   - WithdrawnAmount  = Σ approved request amounts
//   - AvailableAmount  = max(0, total − withdrawn − Σ pending amounts)
type BalanceRecord struct {
	SellerID        SellerID
	TotalCommission decimal.Decimal
	WithdrawnAmount decimal.Decimal
	AvailableAmount decimal.Decimal
	ReconciledAt    time.Time
}

// Equal reports whether two records carry the same balance values.
// ReconciledAt is excluded: reconciliation with no intervening ledger
// changes must be value-idempotent.
func (b BalanceRecord) Equal(other BalanceRecord) bool {
	return b.SellerID == other.SellerID &&
		b.TotalCommission.Equal(other.TotalCommission) &&
		b.WithdrawnAmount.Equal(other.WithdrawnAmount) &&
		b.AvailableAmount.Equal(other.AvailableAmount)
}

// =============================================================================
// SELLER
// =============================================================================

// Seller is the account sales and withdrawals are keyed by.
type Seller struct {
	ID        SellerID
	Name      string
	Email     string
	CreatedAt time.Time
}

// =============================================================================
// ACTOR - Authorization capability passed into the workflow
// =============================================================================

// Actor identifies who is invoking an operation. The engine does not
// decide who holds the executive capability; the caller (auth layer)
// sets Executive and the workflow trusts it, failing closed when the
// flag is absent.
type Actor struct {
	ID        string
	Executive bool
}

// SalesSummary aggregates a seller's sales for dashboard display.
type SalesSummary struct {
	SellerID        SellerID
	SaleCount       int
	GrossTotal      decimal.Decimal
	TotalCommission decimal.Decimal
}
