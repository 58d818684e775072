/*
store.go - Persistence interfaces for the commission engine

PURPOSE:
  Defines the interface between the engine and the database. The engine
  consumes three collaborators: the sale ledger (append-only gross
  revenue), the withdrawal request store (pending/approved/rejected
  records), and the balance store (the derived snapshot).

APPEND-ONLY CONTRACT:
  SaleLedger has no Update or Delete. Sales are immutable facts; the
  only removal path is full account erasure, which is outside this
  engine.

GUARDED TRANSITION:
  WithdrawalStore.Transition is a compare-and-swap style conditional
  write: the status moves to a terminal state only if it is still
  pending at write time. Two concurrent processors racing on the same
  request get exactly one success; the loser receives
  ErrAlreadyProcessed. This guard is enforced at the store level, not
  in application logic.

SNAPSHOT OVERWRITE:
  BalanceStore.Upsert replaces the whole record in a single write.
  Last-write-wins is safe here because the record is derivable; it is
  NOT safe on the withdrawal status field, hence the guard above.

IMPLEMENTATIONS:
  - store/sqlite: Production SQLite store
  - commission/store: In-memory store for testing/dev

SEE ALSO:
  - reconciler.go: Reads all three collaborators
  - workflow.go: Drives the withdrawal lifecycle
*/
package commission

import (
	"context"
	"time"
)

// =============================================================================
// SALE LEDGER - Append-only record of completed sales
// =============================================================================

// SaleLedger is the source of truth for gross revenue.
// Append-only: no Update, no Delete.
type SaleLedger interface {
	// AppendSale persists a sale record.
	AppendSale(ctx context.Context, sale Sale) error

	// SalesBySeller returns all sales for a seller, ordered by CreatedAt.
	SalesBySeller(ctx context.Context, sellerID SellerID) ([]Sale, error)
}

// =============================================================================
// WITHDRAWAL REQUEST STORE
// =============================================================================

// WithdrawalStore persists withdrawal requests and enforces the guarded
// pending→terminal transition.
type WithdrawalStore interface {
	// InsertRequest persists a new request. The request must be pending.
	InsertRequest(ctx context.Context, req WithdrawalRequest) error

	// GetRequest returns a request by id, or ErrRequestNotFound.
	GetRequest(ctx context.Context, id RequestID) (*WithdrawalRequest, error)

	// RequestsBySeller returns all requests for a seller, newest first.
	RequestsBySeller(ctx context.Context, sellerID SellerID) ([]WithdrawalRequest, error)

	// PendingRequests returns all pending requests across sellers,
	// oldest first (the executive queue).
	PendingRequests(ctx context.Context) ([]WithdrawalRequest, error)

	// Transition moves a request from pending to the given terminal
	// status. The write is conditional on the stored status still being
	// pending: a request already in a terminal state yields
	// ErrAlreadyProcessed and no effect. Returns the updated request.
	Transition(ctx context.Context, id RequestID, to WithdrawalStatus, processedAt time.Time, processedBy, notes string) (*WithdrawalRequest, error)
}

// =============================================================================
// BALANCE STORE - Derived snapshot persistence
// =============================================================================

// BalanceStore persists the per-seller balance snapshot.
type BalanceStore interface {
	// GetBalance returns the stored snapshot, or nil if the seller has
	// never been reconciled.
	GetBalance(ctx context.Context, sellerID SellerID) (*BalanceRecord, error)

	// UpsertBalance overwrites all fields of the snapshot in a single
	// atomic write. Creates the record if none exists.
	UpsertBalance(ctx context.Context, record BalanceRecord) error
}

// =============================================================================
// SELLER DIRECTORY
// =============================================================================

// SellerDirectory stores seller accounts. Account lifecycle beyond
// create/read is handled by external tooling.
type SellerDirectory interface {
	SaveSeller(ctx context.Context, seller Seller) error
	GetSeller(ctx context.Context, id SellerID) (*Seller, error)
	ListSellers(ctx context.Context) ([]Seller, error)
}
