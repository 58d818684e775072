/*
reconciler.go - Balance recomputation and persistence

PURPOSE:
  Produces a consistent BalanceRecord for a seller on demand. This is
  the central design decision of the engine: the balance is recomputed
  wholesale from the source-of-truth ledgers on every reconciliation,
  never incremented or decremented in place.

WHY RECOMPUTE?
  AvailableAmount depends on the CURRENT set of pending requests.
  Treating the balance as independently updatable risks drift whenever
  a request's status changes outside the expected path (manual
  correction, retried operation, concurrent approval). Recomputation
  from the ledgers eliminates that class of bug.

CONCURRENCY:
  Two concurrent reconciliations for the same seller may race. The race
  is benign: each computes purely from the ledgers and overwrites the
  full snapshot atomically, so the result converges to whichever
  observed the most recent ledger state, and the next reconciliation
  self-heals any transient staleness.

FAILURE SEMANTICS:
  If any ledger read fails, the operation returns a DataUnavailableError
  and the stored snapshot is left untouched. Reconciliation never
  partially applies.

SEE ALSO:
  - calculator.go: Commission derivation
  - workflow.go: Invokes reconciliation on every read/write boundary
*/
package commission

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RECONCILER
// =============================================================================

// Reconciler recomputes and persists per-seller balance snapshots.
type Reconciler struct {
	Sales       SaleLedger
	Withdrawals WithdrawalStore
	Balances    BalanceStore
	Calc        *Calculator
}

// NewReconciler wires a reconciler over the three store collaborators.
func NewReconciler(sales SaleLedger, withdrawals WithdrawalStore, balances BalanceStore, calc *Calculator) *Reconciler {
	return &Reconciler{Sales: sales, Withdrawals: withdrawals, Balances: balances, Calc: calc}
}

// Reconcile recomputes the seller's balance from the sale ledger and the
// withdrawal request store, persists it as a full-snapshot upsert, and
// returns it.
//
// Invariants on the returned record:
//   - TotalCommission = rate × Σ gross sale amounts
//   - WithdrawnAmount = Σ approved request amounts
//   - AvailableAmount = max(0, total − withdrawn − Σ pending amounts)
//
// Repeated calls with no intervening ledger changes produce identical
// balance values.
func (r *Reconciler) Reconcile(ctx context.Context, sellerID SellerID) (BalanceRecord, error) {
	sales, err := r.Sales.SalesBySeller(ctx, sellerID)
	if err != nil {
		return BalanceRecord{}, &DataUnavailableError{Op: "load sales", Err: err}
	}

	requests, err := r.Withdrawals.RequestsBySeller(ctx, sellerID)
	if err != nil {
		return BalanceRecord{}, &DataUnavailableError{Op: "load withdrawal requests", Err: err}
	}

	total, err := r.Calc.TotalCommission(sales)
	if err != nil {
		return BalanceRecord{}, err
	}

	approved, pending := sumByStatus(requests)

	available := total.Sub(approved).Sub(pending)
	if available.IsNegative() {
		// Transient data anomalies must never surface a negative balance.
		available = decimal.Zero
	}

	record := BalanceRecord{
		SellerID:        sellerID,
		TotalCommission: total,
		WithdrawnAmount: approved,
		AvailableAmount: available,
		ReconciledAt:    time.Now().UTC(),
	}

	if err := r.Balances.UpsertBalance(ctx, record); err != nil {
		return BalanceRecord{}, &DataUnavailableError{Op: "persist balance", Err: err}
	}

	return record, nil
}

func sumByStatus(requests []WithdrawalRequest) (approved, pending decimal.Decimal) {
	approved, pending = decimal.Zero, decimal.Zero
	for _, req := range requests {
		switch req.Status {
		case StatusApproved:
			approved = approved.Add(req.RequestedAmount)
		case StatusPending:
			pending = pending.Add(req.RequestedAmount)
		}
	}
	return approved, pending
}
