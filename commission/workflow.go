/*
workflow.go - Withdrawal request lifecycle

PURPOSE:
  State machine governing a withdrawal request and the balance
  reconciliations triggered by each transition.

STATE DIAGRAM:
          RequestWithdrawal
  (none) ───────────────────▶ pending
                                 │approve            │reject
                                 ▼                   ▼
                             approved            rejected
                            (terminal)           (terminal)

RESERVATION:
  Creating a request does NOT deduct the available balance as a separate
  bookkeeping step. The next reconciliation picks up the new pending row
  and reduces AvailableAmount accordingly. This avoids a second mutable
  counter that could desynchronize from the requests table.

APPROVAL / REJECTION:
  Approve: the amount moves from the pending reserve to WithdrawnAmount;
  net effect on AvailableAmount is zero at the moment of approval.
  Reject: the pending reserve is released; AvailableAmount rises by the
  requested amount. Neither needs an explicit refund write because the
  balance is always derived.

AUTHORIZATION:
  Processing requires the executive capability. Deciding WHO is an
  executive belongs to the caller (the HTTP layer maps a token header to
  the capability); the workflow itself fails with ErrUnauthorized when
  invoked without it.

SEE ALSO:
  - reconciler.go: Balance recomputation
  - store.go: Guarded Transition contract
*/
package commission

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// DECISION
// =============================================================================

type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

func (d Decision) status() (WithdrawalStatus, error) {
	switch d {
	case DecisionApprove:
		return StatusApproved, nil
	case DecisionReject:
		return StatusRejected, nil
	default:
		return "", fmt.Errorf("unknown decision %q: %w", string(d), ErrInvalidInput)
	}
}

// =============================================================================
// WORKFLOW
// =============================================================================

// Workflow exposes the engine's public operations to callers (the seller
// UI and executive tooling).
type Workflow struct {
	Requests   WithdrawalStore
	Reconciler *Reconciler
}

// NewWorkflow wires the withdrawal workflow over the request store and
// the reconciler.
func NewWorkflow(requests WithdrawalStore, reconciler *Reconciler) *Workflow {
	return &Workflow{Requests: requests, Reconciler: reconciler}
}

// GetBalance reconciles and returns the seller's balance snapshot.
// Reconcile-on-read keeps the stored record honest even if a writer
// skipped its refresh.
func (wf *Workflow) GetBalance(ctx context.Context, sellerID SellerID) (BalanceRecord, error) {
	return wf.Reconciler.Reconcile(ctx, sellerID)
}

// RequestWithdrawal creates a pending withdrawal request for the seller.
//
// Preconditions: amount > 0, payoutKey non-empty, and after a fresh
// reconciliation amount ≤ AvailableAmount.
func (wf *Workflow) RequestWithdrawal(ctx context.Context, sellerID SellerID, amount decimal.Decimal, payoutKey string) (*WithdrawalRequest, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("withdrawal amount must be positive, got %s: %w", amount, ErrInvalidInput)
	}
	if strings.TrimSpace(payoutKey) == "" {
		return nil, fmt.Errorf("payout key is required: %w", ErrInvalidInput)
	}

	balance, err := wf.Reconciler.Reconcile(ctx, sellerID)
	if err != nil {
		return nil, err
	}

	if amount.GreaterThan(balance.AvailableAmount) {
		return nil, &InsufficientFundsError{
			SellerID:  sellerID,
			Available: balance.AvailableAmount,
			Requested: amount,
		}
	}

	req := WithdrawalRequest{
		ID:              RequestID(uuid.NewString()),
		SellerID:        sellerID,
		RequestedAmount: amount,
		Status:          StatusPending,
		PayoutKey:       strings.TrimSpace(payoutKey),
		RequestedAt:     time.Now().UTC(),
	}

	if err := wf.Requests.InsertRequest(ctx, req); err != nil {
		return nil, &DataUnavailableError{Op: "insert withdrawal request", Err: err}
	}

	// Refresh the snapshot so readers see the new reservation immediately.
	// Best-effort: the request stands either way and the next
	// reconcile-on-read self-heals a stale snapshot.
	_, _ = wf.Reconciler.Reconcile(ctx, sellerID)

	return &req, nil
}

// ProcessWithdrawal approves or rejects a pending request.
//
// The pending→terminal transition is a conditional write at the store
// level: a request already in a terminal state deterministically yields
// ErrAlreadyProcessed, so two concurrent processors cannot both succeed.
func (wf *Workflow) ProcessWithdrawal(ctx context.Context, actor Actor, requestID RequestID, decision Decision, notes string) (*WithdrawalRequest, error) {
	if !actor.Executive {
		return nil, fmt.Errorf("actor %q: %w", actor.ID, ErrUnauthorized)
	}

	to, err := decision.status()
	if err != nil {
		return nil, err
	}

	updated, err := wf.Requests.Transition(ctx, requestID, to, time.Now().UTC(), actor.ID, notes)
	if err != nil {
		return nil, err
	}

	// Move the amount between the pending-reserve and withdrawn buckets
	// in the stored snapshot. Best-effort for the same reason as above.
	_, _ = wf.Reconciler.Reconcile(ctx, updated.SellerID)

	return updated, nil
}
