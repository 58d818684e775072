package commission_test

import (
	"context"
	"errors"
	"testing"

	"github.com/lumio/commission-engine/commission"
)

// =============================================================================
// RECONCILIATION INVARIANT TESTS
// =============================================================================

func TestReconcile_DerivesAllThreeFieldsFromLedgers(t *testing.T) {
	// GIVEN: Sales totaling 10,000, one approved request of 400,
	//        one pending request of 100
	// WHEN: Reconciling
	// THEN: total=1000, withdrawn=400, available=500

	e := newTestEngine()
	ctx := context.Background()
	e.seedSales(t, "seller-1", "10000")

	approved, err := e.workflow.RequestWithdrawal(ctx, "seller-1", dec("400"), "pix-key-1")
	if err != nil {
		t.Fatalf("request withdrawal: %v", err)
	}
	if _, err := e.workflow.ProcessWithdrawal(ctx, executive(), approved.ID, commission.DecisionApprove, ""); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := e.workflow.RequestWithdrawal(ctx, "seller-1", dec("100"), "pix-key-1"); err != nil {
		t.Fatalf("second request: %v", err)
	}

	record, err := e.reconciler.Reconcile(ctx, "seller-1")
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	if !record.TotalCommission.Equal(dec("1000")) {
		t.Errorf("total commission: expected 1000, got %s", record.TotalCommission)
	}
	if !record.WithdrawnAmount.Equal(dec("400")) {
		t.Errorf("withdrawn: expected 400, got %s", record.WithdrawnAmount)
	}
	if !record.AvailableAmount.Equal(dec("500")) {
		t.Errorf("available: expected 500, got %s", record.AvailableAmount)
	}
}

func TestReconcile_Conservation(t *testing.T) {
	// Invariant: total = withdrawn + available + Σ pending, whenever the
	// non-negative clamp is not engaged.

	e := newTestEngine()
	ctx := context.Background()
	e.seedSales(t, "seller-1", "3000", "4500", "2500")

	first, err := e.workflow.RequestWithdrawal(ctx, "seller-1", dec("250"), "pix")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := e.workflow.RequestWithdrawal(ctx, "seller-1", dec("150"), "pix"); err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := e.workflow.ProcessWithdrawal(ctx, executive(), first.ID, commission.DecisionApprove, ""); err != nil {
		t.Fatalf("approve: %v", err)
	}

	record, err := e.reconciler.Reconcile(ctx, "seller-1")
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	pendingSum := dec("150")
	sum := record.WithdrawnAmount.Add(record.AvailableAmount).Add(pendingSum)
	if !record.TotalCommission.Equal(sum) {
		t.Errorf("conservation violated: total %s != withdrawn %s + available %s + pending %s",
			record.TotalCommission, record.WithdrawnAmount, record.AvailableAmount, pendingSum)
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	// GIVEN: A reconciled seller with no intervening ledger changes
	// WHEN: Reconciling again
	// THEN: Balance values are identical

	e := newTestEngine()
	ctx := context.Background()
	e.seedSales(t, "seller-1", "1234.56", "789.10")
	if _, err := e.workflow.RequestWithdrawal(ctx, "seller-1", dec("50"), "pix"); err != nil {
		t.Fatalf("request: %v", err)
	}

	first, err := e.reconciler.Reconcile(ctx, "seller-1")
	if err != nil {
		t.Fatalf("first reconcile: %v", err)
	}
	second, err := e.reconciler.Reconcile(ctx, "seller-1")
	if err != nil {
		t.Fatalf("second reconcile: %v", err)
	}

	if !first.Equal(second) {
		t.Errorf("reconcile not idempotent: %+v vs %+v", first, second)
	}
}

func TestReconcile_LazyZeroRecordForUnknownSeller(t *testing.T) {
	// A seller with no history gets an all-zero record on first access.

	e := newTestEngine()
	ctx := context.Background()

	record, err := e.reconciler.Reconcile(ctx, "brand-new")
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	if !record.TotalCommission.IsZero() || !record.WithdrawnAmount.IsZero() || !record.AvailableAmount.IsZero() {
		t.Errorf("expected all-zero record, got %+v", record)
	}

	stored, err := e.mem.GetBalance(ctx, "brand-new")
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if stored == nil {
		t.Fatal("expected the zero record to be persisted")
	}
}

func TestReconcile_AvailableNeverNegative(t *testing.T) {
	// GIVEN: An anomaly where approved withdrawals exceed commission
	//        (inserted directly, bypassing the workflow's funds check)
	// WHEN: Reconciling
	// THEN: AvailableAmount clamps to zero instead of going negative

	e := newTestEngine()
	ctx := context.Background()
	e.seedSales(t, "seller-1", "1000") // commission 100

	err := e.mem.InsertRequest(ctx, commission.WithdrawalRequest{
		ID:              "anomaly",
		SellerID:        "seller-1",
		RequestedAmount: dec("500"),
		Status:          commission.StatusApproved,
		PayoutKey:       "pix",
	})
	if err != nil {
		t.Fatalf("insert anomaly: %v", err)
	}

	record, err := e.reconciler.Reconcile(ctx, "seller-1")
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	if record.AvailableAmount.IsNegative() {
		t.Errorf("available must never be negative, got %s", record.AvailableAmount)
	}
	if !record.AvailableAmount.IsZero() {
		t.Errorf("expected clamp to zero, got %s", record.AvailableAmount)
	}
}

// =============================================================================
// FAILURE SEMANTICS
// =============================================================================

// failingSales wraps a ledger and fails every read.
type failingSales struct {
	commission.SaleLedger
}

func (f *failingSales) SalesBySeller(context.Context, commission.SellerID) ([]commission.Sale, error) {
	return nil, errors.New("connection reset")
}

func TestReconcile_LedgerReadFailure_LeavesStoredRecordUntouched(t *testing.T) {
	// GIVEN: A previously reconciled balance, then an unreadable ledger
	// WHEN: Reconciling again
	// THEN: The call fails with ErrDataUnavailable and the stored
	//       snapshot keeps its old values

	e := newTestEngine()
	ctx := context.Background()
	e.seedSales(t, "seller-1", "10000")

	before, err := e.reconciler.Reconcile(ctx, "seller-1")
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	broken := commission.NewReconciler(&failingSales{e.mem}, e.mem, e.mem, e.calc)
	_, err = broken.Reconcile(ctx, "seller-1")
	if !errors.Is(err, commission.ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
	if !commission.IsRetryable(err) {
		t.Errorf("data-unavailable errors must be retryable")
	}

	stored, err := e.mem.GetBalance(ctx, "seller-1")
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if stored == nil || !stored.Equal(before) {
		t.Errorf("stored record changed despite failed reconcile: %+v", stored)
	}
}
