package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/lumio/commission-engine/commission"
	"github.com/lumio/commission-engine/commission/store"
)

func pendingRequest(id, sellerID, amount string) commission.WithdrawalRequest {
	return commission.WithdrawalRequest{
		ID:              commission.RequestID(id),
		SellerID:        commission.SellerID(sellerID),
		RequestedAmount: commission.MustParseDecimal(amount),
		Status:          commission.StatusPending,
		PayoutKey:       "pix",
		RequestedAt:     time.Now().UTC(),
	}
}

func TestMemory_TransitionGuard(t *testing.T) {
	// The status check and write happen under one lock: only the first
	// transition out of pending succeeds.

	mem := store.NewMemory()
	ctx := context.Background()

	if err := mem.InsertRequest(ctx, pendingRequest("req-1", "seller-1", "100")); err != nil {
		t.Fatalf("insert: %v", err)
	}

	now := time.Now().UTC()
	if _, err := mem.Transition(ctx, "req-1", commission.StatusApproved, now, "exec", ""); err != nil {
		t.Fatalf("first transition: %v", err)
	}

	_, err := mem.Transition(ctx, "req-1", commission.StatusRejected, now, "exec", "")
	if err != commission.ErrAlreadyProcessed {
		t.Errorf("expected ErrAlreadyProcessed, got %v", err)
	}

	_, err = mem.Transition(ctx, "missing", commission.StatusApproved, now, "exec", "")
	if err != commission.ErrRequestNotFound {
		t.Errorf("expected ErrRequestNotFound, got %v", err)
	}
}

func TestMemory_TransitionRace_SingleWinner(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	if err := mem.InsertRequest(ctx, pendingRequest("req-1", "seller-1", "100")); err != nil {
		t.Fatalf("insert: %v", err)
	}

	const racers = 8
	var wg sync.WaitGroup
	results := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = mem.Transition(ctx, "req-1", commission.StatusApproved, time.Now().UTC(), "exec", "")
		}(i)
	}
	wg.Wait()

	var wins int
	for _, err := range results {
		if err == nil {
			wins++
		} else if err != commission.ErrAlreadyProcessed {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Errorf("expected exactly one winner, got %d", wins)
	}
}

func TestMemory_PendingQueueOrderedOldestFirst(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	older := pendingRequest("req-old", "seller-1", "10")
	older.RequestedAt = time.Now().Add(-time.Hour)
	newer := pendingRequest("req-new", "seller-2", "20")

	if err := mem.InsertRequest(ctx, newer); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := mem.InsertRequest(ctx, older); err != nil {
		t.Fatalf("insert: %v", err)
	}

	queue, err := mem.PendingRequests(ctx)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(queue) != 2 || queue[0].ID != "req-old" {
		t.Errorf("expected oldest-first queue, got %+v", queue)
	}
}

func TestMemory_BalanceUpsertOverwritesWholeRecord(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	first := commission.BalanceRecord{
		SellerID:        "seller-1",
		TotalCommission: commission.MustParseDecimal("100"),
		WithdrawnAmount: commission.MustParseDecimal("20"),
		AvailableAmount: commission.MustParseDecimal("80"),
		ReconciledAt:    time.Now().UTC(),
	}
	if err := mem.UpsertBalance(ctx, first); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	second := first
	second.TotalCommission = commission.MustParseDecimal("150")
	second.AvailableAmount = commission.MustParseDecimal("130")
	if err := mem.UpsertBalance(ctx, second); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	stored, err := mem.GetBalance(ctx, "seller-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored == nil || !stored.Equal(second) {
		t.Errorf("expected full overwrite, got %+v", stored)
	}
}
