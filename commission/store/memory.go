// Package store provides in-memory implementations of the commission
// persistence interfaces, for testing and development.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lumio/commission-engine/commission"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements SaleLedger, WithdrawalStore, BalanceStore and
// SellerDirectory behind a single mutex. The Transition guard mirrors
// the conditional write the SQLite store performs.
type Memory struct {
	mu       sync.RWMutex
	sales    map[commission.SellerID][]commission.Sale
	requests map[commission.RequestID]commission.WithdrawalRequest
	balances map[commission.SellerID]commission.BalanceRecord
	sellers  map[commission.SellerID]commission.Seller
}

func NewMemory() *Memory {
	return &Memory{
		sales:    make(map[commission.SellerID][]commission.Sale),
		requests: make(map[commission.RequestID]commission.WithdrawalRequest),
		balances: make(map[commission.SellerID]commission.BalanceRecord),
		sellers:  make(map[commission.SellerID]commission.Seller),
	}
}

// =============================================================================
// SALE LEDGER
// =============================================================================

// AppendSale adds a sale. Append-only.
func (m *Memory) AppendSale(_ context.Context, sale commission.Sale) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sales[sale.SellerID] = append(m.sales[sale.SellerID], sale)
	return nil
}

func (m *Memory) SalesBySeller(_ context.Context, sellerID commission.SellerID) ([]commission.Sale, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]commission.Sale, len(m.sales[sellerID]))
	copy(result, m.sales[sellerID])
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

// =============================================================================
// WITHDRAWAL REQUEST STORE
// =============================================================================

func (m *Memory) InsertRequest(_ context.Context, req commission.WithdrawalRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[req.ID] = req
	return nil
}

func (m *Memory) GetRequest(_ context.Context, id commission.RequestID) (*commission.WithdrawalRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	req, ok := m.requests[id]
	if !ok {
		return nil, commission.ErrRequestNotFound
	}
	return &req, nil
}

func (m *Memory) RequestsBySeller(_ context.Context, sellerID commission.SellerID) ([]commission.WithdrawalRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []commission.WithdrawalRequest
	for _, req := range m.requests {
		if req.SellerID == sellerID {
			result = append(result, req)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].RequestedAt.After(result[j].RequestedAt) })
	return result, nil
}

func (m *Memory) PendingRequests(_ context.Context) ([]commission.WithdrawalRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []commission.WithdrawalRequest
	for _, req := range m.requests {
		if req.Status == commission.StatusPending {
			result = append(result, req)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].RequestedAt.Before(result[j].RequestedAt) })
	return result, nil
}

// Transition performs the guarded pending→terminal write. The status
// check and the update happen under one lock, so concurrent processors
// on the same request get exactly one success.
func (m *Memory) Transition(_ context.Context, id commission.RequestID, to commission.WithdrawalStatus, processedAt time.Time, processedBy, notes string) (*commission.WithdrawalRequest, error) {
	if !to.Terminal() {
		return nil, commission.ErrInvalidInput
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	req, ok := m.requests[id]
	if !ok {
		return nil, commission.ErrRequestNotFound
	}
	if req.Status != commission.StatusPending {
		return nil, commission.ErrAlreadyProcessed
	}

	req.Status = to
	req.ProcessedAt = &processedAt
	req.ProcessedBy = processedBy
	req.Notes = notes
	m.requests[id] = req

	return &req, nil
}

// =============================================================================
// BALANCE STORE
// =============================================================================

func (m *Memory) GetBalance(_ context.Context, sellerID commission.SellerID) (*commission.BalanceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.balances[sellerID]
	if !ok {
		return nil, nil
	}
	return &record, nil
}

// UpsertBalance overwrites the whole snapshot. The map assignment is the
// atomic full-record write the BalanceStore contract asks for.
func (m *Memory) UpsertBalance(_ context.Context, record commission.BalanceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[record.SellerID] = record
	return nil
}

// =============================================================================
// SELLER DIRECTORY
// =============================================================================

func (m *Memory) SaveSeller(_ context.Context, seller commission.Seller) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sellers[seller.ID] = seller
	return nil
}

func (m *Memory) GetSeller(_ context.Context, id commission.SellerID) (*commission.Seller, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seller, ok := m.sellers[id]
	if !ok {
		return nil, commission.ErrSellerNotFound
	}
	return &seller, nil
}

func (m *Memory) ListSellers(_ context.Context) ([]commission.Seller, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]commission.Seller, 0, len(m.sellers))
	for _, s := range m.sellers {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}
