/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements all persistence interfaces (SaleLedger, WithdrawalStore,
  BalanceStore, SellerDirectory) using SQLite. In production, the same
  patterns apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  sales:                Append-only sale ledger (gross revenue)
  withdrawal_requests:  Withdrawal requests with guarded status
  balances:             Derived per-seller balance snapshot
  sellers:              Seller accounts

APPEND-ONLY ENFORCEMENT:
  The sale ledger has no UPDATE or DELETE statements. Sales are
  immutable facts; removal only happens via full account erasure,
  outside this engine.

GUARDED TRANSITION:
  Transition issues a single conditional UPDATE:

    UPDATE withdrawal_requests SET status = ?, ...
    WHERE id = ? AND status = 'pending'

  Zero rows affected means another processor won the race (or the id is
  unknown); the caller gets ErrAlreadyProcessed or ErrRequestNotFound.
  This is the compare-and-swap guard, enforced server-side.

SNAPSHOT UPSERT:
  UpsertBalance is one INSERT ... ON CONFLICT DO UPDATE statement, so
  all three balance fields change together and concurrent readers never
  see a half-updated snapshot.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/commission.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - commission/store.go: Interface definitions
  - commission/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/lumio/commission-engine/commission"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Sellers
	CREATE TABLE IF NOT EXISTS sellers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Sales (append-only ledger)
	CREATE TABLE IF NOT EXISTS sales (
		id TEXT PRIMARY KEY,
		seller_id TEXT NOT NULL,
		gross_amount TEXT NOT NULL,
		description TEXT,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sales_seller ON sales(seller_id, created_at);

	-- Withdrawal requests
	CREATE TABLE IF NOT EXISTS withdrawal_requests (
		id TEXT PRIMARY KEY,
		seller_id TEXT NOT NULL,
		requested_amount TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		payout_key TEXT NOT NULL,
		requested_at TEXT NOT NULL,
		processed_at TEXT,
		processed_by TEXT,
		notes TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_requests_seller ON withdrawal_requests(seller_id, requested_at);
	CREATE INDEX IF NOT EXISTS idx_requests_status ON withdrawal_requests(status, requested_at);

	-- Balance snapshots (derived, one row per seller)
	CREATE TABLE IF NOT EXISTS balances (
		seller_id TEXT PRIMARY KEY,
		total_commission TEXT NOT NULL,
		withdrawn_amount TEXT NOT NULL,
		available_amount TEXT NOT NULL,
		reconciled_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// SALE LEDGER (commission.SaleLedger interface)
// =============================================================================

// AppendSale adds a sale to the ledger. Append-only.
func (s *Store) AppendSale(ctx context.Context, sale commission.Sale) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO sales (id, seller_id, gross_amount, description, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		sale.ID,
		sale.SellerID,
		sale.GrossAmount.String(),
		sale.Description,
		sale.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to append sale: %w", err)
	}

	return nil
}

// SalesBySeller returns all sales for a seller, oldest first.
func (s *Store) SalesBySeller(ctx context.Context, sellerID commission.SellerID) ([]commission.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, seller_id, gross_amount, description, created_at
		FROM sales
		WHERE seller_id = ?
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, sellerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales: %w", err)
	}
	defer rows.Close()

	var sales []commission.Sale
	for rows.Next() {
		var (
			sale        commission.Sale
			gross       string
			description sql.NullString
			createdAt   string
		)
		if err := rows.Scan(&sale.ID, &sale.SellerID, &gross, &description, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		sale.GrossAmount = mustDecimal(gross)
		sale.Description = description.String
		sale.CreatedAt = parseTime(createdAt)
		sales = append(sales, sale)
	}

	return sales, rows.Err()
}

// =============================================================================
// WITHDRAWAL REQUEST STORE (commission.WithdrawalStore interface)
// =============================================================================

// InsertRequest persists a new pending withdrawal request.
func (s *Store) InsertRequest(ctx context.Context, req commission.WithdrawalRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO withdrawal_requests
		(id, seller_id, requested_amount, status, payout_key, requested_at, processed_at, processed_by, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		req.ID,
		req.SellerID,
		req.RequestedAmount.String(),
		req.Status,
		req.PayoutKey,
		req.RequestedAt.UTC().Format(time.RFC3339Nano),
		nullTime(req.ProcessedAt),
		nullString(req.ProcessedBy),
		nullString(req.Notes),
	)
	if err != nil {
		return fmt.Errorf("failed to insert withdrawal request: %w", err)
	}

	return nil
}

// GetRequest returns a request by id.
func (s *Store) GetRequest(ctx context.Context, id commission.RequestID) (*commission.WithdrawalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := selectRequests + ` WHERE id = ?`

	requests, err := s.queryRequests(ctx, query, id)
	if err != nil {
		return nil, err
	}
	if len(requests) == 0 {
		return nil, commission.ErrRequestNotFound
	}
	return &requests[0], nil
}

// RequestsBySeller returns all requests for a seller, newest first.
func (s *Store) RequestsBySeller(ctx context.Context, sellerID commission.SellerID) ([]commission.WithdrawalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := selectRequests + ` WHERE seller_id = ? ORDER BY requested_at DESC`
	return s.queryRequests(ctx, query, sellerID)
}

// PendingRequests returns the executive queue, oldest first.
func (s *Store) PendingRequests(ctx context.Context) ([]commission.WithdrawalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := selectRequests + ` WHERE status = ? ORDER BY requested_at ASC`
	return s.queryRequests(ctx, query, commission.StatusPending)
}

// Transition moves a request from pending to a terminal status.
// The WHERE clause makes this a compare-and-swap: a request that has
// already left pending is not touched, and the loser of a concurrent
// race deterministically gets ErrAlreadyProcessed.
func (s *Store) Transition(ctx context.Context, id commission.RequestID, to commission.WithdrawalStatus, processedAt time.Time, processedBy, notes string) (*commission.WithdrawalRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !to.Terminal() {
		return nil, fmt.Errorf("cannot transition to %q: %w", to, commission.ErrInvalidInput)
	}

	query := `
		UPDATE withdrawal_requests
		SET status = ?, processed_at = ?, processed_by = ?, notes = ?
		WHERE id = ? AND status = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		to,
		processedAt.UTC().Format(time.RFC3339Nano),
		nullString(processedBy),
		nullString(notes),
		id,
		commission.StatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to transition withdrawal request: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read rows affected: %w", err)
	}

	if affected == 0 {
		// Either the id is unknown or the request already reached a
		// terminal state. Distinguish for the caller.
		requests, err := s.queryRequests(ctx, selectRequests+` WHERE id = ?`, id)
		if err != nil {
			return nil, err
		}
		if len(requests) == 0 {
			return nil, commission.ErrRequestNotFound
		}
		return nil, commission.ErrAlreadyProcessed
	}

	requests, err := s.queryRequests(ctx, selectRequests+` WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	return &requests[0], nil
}

const selectRequests = `
	SELECT id, seller_id, requested_amount, status, payout_key, requested_at, processed_at, processed_by, notes
	FROM withdrawal_requests`

func (s *Store) queryRequests(ctx context.Context, query string, args ...any) ([]commission.WithdrawalRequest, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query withdrawal requests: %w", err)
	}
	defer rows.Close()

	var requests []commission.WithdrawalRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}

	return requests, rows.Err()
}

func scanRequest(rows *sql.Rows) (commission.WithdrawalRequest, error) {
	var (
		req         commission.WithdrawalRequest
		amount      string
		requestedAt string
		processedAt sql.NullString
		processedBy sql.NullString
		notes       sql.NullString
	)

	err := rows.Scan(
		&req.ID, &req.SellerID, &amount, &req.Status, &req.PayoutKey,
		&requestedAt, &processedAt, &processedBy, &notes,
	)
	if err != nil {
		return req, fmt.Errorf("failed to scan withdrawal request: %w", err)
	}

	req.RequestedAmount = mustDecimal(amount)
	req.RequestedAt = parseTime(requestedAt)
	if processedAt.Valid && processedAt.String != "" {
		t := parseTime(processedAt.String)
		req.ProcessedAt = &t
	}
	req.ProcessedBy = processedBy.String
	req.Notes = notes.String

	return req, nil
}

// =============================================================================
// BALANCE STORE (commission.BalanceStore interface)
// =============================================================================

// GetBalance returns the stored snapshot, or nil if never reconciled.
func (s *Store) GetBalance(ctx context.Context, sellerID commission.SellerID) (*commission.BalanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT seller_id, total_commission, withdrawn_amount, available_amount, reconciled_at
		FROM balances
		WHERE seller_id = ?
	`

	var (
		record       commission.BalanceRecord
		total        string
		withdrawn    string
		available    string
		reconciledAt string
	)

	err := s.db.QueryRowContext(ctx, query, sellerID).Scan(
		&record.SellerID, &total, &withdrawn, &available, &reconciledAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}

	record.TotalCommission = mustDecimal(total)
	record.WithdrawnAmount = mustDecimal(withdrawn)
	record.AvailableAmount = mustDecimal(available)
	record.ReconciledAt = parseTime(reconciledAt)

	return &record, nil
}

// UpsertBalance overwrites the full snapshot in one statement, so all
// three amounts change together and readers never see a half-updated
// record.
func (s *Store) UpsertBalance(ctx context.Context, record commission.BalanceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO balances (seller_id, total_commission, withdrawn_amount, available_amount, reconciled_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(seller_id) DO UPDATE SET
			total_commission = excluded.total_commission,
			withdrawn_amount = excluded.withdrawn_amount,
			available_amount = excluded.available_amount,
			reconciled_at = excluded.reconciled_at
	`

	_, err := s.db.ExecContext(ctx, query,
		record.SellerID,
		record.TotalCommission.String(),
		record.WithdrawnAmount.String(),
		record.AvailableAmount.String(),
		record.ReconciledAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert balance: %w", err)
	}

	return nil
}

// =============================================================================
// SELLER DIRECTORY (commission.SellerDirectory interface)
// =============================================================================

// SaveSeller creates or updates a seller account.
func (s *Store) SaveSeller(ctx context.Context, seller commission.Seller) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO sellers (id, name, email, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email
	`

	createdAt := seller.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, query,
		seller.ID, seller.Name, seller.Email, createdAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to save seller: %w", err)
	}

	return nil
}

// GetSeller returns a seller by id.
func (s *Store) GetSeller(ctx context.Context, id commission.SellerID) (*commission.Seller, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		seller    commission.Seller
		createdAt string
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, created_at FROM sellers WHERE id = ?`, id,
	).Scan(&seller.ID, &seller.Name, &seller.Email, &createdAt)
	if err == sql.ErrNoRows {
		return nil, commission.ErrSellerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get seller: %w", err)
	}

	seller.CreatedAt = parseTime(createdAt)
	return &seller, nil
}

// ListSellers returns all sellers, oldest first.
func (s *Store) ListSellers(ctx context.Context) ([]commission.Seller, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, email, created_at FROM sellers ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sellers: %w", err)
	}
	defer rows.Close()

	var sellers []commission.Seller
	for rows.Next() {
		var (
			seller    commission.Seller
			createdAt string
		)
		if err := rows.Scan(&seller.ID, &seller.Name, &seller.Email, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan seller: %w", err)
		}
		seller.CreatedAt = parseTime(createdAt)
		sellers = append(sellers, seller)
	}

	return sellers, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}
