/*
sales.go - Sale registration and dashboard aggregates

PURPOSE:
  The write path into the sale ledger and the read aggregates the seller
  dashboard shows (gross total, sale count, commission). Sales are
  permanent input: once registered they are never mutated or deleted by
  this engine.

SEE ALSO:
  - reconciler.go: Picks up new sales on the next reconciliation
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

// SalesService registers sales and serves dashboard aggregates.
type SalesService struct {
	Ledger     SaleLedger
	Reconciler *Reconciler
}

// NewSalesService wires the sales service over the ledger and reconciler.
func NewSalesService(ledger SaleLedger, reconciler *Reconciler) *SalesService {
	return &SalesService{Ledger: ledger, Reconciler: reconciler}
}

// RegisterSale appends a sale to the ledger and refreshes the seller's
// balance snapshot.
func (s *SalesService) RegisterSale(ctx context.Context, sellerID SellerID, gross decimal.Decimal, description string) (*Sale, error) {
	if !gross.IsPositive() {
		return nil, fmt.Errorf("sale amount must be positive, got %s: %w", gross, ErrInvalidInput)
	}

	sale := Sale{
		ID:          SaleID(uuid.NewString()),
		SellerID:    sellerID,
		GrossAmount: gross,
		Description: strings.TrimSpace(description),
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.Ledger.AppendSale(ctx, sale); err != nil {
		return nil, &DataUnavailableError{Op: "append sale", Err: err}
	}

	// Fold the new commission into the stored snapshot. Best-effort;
	// reconcile-on-read covers a failed refresh.
	_, _ = s.Reconciler.Reconcile(ctx, sellerID)

	return &sale, nil
}

// Sales returns the seller's sale history.
func (s *SalesService) Sales(ctx context.Context, sellerID SellerID) ([]Sale, error) {
	sales, err := s.Ledger.SalesBySeller(ctx, sellerID)
	if err != nil {
		return nil, &DataUnavailableError{Op: "load sales", Err: err}
	}
	return sales, nil
}

// Summary aggregates the seller's sales for dashboard display.
func (s *SalesService) Summary(ctx context.Context, sellerID SellerID) (SalesSummary, error) {
	sales, err := s.Ledger.SalesBySeller(ctx, sellerID)
	if err != nil {
		return SalesSummary{}, &DataUnavailableError{Op: "load sales", Err: err}
	}

	gross := decimal.Zero
	for _, sale := range sales {
		gross = gross.Add(sale.GrossAmount)
	}

	total, err := s.Reconciler.Calc.TotalCommission(sales)
	if err != nil {
		return SalesSummary{}, err
	}

	return SalesSummary{
		SellerID:        sellerID,
		SaleCount:       len(sales),
		GrossTotal:      gross,
		TotalCommission: total,
	}, nil
}
