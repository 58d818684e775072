/*
calculator.go - Commission calculation from the sale ledger

PURPOSE:
  Derives a seller's gross commission from raw sales using a fixed
  commission rate. Pure computation: no side effects, no storage access.

PROPERTIES:
  - Stable under reordering (commutative sum)
  - Idempotent (same sales in, same commission out)
  - Rejects negative gross amounts (data anomaly, caller's fault)

ROUNDING:
  The commission total is rounded half-up to cents. Request amounts are
  already cent-precision, so the conservation invariant
  (total = withdrawn + available + pending) is unaffected.

SEE ALSO:
  - reconciler.go: The only caller inside the engine
*/
package commission

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CALCULATOR
// =============================================================================

// Calculator computes commission from gross sales at a fixed rate.
type Calculator struct {
	rate decimal.Decimal
}

// NewCalculator returns a calculator using the given commission rate.
// A non-positive rate falls back to DefaultCommissionRate.
func NewCalculator(rate decimal.Decimal) *Calculator {
	if rate.LessThanOrEqual(decimal.Zero) {
		rate = DefaultCommissionRate
	}
	return &Calculator{rate: rate}
}

// Rate returns the configured commission rate.
func (c *Calculator) Rate() decimal.Decimal {
	return c.rate
}

// TotalCommission returns rate × Σ gross amounts, rounded to cents.
// Fails with ErrInvalidInput if any sale carries a negative gross amount.
func (c *Calculator) TotalCommission(sales []Sale) (decimal.Decimal, error) {
	gross := decimal.Zero
	for _, s := range sales {
		if s.GrossAmount.IsNegative() {
			return decimal.Zero, fmt.Errorf("sale %s has negative gross amount %s: %w",
				s.ID, s.GrossAmount, ErrInvalidInput)
		}
		gross = gross.Add(s.GrossAmount)
	}
	return gross.Mul(c.rate).Round(2), nil
}
