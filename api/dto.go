/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

AMOUNTS:
  Money amounts travel as decimal strings ("123.45"), never JSON
  numbers, to avoid float rounding in clients.

VALIDATION:
  Validation is done in handlers and the domain layer, not in DTOs.
  DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/lumio/commission-engine/commission"
)

// =============================================================================
// SELLER TYPES
// =============================================================================

// SellerDTO represents a seller in API responses.
type SellerDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

// CreateSellerRequest is the body for POST /api/sellers.
type CreateSellerRequest struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func sellerDTO(s commission.Seller) SellerDTO {
	return SellerDTO{
		ID:        string(s.ID),
		Name:      s.Name,
		Email:     s.Email,
		CreatedAt: s.CreatedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// SALE TYPES
// =============================================================================

// SaleDTO represents a sale in API responses.
type SaleDTO struct {
	ID          string `json:"id"`
	SellerID    string `json:"seller_id"`
	GrossAmount string `json:"gross_amount"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// RegisterSaleRequest is the body for POST /api/sellers/{id}/sales.
type RegisterSaleRequest struct {
	GrossAmount string `json:"gross_amount"`
	Description string `json:"description"`
}

// SalesSummaryDTO aggregates a seller's sales for the dashboard.
type SalesSummaryDTO struct {
	SellerID        string `json:"seller_id"`
	SaleCount       int    `json:"sale_count"`
	GrossTotal      string `json:"gross_total"`
	TotalCommission string `json:"total_commission"`
}

func saleDTO(s commission.Sale) SaleDTO {
	return SaleDTO{
		ID:          string(s.ID),
		SellerID:    string(s.SellerID),
		GrossAmount: s.GrossAmount.String(),
		Description: s.Description,
		CreatedAt:   s.CreatedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// BALANCE TYPES
// =============================================================================

// BalanceDTO is the seller's balance snapshot.
type BalanceDTO struct {
	SellerID        string `json:"seller_id"`
	TotalCommission string `json:"total_commission"`
	WithdrawnAmount string `json:"withdrawn_amount"`
	AvailableAmount string `json:"available_amount"`
	ReconciledAt    string `json:"reconciled_at"`
}

func balanceDTO(b commission.BalanceRecord) BalanceDTO {
	return BalanceDTO{
		SellerID:        string(b.SellerID),
		TotalCommission: b.TotalCommission.String(),
		WithdrawnAmount: b.WithdrawnAmount.String(),
		AvailableAmount: b.AvailableAmount.String(),
		ReconciledAt:    b.ReconciledAt.Format(time.RFC3339),
	}
}

// =============================================================================
// WITHDRAWAL TYPES
// =============================================================================

// WithdrawalDTO represents a withdrawal request. SellerName is filled
// only on the executive queue, where names are joined in for display.
type WithdrawalDTO struct {
	ID              string `json:"id"`
	SellerID        string `json:"seller_id"`
	SellerName      string `json:"seller_name,omitempty"`
	RequestedAmount string `json:"requested_amount"`
	Status          string `json:"status"`
	PayoutKey       string `json:"payout_key"`
	RequestedAt     string `json:"requested_at"`
	ProcessedAt     string `json:"processed_at,omitempty"`
	ProcessedBy     string `json:"processed_by,omitempty"`
	Notes           string `json:"notes,omitempty"`
}

// RequestWithdrawalRequest is the body for POST /api/sellers/{id}/withdrawals.
type RequestWithdrawalRequest struct {
	Amount    string `json:"amount"`
	PayoutKey string `json:"payout_key"`
}

// ProcessWithdrawalRequest is the body for POST /api/withdrawals/{id}/process.
type ProcessWithdrawalRequest struct {
	Decision string `json:"decision"` // "approve" or "reject"
	Notes    string `json:"notes"`
}

func withdrawalDTO(req commission.WithdrawalRequest) WithdrawalDTO {
	dto := WithdrawalDTO{
		ID:              string(req.ID),
		SellerID:        string(req.SellerID),
		RequestedAmount: req.RequestedAmount.String(),
		Status:          string(req.Status),
		PayoutKey:       req.PayoutKey,
		RequestedAt:     req.RequestedAt.Format(time.RFC3339),
		ProcessedBy:     req.ProcessedBy,
		Notes:           req.Notes,
	}
	if req.ProcessedAt != nil {
		dto.ProcessedAt = req.ProcessedAt.Format(time.RFC3339)
	}
	return dto
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the JSON shape of all error responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
