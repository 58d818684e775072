/*
handlers.go - HTTP API handlers for the commission engine

PURPOSE:
  Exposes the commission engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Sellers:
    GET    /api/sellers                      List sellers
    POST   /api/sellers                      Create seller
    GET    /api/sellers/{id}                 Get seller

  Sales:
    POST   /api/sellers/{id}/sales           Register a sale
    GET    /api/sellers/{id}/sales           Sale history
    GET    /api/sellers/{id}/summary         Dashboard aggregates

  Balance & withdrawals:
    GET    /api/sellers/{id}/balance         Reconciled balance snapshot
    POST   /api/sellers/{id}/withdrawals     Request a withdrawal
    GET    /api/sellers/{id}/withdrawals     Withdrawal history

  Executive:
    GET    /api/withdrawals/pending          Pending queue (with names)
    POST   /api/withdrawals/{id}/process     Approve or reject

ERROR HANDLING:
  Domain errors map to HTTP status via statusFor():
  - 400: Invalid input
  - 403: Executive capability missing
  - 404: Unknown seller/request
  - 409: Request already processed (refresh and retry)
  - 422: Insufficient funds
  - 503: Ledger unavailable (transient, retry)

AUTHORIZATION:
  Session management is the outer application's concern. The executive
  endpoints read X-Executive-Token and translate a match into the
  Actor capability the workflow requires; the workflow still fails
  closed without it.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/lumio/commission-engine/commission"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Sellers  commission.SellerDirectory
	Sales    *commission.SalesService
	Workflow *commission.Workflow

	// ExecutiveToken is the shared secret the outer auth layer presents
	// on executive endpoints. A non-matching or absent token yields an
	// Actor without the executive capability.
	ExecutiveToken string
}

// NewHandler creates a handler over the engine services.
func NewHandler(sellers commission.SellerDirectory, sales *commission.SalesService, workflow *commission.Workflow, executiveToken string) *Handler {
	return &Handler{
		Sellers:        sellers,
		Sales:          sales,
		Workflow:       workflow,
		ExecutiveToken: executiveToken,
	}
}

// =============================================================================
// SELLER HANDLERS
// =============================================================================

// ListSellers returns all sellers.
func (h *Handler) ListSellers(w http.ResponseWriter, r *http.Request) {
	sellers, err := h.Sellers.ListSellers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sellers", err)
		return
	}

	dtos := make([]SellerDTO, len(sellers))
	for i, s := range sellers {
		dtos[i] = sellerDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetSeller returns a single seller.
func (h *Handler) GetSeller(w http.ResponseWriter, r *http.Request) {
	id := commission.SellerID(chi.URLParam(r, "id"))

	seller, err := h.Sellers.GetSeller(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get seller", err)
		return
	}

	writeJSON(w, http.StatusOK, sellerDTO(*seller))
}

// CreateSeller creates a new seller account.
func (h *Handler) CreateSeller(w http.ResponseWriter, r *http.Request) {
	var req CreateSellerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required", nil)
		return
	}

	seller := commission.Seller{
		ID:        commission.SellerID(req.ID),
		Name:      req.Name,
		Email:     req.Email,
		CreatedAt: time.Now().UTC(),
	}

	if err := h.Sellers.SaveSeller(r.Context(), seller); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create seller", err)
		return
	}

	writeJSON(w, http.StatusCreated, sellerDTO(seller))
}

// =============================================================================
// SALE HANDLERS
// =============================================================================

// RegisterSale records a new sale for a seller.
func (h *Handler) RegisterSale(w http.ResponseWriter, r *http.Request) {
	sellerID := commission.SellerID(chi.URLParam(r, "id"))

	var req RegisterSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	gross, err := decimal.NewFromString(req.GrossAmount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid gross_amount (use a decimal string)", err)
		return
	}

	sale, err := h.Sales.RegisterSale(r.Context(), sellerID, gross, req.Description)
	if err != nil {
		writeDomainError(w, "Failed to register sale", err)
		return
	}

	writeJSON(w, http.StatusCreated, saleDTO(*sale))
}

// ListSales returns a seller's sale history.
func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	sellerID := commission.SellerID(chi.URLParam(r, "id"))

	sales, err := h.Sales.Sales(r.Context(), sellerID)
	if err != nil {
		writeDomainError(w, "Failed to list sales", err)
		return
	}

	dtos := make([]SaleDTO, len(sales))
	for i, s := range sales {
		dtos[i] = saleDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SalesSummary returns dashboard aggregates for a seller.
func (h *Handler) SalesSummary(w http.ResponseWriter, r *http.Request) {
	sellerID := commission.SellerID(chi.URLParam(r, "id"))

	summary, err := h.Sales.Summary(r.Context(), sellerID)
	if err != nil {
		writeDomainError(w, "Failed to summarize sales", err)
		return
	}

	writeJSON(w, http.StatusOK, SalesSummaryDTO{
		SellerID:        string(summary.SellerID),
		SaleCount:       summary.SaleCount,
		GrossTotal:      summary.GrossTotal.String(),
		TotalCommission: summary.TotalCommission.String(),
	})
}

// =============================================================================
// BALANCE HANDLERS
// =============================================================================

// GetBalance returns the seller's reconciled balance snapshot.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	sellerID := commission.SellerID(chi.URLParam(r, "id"))

	balance, err := h.Workflow.GetBalance(r.Context(), sellerID)
	if err != nil {
		writeDomainError(w, "Failed to reconcile balance", err)
		return
	}

	writeJSON(w, http.StatusOK, balanceDTO(balance))
}

// =============================================================================
// WITHDRAWAL HANDLERS
// =============================================================================

// RequestWithdrawal creates a pending withdrawal request.
func (h *Handler) RequestWithdrawal(w http.ResponseWriter, r *http.Request) {
	sellerID := commission.SellerID(chi.URLParam(r, "id"))

	var req RequestWithdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount (use a decimal string)", err)
		return
	}

	created, err := h.Workflow.RequestWithdrawal(r.Context(), sellerID, amount, req.PayoutKey)
	if err != nil {
		writeDomainError(w, "Failed to request withdrawal", err)
		return
	}

	writeJSON(w, http.StatusCreated, withdrawalDTO(*created))
}

// ListWithdrawals returns a seller's withdrawal history.
func (h *Handler) ListWithdrawals(w http.ResponseWriter, r *http.Request) {
	sellerID := commission.SellerID(chi.URLParam(r, "id"))

	requests, err := h.Workflow.Requests.RequestsBySeller(r.Context(), sellerID)
	if err != nil {
		writeDomainError(w, "Failed to list withdrawals", err)
		return
	}

	dtos := make([]WithdrawalDTO, len(requests))
	for i, req := range requests {
		dtos[i] = withdrawalDTO(req)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListPendingWithdrawals returns the executive queue, seller names joined in.
func (h *Handler) ListPendingWithdrawals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	requests, err := h.Workflow.Requests.PendingRequests(ctx)
	if err != nil {
		writeDomainError(w, "Failed to list pending withdrawals", err)
		return
	}

	dtos := make([]WithdrawalDTO, len(requests))
	for i, req := range requests {
		dto := withdrawalDTO(req)
		if seller, err := h.Sellers.GetSeller(ctx, req.SellerID); err == nil {
			dto.SellerName = seller.Name
		}
		dtos[i] = dto
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ProcessWithdrawal approves or rejects a pending request.
func (h *Handler) ProcessWithdrawal(w http.ResponseWriter, r *http.Request) {
	requestID := commission.RequestID(chi.URLParam(r, "id"))

	var req ProcessWithdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	actor := h.actorFrom(r)

	updated, err := h.Workflow.ProcessWithdrawal(r.Context(), actor, requestID, commission.Decision(req.Decision), req.Notes)
	if err != nil {
		writeDomainError(w, "Failed to process withdrawal", err)
		return
	}

	writeJSON(w, http.StatusOK, withdrawalDTO(*updated))
}

// actorFrom translates the auth collaborator's headers into the
// capability the workflow checks.
func (h *Handler) actorFrom(r *http.Request) commission.Actor {
	token := r.Header.Get("X-Executive-Token")
	actorID := r.Header.Get("X-Actor-ID")
	if actorID == "" {
		actorID = "executive"
	}
	return commission.Actor{
		ID:        actorID,
		Executive: h.ExecutiveToken != "" && token == h.ExecutiveToken,
	}
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, commission.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, commission.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity
	case commission.IsConflict(err):
		return http.StatusConflict
	case errors.Is(err, commission.ErrUnauthorized):
		return http.StatusForbidden
	case commission.IsNotFound(err):
		return http.StatusNotFound
	case commission.IsRetryable(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeDomainError(w http.ResponseWriter, message string, err error) {
	writeError(w, statusFor(err), message, err)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
