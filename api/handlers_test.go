/*
handlers_test.go - HTTP API tests over the in-memory store

Exercises the JSON surface end to end: seller creation, sale
registration, balance reads, the withdrawal lifecycle, and the error
status mapping (422 insufficient funds, 409 already processed, 403
missing executive capability).
*/
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumio/commission-engine/commission"
	"github.com/lumio/commission-engine/commission/store"
)

const testExecutiveToken = "test-executive-token"

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	mem := store.NewMemory()
	calc := commission.NewCalculator(commission.MustParseDecimal("0.10"))
	reconciler := commission.NewReconciler(mem, mem, mem, calc)
	workflow := commission.NewWorkflow(mem, reconciler)
	sales := commission.NewSalesService(mem, reconciler)

	handler := NewHandler(mem, sales, workflow, testExecutiveToken)
	server := httptest.NewServer(NewRouter(handler))
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, method, url, body string, headers map[string]string) (*http.Response, map[string]any) {
	t.Helper()

	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func seedSeller(t *testing.T, server *httptest.Server, id, name string) {
	t.Helper()
	resp, _ := doJSON(t, http.MethodPost, server.URL+"/api/sellers",
		fmt.Sprintf(`{"id":%q,"name":%q,"email":"x@example.com"}`, id, name), nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func seedSale(t *testing.T, server *httptest.Server, sellerID, gross string) {
	t.Helper()
	resp, _ := doJSON(t, http.MethodPost, server.URL+"/api/sellers/"+sellerID+"/sales",
		fmt.Sprintf(`{"gross_amount":%q,"description":"test"}`, gross), nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func executiveHeaders() map[string]string {
	return map[string]string{"X-Executive-Token": testExecutiveToken, "X-Actor-ID": "exec-1"}
}

// =============================================================================
// SELLER & SALE ENDPOINTS
// =============================================================================

func TestAPI_SellerLifecycle(t *testing.T) {
	server := newTestServer(t)
	seedSeller(t, server, "seller-1", "Ana Lima")

	resp, body := doJSON(t, http.MethodGet, server.URL+"/api/sellers/seller-1", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Ana Lima", body["name"])

	resp, _ = doJSON(t, http.MethodGet, server.URL+"/api/sellers/ghost", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_RegisterSaleAndSummary(t *testing.T) {
	server := newTestServer(t)
	seedSeller(t, server, "seller-1", "Ana Lima")
	seedSale(t, server, "seller-1", "10000")
	seedSale(t, server, "seller-1", "5000")

	resp, body := doJSON(t, http.MethodGet, server.URL+"/api/sellers/seller-1/summary", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), body["sale_count"])
	assert.Equal(t, "15000", body["gross_total"])
	assert.Equal(t, "1500", body["total_commission"])
}

func TestAPI_RegisterSale_InvalidAmount(t *testing.T) {
	server := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, server.URL+"/api/sellers/seller-1/sales",
		`{"gross_amount":"not-a-number"}`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, server.URL+"/api/sellers/seller-1/sales",
		`{"gross_amount":"-20"}`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// BALANCE & WITHDRAWAL ENDPOINTS
// =============================================================================

func TestAPI_BalanceReflectsReservation(t *testing.T) {
	server := newTestServer(t)
	seedSale(t, server, "seller-1", "10000")

	resp, body := doJSON(t, http.MethodGet, server.URL+"/api/sellers/seller-1/balance", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "1000", body["total_commission"])
	assert.Equal(t, "1000", body["available_amount"])

	resp, _ = doJSON(t, http.MethodPost, server.URL+"/api/sellers/seller-1/withdrawals",
		`{"amount":"400","payout_key":"pix-key"}`, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body = doJSON(t, http.MethodGet, server.URL+"/api/sellers/seller-1/balance", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "600", body["available_amount"])
	assert.Equal(t, "0", body["withdrawn_amount"])
}

func TestAPI_Withdrawal_InsufficientFundsIs422(t *testing.T) {
	server := newTestServer(t)
	seedSale(t, server, "seller-1", "1000") // commission 100

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/sellers/seller-1/withdrawals",
		`{"amount":"150","payout_key":"pix-key"}`, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body["details"], "insufficient funds")
}

func TestAPI_Withdrawal_MissingPayoutKeyIs400(t *testing.T) {
	server := newTestServer(t)
	seedSale(t, server, "seller-1", "1000")

	resp, _ := doJSON(t, http.MethodPost, server.URL+"/api/sellers/seller-1/withdrawals",
		`{"amount":"50","payout_key":""}`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// EXECUTIVE ENDPOINTS
// =============================================================================

func TestAPI_ExecutiveQueueAndProcessing(t *testing.T) {
	server := newTestServer(t)
	seedSeller(t, server, "seller-1", "Ana Lima")
	seedSale(t, server, "seller-1", "10000")

	resp, created := doJSON(t, http.MethodPost, server.URL+"/api/sellers/seller-1/withdrawals",
		`{"amount":"400","payout_key":"pix-key"}`, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	requestID := created["id"].(string)

	// Queue carries the seller name for display.
	req, err := http.NewRequest(http.MethodGet, server.URL+"/api/withdrawals/pending", nil)
	require.NoError(t, err)
	queueResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer queueResp.Body.Close()
	var queue []map[string]any
	require.NoError(t, json.NewDecoder(queueResp.Body).Decode(&queue))
	require.Len(t, queue, 1)
	assert.Equal(t, "Ana Lima", queue[0]["seller_name"])

	// Without the capability token: 403, request untouched.
	resp, _ = doJSON(t, http.MethodPost, server.URL+"/api/withdrawals/"+requestID+"/process",
		`{"decision":"approve"}`, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// With the token: approved.
	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/withdrawals/"+requestID+"/process",
		`{"decision":"approve","notes":"ok"}`, executiveHeaders())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "approved", body["status"])
	assert.Equal(t, "exec-1", body["processed_by"])

	// Duplicate processing: 409.
	resp, _ = doJSON(t, http.MethodPost, server.URL+"/api/withdrawals/"+requestID+"/process",
		`{"decision":"reject"}`, executiveHeaders())
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Balance moved the amount to the withdrawn bucket.
	resp, balance := doJSON(t, http.MethodGet, server.URL+"/api/sellers/seller-1/balance", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "400", balance["withdrawn_amount"])
	assert.Equal(t, "600", balance["available_amount"])
}

func TestAPI_ProcessUnknownDecisionIs400(t *testing.T) {
	server := newTestServer(t)
	seedSale(t, server, "seller-1", "10000")

	resp, created := doJSON(t, http.MethodPost, server.URL+"/api/sellers/seller-1/withdrawals",
		`{"amount":"100","payout_key":"pix-key"}`, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, server.URL+"/api/withdrawals/"+created["id"].(string)+"/process",
		`{"decision":"defer"}`, executiveHeaders())
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
