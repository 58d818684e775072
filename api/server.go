/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the dashboard frontend

ROUTE GROUPS:
  /api/sellers/*       Seller accounts, sales, balance, withdrawals
  /api/withdrawals/*   Executive queue and processing

SECURITY NOTE:
  Authentication and session management belong to the outer application;
  executive endpoints take the capability token via header. See
  handlers.go.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Executive-Token", "X-Actor-ID"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Seller routes
		r.Route("/sellers", func(r chi.Router) {
			r.Get("/", h.ListSellers)
			r.Post("/", h.CreateSeller)
			r.Get("/{id}", h.GetSeller)
			r.Get("/{id}/balance", h.GetBalance)
			r.Post("/{id}/sales", h.RegisterSale)
			r.Get("/{id}/sales", h.ListSales)
			r.Get("/{id}/summary", h.SalesSummary)
			r.Post("/{id}/withdrawals", h.RequestWithdrawal)
			r.Get("/{id}/withdrawals", h.ListWithdrawals)
		})

		// Executive withdrawal routes
		r.Route("/withdrawals", func(r chi.Router) {
			r.Get("/pending", h.ListPendingWithdrawals)
			r.Post("/{id}/process", h.ProcessWithdrawal)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
