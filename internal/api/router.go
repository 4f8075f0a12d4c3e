/**
 * @description
 * This file sets up the HTTP router for the wallet-service. It defines the API
 * endpoints, associates them with their corresponding handlers, and applies any
 * necessary middleware, such as for authentication.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// WalletRoutes creates and returns a new router for the wallet service.
func WalletRoutes(h *WalletHandlers, gatewaySecret, internalAPIKey string) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// Routes called by the chat gateway on behalf of users.
	r.Group(func(r chi.Router) {
		r.Use(GatewayAuthMiddleware(gatewaySecret))

		r.Post("/accounts", h.RegisterAccountHandler)
		r.Get("/accounts/{accountID}", h.GetAccountHandler)
		r.Get("/accounts/{accountID}/transactions", h.ListTransactionsHandler)
		r.Post("/accounts/{accountID}/withdrawals", h.RequestWithdrawHandler)
		r.Post("/accounts/{accountID}/deposits", h.RequestDepositHandler)
		r.Post("/accounts/{accountID}/earnings", h.RecordEarningHandler)
		r.Get("/settings", h.GetSettingsHandler)
	})

	// Admin review surface, guarded by the internal API key.
	r.Group(func(r chi.Router) {
		r.Use(InternalAuthMiddleware(internalAPIKey))

		r.Get("/admin/transactions/pending", h.ListPendingHandler)
		r.Post("/admin/transactions/{transactionID}/approve", h.ApproveTransactionHandler)
		r.Post("/admin/transactions/{transactionID}/reject", h.RejectTransactionHandler)
	})

	return r
}
