/**
 * @description
 * This file contains the HTTP handlers for the wallet-service's API endpoints.
 * Handlers are responsible for parsing incoming requests, calling the appropriate
 * methods on the application service, and writing the HTTP response. They act as the
 * bridge between the web layer and the business logic layer.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - internal/app, internal/domain, internal/store: For service logic, models, and custom errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/takapay/wallet-service/internal/app"
	"github.com/takapay/wallet-service/internal/domain"
	"github.com/takapay/wallet-service/internal/store"
)

const defaultHistoryLimit = 20

// WalletHandlers holds the application service that handlers will use.
type WalletHandlers struct {
	service *app.Service
}

// NewWalletHandlers creates a new instance of WalletHandlers.
func NewWalletHandlers(service *app.Service) *WalletHandlers {
	return &WalletHandlers{service: service}
}

// registerAccountResponse is sent back to the gateway after a registration call.
// Created distinguishes a fresh signup from a returning user so the gateway can
// choose between the welcome flow and the main menu.
type registerAccountResponse struct {
	Account *domain.Account `json:"account"`
	Created bool            `json:"created"`
}

// transactionResponse mirrors the structure the gateway renders into chat
// messages after a withdrawal or deposit request is accepted.
type transactionResponse struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	Kind          string `json:"kind"`
	Amount        int64  `json:"amount"`
	Message       string `json:"message"`
}

func buildTransactionResponse(tx *domain.Transaction, message string) transactionResponse {
	return transactionResponse{
		TransactionID: tx.ID.String(),
		Status:        tx.Status,
		Kind:          tx.Kind,
		Amount:        tx.Amount,
		Message:       message,
	}
}

// RegisterAccountHandler handles account creation on first contact with the bot.
func (h *WalletHandlers) RegisterAccountHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("level=warn component=api endpoint=register outcome=reject reason=invalid_json err=%v", err)
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if strings.TrimSpace(req.AccountID) == "" {
		h.writeError(w, http.StatusBadRequest, "account_id is required")
		return
	}

	account, created, err := h.service.RegisterAccount(r.Context(), req.AccountID, req.ReferralCode)
	if err != nil {
		h.handleServiceError(w, "register", err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	h.writeJSON(w, status, registerAccountResponse{Account: account, Created: created})
}

// GetAccountHandler returns an account's balance and profile.
func (h *WalletHandlers) GetAccountHandler(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")

	account, err := h.service.GetAccount(r.Context(), accountID)
	if err != nil {
		h.handleServiceError(w, "get_account", err)
		return
	}
	h.writeJSON(w, http.StatusOK, account)
}

// ListTransactionsHandler returns an account's transaction history, newest first.
func (h *WalletHandlers) ListTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")
	limit := parseLimit(r, defaultHistoryLimit)

	transactions, err := h.service.ListTransactions(r.Context(), accountID, limit)
	if err != nil {
		h.handleServiceError(w, "list_transactions", err)
		return
	}
	h.writeJSON(w, http.StatusOK, transactions)
}

// RequestWithdrawHandler handles withdrawal requests. Funds are reserved
// immediately; the request then waits for admin review.
func (h *WalletHandlers) RequestWithdrawHandler(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")

	var req domain.WithdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("level=warn component=api endpoint=withdraw outcome=reject reason=invalid_json err=%v", err)
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	tx, err := h.service.RequestWithdraw(r.Context(), accountID, req)
	if err != nil {
		h.handleServiceError(w, "withdraw", err)
		return
	}

	log.Printf("level=info component=api endpoint=withdraw outcome=accepted account_id=%s amount=%d tx_id=%s", accountID, req.Amount, tx.ID)
	h.writeJSON(w, http.StatusAccepted, buildTransactionResponse(tx, "Withdrawal request submitted for review"))
}

// RequestDepositHandler handles deposit claims. Nothing is credited until an
// administrator approves the claim.
func (h *WalletHandlers) RequestDepositHandler(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")

	var req domain.DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("level=warn component=api endpoint=deposit outcome=reject reason=invalid_json err=%v", err)
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	tx, err := h.service.RequestDeposit(r.Context(), accountID, req)
	if err != nil {
		h.handleServiceError(w, "deposit", err)
		return
	}

	log.Printf("level=info component=api endpoint=deposit outcome=accepted account_id=%s amount=%d tx_id=%s", accountID, req.Amount, tx.ID)
	h.writeJSON(w, http.StatusAccepted, buildTransactionResponse(tx, "Deposit claim submitted for review"))
}

// RecordEarningHandler credits a completed earning task.
func (h *WalletHandlers) RecordEarningHandler(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")

	var req domain.TaskEarningRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("level=warn component=api endpoint=earning outcome=reject reason=invalid_json err=%v", err)
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	tx, err := h.service.RecordTaskEarning(r.Context(), accountID, req)
	if err != nil {
		h.handleServiceError(w, "earning", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, buildTransactionResponse(tx, "Earning credited"))
}

// GetSettingsHandler returns the wallet settings snapshot the gateway renders
// into its menus (bounds, payment methods, force-join channels).
func (h *WalletHandlers) GetSettingsHandler(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.service.Settings(r.Context())
	if err != nil {
		h.handleServiceError(w, "settings", err)
		return
	}
	h.writeJSON(w, http.StatusOK, snapshot)
}

// ListPendingHandler returns transactions awaiting review, oldest first.
func (h *WalletHandlers) ListPendingHandler(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 50)

	transactions, err := h.service.ListPendingTransactions(r.Context(), limit)
	if err != nil {
		h.handleServiceError(w, "list_pending", err)
		return
	}
	h.writeJSON(w, http.StatusOK, transactions)
}

// ApproveTransactionHandler resolves a pending request as approved.
func (h *WalletHandlers) ApproveTransactionHandler(w http.ResponseWriter, r *http.Request) {
	transactionID, err := uuid.Parse(chi.URLParam(r, "transactionID"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid transaction id")
		return
	}

	tx, err := h.service.ApproveTransaction(r.Context(), transactionID)
	if err != nil {
		h.handleServiceError(w, "approve", err)
		return
	}
	h.writeJSON(w, http.StatusOK, buildTransactionResponse(tx, "Transaction approved"))
}

// RejectTransactionHandler resolves a pending request as rejected.
func (h *WalletHandlers) RejectTransactionHandler(w http.ResponseWriter, r *http.Request) {
	transactionID, err := uuid.Parse(chi.URLParam(r, "transactionID"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid transaction id")
		return
	}

	tx, err := h.service.RejectTransaction(r.Context(), transactionID)
	if err != nil {
		h.handleServiceError(w, "reject", err)
		return
	}
	h.writeJSON(w, http.StatusOK, buildTransactionResponse(tx, "Transaction rejected"))
}

// handleServiceError maps service and store errors onto HTTP statuses.
func (h *WalletHandlers) handleServiceError(w http.ResponseWriter, endpoint string, err error) {
	switch {
	case errors.Is(err, app.ErrAmountOutOfRange):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrInsufficientBalance):
		h.writeError(w, http.StatusPaymentRequired, "Insufficient balance")
	case errors.Is(err, app.ErrInvalidState):
		h.writeError(w, http.StatusConflict, "Transaction is not pending")
	case errors.Is(err, store.ErrAccountNotFound):
		h.writeError(w, http.StatusNotFound, "Account not found")
	case errors.Is(err, store.ErrTransactionNotFound):
		h.writeError(w, http.StatusNotFound, "Transaction not found")
	case errors.Is(err, app.ErrStoreUnavailable):
		log.Printf("level=error component=api endpoint=%s msg=\"store unavailable\" err=%v", endpoint, err)
		h.writeError(w, http.StatusServiceUnavailable, "Service temporarily unavailable, please try again")
	default:
		log.Printf("level=error component=api endpoint=%s msg=\"unhandled service error\" err=%v", endpoint, err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func parseLimit(r *http.Request, fallback int) int {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return fallback
	}
	return limit
}

// writeJSON is a helper for writing JSON responses.
func (h *WalletHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError is a helper for writing JSON error responses.
func (h *WalletHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
