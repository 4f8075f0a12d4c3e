/**
 * @description
 * This file defines the core domain models for the wallet-service. These structs
 * represent the main entities and data transfer objects (DTOs) used throughout the
 * service's business logic, database interactions, and API layers.
 *
 * @notes
 * - Amounts are stored as `int64` in the smallest currency unit (poisha), which
 *   avoids floating-point inaccuracies with financial data.
 * - Transaction amount, kind and account never change after insert; only the status
 *   moves, and only pending -> approved or pending -> rejected.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Transaction kinds. The sign of the balance effect is implied by the kind:
// withdraw debits the account, every other kind credits it.
const (
	KindWelcomeBonus  = "welcome_bonus"
	KindReferralBonus = "referral_bonus"
	KindTaskEarning   = "task_earning"
	KindDeposit       = "deposit"
	KindWithdraw      = "withdraw"
)

// Transaction statuses.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Transaction is the immutable audit record for any balance-affecting event.
// This struct maps directly to the `transactions` table in the database.
type Transaction struct {
	ID          uuid.UUID `json:"id"`
	AccountID   string    `json:"account_id"`
	Kind        string    `json:"kind"`
	Amount      int64     `json:"amount"` // in poisha, always positive
	Status      string    `json:"status"`
	Method      *string   `json:"method,omitempty"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CountsAsEarning reports whether a credit of this kind adds to the account's
// lifetime `total_earned` figure. Deposits move money in but are not earnings.
func CountsAsEarning(kind string) bool {
	switch kind {
	case KindWelcomeBonus, KindReferralBonus, KindTaskEarning:
		return true
	default:
		return false
	}
}

// ValidKind reports whether the given kind is one of the known transaction kinds.
func ValidKind(kind string) bool {
	switch kind {
	case KindWelcomeBonus, KindReferralBonus, KindTaskEarning, KindDeposit, KindWithdraw:
		return true
	default:
		return false
	}
}

// WithdrawRequest is the DTO for incoming withdrawal API requests.
type WithdrawRequest struct {
	Amount   int64  `json:"amount"` // in poisha
	MethodID string `json:"method_id"`
}

// DepositRequest is the DTO for incoming deposit API requests. Proof is the
// free-text payment evidence forwarded by the gateway (transaction id, sender
// number, screenshot file id).
type DepositRequest struct {
	Amount   int64  `json:"amount"` // in poisha
	MethodID string `json:"method_id"`
	Proof    string `json:"proof"`
}

// TaskEarningRequest is the DTO for crediting a completed earning task.
type TaskEarningRequest struct {
	Amount      int64  `json:"amount"` // in poisha
	Description string `json:"description"`
}

// RegisterAccountRequest is the DTO for creating a wallet account on first contact.
type RegisterAccountRequest struct {
	AccountID    string `json:"account_id"`
	ReferralCode string `json:"referral_code,omitempty"`
}
