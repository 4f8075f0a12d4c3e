/**
 * @description
 * This file defines the `Repository` interface, which specifies the contract for all
 * data access operations required by the wallet-service. By defining an interface,
 * we decouple the application's business logic from the specific database
 * implementation (e.g., PostgreSQL), making the code more modular and easier to test.
 *
 * @dependencies
 * - context: Standard Go library.
 * - github.com/google/uuid: For transaction id handling.
 * - internal/domain: For the service's domain models.
 */

package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/takapay/wallet-service/internal/domain"
)

// Repository defines the set of methods for interacting with the database.
//
// Every method that moves money runs as a single database transaction with the
// account row locked: the balance check, the balance mutation and the paired
// transactions insert either all happen or none do. Callers never compose a
// balance update from separate read and write calls.
type Repository interface {
	// Account methods
	CreateAccount(ctx context.Context, account *domain.Account) error
	FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error)
	FindAccountByReferralCode(ctx context.Context, code string) (*domain.Account, error)
	TouchLastActive(ctx context.Context, accountID string) error

	// Ledger methods. Each pairs a balance delta with its transaction record.
	CreditWithTransaction(ctx context.Context, tx *domain.Transaction) error
	DebitForWithdrawal(ctx context.Context, tx *domain.Transaction) error
	CreditReferralBonus(ctx context.Context, referrerID string, tx *domain.Transaction) error

	// Recorder methods
	CreateTransaction(ctx context.Context, tx *domain.Transaction) error
	ApproveTransaction(ctx context.Context, transactionID uuid.UUID) (*domain.Transaction, error)
	RejectTransaction(ctx context.Context, transactionID uuid.UUID) (*domain.Transaction, error)
	FindTransactionByID(ctx context.Context, transactionID uuid.UUID) (*domain.Transaction, error)
	FindTransactionsByAccountID(ctx context.Context, accountID string, limit int) ([]domain.Transaction, error)
	FindPendingTransactions(ctx context.Context, limit int) ([]domain.Transaction, error)

	// Settings surface (read-only here; administered elsewhere)
	GetSetting(ctx context.Context, key string) (string, error)
	FindPaymentMethods(ctx context.Context, kind string) ([]domain.PaymentMethod, error)
	FindForceJoinChannels(ctx context.Context) ([]domain.Channel, error)
}
