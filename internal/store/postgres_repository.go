/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository` interface.
 * It contains all the necessary SQL queries to interact with the database tables
 * for accounts, transactions, settings, payment methods and channels.
 *
 * Balance mutations use a transactional read-modify-write with `FOR UPDATE` row
 * locks so that concurrent requests against the same account serialize on the
 * database, and the transaction record is inserted inside the same database
 * transaction as the balance change.
 *
 * @dependencies
 * - context, errors: Standard Go libraries.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: Contains the domain models used for data transfer.
 */

package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/takapay/wallet-service/internal/domain"
)

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrAccountExists       = errors.New("account already exists")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrSettingNotFound     = errors.New("setting not found")
)

const uniqueViolationCode = "23505"

// PostgresRepository is a concrete implementation of the Repository interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// CreateAccount inserts a new account row. A duplicate id maps to ErrAccountExists.
func (r *PostgresRepository) CreateAccount(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (id, balance, total_earned, referral_code, referred_by, referral_count, is_active, joined_at, last_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query,
		account.ID,
		account.Balance,
		account.TotalEarned,
		account.ReferralCode,
		account.ReferredBy,
		account.ReferralCount,
		account.IsActive,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return ErrAccountExists
		}
		return err
	}
	return nil
}

// FindAccountByID retrieves an account from the database by its id.
func (r *PostgresRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	query := `
		SELECT id, balance, total_earned, referral_code, referred_by, referral_count, is_active, joined_at, last_active
		FROM accounts
		WHERE id = $1
	`
	var account domain.Account
	err := r.db.QueryRow(ctx, query, accountID).Scan(
		&account.ID,
		&account.Balance,
		&account.TotalEarned,
		&account.ReferralCode,
		&account.ReferredBy,
		&account.ReferralCount,
		&account.IsActive,
		&account.JoinedAt,
		&account.LastActive,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// FindAccountByReferralCode retrieves the account owning a referral code.
func (r *PostgresRepository) FindAccountByReferralCode(ctx context.Context, code string) (*domain.Account, error) {
	query := `
		SELECT id, balance, total_earned, referral_code, referred_by, referral_count, is_active, joined_at, last_active
		FROM accounts
		WHERE referral_code = upper(btrim($1))
	`
	var account domain.Account
	err := r.db.QueryRow(ctx, query, code).Scan(
		&account.ID,
		&account.Balance,
		&account.TotalEarned,
		&account.ReferralCode,
		&account.ReferredBy,
		&account.ReferralCount,
		&account.IsActive,
		&account.JoinedAt,
		&account.LastActive,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// TouchLastActive bumps the last_active timestamp for an existing account.
func (r *PostgresRepository) TouchLastActive(ctx context.Context, accountID string) error {
	result, err := r.db.Exec(ctx, `UPDATE accounts SET last_active = NOW() WHERE id = $1`, accountID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// CreditWithTransaction atomically credits an account and records the paired
// transaction. Earning kinds also advance total_earned.
func (r *PostgresRepository) CreditWithTransaction(ctx context.Context, txRecord *domain.Transaction) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var exists bool
	// Lock the row so concurrent mutations against this account serialize.
	err = tx.QueryRow(ctx, `SELECT true FROM accounts WHERE id = $1 FOR UPDATE`, txRecord.AccountID).Scan(&exists)
	if err != nil {
		if err == pgx.ErrNoRows {
			return ErrAccountNotFound
		}
		return err
	}

	if domain.CountsAsEarning(txRecord.Kind) {
		_, err = tx.Exec(ctx,
			`UPDATE accounts SET balance = balance + $1, total_earned = total_earned + $1, last_active = NOW() WHERE id = $2`,
			txRecord.Amount, txRecord.AccountID)
	} else {
		_, err = tx.Exec(ctx,
			`UPDATE accounts SET balance = balance + $1, last_active = NOW() WHERE id = $2`,
			txRecord.Amount, txRecord.AccountID)
	}
	if err != nil {
		return err
	}

	if err := insertTransaction(ctx, tx, txRecord); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// DebitForWithdrawal atomically reserves withdrawal funds: the balance check, the
// deduction and the pending withdraw insert happen in one database transaction.
// ErrInsufficientBalance leaves the account untouched and inserts nothing.
func (r *PostgresRepository) DebitForWithdrawal(ctx context.Context, txRecord *domain.Transaction) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var balance int64
	err = tx.QueryRow(ctx, `SELECT balance FROM accounts WHERE id = $1 FOR UPDATE`, txRecord.AccountID).Scan(&balance)
	if err != nil {
		if err == pgx.ErrNoRows {
			return ErrAccountNotFound
		}
		return err
	}

	if balance < txRecord.Amount {
		return ErrInsufficientBalance
	}

	_, err = tx.Exec(ctx,
		`UPDATE accounts SET balance = balance - $1, last_active = NOW() WHERE id = $2`,
		txRecord.Amount, txRecord.AccountID)
	if err != nil {
		return err
	}

	if err := insertTransaction(ctx, tx, txRecord); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// CreditReferralBonus atomically credits the referrer's balance and total_earned,
// increments referral_count and records the approved referral_bonus transaction.
func (r *PostgresRepository) CreditReferralBonus(ctx context.Context, referrerID string, txRecord *domain.Transaction) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx, `
		UPDATE accounts
		SET balance = balance + $1,
		    total_earned = total_earned + $1,
		    referral_count = referral_count + 1
		WHERE id = $2
	`, txRecord.Amount, referrerID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrAccountNotFound
	}

	if err := insertTransaction(ctx, tx, txRecord); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// CreateTransaction inserts a transaction record with no balance effect. Used for
// pending deposits, which are only credited at approval time.
func (r *PostgresRepository) CreateTransaction(ctx context.Context, txRecord *domain.Transaction) error {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT true FROM accounts WHERE id = $1`, txRecord.AccountID).Scan(&exists)
	if err != nil {
		if err == pgx.ErrNoRows {
			return ErrAccountNotFound
		}
		return err
	}
	return insertTransaction(ctx, r.db, txRecord)
}

// ApproveTransaction resolves a pending transaction as approved. Deposit approval
// credits the account inside the same database transaction; withdraw approval
// touches no balance because the funds were reserved at request time. Resolving a
// transaction that is not pending fails with ErrInvalidTransition and has no side
// effects.
func (r *PostgresRepository) ApproveTransaction(ctx context.Context, transactionID uuid.UUID) (*domain.Transaction, error) {
	return r.resolveTransaction(ctx, transactionID, domain.StatusApproved)
}

// RejectTransaction resolves a pending transaction as rejected. Withdraw rejection
// refunds the reserved amount inside the same database transaction; deposit
// rejection touches no balance because nothing was ever credited.
func (r *PostgresRepository) RejectTransaction(ctx context.Context, transactionID uuid.UUID) (*domain.Transaction, error) {
	return r.resolveTransaction(ctx, transactionID, domain.StatusRejected)
}

func (r *PostgresRepository) resolveTransaction(ctx context.Context, transactionID uuid.UUID, newStatus string) (*domain.Transaction, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var record domain.Transaction
	err = tx.QueryRow(ctx, `
		SELECT id, account_id, kind, amount, status, method, description, created_at, updated_at
		FROM transactions
		WHERE id = $1
		FOR UPDATE
	`, transactionID).Scan(
		&record.ID,
		&record.AccountID,
		&record.Kind,
		&record.Amount,
		&record.Status,
		&record.Method,
		&record.Description,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}

	if record.Status != domain.StatusPending {
		return nil, ErrInvalidTransition
	}

	// The balance side effect depends on kind and direction: deposit approval
	// credits, withdraw rejection refunds the optimistic reservation.
	switch {
	case record.Kind == domain.KindDeposit && newStatus == domain.StatusApproved:
		_, err = tx.Exec(ctx,
			`UPDATE accounts SET balance = balance + $1 WHERE id = $2`,
			record.Amount, record.AccountID)
	case record.Kind == domain.KindWithdraw && newStatus == domain.StatusRejected:
		_, err = tx.Exec(ctx,
			`UPDATE accounts SET balance = balance + $1 WHERE id = $2`,
			record.Amount, record.AccountID)
	}
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx,
		`UPDATE transactions SET status = $1, updated_at = NOW() WHERE id = $2`,
		newStatus, transactionID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	record.Status = newStatus
	return &record, nil
}

// FindTransactionByID retrieves a transaction from the database by its id.
func (r *PostgresRepository) FindTransactionByID(ctx context.Context, transactionID uuid.UUID) (*domain.Transaction, error) {
	query := `
		SELECT id, account_id, kind, amount, status, method, description, created_at, updated_at
		FROM transactions
		WHERE id = $1
	`
	var record domain.Transaction
	err := r.db.QueryRow(ctx, query, transactionID).Scan(
		&record.ID,
		&record.AccountID,
		&record.Kind,
		&record.Amount,
		&record.Status,
		&record.Method,
		&record.Description,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return &record, nil
}

// FindTransactionsByAccountID retrieves an account's transaction history, newest first.
func (r *PostgresRepository) FindTransactionsByAccountID(ctx context.Context, accountID string, limit int) ([]domain.Transaction, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	query := `
		SELECT id, account_id, kind, amount, status, method, description, created_at, updated_at
		FROM transactions
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// FindPendingTransactions retrieves pending withdraw/deposit requests for admin
// review, oldest first.
func (r *PostgresRepository) FindPendingTransactions(ctx context.Context, limit int) ([]domain.Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	query := `
		SELECT id, account_id, kind, amount, status, method, description, created_at, updated_at
		FROM transactions
		WHERE status = 'pending'
		ORDER BY created_at ASC
		LIMIT $1
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// GetSetting returns the raw value for a settings key.
func (r *PostgresRepository) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", ErrSettingNotFound
		}
		return "", err
	}
	return value, nil
}

// FindPaymentMethods retrieves active payment methods of the given kind.
func (r *PostgresRepository) FindPaymentMethods(ctx context.Context, kind string) ([]domain.PaymentMethod, error) {
	query := `
		SELECT id, name, kind, COALESCE(instructions, ''), COALESCE(details, ''), is_active
		FROM payment_methods
		WHERE kind = $1 AND is_active = true
		ORDER BY name ASC
	`
	rows, err := r.db.Query(ctx, query, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var methods []domain.PaymentMethod
	for rows.Next() {
		var m domain.PaymentMethod
		if err := rows.Scan(&m.ID, &m.Name, &m.Kind, &m.Instructions, &m.Details, &m.IsActive); err != nil {
			return nil, err
		}
		methods = append(methods, m)
	}
	return methods, rows.Err()
}

// FindForceJoinChannels retrieves the force-join channel list.
func (r *PostgresRepository) FindForceJoinChannels(ctx context.Context) ([]domain.Channel, error) {
	rows, err := r.db.Query(ctx, `SELECT id, chat_id, link FROM channels ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []domain.Channel
	for rows.Next() {
		var c domain.Channel
		if err := rows.Scan(&c.ID, &c.ChatID, &c.Link); err != nil {
			return nil, err
		}
		channels = append(channels, c)
	}
	return channels, rows.Err()
}

type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func insertTransaction(ctx context.Context, db execer, txRecord *domain.Transaction) error {
	query := `
		INSERT INTO transactions (id, account_id, kind, amount, status, method, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := db.Exec(ctx, query,
		txRecord.ID,
		txRecord.AccountID,
		txRecord.Kind,
		txRecord.Amount,
		txRecord.Status,
		txRecord.Method,
		txRecord.Description,
	)
	return err
}

func scanTransactions(rows pgx.Rows) ([]domain.Transaction, error) {
	var transactions []domain.Transaction
	for rows.Next() {
		var record domain.Transaction
		err := rows.Scan(
			&record.ID,
			&record.AccountID,
			&record.Kind,
			&record.Amount,
			&record.Status,
			&record.Method,
			&record.Description,
			&record.CreatedAt,
			&record.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, record)
	}
	return transactions, rows.Err()
}
