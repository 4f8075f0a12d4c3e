/**
 * @description
 * This file contains the core business logic for the wallet-service. The `Service`
 * struct orchestrates the withdrawal/deposit workflow and account registration,
 * coordinating between the database repository, the settings provider, the message
 * broker and the notification sink.
 *
 * Key behaviors:
 * - Withdrawals reserve funds optimistically: the amount is deducted at request
 *   time, so approval performs no further deduction and rejection must refund.
 * - Deposits have no balance effect until an administrator approves them.
 * - Every balance change is paired with exactly one transaction record; the
 *   repository guarantees the pairing is atomic.
 * - Transient store failures are retried a bounded number of times with backoff;
 *   validation failures are terminal and surfaced immediately.
 *
 * @dependencies
 * - context, errors, fmt, log, time: Standard Go libraries.
 * - github.com/google/uuid: For transaction id generation.
 * - internal/domain, internal/store, internal/settings: Models, data access, config.
 * - pkg/rabbitmq: For event publishing.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/takapay/wallet-service/internal/domain"
	"github.com/takapay/wallet-service/internal/settings"
	"github.com/takapay/wallet-service/internal/store"
	"github.com/takapay/wallet-service/pkg/rabbitmq"
)

// WalletEventsExchange is the topic exchange all wallet events are published to
// and review decisions are consumed from.
const WalletEventsExchange = "wallet.events"

var (
	// ErrAmountOutOfRange marks a withdrawal or deposit amount outside the
	// configured bounds. Recovered locally and shown to the user with the
	// violated bound; never escalated to the administrator.
	ErrAmountOutOfRange = errors.New("amount out of range")

	// ErrInvalidState marks an attempt to resolve a request that is not pending
	// (e.g. a double approval). Rejected without side effects.
	ErrInvalidState = errors.New("request is not pending")
)

// Service provides the core business logic for the wallet.
type Service struct {
	repo     store.Repository
	settings *settings.Provider
	producer rabbitmq.Publisher
	sink     NotificationSink
	retry    retryPolicy
}

// NewService creates a new wallet service instance. producer may be nil when the
// broker is unavailable; sink must not be nil (use NoopSink).
func NewService(repo store.Repository, provider *settings.Provider, producer rabbitmq.Publisher, sink NotificationSink) *Service {
	return &Service{
		repo:     repo,
		settings: provider,
		producer: producer,
		sink:     sink,
		retry:    newRetryPolicy(3, 100*time.Millisecond),
	}
}

// ConfigureRetry overrides the default bounded-retry policy for store calls.
func (s *Service) ConfigureRetry(attempts int, backoff time.Duration) {
	s.retry = newRetryPolicy(attempts, backoff)
}

// RegisterAccount creates a wallet account on first contact. It grants the
// configured welcome bonus and runs referral crediting as best-effort side
// effects: neither may fail the registration itself. If the account already
// exists the call returns the existing record and created=false.
func (s *Service) RegisterAccount(ctx context.Context, accountID, referralCode string) (*domain.Account, bool, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return nil, false, fmt.Errorf("%w: empty account id", store.ErrAccountNotFound)
	}

	referralCode = strings.ToUpper(strings.TrimSpace(referralCode))

	account := &domain.Account{
		ID:           accountID,
		ReferralCode: domain.NewReferralCode(),
		IsActive:     true,
	}
	// referred_by stores the referrer's account id, so resolve the code up front.
	// An unknown code is simply not recorded.
	if referralCode != "" {
		if referrer, findErr := s.repo.FindAccountByReferralCode(ctx, referralCode); findErr == nil && referrer.ID != accountID {
			account.ReferredBy = &referrer.ID
		}
	}

	err := s.retry.run(ctx, func() error {
		return s.repo.CreateAccount(ctx, account)
	})
	if err != nil {
		if errors.Is(err, store.ErrAccountExists) {
			existing, findErr := s.repo.FindAccountByID(ctx, accountID)
			if findErr != nil {
				return nil, false, findErr
			}
			if touchErr := s.repo.TouchLastActive(ctx, accountID); touchErr != nil {
				log.Printf("level=warn component=wallet msg=\"last_active touch failed\" account_id=%s err=%v", accountID, touchErr)
			}
			return existing, false, nil
		}
		return nil, false, err
	}

	if bonus := s.settings.WelcomeBonus(ctx); bonus > 0 {
		if grantErr := s.grantWelcomeBonus(ctx, accountID, bonus); grantErr != nil {
			log.Printf("level=error component=wallet msg=\"welcome bonus grant failed\" account_id=%s err=%v", accountID, grantErr)
		}
	}

	// Referral crediting is a side effect of registration, never a precondition.
	if referralCode != "" {
		if refErr := s.RegisterReferral(ctx, accountID, referralCode); refErr != nil {
			log.Printf("level=error component=wallet msg=\"referral crediting failed\" account_id=%s code=%s err=%v", accountID, referralCode, refErr)
		}
	}

	s.publish(ctx, "wallet.account.registered", domain.AccountRegisteredEvent{
		AccountID:    account.ID,
		ReferralCode: account.ReferralCode,
		ReferredBy:   account.ReferredBy,
		Timestamp:    time.Now().UTC(),
	})

	return account, true, nil
}

// GetAccount retrieves an account by id.
func (s *Service) GetAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	return s.repo.FindAccountByID(ctx, accountID)
}

// ListTransactions retrieves an account's transaction history, newest first.
func (s *Service) ListTransactions(ctx context.Context, accountID string, limit int) ([]domain.Transaction, error) {
	return s.repo.FindTransactionsByAccountID(ctx, accountID, limit)
}

// ListPendingTransactions retrieves requests awaiting admin review, oldest first.
func (s *Service) ListPendingTransactions(ctx context.Context, limit int) ([]domain.Transaction, error) {
	return s.repo.FindPendingTransactions(ctx, limit)
}

// Settings returns the read-only settings snapshot served to the gateway.
func (s *Service) Settings(ctx context.Context) (*domain.WalletSettings, error) {
	return s.settings.Snapshot(ctx)
}

// RequestWithdraw validates a withdrawal against the configured bounds and the
// account balance, then reserves the funds: the amount is deducted immediately
// and a pending withdraw transaction is recorded, both atomically. Validation
// failures leave the balance untouched and record nothing.
func (s *Service) RequestWithdraw(ctx context.Context, accountID string, req domain.WithdrawRequest) (*domain.Transaction, error) {
	minWithdraw := s.settings.MinWithdraw(ctx)
	maxWithdraw := s.settings.MaxWithdraw(ctx)
	if req.Amount < minWithdraw || req.Amount > maxWithdraw {
		return nil, fmt.Errorf("%w: amount must be between %s and %s", ErrAmountOutOfRange, formatTaka(minWithdraw), formatTaka(maxWithdraw))
	}

	txRecord := &domain.Transaction{
		ID:        uuid.New(),
		AccountID: accountID,
		Kind:      domain.KindWithdraw,
		Amount:    req.Amount,
		Status:    domain.StatusPending,
	}
	if method := strings.TrimSpace(req.MethodID); method != "" {
		txRecord.Method = &method
	}

	err := s.retry.run(ctx, func() error {
		return s.repo.DebitForWithdrawal(ctx, txRecord)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("level=info component=wallet op=withdraw outcome=reserved account_id=%s amount=%d tx_id=%s", accountID, req.Amount, txRecord.ID)

	s.notifyAdmin(ctx, fmt.Sprintf("New withdrawal request\nAccount: %s\nAmount: %s\nMethod: %s\nTx: %s",
		accountID, formatTaka(req.Amount), req.MethodID, txRecord.ID))
	s.publishTransactionEvent(ctx, "wallet.transaction.created", txRecord)

	return txRecord, nil
}

// RequestDeposit records a deposit claim for admin review. No balance is credited
// until the administrator approves it.
func (s *Service) RequestDeposit(ctx context.Context, accountID string, req domain.DepositRequest) (*domain.Transaction, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: deposit amount must be positive", ErrAmountOutOfRange)
	}

	txRecord := &domain.Transaction{
		ID:        uuid.New(),
		AccountID: accountID,
		Kind:      domain.KindDeposit,
		Amount:    req.Amount,
		Status:    domain.StatusPending,
	}
	if method := strings.TrimSpace(req.MethodID); method != "" {
		txRecord.Method = &method
	}
	if proof := strings.TrimSpace(req.Proof); proof != "" {
		txRecord.Description = &proof
	}

	err := s.retry.run(ctx, func() error {
		return s.repo.CreateTransaction(ctx, txRecord)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("level=info component=wallet op=deposit outcome=pending account_id=%s amount=%d tx_id=%s", accountID, req.Amount, txRecord.ID)

	s.notifyAdmin(ctx, fmt.Sprintf("New deposit request\nAccount: %s\nAmount: %s\nMethod: %s\nProof: %s\nTx: %s",
		accountID, formatTaka(req.Amount), req.MethodID, req.Proof, txRecord.ID))
	s.publishTransactionEvent(ctx, "wallet.transaction.created", txRecord)

	return txRecord, nil
}

// RecordTaskEarning credits a completed earning task immediately. Task earnings
// are resolved by automatic rule, not manual review, so the transaction is
// recorded as approved.
func (s *Service) RecordTaskEarning(ctx context.Context, accountID string, req domain.TaskEarningRequest) (*domain.Transaction, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: earning amount must be positive", ErrAmountOutOfRange)
	}

	txRecord := &domain.Transaction{
		ID:        uuid.New(),
		AccountID: accountID,
		Kind:      domain.KindTaskEarning,
		Amount:    req.Amount,
		Status:    domain.StatusApproved,
	}
	if desc := strings.TrimSpace(req.Description); desc != "" {
		txRecord.Description = &desc
	}

	err := s.retry.run(ctx, func() error {
		return s.repo.CreditWithTransaction(ctx, txRecord)
	})
	if err != nil {
		return nil, err
	}

	s.publishTransactionEvent(ctx, "wallet.transaction.created", txRecord)
	return txRecord, nil
}

func (s *Service) grantWelcomeBonus(ctx context.Context, accountID string, bonus int64) error {
	description := "Welcome bonus"
	txRecord := &domain.Transaction{
		ID:          uuid.New(),
		AccountID:   accountID,
		Kind:        domain.KindWelcomeBonus,
		Amount:      bonus,
		Status:      domain.StatusApproved,
		Description: &description,
	}
	return s.retry.run(ctx, func() error {
		return s.repo.CreditWithTransaction(ctx, txRecord)
	})
}

func (s *Service) notifyAdmin(ctx context.Context, text string) {
	if err := s.sink.NotifyAdmin(ctx, text); err != nil {
		log.Printf("level=error component=wallet msg=\"admin notification failed\" err=%v", err)
	}
}

func (s *Service) sendReply(ctx context.Context, accountID, text string) {
	if err := s.sink.SendReply(ctx, accountID, text); err != nil {
		log.Printf("level=error component=wallet msg=\"user reply failed\" account_id=%s err=%v", accountID, err)
	}
}

func (s *Service) publish(ctx context.Context, routingKey string, body interface{}) {
	if s.producer == nil {
		return
	}
	if err := s.producer.Publish(ctx, WalletEventsExchange, routingKey, body); err != nil {
		log.Printf("level=warn component=wallet msg=\"event publish failed\" routing_key=%s err=%v", routingKey, err)
	}
}

func (s *Service) publishTransactionEvent(ctx context.Context, routingKey string, txRecord *domain.Transaction) {
	s.publish(ctx, routingKey, domain.TransactionEvent{
		TransactionID: txRecord.ID,
		AccountID:     txRecord.AccountID,
		Kind:          txRecord.Kind,
		Amount:        txRecord.Amount,
		Status:        txRecord.Status,
		Timestamp:     time.Now().UTC(),
	})
}

// formatTaka renders a poisha amount as taka for user-facing messages.
func formatTaka(poisha int64) string {
	sign := ""
	if poisha < 0 {
		sign = "-"
		poisha = -poisha
	}
	return fmt.Sprintf("%s৳%d.%02d", sign, poisha/100, poisha%100)
}
