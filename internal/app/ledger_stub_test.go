package app

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/takapay/wallet-service/internal/domain"
	"github.com/takapay/wallet-service/internal/settings"
	"github.com/takapay/wallet-service/internal/store"
)

// ledgerRepoStub is an in-memory stand-in for the Postgres repository. It keeps
// the same pairing rules: every balance move records exactly one transaction,
// and resolving a non-pending transaction fails without side effects.
type ledgerRepoStub struct {
	store.Repository

	accounts     map[string]*domain.Account
	transactions map[uuid.UUID]*domain.Transaction

	// nextErrs are returned (and consumed) by the next mutating calls,
	// letting tests inject transient failures.
	nextErrs []error
}

func newLedgerRepoStub() *ledgerRepoStub {
	return &ledgerRepoStub{
		accounts:     make(map[string]*domain.Account),
		transactions: make(map[uuid.UUID]*domain.Transaction),
	}
}

func (s *ledgerRepoStub) addAccount(accountID string, balance int64) *domain.Account {
	account := &domain.Account{
		ID:           accountID,
		Balance:      balance,
		ReferralCode: domain.NewReferralCode(),
		IsActive:     true,
		JoinedAt:     time.Now(),
	}
	s.accounts[accountID] = account
	return account
}

func (s *ledgerRepoStub) popErr() error {
	if len(s.nextErrs) == 0 {
		return nil
	}
	err := s.nextErrs[0]
	s.nextErrs = s.nextErrs[1:]
	return err
}

func (s *ledgerRepoStub) record(tx *domain.Transaction) {
	clone := *tx
	clone.CreatedAt = time.Now()
	clone.UpdatedAt = clone.CreatedAt
	s.transactions[clone.ID] = &clone
}

func (s *ledgerRepoStub) CreateAccount(ctx context.Context, account *domain.Account) error {
	if err := s.popErr(); err != nil {
		return err
	}
	if _, exists := s.accounts[account.ID]; exists {
		return store.ErrAccountExists
	}
	clone := *account
	clone.JoinedAt = time.Now()
	s.accounts[account.ID] = &clone
	return nil
}

func (s *ledgerRepoStub) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	account, ok := s.accounts[accountID]
	if !ok {
		return nil, store.ErrAccountNotFound
	}
	clone := *account
	return &clone, nil
}

func (s *ledgerRepoStub) FindAccountByReferralCode(ctx context.Context, code string) (*domain.Account, error) {
	for _, account := range s.accounts {
		if account.ReferralCode == code {
			clone := *account
			return &clone, nil
		}
	}
	return nil, store.ErrAccountNotFound
}

func (s *ledgerRepoStub) TouchLastActive(ctx context.Context, accountID string) error {
	return nil
}

func (s *ledgerRepoStub) CreditWithTransaction(ctx context.Context, tx *domain.Transaction) error {
	if err := s.popErr(); err != nil {
		return err
	}
	account, ok := s.accounts[tx.AccountID]
	if !ok {
		return store.ErrAccountNotFound
	}
	account.Balance += tx.Amount
	if domain.CountsAsEarning(tx.Kind) {
		account.TotalEarned += tx.Amount
	}
	s.record(tx)
	return nil
}

func (s *ledgerRepoStub) DebitForWithdrawal(ctx context.Context, tx *domain.Transaction) error {
	if err := s.popErr(); err != nil {
		return err
	}
	account, ok := s.accounts[tx.AccountID]
	if !ok {
		return store.ErrAccountNotFound
	}
	if account.Balance < tx.Amount {
		return store.ErrInsufficientBalance
	}
	account.Balance -= tx.Amount
	s.record(tx)
	return nil
}

func (s *ledgerRepoStub) CreditReferralBonus(ctx context.Context, referrerID string, tx *domain.Transaction) error {
	if err := s.popErr(); err != nil {
		return err
	}
	account, ok := s.accounts[referrerID]
	if !ok {
		return store.ErrAccountNotFound
	}
	account.Balance += tx.Amount
	account.TotalEarned += tx.Amount
	account.ReferralCount++
	s.record(tx)
	return nil
}

func (s *ledgerRepoStub) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	if err := s.popErr(); err != nil {
		return err
	}
	s.record(tx)
	return nil
}

func (s *ledgerRepoStub) ApproveTransaction(ctx context.Context, transactionID uuid.UUID) (*domain.Transaction, error) {
	if err := s.popErr(); err != nil {
		return nil, err
	}
	tx, ok := s.transactions[transactionID]
	if !ok {
		return nil, store.ErrTransactionNotFound
	}
	if tx.Status != domain.StatusPending {
		return nil, store.ErrInvalidTransition
	}
	if tx.Kind == domain.KindDeposit {
		account, ok := s.accounts[tx.AccountID]
		if !ok {
			return nil, store.ErrAccountNotFound
		}
		account.Balance += tx.Amount
	}
	tx.Status = domain.StatusApproved
	tx.UpdatedAt = time.Now()
	clone := *tx
	return &clone, nil
}

func (s *ledgerRepoStub) RejectTransaction(ctx context.Context, transactionID uuid.UUID) (*domain.Transaction, error) {
	if err := s.popErr(); err != nil {
		return nil, err
	}
	tx, ok := s.transactions[transactionID]
	if !ok {
		return nil, store.ErrTransactionNotFound
	}
	if tx.Status != domain.StatusPending {
		return nil, store.ErrInvalidTransition
	}
	if tx.Kind == domain.KindWithdraw {
		account, ok := s.accounts[tx.AccountID]
		if !ok {
			return nil, store.ErrAccountNotFound
		}
		account.Balance += tx.Amount
	}
	tx.Status = domain.StatusRejected
	tx.UpdatedAt = time.Now()
	clone := *tx
	return &clone, nil
}

func (s *ledgerRepoStub) FindTransactionByID(ctx context.Context, transactionID uuid.UUID) (*domain.Transaction, error) {
	tx, ok := s.transactions[transactionID]
	if !ok {
		return nil, store.ErrTransactionNotFound
	}
	clone := *tx
	return &clone, nil
}

func (s *ledgerRepoStub) FindTransactionsByAccountID(ctx context.Context, accountID string, limit int) ([]domain.Transaction, error) {
	var result []domain.Transaction
	for _, tx := range s.transactions {
		if tx.AccountID == accountID {
			result = append(result, *tx)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *ledgerRepoStub) FindPendingTransactions(ctx context.Context, limit int) ([]domain.Transaction, error) {
	var result []domain.Transaction
	for _, tx := range s.transactions {
		if tx.Status == domain.StatusPending {
			result = append(result, *tx)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *ledgerRepoStub) GetSetting(ctx context.Context, key string) (string, error) {
	return "", store.ErrSettingNotFound
}

func (s *ledgerRepoStub) FindPaymentMethods(ctx context.Context, kind string) ([]domain.PaymentMethod, error) {
	return nil, nil
}

func (s *ledgerRepoStub) FindForceJoinChannels(ctx context.Context) ([]domain.Channel, error) {
	return nil, nil
}

func (s *ledgerRepoStub) transactionsOfKind(kind string) []*domain.Transaction {
	var result []*domain.Transaction
	for _, tx := range s.transactions {
		if tx.Kind == kind {
			result = append(result, tx)
		}
	}
	return result
}

// newTestService wires a Service around the stub with the given withdrawal
// bounds, a no-op sink and no broker.
func newTestService(repo *ledgerRepoStub, defaults settings.Defaults) *Service {
	provider := settings.NewProvider(repo, nil, "", 0, defaults)
	svc := NewService(repo, provider, nil, NoopSink{})
	svc.ConfigureRetry(3, time.Millisecond)
	return svc
}
