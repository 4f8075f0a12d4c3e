package app

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/takapay/wallet-service/internal/domain"
	"github.com/takapay/wallet-service/internal/store"
)

// ApproveTransaction resolves a pending request as approved. For deposits the
// account is credited as part of the same store transaction; for withdrawals the
// funds were already reserved at request time, so no balance moves here.
// Approving a request that is not pending fails with ErrInvalidState and has no
// side effects.
func (s *Service) ApproveTransaction(ctx context.Context, transactionID uuid.UUID) (*domain.Transaction, error) {
	var txRecord *domain.Transaction
	err := s.retry.run(ctx, func() error {
		var innerErr error
		txRecord, innerErr = s.repo.ApproveTransaction(ctx, transactionID)
		return innerErr
	})
	if err != nil {
		if errors.Is(err, store.ErrInvalidTransition) {
			return nil, fmt.Errorf("%w: transaction %s", ErrInvalidState, transactionID)
		}
		return nil, err
	}

	log.Printf("level=info component=review op=approve tx_id=%s kind=%s account_id=%s amount=%d", txRecord.ID, txRecord.Kind, txRecord.AccountID, txRecord.Amount)

	switch txRecord.Kind {
	case domain.KindDeposit:
		s.sendReply(ctx, txRecord.AccountID, fmt.Sprintf("Your deposit of %s was approved and credited.", formatTaka(txRecord.Amount)))
	case domain.KindWithdraw:
		s.sendReply(ctx, txRecord.AccountID, fmt.Sprintf("Your withdrawal of %s was approved and is on its way.", formatTaka(txRecord.Amount)))
	}
	s.publishTransactionEvent(ctx, "wallet.transaction.approved", txRecord)

	return txRecord, nil
}

// RejectTransaction resolves a pending request as rejected. For withdrawals the
// reserved amount is refunded as part of the same store transaction; for deposits
// nothing was ever credited, so no balance moves. Rejecting a request that is not
// pending fails with ErrInvalidState and has no side effects.
func (s *Service) RejectTransaction(ctx context.Context, transactionID uuid.UUID) (*domain.Transaction, error) {
	var txRecord *domain.Transaction
	err := s.retry.run(ctx, func() error {
		var innerErr error
		txRecord, innerErr = s.repo.RejectTransaction(ctx, transactionID)
		return innerErr
	})
	if err != nil {
		if errors.Is(err, store.ErrInvalidTransition) {
			return nil, fmt.Errorf("%w: transaction %s", ErrInvalidState, transactionID)
		}
		return nil, err
	}

	log.Printf("level=info component=review op=reject tx_id=%s kind=%s account_id=%s amount=%d", txRecord.ID, txRecord.Kind, txRecord.AccountID, txRecord.Amount)

	switch txRecord.Kind {
	case domain.KindDeposit:
		s.sendReply(ctx, txRecord.AccountID, fmt.Sprintf("Your deposit of %s was rejected. Contact support if you believe this is a mistake.", formatTaka(txRecord.Amount)))
	case domain.KindWithdraw:
		s.sendReply(ctx, txRecord.AccountID, fmt.Sprintf("Your withdrawal of %s was rejected. The amount has been returned to your balance.", formatTaka(txRecord.Amount)))
	}
	s.publishTransactionEvent(ctx, "wallet.transaction.rejected", txRecord)

	return txRecord, nil
}
