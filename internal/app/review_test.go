package app

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/takapay/wallet-service/internal/domain"
	"github.com/takapay/wallet-service/internal/settings"
	"github.com/takapay/wallet-service/internal/store"
)

func TestApproveTransaction_DoubleApprovalIsRefused(t *testing.T) {
	repo := newLedgerRepoStub()
	repo.addAccount("1001", 0)
	svc := newTestService(repo, settings.Defaults{})

	tx, err := svc.RequestDeposit(context.Background(), "1001", domain.DepositRequest{Amount: 100})
	if err != nil {
		t.Fatalf("expected deposit claim to be accepted, got %v", err)
	}

	if _, err := svc.ApproveTransaction(context.Background(), tx.ID); err != nil {
		t.Fatalf("expected first approval to succeed, got %v", err)
	}
	if _, err := svc.ApproveTransaction(context.Background(), tx.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState on double approval, got %v", err)
	}

	// The deposit must have been credited exactly once.
	account, _ := repo.FindAccountByID(context.Background(), "1001")
	if account.Balance != 100 {
		t.Fatalf("expected balance 100 after single credit, got %d", account.Balance)
	}
}

func TestApproveTransaction_UnknownIDIsNotFound(t *testing.T) {
	repo := newLedgerRepoStub()
	svc := newTestService(repo, settings.Defaults{})

	if _, err := svc.ApproveTransaction(context.Background(), uuid.New()); !errors.Is(err, store.ErrTransactionNotFound) {
		t.Fatalf("expected ErrTransactionNotFound, got %v", err)
	}
}

func TestRejectTransaction_DepositRejectHasNoBalanceEffect(t *testing.T) {
	repo := newLedgerRepoStub()
	repo.addAccount("1001", 40)
	svc := newTestService(repo, settings.Defaults{})

	tx, err := svc.RequestDeposit(context.Background(), "1001", domain.DepositRequest{Amount: 100})
	if err != nil {
		t.Fatalf("expected deposit claim to be accepted, got %v", err)
	}

	rejected, err := svc.RejectTransaction(context.Background(), tx.ID)
	if err != nil {
		t.Fatalf("expected rejection to succeed, got %v", err)
	}
	if rejected.Status != domain.StatusRejected {
		t.Fatalf("expected rejected status, got %q", rejected.Status)
	}

	account, _ := repo.FindAccountByID(context.Background(), "1001")
	if account.Balance != 40 {
		t.Fatalf("expected balance unchanged by deposit rejection, got %d", account.Balance)
	}
}

func TestResolvedTransactionKeepsAuditRecord(t *testing.T) {
	repo := newLedgerRepoStub()
	repo.addAccount("1001", 500)
	svc := newTestService(repo, settings.Defaults{MinWithdraw: 10, MaxWithdraw: 1000})

	tx, err := svc.RequestWithdraw(context.Background(), "1001", domain.WithdrawRequest{Amount: 200})
	if err != nil {
		t.Fatalf("expected withdrawal to be accepted, got %v", err)
	}
	if _, err := svc.RejectTransaction(context.Background(), tx.ID); err != nil {
		t.Fatalf("expected rejection to succeed, got %v", err)
	}

	// The rejected record stays in the history; only its status moved.
	history, err := svc.ListTransactions(context.Background(), "1001", 10)
	if err != nil {
		t.Fatalf("expected history read to succeed, got %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected one history entry, got %d", len(history))
	}
	if history[0].Status != domain.StatusRejected || history[0].Amount != 200 {
		t.Fatalf("expected rejected record with amount intact, got status=%q amount=%d", history[0].Status, history[0].Amount)
	}

	pending, err := svc.ListPendingTransactions(context.Background(), 10)
	if err != nil {
		t.Fatalf("expected pending read to succeed, got %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no pending transactions after resolution, got %d", len(pending))
	}
}
