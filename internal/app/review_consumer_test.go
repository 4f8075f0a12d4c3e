package app

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/takapay/wallet-service/internal/domain"
	"github.com/takapay/wallet-service/internal/settings"
)

func decisionBody(t *testing.T, transactionID string) []byte {
	t.Helper()
	body, err := json.Marshal(domain.ReviewDecisionEvent{TransactionID: transactionID, Reviewer: "admin"})
	if err != nil {
		t.Fatalf("marshal decision: %v", err)
	}
	return body
}

func TestReviewConsumer_ApprovedDecisionCreditsDeposit(t *testing.T) {
	repo := newLedgerRepoStub()
	repo.addAccount("1001", 0)
	svc := newTestService(repo, settings.Defaults{})
	consumer := NewReviewDecisionConsumer(svc)

	tx, err := svc.RequestDeposit(context.Background(), "1001", domain.DepositRequest{Amount: 100})
	if err != nil {
		t.Fatalf("expected deposit claim to be accepted, got %v", err)
	}

	if !consumer.HandleApproved(decisionBody(t, tx.ID.String())) {
		t.Fatal("expected the decision to be acknowledged")
	}

	account, _ := repo.FindAccountByID(context.Background(), "1001")
	if account.Balance != 100 {
		t.Fatalf("expected balance 100 after approval, got %d", account.Balance)
	}
}

func TestReviewConsumer_ReplayedDecisionIsAcknowledged(t *testing.T) {
	repo := newLedgerRepoStub()
	repo.addAccount("1001", 100)
	svc := newTestService(repo, settings.Defaults{MinWithdraw: 10, MaxWithdraw: 500})
	consumer := NewReviewDecisionConsumer(svc)

	tx, err := svc.RequestWithdraw(context.Background(), "1001", domain.WithdrawRequest{Amount: 70})
	if err != nil {
		t.Fatalf("expected withdrawal to be accepted, got %v", err)
	}

	body := decisionBody(t, tx.ID.String())
	if !consumer.HandleRejected(body) {
		t.Fatal("expected first decision to be acknowledged")
	}
	// A broker redelivery of the same decision must ack without a second refund.
	if !consumer.HandleRejected(body) {
		t.Fatal("expected replayed decision to be acknowledged, not requeued")
	}

	account, _ := repo.FindAccountByID(context.Background(), "1001")
	if account.Balance != 100 {
		t.Fatalf("expected a single refund, got balance=%d", account.Balance)
	}
}

func TestReviewConsumer_MalformedPayloadIsDropped(t *testing.T) {
	repo := newLedgerRepoStub()
	svc := newTestService(repo, settings.Defaults{})
	consumer := NewReviewDecisionConsumer(svc)

	if !consumer.HandleApproved([]byte("{not json")) {
		t.Fatal("expected malformed payload to be acknowledged and dropped")
	}
	if !consumer.HandleApproved(decisionBody(t, "not-a-uuid")) {
		t.Fatal("expected invalid transaction id to be acknowledged and dropped")
	}
	if !consumer.HandleApproved(decisionBody(t, uuid.NewString())) {
		t.Fatal("expected unknown transaction id to be acknowledged and dropped")
	}
}

func TestReviewConsumer_TransientFailureRequeues(t *testing.T) {
	repo := newLedgerRepoStub()
	repo.addAccount("1001", 100)
	svc := newTestService(repo, settings.Defaults{MinWithdraw: 10, MaxWithdraw: 500})
	consumer := NewReviewDecisionConsumer(svc)

	tx, err := svc.RequestWithdraw(context.Background(), "1001", domain.WithdrawRequest{Amount: 70})
	if err != nil {
		t.Fatalf("expected withdrawal to be accepted, got %v", err)
	}

	repo.nextErrs = []error{
		errors.New("connection reset"),
		errors.New("connection reset"),
		errors.New("connection reset"),
	}
	if consumer.HandleApproved(decisionBody(t, tx.ID.String())) {
		t.Fatal("expected a store outage to requeue the decision")
	}

	// Once the store recovers, the redelivered decision lands.
	if !consumer.HandleApproved(decisionBody(t, tx.ID.String())) {
		t.Fatal("expected redelivered decision to be acknowledged after recovery")
	}
}
