package app

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/takapay/wallet-service/internal/domain"
	"github.com/takapay/wallet-service/internal/store"
)

// ReviewDecisionConsumer applies admin decisions delivered over the message
// broker. Decisions are idempotent: a replayed decision for an already-resolved
// transaction acks without side effects, while transient failures requeue.
type ReviewDecisionConsumer struct {
	service *Service
}

func NewReviewDecisionConsumer(service *Service) *ReviewDecisionConsumer {
	return &ReviewDecisionConsumer{service: service}
}

// HandleApproved processes a wallet.review.approved message. The returned bool
// is the ack decision.
func (c *ReviewDecisionConsumer) HandleApproved(body []byte) bool {
	return c.handle(body, true)
}

// HandleRejected processes a wallet.review.rejected message.
func (c *ReviewDecisionConsumer) HandleRejected(body []byte) bool {
	return c.handle(body, false)
}

func (c *ReviewDecisionConsumer) handle(body []byte, approve bool) bool {
	var event domain.ReviewDecisionEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Printf("level=error component=review_consumer msg=\"unmarshal failed; dropping\" err=%v", err)
		return true
	}

	transactionID, err := uuid.Parse(event.TransactionID)
	if err != nil {
		log.Printf("level=error component=review_consumer msg=\"invalid transaction id; dropping\" transaction_id=%q err=%v", event.TransactionID, err)
		return true
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if approve {
		_, err = c.service.ApproveTransaction(ctx, transactionID)
	} else {
		_, err = c.service.RejectTransaction(ctx, transactionID)
	}

	if err != nil {
		// Replays and unknown ids are resolved decisions from this consumer's
		// point of view; only transient failures are worth a redelivery.
		if errors.Is(err, ErrInvalidState) || errors.Is(err, store.ErrTransactionNotFound) {
			log.Printf("level=warn component=review_consumer msg=\"decision already resolved or unknown; acknowledging\" tx_id=%s err=%v", transactionID, err)
			return true
		}
		log.Printf("level=error component=review_consumer msg=\"decision processing failed; requeueing\" tx_id=%s err=%v", transactionID, err)
		return false
	}

	return true
}
