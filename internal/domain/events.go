package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransactionEvent is published to the wallet events exchange whenever a
// transaction is created or resolved.
type TransactionEvent struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	AccountID     string    `json:"account_id"`
	Kind          string    `json:"kind"`
	Amount        int64     `json:"amount"`
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
}

// AccountRegisteredEvent is published when a new wallet account is created.
type AccountRegisteredEvent struct {
	AccountID    string    `json:"account_id"`
	ReferralCode string    `json:"referral_code"`
	ReferredBy   *string   `json:"referred_by,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// ReferralCreditedEvent is published when a referrer receives a signup bonus.
type ReferralCreditedEvent struct {
	ReferrerID    string    `json:"referrer_id"`
	ReferredID    string    `json:"referred_id"`
	Amount        int64     `json:"amount"`
	TransactionID uuid.UUID `json:"transaction_id"`
	Timestamp     time.Time `json:"timestamp"`
}

// ReviewDecisionEvent is the payload the admin surface publishes when it resolves
// a pending transaction over the broker instead of the HTTP admin API.
type ReviewDecisionEvent struct {
	TransactionID string `json:"transaction_id"`
	Reviewer      string `json:"reviewer,omitempty"`
	Reason        string `json:"reason,omitempty"`
}
