package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/takapay/wallet-service/internal/domain"
	"github.com/takapay/wallet-service/internal/store"
)

// RegisterReferral credits the owner of the given referral code for the signup
// of newAccountID. An unknown code and self-referral are silent no-ops: referral
// codes are best-effort, not an error. The credit is atomic with its
// referral_bonus record and the bonus is not subject to manual review.
func (s *Service) RegisterReferral(ctx context.Context, newAccountID, referralCode string) error {
	if referralCode == "" {
		return nil
	}

	referrer, err := s.repo.FindAccountByReferralCode(ctx, referralCode)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			return nil
		}
		return fmt.Errorf("referrer lookup: %w", err)
	}
	if referrer.ID == newAccountID {
		log.Printf("level=warn component=referral msg=\"self-referral ignored\" account_id=%s", newAccountID)
		return nil
	}

	bonus := s.settings.ReferralBonus(ctx)
	if bonus <= 0 {
		return nil
	}

	description := fmt.Sprintf("Referral bonus for inviting %s", newAccountID)
	txRecord := &domain.Transaction{
		ID:          uuid.New(),
		AccountID:   referrer.ID,
		Kind:        domain.KindReferralBonus,
		Amount:      bonus,
		Status:      domain.StatusApproved,
		Description: &description,
	}

	err = s.retry.run(ctx, func() error {
		return s.repo.CreditReferralBonus(ctx, referrer.ID, txRecord)
	})
	if err != nil {
		return fmt.Errorf("credit referral bonus: %w", err)
	}

	log.Printf("level=info component=referral outcome=credited referrer_id=%s referred_id=%s amount=%d", referrer.ID, newAccountID, bonus)

	s.publish(ctx, "wallet.referral.credited", domain.ReferralCreditedEvent{
		ReferrerID:    referrer.ID,
		ReferredID:    newAccountID,
		Amount:        bonus,
		TransactionID: txRecord.ID,
		Timestamp:     time.Now().UTC(),
	})
	s.sendReply(ctx, referrer.ID, fmt.Sprintf("You earned a %s referral bonus!", formatTaka(bonus)))

	return nil
}
