package domain

import (
	"crypto/rand"
	"time"
)

// Account is a user's wallet record. The ID is the opaque user id assigned by the
// messaging gateway (a Telegram user id in practice) and is never interpreted here.
type Account struct {
	ID            string    `json:"id"`
	Balance       int64     `json:"balance"`      // in poisha, never negative
	TotalEarned   int64     `json:"total_earned"` // lifetime earnings, monotonic
	ReferralCode  string    `json:"referral_code"`
	ReferredBy    *string   `json:"referred_by,omitempty"`
	ReferralCount int       `json:"referral_count"`
	IsActive      bool      `json:"is_active"`
	JoinedAt      time.Time `json:"joined_at"`
	LastActive    time.Time `json:"last_active"`
}

const referralCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewReferralCode generates a 6-character uppercase referral code. The alphabet
// omits easily confused characters (0/O, 1/I) since users type these by hand.
func NewReferralCode() string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	for i, b := range buf {
		buf[i] = referralCodeAlphabet[int(b)%len(referralCodeAlphabet)]
	}
	return string(buf)
}
