package domain

// Well-known settings keys. The settings surface is read-only from this service's
// perspective; an admin tool owns the write path.
const (
	SettingMinWithdraw   = "minWithdraw"
	SettingMaxWithdraw   = "maxWithdraw"
	SettingReferralBonus = "referralBonus"
	SettingWelcomeBonus  = "welcomeBonus"
)

// PaymentMethod kinds.
const (
	MethodKindWithdraw = "withdraw"
	MethodKindDeposit  = "deposit"
)

// PaymentMethod is an admin-managed way of moving money in or out (bKash, Nagad,
// bank transfer). Instructions are shown before the user enters an amount; Details
// hold the receiving account for deposits.
type PaymentMethod struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Kind         string `json:"kind"`
	Instructions string `json:"instructions,omitempty"`
	Details      string `json:"details,omitempty"`
	IsActive     bool   `json:"is_active"`
}

// Channel is a force-join channel the gateway checks membership against before
// serving a user. The wallet only stores and serves the list.
type Channel struct {
	ID     string `json:"id"`
	ChatID string `json:"chat_id"`
	Link   string `json:"link"`
}

// WalletSettings is the snapshot served to the gateway in one round trip.
type WalletSettings struct {
	MinWithdraw     int64           `json:"min_withdraw"`
	MaxWithdraw     int64           `json:"max_withdraw"`
	ReferralBonus   int64           `json:"referral_bonus"`
	WelcomeBonus    int64           `json:"welcome_bonus"`
	WithdrawMethods []PaymentMethod `json:"withdraw_methods"`
	DepositMethods  []PaymentMethod `json:"deposit_methods"`
	ForceJoin       []Channel       `json:"force_join"`
}
