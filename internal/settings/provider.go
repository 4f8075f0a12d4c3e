/**
 * @description
 * This package exposes the read-only settings surface (withdrawal limits, bonus
 * amounts, payment methods, force-join channels) to the rest of the service. The
 * values live in the settings tables and are administered by an external admin
 * tool; the provider adds a short-lived Redis cache in front so the workflow's
 * validation path does not hit Postgres on every message.
 *
 * When Redis is not configured or a cache call fails, the provider degrades to
 * reading the store directly.
 */

package settings

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/takapay/wallet-service/internal/domain"
	"github.com/takapay/wallet-service/internal/store"
)

// Reader is the slice of the repository the provider needs.
type Reader interface {
	GetSetting(ctx context.Context, key string) (string, error)
	FindPaymentMethods(ctx context.Context, kind string) ([]domain.PaymentMethod, error)
	FindForceJoinChannels(ctx context.Context) ([]domain.Channel, error)
}

// Defaults supply values for settings keys that are absent from the store.
type Defaults struct {
	MinWithdraw   int64
	MaxWithdraw   int64
	ReferralBonus int64
	WelcomeBonus  int64
}

// Provider serves settings lookups with an optional Redis read-through cache.
type Provider struct {
	reader   Reader
	cache    redis.UniversalClient
	prefix   string
	ttl      time.Duration
	defaults Defaults
}

// NewProvider creates a settings provider. The cache client may be nil.
func NewProvider(reader Reader, cache redis.UniversalClient, prefix string, ttl time.Duration, defaults Defaults) *Provider {
	trimmed := strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if trimmed == "" {
		trimmed = "wallet:settings"
	}
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &Provider{
		reader:   reader,
		cache:    cache,
		prefix:   trimmed,
		ttl:      ttl,
		defaults: defaults,
	}
}

// MinWithdraw returns the configured minimum withdrawal amount in poisha.
func (p *Provider) MinWithdraw(ctx context.Context) int64 {
	return p.amount(ctx, domain.SettingMinWithdraw, p.defaults.MinWithdraw)
}

// MaxWithdraw returns the configured maximum withdrawal amount in poisha.
func (p *Provider) MaxWithdraw(ctx context.Context) int64 {
	return p.amount(ctx, domain.SettingMaxWithdraw, p.defaults.MaxWithdraw)
}

// ReferralBonus returns the signup bonus credited to a referrer, in poisha.
func (p *Provider) ReferralBonus(ctx context.Context) int64 {
	return p.amount(ctx, domain.SettingReferralBonus, p.defaults.ReferralBonus)
}

// WelcomeBonus returns the bonus granted on account creation, in poisha. Zero
// disables the grant.
func (p *Provider) WelcomeBonus(ctx context.Context) int64 {
	return p.amount(ctx, domain.SettingWelcomeBonus, p.defaults.WelcomeBonus)
}

// PaymentMethods returns the active methods of a kind. Not cached: the admin list
// changes rarely but the result is already a single indexed query.
func (p *Provider) PaymentMethods(ctx context.Context, kind string) ([]domain.PaymentMethod, error) {
	return p.reader.FindPaymentMethods(ctx, kind)
}

// ForceJoinChannels returns the force-join channel list.
func (p *Provider) ForceJoinChannels(ctx context.Context) ([]domain.Channel, error) {
	return p.reader.FindForceJoinChannels(ctx)
}

// Snapshot assembles the full settings view served to the gateway.
func (p *Provider) Snapshot(ctx context.Context) (*domain.WalletSettings, error) {
	withdrawMethods, err := p.reader.FindPaymentMethods(ctx, domain.MethodKindWithdraw)
	if err != nil {
		return nil, err
	}
	depositMethods, err := p.reader.FindPaymentMethods(ctx, domain.MethodKindDeposit)
	if err != nil {
		return nil, err
	}
	channels, err := p.reader.FindForceJoinChannels(ctx)
	if err != nil {
		return nil, err
	}

	return &domain.WalletSettings{
		MinWithdraw:     p.MinWithdraw(ctx),
		MaxWithdraw:     p.MaxWithdraw(ctx),
		ReferralBonus:   p.ReferralBonus(ctx),
		WelcomeBonus:    p.WelcomeBonus(ctx),
		WithdrawMethods: withdrawMethods,
		DepositMethods:  depositMethods,
		ForceJoin:       channels,
	}, nil
}

// amount resolves a numeric settings key: cache, then store, then default.
func (p *Provider) amount(ctx context.Context, key string, fallback int64) int64 {
	if p.cache != nil {
		cached, err := p.cache.Get(ctx, p.prefix+":"+key).Result()
		if err == nil {
			if value, parseErr := strconv.ParseInt(cached, 10, 64); parseErr == nil {
				return value
			}
		} else if err != redis.Nil {
			log.Printf("level=warn component=settings msg=\"cache read failed\" key=%s err=%v", key, err)
		}
	}

	raw, err := p.reader.GetSetting(ctx, key)
	if err != nil {
		if !errors.Is(err, store.ErrSettingNotFound) {
			log.Printf("level=warn component=settings msg=\"setting read failed; using default\" key=%s err=%v", key, err)
		}
		return fallback
	}

	value, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		log.Printf("level=warn component=settings msg=\"invalid numeric setting; using default\" key=%s value=%q err=%v", key, raw, err)
		return fallback
	}

	if p.cache != nil {
		if err := p.cache.Set(ctx, p.prefix+":"+key, raw, p.ttl).Err(); err != nil {
			log.Printf("level=warn component=settings msg=\"cache write failed\" key=%s err=%v", key, err)
		}
	}

	return value
}
