package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
)

func TestLoadConfig_Defaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	unsetEnvWithCleanup(t, "DEFAULT_MIN_WITHDRAW")
	unsetEnvWithCleanup(t, "DEFAULT_MIN_WITHDRAW_TAKA")
	unsetEnvWithCleanup(t, "DEFAULT_MAX_WITHDRAW")
	unsetEnvWithCleanup(t, "DEFAULT_MAX_WITHDRAW_TAKA")
	unsetEnvWithCleanup(t, "STORE_RETRY_ATTEMPTS")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.DefaultMinWithdraw != 5000 {
		t.Fatalf("expected default minimum withdrawal of 5000 poisha, got %d", cfg.DefaultMinWithdraw)
	}
	if cfg.DefaultMaxWithdraw != 100000 {
		t.Fatalf("expected default maximum withdrawal of 100000 poisha, got %d", cfg.DefaultMaxWithdraw)
	}
	if cfg.StoreRetryAttempts != 3 {
		t.Fatalf("expected 3 default retry attempts, got %d", cfg.StoreRetryAttempts)
	}
	if cfg.ReviewDecisionQueue != "wallet_service.review_decisions" {
		t.Fatalf("unexpected default review queue %q", cfg.ReviewDecisionQueue)
	}
}

func TestLoadConfig_TakaOverrideConvertsToPoisha(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "DEFAULT_MIN_WITHDRAW_TAKA", "75.50")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.DefaultMinWithdraw != 7550 {
		t.Fatalf("expected 7550 poisha from a 75.50 taka override, got %d", cfg.DefaultMinWithdraw)
	}
}

func TestLoadConfig_UsesWalletServiceInternalAPIKeyAlias(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	unsetEnvWithCleanup(t, "INTERNAL_API_KEY")
	setEnvWithCleanup(t, "WALLET_SERVICE_INTERNAL_API_KEY", "alias-only-key")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.InternalAPIKey != "alias-only-key" {
		t.Fatalf("expected InternalAPIKey from alias env var, got %q", cfg.InternalAPIKey)
	}
}

func TestLoadConfig_MaxWithdrawRaisedToMinimum(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "DEFAULT_MIN_WITHDRAW", "10000")
	setEnvWithCleanup(t, "DEFAULT_MAX_WITHDRAW", "500")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.DefaultMaxWithdraw != 10000 {
		t.Fatalf("expected maximum raised to the minimum, got %d", cfg.DefaultMaxWithdraw)
	}
}

func setEnvWithCleanup(t *testing.T, key string, value string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			_ = os.Setenv(key, prev)
			return
		}
		_ = os.Unsetenv(key)
	})
}

func unsetEnvWithCleanup(t *testing.T, key string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("failed to unset env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			_ = os.Setenv(key, prev)
			return
		}
		_ = os.Unsetenv(key)
	})
}
