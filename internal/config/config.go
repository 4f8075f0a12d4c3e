/**
 * @description
 * This package handles the configuration management for the service. It uses the
 * Viper library to read configuration from environment variables, providing a
 * centralized and straightforward way to manage application settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the wallet-service.
// These values are loaded from environment variables. Monetary values are in
// poisha (1/100 taka) unless the *_TAKA override form is used.
type Config struct {
	ServerPort              string `mapstructure:"SERVER_PORT"`
	DatabaseURL             string `mapstructure:"DATABASE_URL"`
	RedisURL                string `mapstructure:"REDIS_URL"`
	SettingsCachePrefix     string `mapstructure:"SETTINGS_CACHE_PREFIX"`
	SettingsCacheTTLSeconds int    `mapstructure:"SETTINGS_CACHE_TTL_SECONDS"`
	RabbitMQURL             string `mapstructure:"RABBITMQ_URL"`
	ReviewDecisionQueue     string `mapstructure:"REVIEW_DECISION_QUEUE"`
	GatewayJWTSecret        string `mapstructure:"GATEWAY_JWT_SECRET"`
	InternalAPIKey          string `mapstructure:"INTERNAL_API_KEY"`
	TelegramBotToken        string `mapstructure:"TELEGRAM_BOT_TOKEN"`
	AdminChatID             int64  `mapstructure:"ADMIN_CHAT_ID"`
	DefaultMinWithdraw      int64  `mapstructure:"DEFAULT_MIN_WITHDRAW"`
	DefaultMaxWithdraw      int64  `mapstructure:"DEFAULT_MAX_WITHDRAW"`
	DefaultReferralBonus    int64  `mapstructure:"DEFAULT_REFERRAL_BONUS"`
	DefaultWelcomeBonus     int64  `mapstructure:"DEFAULT_WELCOME_BONUS"`
	StoreRetryAttempts      int    `mapstructure:"STORE_RETRY_ATTEMPTS"`
	StoreRetryBackoffMS     int    `mapstructure:"STORE_RETRY_BACKOFF_MS"`
}

// LoadConfig reads configuration from environment variables from the given path.
// It uses Viper to automatically bind environment variables to the Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SETTINGS_CACHE_PREFIX", "wallet:settings")
	viper.SetDefault("SETTINGS_CACHE_TTL_SECONDS", 60)
	viper.SetDefault("REVIEW_DECISION_QUEUE", "wallet_service.review_decisions")
	viper.SetDefault("DEFAULT_MIN_WITHDRAW", 5000)
	viper.SetDefault("DEFAULT_MAX_WITHDRAW", 100000)
	viper.SetDefault("DEFAULT_REFERRAL_BONUS", 500)
	viper.SetDefault("DEFAULT_WELCOME_BONUS", 0)
	viper.SetDefault("STORE_RETRY_ATTEMPTS", 3)
	viper.SetDefault("STORE_RETRY_BACKOFF_MS", 100)

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL", "REDIS_URL", "WALLET_REDIS_URL")
	_ = viper.BindEnv("SETTINGS_CACHE_PREFIX")
	_ = viper.BindEnv("SETTINGS_CACHE_TTL_SECONDS")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("REVIEW_DECISION_QUEUE")
	_ = viper.BindEnv("GATEWAY_JWT_SECRET")
	_ = viper.BindEnv("INTERNAL_API_KEY", "INTERNAL_API_KEY", "WALLET_SERVICE_INTERNAL_API_KEY")
	_ = viper.BindEnv("TELEGRAM_BOT_TOKEN")
	_ = viper.BindEnv("ADMIN_CHAT_ID")
	_ = viper.BindEnv("DEFAULT_MIN_WITHDRAW")
	_ = viper.BindEnv("DEFAULT_MIN_WITHDRAW_TAKA")
	_ = viper.BindEnv("DEFAULT_MAX_WITHDRAW")
	_ = viper.BindEnv("DEFAULT_MAX_WITHDRAW_TAKA")
	_ = viper.BindEnv("DEFAULT_REFERRAL_BONUS")
	_ = viper.BindEnv("DEFAULT_REFERRAL_BONUS_TAKA")
	_ = viper.BindEnv("DEFAULT_WELCOME_BONUS")
	_ = viper.BindEnv("DEFAULT_WELCOME_BONUS_TAKA")
	_ = viper.BindEnv("STORE_RETRY_ATTEMPTS")
	_ = viper.BindEnv("STORE_RETRY_BACKOFF_MS")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		// If the config file is not found, we can ignore the error.
		// For other errors, we should return them.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
	}

	// Unmarshal the configuration into the Config struct.
	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}
	if strings.TrimSpace(config.InternalAPIKey) == "" {
		config.InternalAPIKey = strings.TrimSpace(os.Getenv("WALLET_SERVICE_INTERNAL_API_KEY"))
	}
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.SettingsCachePrefix = strings.TrimSpace(config.SettingsCachePrefix)
	if config.SettingsCachePrefix == "" {
		config.SettingsCachePrefix = "wallet:settings"
	}

	// Allow specifying the default amounts in whole taka via the *_TAKA form.
	overrideTakaAmount("DEFAULT_MIN_WITHDRAW_TAKA", &config.DefaultMinWithdraw)
	overrideTakaAmount("DEFAULT_MAX_WITHDRAW_TAKA", &config.DefaultMaxWithdraw)
	overrideTakaAmount("DEFAULT_REFERRAL_BONUS_TAKA", &config.DefaultReferralBonus)
	overrideTakaAmount("DEFAULT_WELCOME_BONUS_TAKA", &config.DefaultWelcomeBonus)

	if config.DefaultMinWithdraw < 0 {
		log.Printf("level=warn component=config msg=\"negative minimum withdrawal configured; coercing to zero\" poisha=%d", config.DefaultMinWithdraw)
		config.DefaultMinWithdraw = 0
	}
	if config.DefaultMaxWithdraw < config.DefaultMinWithdraw {
		log.Printf("level=warn component=config msg=\"maximum withdrawal below minimum; raising to minimum\" min=%d max=%d", config.DefaultMinWithdraw, config.DefaultMaxWithdraw)
		config.DefaultMaxWithdraw = config.DefaultMinWithdraw
	}
	if config.DefaultReferralBonus < 0 {
		config.DefaultReferralBonus = 0
	}
	if config.DefaultWelcomeBonus < 0 {
		config.DefaultWelcomeBonus = 0
	}
	if config.SettingsCacheTTLSeconds <= 0 {
		config.SettingsCacheTTLSeconds = 60
	}
	if config.StoreRetryAttempts <= 0 {
		config.StoreRetryAttempts = 3
	}
	if config.StoreRetryBackoffMS <= 0 {
		config.StoreRetryBackoffMS = 100
	}

	return
}

func overrideTakaAmount(key string, dst *int64) {
	if !viper.IsSet(key) {
		return
	}
	raw := strings.TrimSpace(viper.GetString(key))
	if raw == "" {
		return
	}
	value, parseErr := strconv.ParseFloat(raw, 64)
	if parseErr != nil {
		log.Printf("level=warn component=config msg=\"invalid taka amount\" key=%s value=%q err=%v", key, raw, parseErr)
		return
	}
	*dst = int64(math.Round(value * 100))
}
