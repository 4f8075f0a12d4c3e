/**
 * @description
 * This is the main entry point for the wallet-service. It is responsible for
 * initializing all components of the service, including configuration, database
 * connection, the Redis settings cache, message brokers, the Telegram notifier,
 * repositories, the core application service, and the HTTP server. It wires
 * everything together and starts the service.
 *
 * @dependencies
 * - log, net/http: Standard Go libraries for logging and HTTP server functionality.
 * - github.com/go-chi/chi/v5: For HTTP routing.
 * - github.com/jackc/pgx/v5: PostgreSQL driver.
 * - github.com/redis/go-redis/v9: Settings cache client.
 * - internal/api, internal/app, internal/config, internal/settings, internal/store.
 * - pkg/rabbitmq, pkg/telegram: Broker and notification clients.
 */

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/takapay/wallet-service/internal/api"
	"github.com/takapay/wallet-service/internal/app"
	"github.com/takapay/wallet-service/internal/config"
	"github.com/takapay/wallet-service/internal/settings"
	"github.com/takapay/wallet-service/internal/store"
	wrabbit "github.com/takapay/wallet-service/pkg/rabbitmq"
	"github.com/takapay/wallet-service/pkg/telegram"
)

func main() {
	// Load application configuration from environment variables.
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}
	if strings.TrimSpace(cfg.InternalAPIKey) == "" {
		log.Fatalf("level=fatal component=bootstrap msg=\"internal api key must be configured\" env=INTERNAL_API_KEY")
	}
	if strings.TrimSpace(cfg.GatewayJWTSecret) == "" {
		log.Fatalf("level=fatal component=bootstrap msg=\"gateway jwt secret must be configured\" env=GATEWAY_JWT_SECRET")
	}

	log.Printf("level=info component=bootstrap msg=\"starting wallet-service\" port=%s", cfg.ServerPort)

	// Establish a connection pool to the PostgreSQL database.
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database url parse failed\" err=%v", err)
	}

	poolConfig.MaxConns = 50
	poolConfig.MinConns = 10
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	// Disable prepared statement caching to prevent conflicts
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database connection failed\" err=%v", err)
	}
	defer dbpool.Close()
	log.Println("level=info component=bootstrap msg=\"database connected\"")

	// The Redis settings cache is optional; the provider degrades to reading the
	// store directly when it is absent.
	var redisClient *redis.Client
	if strings.TrimSpace(cfg.RedisURL) == "" {
		log.Println("level=warn component=bootstrap msg=\"redis url missing; settings cache disabled\" env=REDIS_URL")
	} else {
		redisOptions, parseErr := redis.ParseURL(cfg.RedisURL)
		if parseErr != nil {
			log.Printf("level=warn component=bootstrap msg=\"redis url parse failed; settings cache disabled\" err=%v", parseErr)
		} else {
			redisClient = redis.NewClient(redisOptions)
			pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelPing()
			if pingErr := redisClient.Ping(pingCtx).Err(); pingErr != nil {
				log.Printf("level=warn component=bootstrap msg=\"redis ping failed; settings cache disabled\" err=%v", pingErr)
				redisClient.Close()
				redisClient = nil
			} else {
				defer redisClient.Close()
				log.Println("level=info component=bootstrap msg=\"redis connected\"")
			}
		}
	}

	// Initialize the RabbitMQ producer to publish wallet events. When the broker
	// is unreachable at startup the fallback keeps the service running.
	var producer wrabbit.Publisher
	eventProducer, err := wrabbit.NewEventProducer(cfg.RabbitMQURL)
	if err != nil {
		log.Printf("level=warn component=bootstrap msg=\"rabbitmq producer unavailable; using fallback\" err=%v", err)
		producer = &wrabbit.EventProducerFallback{}
	} else {
		defer eventProducer.Close()
		producer = eventProducer
		log.Println("level=info component=bootstrap msg=\"rabbitmq producer connected\"")
	}

	// Initialize the Telegram notification sink. A missing token degrades to the
	// no-op sink so the ledger still works in environments without a bot.
	var sink app.NotificationSink
	if strings.TrimSpace(cfg.TelegramBotToken) == "" {
		log.Println("level=warn component=bootstrap msg=\"telegram token missing; notifications disabled\" env=TELEGRAM_BOT_TOKEN")
		sink = app.NoopSink{}
	} else {
		notifier, notifierErr := telegram.NewNotifier(cfg.TelegramBotToken, cfg.AdminChatID)
		if notifierErr != nil {
			log.Printf("level=warn component=bootstrap msg=\"telegram init failed; notifications disabled\" err=%v", notifierErr)
			sink = app.NoopSink{}
		} else {
			sink = notifier
		}
	}

	// Initialize the data access layer (repository).
	repository := store.NewPostgresRepository(dbpool)

	// Hand the provider an interface-typed cache so a missing Redis stays a true nil.
	var settingsCache redis.UniversalClient
	if redisClient != nil {
		settingsCache = redisClient
	}

	settingsProvider := settings.NewProvider(
		repository,
		settingsCache,
		cfg.SettingsCachePrefix,
		time.Duration(cfg.SettingsCacheTTLSeconds)*time.Second,
		settings.Defaults{
			MinWithdraw:   cfg.DefaultMinWithdraw,
			MaxWithdraw:   cfg.DefaultMaxWithdraw,
			ReferralBonus: cfg.DefaultReferralBonus,
			WelcomeBonus:  cfg.DefaultWelcomeBonus,
		},
	)

	// Initialize the core application service with its dependencies.
	walletService := app.NewService(repository, settingsProvider, producer, sink)
	walletService.ConfigureRetry(cfg.StoreRetryAttempts, time.Duration(cfg.StoreRetryBackoffMS)*time.Millisecond)

	// Initialize the API handlers.
	walletHandlers := api.NewWalletHandlers(walletService)

	// Set up the HTTP router and define the API routes.
	router := chi.NewRouter()
	router.Mount("/wallet", api.WalletRoutes(walletHandlers, cfg.GatewayJWTSecret, cfg.InternalAPIKey))

	serverAddr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("level=info component=http msg=\"server listening\" addr=%s", serverAddr)

	// Wire up the review decision consumer: admin decisions made in the review
	// chat arrive over the broker instead of the HTTP admin API.
	reviewConsumer := app.NewReviewDecisionConsumer(walletService)

	rabbitConsumer, err := wrabbit.NewConsumer(cfg.RabbitMQURL)
	if err != nil {
		log.Printf("level=warn component=bootstrap msg=\"rabbitmq consumer unavailable; review decisions limited to http\" err=%v", err)
	} else {
		defer rabbitConsumer.Close()

		reviewBindings := map[string]func([]byte) bool{
			"wallet.review.approved": reviewConsumer.HandleApproved,
			"wallet.review.rejected": reviewConsumer.HandleRejected,
		}
		if err := rabbitConsumer.ConsumeWithBindings(app.WalletEventsExchange, cfg.ReviewDecisionQueue, reviewBindings); err != nil {
			log.Fatalf("level=fatal component=bootstrap msg=\"review consumer start failed\" err=%v", err)
		}
	}

	server := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("level=fatal component=http msg=\"server stopped unexpectedly\" err=%v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("level=info component=http msg=\"shutdown started\"")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("level=error component=http msg=\"shutdown failed\" err=%v", err)
	}

	log.Println("level=info component=http msg=\"shutdown complete\"")
}
