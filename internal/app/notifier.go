package app

import (
	"context"
	"log"
)

// NotificationSink delivers human-facing messages: admin alerts about pending
// requests and replies to account owners about resolved ones. The Telegram
// implementation lives in pkg/telegram; tests and broker-only deployments use
// the no-op sink.
type NotificationSink interface {
	NotifyAdmin(ctx context.Context, text string) error
	SendReply(ctx context.Context, accountID string, text string) error
}

// NoopSink is a minimal sink used when no Telegram bot token is configured.
type NoopSink struct{}

func (NoopSink) NotifyAdmin(ctx context.Context, text string) error {
	log.Printf("level=warn component=notifier mode=noop msg=\"admin notification skipped\"")
	return nil
}

func (NoopSink) SendReply(ctx context.Context, accountID string, text string) error {
	log.Printf("level=warn component=notifier mode=noop msg=\"user reply skipped\" account_id=%s", accountID)
	return nil
}
