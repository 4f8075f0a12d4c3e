/**
 * @description
 * This package delivers wallet notifications over the Telegram Bot API. The
 * wallet's account ids are Telegram chat ids rendered as decimal strings, so a
 * user reply is a plain message to that chat and admin alerts go to the
 * configured review chat.
 *
 * @dependencies
 * - github.com/go-telegram-bot-api/telegram-bot-api/v5: The Telegram client library.
 */
package telegram

import (
	"context"
	"fmt"
	"log"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier sends admin alerts and user replies through a Telegram bot.
type Notifier struct {
	bot         *tgbotapi.BotAPI
	adminChatID int64
}

// NewNotifier authenticates the bot token against the Telegram API.
func NewNotifier(token string, adminChatID int64) (*Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram authentication failed: %w", err)
	}
	log.Printf("level=info component=telegram msg=\"bot authenticated\" username=%s", bot.Self.UserName)
	return &Notifier{bot: bot, adminChatID: adminChatID}, nil
}

// NotifyAdmin sends a message to the configured admin review chat.
func (n *Notifier) NotifyAdmin(ctx context.Context, text string) error {
	if n.adminChatID == 0 {
		log.Printf("level=warn component=telegram msg=\"admin chat not configured; dropping alert\"")
		return nil
	}
	return n.send(ctx, n.adminChatID, text)
}

// SendReply sends a message to the account owner. The account id must be a
// Telegram chat id in decimal form.
func (n *Notifier) SendReply(ctx context.Context, accountID, text string) error {
	chatID, err := strconv.ParseInt(accountID, 10, 64)
	if err != nil {
		return fmt.Errorf("account id %q is not a telegram chat id: %w", accountID, err)
	}
	return n.send(ctx, chatID, text)
}

func (n *Notifier) send(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send to chat %d: %w", chatID, err)
	}
	return nil
}
