package dispatch

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	log "github.com/sirupsen/logrus"
)

// Notifier delivers a formatted message to the notification channel.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// TelegramNotifier sends HTML messages to one or more Telegram chats.
type TelegramNotifier struct {
	chatIDs []string
	bot     *bot.Bot
}

// NewTelegramNotifier creates the notifier. Token validity is not probed at
// startup; send failures surface on first dispatch.
func NewTelegramNotifier(token string, chatIDs []string) (*TelegramNotifier, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram token is empty")
	}
	if len(chatIDs) == 0 {
		return nil, fmt.Errorf("no telegram chat IDs configured")
	}

	b, err := bot.New(token, bot.WithSkipGetMe())
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &TelegramNotifier{chatIDs: chatIDs, bot: b}, nil
}

// Send delivers text to every configured chat. It fails only when no chat
// accepted the message.
func (t *TelegramNotifier) Send(ctx context.Context, text string) error {
	var lastErr error
	sent := 0

	for _, chatID := range t.chatIDs {
		_, err := t.bot.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:    chatID,
			Text:      text,
			ParseMode: tgmodels.ParseModeHTML,
		})
		if err != nil {
			log.WithFields(log.Fields{"chat_id": chatID, "error": err.Error()}).Warn("Telegram send failed")
			lastErr = err
			continue
		}
		sent++
	}

	if sent == 0 && lastErr != nil {
		return fmt.Errorf("telegram send failed for all chats: %w", lastErr)
	}
	return nil
}
