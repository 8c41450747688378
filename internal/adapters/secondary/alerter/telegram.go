package alerter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Pelanglene/213bot/internal/adapters/secondary/telegram"
)

// Client отправляет алерты в служебный чат (или топик форума) через Telegram-адаптер
type Client struct {
	telegramClient  *telegram.Client
	chatID          int64
	messageThreadID *int64
	log             *slog.Logger
}

// NewClient создаёт клиент алертов; apiURL как у основного бота
func NewClient(cfg *Config, apiURL string, log *slog.Logger) *Client {
	if cfg == nil {
		return nil
	}

	return &Client{
		telegramClient:  telegram.NewClient(apiURL, cfg.BotToken, log),
		chatID:          cfg.ChatID,
		messageThreadID: cfg.MessageThreadID,
		log:             log,
	}
}

// SendAlert отправляет алерт в Telegram группу (или топик форума)
func (c *Client) SendAlert(ctx context.Context, message string) error {
	if c == nil || c.telegramClient == nil {
		return fmt.Errorf("alerter client is not initialized")
	}

	_, err := c.telegramClient.SendMessageWithRequest(ctx, telegram.SendMessageRequest{
		ChatID:          c.chatID,
		Text:            message,
		MessageThreadID: c.messageThreadID,
	})
	if err != nil {
		c.log.Warn("failed to send alert",
			"error", err,
			"chat_id", c.chatID,
			"message_thread_id", c.messageThreadID,
		)
		return fmt.Errorf("failed to send alert: %w", err)
	}

	c.log.Debug("alert sent successfully",
		"chat_id", c.chatID,
		"message_thread_id", c.messageThreadID,
	)

	return nil
}
