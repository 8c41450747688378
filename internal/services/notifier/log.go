package notifier

import (
	"context"
	"log/slog"
)

// LogNotifier реализует INotifier без отправки: сообщения только пишутся в лог.
// Используется, когда токен бота не задан (локальный запуск, dry-run)
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) SendText(_ context.Context, chatID int64, text string) error {
	n.log.Info("message not sent, telegram is disabled",
		"chat_id", chatID,
		"text", text)
	return nil
}

func (n *LogNotifier) ReplyText(_ context.Context, chatID int64, replyToMessageID int64, text string) error {
	n.log.Info("reply not sent, telegram is disabled",
		"chat_id", chatID,
		"reply_to", replyToMessageID,
		"text", text)
	return nil
}
