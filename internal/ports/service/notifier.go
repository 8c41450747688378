package service

import (
	"context"
)

// INotifier отправка сообщений в чаты
type INotifier interface {
	SendText(ctx context.Context, chatID int64, text string) error
	// ReplyText отвечает на конкретное сообщение в чате
	ReplyText(ctx context.Context, chatID int64, replyToMessageID int64, text string) error
}
