package service

import (
	"context"
)

// IReactionScores счётчики реакций на сообщения (популярность фото для "тян дня")
type IReactionScores interface {
	SetScore(ctx context.Context, chatID, messageID int64, count int) error
	// Score возвращает 0 для сообщения без известных реакций
	Score(ctx context.Context, chatID, messageID int64) (int, error)
}
