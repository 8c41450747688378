package domain

import (
	"time"
)

// DailyPhotoEntry фото, отправленное ботом в чат и участвующее в выборе "тян дня"
type DailyPhotoEntry struct {
	ChatID    int64     `json:"chat_id"`
	MessageID int64     `json:"message_id"`
	FileID    string    `json:"file_id"`
	SentAt    time.Time `json:"sent_at"` // в бизнес-таймзоне
}

// UsageCount строка месячного топа
type UsageCount struct {
	UserID int64 `json:"user_id"`
	Count  int64 `json:"count"`
}
