package service

import (
	"context"
	"time"

	"github.com/Pelanglene/213bot/internal/domain"
)

// IActivityTracker учёт активности чатов и поиск "мёртвых" чатов
type IActivityTracker interface {
	RecordActivity(chatID int64, now time.Time)
	IsInactive(chatID int64, now time.Time, policy domain.InactivityPolicy) bool
	GetInactiveConversations(now time.Time, policy domain.InactivityPolicy) []int64
	AcknowledgeEngagement(chatID int64, now time.Time)
	Tracked() int
}

// ICooldownGate кулдауны команд
type ICooldownGate interface {
	CanProceed(key string, cooldown time.Duration, now time.Time) (bool, time.Duration)
	MarkUsed(key string, now time.Time)
}

// IDailyVoteAggregator фото дня по чатам
type IDailyVoteAggregator interface {
	RecordEntry(ctx context.Context, chatID, messageID int64, fileID string, sentAt time.Time)
	ListConversationsForDate(ctx context.Context, dateKey string) []int64
	ListEntries(ctx context.Context, dateKey string, chatID int64) []domain.DailyPhotoEntry
	ClearDate(ctx context.Context, dateKey string)
	DateKey(t time.Time) string
}

// IUsageStatsLedger месячная статистика использования команд
type IUsageStatsLedger interface {
	RecordUsage(ctx context.Context, chatID, userID int64, when time.Time)
	GetTop(ctx context.Context, monthKey string, chatID int64, limit int) []domain.UsageCount
	ClearMonth(ctx context.Context, monthKey string)
	MonthKey(t time.Time) string
}

// IRateLimiter ограничение частоты запросов одного пользователя
type IRateLimiter interface {
	Allow(userID int64, now time.Time) bool
	Remaining(userID int64, now time.Time) time.Duration
}
