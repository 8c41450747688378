package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/Pelanglene/213bot/internal/domain"
	"github.com/Pelanglene/213bot/internal/pkg/clock"
	"github.com/Pelanglene/213bot/internal/pkg/metrics"
	"github.com/Pelanglene/213bot/internal/ports/service"
)

const deadChatScanName = "dead-chat-scan"

// DefaultDeadChatText текст уведомления в "мёртвый" чат
const DefaultDeadChatText = "💀 dead chat"

// DeadChatScan периодически ищет чаты без активности и пишет в них уведомление
type DeadChatScan struct {
	tracker  service.IActivityTracker
	notifier service.INotifier
	policy   domain.InactivityPolicy
	interval time.Duration
	text     string
	clock    clock.Clock
	metrics  *metrics.Metrics
	log      *slog.Logger
}

func NewDeadChatScan(
	tracker service.IActivityTracker,
	notifier service.INotifier,
	policy domain.InactivityPolicy,
	interval time.Duration,
	text string,
	clk clock.Clock,
	m *metrics.Metrics,
	log *slog.Logger,
) *DeadChatScan {
	if text == "" {
		text = DefaultDeadChatText
	}
	return &DeadChatScan{
		tracker:  tracker,
		notifier: notifier,
		policy:   policy,
		interval: interval,
		text:     text,
		clock:    clk,
		metrics:  m,
		log:      log,
	}
}

func (j *DeadChatScan) Name() string {
	return deadChatScanName
}

// NextRun через фиксированный интервал после текущего момента
func (j *DeadChatScan) NextRun(now time.Time) time.Time {
	return now.Add(j.interval)
}

// Run уведомляет каждый неактивный чат. Ошибка отправки в один чат не мешает остальным,
// неудачный чат останется неактивным и попадёт в следующий проход
func (j *DeadChatScan) Run(ctx context.Context) error {
	now := j.clock.Now()
	chats := j.tracker.GetInactiveConversations(now, j.policy)
	j.metrics.SetInactiveChats(len(chats))

	if len(chats) == 0 {
		return nil
	}

	notified := 0
	for _, chatID := range chats {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := j.notifier.SendText(ctx, chatID, j.text); err != nil {
			j.log.Warn("failed to send dead chat notice",
				"chat_id", chatID,
				"error", err)
			continue
		}

		j.tracker.AcknowledgeEngagement(chatID, now)
		notified++
	}

	j.log.Info("dead chat scan finished",
		"tracked", j.tracker.Tracked(),
		"inactive", len(chats),
		"notified", notified)

	return nil
}
