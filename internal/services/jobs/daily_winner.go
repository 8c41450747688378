package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Pelanglene/213bot/internal/domain"
	"github.com/Pelanglene/213bot/internal/pkg/clock"
	"github.com/Pelanglene/213bot/internal/ports/service"
	"github.com/Pelanglene/213bot/internal/usecases/dailyvote"
	"github.com/robfig/cron/v3"
)

const dailyWinnerName = "daily-winner"

const (
	// DefaultWinnerSchedule 00:05 каждый день в бизнес-таймзоне
	DefaultWinnerSchedule = "5 0 * * *"
	// DefaultWinnerText подпись к победившему фото
	DefaultWinnerText = "🏆 Тян дня"
)

// DailyWinner подводит итоги голосования за прошедший день: в каждом чате
// выбирает фото с наибольшим числом реакций и отвечает на него
type DailyWinner struct {
	votes     service.IDailyVoteAggregator
	reactions service.IReactionScores
	notifier  service.INotifier
	schedule  cron.Schedule
	text      string
	clock     clock.Clock
	log       *slog.Logger

	mu sync.Mutex
	// announced чаты, где итог уже объявлен, чтобы ретрай не повторял сообщение
	announced map[string]map[int64]struct{}
	// pending дни, итоги которых не удалось подвести до конца; добиваются следующими запусками
	pending map[string]struct{}
}

// NewDailyWinner expr - cron-выражение из 5 полей, считается в таймзоне clk
func NewDailyWinner(
	votes service.IDailyVoteAggregator,
	reactions service.IReactionScores,
	notifier service.INotifier,
	expr string,
	text string,
	clk clock.Clock,
	log *slog.Logger,
) (*DailyWinner, error) {
	if expr == "" {
		expr = DefaultWinnerSchedule
	}
	schedule, err := cron.ParseStandard(fmt.Sprintf("CRON_TZ=%s %s", clk.Location().String(), expr))
	if err != nil {
		return nil, fmt.Errorf("invalid winner schedule %q: %w", expr, err)
	}
	if text == "" {
		text = DefaultWinnerText
	}

	return &DailyWinner{
		votes:     votes,
		reactions: reactions,
		notifier:  notifier,
		schedule:  schedule,
		text:      text,
		clock:     clk,
		log:       log,
		announced: make(map[string]map[int64]struct{}),
		pending:   make(map[string]struct{}),
	}, nil
}

func (j *DailyWinner) Name() string {
	return dailyWinnerName
}

func (j *DailyWinner) NextRun(now time.Time) time.Time {
	return j.schedule.Next(now)
}

// Run объявляет победителей вчерашнего дня, а перед этим добивает дни, оставшиеся
// недообъявленными после исчерпания ретраев. Ошибка чтения реакций прерывает проход
// по дню (планировщик повторит его), бакет дня очищается только когда объявлены все чаты
func (j *DailyWinner) Run(ctx context.Context) error {
	dateKey := clock.PreviousDateKey(j.clock.Now(), j.clock.Location())

	var errs []error
	for _, stale := range j.pendingBefore(dateKey) {
		j.log.Info("retrying unfinished daily winner", "date_key", stale)
		if err := j.Announce(ctx, stale); err != nil {
			errs = append(errs, err)
		}
	}
	if err := j.Announce(ctx, dateKey); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Announce подводит итоги за конкретный день
func (j *DailyWinner) Announce(ctx context.Context, dateKey string) error {
	if err := j.announce(ctx, dateKey); err != nil {
		j.markPending(dateKey)
		return err
	}
	j.forget(dateKey)
	return nil
}

func (j *DailyWinner) announce(ctx context.Context, dateKey string) error {
	chats := j.votes.ListConversationsForDate(ctx, dateKey)
	if len(chats) == 0 {
		j.log.Info("no daily vote entries", "date_key", dateKey)
		j.votes.ClearDate(ctx, dateKey)
		return nil
	}

	pending := 0
	for _, chatID := range chats {
		if j.isAnnounced(dateKey, chatID) {
			continue
		}

		entries := j.votes.ListEntries(ctx, dateKey, chatID)
		scores, err := j.scores(ctx, entries)
		if err != nil {
			return fmt.Errorf("reaction scores for chat %d on %s: %w", chatID, dateKey, err)
		}

		winner, ok := dailyvote.SelectWinner(entries, func(e domain.DailyPhotoEntry) int {
			return scores[e.MessageID]
		})
		if !ok {
			continue
		}

		if err := j.notifier.ReplyText(ctx, chatID, winner.MessageID, j.text); err != nil {
			j.log.Warn("failed to announce daily winner",
				"chat_id", chatID,
				"date_key", dateKey,
				"error", err)
			pending++
			continue
		}

		j.markAnnounced(dateKey, chatID)
		j.log.Info("daily winner announced",
			"chat_id", chatID,
			"date_key", dateKey,
			"message_id", winner.MessageID,
			"score", scores[winner.MessageID])
	}

	if pending > 0 {
		return fmt.Errorf("daily winner not announced in %d of %d chats for %s", pending, len(chats), dateKey)
	}

	j.votes.ClearDate(ctx, dateKey)
	return nil
}

func (j *DailyWinner) scores(ctx context.Context, entries []domain.DailyPhotoEntry) (map[int64]int, error) {
	scores := make(map[int64]int, len(entries))
	for _, e := range entries {
		score, err := j.reactions.Score(ctx, e.ChatID, e.MessageID)
		if err != nil {
			return nil, err
		}
		scores[e.MessageID] = score
	}
	return scores, nil
}

func (j *DailyWinner) isAnnounced(dateKey string, chatID int64) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	_, ok := j.announced[dateKey][chatID]
	return ok
}

func (j *DailyWinner) markAnnounced(dateKey string, chatID int64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.announced[dateKey] == nil {
		j.announced[dateKey] = make(map[int64]struct{})
	}
	j.announced[dateKey][chatID] = struct{}{}
}

func (j *DailyWinner) forget(dateKey string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	delete(j.announced, dateKey)
	delete(j.pending, dateKey)
}

func (j *DailyWinner) markPending(dateKey string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.pending[dateKey] = struct{}{}
}

// pendingBefore недообъявленные дни раньше dateKey, от старых к новым
func (j *DailyWinner) pendingBefore(dateKey string) []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	var keys []string
	for key := range j.pending {
		if key < dateKey {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}
