package usagestats

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/Pelanglene/213bot/internal/domain"
	"github.com/Pelanglene/213bot/internal/pkg/bucketcache"
	"github.com/Pelanglene/213bot/internal/pkg/clock"
	"github.com/Pelanglene/213bot/internal/pkg/metrics"
	"github.com/Pelanglene/213bot/internal/ports/storage"
)

const (
	keyPrefix = "usage_stats_"
	ledger    = "usage_stats"
)

// bucket счётчики месяца: чат -> пользователь -> количество
type bucket map[int64]map[int64]int64

// Ledger помесячный учёт использования команд по чатам и пользователям
type Ledger struct {
	store   storage.IBucketStore
	clock   clock.Clock
	metrics *metrics.Metrics
	buckets *bucketcache.Cache[bucket]
	Log     *slog.Logger
}

// New создаёт учёт; при store == nil счётчики живут только в памяти
func New(store storage.IBucketStore, clk clock.Clock, m *metrics.Metrics, log *slog.Logger) *Ledger {
	l := &Ledger{
		store:   store,
		clock:   clk,
		metrics: m,
		Log:     log,
	}
	l.buckets = bucketcache.New(l.load)

	if store == nil {
		log.Warn("usage stats persistence disabled, counters are kept in memory only")
	}

	return l
}

func storageKey(monthKey string) string {
	return keyPrefix + monthKey
}

// MonthKey ключ месяца в бизнес-таймзоне
func (l *Ledger) MonthKey(t time.Time) string {
	return clock.MonthKey(t, l.clock.Location())
}

// RecordUsage увеличивает счётчик пользователя в чате за месяц, к которому относится when
func (l *Ledger) RecordUsage(ctx context.Context, chatID, userID int64, when time.Time) {
	monthKey := l.MonthKey(when)

	var count int64
	l.buckets.Do(ctx, monthKey, func(b *bucket) {
		if *b == nil {
			*b = bucket{}
		}
		users, ok := (*b)[chatID]
		if !ok {
			users = make(map[int64]int64)
			(*b)[chatID] = users
		}
		users[userID]++
		count = users[userID]
		l.persist(ctx, monthKey, *b)
	})

	l.Log.Debug("usage recorded",
		"chat_id", chatID,
		"user_id", userID,
		"month_key", monthKey,
		"count", count)
}

// GetTop до limit пользователей чата по убыванию счётчика, при равенстве по возрастанию ID
func (l *Ledger) GetTop(ctx context.Context, monthKey string, chatID int64, limit int) []domain.UsageCount {
	if limit <= 0 {
		return nil
	}

	var top []domain.UsageCount
	l.buckets.Do(ctx, monthKey, func(b *bucket) {
		for userID, count := range (*b)[chatID] {
			top = append(top, domain.UsageCount{UserID: userID, Count: count})
		}
	})

	sort.Slice(top, func(i, j int) bool {
		if top[i].Count != top[j].Count {
			return top[i].Count > top[j].Count
		}
		return top[i].UserID < top[j].UserID
	})

	if len(top) > limit {
		top = top[:limit]
	}
	return top
}

// ClearMonth выгружает месяц из памяти и удаляет его из хранилища. Идемпотентна.
// Если удалить из хранилища не удалось, месяц остаётся в памяти пустым
func (l *Ledger) ClearMonth(ctx context.Context, monthKey string) {
	err := l.buckets.Drop(monthKey, func() error {
		if l.store == nil {
			return nil
		}
		return l.store.Delete(ctx, storageKey(monthKey))
	})
	if err != nil {
		l.Log.Error("failed to delete usage stats bucket, keeping it empty in memory",
			"month_key", monthKey,
			"error", err)
		return
	}

	l.Log.Info("usage stats bucket cleared", "month_key", monthKey)
}

func (l *Ledger) load(ctx context.Context, monthKey string) bucket {
	b := bucket{}
	if l.store == nil {
		return b
	}

	data, err := l.store.Load(ctx, storageKey(monthKey))
	if errors.Is(err, storage.ErrNotFound) {
		return b
	}
	if err != nil {
		l.metrics.BucketFallback(ledger)
		l.Log.Error("failed to load usage stats bucket, starting empty",
			"month_key", monthKey,
			"error", err)
		return b
	}

	var raw map[string]map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		l.metrics.BucketFallback(ledger)
		l.Log.Error("failed to decode usage stats bucket, starting empty",
			"month_key", monthKey,
			"error", err)
		return b
	}

	for chatKey, users := range raw {
		chatID, err := strconv.ParseInt(chatKey, 10, 64)
		if err != nil {
			l.Log.Warn("skipping usage stats chat with invalid id",
				"month_key", monthKey,
				"chat", chatKey)
			continue
		}

		counts := make(map[int64]int64, len(users))
		for userKey, rawCount := range users {
			userID, err := strconv.ParseInt(userKey, 10, 64)
			if err != nil {
				l.Log.Warn("skipping usage stats user with invalid id",
					"month_key", monthKey,
					"chat_id", chatID,
					"user", userKey)
				continue
			}

			var count int64
			if err := json.Unmarshal(rawCount, &count); err != nil {
				l.Log.Warn("skipping usage stats user with invalid count",
					"month_key", monthKey,
					"chat_id", chatID,
					"user_id", userID)
				continue
			}
			counts[userID] = count
		}

		if len(counts) > 0 {
			b[chatID] = counts
		}
	}

	return b
}

func (l *Ledger) persist(ctx context.Context, monthKey string, b bucket) {
	if l.store == nil {
		return
	}

	out := make(map[string]map[string]int64, len(b))
	for chatID, users := range b {
		counts := make(map[string]int64, len(users))
		for userID, count := range users {
			counts[strconv.FormatInt(userID, 10)] = count
		}
		out[strconv.FormatInt(chatID, 10)] = counts
	}

	data, err := json.Marshal(out)
	if err != nil {
		l.Log.Error("failed to encode usage stats bucket",
			"month_key", monthKey,
			"error", err)
		return
	}

	if err := l.store.Save(ctx, storageKey(monthKey), data); err != nil {
		l.Log.Error("failed to save usage stats bucket",
			"month_key", monthKey,
			"error", err)
	}
}
