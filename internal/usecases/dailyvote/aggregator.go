package dailyvote

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
	keyPrefix = "daily_vote_"
	ledger    = "daily_vote"
)

// bucket фото одного дня по чатам
type bucket map[int64][]domain.DailyPhotoEntry

// Aggregator собирает фото за день по чатам. Бакет дня загружается из хранилища
// при первом обращении и переписывается целиком на каждую запись
type Aggregator struct {
	store   storage.IBucketStore
	clock   clock.Clock
	metrics *metrics.Metrics
	buckets *bucketcache.Cache[bucket]
	Log     *slog.Logger
}

// New создаёт агрегатор; при store == nil данные живут только в памяти
func New(store storage.IBucketStore, clk clock.Clock, m *metrics.Metrics, log *slog.Logger) *Aggregator {
	a := &Aggregator{
		store:   store,
		clock:   clk,
		metrics: m,
		Log:     log,
	}
	a.buckets = bucketcache.New(a.load)

	if store == nil {
		log.Warn("daily vote persistence disabled, entries are kept in memory only")
	}

	return a
}

func storageKey(dateKey string) string {
	return keyPrefix + dateKey
}

// DateKey ключ дня в бизнес-таймзоне
func (a *Aggregator) DateKey(t time.Time) string {
	return clock.DateKey(t, a.clock.Location())
}

// RecordEntry добавляет фото в бакет дня, к которому относится sentAt
func (a *Aggregator) RecordEntry(ctx context.Context, chatID, messageID int64, fileID string, sentAt time.Time) {
	dateKey := a.DateKey(sentAt)
	entry := domain.DailyPhotoEntry{
		ChatID:    chatID,
		MessageID: messageID,
		FileID:    fileID,
		SentAt:    sentAt.In(a.clock.Location()),
	}

	a.buckets.Do(ctx, dateKey, func(b *bucket) {
		if *b == nil {
			*b = bucket{}
		}
		(*b)[chatID] = append((*b)[chatID], entry)
		a.persist(ctx, dateKey, *b)
	})

	a.Log.Debug("daily photo recorded",
		"chat_id", chatID,
		"message_id", messageID,
		"date_key", dateKey)
}

// ListConversationsForDate чаты с хотя бы одним фото за день, по возрастанию ID
func (a *Aggregator) ListConversationsForDate(ctx context.Context, dateKey string) []int64 {
	var chats []int64
	a.buckets.Do(ctx, dateKey, func(b *bucket) {
		for chatID, entries := range *b {
			if len(entries) > 0 {
				chats = append(chats, chatID)
			}
		}
	})

	sort.Slice(chats, func(i, j int) bool { return chats[i] < chats[j] })
	return chats
}

// ListEntries копия фото чата за день в порядке записи
func (a *Aggregator) ListEntries(ctx context.Context, dateKey string, chatID int64) []domain.DailyPhotoEntry {
	var entries []domain.DailyPhotoEntry
	a.buckets.Do(ctx, dateKey, func(b *bucket) {
		if src := (*b)[chatID]; len(src) > 0 {
			entries = make([]domain.DailyPhotoEntry, len(src))
			copy(entries, src)
		}
	})
	return entries
}

// ClearDate выгружает бакет дня из памяти и удаляет его из хранилища. Идемпотентна.
// Если удалить из хранилища не удалось, бакет остаётся в памяти пустым,
// а следующая запись за этот день перезапишет его в хранилище
func (a *Aggregator) ClearDate(ctx context.Context, dateKey string) {
	err := a.buckets.Drop(dateKey, func() error {
		if a.store == nil {
			return nil
		}
		return a.store.Delete(ctx, storageKey(dateKey))
	})
	if err != nil {
		a.Log.Error("failed to delete daily vote bucket, keeping it empty in memory",
			"date_key", dateKey,
			"error", err)
		return
	}

	a.Log.Info("daily vote bucket cleared", "date_key", dateKey)
}

func (a *Aggregator) load(ctx context.Context, dateKey string) bucket {
	b := bucket{}
	if a.store == nil {
		return b
	}

	data, err := a.store.Load(ctx, storageKey(dateKey))
	if errors.Is(err, storage.ErrNotFound) {
		return b
	}
	if err != nil {
		a.metrics.BucketFallback(ledger)
		a.Log.Error("failed to load daily vote bucket, starting empty",
			"date_key", dateKey,
			"error", err)
		return b
	}

	var raw map[string][]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		a.metrics.BucketFallback(ledger)
		a.Log.Error("failed to decode daily vote bucket, starting empty",
			"date_key", dateKey,
			"error", err)
		return b
	}

	for chatKey, records := range raw {
		chatID, err := strconv.ParseInt(chatKey, 10, 64)
		if err != nil {
			a.Log.Warn("skipping daily vote chat with invalid id",
				"date_key", dateKey,
				"chat", chatKey)
			continue
		}

		for _, rec := range records {
			entry, ok := a.decodeEntry(chatID, rec)
			if !ok {
				a.Log.Warn("skipping malformed daily vote entry",
					"date_key", dateKey,
					"chat_id", chatID)
				continue
			}
			b[chatID] = append(b[chatID], entry)
		}
	}

	a.Log.Debug("daily vote bucket loaded",
		"date_key", dateKey,
		"chats", len(b))

	return b
}

// record формат записи в хранилище
type record struct {
	ChatID    int64  `json:"chat_id"`
	MessageID int64  `json:"message_id"`
	FileID    string `json:"file_id"`
	SentAt    string `json:"sent_at"`
}

func (a *Aggregator) decodeEntry(chatID int64, data json.RawMessage) (domain.DailyPhotoEntry, bool) {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return domain.DailyPhotoEntry{}, false
	}

	sentAt, err := time.Parse(time.RFC3339Nano, r.SentAt)
	if err != nil {
		// время не восстановить, считаем фото присланным сейчас
		sentAt = a.clock.Now()
	}

	return domain.DailyPhotoEntry{
		ChatID:    chatID,
		MessageID: r.MessageID,
		FileID:    r.FileID,
		SentAt:    sentAt.In(a.clock.Location()),
	}, true
}

func (a *Aggregator) persist(ctx context.Context, dateKey string, b bucket) {
	if a.store == nil {
		return
	}

	out := make(map[string][]record, len(b))
	for chatID, entries := range b {
		recs := make([]record, 0, len(entries))
		for _, e := range entries {
			recs = append(recs, record{
				ChatID:    e.ChatID,
				MessageID: e.MessageID,
				FileID:    e.FileID,
				SentAt:    e.SentAt.Format(time.RFC3339Nano),
			})
		}
		out[strconv.FormatInt(chatID, 10)] = recs
	}

	data, err := json.Marshal(out)
	if err != nil {
		a.Log.Error("failed to encode daily vote bucket",
			"date_key", dateKey,
			"error", err)
		return
	}

	if err := a.store.Save(ctx, storageKey(dateKey), data); err != nil {
		a.Log.Error("failed to save daily vote bucket",
			"date_key", dateKey,
			"error", err)
	}
}
