package dailyvote

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Pelanglene/213bot/internal/adapters/secondary/storage/inmemory"
	"github.com/Pelanglene/213bot/internal/domain"
	"github.com/Pelanglene/213bot/internal/pkg/clock"
	"github.com/Pelanglene/213bot/internal/pkg/logger"
	"github.com/Pelanglene/213bot/internal/pkg/metrics"
	"github.com/Pelanglene/213bot/internal/ports/storage"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var msk = time.FixedZone("MSK", 3*60*60)

func newAggregator(store storage.IBucketStore) (*Aggregator, *clock.Frozen, *metrics.Metrics) {
	clk := clock.NewFrozen(time.Date(2024, 6, 1, 12, 0, 0, 0, msk), msk)
	m := metrics.New()
	return New(store, clk, m, logger.Discard()), clk, m
}

type failingStore struct {
	err error
}

func (s failingStore) Load(context.Context, string) ([]byte, error) { return nil, s.err }
func (s failingStore) Save(context.Context, string, []byte) error   { return s.err }
func (s failingStore) Delete(context.Context, string) error         { return s.err }

// undeletableStore хранит данные, но не умеет их удалять
type undeletableStore struct {
	*inmemory.BucketStore
}

func (undeletableStore) Delete(context.Context, string) error { return errors.New("read-only volume") }

func TestRecordAndListEntries(t *testing.T) {
	ctx := context.Background()
	a, _, _ := newAggregator(inmemory.NewBucketStore())

	sent := time.Date(2024, 6, 1, 10, 0, 0, 0, msk)
	a.RecordEntry(ctx, 100, 1, "file-a", sent)
	a.RecordEntry(ctx, 100, 2, "file-b", sent.Add(time.Minute))
	a.RecordEntry(ctx, 7, 3, "file-c", sent)

	assert.Equal(t, []int64{7, 100}, a.ListConversationsForDate(ctx, "2024-06-01"))

	entries := a.ListEntries(ctx, "2024-06-01", 100)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(1), entries[0].MessageID)
	assert.Equal(t, "file-b", entries[1].FileID)

	entries[0].FileID = "mutated"
	assert.Equal(t, "file-a", a.ListEntries(ctx, "2024-06-01", 100)[0].FileID, "list returns a copy")

	assert.Empty(t, a.ListEntries(ctx, "2024-06-01", 555))
	assert.Empty(t, a.ListConversationsForDate(ctx, "2024-05-31"))
}

func TestDateKeyUsesBusinessTimezone(t *testing.T) {
	ctx := context.Background()
	a, _, _ := newAggregator(nil)

	// 22:30 UTC 31 мая это 01:30 1 июня по Москве
	sent := time.Date(2024, 5, 31, 22, 30, 0, 0, time.UTC)
	assert.Equal(t, "2024-06-01", a.DateKey(sent))

	a.RecordEntry(ctx, 1, 10, "f", sent)
	assert.Equal(t, []int64{1}, a.ListConversationsForDate(ctx, "2024-06-01"))
	assert.Empty(t, a.ListConversationsForDate(ctx, "2024-05-31"))
}

func TestEntriesSurviveRestart(t *testing.T) {
	ctx := context.Background()
	store := inmemory.NewBucketStore()
	a, _, _ := newAggregator(store)

	sent := time.Date(2024, 6, 1, 10, 15, 30, 0, msk)
	a.RecordEntry(ctx, -100500, 42, "AgAD", sent)

	restarted, _, _ := newAggregator(store)
	entries := restarted.ListEntries(ctx, "2024-06-01", -100500)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(-100500), entries[0].ChatID)
	assert.Equal(t, int64(42), entries[0].MessageID)
	assert.Equal(t, "AgAD", entries[0].FileID)
	assert.True(t, sent.Equal(entries[0].SentAt))
}

func TestPersistedFormat(t *testing.T) {
	ctx := context.Background()
	store := inmemory.NewBucketStore()
	a, _, _ := newAggregator(store)

	a.RecordEntry(ctx, 5, 9, "file", time.Date(2024, 6, 1, 10, 0, 0, 0, msk))

	data, err := store.Load(ctx, "daily_vote_2024-06-01")
	require.NoError(t, err)

	var raw map[string][]map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw["5"], 1)
	assert.Equal(t, "file", raw["5"][0]["file_id"])
	assert.Equal(t, "2024-06-01T10:00:00+03:00", raw["5"][0]["sent_at"])
}

func TestClearDateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := inmemory.NewBucketStore()
	a, _, _ := newAggregator(store)

	a.RecordEntry(ctx, 1, 1, "f", time.Date(2024, 6, 1, 10, 0, 0, 0, msk))
	a.ClearDate(ctx, "2024-06-01")
	a.ClearDate(ctx, "2024-06-01")

	assert.Empty(t, a.ListConversationsForDate(ctx, "2024-06-01"))
	_, err := store.Load(ctx, "daily_vote_2024-06-01")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestClearDateKeepsBucketEmptyWhenDeleteFails(t *testing.T) {
	ctx := context.Background()
	store := undeletableStore{inmemory.NewBucketStore()}
	a, _, _ := newAggregator(store)

	sent := time.Date(2024, 6, 1, 10, 0, 0, 0, msk)
	a.RecordEntry(ctx, 1, 1, "old", sent)
	a.ClearDate(ctx, "2024-06-01")

	assert.Empty(t, a.ListConversationsForDate(ctx, "2024-06-01"), "stale entries are not reloaded")
	assert.Empty(t, a.ListEntries(ctx, "2024-06-01", 1))

	a.RecordEntry(ctx, 2, 5, "new", sent)

	restarted, _, _ := newAggregator(store)
	assert.Equal(t, []int64{2}, restarted.ListConversationsForDate(ctx, "2024-06-01"), "next write replaces the stored bucket")
}

func TestCorruptBucketStartsEmpty(t *testing.T) {
	ctx := context.Background()
	store := inmemory.NewBucketStore()
	require.NoError(t, store.Save(ctx, "daily_vote_2024-06-01", []byte("{not json")))

	a, _, m := newAggregator(store)
	assert.Empty(t, a.ListConversationsForDate(ctx, "2024-06-01"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BucketLoadFallbacks.WithLabelValues("daily_vote")))

	a.RecordEntry(ctx, 1, 1, "f", time.Date(2024, 6, 1, 10, 0, 0, 0, msk))
	assert.Equal(t, []int64{1}, a.ListConversationsForDate(ctx, "2024-06-01"))
}

func TestMalformedRecordsAreTolerated(t *testing.T) {
	ctx := context.Background()
	store := inmemory.NewBucketStore()
	payload := `{
		"abc": [{"chat_id": 1, "message_id": 1, "file_id": "x", "sent_at": "2024-06-01T10:00:00+03:00"}],
		"2": [
			{"chat_id": 2, "message_id": 5, "file_id": "ok", "sent_at": "yesterday-ish"},
			{"chat_id": 2, "message_id": "six", "file_id": "bad", "sent_at": "2024-06-01T10:00:00+03:00"}
		]
	}`
	require.NoError(t, store.Save(ctx, "daily_vote_2024-06-01", []byte(payload)))

	a, clk, _ := newAggregator(store)
	assert.Equal(t, []int64{2}, a.ListConversationsForDate(ctx, "2024-06-01"))

	entries := a.ListEntries(ctx, "2024-06-01", 2)
	require.Len(t, entries, 1)
	assert.Equal(t, "ok", entries[0].FileID)
	assert.True(t, clk.Now().Equal(entries[0].SentAt), "unparsable sent_at defaults to now")
}

func TestStorageErrorsAreSwallowed(t *testing.T) {
	ctx := context.Background()
	a, _, m := newAggregator(failingStore{err: errors.New("disk on fire")})

	sent := time.Date(2024, 6, 1, 10, 0, 0, 0, msk)
	a.RecordEntry(ctx, 1, 1, "f", sent)

	assert.Equal(t, []int64{1}, a.ListConversationsForDate(ctx, "2024-06-01"), "memory keeps the entry")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BucketLoadFallbacks.WithLabelValues("daily_vote")))

	a.ClearDate(ctx, "2024-06-01")
	assert.Empty(t, a.ListConversationsForDate(ctx, "2024-06-01"))
}

func TestSelectWinner(t *testing.T) {
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, msk)
	e1 := domain.DailyPhotoEntry{MessageID: 1, SentAt: base}
	e2 := domain.DailyPhotoEntry{MessageID: 2, SentAt: base.Add(time.Minute)}

	scores := map[int64]int{}
	score := func(e domain.DailyPhotoEntry) int { return scores[e.MessageID] }

	t.Run("empty", func(t *testing.T) {
		_, ok := SelectWinner(nil, score)
		assert.False(t, ok)
	})

	t.Run("higher score wins", func(t *testing.T) {
		scores[1], scores[2] = 3, 5
		w, ok := SelectWinner([]domain.DailyPhotoEntry{e1, e2}, score)
		require.True(t, ok)
		assert.Equal(t, int64(2), w.MessageID)
	})

	t.Run("tie goes to earliest", func(t *testing.T) {
		scores[1], scores[2] = 5, 5
		w, ok := SelectWinner([]domain.DailyPhotoEntry{e2, e1}, score)
		require.True(t, ok)
		assert.Equal(t, int64(1), w.MessageID)
	})

	t.Run("full tie keeps input order", func(t *testing.T) {
		e3 := domain.DailyPhotoEntry{MessageID: 3, SentAt: base}
		scores[1], scores[3] = 4, 4
		w, ok := SelectWinner([]domain.DailyPhotoEntry{e3, e1}, score)
		require.True(t, ok)
		assert.Equal(t, int64(3), w.MessageID)
	})

	t.Run("single zero-score entry still wins", func(t *testing.T) {
		w, ok := SelectWinner([]domain.DailyPhotoEntry{{MessageID: 99, SentAt: base}}, score)
		require.True(t, ok)
		assert.Equal(t, int64(99), w.MessageID)
	})
}
