package usagestats

import (
	"context"
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

func newLedger(store storage.IBucketStore) (*Ledger, *metrics.Metrics) {
	clk := clock.NewFrozen(time.Date(2024, 6, 15, 12, 0, 0, 0, msk), msk)
	m := metrics.New()
	return New(store, clk, m, logger.Discard()), m
}

// undeletableStore хранит данные, но не умеет их удалять
type undeletableStore struct {
	*inmemory.BucketStore
}

func (undeletableStore) Delete(context.Context, string) error { return errors.New("read-only volume") }

func TestTopOrdering(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(inmemory.NewBucketStore())
	when := time.Date(2024, 6, 10, 12, 0, 0, 0, msk)

	const chat = int64(-1001)
	const userA, userB, userC = int64(20), int64(10), int64(30)

	l.RecordUsage(ctx, chat, userA, when)
	l.RecordUsage(ctx, chat, userA, when)
	l.RecordUsage(ctx, chat, userB, when)
	l.RecordUsage(ctx, chat, userB, when)
	l.RecordUsage(ctx, chat, userC, when)
	l.RecordUsage(ctx, 999, userC, when)

	top := l.GetTop(ctx, "2024-06", chat, 10)
	assert.Equal(t, []domain.UsageCount{
		{UserID: userB, Count: 2},
		{UserID: userA, Count: 2},
		{UserID: userC, Count: 1},
	}, top)

	assert.Equal(t, []domain.UsageCount{{UserID: userB, Count: 2}}, l.GetTop(ctx, "2024-06", chat, 1))
	assert.Empty(t, l.GetTop(ctx, "2024-06", chat, 0))
	assert.Empty(t, l.GetTop(ctx, "2024-06", chat, -3))
	assert.Empty(t, l.GetTop(ctx, "2024-05", chat, 10))
	assert.Empty(t, l.GetTop(ctx, "2024-06", 12345, 10))
}

func TestMonthKeyUsesBusinessTimezone(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(nil)

	// 21:30 UTC 31 мая это уже июнь по Москве
	when := time.Date(2024, 5, 31, 21, 30, 0, 0, time.UTC)
	assert.Equal(t, "2024-06", l.MonthKey(when))

	l.RecordUsage(ctx, 1, 2, when)
	assert.Equal(t, []domain.UsageCount{{UserID: 2, Count: 1}}, l.GetTop(ctx, "2024-06", 1, 5))
	assert.Empty(t, l.GetTop(ctx, "2024-05", 1, 5))
}

func TestCountsSurviveRestart(t *testing.T) {
	ctx := context.Background()
	store := inmemory.NewBucketStore()
	l, _ := newLedger(store)
	when := time.Date(2024, 6, 10, 12, 0, 0, 0, msk)

	for i := 0; i < 3; i++ {
		l.RecordUsage(ctx, 1, 7, when)
	}

	data, err := store.Load(ctx, "usage_stats_2024-06")
	require.NoError(t, err)
	assert.JSONEq(t, `{"1":{"7":3}}`, string(data))

	restarted, _ := newLedger(store)
	restarted.RecordUsage(ctx, 1, 7, when)
	assert.Equal(t, []domain.UsageCount{{UserID: 7, Count: 4}}, restarted.GetTop(ctx, "2024-06", 1, 1))
}

func TestClearMonth(t *testing.T) {
	ctx := context.Background()
	store := inmemory.NewBucketStore()
	l, _ := newLedger(store)

	l.RecordUsage(ctx, 1, 7, time.Date(2024, 6, 10, 12, 0, 0, 0, msk))
	l.ClearMonth(ctx, "2024-06")
	l.ClearMonth(ctx, "2024-06")

	assert.Empty(t, l.GetTop(ctx, "2024-06", 1, 10))
	_, err := store.Load(ctx, "usage_stats_2024-06")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestClearMonthKeepsBucketEmptyWhenDeleteFails(t *testing.T) {
	ctx := context.Background()
	store := undeletableStore{inmemory.NewBucketStore()}
	l, _ := newLedger(store)
	when := time.Date(2024, 6, 10, 12, 0, 0, 0, msk)

	l.RecordUsage(ctx, 1, 7, when)
	l.RecordUsage(ctx, 1, 7, when)
	l.ClearMonth(ctx, "2024-06")

	assert.Empty(t, l.GetTop(ctx, "2024-06", 1, 10), "stale counters are not reloaded")

	l.RecordUsage(ctx, 1, 8, when)
	assert.Equal(t, []domain.UsageCount{{UserID: 8, Count: 1}}, l.GetTop(ctx, "2024-06", 1, 10))

	data, err := store.Load(ctx, "usage_stats_2024-06")
	require.NoError(t, err)
	assert.JSONEq(t, `{"1":{"8":1}}`, string(data))
}

func TestMalformedBucket(t *testing.T) {
	ctx := context.Background()

	t.Run("undecodable", func(t *testing.T) {
		store := inmemory.NewBucketStore()
		require.NoError(t, store.Save(ctx, "usage_stats_2024-06", []byte(`[1,2,3]`)))

		l, m := newLedger(store)
		assert.Empty(t, l.GetTop(ctx, "2024-06", 1, 10))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.BucketLoadFallbacks.WithLabelValues("usage_stats")))
	})

	t.Run("bad records are dropped", func(t *testing.T) {
		store := inmemory.NewBucketStore()
		payload := `{"x":{"1":5},"1":{"2":3,"y":9,"4":"many"}}`
		require.NoError(t, store.Save(ctx, "usage_stats_2024-06", []byte(payload)))

		l, _ := newLedger(store)
		assert.Equal(t, []domain.UsageCount{{UserID: 2, Count: 3}}, l.GetTop(ctx, "2024-06", 1, 10))
	})
}
