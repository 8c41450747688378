package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/Pelanglene/213bot/internal/domain"
	"github.com/Pelanglene/213bot/internal/pkg/clock"
	"github.com/Pelanglene/213bot/internal/pkg/logger"
	"github.com/Pelanglene/213bot/internal/pkg/metrics"
	"github.com/Pelanglene/213bot/internal/usecases/activity"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeadChatScan(t *testing.T) {
	ctx := context.Background()
	msk, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)

	start := time.Date(2024, 6, 1, 12, 0, 0, 0, msk)
	clk := clock.NewFrozen(start, msk)
	tracker := activity.New(msk, logger.Discard())
	notifier := newFakeNotifier()
	m := metrics.New()
	policy := domain.InactivityPolicy{Threshold: 15 * time.Minute, Window: domain.DefaultActiveWindow}

	job := NewDeadChatScan(tracker, notifier, policy, time.Minute, "", clk, m, logger.Discard())
	assert.Equal(t, start.Add(time.Minute), job.NextRun(start))

	tracker.RecordActivity(1, start)
	tracker.RecordActivity(2, start)
	tracker.RecordActivity(3, start.Add(10*time.Minute))
	notifier.fail[2] = true

	clk.Advance(20 * time.Minute)
	require.NoError(t, job.Run(ctx))

	assert.Equal(t, []sentMessage{{chatID: 1, text: DefaultDeadChatText}}, notifier.messages())
	assert.Equal(t, 2.0, testutil.ToFloat64(m.InactiveChats))

	// чат 1 получил уведомление и снова ждёт полный порог, чат 2 пробуем ещё раз
	notifier.fail[2] = false
	clk.Advance(time.Minute)
	require.NoError(t, job.Run(ctx))

	msgs := notifier.messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, int64(2), msgs[1].chatID)
	assert.False(t, tracker.IsInactive(1, clk.Now(), policy))
}

func TestDeadChatScanOutsideActiveHours(t *testing.T) {
	msk, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)

	night := time.Date(2024, 6, 1, 23, 0, 0, 0, msk)
	clk := clock.NewFrozen(night, msk)
	tracker := activity.New(msk, logger.Discard())
	notifier := newFakeNotifier()
	policy := domain.InactivityPolicy{Threshold: 15 * time.Minute, Window: domain.DefaultActiveWindow}

	tracker.RecordActivity(1, night.Add(-2*time.Hour))

	job := NewDeadChatScan(tracker, notifier, policy, time.Minute, "тишина", clk, nil, logger.Discard())
	require.NoError(t, job.Run(context.Background()))
	assert.Empty(t, notifier.messages())
}
