package alerter

import (
	"context"
	"errors"
	"testing"

	"github.com/Pelanglene/213bot/internal/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	messages []string
	err      error
}

func (s *recordingSender) SendAlert(_ context.Context, message string) error {
	s.messages = append(s.messages, message)
	return s.err
}

func TestSendAlertAddsAppName(t *testing.T) {
	sender := &recordingSender{}
	svc := New(sender, "engagement_bot", logger.Discard())

	require.NoError(t, svc.SendAlert(context.Background(), "job failed"))
	assert.Equal(t, []string{"[engagement_bot]\njob failed"}, sender.messages)
}

func TestSendAlertPropagatesDeliveryError(t *testing.T) {
	sender := &recordingSender{err: errors.New("telegram is down")}
	svc := New(sender, "engagement_bot", logger.Discard())

	assert.ErrorContains(t, svc.SendAlert(context.Background(), "x"), "telegram is down")
}

func TestSendAlertWithoutSender(t *testing.T) {
	svc := New(nil, "engagement_bot", logger.Discard())
	assert.NoError(t, svc.SendAlert(context.Background(), "x"))
}
