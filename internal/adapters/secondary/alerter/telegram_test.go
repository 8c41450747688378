package alerter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Pelanglene/213bot/internal/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendAlertToTopic(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botALERT/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":3}}`))
	}))
	defer srv.Close()

	thread := int64(12)
	c := NewClient(&Config{BotToken: "ALERT", ChatID: -500, MessageThreadID: &thread}, srv.URL, logger.Discard())
	require.NoError(t, c.SendAlert(context.Background(), "job failed"))

	assert.Equal(t, float64(-500), got["chat_id"])
	assert.Equal(t, float64(12), got["message_thread_id"])
	assert.Equal(t, "job failed", got["text"])
}

func TestNilClient(t *testing.T) {
	c := NewClient(nil, "", logger.Discard())
	assert.Error(t, c.SendAlert(context.Background(), "x"))
}
