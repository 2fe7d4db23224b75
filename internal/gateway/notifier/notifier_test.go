package notifier

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTelegramRetriesUntilSuccess(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottoken/sendMessage", r.URL.Path)
		var payload map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "42", payload["chat_id"])
		assert.Equal(t, "hello", payload["text"])
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tg := NewTelegram("token", "42")
	tg.BaseURL = srv.URL
	tg.Backoff = time.Millisecond
	require.NoError(t, tg.SendText("hello"))
	assert.Equal(t, int32(2), hits.Load())
}

func TestTelegramGivesUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	tg := NewTelegram("token", "42")
	tg.BaseURL = srv.URL
	tg.Backoff = time.Millisecond
	err := tg.SendText("hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=500")
}

func TestTelegramRequiresConfig(t *testing.T) {
	assert.ErrorIs(t, NewTelegram("", "42").SendText("x"), ErrTelegramConfig)
}

func TestStructuredMessage(t *testing.T) {
	msg := StructuredMessage{
		Title: "Trade #1 with 7656 is accepted",
		Sections: []MessageSection{
			{Title: "Summary", Lines: []string{"Asked: 1 x 263;6", " ", "Offered: 2 x 5002;6"}},
			{Title: "Empty", Lines: []string{""}},
		},
		Footer:    "```note```",
		Timestamp: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	out := msg.RenderMarkdown()
	assert.True(t, strings.HasPrefix(out, "Trade #1 with 7656 is accepted\n\n```\nSummary\n- Asked: 1 x 263;6\n- Offered: 2 x 5002;6\n```"))
	assert.NotContains(t, out, "Empty")
	assert.Contains(t, out, "'''note'''")
	assert.True(t, strings.HasSuffix(out, "Time: 2024-01-02 03:04:05 UTC"))
}
