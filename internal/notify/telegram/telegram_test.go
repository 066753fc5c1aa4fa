package telegram

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/quantpit/pitboss/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSend_PostsToBotEndpoint(t *testing.T) {
	var gotPath string
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	tg := New("test-token", "12345")
	tg.baseURL = server.URL

	err := tg.Send(notify.Notice{
		Kind:   notify.KindTrade,
		Symbol: "AAPL",
		Title:  "AAPL EXECUTED: 10 @ 178.50",
		Time:   time.Date(2026, 8, 24, 15, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, "/bottest-token/sendMessage", gotPath)
	assert.Equal(t, "12345", payload["chat_id"])
	assert.Equal(t, "Markdown", payload["parse_mode"])
	assert.Contains(t, payload["text"], "AAPL EXECUTED")
}

func TestSend_APIErrorSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"ok":false,"description":"bot blocked"}`))
	}))
	defer server.Close()

	tg := New("test-token", "12345")
	tg.baseURL = server.URL

	err := tg.Send(notify.Notice{Kind: notify.KindAlert, Title: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestSendBatch_JoinsNoticesInOneMessage(t *testing.T) {
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	tg := New("test-token", "12345")
	tg.baseURL = server.URL

	err := tg.SendBatch([]notify.Notice{
		{Kind: notify.KindSignal, Title: "first"},
		{Kind: notify.KindSignal, Title: "second"},
	})
	require.NoError(t, err)

	text := payload["text"].(string)
	assert.Contains(t, text, "2 updates")
	assert.Contains(t, text, "first")
	assert.Contains(t, text, "second")
}

func TestFormatNotice_FieldsSortedByKey(t *testing.T) {
	tg := New("t", "c")

	text := tg.formatNotice(notify.Notice{
		Title: "title",
		Fields: map[string]any{
			"zeta":  1,
			"alpha": 2,
		},
		Time: time.Now(),
	})

	assert.Less(t, strings.Index(text, "alpha"), strings.Index(text, "zeta"))
}

func TestInit_RequiresTokenAndChat(t *testing.T) {
	err := New("", "").Init(notify.Config{Params: map[string]any{"chat_id": "1"}})
	assert.Error(t, err)

	err = New("", "").Init(notify.Config{Params: map[string]any{"bot_token": "t"}})
	assert.Error(t, err)

	err = New("", "").Init(notify.Config{Params: map[string]any{"bot_token": "t", "chat_id": "1"}})
	assert.NoError(t, err)
}
