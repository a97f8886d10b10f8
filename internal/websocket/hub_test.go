package websocket

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitechat-backend/internal/metrics"
	"sitechat-backend/internal/models"
)

type fakeReplier struct {
	mu    sync.Mutex
	reply string
	err   error
	got   []models.ChatRequest
}

func (f *fakeReplier) Reply(ctx context.Context, req models.ChatRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, req)
	return f.reply, f.err
}

func dial(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_RepliesPerFrame(t *testing.T) {
	f := &fakeReplier{reply: "Why did..."}
	conn := dial(t, NewHub(f, metrics.New()))

	for i := 0; i < 2; i++ {
		require.NoError(t, conn.WriteJSON(models.ChatRequest{
			History: []models.ChatMessage{{Role: "user", Content: "hi"}},
			Message: "tell me a joke",
		}))

		var msg models.WSMessage
		require.NoError(t, conn.ReadJSON(&msg))
		assert.Equal(t, "reply", msg.Type)
		assert.Equal(t, "Why did...", msg.Reply)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	require.Len(t, f.got, 2)
	assert.Equal(t, "tell me a joke", f.got[1].Message)
}

func TestHub_ProviderFailureIsOpaque(t *testing.T) {
	conn := dial(t, NewHub(&fakeReplier{err: errors.New("ollama error: status 500")}, metrics.New()))

	require.NoError(t, conn.WriteJSON(models.ChatRequest{Message: "x"}))

	var msg models.WSMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, models.WSMessage{Type: "error", Error: "chat_failed"}, msg)
}

func TestHub_InvalidFrameKeepsConnection(t *testing.T) {
	conn := dial(t, NewHub(&fakeReplier{reply: "ok"}, metrics.New()))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	var msg models.WSMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "invalid_request", msg.Error)

	require.NoError(t, conn.WriteJSON(models.ChatRequest{Message: "x"}))
	var next models.WSMessage
	require.NoError(t, conn.ReadJSON(&next))
	assert.Equal(t, models.WSMessage{Type: "reply", Reply: "ok"}, next)
}

type panicReplier struct{}

func (panicReplier) Reply(ctx context.Context, req models.ChatRequest) (string, error) {
	panic("provider blew up")
}

func TestHub_PanicClosesOnlyThatConnection(t *testing.T) {
	m := metrics.New()
	hub := NewHub(panicReplier{}, m)
	conn := dial(t, hub)

	require.NoError(t, conn.WriteJSON(models.ChatRequest{Message: "x"}))

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) {
		assert.False(t, netErr.Timeout(), "connection should be closed, not left hanging")
	}

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(m.WSConnections) == 0
	}, 2*time.Second, 10*time.Millisecond)

	// The relay keeps accepting connections.
	other := dial(t, hub)
	require.NoError(t, other.WriteMessage(websocket.TextMessage, []byte("{not json")))
	var msg models.WSMessage
	require.NoError(t, other.ReadJSON(&msg))
	assert.Equal(t, "invalid_request", msg.Error)
}
