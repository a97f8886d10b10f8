package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"sitechat-backend/internal/metrics"
	"sitechat-backend/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Frames larger than this close the connection.
const maxFrameBytes = 1 << 20

type replier interface {
	Reply(ctx context.Context, req models.ChatRequest) (string, error)
}

// Hub serves chat over websocket. Every text frame is an independent chat
// request; the connection carries no conversation state.
type Hub struct {
	mu          sync.Mutex
	connections map[*websocket.Conn]struct{}
	chat        replier
	metrics     *metrics.Metrics
}

func NewHub(chat replier, m *metrics.Metrics) *Hub {
	return &Hub{
		connections: make(map[*websocket.Conn]struct{}),
		chat:        chat,
		metrics:     m,
	}
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	conn.SetReadLimit(maxFrameBytes)

	h.registerConnection(conn)

	go func() {
		defer h.unregisterConnection(conn)
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("WebSocket handler panic (%s): %v\n%s", conn.RemoteAddr(), rec, debug.Stack())
			}
		}()
		h.serve(r.Context(), conn)
	}()
}

func (h *Hub) serve(ctx context.Context, conn *websocket.Conn) {
	// The request context ends once the handler returns, so replies run on a
	// context tied to the connection instead.
	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	defer cancel()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var req models.ChatRequest
		if err := json.Unmarshal(data, &req); err != nil {
			h.metrics.ChatRequests.WithLabelValues("ws", metrics.OutcomeInvalid).Inc()
			if err := conn.WriteJSON(models.WSMessage{Type: "error", Error: models.ErrCodeInvalidRequest}); err != nil {
				return
			}
			continue
		}

		msg := models.WSMessage{Type: "reply"}
		reply, err := h.chat.Reply(ctx, req)
		if err != nil {
			h.metrics.ChatRequests.WithLabelValues("ws", metrics.OutcomeFailed).Inc()
			msg = models.WSMessage{Type: "error", Error: models.ErrCodeChatFailed}
		} else {
			h.metrics.ChatRequests.WithLabelValues("ws", metrics.OutcomeOK).Inc()
			msg.Reply = reply
		}

		if err := conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

func (h *Hub) registerConnection(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections[conn] = struct{}{}
	h.metrics.WSConnections.Inc()

	log.Printf("WebSocket connected: %s (total: %d)", conn.RemoteAddr(), len(h.connections))
}

func (h *Hub) unregisterConnection(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn.Close()
	if _, ok := h.connections[conn]; ok {
		delete(h.connections, conn)
		h.metrics.WSConnections.Dec()
	}

	log.Printf("WebSocket disconnected: %s", conn.RemoteAddr())
}

// Close drops every open connection. Used on shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.connections))
	for c := range h.connections {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		c.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		c.Close()
	}
}
