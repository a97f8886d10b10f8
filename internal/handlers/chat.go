package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"sitechat-backend/internal/metrics"
	"sitechat-backend/internal/middleware"
	"sitechat-backend/internal/models"
	"sitechat-backend/internal/services"
)

type chatRelay interface {
	HandleChat(ctx context.Context, req models.ChatRequest) (string, error)
}

type ChatHandler struct {
	relay   chatRelay
	metrics *metrics.Metrics
}

func NewChatHandler(relay chatRelay, m *metrics.Metrics) *ChatHandler {
	return &ChatHandler{relay: relay, metrics: m}
}

// Chat handles POST /chat.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.metrics.ChatRequests.WithLabelValues("http", metrics.OutcomeInvalid).Inc()
		writeJSON(w, http.StatusBadRequest, errorResp(models.ErrCodeInvalidRequest))
		return
	}

	reply, err := h.Reply(r.Context(), req)
	if err != nil {
		h.metrics.ChatRequests.WithLabelValues("http", metrics.OutcomeFailed).Inc()
		writeJSON(w, http.StatusInternalServerError, errorResp(models.ErrCodeChatFailed))
		return
	}

	h.metrics.ChatRequests.WithLabelValues("http", metrics.OutcomeOK).Inc()
	writeJSON(w, http.StatusOK, models.ChatResponse{Reply: reply})
}

// Reply runs one relay round trip and logs failures. The returned error is
// only for the caller's control flow; it must not be shown to clients.
func (h *ChatHandler) Reply(ctx context.Context, req models.ChatRequest) (string, error) {
	if req.History == nil {
		req.History = []models.ChatMessage{}
	}

	start := time.Now()
	reply, err := h.relay.HandleChat(ctx, req)
	outcome := metrics.OutcomeOK
	if err != nil {
		outcome = metrics.OutcomeFailed
	}
	h.metrics.ProviderLatency.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	if err != nil {
		var nc *services.NotConfiguredError
		if errors.As(err, &nc) {
			log.Printf("[%s] ✗ chat failed, provider not configured: %v", middleware.GetRequestID(ctx), err)
		} else {
			log.Printf("[%s] ✗ chat failed: %v", middleware.GetRequestID(ctx), err)
		}
		return "", err
	}
	return reply, nil
}
