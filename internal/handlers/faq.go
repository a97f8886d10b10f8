package handlers

import (
	"net/http"

	"sitechat-backend/internal/faq"
	"sitechat-backend/internal/metrics"
	"sitechat-backend/internal/models"
)

type FAQHandler struct {
	kb      *faq.KnowledgeBase
	metrics *metrics.Metrics
}

func NewFAQHandler(kb *faq.KnowledgeBase, m *metrics.Metrics) *FAQHandler {
	if kb == nil {
		kb = faq.Empty()
	}
	return &FAQHandler{kb: kb, metrics: m}
}

// Entries serves the knowledge base as the static faq.json document.
func (h *FAQHandler) Entries(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=300")
	writeJSON(w, http.StatusOK, h.kb.Entries())
}

// Match runs the matcher server-side for clients without their own copy.
func (h *FAQHandler) Match(w http.ResponseWriter, r *http.Request) {
	var req models.FAQMatchRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp(models.ErrCodeInvalidRequest))
		return
	}

	res := h.kb.Match(req.Query)
	h.metrics.FAQMatches.WithLabelValues(string(res.Pass)).Inc()

	writeJSON(w, http.StatusOK, models.FAQMatchResponse{
		Matched: res.Matched(),
		Answer:  res.Answer,
		Pass:    string(res.Pass),
	})
}
