package router

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"sitechat-backend/internal/handlers"
	"sitechat-backend/internal/metrics"
	"sitechat-backend/internal/middleware"
	"sitechat-backend/internal/websocket"
)

type Options struct {
	// ChatLimiter guards the chat routes; nil disables rate limiting.
	ChatLimiter middleware.Limiter
	// StaticDir holds the widget assets; empty or missing disables serving.
	StaticDir  string
	CORSOrigin string
	// TrustProxy keys clients by forwarded headers instead of the socket
	// address. Leave off unless a proxy rewrites those headers.
	TrustProxy bool
}

func New(
	chatHandler *handlers.ChatHandler,
	faqHandler *handlers.FAQHandler,
	wsHub *websocket.Hub,
	m *metrics.Metrics,
	opts Options,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	if opts.TrustProxy {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(opts.CORSOrigin))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", m.Handler())

	// ──── FAQ ────
	r.Get("/faq.json", faqHandler.Entries)
	r.Post("/faq/match", faqHandler.Match)

	// ──── Chat ────
	r.Group(func(r chi.Router) {
		if opts.ChatLimiter != nil {
			r.Use(middleware.RateLimit(opts.ChatLimiter, func() {
				m.ChatRequests.WithLabelValues("http", metrics.OutcomeRateLimited).Inc()
			}))
		}
		r.Post("/chat", chatHandler.Chat)
		r.Get("/chat/ws", wsHub.HandleWebSocket)
	})

	// ──── Widget assets ────
	if opts.StaticDir != "" {
		if info, err := os.Stat(opts.StaticDir); err == nil && info.IsDir() {
			r.Handle("/*", http.FileServer(http.Dir(opts.StaticDir)))
		}
	}

	return r
}
