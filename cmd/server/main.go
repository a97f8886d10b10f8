package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"sitechat-backend/internal/config"
	"sitechat-backend/internal/database"
	"sitechat-backend/internal/faq"
	"sitechat-backend/internal/handlers"
	"sitechat-backend/internal/metrics"
	"sitechat-backend/internal/middleware"
	"sitechat-backend/internal/router"
	"sitechat-backend/internal/services"
	"sitechat-backend/internal/websocket"
)

func main() {
	log.Println("🚀 Starting chat relay...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Select Provider ────
	provider, err := services.NewProvider(cfg)
	if err != nil {
		log.Fatalf("✗ Provider selection failed: %v", err)
	}
	if closer, ok := provider.(interface{ Close() }); ok {
		defer closer.Close()
	}
	log.Printf("✓ Provider %q ready (model %s)", cfg.Provider, cfg.Model)

	// ──── Step 3: Load FAQ Knowledge Base ────
	kb, err := faq.LoadFile(cfg.FAQPath)
	if err != nil {
		log.Printf("✗ FAQ not loaded, serving an empty knowledge base: %v", err)
		kb = faq.Empty()
	} else {
		log.Printf("✓ FAQ loaded (%d entries)", kb.Len())
	}

	// ──── Step 4: Rate Limiting ────
	var chatLimiter middleware.Limiter
	if cfg.ChatRateLimit > 0 {
		if cfg.RedisURL != "" {
			redisClient, err := database.NewRedisClient(cfg.RedisURL)
			if err != nil {
				log.Fatalf("✗ Redis connection failed: %v", err)
			}
			defer redisClient.Close()
			chatLimiter = middleware.NewRedisRateLimiter(redisClient, cfg.ChatRateLimit, time.Minute)
			log.Printf("✓ Chat rate limit %d/min (Redis)", cfg.ChatRateLimit)
		} else {
			chatLimiter = middleware.NewRateLimiter(cfg.ChatRateLimit, time.Minute)
			log.Printf("✓ Chat rate limit %d/min (in-memory)", cfg.ChatRateLimit)
		}
	}

	// ──── Initialize Handlers ────
	m := metrics.New()
	relay := services.NewRelay(provider, cfg.SystemPrompt)
	chatHandler := handlers.NewChatHandler(relay, m)
	faqHandler := handlers.NewFAQHandler(kb, m)
	wsHub := websocket.NewHub(chatHandler, m)

	// ──── Step 5: Start HTTP Server ────
	r := router.New(chatHandler, faqHandler, wsHub, m, router.Options{
		ChatLimiter: chatLimiter,
		StaticDir:   cfg.StaticDir,
		CORSOrigin:  cfg.CORSOrigin,
		TrustProxy:  cfg.TrustProxy,
	})

	// No write timeout: a reply takes as long as the provider needs.
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		log.Fatalf("✗ Listen failed: %v", err)
	}
	log.Printf("✓ chat server listening on http://localhost:%s", cfg.Port)

	if err := serve(ctx, server, ln, wsHub.Close); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	log.Println("✓ Server stopped")
}

const shutdownTimeout = 30 * time.Second

// serve runs srv on ln until ctx is done, then waits for in-flight requests
// to finish. onShutdown runs before draining starts.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, onShutdown func()) error {
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down...")
	if onShutdown != nil {
		onShutdown()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
