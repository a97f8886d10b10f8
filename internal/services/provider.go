package services

import (
	"context"
	"fmt"
	"strings"

	"sitechat-backend/internal/config"
	"sitechat-backend/internal/models"
)

// ReplyGenerator turns a system prompt and an ordered message list into a
// single model reply. Implementations must be safe for concurrent use.
type ReplyGenerator interface {
	GenerateReply(ctx context.Context, systemPrompt string, messages []models.ChatMessage) (string, error)
}

// ProviderName selects a ReplyGenerator at process start.
type ProviderName string

const (
	ProviderLocal  ProviderName = "local"
	ProviderOllama ProviderName = "ollama" // alias of local
	ProviderCustom ProviderName = "custom"
	ProviderGemini ProviderName = "gemini"
)

// NewProvider builds the adapter named by cfg.Provider. An unknown name is a
// startup error; a known but unconfigured provider is returned and fails on
// every call instead.
func NewProvider(cfg *config.Config) (ReplyGenerator, error) {
	switch ProviderName(strings.ToLower(strings.TrimSpace(cfg.Provider))) {
	case ProviderLocal, ProviderOllama:
		return NewOllamaProvider(cfg.OllamaURL, cfg.Model, cfg.ProviderTimeout), nil
	case ProviderCustom:
		return NewCustomProvider(), nil
	case ProviderGemini:
		return NewGeminiProvider(cfg.GeminiAPIKey, cfg.Model, cfg.ProviderTimeout)
	default:
		return nil, fmt.Errorf("unsupported provider %q (expected local, ollama, custom or gemini)", cfg.Provider)
	}
}
