package services

import (
	"context"

	"sitechat-backend/internal/models"
)

// Relay forwards a conversation to the configured provider. It holds only
// read-only configuration, so one Relay serves all requests concurrently.
type Relay struct {
	provider     ReplyGenerator
	systemPrompt string
}

func NewRelay(provider ReplyGenerator, systemPrompt string) *Relay {
	return &Relay{provider: provider, systemPrompt: systemPrompt}
}

// HandleChat sends history plus the new user message to the provider and
// returns its reply unmodified.
func (s *Relay) HandleChat(ctx context.Context, req models.ChatRequest) (string, error) {
	return s.provider.GenerateReply(ctx, s.systemPrompt, BuildMessages(req.History, req.Message))
}

// BuildMessages returns a fresh slice of history followed by the user turn.
func BuildMessages(history []models.ChatMessage, message string) []models.ChatMessage {
	messages := make([]models.ChatMessage, 0, len(history)+1)
	messages = append(messages, history...)
	return append(messages, models.ChatMessage{Role: models.RoleUser, Content: message})
}
