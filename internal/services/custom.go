package services

import (
	"context"

	"sitechat-backend/internal/models"
)

// CustomProvider is the slot for a hosted model API. Until one is wired in,
// every call fails with a message aimed at the operator.
type CustomProvider struct{}

func NewCustomProvider() *CustomProvider { return &CustomProvider{} }

func (p *CustomProvider) GenerateReply(ctx context.Context, systemPrompt string, messages []models.ChatMessage) (string, error) {
	return "", &NotConfiguredError{
		Message: "no cloud provider configured: set PROVIDER=local (default) or implement CustomProvider.GenerateReply",
	}
}
