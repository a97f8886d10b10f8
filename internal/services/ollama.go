package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"sitechat-backend/internal/models"
)

const DefaultOllamaURL = "http://127.0.0.1:11434"

// OllamaProvider talks to a local Ollama server over loopback HTTP.
type OllamaProvider struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

type ollamaChatRequest struct {
	Model    string               `json:"model"`
	Stream   bool                 `json:"stream"`
	Messages []models.ChatMessage `json:"messages"`
}

type ollamaChatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
}

// NewOllamaProvider creates the local adapter. A zero timeout leaves the
// request bounded only by the caller's context.
func NewOllamaProvider(baseURL, model string, timeout time.Duration) *OllamaProvider {
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	return &OllamaProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (p *OllamaProvider) GenerateReply(ctx context.Context, systemPrompt string, messages []models.ChatMessage) (string, error) {
	all := make([]models.ChatMessage, 0, len(messages)+1)
	if systemPrompt != "" {
		all = append(all, models.ChatMessage{Role: models.RoleSystem, Content: systemPrompt})
	}
	all = append(all, messages...)

	body, err := json.Marshal(ollamaChatRequest{Model: p.model, Stream: false, Messages: all})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", &ProviderError{Provider: "ollama", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &ProviderError{Provider: "ollama", StatusCode: resp.StatusCode}
	}

	var out ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &ProviderError{Provider: "ollama", Cause: fmt.Errorf("failed to parse response: %w", err)}
	}

	return strings.TrimSpace(out.Message.Content), nil
}
