package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"sitechat-backend/internal/models"
)

const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiProvider is the hosted variant backed by Google Gemini.
type GeminiProvider struct {
	client    *genai.Client // nil when no API key was supplied
	modelName string
	timeout   time.Duration
}

// NewGeminiProvider creates the Gemini adapter. Without an API key the
// provider is still returned but reports itself as not configured on every
// call. Model names that are not Gemini models fall back to DefaultGeminiModel.
func NewGeminiProvider(apiKey, modelName string, timeout time.Duration) (*GeminiProvider, error) {
	if !strings.HasPrefix(modelName, "gemini") {
		modelName = DefaultGeminiModel
	}
	p := &GeminiProvider{modelName: modelName, timeout: timeout}
	if apiKey == "" {
		return p, nil
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	p.client = client
	return p, nil
}

func (p *GeminiProvider) Close() {
	if p.client != nil {
		p.client.Close()
	}
}

func (p *GeminiProvider) GenerateReply(ctx context.Context, systemPrompt string, messages []models.ChatMessage) (string, error) {
	if p.client == nil {
		return "", &NotConfiguredError{Message: "Gemini provider selected but GEMINI_API_KEY is not set"}
	}
	if len(messages) == 0 {
		return "", fmt.Errorf("no messages to send")
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	// A model handle per call keeps the system instruction out of shared state.
	model := p.client.GenerativeModel(p.modelName)
	model.SetTemperature(0.3)
	if systemPrompt != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}
	}

	cs := model.StartChat()
	cs.History = toGeminiContents(messages[:len(messages)-1])

	resp, err := cs.SendMessage(ctx, genai.Text(messages[len(messages)-1].Content))
	if err != nil {
		return "", &ProviderError{Provider: "gemini", Cause: err}
	}

	return strings.TrimSpace(extractText(resp)), nil
}

// Gemini names the assistant role "model".
func toGeminiContents(messages []models.ChatMessage) []*genai.Content {
	out := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		role := "user"
		if m.Role == models.RoleAssistant {
			role = "model"
		}
		out = append(out, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(m.Content)}})
	}
	return out
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}
