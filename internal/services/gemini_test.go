package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitechat-backend/internal/models"
)

func TestGeminiProvider_WithoutKeyIsNotConfigured(t *testing.T) {
	p, err := NewGeminiProvider("", "llama3.1:8b", 0)
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, DefaultGeminiModel, p.modelName)

	_, err = p.GenerateReply(context.Background(), "sys", []models.ChatMessage{{Role: "user", Content: "hi"}})
	var nc *NotConfiguredError
	require.True(t, errors.As(err, &nc))
	assert.Contains(t, nc.Message, "GEMINI_API_KEY")
}

func TestGeminiProvider_KeepsGeminiModelName(t *testing.T) {
	p, err := NewGeminiProvider("", "gemini-1.5-pro", 0)
	require.NoError(t, err)
	assert.Equal(t, "gemini-1.5-pro", p.modelName)
}

func TestToGeminiContents_MapsRoles(t *testing.T) {
	got := toGeminiContents([]models.ChatMessage{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
	})

	require.Len(t, got, 2)
	assert.Equal(t, "user", got[0].Role)
	assert.Equal(t, "model", got[1].Role)
	assert.Equal(t, genai.Text("hello"), got[1].Parts[0])
}

func TestExtractText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("Why "), genai.Text("did...")}}},
			{Content: nil},
		},
	}

	assert.Equal(t, "Why did...", extractText(resp))
}
