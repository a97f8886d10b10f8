// Package widget is the client side of the chat widget: a session that owns
// the transient conversation history, answers from its own copy of the FAQ
// when it can and otherwise asks the relay.
package widget

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"sitechat-backend/internal/faq"
	"sitechat-backend/internal/models"
)

// Client talks to a relay over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a relay client. A zero timeout means requests wait as
// long as the caller's context allows.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// FetchFAQ downloads the static faq.json document.
func (c *Client) FetchFAQ(ctx context.Context) (*faq.KnowledgeBase, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/faq.json", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch FAQ: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch FAQ: status %d", resp.StatusCode)
	}
	return faq.Parse(resp.Body)
}

// Ask posts one chat request and returns the relay's reply.
func (c *Client) Ask(ctx context.Context, history []models.ChatMessage, message string) (string, error) {
	body, err := json.Marshal(models.ChatRequest{History: history, Message: message})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat error: status %d", resp.StatusCode)
	}

	var out models.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	return out.Reply, nil
}
