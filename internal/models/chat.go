package models

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// ChatMessage represents a single turn in a conversation.
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// ChatRequest is the payload sent to the chat endpoint.
type ChatRequest struct {
	History []ChatMessage `json:"history"`
	Message string        `json:"message"`
}

// ChatResponse is the reply from the relay.
type ChatResponse struct {
	Reply string `json:"reply"`
}
