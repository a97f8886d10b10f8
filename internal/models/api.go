package models

// Error codes returned to clients. Provider details never leave the server.
const (
	ErrCodeChatFailed     = "chat_failed"
	ErrCodeInvalidRequest = "invalid_request"
	ErrCodeRateLimited    = "rate_limited"
	ErrCodeInternal       = "internal_error"
)

// ErrorResponse is the flat error body, e.g. {"error":"chat_failed"}.
type ErrorResponse struct {
	Error string `json:"error"`
}

// WebSocket frame wrapping a chat reply or error.
type WSMessage struct {
	Type  string `json:"type"` // "reply" | "error"
	Reply string `json:"reply,omitempty"`
	Error string `json:"error,omitempty"`
}
