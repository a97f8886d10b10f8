package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const DefaultSystemPrompt = `You are a concise, friendly assistant for a website.
- Be helpful, clear, and honest.
- If you don’t know, say so briefly and propose the next best step.
- Prefer short paragraphs and bullet points.`

type Config struct {
	// Server
	Port string
	Env  string

	// Provider
	Provider        string
	Model           string
	OllamaURL       string
	GeminiAPIKey    string
	ProviderTimeout time.Duration
	SystemPrompt    string

	// Widget
	FAQPath    string
	StaticDir  string
	CORSOrigin string

	// Redis (optional, shared rate limiting)
	RedisURL string

	// Requests per minute per client on chat routes; 0 disables limiting.
	ChatRateLimit int

	// Take the client IP from X-Forwarded-For / X-Real-IP. Only safe behind
	// a proxy that overwrites those headers.
	TrustProxy bool
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:            getEnvOrDefault("PORT", "5173"),
		Env:             getEnvOrDefault("ENV", "development"),
		Provider:        getEnvOrDefault("PROVIDER", "local"),
		Model:           getEnvOrDefault("MODEL", "llama3.1:8b"),
		OllamaURL:       getEnvOrDefault("OLLAMA_URL", "http://127.0.0.1:11434"),
		GeminiAPIKey:    getEnvOrDefault("GEMINI_API_KEY", ""),
		ProviderTimeout: getEnvAsDurationOrDefault("PROVIDER_TIMEOUT", 0),
		SystemPrompt:    getEnvOrDefault("SYSTEM_PROMPT", DefaultSystemPrompt),
		FAQPath:         getEnvOrDefault("FAQ_PATH", "./web/faq.json"),
		StaticDir:       getEnvOrDefault("STATIC_DIR", "./web"),
		CORSOrigin:      getEnvOrDefault("CORS_ORIGIN", "*"),
		RedisURL:        getEnvOrDefault("REDIS_URL", ""),
		ChatRateLimit:   getEnvAsIntOrDefault("CHAT_RATE_LIMIT", 0),
		TrustProxy:      getEnvAsBoolOrDefault("TRUST_PROXY", false),
	}

	return cfg
}

// ChatServerURL is the relay base URL used by the terminal client.
func ChatServerURL() string {
	godotenv.Load()
	return getEnvOrDefault("CHAT_SERVER_URL", fmt.Sprintf("http://localhost:%s", getEnvOrDefault("PORT", "5173")))
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

// Accepts Go durations ("90s") or plain seconds ("90").
func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	if n, err := strconv.Atoi(val); err == nil {
		return time.Duration(n) * time.Second
	}
	return defaultVal
}

func getEnvAsBoolOrDefault(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}
