package llmclient

import (
	"log/slog"
	"time"
)

// Config holds configuration for the chat completions client.
type Config struct {
	APIKey     string        // Bearer token; may be empty for local endpoints
	BaseURL    string        // Base URL of the OpenAI-compatible API
	Model      string        // Model id sent with every request
	Logger     *slog.Logger  // Logger for debugging
	Timeout    time.Duration // HTTP timeout for non-streamed requests
	RetryCount int           // Number of retries for failed requests
	RetryDelay time.Duration // Base delay between retries
}
