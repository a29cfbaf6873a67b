package provider

import (
	"context"
	"time"
)

type Config struct {
	APIKey      string        `mapstructure:"api_key" json:"api_key"`
	Model       string        `mapstructure:"model" json:"model"`
	BaseURL     string        `mapstructure:"base_url" json:"base_url"`
	Temperature float64       `mapstructure:"temperature" json:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout" json:"timeout"`
}

type CompletionRequest struct {
	SystemPrompt string `json:"system_prompt"`
	UserQuery    string `json:"user_query"`
}

type Result struct {
	ProviderName string            `json:"provider_name"`
	Content      string            `json:"content"`
	Metadata     map[string]string `json:"metadata"`
	Latency      time.Duration     `json:"latency"`
	Error        string            `json:"error,omitempty"`
}

// Provider is a chat-completion backend that accepts a system prompt and a
// user query and returns the model's raw content, which is expected to be a
// JSON-encoded string when a JSON response format is supported upstream.
type Provider interface {
	Name() string
	Complete(ctx context.Context, cfg Config, req CompletionRequest) (*Result, error)
	IsAvailable(ctx context.Context) error
}
