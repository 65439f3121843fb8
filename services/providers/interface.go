package providers

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// Message roles understood by chat-completion gateways.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Provider represents a chat-completion model gateway
type Provider interface {
	// Name returns the provider name (e.g., "openai", "azure-openai")
	Name() string

	// ChatCompletion performs a chat completion request
	ChatCompletion(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// IsAvailable checks if the provider is currently available
	IsAvailable(ctx context.Context) bool
}

// ChatRequest represents a chat completion request
type ChatRequest struct {
	// Model identifier; Azure deployments ignore it in favour of the deployment
	Model string `json:"model"`

	// Messages in the conversation
	Messages []Message `json:"messages"`

	// MaxTokens limits the response length
	MaxTokens int `json:"max_tokens,omitempty"`

	// Temperature controls randomness (0.0 to 2.0)
	Temperature float64 `json:"temperature"`

	// User identifier for abuse monitoring
	User string `json:"user,omitempty"`

	// Metadata for tracking and logging
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Message represents a single message in a conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Name    string `json:"name,omitempty"`
}

// ChatResponse represents a chat completion response
type ChatResponse struct {
	ID       string            `json:"id"`
	Model    string            `json:"model"`
	Choices  []Choice          `json:"choices"`
	Usage    Usage             `json:"usage"`
	Provider string            `json:"provider"`
	Latency  time.Duration     `json:"latency"`
	Created  time.Time         `json:"created"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Text returns the content of the first choice.
func (r *ChatResponse) Text() (string, error) {
	if r == nil || len(r.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return r.Choices[0].Message.Content, nil
}

// ErrEmptyResponse is returned when a gateway answers without any choice.
var ErrEmptyResponse = errors.New("gateway response contains no choices")

// Choice represents a completion choice
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// Usage represents token usage statistics
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ProviderConfig holds common configuration for providers
type ProviderConfig struct {
	// APIKey for authentication
	APIKey string

	// BaseURL for the API; for Azure the resource endpoint
	BaseURL string

	// Deployment selects the Azure OpenAI deployment
	Deployment string

	// APIVersion is the Azure api-version query parameter; empty selects the OpenAI layout
	APIVersion string

	// Timeout for requests
	Timeout time.Duration

	// MaxRetries for failed requests
	MaxRetries int

	// RetryDelay between retries, multiplied by the attempt number
	RetryDelay time.Duration

	// Additional headers
	Headers map[string]string

	// Transport overrides the HTTP transport (e.g. an instrumented one)
	Transport http.RoundTripper
}

// DefaultProviderConfig returns a sensible default configuration
func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		Timeout:    60 * time.Second,
		MaxRetries: 2,
		RetryDelay: 500 * time.Millisecond,
		Headers:    make(map[string]string),
	}
}

// ProviderError represents an error from a provider
type ProviderError struct {
	// Provider that generated the error
	Provider string

	// Code is the error code
	Code string

	// Message is the error message
	Message string

	// StatusCode is the HTTP status code (if applicable)
	StatusCode int

	// Retryable indicates if the request can be retried
	Retryable bool

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap implements error unwrapping
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// NewProviderError creates a new provider error
func NewProviderError(provider, code, message string, statusCode int, retryable bool, cause error) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Retryable:  retryable,
		Cause:      cause,
	}
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr.Retryable
	}
	return false
}
