package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/upb/ai-translator/services/providers"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"

	nameOpenAI = "openai"
	nameAzure  = "azure-openai"
)

// OpenAIAdapter implements the Provider interface for OpenAI and Azure OpenAI.
// Azure mode is selected when both a deployment and an api-version are configured.
type OpenAIAdapter struct {
	config     providers.ProviderConfig
	httpClient *http.Client
}

// NewOpenAIAdapter creates a new OpenAI adapter
func NewOpenAIAdapter(config providers.ProviderConfig) *OpenAIAdapter {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}

	return &OpenAIAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout:   config.Timeout,
			Transport: config.Transport,
		},
	}
}

// Name returns the provider name
func (a *OpenAIAdapter) Name() string {
	if a.azure() {
		return nameAzure
	}
	return nameOpenAI
}

func (a *OpenAIAdapter) azure() bool {
	return a.config.Deployment != "" && a.config.APIVersion != ""
}

// ChatCompletion performs a chat completion request
func (a *OpenAIAdapter) ChatCompletion(ctx context.Context, req *providers.ChatRequest) (*providers.ChatResponse, error) {
	startTime := time.Now()

	if req == nil || len(req.Messages) == 0 {
		return nil, providers.NewProviderError(a.Name(), "INVALID_REQUEST", "request has no messages", http.StatusBadRequest, false, nil)
	}

	reqBody, err := json.Marshal(a.buildOpenAIRequest(req))
	if err != nil {
		return nil, providers.NewProviderError(a.Name(), "MARSHAL_ERROR", "Failed to marshal request", 0, false, err)
	}

	var lastErr error
	for attempt := 0; attempt <= a.config.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := a.wait(ctx, attempt); err != nil {
				return nil, providers.NewProviderError(a.Name(), "CANCELLED", "Request cancelled", 0, false, err)
			}
		}

		resp, err := a.do(ctx, reqBody)
		if err == nil {
			return a.convertToUnifiedResponse(resp, req, time.Since(startTime)), nil
		}

		lastErr = err
		if !providers.IsRetryable(err) || ctx.Err() != nil {
			break
		}
	}

	return nil, lastErr
}

// do sends a single attempt; the request is rebuilt every time since bodies are consumed.
func (a *OpenAIAdapter) do(ctx context.Context, body []byte) (*OpenAIChatResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.completionsURL(), bytes.NewReader(body))
	if err != nil {
		return nil, providers.NewProviderError(a.Name(), "REQUEST_ERROR", "Failed to create request", 0, false, err)
	}
	a.setHeaders(httpReq)
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, providers.NewProviderError(a.Name(), "HTTP_ERROR", "HTTP request failed", 0, ctx.Err() == nil, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, providers.NewProviderError(a.Name(), "READ_ERROR", "Failed to read response", httpResp.StatusCode, false, err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, a.handleErrorResponse(httpResp.StatusCode, respBody)
	}

	var openaiResp OpenAIChatResponse
	if err := json.Unmarshal(respBody, &openaiResp); err != nil {
		return nil, providers.NewProviderError(a.Name(), "UNMARSHAL_ERROR", "Failed to unmarshal response", httpResp.StatusCode, false, err)
	}
	return &openaiResp, nil
}

func (a *OpenAIAdapter) wait(ctx context.Context, attempt int) error {
	timer := time.NewTimer(a.config.RetryDelay * time.Duration(attempt))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// IsAvailable checks if the provider is currently available
func (a *OpenAIAdapter) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.modelsURL(), nil)
	if err != nil {
		return false
	}
	a.setHeaders(req)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

func (a *OpenAIAdapter) completionsURL() string {
	if !a.azure() {
		return a.config.BaseURL + "/chat/completions"
	}
	return fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		a.config.BaseURL, url.PathEscape(a.config.Deployment), url.QueryEscape(a.config.APIVersion))
}

func (a *OpenAIAdapter) modelsURL() string {
	if !a.azure() {
		return a.config.BaseURL + "/models"
	}
	return fmt.Sprintf("%s/openai/models?api-version=%s", a.config.BaseURL, url.QueryEscape(a.config.APIVersion))
}

func (a *OpenAIAdapter) setHeaders(req *http.Request) {
	if a.azure() {
		req.Header.Set("api-key", a.config.APIKey)
	} else {
		req.Header.Set("Authorization", "Bearer "+a.config.APIKey)
	}
	for k, v := range a.config.Headers {
		req.Header.Set(k, v)
	}
}

// buildOpenAIRequest converts unified request to OpenAI format
func (a *OpenAIAdapter) buildOpenAIRequest(req *providers.ChatRequest) *OpenAIChatRequest {
	openaiReq := &OpenAIChatRequest{
		Messages:    make([]OpenAIMessage, len(req.Messages)),
		Temperature: req.Temperature,
	}

	// Azure routes by deployment; the model field is only sent to OpenAI.
	if !a.azure() {
		openaiReq.Model = req.Model
	}

	for i, msg := range req.Messages {
		openaiReq.Messages[i] = OpenAIMessage{
			Role:    msg.Role,
			Content: msg.Content,
			Name:    msg.Name,
		}
	}

	if req.MaxTokens > 0 {
		openaiReq.MaxTokens = &req.MaxTokens
	}
	if req.User != "" {
		openaiReq.User = &req.User
	}

	return openaiReq
}

// convertToUnifiedResponse converts OpenAI response to unified format
func (a *OpenAIAdapter) convertToUnifiedResponse(openaiResp *OpenAIChatResponse, req *providers.ChatRequest, latency time.Duration) *providers.ChatResponse {
	resp := &providers.ChatResponse{
		ID:       openaiResp.ID,
		Model:    openaiResp.Model,
		Provider: a.Name(),
		Choices:  make([]providers.Choice, len(openaiResp.Choices)),
		Usage: providers.Usage{
			PromptTokens:     openaiResp.Usage.PromptTokens,
			CompletionTokens: openaiResp.Usage.CompletionTokens,
			TotalTokens:      openaiResp.Usage.TotalTokens,
		},
		Latency:  latency,
		Created:  time.Unix(openaiResp.Created, 0),
		Metadata: req.Metadata,
	}

	for i, choice := range openaiResp.Choices {
		resp.Choices[i] = providers.Choice{
			Index: choice.Index,
			Message: providers.Message{
				Role:    choice.Message.Role,
				Content: choice.Message.Content,
				Name:    choice.Message.Name,
			},
			FinishReason: choice.FinishReason,
		}
	}

	return resp
}

// handleErrorResponse handles OpenAI error responses
func (a *OpenAIAdapter) handleErrorResponse(statusCode int, body []byte) error {
	retryable := statusCode >= 500 || statusCode == http.StatusTooManyRequests

	var errResp OpenAIErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error.Message == "" {
		return providers.NewProviderError(a.Name(), "UNKNOWN_ERROR", fmt.Sprintf("gateway returned status %d", statusCode), statusCode, retryable, errors.New(string(body)))
	}

	code := errResp.Error.Type
	if code == "" {
		code = errResp.Error.Code
	}

	return providers.NewProviderError(
		a.Name(),
		code,
		errResp.Error.Message,
		statusCode,
		retryable,
		nil,
	)
}

// OpenAI-specific request/response types

type OpenAIChatRequest struct {
	Model       string          `json:"model,omitempty"`
	Messages    []OpenAIMessage `json:"messages"`
	MaxTokens   *int            `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature"`
	User        *string         `json:"user,omitempty"`
}

type OpenAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Name    string `json:"name,omitempty"`
}

type OpenAIChatResponse struct {
	ID      string         `json:"id"`
	Object  string         `json:"object"`
	Created int64          `json:"created"`
	Model   string         `json:"model"`
	Choices []OpenAIChoice `json:"choices"`
	Usage   OpenAIUsage    `json:"usage"`
}

type OpenAIChoice struct {
	Index        int           `json:"index"`
	Message      OpenAIMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type OpenAIUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type OpenAIErrorResponse struct {
	Error OpenAIError `json:"error"`
}

type OpenAIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}
