// Package openai implements the Provider interface against any
// OpenAI-compatible chat completions endpoint. The adapter performs a
// single attempt per call; retry and fallback policy belong to the
// routing layer.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/relayforge/llm-fallback-gateway/services"
	"github.com/relayforge/llm-fallback-gateway/services/providers"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Config holds adapter configuration
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	OrgID   string
}

// Adapter implements providers.Provider for OpenAI-compatible APIs
type Adapter struct {
	config     Config
	httpClient *http.Client
}

// New creates a new OpenAI adapter
func New(config Config) *Adapter {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}

	return &Adapter{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Name returns the provider name
func (a *Adapter) Name() string {
	return "openai"
}

type chatCompletionRequest struct {
	Model       string              `json:"model"`
	Messages    []providers.Message `json:"messages"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
	Temperature float64             `json:"temperature,omitempty"`
	User        string              `json:"user,omitempty"`
}

type chatCompletionResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Created int64  `json:"created"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage providers.Usage `json:"usage"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// ChatCompletion performs a single chat completion request
func (a *Adapter) ChatCompletion(ctx context.Context, req *providers.ChatRequest) (*providers.ChatResponse, error) {
	body, err := json.Marshal(chatCompletionRequest{
		Model:       req.Model,
		Messages:    req.Messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		User:        req.User,
	})
	if err != nil {
		return nil, providers.NewProviderError(a.Name(), services.ErrorTypeUnknown,
			"failed to marshal request", 0, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.config.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, providers.NewProviderError(a.Name(), services.ErrorTypeUnknown,
			"failed to create request", 0, err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.config.APIKey)
	if a.config.OrgID != "" {
		httpReq.Header.Set("OpenAI-Organization", a.config.OrgID)
	}

	httpResp, err := a.httpClient.Do(httpReq)
	if err != nil {
		kind := services.ErrorTypeUnknown
		if ctx.Err() == context.DeadlineExceeded {
			kind = services.ErrorTypeTimeout
		}
		return nil, providers.NewProviderError(a.Name(), kind, "request failed", 0, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, providers.NewProviderError(a.Name(), services.ErrorTypeUnknown,
			"failed to read response", httpResp.StatusCode, err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, a.handleErrorResponse(httpResp.StatusCode, respBody)
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(respBody, &completion); err != nil {
		return nil, providers.NewProviderError(a.Name(), services.ErrorTypeUnknown,
			"failed to unmarshal response", httpResp.StatusCode, err)
	}
	if len(completion.Choices) == 0 {
		return nil, providers.NewProviderError(a.Name(), services.ErrorTypeUnknown,
			"response contained no choices", httpResp.StatusCode, nil)
	}

	return &providers.ChatResponse{
		ID:           completion.ID,
		Model:        completion.Model,
		Content:      completion.Choices[0].Message.Content,
		FinishReason: completion.Choices[0].FinishReason,
		Usage:        completion.Usage,
		Provider:     a.Name(),
		Created:      time.Unix(completion.Created, 0),
	}, nil
}

// handleErrorResponse converts an API error body to a typed ProviderError
func (a *Adapter) handleErrorResponse(status int, body []byte) error {
	message := fmt.Sprintf("provider returned status %d", status)

	var apiErr errorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		message = apiErr.Error.Message
	}

	kind := providers.KindFromStatus(status)
	// OpenAI reports exhausted quota as a 429 with a distinct code.
	if apiErr.Error.Code == "insufficient_quota" || apiErr.Error.Type == "insufficient_quota" {
		kind = services.ErrorTypeQuotaExceeded
	}

	return providers.NewProviderError(a.Name(), kind, message, status, nil)
}
