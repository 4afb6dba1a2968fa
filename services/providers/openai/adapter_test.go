package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/relayforge/llm-fallback-gateway/services"
	"github.com/relayforge/llm-fallback-gateway/services/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatRequest() *providers.ChatRequest {
	return &providers.ChatRequest{
		Model: "gpt-4o-mini",
		Messages: []providers.Message{
			{Role: "user", Content: "hello"},
		},
	}
}

func TestAdapter_ChatCompletion_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o-mini", body["model"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-123",
			"model": "gpt-4o-mini",
			"created": 1700000000,
			"choices": [{
				"message": {"role": "assistant", "content": "hi there"},
				"finish_reason": "stop"
			}],
			"usage": {"prompt_tokens": 5, "completion_tokens": 3, "total_tokens": 8}
		}`))
	}))
	defer srv.Close()

	a := New(Config{APIKey: "test-key", BaseURL: srv.URL})

	resp, err := a.ChatCompletion(context.Background(), chatRequest())
	require.NoError(t, err)
	assert.Equal(t, "chatcmpl-123", resp.ID)
	assert.Equal(t, "hi there", resp.Content)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, 8, resp.Usage.TotalTokens)
	assert.Equal(t, "openai", resp.Provider)
}

func TestAdapter_ChatCompletion_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind services.ErrorType
		wantMsg  string
	}{
		{
			name:     "rate limited",
			status:   http.StatusTooManyRequests,
			body:     `{"error": {"message": "Rate limit reached", "type": "requests"}}`,
			wantKind: services.ErrorTypeRateLimit,
			wantMsg:  "Rate limit reached",
		},
		{
			name:     "quota exhausted reported as 429",
			status:   http.StatusTooManyRequests,
			body:     `{"error": {"message": "You exceeded your current quota", "code": "insufficient_quota"}}`,
			wantKind: services.ErrorTypeQuotaExceeded,
			wantMsg:  "You exceeded your current quota",
		},
		{
			name:     "bad api key",
			status:   http.StatusUnauthorized,
			body:     `{"error": {"message": "Incorrect API key provided"}}`,
			wantKind: services.ErrorTypeAuthentication,
			wantMsg:  "Incorrect API key provided",
		},
		{
			name:     "model missing",
			status:   http.StatusNotFound,
			body:     `{"error": {"message": "The model does not exist"}}`,
			wantKind: services.ErrorTypeModelUnavailable,
			wantMsg:  "The model does not exist",
		},
		{
			name:     "unparseable error body",
			status:   http.StatusServiceUnavailable,
			body:     `upstream gateway error`,
			wantKind: services.ErrorTypeModelUnavailable,
			wantMsg:  "provider returned status 503",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			a := New(Config{APIKey: "test-key", BaseURL: srv.URL})

			_, err := a.ChatCompletion(context.Background(), chatRequest())
			require.Error(t, err)

			var provErr *providers.ProviderError
			require.ErrorAs(t, err, &provErr)
			assert.Equal(t, tt.wantKind, provErr.Kind)
			assert.Equal(t, tt.status, provErr.StatusCode)
			assert.Contains(t, provErr.Message, tt.wantMsg)
		})
	}
}

func TestAdapter_ChatCompletion_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": "x", "choices": []}`))
	}))
	defer srv.Close()

	a := New(Config{APIKey: "test-key", BaseURL: srv.URL})

	_, err := a.ChatCompletion(context.Background(), chatRequest())
	require.Error(t, err)

	var provErr *providers.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, services.ErrorTypeUnknown, provErr.Kind)
}

func TestAdapter_ChatCompletion_ContextTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	a := New(Config{APIKey: "test-key", BaseURL: srv.URL})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := a.ChatCompletion(ctx, chatRequest())
	require.Error(t, err)

	var provErr *providers.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, services.ErrorTypeTimeout, provErr.Kind)
}

func TestNew_Defaults(t *testing.T) {
	a := New(Config{APIKey: "k"})

	assert.Equal(t, defaultBaseURL, a.config.BaseURL)
	assert.Equal(t, 60*time.Second, a.config.Timeout)
}
