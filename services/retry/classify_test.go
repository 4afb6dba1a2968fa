package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/relayforge/llm-fallback-gateway/services"
	"github.com/relayforge/llm-fallback-gateway/services/providers"
	"github.com/stretchr/testify/assert"
)

func TestClassify_TypedProviderErrorWins(t *testing.T) {
	// A typed error whose text mentions a different category must still
	// classify by its Kind, never by message matching.
	err := providers.NewProviderError("openai", services.ErrorTypeQuotaExceeded,
		"request timed out waiting for billing check", 402, nil)

	assert.Equal(t, services.ErrorTypeQuotaExceeded, Classify(err))
}

func TestClassify_WrappedProviderError(t *testing.T) {
	inner := providers.NewProviderError("openai", services.ErrorTypeRateLimit, "slow down", 429, nil)
	err := fmt.Errorf("attempt failed: %w", inner)

	assert.Equal(t, services.ErrorTypeRateLimit, Classify(err))
}

func TestClassify_DomainError(t *testing.T) {
	err := services.NewDomainError(services.ErrorTypeModelUnavailable, "model is gone", nil)

	assert.Equal(t, services.ErrorTypeModelUnavailable, Classify(err))
}

func TestClassify_DeadlineExceeded(t *testing.T) {
	assert.Equal(t, services.ErrorTypeTimeout, Classify(context.DeadlineExceeded))
}

func TestClassify_MessageText(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		want services.ErrorType
	}{
		{"rate limit phrase", "Rate limit reached for requests", services.ErrorTypeRateLimit},
		{"429 status", "upstream returned 429", services.ErrorTypeRateLimit},
		{"unavailable", "the model is currently unavailable", services.ErrorTypeModelUnavailable},
		{"overloaded", "server overloaded, retry later", services.ErrorTypeModelUnavailable},
		{"timeout", "request timed out", services.ErrorTypeTimeout},
		{"deadline phrase", "context deadline exceeded", services.ErrorTypeTimeout},
		{"auth", "invalid api key provided", services.ErrorTypeAuthentication},
		{"401 status", "401 unauthorized", services.ErrorTypeAuthentication},
		{"quota", "you have exceeded your quota", services.ErrorTypeQuotaExceeded},
		{"billing", "billing hard limit reached", services.ErrorTypeQuotaExceeded},
		{"unknown", "something strange happened", services.ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(errors.New(tt.msg)))
		})
	}
}

func TestClassify_PriorityOrder(t *testing.T) {
	// A message matching several categories classifies as the
	// highest-priority one. rate_limit outranks everything.
	err := errors.New("rate limit hit while model unavailable and request timed out")
	assert.Equal(t, services.ErrorTypeRateLimit, Classify(err))

	// model_unavailable outranks timeout.
	err = errors.New("model unavailable because the upstream timed out")
	assert.Equal(t, services.ErrorTypeModelUnavailable, Classify(err))

	// timeout outranks authentication.
	err = errors.New("timeout during authentication handshake")
	assert.Equal(t, services.ErrorTypeTimeout, Classify(err))
}

func TestClassify_Nil(t *testing.T) {
	assert.Equal(t, services.ErrorTypeUnknown, Classify(nil))
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		kind services.ErrorType
		want bool
	}{
		{services.ErrorTypeRateLimit, true},
		{services.ErrorTypeTimeout, true},
		{services.ErrorTypeQuotaExceeded, true},
		{services.ErrorTypeUnknown, true},
		{services.ErrorTypeAuthentication, false},
		{services.ErrorTypeModelUnavailable, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.kind))
		})
	}
}
