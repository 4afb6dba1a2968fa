package retry

import (
	"context"
	"errors"
	"strings"

	"github.com/relayforge/llm-fallback-gateway/services"
	"github.com/relayforge/llm-fallback-gateway/services/providers"
)

// classificationRules maps failure categories to message substrings.
// Matching is case-insensitive and the first matching category wins;
// the slice order is the fixed classification priority.
var classificationRules = []struct {
	kind     services.ErrorType
	keywords []string
}{
	{services.ErrorTypeRateLimit, []string{"rate limit", "rate_limit", "too many requests", "429"}},
	{services.ErrorTypeModelUnavailable, []string{"unavailable", "not available", "model not found", "overloaded", "503", "404"}},
	{services.ErrorTypeTimeout, []string{"timeout", "timed out", "deadline exceeded"}},
	{services.ErrorTypeAuthentication, []string{"unauthorized", "authentication", "invalid api key", "401", "403"}},
	{services.ErrorTypeQuotaExceeded, []string{"quota", "insufficient funds", "billing"}},
}

// Classify determines the failure category of an attempt error. Typed
// errors from the operation layer take precedence; message-text
// matching is only the fallback for untyped errors.
func Classify(err error) services.ErrorType {
	if err == nil {
		return services.ErrorTypeUnknown
	}

	var provErr *providers.ProviderError
	if errors.As(err, &provErr) && provErr.Kind != "" {
		return provErr.Kind
	}

	var domainErr *services.DomainError
	if errors.As(err, &domainErr) {
		switch domainErr.Type {
		case services.ErrorTypeRateLimit, services.ErrorTypeModelUnavailable,
			services.ErrorTypeTimeout, services.ErrorTypeAuthentication,
			services.ErrorTypeQuotaExceeded:
			return domainErr.Type
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return services.ErrorTypeTimeout
	}

	msg := strings.ToLower(err.Error())
	for _, rule := range classificationRules {
		for _, kw := range rule.keywords {
			if strings.Contains(msg, kw) {
				return rule.kind
			}
		}
	}

	return services.ErrorTypeUnknown
}

// IsRetryable reports whether a failure category may be retried on the
// same model. Authentication and availability failures never are: the
// same credentials or the same missing model will fail again.
func IsRetryable(kind services.ErrorType) bool {
	switch kind {
	case services.ErrorTypeAuthentication, services.ErrorTypeModelUnavailable:
		return false
	default:
		return true
	}
}
