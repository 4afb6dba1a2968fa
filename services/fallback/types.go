package fallback

import (
	"context"
	"time"

	"github.com/relayforge/llm-fallback-gateway/models"
	"github.com/relayforge/llm-fallback-gateway/services"
	"github.com/relayforge/llm-fallback-gateway/services/costtrack"
)

// Default token estimates applied when an operation result carries no
// usage payload. Approximations for accounting, not exact billing.
const (
	defaultInputTokenEstimate  = 100
	defaultOutputTokenEstimate = 250
)

// Operation is the caller-supplied work performed against one model.
// It is opaque to the orchestrator and may perform any remote call.
type Operation func(ctx context.Context, modelID string, model *models.ModelDescriptor) (*OperationResult, error)

// Usage is the token usage an operation reports for one attempt
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// OperationResult is the tagged result an operation must return.
// The explicit Kind and Usage replace any duck-typing of the payload.
type OperationResult struct {
	Kind  costtrack.RequestType `json:"kind"`
	Data  interface{}           `json:"data"`
	Usage *Usage                `json:"usage,omitempty"`
}

// ChainSelector picks the chain for one call: either an explicit
// ordered id list, or a named chain resolved through the registry.
// Models takes precedence when both are set.
type ChainSelector struct {
	Name   string   `json:"name,omitempty"`
	Models []string `json:"models,omitempty"`
}

// RequestContext carries optional request characteristics that bias
// ordering. It never gates execution beyond the capability filter.
type RequestContext struct {
	Query        string                    `json:"query,omitempty"`
	Requirements *models.ModelRequirements `json:"requirements,omitempty"`
}

// AttemptRecord describes one failed model attempt sequence within a call
type AttemptRecord struct {
	ModelID      string             `json:"model_id"`
	AttemptIndex int                `json:"attempt_index"`
	Trigger      services.ErrorType `json:"trigger"`
	Timestamp    time.Time          `json:"timestamp"`
	ResponseTime time.Duration      `json:"response_time"`
	Error        string             `json:"error"`
}

// FallbackResult is returned when some model in the chain succeeded
type FallbackResult struct {
	Success           bool            `json:"success"`
	Data              interface{}     `json:"data,omitempty"`
	FinalModel        string          `json:"final_model"`
	Attempts          []AttemptRecord `json:"attempts"`
	TotalResponseTime time.Duration   `json:"total_response_time"`
	FallbacksUsed     int             `json:"fallbacks_used"`
}
