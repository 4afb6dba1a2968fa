package models

import "time"

// CostTier classifies models by relative price per token
type CostTier string

const (
	CostTierLow    CostTier = "low"
	CostTierMedium CostTier = "medium"
	CostTierHigh   CostTier = "high"
)

// Rank returns the ordering weight of a cost tier (high > medium > low)
func (t CostTier) Rank() int {
	switch t {
	case CostTierHigh:
		return 3
	case CostTierMedium:
		return 2
	case CostTierLow:
		return 1
	default:
		return 0
	}
}

// Capability identifies a feature a model supports
type Capability string

const (
	CapabilityText            Capability = "text"
	CapabilityVision          Capability = "vision"
	CapabilityFunctionCalling Capability = "function_calling"
	CapabilityReasoning       Capability = "reasoning"
)

// ModelDescriptor describes a backend model endpoint.
// Descriptors are immutable after catalog load.
type ModelDescriptor struct {
	ID           string       `json:"id"`
	Provider     string       `json:"provider"`
	Name         string       `json:"name"`
	CostTier     CostTier     `json:"cost_tier"`
	Capabilities []Capability `json:"capabilities"`
	MaxTokens    int          `json:"max_tokens"`
}

// HasCapability reports whether the model supports the given capability
func (m *ModelDescriptor) HasCapability(c Capability) bool {
	for _, have := range m.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

// SupportsReasoning reports whether the model carries the reasoning capability
func (m *ModelDescriptor) SupportsReasoning() bool {
	return m.HasCapability(CapabilityReasoning)
}

// ModelRequirements filters candidate models for selection and routing.
// Zero-value fields impose no constraint.
type ModelRequirements struct {
	Capabilities []Capability `json:"capabilities,omitempty"`
	CostTier     CostTier     `json:"cost_tier,omitempty"`
	MaxTokens    int          `json:"max_tokens,omitempty"`
	Provider     string       `json:"provider,omitempty"`
}

// Matches reports whether a model satisfies every set requirement.
// Filtering is a strict intersection: all requested capabilities must
// be present, and tier/provider must match exactly when set.
func (r ModelRequirements) Matches(m *ModelDescriptor) bool {
	for _, c := range r.Capabilities {
		if !m.HasCapability(c) {
			return false
		}
	}
	if r.CostTier != "" && m.CostTier != r.CostTier {
		return false
	}
	if r.MaxTokens > 0 && m.MaxTokens < r.MaxTokens {
		return false
	}
	if r.Provider != "" && m.Provider != r.Provider {
		return false
	}
	return true
}

// PerformanceMetrics holds smoothed per-model statistics.
// Created lazily on first update, never deleted except explicit reset.
type PerformanceMetrics struct {
	ModelID             string        `json:"model_id"`
	TotalRequests       int64         `json:"total_requests"`
	TotalErrors         int64         `json:"total_errors"`
	SuccessRate         float64       `json:"success_rate"`
	AverageResponseTime time.Duration `json:"average_response_time"`
	ErrorRate           float64       `json:"error_rate"`
	LastUsed            time.Time     `json:"last_used"`
}
