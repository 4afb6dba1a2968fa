package models

import (
	"time"

	"github.com/google/uuid"
)

// RequestLog is one routed call's outcome, persisted for auditing.
// Attempt-level detail is not persisted separately; it is folded into
// PerformanceMetrics and surfaced through logs.
type RequestLog struct {
	ID            uuid.UUID `json:"id"`
	RequestID     string    `json:"request_id"`
	Chain         string    `json:"chain"`
	FinalModel    string    `json:"final_model"`
	Success       bool      `json:"success"`
	FallbacksUsed int       `json:"fallbacks_used"`
	AttemptCount  int       `json:"attempt_count"`
	LatencyMs     int64     `json:"latency_ms"`
	ErrorType     string    `json:"error_type,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
