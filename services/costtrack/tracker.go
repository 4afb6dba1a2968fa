// Package costtrack defines the usage-tracking collaborator contract
// and an in-memory recorder. Persistent cost-budget storage is an
// external concern; the recorder keeps advisory in-process totals only.
package costtrack

import (
	"context"
	"sync"
	"time"

	"github.com/relayforge/llm-fallback-gateway/services"
	"go.uber.org/zap"
)

// RequestType tags the kind of logical request a usage event belongs to
type RequestType string

const (
	RequestTypeChat       RequestType = "chat"
	RequestTypeCompletion RequestType = "completion"
	RequestTypeEmbedding  RequestType = "embedding"
)

// UsageEvent describes one model attempt for cost accounting
type UsageEvent struct {
	ModelID      string             `json:"model_id"`
	InputTokens  int                `json:"input_tokens"`
	OutputTokens int                `json:"output_tokens"`
	TotalTokens  int                `json:"total_tokens"`
	ResponseTime time.Duration      `json:"response_time"`
	Success      bool               `json:"success"`
	ErrorType    services.ErrorType `json:"error_type,omitempty"`
	RequestType  RequestType        `json:"request_type"`
}

// Tracker receives a usage event after every model attempt
type Tracker interface {
	TrackUsage(ctx context.Context, event UsageEvent)
}

// ModelUsage aggregates usage per model
type ModelUsage struct {
	ModelID           string        `json:"model_id"`
	Requests          int64         `json:"requests"`
	Errors            int64         `json:"errors"`
	InputTokens       int64         `json:"input_tokens"`
	OutputTokens      int64         `json:"output_tokens"`
	TotalTokens       int64         `json:"total_tokens"`
	TotalResponseTime time.Duration `json:"total_response_time"`
}

// Recorder is the in-memory Tracker implementation
type Recorder struct {
	mu     sync.RWMutex
	usage  map[string]*ModelUsage
	logger *zap.Logger
}

// NewRecorder creates an empty recorder
func NewRecorder(logger *zap.Logger) *Recorder {
	return &Recorder{
		usage:  make(map[string]*ModelUsage),
		logger: logger,
	}
}

// TrackUsage folds one event into the per-model totals
func (r *Recorder) TrackUsage(ctx context.Context, event UsageEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.usage[event.ModelID]
	if !ok {
		u = &ModelUsage{ModelID: event.ModelID}
		r.usage[event.ModelID] = u
	}

	u.Requests++
	if !event.Success {
		u.Errors++
	}
	u.InputTokens += int64(event.InputTokens)
	u.OutputTokens += int64(event.OutputTokens)
	u.TotalTokens += int64(event.TotalTokens)
	u.TotalResponseTime += event.ResponseTime

	r.logger.Debug("tracked usage",
		zap.String("model_id", event.ModelID),
		zap.Bool("success", event.Success),
		zap.Int("total_tokens", event.TotalTokens),
		zap.String("request_type", string(event.RequestType)))
}

// Summary returns a copy of the per-model usage totals
func (r *Recorder) Summary() map[string]ModelUsage {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]ModelUsage, len(r.usage))
	for id, u := range r.usage {
		out[id] = *u
	}
	return out
}

// Reset discards all recorded usage
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.usage = make(map[string]*ModelUsage)
}
