package repositories

import (
	"context"

	"github.com/relayforge/llm-fallback-gateway/models"
)

// RequestLogRepository persists routed-call outcomes
type RequestLogRepository interface {
	// Create records one completed call
	Create(ctx context.Context, log *models.RequestLog) error

	// ListRecent returns the most recent logs, newest first
	ListRecent(ctx context.Context, limit int) ([]*models.RequestLog, error)
}
