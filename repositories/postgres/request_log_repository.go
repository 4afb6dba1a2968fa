package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/relayforge/llm-fallback-gateway/models"
	"github.com/relayforge/llm-fallback-gateway/repositories"
	"go.uber.org/zap"
)

// RequestLogRepository implements repositories.RequestLogRepository
type RequestLogRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRequestLogRepository creates a new request log repository
func NewRequestLogRepository(db *sql.DB, logger *zap.Logger) repositories.RequestLogRepository {
	return &RequestLogRepository{
		db:     db,
		logger: logger,
	}
}

// Create records one completed call
func (r *RequestLogRepository) Create(ctx context.Context, log *models.RequestLog) error {
	query := `
		INSERT INTO request_logs (
			id, request_id, chain, final_model, success,
			fallbacks_used, attempt_count, latency_ms, error_type, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)
	`

	_, err := r.db.ExecContext(ctx, query,
		log.ID,
		log.RequestID,
		log.Chain,
		log.FinalModel,
		log.Success,
		log.FallbacksUsed,
		log.AttemptCount,
		log.LatencyMs,
		log.ErrorType,
		log.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create request log: %w", err)
	}

	r.logger.Debug("request log created",
		zap.String("id", log.ID.String()),
		zap.String("request_id", log.RequestID))
	return nil
}

// ListRecent returns the most recent logs, newest first
func (r *RequestLogRepository) ListRecent(ctx context.Context, limit int) ([]*models.RequestLog, error) {
	query := `
		SELECT id, request_id, chain, final_model, success,
		       fallbacks_used, attempt_count, latency_ms, error_type, created_at
		FROM request_logs
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list request logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.RequestLog
	for rows.Next() {
		log := &models.RequestLog{}
		if err := rows.Scan(
			&log.ID,
			&log.RequestID,
			&log.Chain,
			&log.FinalModel,
			&log.Success,
			&log.FallbacksUsed,
			&log.AttemptCount,
			&log.LatencyMs,
			&log.ErrorType,
			&log.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan request log: %w", err)
		}
		logs = append(logs, log)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate request logs: %w", err)
	}
	return logs, nil
}
