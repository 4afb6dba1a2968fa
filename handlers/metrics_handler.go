package handlers

import (
	"net/http"
	"strconv"

	"github.com/relayforge/llm-fallback-gateway/models"
	"github.com/relayforge/llm-fallback-gateway/repositories"
	"github.com/relayforge/llm-fallback-gateway/services/costtrack"
	"github.com/relayforge/llm-fallback-gateway/services/performance"
	"github.com/relayforge/llm-fallback-gateway/utils"
	"go.uber.org/zap"
)

const defaultRecentLogLimit = 50

// MetricsResponse aggregates the gateway's observed model statistics
type MetricsResponse struct {
	Performance map[string]models.PerformanceMetrics `json:"performance"`
	Usage       map[string]costtrack.ModelUsage      `json:"usage"`
}

// MetricsHandler exposes the in-process performance and usage metrics
// plus the recent request log when persistence is configured.
type MetricsHandler struct {
	tracker     *performance.Tracker
	recorder    *costtrack.Recorder
	requestLogs repositories.RequestLogRepository // nil disables history
	logger      *zap.Logger
}

// NewMetricsHandler creates a new MetricsHandler
func NewMetricsHandler(
	tracker *performance.Tracker,
	recorder *costtrack.Recorder,
	requestLogs repositories.RequestLogRepository,
	logger *zap.Logger,
) *MetricsHandler {
	return &MetricsHandler{
		tracker:     tracker,
		recorder:    recorder,
		requestLogs: requestLogs,
		logger:      logger,
	}
}

// HandleGetMetrics handles GET /api/v1/metrics
func (h *MetricsHandler) HandleGetMetrics(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteOK(w, MetricsResponse{
		Performance: h.tracker.Snapshot(),
		Usage:       h.recorder.Summary(),
	})
}

// HandleGetRequestLog handles GET /api/v1/metrics/requests
func (h *MetricsHandler) HandleGetRequestLog(w http.ResponseWriter, r *http.Request) {
	if h.requestLogs == nil {
		_ = utils.WriteNotFound(w, "Request log persistence is not configured")
		return
	}

	limit := defaultRecentLogLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 1000 {
			_ = utils.WriteBadRequest(w, "limit must be an integer between 1 and 1000", nil)
			return
		}
		limit = parsed
	}

	logs, err := h.requestLogs.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list request logs", zap.Error(err))
		_ = utils.WriteInternalServerError(w, "")
		return
	}

	_ = utils.WriteOK(w, logs)
}
