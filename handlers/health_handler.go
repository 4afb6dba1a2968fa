package handlers

import (
	"net/http"
	"time"

	"github.com/relayforge/llm-fallback-gateway/repositories/postgres"
	"github.com/relayforge/llm-fallback-gateway/utils"
	"go.uber.org/zap"
)

// HealthHandler serves liveness and readiness probes
type HealthHandler struct {
	db        *postgres.DB // nil when persistence is disabled
	logger    *zap.Logger
	startedAt time.Time
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db *postgres.DB, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:        db,
		logger:    logger,
		startedAt: time.Now(),
	}
}

// HandleHealthz handles GET /healthz
func (h *HealthHandler) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteOK(w, map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(h.startedAt).String(),
	})
}

// HandleReadyz handles GET /readyz. Readiness fails only when a
// configured dependency is unreachable; a gateway with no database
// configured is ready as soon as it is serving.
func (h *HealthHandler) HandleReadyz(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{}

	if h.db != nil {
		if err := h.db.HealthCheck(r.Context()); err != nil {
			h.logger.Warn("readiness check failed", zap.Error(err))
			checks["database"] = "unavailable"
			_ = utils.WriteJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status": "unavailable",
				"checks": checks,
			})
			return
		}
		checks["database"] = "ok"
	}

	_ = utils.WriteOK(w, map[string]interface{}{
		"status": "ok",
		"checks": checks,
	})
}
