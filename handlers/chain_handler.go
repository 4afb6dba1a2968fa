package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/relayforge/llm-fallback-gateway/middleware"
	"github.com/relayforge/llm-fallback-gateway/models"
	"github.com/relayforge/llm-fallback-gateway/services/catalog"
	"github.com/relayforge/llm-fallback-gateway/utils"
	"go.uber.org/zap"
)

// CreateChainRequest is the administrative chain creation payload
type CreateChainRequest struct {
	Name    string   `json:"name" validate:"required,min=1,max=64"`
	Models  []string `json:"models" validate:"required,min=1"`
	UseCase string   `json:"use_case,omitempty" validate:"omitempty,max=256"`
}

// ChainHandler handles chain administration requests
type ChainHandler struct {
	catalog *catalog.Catalog
	logger  *zap.Logger
}

// NewChainHandler creates a new ChainHandler
func NewChainHandler(cat *catalog.Catalog, logger *zap.Logger) *ChainHandler {
	return &ChainHandler{
		catalog: cat,
		logger:  logger,
	}
}

// HandleListChains handles GET /api/v1/chains
func (h *ChainHandler) HandleListChains(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteOK(w, h.catalog.ListChains())
}

// HandleCreateChain handles POST /api/v1/chains
func (h *ChainHandler) HandleCreateChain(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestIDFromContext(r.Context())

	var req CreateChainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	chain := &models.ChainDescriptor{
		Name:    req.Name,
		Models:  req.Models,
		UseCase: req.UseCase,
	}
	if err := h.catalog.AddChain(chain); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("chain created",
		zap.String("request_id", requestID),
		zap.String("chain", req.Name),
		zap.Strings("models", req.Models))

	_ = utils.WriteCreated(w, chain)
}

// HandleDeleteChain handles DELETE /api/v1/chains/{name}
func (h *ChainHandler) HandleDeleteChain(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		_ = utils.WriteBadRequest(w, "Chain name is required", nil)
		return
	}

	if err := h.catalog.RemoveChain(name); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("chain deleted", zap.String("chain", name))
	utils.WriteNoContent(w)
}

// HandleListModels handles GET /api/v1/models
func (h *ChainHandler) HandleListModels(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteOK(w, h.catalog.ListModels())
}
