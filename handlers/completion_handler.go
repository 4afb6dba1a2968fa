package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/relayforge/llm-fallback-gateway/middleware"
	"github.com/relayforge/llm-fallback-gateway/models"
	"github.com/relayforge/llm-fallback-gateway/repositories"
	"github.com/relayforge/llm-fallback-gateway/services"
	"github.com/relayforge/llm-fallback-gateway/services/catalog"
	"github.com/relayforge/llm-fallback-gateway/services/costtrack"
	"github.com/relayforge/llm-fallback-gateway/services/fallback"
	"github.com/relayforge/llm-fallback-gateway/services/providers"
	"github.com/relayforge/llm-fallback-gateway/utils"
	"go.uber.org/zap"
)

// ChatCompletionRequest is the gateway's chat completion request.
// Either a named chain or an explicit model list selects the routing
// policy; when both are absent the default chain is used.
type ChatCompletionRequest struct {
	Chain        string                    `json:"chain,omitempty"`
	Models       []string                  `json:"models,omitempty"`
	Messages     []ChatMessage             `json:"messages" validate:"required,min=1,dive"`
	MaxTokens    int                       `json:"max_tokens,omitempty" validate:"omitempty,gt=0"`
	Temperature  float64                   `json:"temperature,omitempty" validate:"omitempty,gte=0,lte=2"`
	Requirements *ModelRequirementsPayload `json:"requirements,omitempty"`
}

// ChatMessage represents a single chat message
type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=system user assistant"`
	Content string `json:"content" validate:"required"`
}

// ModelRequirementsPayload narrows the candidate models for one call
type ModelRequirementsPayload struct {
	Capabilities []string `json:"capabilities,omitempty"`
	CostTier     string   `json:"cost_tier,omitempty" validate:"omitempty,oneof=low medium high"`
}

// ChatCompletionResponse is the gateway's chat completion response,
// carrying the routed result alongside routing metadata.
type ChatCompletionResponse struct {
	ID                string                   `json:"id"`
	Model             string                   `json:"model"`
	Content           string                   `json:"content"`
	FinishReason      string                   `json:"finish_reason,omitempty"`
	Usage             providers.Usage          `json:"usage"`
	FallbacksUsed     int                      `json:"fallbacks_used"`
	Attempts          []fallback.AttemptRecord `json:"attempts,omitempty"`
	TotalResponseTime int64                    `json:"total_response_time_ms"`
}

// DefaultChainName is used when a request names no chain and no models
const DefaultChainName = "default"

// CompletionHandler routes chat completion requests through the
// fallback orchestrator.
type CompletionHandler struct {
	orchestrator *fallback.Orchestrator
	catalog      *catalog.Catalog
	registry     *providers.Registry
	requestLogs  repositories.RequestLogRepository // nil disables persistence
	logger       *zap.Logger
}

// NewCompletionHandler creates a new CompletionHandler
func NewCompletionHandler(
	orchestrator *fallback.Orchestrator,
	cat *catalog.Catalog,
	registry *providers.Registry,
	requestLogs repositories.RequestLogRepository,
	logger *zap.Logger,
) *CompletionHandler {
	return &CompletionHandler{
		orchestrator: orchestrator,
		catalog:      cat,
		registry:     registry,
		requestLogs:  requestLogs,
		logger:       logger,
	}
}

// HandleChatCompletion handles POST /api/v1/inference/chat
func (h *CompletionHandler) HandleChatCompletion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	var req ChatCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to parse request body",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	selector := fallback.ChainSelector{Name: req.Chain, Models: req.Models}
	if selector.Name == "" && len(selector.Models) == 0 {
		selector.Name = DefaultChainName
	}

	reqCtx := &fallback.RequestContext{
		Query:        lastUserMessage(req.Messages),
		Requirements: requirementsOf(req.Requirements),
	}

	start := time.Now()
	result, err := h.orchestrator.Execute(ctx, selector, h.operation(&req), reqCtx)
	if err != nil {
		h.persistLog(requestID, selector, nil, 0, time.Since(start), err)
		HandleServiceError(w, err, h.logger)
		return
	}

	h.persistLog(requestID, selector, result, len(result.Attempts)+1, result.TotalResponseTime, nil)

	resp, ok := result.Data.(*providers.ChatResponse)
	if !ok {
		h.logger.Error("operation returned unexpected payload type",
			zap.String("request_id", requestID))
		_ = utils.WriteInternalServerError(w, "")
		return
	}

	_ = utils.WriteOK(w, ChatCompletionResponse{
		ID:                resp.ID,
		Model:             result.FinalModel,
		Content:           resp.Content,
		FinishReason:      resp.FinishReason,
		Usage:             resp.Usage,
		FallbacksUsed:     result.FallbacksUsed,
		Attempts:          result.Attempts,
		TotalResponseTime: result.TotalResponseTime.Milliseconds(),
	})
}

// operation builds the per-model work: resolve the model's provider
// from the registry and run the completion against it.
func (h *CompletionHandler) operation(req *ChatCompletionRequest) fallback.Operation {
	return func(ctx context.Context, modelID string, model *models.ModelDescriptor) (*fallback.OperationResult, error) {
		provider, err := h.registry.Get(model.Provider)
		if err != nil {
			return nil, providers.NewProviderError(model.Provider,
				services.ErrorTypeModelUnavailable,
				"no provider registered for model", 0, err)
		}

		resp, err := provider.ChatCompletion(ctx, &providers.ChatRequest{
			Model:       model.Name,
			Messages:    toProviderMessages(req.Messages),
			MaxTokens:   req.MaxTokens,
			Temperature: req.Temperature,
		})
		if err != nil {
			return nil, err
		}

		return &fallback.OperationResult{
			Kind: costtrack.RequestTypeChat,
			Data: resp,
			Usage: &fallback.Usage{
				InputTokens:  resp.Usage.PromptTokens,
				OutputTokens: resp.Usage.CompletionTokens,
				TotalTokens:  resp.Usage.TotalTokens,
			},
		}, nil
	}
}

// persistLog records the call outcome, best-effort. A failed write is
// logged and never fails the request.
func (h *CompletionHandler) persistLog(requestID string, selector fallback.ChainSelector, result *fallback.FallbackResult, attemptCount int, elapsed time.Duration, execErr error) {
	if h.requestLogs == nil {
		return
	}

	log := &models.RequestLog{
		ID:           uuid.New(),
		RequestID:    requestID,
		Chain:        selector.Name,
		AttemptCount: attemptCount,
		LatencyMs:    elapsed.Milliseconds(),
		CreatedAt:    time.Now().UTC(),
	}
	if result != nil {
		log.Success = true
		log.FinalModel = result.FinalModel
		log.FallbacksUsed = result.FallbacksUsed
	} else {
		log.ErrorType = string(services.GetErrorType(execErr))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.requestLogs.Create(ctx, log); err != nil {
		h.logger.Warn("failed to persist request log",
			zap.String("request_id", requestID),
			zap.Error(err))
	}
}

func toProviderMessages(messages []ChatMessage) []providers.Message {
	out := make([]providers.Message, len(messages))
	for i, m := range messages {
		out[i] = providers.Message{Role: m.Role, Content: m.Content}
	}
	return out
}

// lastUserMessage extracts the text used for complexity scoring
func lastUserMessage(messages []ChatMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return messages[i].Content
		}
	}
	var parts []string
	for _, m := range messages {
		parts = append(parts, m.Content)
	}
	return strings.Join(parts, "\n")
}

func requirementsOf(payload *ModelRequirementsPayload) *models.ModelRequirements {
	if payload == nil {
		return nil
	}
	req := &models.ModelRequirements{
		CostTier: models.CostTier(payload.CostTier),
	}
	for _, c := range payload.Capabilities {
		req.Capabilities = append(req.Capabilities, models.Capability(c))
	}
	return req
}
