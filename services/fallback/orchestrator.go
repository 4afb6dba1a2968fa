// Package fallback composes the catalog, complexity analyzer,
// performance tracker and retry executor into the end-to-end routing
// algorithm. Orchestrator.Execute is the sole entry point.
package fallback

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/relayforge/llm-fallback-gateway/services"
	"github.com/relayforge/llm-fallback-gateway/services/catalog"
	"github.com/relayforge/llm-fallback-gateway/services/complexity"
	"github.com/relayforge/llm-fallback-gateway/services/costtrack"
	"github.com/relayforge/llm-fallback-gateway/services/performance"
	"github.com/relayforge/llm-fallback-gateway/services/retry"
	"go.uber.org/zap"
)

// complexityReorderThreshold is the score above which reasoning-capable
// models are preferred ahead of the chain's default order.
const complexityReorderThreshold = 0.7

// Orchestrator routes a logical request across an ordered chain of
// models, retrying and falling back until one succeeds or the chain is
// exhausted. All collaborators are injected; the orchestrator holds no
// package-level state.
type Orchestrator struct {
	catalog  *catalog.Catalog
	tracker  *performance.Tracker
	cost     costtrack.Tracker
	executor *retry.Executor
	logger   *zap.Logger
}

// NewOrchestrator wires an orchestrator from its collaborators
func NewOrchestrator(
	cat *catalog.Catalog,
	tracker *performance.Tracker,
	cost costtrack.Tracker,
	executor *retry.Executor,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		catalog:  cat,
		tracker:  tracker,
		cost:     cost,
		executor: executor,
		logger:   logger,
	}
}

// Execute resolves the selector into an ordered model list, reorders it
// by request characteristics and observed performance, then attempts
// models sequentially until one succeeds. Attempts within one call are
// never raced against each other. On success the returned result holds
// the failed attempts so far and fallbacksUsed equals the zero-based
// index of the winning model; on exhaustion the call returns a terminal
// all_models_exhausted error embedding the last attempt's error text.
func (o *Orchestrator) Execute(ctx context.Context, selector ChainSelector, op Operation, reqCtx *RequestContext) (*FallbackResult, error) {
	if op == nil {
		return nil, services.ErrNilOperation
	}

	requestID := uuid.New().String()
	start := time.Now()

	modelIDs, err := o.resolveSelector(selector)
	if err != nil {
		return nil, err
	}

	modelIDs = o.applyRequirements(modelIDs, reqCtx)
	if len(modelIDs) == 0 {
		return nil, services.NewDomainError(services.ErrorTypeConfiguration,
			"no models in chain satisfy the request requirements", nil)
	}

	modelIDs = o.applyComplexityBias(modelIDs, reqCtx, requestID)
	modelIDs = o.tracker.SortByPerformance(modelIDs)

	o.logger.Debug("resolved attempt order",
		zap.String("request_id", requestID),
		zap.Strings("models", modelIDs))

	var attempts []AttemptRecord
	var lastErr error

	for i, modelID := range modelIDs {
		model, err := o.catalog.GetModel(modelID)
		if err != nil {
			return nil, err
		}

		attemptStart := time.Now()
		var opResult *OperationResult

		err = o.executor.Do(ctx, modelID, func(ctx context.Context) error {
			result, opErr := op(ctx, modelID, model)
			if opErr != nil {
				return opErr
			}
			opResult = result
			return nil
		})
		elapsed := time.Since(attemptStart)

		if err == nil {
			o.tracker.Update(modelID, true, elapsed)
			o.cost.TrackUsage(ctx, usageEvent(modelID, opResult, elapsed, true, ""))

			return &FallbackResult{
				Success:           true,
				Data:              opResult.Data,
				FinalModel:        modelID,
				Attempts:          attempts,
				TotalResponseTime: time.Since(start),
				FallbacksUsed:     i,
			}, nil
		}

		trigger := triggerOf(err)
		attempts = append(attempts, AttemptRecord{
			ModelID:      modelID,
			AttemptIndex: i,
			Trigger:      trigger,
			Timestamp:    attemptStart,
			ResponseTime: elapsed,
			Error:        err.Error(),
		})

		o.tracker.Update(modelID, false, elapsed)
		o.cost.TrackUsage(ctx, usageEvent(modelID, nil, elapsed, false, trigger))

		o.logger.Warn("model attempt failed, falling back",
			zap.String("request_id", requestID),
			zap.String("model_id", modelID),
			zap.Int("chain_index", i),
			zap.String("trigger", string(trigger)),
			zap.Error(err))

		lastErr = err
	}

	return nil, services.NewDomainError(services.ErrorTypeExhausted,
		fmt.Sprintf("all %d model(s) in chain failed; last error: %v", len(modelIDs), lastErr),
		lastErr)
}

// resolveSelector turns a selector into an ordered, validated id list
func (o *Orchestrator) resolveSelector(selector ChainSelector) ([]string, error) {
	var ids []string

	switch {
	case len(selector.Models) > 0:
		ids = selector.Models
	case selector.Name != "":
		chain, err := o.catalog.GetChain(selector.Name)
		if err != nil {
			return nil, err
		}
		ids = chain.Models
	default:
		return nil, services.ErrEmptyChain
	}

	for _, id := range ids {
		if _, err := o.catalog.GetModel(id); err != nil {
			return nil, err
		}
	}
	return ids, nil
}

// applyRequirements filters ids to models satisfying the request
// requirements, keeping chain order.
func (o *Orchestrator) applyRequirements(ids []string, reqCtx *RequestContext) []string {
	if reqCtx == nil || reqCtx.Requirements == nil {
		return ids
	}

	filtered := make([]string, 0, len(ids))
	for _, id := range ids {
		model, err := o.catalog.GetModel(id)
		if err != nil {
			continue
		}
		if reqCtx.Requirements.Matches(model) {
			filtered = append(filtered, id)
		}
	}
	return filtered
}

// applyComplexityBias prefers reasoning-capable models, then higher
// cost tiers, when the query scores above the reorder threshold. The
// reorder is stable so equally ranked models keep chain order.
func (o *Orchestrator) applyComplexityBias(ids []string, reqCtx *RequestContext, requestID string) []string {
	if reqCtx == nil || reqCtx.Query == "" {
		return ids
	}

	score := complexity.Analyze(reqCtx.Query)
	o.logger.Debug("query complexity",
		zap.String("request_id", requestID),
		zap.Float64("score", score.Value),
		zap.Any("factors", score.Factors))

	if score.Value <= complexityReorderThreshold {
		return ids
	}

	reordered := make([]string, len(ids))
	copy(reordered, ids)

	rank := func(id string) (int, int) {
		model, err := o.catalog.GetModel(id)
		if err != nil {
			return 0, 0
		}
		reasoning := 0
		if model.SupportsReasoning() {
			reasoning = 1
		}
		return reasoning, model.CostTier.Rank()
	}

	sort.SliceStable(reordered, func(i, j int) bool {
		ri, ci := rank(reordered[i])
		rj, cj := rank(reordered[j])
		if ri != rj {
			return ri > rj
		}
		return ci > cj
	})

	return reordered
}

// triggerOf extracts the classified failure kind from an executor error
func triggerOf(err error) services.ErrorType {
	var attemptErr *retry.AttemptError
	if errors.As(err, &attemptErr) {
		return attemptErr.Kind
	}
	return retry.Classify(err)
}

// usageEvent builds the cost-tracking event for one attempt. Token
// counts fall back to fixed default estimates when the operation
// reported no usage payload.
func usageEvent(modelID string, result *OperationResult, elapsed time.Duration, success bool, trigger services.ErrorType) costtrack.UsageEvent {
	event := costtrack.UsageEvent{
		ModelID:      modelID,
		ResponseTime: elapsed,
		Success:      success,
		ErrorType:    trigger,
		RequestType:  costtrack.RequestTypeChat,
	}

	if result != nil {
		if result.Kind != "" {
			event.RequestType = result.Kind
		}
		if result.Usage != nil {
			event.InputTokens = result.Usage.InputTokens
			event.OutputTokens = result.Usage.OutputTokens
			event.TotalTokens = result.Usage.TotalTokens
			return event
		}
	}

	if success {
		event.InputTokens = defaultInputTokenEstimate
		event.OutputTokens = defaultOutputTokenEstimate
		event.TotalTokens = defaultInputTokenEstimate + defaultOutputTokenEstimate
	}
	return event
}
