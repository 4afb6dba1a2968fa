// Package performance tracks smoothed per-model statistics and orders
// candidate models by observed success rate and latency. The stats are
// advisory inputs to ordering, never to request correctness.
package performance

import (
	"sort"
	"sync"
	"time"

	"github.com/relayforge/llm-fallback-gateway/models"
)

// emaAlpha is the fixed learning rate for response-time smoothing
const emaAlpha = 0.3

// successRateTieThreshold is the anti-thrash band: two models whose
// success rates differ by no more than this are treated as tied and
// ordered by average response time instead.
const successRateTieThreshold = 0.1

// Tracker accumulates per-model metrics across concurrent calls
type Tracker struct {
	mu      sync.RWMutex
	metrics map[string]*models.PerformanceMetrics
	now     func() time.Time
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{
		metrics: make(map[string]*models.PerformanceMetrics),
		now:     time.Now,
	}
}

// Update folds one attempt outcome into the model's metrics. The first
// ever sample sets the average response time to exactly that sample;
// later samples blend in with the fixed EMA learning rate.
func (t *Tracker) Update(modelID string, success bool, responseTime time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	m, ok := t.metrics[modelID]
	if !ok {
		m = &models.PerformanceMetrics{ModelID: modelID}
		t.metrics[modelID] = m
	}

	m.TotalRequests++
	if !success {
		m.TotalErrors++
	}
	m.SuccessRate = float64(m.TotalRequests-m.TotalErrors) / float64(m.TotalRequests)
	m.ErrorRate = float64(m.TotalErrors) / float64(m.TotalRequests)

	if m.TotalRequests == 1 {
		m.AverageResponseTime = responseTime
	} else {
		m.AverageResponseTime = time.Duration(
			emaAlpha*float64(responseTime) + (1-emaAlpha)*float64(m.AverageResponseTime))
	}

	m.LastUsed = t.now()
}

// Get returns a copy of the metrics for a model, if any exist
func (t *Tracker) Get(modelID string) (models.PerformanceMetrics, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	m, ok := t.metrics[modelID]
	if !ok {
		return models.PerformanceMetrics{}, false
	}
	return *m, true
}

// Snapshot returns a copy of all recorded metrics keyed by model id
func (t *Tracker) Snapshot() map[string]models.PerformanceMetrics {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]models.PerformanceMetrics, len(t.metrics))
	for id, m := range t.metrics {
		out[id] = *m
	}
	return out
}

// Reset discards all recorded metrics
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.metrics = make(map[string]*models.PerformanceMetrics)
}

// SortByPerformance returns the ids ordered best-first: success rate
// descending with the tie threshold applied, then average response
// time ascending. Models with no recorded metrics sort after all
// models with metrics, keeping their relative input order. The sort is
// stable throughout.
func (t *Tracker) SortByPerformance(modelIDs []string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	sorted := make([]string, len(modelIDs))
	copy(sorted, modelIDs)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, aOK := t.metrics[sorted[i]]
		b, bOK := t.metrics[sorted[j]]

		if !aOK || !bOK {
			// Tracked models come first; two untracked models keep order.
			return aOK && !bOK
		}

		diff := a.SuccessRate - b.SuccessRate
		if diff > successRateTieThreshold {
			return true
		}
		if diff < -successRateTieThreshold {
			return false
		}
		return a.AverageResponseTime < b.AverageResponseTime
	})

	return sorted
}
