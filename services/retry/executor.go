// Package retry executes a single model attempt with bounded retries,
// per-attempt timeout, and capped exponential backoff.
package retry

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/relayforge/llm-fallback-gateway/services"
	"go.uber.org/zap"
)

// maxJitter is the upper bound of the uniform random jitter added to
// each backoff delay when jitter is enabled.
const maxJitter = time.Second

// Config holds retry policy for one model attempt sequence
type Config struct {
	// MaxAttempts is the total attempt budget per model (first try included)
	MaxAttempts int

	// BaseDelay is the backoff delay before the first retry
	BaseDelay time.Duration

	// MaxDelay caps the exponential backoff
	MaxDelay time.Duration

	// ExponentialBase is the backoff growth factor
	ExponentialBase float64

	// Jitter adds uniform random jitter in [0, 1s) to each delay
	Jitter bool

	// AttemptTimeout bounds each individual attempt
	AttemptTimeout time.Duration
}

// DefaultConfig returns the default retry policy
func DefaultConfig() Config {
	return Config{
		MaxAttempts:     3,
		BaseDelay:       time.Second,
		MaxDelay:        30 * time.Second,
		ExponentialBase: 2.0,
		Jitter:          true,
		AttemptTimeout:  60 * time.Second,
	}
}

// AttemptError is the terminal failure of one model attempt sequence
type AttemptError struct {
	ModelID  string
	Kind     services.ErrorType
	Attempts int
	Err      error
}

// Error implements the error interface
func (e *AttemptError) Error() string {
	return fmt.Sprintf("model %s failed after %d attempt(s) [%s]: %v",
		e.ModelID, e.Attempts, e.Kind, e.Err)
}

// Unwrap implements error unwrapping
func (e *AttemptError) Unwrap() error {
	return e.Err
}

// Executor runs operations under the configured retry policy
type Executor struct {
	config Config
	logger *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewExecutor creates an executor with the given policy
func NewExecutor(config Config, logger *zap.Logger) *Executor {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	return &Executor{
		config: config,
		logger: logger,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Do runs fn for one model with bounded retries. fn receives a context
// bounded by the per-attempt timeout and should capture its own result;
// Do only reports success or the final classified failure. The loop is
// explicit iteration, never recursion, so attempt counts are bounded by
// construction. Non-retryable failure kinds short-circuit immediately.
func (e *Executor) Do(ctx context.Context, modelID string, fn func(ctx context.Context) error) error {
	var lastErr error
	var lastKind services.ErrorType

	attempts := 0
	for attempts < e.config.MaxAttempts {
		if attempts > 0 {
			delay := e.Delay(attempts - 1)
			e.logger.Debug("backing off before retry",
				zap.String("model_id", modelID),
				zap.Int("retry", attempts),
				zap.Duration("delay", delay))
			if err := e.wait(ctx, delay); err != nil {
				return &AttemptError{ModelID: modelID, Kind: Classify(err), Attempts: attempts, Err: err}
			}
		}

		attempts++
		err := e.runAttempt(ctx, fn)
		if err == nil {
			return nil
		}

		lastErr = err
		lastKind = Classify(err)

		e.logger.Debug("attempt failed",
			zap.String("model_id", modelID),
			zap.Int("attempt", attempts),
			zap.String("trigger", string(lastKind)),
			zap.Error(err))

		if !IsRetryable(lastKind) {
			break
		}
	}

	return &AttemptError{ModelID: modelID, Kind: lastKind, Attempts: attempts, Err: lastErr}
}

// runAttempt races fn against the per-attempt timeout. Timer expiry is
// classified as a timeout by Classify via context.DeadlineExceeded.
func (e *Executor) runAttempt(ctx context.Context, fn func(ctx context.Context) error) error {
	if e.config.AttemptTimeout <= 0 {
		return fn(ctx)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, e.config.AttemptTimeout)
	defer cancel()

	err := fn(attemptCtx)
	if err != nil && attemptCtx.Err() == context.DeadlineExceeded {
		return context.DeadlineExceeded
	}
	return err
}

// Delay returns the backoff delay for the given zero-based retry count:
// min(baseDelay * exponentialBase^retryCount, maxDelay), plus uniform
// jitter when enabled.
func (e *Executor) Delay(retryCount int) time.Duration {
	delay := time.Duration(float64(e.config.BaseDelay) * math.Pow(e.config.ExponentialBase, float64(retryCount)))
	if delay > e.config.MaxDelay || delay <= 0 {
		delay = e.config.MaxDelay
	}

	if e.config.Jitter {
		e.mu.Lock()
		jitter := time.Duration(e.rng.Int63n(int64(maxJitter)))
		e.mu.Unlock()
		delay += jitter
	}

	return delay
}

// wait suspends the calling goroutine for the given delay. The wait is
// a timer, not a thread-blocking sleep, and observes ctx cancellation.
func (e *Executor) wait(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
