package concurrency

import (
	"context"
	"math/rand"
	"time"

	apperrors "recruiter-backend/pkg/errors"

	"go.uber.org/zap"
)

// RetryPolicy parametrizes the optimistic-concurrency coordinator:
// how many attempts an operation gets and how backoff grows between them.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryPolicy matches the contention profile of entity versioning:
// conflicts are rare and short-lived, so a small budget with fast initial
// backoff wins over a long one.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    4,
		InitialBackoff: 25 * time.Millisecond,
		MaxBackoff:     400 * time.Millisecond,
	}
}

// Coordinator wraps read-compute-write operations in optimistic-conflict
// detection and retry. The attempt function must recompute from scratch on
// every call: it re-reads current state rather than patching a failed write.
type Coordinator struct {
	policy RetryPolicy
	logger *zap.Logger
}

// NewCoordinator creates a coordinator with the given policy
func NewCoordinator(policy RetryPolicy, logger *zap.Logger) *Coordinator {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &Coordinator{policy: policy, logger: logger}
}

// Execute runs attempt until it succeeds, fails with a non-retryable error,
// or exhausts the budget. Exhaustion surfaces a version conflict carrying the
// last underlying error; retryable signals never escape this method.
func (c *Coordinator) Execute(ctx context.Context, operation string, attempt func(ctx context.Context) error) error {
	var lastErr error

	for i := 0; i < c.policy.MaxAttempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = attempt(ctx)
		if lastErr == nil {
			return nil
		}
		if !apperrors.IsRetryable(lastErr) {
			return lastErr
		}

		c.logger.Debug("Optimistic write lost a race, retrying",
			zap.String("operation", operation),
			zap.Int("attempt", i+1),
			zap.Int("maxAttempts", c.policy.MaxAttempts),
			zap.Error(lastErr),
		)

		if i < c.policy.MaxAttempts-1 {
			if err := c.sleep(ctx, i); err != nil {
				return err
			}
		}
	}

	return apperrors.NewVersionConflict(operation, c.policy.MaxAttempts).WithCause(lastErr)
}

// sleep waits for the backoff of the given attempt, bailing out early when
// the context is cancelled
func (c *Coordinator) sleep(ctx context.Context, attempt int) error {
	backoff := c.policy.InitialBackoff << uint(attempt)
	if backoff > c.policy.MaxBackoff {
		backoff = c.policy.MaxBackoff
	}
	// Full jitter keeps simultaneous losers from colliding again
	delay := time.Duration(rand.Int63n(int64(backoff) + 1))

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
