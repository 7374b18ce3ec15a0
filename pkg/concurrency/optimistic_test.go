package concurrency_test

import (
	"context"
	"testing"
	"time"

	"recruiter-backend/pkg/concurrency"
	apperrors "recruiter-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func fastPolicy() concurrency.RetryPolicy {
	return concurrency.RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	}
}

func TestExecuteSucceedsAfterRetryableFailures(t *testing.T) {
	coord := concurrency.NewCoordinator(fastPolicy(), zap.NewNop())

	calls := 0
	err := coord.Execute(context.Background(), "create-version", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return apperrors.NewDuplicateVersion("prompt/greeting@v2")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestExecuteStopsOnNonRetryableError(t *testing.T) {
	coord := concurrency.NewCoordinator(fastPolicy(), zap.NewNop())

	calls := 0
	boom := apperrors.NewValidationError("bad content")
	err := coord.Execute(context.Background(), "create-version", func(ctx context.Context) error {
		calls++
		return boom
	})

	assert.Equal(t, 1, calls, "non-retryable errors return immediately")
	require.True(t, apperrors.IsValidation(err))
	assert.Equal(t, boom, apperrors.GetAppError(err))
}

func TestExecuteExhaustionSurfacesVersionConflict(t *testing.T) {
	coord := concurrency.NewCoordinator(fastPolicy(), zap.NewNop())

	calls := 0
	err := coord.Execute(context.Background(), "edit-cascade", func(ctx context.Context) error {
		calls++
		return apperrors.NewStaleToken("job-step/screening@v1")
	})

	assert.Equal(t, 3, calls)
	require.True(t, apperrors.IsVersionConflict(err))

	appErr := apperrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.NotNil(t, appErr.Cause, "exhaustion keeps the last underlying error")
}

func TestExecuteHonorsContextCancellation(t *testing.T) {
	coord := concurrency.NewCoordinator(fastPolicy(), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := coord.Execute(ctx, "create-version", func(ctx context.Context) error {
		t.Fatal("attempt must not run after cancellation")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
