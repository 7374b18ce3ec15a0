package bus_test

import (
	"context"
	"sync"
	"testing"

	"recruiter-backend/application/queries/bus"
	apperrors "recruiter-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lookupQuery struct {
	Kind string
	Name string
}

func (q lookupQuery) Validate() error {
	if q.Name == "" {
		return apperrors.NewValidationError("name is required")
	}
	return nil
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]interface{}
	sets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]interface{})}
}

func (c *fakeCache) Get(ctx context.Context, key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *fakeCache) Set(ctx context.Context, key string, value interface{}, ttlSeconds int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	c.sets++
}

func (c *fakeCache) Invalidate(ctx context.Context, pattern string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		delete(c.entries, key)
	}
}

func TestAskValidatesBeforeDispatch(t *testing.T) {
	b := bus.NewQueryBus()
	called := false
	require.NoError(t, b.Register(lookupQuery{}, bus.QueryHandlerFunc(
		func(ctx context.Context, q bus.Query) (interface{}, error) {
			called = true
			return nil, nil
		})))

	_, err := b.Ask(context.Background(), lookupQuery{Kind: "prompt"})
	assert.True(t, apperrors.IsValidation(err))
	assert.False(t, called, "invalid queries never reach the handler")
}

func TestAskRequiresRegisteredHandler(t *testing.T) {
	b := bus.NewQueryBus()
	_, err := b.Ask(context.Background(), lookupQuery{Kind: "prompt", Name: "greeting"})
	assert.Error(t, err)
}

func TestCachingMiddlewareShortCircuitsRepeatQueries(t *testing.T) {
	cache := newFakeCache()
	mw := bus.NewCachingMiddleware(cache, 30)

	calls := 0
	handler := mw.Wrap(bus.QueryHandlerFunc(
		func(ctx context.Context, q bus.Query) (interface{}, error) {
			calls++
			return "resolved", nil
		}))

	ctx := context.Background()
	q := lookupQuery{Kind: "prompt", Name: "greeting"}

	first, err := handler.Handle(ctx, q)
	require.NoError(t, err)
	second, err := handler.Handle(ctx, q)
	require.NoError(t, err)

	assert.Equal(t, "resolved", first)
	assert.Equal(t, "resolved", second)
	assert.Equal(t, 1, calls, "the second hit comes from cache")

	// A different query shape misses
	_, err = handler.Handle(ctx, lookupQuery{Kind: "prompt", Name: "farewell"})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestCachingMiddlewareNeverCachesErrors(t *testing.T) {
	cache := newFakeCache()
	mw := bus.NewCachingMiddleware(cache, 30)

	calls := 0
	handler := mw.Wrap(bus.QueryHandlerFunc(
		func(ctx context.Context, q bus.Query) (interface{}, error) {
			calls++
			return nil, apperrors.NewNotFoundError("prompt/greeting")
		}))

	ctx := context.Background()
	q := lookupQuery{Kind: "prompt", Name: "greeting"}

	_, err := handler.Handle(ctx, q)
	assert.True(t, apperrors.IsNotFound(err))
	_, err = handler.Handle(ctx, q)
	assert.True(t, apperrors.IsNotFound(err))

	assert.Equal(t, 2, calls, "failures go back to the handler every time")
	assert.Zero(t, cache.sets)
}
