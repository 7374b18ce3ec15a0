package di

import (
	"context"
	"encoding/json"
	"testing"

	"recruiter-backend/application/queries"
	querybus "recruiter-backend/application/queries/bus"
	"recruiter-backend/domain/core/entities"
	"recruiter-backend/domain/versioning"
	"recruiter-backend/infrastructure/persistence/memory"
	"recruiter-backend/pkg/concurrency"
	"recruiter-backend/pkg/observability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// readStack is the production query bus wired against in-memory stores, with
// a handle on the engine so tests can interleave writes.
type readStack struct {
	engine *versioning.Engine
	ask    func(t *testing.T, q querybus.Query) interface{}
}

func newReadStack(t *testing.T) *readStack {
	t.Helper()
	logger := zap.NewNop()
	store := memory.NewEntityStore()
	slots := memory.NewSlotStore()
	retry := concurrency.NewCoordinator(concurrency.DefaultRetryPolicy(), logger)
	engine := versioning.NewEngine(store, slots, memory.NewEventSink(), retry, versioning.DefaultPolicy(), logger)

	queryBus, err := ProvideQueryBus(store, slots, engine.Resolver(), NewInMemoryCache(),
		observability.NewMetrics("Recruiter/test", nil, logger))
	require.NoError(t, err)

	return &readStack{
		engine: engine,
		ask: func(t *testing.T, q querybus.Query) interface{} {
			t.Helper()
			result, err := queryBus.Ask(context.Background(), q)
			require.NoError(t, err)
			return result
		},
	}
}

func TestResolutionReflectsWritesImmediately(t *testing.T) {
	stack := newReadStack(t)
	ctx := context.Background()

	_, err := stack.engine.CreateNextVersion(ctx, "prompt", "greeting",
		json.RawMessage(`{"text":"Hello"}`), "alice")
	require.NoError(t, err)

	// Prime any cache a misconfigured bus would have put in the read path
	resolved := stack.ask(t, queries.ResolveReferenceQuery{Kind: "prompt", Name: "greeting"})
	assert.Equal(t, 1, resolved.(*entities.VersionedEntity).Version)
	latest := stack.ask(t, queries.GetLatestQuery{Kind: "prompt", Name: "greeting"})
	assert.Equal(t, 1, latest.(*entities.VersionedEntity).Version)

	_, err = stack.engine.CreateNextVersion(ctx, "prompt", "greeting",
		json.RawMessage(`{"text":"Hi there"}`), "alice")
	require.NoError(t, err)

	resolved = stack.ask(t, queries.ResolveReferenceQuery{Kind: "prompt", Name: "greeting"})
	assert.Equal(t, 2, resolved.(*entities.VersionedEntity).Version,
		"each resolution reflects current state at call time")
	latest = stack.ask(t, queries.GetLatestQuery{Kind: "prompt", Name: "greeting"})
	assert.Equal(t, 2, latest.(*entities.VersionedEntity).Version)
}

func TestExactVersionLookupsStayPinnedAcrossWrites(t *testing.T) {
	stack := newReadStack(t)
	ctx := context.Background()

	_, err := stack.engine.CreateNextVersion(ctx, "prompt", "greeting",
		json.RawMessage(`{"text":"Hello"}`), "alice")
	require.NoError(t, err)
	_, err = stack.engine.CreateNextVersion(ctx, "prompt", "greeting",
		json.RawMessage(`{"text":"Hi there"}`), "alice")
	require.NoError(t, err)

	// Exact rows are immutable, so the cached read path must still return
	// the requested version, not the newest one
	for i := 0; i < 2; i++ {
		exact := stack.ask(t, queries.GetExactQuery{Kind: "prompt", Name: "greeting", Version: 1})
		assert.Equal(t, 1, exact.(*entities.VersionedEntity).Version)
	}
}
