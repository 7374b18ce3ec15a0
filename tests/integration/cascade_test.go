package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"recruiter-backend/application/commands"
	cmdbus "recruiter-backend/application/commands/bus"
	"recruiter-backend/application/queries"
	"recruiter-backend/domain/core/entities"
	"recruiter-backend/domain/core/valueobjects"
	"recruiter-backend/domain/versioning"
	"recruiter-backend/infrastructure/persistence/memory"
	"recruiter-backend/pkg/concurrency"
	apperrors "recruiter-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// harness wires the write and read paths against in-memory stores, the same
// shape the container assembles for production minus AWS.
type harness struct {
	bus     *cmdbus.CommandBus
	resolve *queries.ResolveReferenceHandler
	store   *memory.EntityStore
	sink    *memory.EventSink
	engine  *versioning.Engine
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := zap.NewNop()
	store := memory.NewEntityStore()
	slots := memory.NewSlotStore()
	sink := memory.NewEventSink()
	retry := concurrency.NewCoordinator(concurrency.DefaultRetryPolicy(), logger)
	engine := versioning.NewEngine(store, slots, sink, retry, versioning.DefaultPolicy(), logger)

	b := cmdbus.NewCommandBus()
	require.NoError(t, b.Register(commands.CreateVersionCommand{}, commands.NewCreateVersionHandler(engine, logger)))
	require.NoError(t, b.Register(commands.EditWithCascadeCommand{}, commands.NewEditWithCascadeHandler(engine, logger)))

	return &harness{
		bus:     b,
		resolve: queries.NewResolveReferenceHandler(engine.Resolver()),
		store:   store,
		sink:    sink,
		engine:  engine,
	}
}

func (h *harness) create(t *testing.T, kind, name, content string) *entities.VersionedEntity {
	t.Helper()
	result, err := h.bus.Send(context.Background(), commands.CreateVersionCommand{
		Kind:    kind,
		Name:    name,
		Content: json.RawMessage(content),
		Actor:   "recruiter-1",
	})
	require.NoError(t, err)
	return result.(*entities.VersionedEntity)
}

func TestEditedQuestionReversionsPinningTemplate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.create(t, "questionnaire-question", "q1", `{"text":"Why do you want this job?","type":"free-text"}`)
	h.create(t, "questionnaire-template", "eng-quiz",
		`{"title":"Engineering quiz","sections":[{"id":"s1","order":0,"title":"General","questions":[
			{"order":0,"question":{"kind":"questionnaire-question","name":"q1","version":1}}]}]}`)

	result, err := h.bus.Send(ctx, commands.EditWithCascadeCommand{
		Kind:    "questionnaire-question",
		Name:    "q1",
		Content: json.RawMessage(`{"text":"Why do you want to work with us?","type":"free-text"}`),
		Actor:   "recruiter-1",
	})
	require.NoError(t, err)

	cascade := result.(*versioning.CascadeResult)
	assert.Equal(t, 2, cascade.Edited.Version)
	require.Len(t, cascade.Created, 1)
	assert.Equal(t, "questionnaire-template/eng-quiz@v2", cascade.Created[0].String())

	tmpl, err := h.store.GetExact(ctx, cascade.Created[0])
	require.NoError(t, err)
	pins, err := tmpl.PinnedReferences()
	require.NoError(t, err)
	require.Len(t, pins, 1)
	assert.Equal(t, 2, *pins[0].Version, "the new template version pins the new question version")

	// Both versions remain retrievable; nothing was overwritten
	v1, err := h.store.GetExact(ctx, valueobjects.EntityKey{
		Kind: valueobjects.KindQuestionnaireTemplate, Name: "eng-quiz", Version: 1})
	require.NoError(t, err)
	require.NotNil(t, v1)

	assert.Len(t, h.sink.OfType("entity.version_created"), 4, "q1 v1+v2, template v1+v2")
	assert.Len(t, h.sink.OfType("entity.cascade_completed"), 1)
}

func TestDynamicPromptReferenceTracksLatestWithoutCascade(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.create(t, "prompt", "greeting", `{"text":"Welcome the candidate warmly."}`)
	h.create(t, "job-step", "phone-screen",
		`{"step_type":"ai-interview","participant":"candidate","show_for_candidate":true,
			"prompt":{"kind":"prompt","name":"greeting"}}`)

	result, err := h.bus.Send(ctx, commands.EditWithCascadeCommand{
		Kind:    "prompt",
		Name:    "greeting",
		Content: json.RawMessage(`{"text":"Welcome the candidate and outline the call."}`),
		Actor:   "recruiter-1",
	})
	require.NoError(t, err)

	cascade := result.(*versioning.CascadeResult)
	assert.Empty(t, cascade.Created, "dynamic referrers never gain versions")

	step, err := h.store.GetLatest(ctx, valueobjects.KindJobStep, "phone-screen")
	require.NoError(t, err)
	assert.Equal(t, 1, step.Version)

	resolved, err := h.resolve.Handle(ctx, queries.ResolveReferenceQuery{Kind: "prompt", Name: "greeting"})
	require.NoError(t, err)
	assert.Equal(t, 2, resolved.(*entities.VersionedEntity).Version, "reads see the new version immediately")
}

func TestConcurrentStepEditsAssignDistinctVersions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.create(t, "job-step", "screening",
		`{"step_type":"screening","participant":"recruiter","show_for_candidate":false}`)

	const writers = 6
	var wg sync.WaitGroup
	errs := make([]error, writers)

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.bus.Send(ctx, commands.CreateVersionCommand{
				Kind: "job-step",
				Name: "screening",
				Content: json.RawMessage(fmt.Sprintf(
					`{"step_type":"screening","participant":"recruiter","show_for_candidate":false,"display_title":"Edit %d"}`, i)),
				Actor: fmt.Sprintf("recruiter-%d", i),
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.True(t, apperrors.IsVersionConflict(err), "unexpected error: %v", err)
		}
	}
	require.Greater(t, succeeded, 0)

	history, err := h.engine.GetHistory(ctx, valueobjects.KindJobStep, "screening")
	require.NoError(t, err)
	require.Len(t, history, succeeded+1)

	seen := map[int]bool{}
	for _, v := range history {
		require.False(t, seen[v.Version], "version %d assigned twice", v.Version)
		seen[v.Version] = true
	}
	for v := 1; v <= succeeded+1; v++ {
		assert.True(t, seen[v], "version numbers stay contiguous")
	}
}
