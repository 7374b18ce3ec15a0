package entities_test

import (
	"encoding/json"
	"testing"

	"recruiter-backend/domain/core/entities"
	"recruiter-backend/domain/core/valueobjects"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeContentByKind(t *testing.T) {
	doc, err := entities.DecodeContent(valueobjects.KindPrompt,
		json.RawMessage(`{"text":"Hello","model":"gpt-4o","temperature":0.5}`))
	require.NoError(t, err)
	prompt, ok := doc.(*entities.PromptContent)
	require.True(t, ok)
	assert.Equal(t, "Hello", prompt.Text)
	assert.Empty(t, prompt.References(), "prompts are leaves")

	doc, err = entities.DecodeContent(valueobjects.KindJobStep,
		json.RawMessage(`{"step_type":"ai-interview","participant":"candidate",
			"prompt":{"kind":"prompt","name":"greeting"},
			"questionnaire_template":{"kind":"questionnaire-template","name":"quiz","version":2}}`))
	require.NoError(t, err)
	step, ok := doc.(*entities.JobStepContent)
	require.True(t, ok)
	assert.Len(t, step.References(), 2)

	_, err = entities.DecodeContent(valueobjects.Kind("mystery"), json.RawMessage(`{}`))
	assert.Error(t, err)

	_, err = entities.DecodeContent(valueobjects.KindPrompt, json.RawMessage(`{"text":`))
	assert.Error(t, err)
}

func TestTemplateRepinMovesOnlyMatchingPins(t *testing.T) {
	tmpl := &entities.TemplateContent{
		Title: "Quiz",
		Sections: []entities.Section{{
			ID: "s1", Order: 0, Title: "Main",
			Questions: []entities.QuestionSlot{
				{Order: 0, Question: valueobjects.PinnedReference(valueobjects.KindQuestionnaireQuestion, "q1", 1)},
				{Order: 1, Question: valueobjects.PinnedReference(valueobjects.KindQuestionnaireQuestion, "q2", 1)},
				{Order: 2, Question: valueobjects.DynamicReference(valueobjects.KindQuestionnaireQuestion, "q1")},
			},
		}},
	}

	child := valueobjects.EntityKey{Kind: valueobjects.KindQuestionnaireQuestion, Name: "q1", Version: 1}
	changed := tmpl.Repin(child, 2)

	require.True(t, changed)
	assert.Equal(t, 2, *tmpl.Sections[0].Questions[0].Question.Version)
	assert.Equal(t, 1, *tmpl.Sections[0].Questions[1].Question.Version, "other names untouched")
	assert.Nil(t, tmpl.Sections[0].Questions[2].Question.Version, "dynamic references never repin")

	assert.False(t, tmpl.Repin(child, 3), "the old pin is gone, nothing left to move")
}

func TestJobStepRepinHandlesNilAttachments(t *testing.T) {
	step := &entities.JobStepContent{
		StepType:    "questionnaire",
		Participant: entities.ParticipantCandidate,
	}
	ref := valueobjects.PinnedReference(valueobjects.KindQuestionnaireTemplate, "quiz", 1)
	step.QuestionnaireTemplate = &ref

	child := valueobjects.EntityKey{Kind: valueobjects.KindQuestionnaireTemplate, Name: "quiz", Version: 1}
	assert.True(t, step.Repin(child, 2))
	assert.Equal(t, 2, *step.QuestionnaireTemplate.Version)

	bare := &entities.JobStepContent{StepType: "x", Participant: entities.ParticipantRecruiter}
	assert.False(t, bare.Repin(child, 2))
	assert.Empty(t, bare.References())
}

func TestPinnedReferencesExcludesDynamic(t *testing.T) {
	content := json.RawMessage(`{"step_type":"ai-interview","participant":"candidate",
		"prompt":{"kind":"prompt","name":"greeting"},
		"interview_configuration":{"kind":"interview-configuration","name":"default","version":3}}`)
	e := entities.NewVersionedEntity(valueobjects.KindJobStep, "screen", 1, content, "tester")

	pinned, err := e.PinnedReferences()
	require.NoError(t, err)
	require.Len(t, pinned, 1)
	assert.Equal(t, valueobjects.KindInterviewConfiguration, pinned[0].Kind)
	assert.Equal(t, 3, *pinned[0].Version)
}

func TestSuccessorKeepsIdentityAndRollsAudit(t *testing.T) {
	e := entities.NewVersionedEntity(valueobjects.KindPrompt, "greeting", 1,
		json.RawMessage(`{"text":"Hello"}`), "alice")
	next := e.Successor(json.RawMessage(`{"text":"Hi"}`), "bob")

	assert.Equal(t, e.Kind, next.Kind)
	assert.Equal(t, e.Name, next.Name)
	assert.Equal(t, 2, next.Version)
	assert.Equal(t, "bob", next.CreatedBy)
	assert.NotEqual(t, e.Token, next.Token)
}

func TestMarkDeletedRollsToken(t *testing.T) {
	e := entities.NewVersionedEntity(valueobjects.KindPrompt, "greeting", 1,
		json.RawMessage(`{"text":"Hello"}`), "alice")
	before := e.Token

	e.MarkDeleted("bob")

	assert.True(t, e.Deleted)
	assert.Equal(t, "bob", e.UpdatedBy)
	assert.NotEqual(t, before, e.Token)
}

func TestEncodeContentRoundtrip(t *testing.T) {
	original := &entities.QuestionContent{
		Text: "Pick one",
		Type: entities.QuestionTypeSingleChoice,
		Options: []entities.OptionSlot{
			{Order: 0, Option: valueobjects.PinnedReference(valueobjects.KindQuestionnaireOption, "yes", 1)},
		},
	}

	raw, err := entities.EncodeContent(original)
	require.NoError(t, err)

	decoded, err := entities.DecodeContent(valueobjects.KindQuestionnaireQuestion, raw)
	require.NoError(t, err)
	q := decoded.(*entities.QuestionContent)
	assert.Equal(t, original.Text, q.Text)
	require.Len(t, q.Options, 1)
	assert.True(t, q.Options[0].Option.PinsExactly(valueobjects.EntityKey{
		Kind: valueobjects.KindQuestionnaireOption, Name: "yes", Version: 1,
	}))
}
