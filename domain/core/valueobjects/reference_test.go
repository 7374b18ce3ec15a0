package valueobjects_test

import (
	"testing"

	"recruiter-backend/domain/core/valueobjects"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityKeyRoundtrip(t *testing.T) {
	key, err := valueobjects.NewEntityKey(valueobjects.KindPrompt, "greeting", 3)
	require.NoError(t, err)
	assert.Equal(t, "prompt/greeting@v3", key.String())

	parsed, err := valueobjects.ParseEntityKey("prompt/greeting@v3")
	require.NoError(t, err)
	assert.True(t, key.Equals(parsed))

	bumped := key.WithVersion(4)
	assert.Equal(t, 4, bumped.Version)
	assert.Equal(t, 3, key.Version, "WithVersion does not mutate the receiver")
}

func TestNewEntityKeyRejectsBadInput(t *testing.T) {
	_, err := valueobjects.NewEntityKey(valueobjects.Kind("mystery"), "x", 1)
	assert.Error(t, err)

	_, err = valueobjects.NewEntityKey(valueobjects.KindPrompt, "", 1)
	assert.Error(t, err)

	_, err = valueobjects.NewEntityKey(valueobjects.KindPrompt, "x", 0)
	assert.Error(t, err)
}

func TestParseEntityKeyRejectsMalformed(t *testing.T) {
	for _, raw := range []string{
		"",
		"prompt/greeting",
		"prompt@v1",
		"prompt/greeting@3",
		"prompt/greeting@v0",
		"prompt/greeting@vX",
		"mystery/greeting@v1",
	} {
		_, err := valueobjects.ParseEntityKey(raw)
		assert.Error(t, err, "raw %q", raw)
	}
}

func TestReferencePinning(t *testing.T) {
	pinned := valueobjects.PinnedReference(valueobjects.KindPrompt, "greeting", 2)
	dynamic := valueobjects.DynamicReference(valueobjects.KindPrompt, "greeting")

	assert.True(t, pinned.IsPinned())
	assert.False(t, dynamic.IsPinned())

	key, ok := pinned.PinnedKey()
	require.True(t, ok)
	assert.Equal(t, "prompt/greeting@v2", key.String())

	_, ok = dynamic.PinnedKey()
	assert.False(t, ok)

	assert.True(t, pinned.PinsExactly(key))
	assert.False(t, pinned.PinsExactly(key.WithVersion(3)))
	assert.False(t, dynamic.PinsExactly(key), "a dynamic reference pins nothing")

	assert.Equal(t, "prompt/greeting@v2", pinned.String())
	assert.Equal(t, "prompt/greeting@latest", dynamic.String())
}

func TestReferenceRepinYieldsNewValue(t *testing.T) {
	pinned := valueobjects.PinnedReference(valueobjects.KindPrompt, "greeting", 1)
	moved := pinned.Repin(5)

	assert.Equal(t, 5, *moved.Version)
	assert.Equal(t, 1, *pinned.Version, "Repin does not mutate the receiver")
}

func TestReferenceValidate(t *testing.T) {
	assert.NoError(t, valueobjects.PinnedReference(valueobjects.KindPrompt, "greeting", 1).Validate())
	assert.NoError(t, valueobjects.DynamicReference(valueobjects.KindPrompt, "greeting").Validate())

	assert.Error(t, valueobjects.DynamicReference(valueobjects.Kind("mystery"), "x").Validate())
	assert.Error(t, valueobjects.DynamicReference(valueobjects.KindPrompt, "").Validate())
	assert.Error(t, valueobjects.PinnedReference(valueobjects.KindPrompt, "greeting", 0).Validate())
}

func TestSlotKeyFormat(t *testing.T) {
	slot, err := valueobjects.NewSlotKey("job-1", 2)
	require.NoError(t, err)
	assert.Equal(t, "job-1#2", slot.String())

	_, err = valueobjects.NewSlotKey("", 0)
	assert.Error(t, err)

	_, err = valueobjects.NewSlotKey("job-1", -1)
	assert.Error(t, err)
}

func TestParseKind(t *testing.T) {
	kind, err := valueobjects.ParseKind("questionnaire-template")
	require.NoError(t, err)
	assert.Equal(t, valueobjects.KindQuestionnaireTemplate, kind)

	_, err = valueobjects.ParseKind("mystery")
	assert.Error(t, err)
}
