package review

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGrade(t *testing.T) {
	g, err := ParseGrade("good")
	require.NoError(t, err)
	assert.Equal(t, GradeGood, g)

	g, err = ParseGrade("AGAIN")
	require.NoError(t, err)
	assert.Equal(t, GradeAgain, g)

	_, err = ParseGrade("perfect")
	require.Error(t, err)
}

func TestGradeText(t *testing.T) {
	out, err := GradeHard.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "hard", string(out))

	_, err = Grade(7).MarshalText()
	require.Error(t, err)

	var g Grade
	require.NoError(t, g.UnmarshalText([]byte("easy")))
	assert.Equal(t, GradeEasy, g)
	require.Error(t, g.UnmarshalText([]byte("")))
}

func TestGradeJSON(t *testing.T) {
	out, err := json.Marshal(GradeEasy)
	require.NoError(t, err)
	assert.Equal(t, "3", string(out))

	var g Grade
	require.NoError(t, json.Unmarshal([]byte("1"), &g))
	assert.Equal(t, GradeHard, g)

	require.NoError(t, json.Unmarshal([]byte(`"good"`), &g))
	assert.Equal(t, GradeGood, g)

	require.Error(t, json.Unmarshal([]byte("9"), &g))
	require.Error(t, json.Unmarshal([]byte(`"sideways"`), &g))
}

func TestLeechActionUnmarshal(t *testing.T) {
	var a LeechAction
	require.NoError(t, a.UnmarshalText([]byte("suspend")))
	assert.Equal(t, LeechSuspend, a)

	require.NoError(t, a.UnmarshalText([]byte("FlagOnly")))
	assert.Equal(t, LeechFlagOnly, a)

	require.Error(t, a.UnmarshalText([]byte("delete")))
}

func TestNewItemOrderUnmarshal(t *testing.T) {
	var o NewItemOrder
	require.NoError(t, o.UnmarshalText([]byte("random")))
	assert.Equal(t, NewItemOrderRandom, o)

	require.NoError(t, o.UnmarshalText([]byte("FIFO")))
	assert.Equal(t, NewItemOrderFIFO, o)

	require.Error(t, o.UnmarshalText([]byte("shuffled")))
}

func TestParamsWithDefaults(t *testing.T) {
	filled := Params{}.withDefaults()
	want := DefaultParams()
	// Booleans pass through withDefaults untouched; an unset bool is
	// indistinguishable from an explicit false.
	want.BurySiblings = false
	assert.Equal(t, want, filled)

	custom := Params{LearningSteps: []int{5}, LeechThreshold: 3}.withDefaults()
	assert.Equal(t, []int{5}, custom.LearningSteps)
	assert.Equal(t, 3, custom.LeechThreshold)
	assert.Equal(t, DefaultParams().StartingEase, custom.StartingEase)
}

func TestParamsValidate(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())
	require.NoError(t, Params{}.Validate())

	bad := DefaultParams()
	bad.LearningSteps = []int{1, 0}
	require.Error(t, bad.Validate())

	bad = DefaultParams()
	bad.MinimumEase = 3.0
	require.Error(t, bad.Validate())

	bad = DefaultParams()
	bad.LapseEasePenalty = 1.5
	require.Error(t, bad.Validate())

	bad = DefaultParams()
	bad.NewItemOrder = "sideways"
	require.Error(t, bad.Validate())

	bad = DefaultParams()
	bad.LeechAction = "delete"
	require.Error(t, bad.Validate())
}
