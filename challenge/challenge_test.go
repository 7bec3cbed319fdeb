package challenge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmahoney/robotourney/models"
)

func testGoals() []Goal {
	return []Goal{
		{Name: "missions", Min: 0, Max: 400, Multiplier: 1},
		{Name: "penalties", Min: 0, Max: 6, Multiplier: -10},
		{
			Name:       "precision",
			Enumerated: true,
			EnumValues: []EnumScore{
				{Value: "none", Score: 0},
				{Value: "partial", Score: 15},
				{Value: "full", Score: 30},
			},
		},
	}
}

func TestEvaluate(t *testing.T) {
	d := NewFixed(testGoals())

	score, err := d.Evaluate(map[string]models.GoalValue{
		"missions":  models.NumericValue(250),
		"penalties": models.NumericValue(2),
		"precision": models.EnumValue("partial"),
	})

	require.NoError(t, err)
	assert.Equal(t, 250.0-20+15, score)
}

func TestEvaluateUnknownGoal(t *testing.T) {
	d := NewFixed(testGoals())

	_, err := d.Evaluate(map[string]models.GoalValue{
		"missions":  models.NumericValue(0),
		"penalties": models.NumericValue(0),
		"precision": models.EnumValue("none"),
		"bonus":     models.NumericValue(10),
	})

	require.ErrorIs(t, err, ErrUnknownGoal)
}

func TestEvaluateMissingGoal(t *testing.T) {
	d := NewFixed(testGoals())

	_, err := d.Evaluate(map[string]models.GoalValue{
		"missions": models.NumericValue(100),
	})

	require.ErrorIs(t, err, ErrMissingGoal)
}

func TestEvaluateValueOutOfRange(t *testing.T) {
	d := NewFixed(testGoals())

	_, err := d.Evaluate(map[string]models.GoalValue{
		"missions":  models.NumericValue(500),
		"penalties": models.NumericValue(0),
		"precision": models.EnumValue("none"),
	})

	require.ErrorIs(t, err, ErrIllegalValue)
}

func TestEvaluateWrongValueType(t *testing.T) {
	d := NewFixed(testGoals())

	_, err := d.Evaluate(map[string]models.GoalValue{
		"missions":  models.EnumValue("lots"),
		"penalties": models.NumericValue(0),
		"precision": models.EnumValue("none"),
	})

	require.ErrorIs(t, err, ErrValueType)
}

func TestEvaluateIllegalEnumValue(t *testing.T) {
	d := NewFixed(testGoals())

	_, err := d.Evaluate(map[string]models.GoalValue{
		"missions":  models.NumericValue(0),
		"penalties": models.NumericValue(0),
		"precision": models.EnumValue("perfect"),
	})

	require.ErrorIs(t, err, ErrIllegalValue)
}

func TestMinimalScoreValues(t *testing.T) {
	d := NewFixed(testGoals())

	values := MinimalScoreValues(d)

	require.Len(t, values, 3)
	assert.Equal(t, 0.0, *values["missions"].Numeric)
	assert.Equal(t, "none", *values["precision"].Enum)

	// The minimal set is always evaluable.
	score, err := d.Evaluate(values)
	require.NoError(t, err)
	assert.Zero(t, score)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "challenge.json")
	content := `[
		{"name": "missions", "min": 0, "max": 400, "multiplier": 1},
		{"name": "precision", "enumerated": true,
		 "enum_values": [{"value": "none", "score": 0}, {"value": "full", "score": 30}]}
	]`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	d, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, d.Goals(), 2)
}

func TestLoadRejectsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "challenge.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}
