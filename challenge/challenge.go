// Package challenge describes the scoring rubric collaborator: the set of
// goals a performance run is scored on and the formula mapping recorded
// goal values to a numeric result. The formula itself is opaque to the
// bracket engine; it only needs Evaluate and the legal-value metadata.
package challenge

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/kmahoney/robotourney/models"
)

var (
	ErrUnknownGoal  = errors.New("value supplied for a goal not in the challenge description")
	ErrMissingGoal  = errors.New("no value supplied for a required goal")
	ErrValueType    = errors.New("goal value type does not match the goal")
	ErrIllegalValue = errors.New("goal value outside the legal range")
)

// EnumScore is one legal value of an enumerated goal, in document order.
type EnumScore struct {
	Value string  `json:"value"`
	Score float64 `json:"score"`
}

// Goal is one scored objective. Numeric goals carry a legal [Min, Max]
// range and a multiplier; enumerated goals carry their legal values.
type Goal struct {
	Name       string      `json:"name"`
	Enumerated bool        `json:"enumerated"`
	Min        float64     `json:"min"`
	Max        float64     `json:"max"`
	Multiplier float64     `json:"multiplier"`
	EnumValues []EnumScore `json:"enum_values,omitempty"`
}

// Description is what the rest of the system knows about a challenge.
type Description interface {
	Goals() []Goal
	// Evaluate maps a complete set of goal values to the run's score.
	Evaluate(values map[string]models.GoalValue) (float64, error)
}

// Fixed is a Description backed by a static goal list with a weighted-sum
// formula. It stands in for the full rubric engine, which is an external
// collaborator.
type Fixed struct {
	goals []Goal
}

func NewFixed(goals []Goal) *Fixed {
	gs := make([]Goal, len(goals))
	copy(gs, goals)
	return &Fixed{goals: gs}
}

// Load reads a goal list from a JSON file.
func Load(path string) (*Fixed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read challenge file %s: %w", path, err)
	}
	var goals []Goal
	if err := json.Unmarshal(data, &goals); err != nil {
		return nil, fmt.Errorf("failed to parse challenge file %s: %w", path, err)
	}
	if len(goals) == 0 {
		return nil, fmt.Errorf("challenge file %s defines no goals", path)
	}
	return NewFixed(goals), nil
}

func (f *Fixed) Goals() []Goal {
	gs := make([]Goal, len(f.goals))
	copy(gs, f.goals)
	return gs
}

func (f *Fixed) Evaluate(values map[string]models.GoalValue) (float64, error) {
	for name := range values {
		if f.goal(name) == nil {
			return 0, fmt.Errorf("%w: %s", ErrUnknownGoal, name)
		}
	}

	var total float64
	for _, g := range f.goals {
		v, ok := values[g.Name]
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrMissingGoal, g.Name)
		}
		score, err := g.score(v)
		if err != nil {
			return 0, err
		}
		total += score
	}
	return total, nil
}

func (f *Fixed) goal(name string) *Goal {
	for i := range f.goals {
		if f.goals[i].Name == name {
			return &f.goals[i]
		}
	}
	return nil
}

func (g *Goal) score(v models.GoalValue) (float64, error) {
	if g.Enumerated {
		if v.Enum == nil {
			return 0, fmt.Errorf("%w: goal %s expects an enumerated value", ErrValueType, g.Name)
		}
		for _, e := range g.EnumValues {
			if e.Value == *v.Enum {
				return e.Score, nil
			}
		}
		return 0, fmt.Errorf("%w: %q is not legal for goal %s", ErrIllegalValue, *v.Enum, g.Name)
	}

	if v.Numeric == nil {
		return 0, fmt.Errorf("%w: goal %s expects a numeric value", ErrValueType, g.Name)
	}
	if *v.Numeric < g.Min || *v.Numeric > g.Max {
		return 0, fmt.Errorf("%w: %v is outside [%v, %v] for goal %s", ErrIllegalValue, *v.Numeric, g.Min, g.Max, g.Name)
	}
	return *v.Numeric * g.Multiplier, nil
}

// MinimalScoreValues produces a synthetic but legal value set: the minimum
// legal numeric value, or the first legal enumerated value, for every goal.
// Used to exercise the formula for a dummy team during validation, never
// for real ranking.
func MinimalScoreValues(d Description) map[string]models.GoalValue {
	values := make(map[string]models.GoalValue)
	for _, g := range d.Goals() {
		if g.Enumerated {
			if len(g.EnumValues) > 0 {
				values[g.Name] = models.EnumValue(g.EnumValues[0].Value)
			}
			continue
		}
		values[g.Name] = models.NumericValue(g.Min)
	}
	return values
}
