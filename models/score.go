package models

// GoalValue holds the recorded value for one goal of a performance run.
// Exactly one of Numeric or Enum is set, matching the goal's type in the
// challenge description.
type GoalValue struct {
	Numeric *float64 `json:"numeric,omitempty"`
	Enum    *string  `json:"enum,omitempty"`
}

func NumericValue(v float64) GoalValue {
	return GoalValue{Numeric: &v}
}

func EnumValue(v string) GoalValue {
	return GoalValue{Enum: &v}
}

// PerformanceRun is one scored attempt by a team. A run flagged no-show or
// bye produces no usable score for ranking, regardless of goal values.
type PerformanceRun struct {
	TeamNumber int                  `json:"team_number" db:"team_number"`
	RunNumber  int                  `json:"run_number" db:"run_number"`
	GoalValues map[string]GoalValue `json:"goal_values" db:"goal_values"`
	NoShow     bool                 `json:"no_show" db:"no_show"`
	Bye        bool                 `json:"bye" db:"bye"`
	Verified   bool                 `json:"verified" db:"verified"`
}

// Scoreable reports whether the run can yield a numeric score at all.
func (r *PerformanceRun) Scoreable() bool {
	return !r.NoShow && !r.Bye
}
