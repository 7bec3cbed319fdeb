// Package schedule validates a tournament run-of-show against timing and
// resource constraints and assigns finalist time slots.
package schedule

import "time"

// Params is the explicit parameter set for schedule checking, passed into
// each checker instance instead of read from shared state.
type Params struct {
	// PerformanceDuration is how long a team occupies its table slot.
	PerformanceDuration time.Duration
	// SubjectiveDuration is how long one judging session runs.
	SubjectiveDuration time.Duration
	// Changetime is the minimum gap a team needs between any two events.
	Changetime time.Duration
	// PerformanceChangetime is the larger gap required between two of the
	// same team's performance runs.
	PerformanceChangetime time.Duration
	// SubjectiveStations lists the judging stations every team visits.
	SubjectiveStations []string
}

func DefaultParams() Params {
	return Params{
		PerformanceDuration:   5 * time.Minute,
		SubjectiveDuration:    20 * time.Minute,
		Changetime:            15 * time.Minute,
		PerformanceChangetime: 45 * time.Minute,
		SubjectiveStations:    []string{"Project", "Robot Design", "Core Values"},
	}
}
