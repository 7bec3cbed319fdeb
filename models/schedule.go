package models

import "time"

// SubjectiveAssignment is one judging-session slot for a team.
type SubjectiveAssignment struct {
	Station string    `json:"station"`
	Room    string    `json:"room"`
	Time    time.Time `json:"time"`
}

// PerformanceAssignment is one performance-run slot for a team.
type PerformanceAssignment struct {
	Run   int       `json:"run"`
	Time  time.Time `json:"time"`
	Table string    `json:"table"`
	Side  int       `json:"side"`
}

// TeamScheduleInfo is one team's full day: every subjective station visit
// and every performance run. Built once per schedule upload or generation
// and is the unit the constraint checker iterates over.
type TeamScheduleInfo struct {
	TeamNumber   int                     `json:"team_number"`
	AwardGroup   string                  `json:"award_group,omitempty"`
	JudgingGroup string                  `json:"judging_group,omitempty"`
	Subjective   []SubjectiveAssignment  `json:"subjective"`
	Performance  []PerformanceAssignment `json:"performance"`
}

// Severity classifies a constraint violation. Hard violations describe a
// physically impossible schedule and block acceptance; soft ones are
// warnings the organizer may choose to live with.
type Severity string

const (
	SeverityHard Severity = "HARD"
	SeveritySoft Severity = "SOFT"
)

// ConstraintViolation is a normal result of schedule validation, not an
// error. Entries name the offending schedule slots in human terms.
type ConstraintViolation struct {
	Severity   Severity `json:"severity"`
	TeamNumber int      `json:"team_number,omitempty"`
	Message    string   `json:"message"`
	Entries    []string `json:"entries,omitempty"`
}
