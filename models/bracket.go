package models

// BracketRow is one slot of a named single-elimination bracket: the
// (round, line) position, the team currently occupying it and the run
// number used to look up that team's score for the round. Rows are created
// in bulk at initialization and only ever overwritten, never deleted, so
// earlier rounds stay reviewable.
type BracketRow struct {
	Bracket   string  `json:"bracket" db:"bracket_name"`
	Round     int     `json:"round" db:"playoff_round"`
	Line      int     `json:"line" db:"line_number"`
	Team      TeamRef `json:"team" db:"team_number"`
	RunNumber int     `json:"run_number" db:"run_number"`
}

// RowState is the derived state of a winner slot.
type RowState string

const (
	// RowStateEmpty means the feeding matches are not decided yet.
	RowStateEmpty RowState = "EMPTY"
	// RowStateAwaitingScore means both feeding teams are known but one or
	// both scores are still missing.
	RowStateAwaitingScore RowState = "AWAITING_SCORE"
	// RowStateTie means the compared scores were equal; a replay score has
	// to be entered by hand before the slot can resolve.
	RowStateTie RowState = "TIE"
	// RowStateResolved means the slot holds its final occupant.
	RowStateResolved RowState = "RESOLVED"
)
