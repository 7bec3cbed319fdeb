package models

// Reserved team numbers for the sentinel entries that live outside the
// normal team numbering space. They are kept stable so bracket rows can be
// stored and reloaded across restarts.
const (
	ByeTeamNumber  = -1
	TieTeamNumber  = -2
	NullTeamNumber = -3
)

type TeamRefKind string

const (
	TeamRefReal TeamRefKind = "real"
	TeamRefBye  TeamRefKind = "bye"
	TeamRefTie  TeamRefKind = "tie"
	TeamRefNull TeamRefKind = "null"
)

// TeamRef is a closed variant over the entries a bracket row can hold:
// a real team, BYE (auto-loses), TIE (unresolved, needs a replay) or NULL
// (slot not decided yet). Sentinels never compare equal to real teams.
type TeamRef struct {
	Kind   TeamRefKind `json:"kind"`
	Number int         `json:"number"`
}

func RealTeam(number int) TeamRef {
	return TeamRef{Kind: TeamRefReal, Number: number}
}

func ByeTeam() TeamRef {
	return TeamRef{Kind: TeamRefBye, Number: ByeTeamNumber}
}

func TieTeam() TeamRef {
	return TeamRef{Kind: TeamRefTie, Number: TieTeamNumber}
}

func NullTeam() TeamRef {
	return TeamRef{Kind: TeamRefNull, Number: NullTeamNumber}
}

// TeamRefFromNumber maps a stored team number back onto the variant.
func TeamRefFromNumber(number int) TeamRef {
	switch number {
	case ByeTeamNumber:
		return ByeTeam()
	case TieTeamNumber:
		return TieTeam()
	case NullTeamNumber:
		return NullTeam()
	default:
		return RealTeam(number)
	}
}

func (r TeamRef) IsReal() bool { return r.Kind == TeamRefReal }
func (r TeamRef) IsBye() bool  { return r.Kind == TeamRefBye }
func (r TeamRef) IsTie() bool  { return r.Kind == TeamRefTie }
func (r TeamRef) IsNull() bool { return r.Kind == TeamRefNull }

// Team represents a registered team. Number is the unique identity; the
// grouping fields are assigned during scheduling and may change until the
// tournament starts.
type Team struct {
	Number       int    `json:"number" db:"team_number"`
	Name         string `json:"name" db:"name"`
	Organization string `json:"organization,omitempty" db:"organization"`
	Region       string `json:"region,omitempty" db:"region"`
	AwardGroup   string `json:"award_group,omitempty" db:"award_group"`
	JudgingGroup string `json:"judging_group,omitempty" db:"judging_group"`
}

// SortPolicy selects how entrants are ordered before bracket pairing.
type SortPolicy string

const (
	SortAlphabetical SortPolicy = "alphabetical"
	SortByScore      SortPolicy = "by_score"
	SortRandom       SortPolicy = "random"
)

// WinnerCriteria says which direction a score comparison runs.
type WinnerCriteria string

const (
	HighScoreWins WinnerCriteria = "high_score_wins"
	LowScoreWins  WinnerCriteria = "low_score_wins"
)
