package brackets

import (
	"fmt"

	"github.com/kmahoney/robotourney/models"
)

// tree is the in-memory view of one bracket's rows, indexed by position.
type tree struct {
	bracket     string
	size        int
	rounds      int
	consolation bool
	index       map[RowKey]*models.BracketRow
	all         []*models.BracketRow
}

func buildTree(bracket string, rows []*models.BracketRow) (*tree, error) {
	t := &tree{
		bracket: bracket,
		index:   make(map[RowKey]*models.BracketRow, len(rows)),
		all:     rows,
	}

	for _, row := range rows {
		key := RowKey{row.Round, row.Line}
		if _, dup := t.index[key]; dup {
			return nil, fmt.Errorf("%w: bracket %s has duplicate row at round %d line %d", ErrInconsistentBracket, bracket, row.Round, row.Line)
		}
		t.index[key] = row
		if row.Round == 1 {
			t.size++
		}
	}

	if t.size == 0 {
		return nil, fmt.Errorf("%w: bracket %s has no first-round rows", ErrInconsistentBracket, bracket)
	}
	if NextPowerOfTwo(t.size) != t.size {
		return nil, fmt.Errorf("%w: bracket %s first round holds %d rows, not a power of two", ErrInconsistentBracket, bracket, t.size)
	}

	t.rounds = NumRounds(t.size)
	t.consolation = t.size >= 4
	return t, nil
}

func (t *tree) row(round, line int) *models.BracketRow {
	return t.index[RowKey{round, line}]
}

// match is one pairing: the two source lines of a round, the slot its
// winner advances to and, for semifinals with a consolation bracket, the
// slot its loser drops to.
type match struct {
	round        int
	line1, line2 int
	winnerRound  int
	winnerLine   int
	loserRound   int
	loserLine    int
}

// matches lists every pairing in round order: winners of lines (2k-1, 2k)
// of round r fill line k of round r+1, the final's winner fills line 1 past
// the last round, semifinal losers meet in the consolation match on lines
// 3 and 4 of the final round, and its winner fills line 3 past the last
// round.
func (t *tree) matches() []match {
	if t.rounds == 0 {
		return nil
	}

	var out []match
	for r := 1; r < t.rounds; r++ {
		lines := t.size >> uint(r-1)
		for k := 1; k <= lines/2; k++ {
			m := match{
				round:       r,
				line1:       2*k - 1,
				line2:       2 * k,
				winnerRound: r + 1,
				winnerLine:  k,
			}
			if t.consolation && r == t.rounds-1 {
				m.loserRound = t.rounds
				m.loserLine = k + 2
			}
			out = append(out, m)
		}
	}

	out = append(out, match{
		round:       t.rounds,
		line1:       1,
		line2:       2,
		winnerRound: t.rounds + 1,
		winnerLine:  1,
	})
	if t.consolation {
		out = append(out, match{
			round:       t.rounds,
			line1:       3,
			line2:       4,
			winnerRound: t.rounds + 1,
			winnerLine:  3,
		})
	}
	return out
}

// allResolved reports whether every slot holds a final occupant.
func (t *tree) allResolved() bool {
	for _, row := range t.all {
		if row.Team.IsNull() || row.Team.IsTie() {
			return false
		}
	}
	return true
}
