package brackets

import (
	"context"
	"errors"
	"fmt"

	"github.com/kmahoney/robotourney/models"
)

var (
	// ErrUnknownBracket is returned when no rows exist under the name.
	ErrUnknownBracket = errors.New("bracket not found")
	// ErrInconsistentBracket flags corrupted bracket state, e.g. a resolved
	// slot whose feeding matches are still empty. Never silently repaired.
	ErrInconsistentBracket = errors.New("inconsistent bracket state")
)

// RowStore persists bracket rows. StoreRows must make all updates of one
// advancement pass visible together or not at all.
type RowStore interface {
	LoadRows(ctx context.Context, tournamentID int, bracket string) ([]*models.BracketRow, error)
	StoreRows(ctx context.Context, tournamentID int, rows []*models.BracketRow) error
}

// ScoreStore fetches performance runs. A nil run with a nil error means no
// score has been recorded yet.
type ScoreStore interface {
	FetchScore(ctx context.Context, tournamentID, teamNumber, runNumber int) (*models.PerformanceRun, error)
}

// Scorer is the challenge formula collaborator.
type Scorer interface {
	Evaluate(values map[string]models.GoalValue) (float64, error)
}

// Engine advances a single-elimination bracket as scores arrive. All reads
// happen at call start and all writes are flushed in one StoreRows call, so
// a failed pass never leaves the bracket partially mutated.
type Engine struct {
	rows     RowStore
	scores   ScoreStore
	scorer   Scorer
	criteria models.WinnerCriteria
}

func NewEngine(rows RowStore, scores ScoreStore, scorer Scorer, criteria models.WinnerCriteria) *Engine {
	return &Engine{
		rows:     rows,
		scores:   scores,
		scorer:   scorer,
		criteria: criteria,
	}
}

// Advance recomputes every match from current scores, writing winners into
// later rounds and TIE sentinels where compared scores are equal. Safe to
// re-run at any time: a TIE is overwritten once a replay score breaks the
// equality. Returns the rows that changed.
func (e *Engine) Advance(ctx context.Context, tournamentID int, bracket string) ([]*models.BracketRow, error) {
	t, err := e.load(ctx, tournamentID, bracket)
	if err != nil {
		return nil, err
	}

	changed, _, err := e.sweep(ctx, tournamentID, t, true)
	if err != nil {
		return nil, err
	}
	if len(changed) > 0 {
		if err := e.rows.StoreRows(ctx, tournamentID, changed); err != nil {
			return nil, fmt.Errorf("failed to store advanced rows for bracket %s: %w", bracket, err)
		}
	}
	return changed, nil
}

// Finish attempts to resolve every slot still awaiting a score. Ties are
// never auto-resolved: if any comparison comes out equal, Finish writes
// nothing and returns false. True means this call did the final resolving
// work; a repeat call with no new scores finds nothing left to resolve and
// returns false, as does a call on a bracket some other pass already
// completed. IsUnfinished is the completion check, not Finish's return.
func (e *Engine) Finish(ctx context.Context, tournamentID int, bracket string) (bool, error) {
	t, err := e.load(ctx, tournamentID, bracket)
	if err != nil {
		return false, err
	}

	changed, tieFound, err := e.sweep(ctx, tournamentID, t, false)
	if err != nil {
		return false, err
	}
	if tieFound {
		return false, nil
	}
	if len(changed) == 0 {
		return false, nil
	}
	if err := e.rows.StoreRows(ctx, tournamentID, changed); err != nil {
		return false, fmt.Errorf("failed to store finished rows for bracket %s: %w", bracket, err)
	}
	return t.allResolved(), nil
}

// IsUnfinished walks every round of the bracket: true if any slot past the
// first round is still NULL, or a TIE sentinel sits anywhere on the path to
// the final. The final and the third-place match are independent
// completion requirements; both must resolve.
func (e *Engine) IsUnfinished(ctx context.Context, tournamentID int, bracket string) (bool, error) {
	t, err := e.load(ctx, tournamentID, bracket)
	if err != nil {
		return false, err
	}

	for _, row := range t.all {
		if row.Team.IsTie() {
			return true, nil
		}
		if row.Round > 1 && row.Team.IsNull() {
			return true, nil
		}
	}
	return false, nil
}

func (e *Engine) load(ctx context.Context, tournamentID int, bracket string) (*tree, error) {
	rows, err := e.rows.LoadRows(ctx, tournamentID, bracket)
	if err != nil {
		return nil, fmt.Errorf("failed to load rows for bracket %s: %w", bracket, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBracket, bracket)
	}
	return buildTree(bracket, rows)
}

// sweep walks the matches round by round, propagating winners in memory so
// later rounds see results from earlier ones in the same pass. With
// writeTies set, equal comparisons stamp TIE sentinels into the affected
// slots; otherwise they only raise the tieFound flag.
func (e *Engine) sweep(ctx context.Context, tournamentID int, t *tree, writeTies bool) ([]*models.BracketRow, bool, error) {
	var changed []*models.BracketRow
	tieFound := false

	set := func(row *models.BracketRow, team models.TeamRef) {
		if row.Team != team {
			row.Team = team
			changed = append(changed, row)
		}
	}

	for _, m := range t.matches() {
		a := t.row(m.round, m.line1)
		b := t.row(m.round, m.line2)
		winnerSlot := t.row(m.winnerRound, m.winnerLine)
		if a == nil || b == nil || winnerSlot == nil {
			return nil, false, fmt.Errorf("%w: bracket %s round %d is missing rows", ErrInconsistentBracket, t.bracket, m.round)
		}
		var loserSlot *models.BracketRow
		if m.loserRound > 0 {
			loserSlot = t.row(m.loserRound, m.loserLine)
			if loserSlot == nil {
				return nil, false, fmt.Errorf("%w: bracket %s has no consolation slot for round %d", ErrInconsistentBracket, t.bracket, m.round)
			}
		}

		res, err := e.decide(ctx, tournamentID, a.Team, b.Team, a.RunNumber)
		if err != nil {
			return nil, false, err
		}

		switch res.state {
		case outcomePending:
			if a.Team.IsNull() || b.Team.IsNull() {
				if winnerSlot.Team.IsReal() || winnerSlot.Team.IsBye() {
					return nil, false, fmt.Errorf("%w: bracket %s round %d line %d resolved before its sources", ErrInconsistentBracket, t.bracket, m.winnerRound, m.winnerLine)
				}
			}
		case outcomeAwaiting:
			// Leave the slot as it stands until scores arrive.
		case outcomeTie:
			tieFound = true
			if writeTies {
				set(winnerSlot, models.TieTeam())
				if loserSlot != nil {
					set(loserSlot, models.TieTeam())
				}
			}
		case outcomeDecided:
			set(winnerSlot, res.winner)
			if loserSlot != nil {
				set(loserSlot, res.loser)
			}
		}
	}

	return changed, tieFound, nil
}

type outcome int

const (
	outcomePending outcome = iota
	outcomeAwaiting
	outcomeTie
	outcomeDecided
)

type matchResult struct {
	state  outcome
	winner models.TeamRef
	loser  models.TeamRef
}

// decide determines a single match. A BYE always loses to a real team with
// no score comparison; a team with a score beats a team without one; two
// missing scores leave the match open; equal scores are a tie.
func (e *Engine) decide(ctx context.Context, tournamentID int, a, b models.TeamRef, runNumber int) (matchResult, error) {
	if a.IsNull() || b.IsNull() || a.IsTie() || b.IsTie() {
		return matchResult{state: outcomePending}, nil
	}

	if a.IsBye() && b.IsBye() {
		return matchResult{state: outcomeDecided, winner: models.ByeTeam(), loser: models.ByeTeam()}, nil
	}
	if a.IsBye() {
		return matchResult{state: outcomeDecided, winner: b, loser: a}, nil
	}
	if b.IsBye() {
		return matchResult{state: outcomeDecided, winner: a, loser: b}, nil
	}

	scoreA, okA, err := e.scoreOf(ctx, tournamentID, a.Number, runNumber)
	if err != nil {
		return matchResult{}, err
	}
	scoreB, okB, err := e.scoreOf(ctx, tournamentID, b.Number, runNumber)
	if err != nil {
		return matchResult{}, err
	}

	switch {
	case !okA && !okB:
		return matchResult{state: outcomeAwaiting}, nil
	case !okA:
		return matchResult{state: outcomeDecided, winner: b, loser: a}, nil
	case !okB:
		return matchResult{state: outcomeDecided, winner: a, loser: b}, nil
	case scoreA == scoreB:
		return matchResult{state: outcomeTie}, nil
	}

	aWins := scoreA > scoreB
	if e.criteria == models.LowScoreWins {
		aWins = !aWins
	}
	if aWins {
		return matchResult{state: outcomeDecided, winner: a, loser: b}, nil
	}
	return matchResult{state: outcomeDecided, winner: b, loser: a}, nil
}

// scoreOf returns the team's computed score for the run, with ok=false when
// no usable score exists (no run recorded, no-show or bye run).
func (e *Engine) scoreOf(ctx context.Context, tournamentID, teamNumber, runNumber int) (float64, bool, error) {
	run, err := e.scores.FetchScore(ctx, tournamentID, teamNumber, runNumber)
	if err != nil {
		return 0, false, fmt.Errorf("failed to fetch score for team %d run %d: %w", teamNumber, runNumber, err)
	}
	if run == nil || !run.Scoreable() {
		return 0, false, nil
	}
	value, err := e.scorer.Evaluate(run.GoalValues)
	if err != nil {
		return 0, false, fmt.Errorf("failed to evaluate score for team %d run %d: %w", teamNumber, runNumber, err)
	}
	return value, true, nil
}

// RowKey addresses a bracket slot.
type RowKey struct {
	Round int
	Line  int
}

// RowStates derives the display state of every slot: first-round rows are
// resolved by construction; a later slot is EMPTY until both feeders are
// known, AWAITING_SCORE once they are, TIE or RESOLVED per its occupant.
func RowStates(bracket string, rows []*models.BracketRow) (map[RowKey]models.RowState, error) {
	t, err := buildTree(bracket, rows)
	if err != nil {
		return nil, err
	}

	states := make(map[RowKey]models.RowState, len(rows))
	for _, row := range rows {
		switch {
		case row.Team.IsTie():
			states[RowKey{row.Round, row.Line}] = models.RowStateTie
		case !row.Team.IsNull():
			states[RowKey{row.Round, row.Line}] = models.RowStateResolved
		default:
			states[RowKey{row.Round, row.Line}] = models.RowStateEmpty
		}
	}

	for _, m := range t.matches() {
		a := t.row(m.round, m.line1)
		b := t.row(m.round, m.line2)
		if a == nil || b == nil {
			continue
		}
		feedersKnown := (a.Team.IsReal() || a.Team.IsBye()) && (b.Team.IsReal() || b.Team.IsBye())
		if !feedersKnown {
			continue
		}
		winnerKey := RowKey{m.winnerRound, m.winnerLine}
		if states[winnerKey] == models.RowStateEmpty {
			states[winnerKey] = models.RowStateAwaitingScore
		}
		if m.loserRound > 0 {
			loserKey := RowKey{m.loserRound, m.loserLine}
			if states[loserKey] == models.RowStateEmpty {
				states[loserKey] = models.RowStateAwaitingScore
			}
		}
	}

	return states, nil
}
