package brackets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmahoney/robotourney/challenge"
	"github.com/kmahoney/robotourney/models"
)

// memRowStore mimics the database: LoadRows hands out copies so in-memory
// mutation by a sweep is invisible until StoreRows flushes it.
type memRowStore struct {
	rows map[RowKey]models.BracketRow
}

func newMemRowStore(rows []*models.BracketRow) *memRowStore {
	s := &memRowStore{rows: make(map[RowKey]models.BracketRow, len(rows))}
	for _, row := range rows {
		s.rows[RowKey{row.Round, row.Line}] = *row
	}
	return s
}

func (s *memRowStore) LoadRows(_ context.Context, _ int, _ string) ([]*models.BracketRow, error) {
	out := make([]*models.BracketRow, 0, len(s.rows))
	for _, row := range s.rows {
		copied := row
		out = append(out, &copied)
	}
	return out, nil
}

func (s *memRowStore) StoreRows(_ context.Context, _ int, rows []*models.BracketRow) error {
	for _, row := range rows {
		s.rows[RowKey{row.Round, row.Line}] = *row
	}
	return nil
}

func (s *memRowStore) teamAt(round, line int) models.TeamRef {
	return s.rows[RowKey{round, line}].Team
}

type scoreKey struct {
	team int
	run  int
}

type memScoreStore struct {
	runs map[scoreKey]*models.PerformanceRun
}

func newMemScoreStore() *memScoreStore {
	return &memScoreStore{runs: make(map[scoreKey]*models.PerformanceRun)}
}

func (s *memScoreStore) FetchScore(_ context.Context, _ int, teamNumber, runNumber int) (*models.PerformanceRun, error) {
	return s.runs[scoreKey{teamNumber, runNumber}], nil
}

func (s *memScoreStore) record(teamNumber, runNumber int, points float64) {
	s.runs[scoreKey{teamNumber, runNumber}] = &models.PerformanceRun{
		TeamNumber: teamNumber,
		RunNumber:  runNumber,
		GoalValues: map[string]models.GoalValue{"points": models.NumericValue(points)},
	}
}

func (s *memScoreStore) recordNoShow(teamNumber, runNumber int) {
	s.runs[scoreKey{teamNumber, runNumber}] = &models.PerformanceRun{
		TeamNumber: teamNumber,
		RunNumber:  runNumber,
		GoalValues: map[string]models.GoalValue{},
		NoShow:     true,
	}
}

func pointsScorer(t *testing.T) challenge.Description {
	t.Helper()
	return challenge.NewFixed([]challenge.Goal{
		{Name: "points", Min: 0, Max: 1000, Multiplier: 1},
	})
}

// setupBracket seeds six alphabetical entrants (101..106, names A..F) into
// an eight-slot bracket with first-round run 2.
func setupBracket(t *testing.T, criteria models.WinnerCriteria) (*Engine, *memRowStore, *memScoreStore) {
	t.Helper()

	teams := []*models.Team{
		team(101, "A"), team(102, "B"), team(103, "C"),
		team(104, "D"), team(105, "E"), team(106, "F"),
	}
	order := FirstRoundOrder(SeedOrder(teams, models.SortAlphabetical, criteria, nil, nil))
	rowStore := newMemRowStore(InitializeRows("playoff", order, 2))
	scoreStore := newMemScoreStore()
	engine := NewEngine(rowStore, scoreStore, pointsScorer(t), criteria)
	return engine, rowStore, scoreStore
}

func TestAdvanceUnknownBracket(t *testing.T) {
	engine := NewEngine(newMemRowStore(nil), newMemScoreStore(), pointsScorer(t), models.HighScoreWins)

	_, err := engine.Advance(context.Background(), 1, "missing")

	require.ErrorIs(t, err, ErrUnknownBracket)
}

func TestAdvanceResolvesByesImmediately(t *testing.T) {
	engine, rows, _ := setupBracket(t, models.HighScoreWins)

	changed, err := engine.Advance(context.Background(), 1, "playoff")
	require.NoError(t, err)

	// First round: (101 vs BYE) and (BYE vs 102) decide without scores.
	assert.Len(t, changed, 2)
	assert.Equal(t, models.RealTeam(101), rows.teamAt(2, 1))
	assert.Equal(t, models.RealTeam(102), rows.teamAt(2, 4))
	assert.True(t, rows.teamAt(2, 2).IsNull())
	assert.True(t, rows.teamAt(2, 3).IsNull())
}

func TestAdvanceIsIdempotent(t *testing.T) {
	engine, _, scores := setupBracket(t, models.HighScoreWins)
	scores.record(105, 2, 50)
	scores.record(104, 2, 40)

	first, err := engine.Advance(context.Background(), 1, "playoff")
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := engine.Advance(context.Background(), 1, "playoff")
	require.NoError(t, err)
	assert.Empty(t, second)
}

func TestAdvanceHighScoreWins(t *testing.T) {
	engine, rows, scores := setupBracket(t, models.HighScoreWins)
	scores.record(105, 2, 50)
	scores.record(104, 2, 40)

	_, err := engine.Advance(context.Background(), 1, "playoff")
	require.NoError(t, err)

	assert.Equal(t, models.RealTeam(105), rows.teamAt(2, 2))
}

func TestAdvanceLowScoreWins(t *testing.T) {
	engine, rows, scores := setupBracket(t, models.LowScoreWins)
	scores.record(105, 2, 50)
	scores.record(104, 2, 40)

	_, err := engine.Advance(context.Background(), 1, "playoff")
	require.NoError(t, err)

	assert.Equal(t, models.RealTeam(104), rows.teamAt(2, 2))
}

func TestAdvanceOneSidedScoreDecides(t *testing.T) {
	engine, rows, scores := setupBracket(t, models.HighScoreWins)
	scores.record(105, 2, 10)
	scores.recordNoShow(104, 2)

	_, err := engine.Advance(context.Background(), 1, "playoff")
	require.NoError(t, err)

	// A no-show run yields no usable score, so the scored side wins.
	assert.Equal(t, models.RealTeam(105), rows.teamAt(2, 2))
}

func TestAdvanceBothMissingStaysOpen(t *testing.T) {
	engine, rows, _ := setupBracket(t, models.HighScoreWins)

	_, err := engine.Advance(context.Background(), 1, "playoff")
	require.NoError(t, err)

	assert.True(t, rows.teamAt(2, 2).IsNull())
	assert.True(t, rows.teamAt(2, 3).IsNull())
}

func TestAdvanceWritesTieSentinel(t *testing.T) {
	engine, rows, scores := setupBracket(t, models.HighScoreWins)
	scores.record(105, 2, 33)
	scores.record(104, 2, 33)

	_, err := engine.Advance(context.Background(), 1, "playoff")
	require.NoError(t, err)

	assert.True(t, rows.teamAt(2, 2).IsTie())
}

func TestAdvanceReplayOverwritesTie(t *testing.T) {
	engine, rows, scores := setupBracket(t, models.HighScoreWins)
	scores.record(105, 2, 33)
	scores.record(104, 2, 33)

	_, err := engine.Advance(context.Background(), 1, "playoff")
	require.NoError(t, err)
	require.True(t, rows.teamAt(2, 2).IsTie())

	scores.record(105, 2, 44)
	_, err = engine.Advance(context.Background(), 1, "playoff")
	require.NoError(t, err)

	assert.Equal(t, models.RealTeam(105), rows.teamAt(2, 2))
}

func TestFinishRefusesWhileTied(t *testing.T) {
	engine, rows, scores := setupBracket(t, models.HighScoreWins)
	scores.record(105, 2, 33)
	scores.record(104, 2, 33)

	before, err := rows.LoadRows(context.Background(), 1, "playoff")
	require.NoError(t, err)
	snapshot := make(map[RowKey]models.TeamRef, len(before))
	for _, row := range before {
		snapshot[RowKey{row.Round, row.Line}] = row.Team
	}

	finished, err := engine.Finish(context.Background(), 1, "playoff")
	require.NoError(t, err)
	assert.False(t, finished)

	// A refused finish writes nothing, not even the decidable bye matches.
	after, err := rows.LoadRows(context.Background(), 1, "playoff")
	require.NoError(t, err)
	for _, row := range after {
		assert.Equal(t, snapshot[RowKey{row.Round, row.Line}], row.Team,
			"round %d line %d changed", row.Round, row.Line)
	}
}

func TestFinishRefusesWhileAwaitingScores(t *testing.T) {
	engine, _, _ := setupBracket(t, models.HighScoreWins)

	finished, err := engine.Finish(context.Background(), 1, "playoff")
	require.NoError(t, err)
	assert.False(t, finished)
}

func TestFullBracketRun(t *testing.T) {
	engine, rows, scores := setupBracket(t, models.HighScoreWins)
	ctx := context.Background()

	// Byes advance 101 and 102; scored quarterfinals advance 105 and 106.
	scores.record(105, 2, 50)
	scores.record(104, 2, 40)
	scores.record(103, 2, 30)
	scores.record(106, 2, 60)
	_, err := engine.Advance(ctx, 1, "playoff")
	require.NoError(t, err)

	assert.Equal(t, models.RealTeam(101), rows.teamAt(2, 1))
	assert.Equal(t, models.RealTeam(105), rows.teamAt(2, 2))
	assert.Equal(t, models.RealTeam(106), rows.teamAt(2, 3))
	assert.Equal(t, models.RealTeam(102), rows.teamAt(2, 4))

	// Semifinals (run 3); losers drop to the consolation match.
	scores.record(101, 3, 80)
	scores.record(105, 3, 70)
	scores.record(106, 3, 20)
	scores.record(102, 3, 90)
	_, err = engine.Advance(ctx, 1, "playoff")
	require.NoError(t, err)

	assert.Equal(t, models.RealTeam(101), rows.teamAt(3, 1))
	assert.Equal(t, models.RealTeam(102), rows.teamAt(3, 2))
	assert.Equal(t, models.RealTeam(105), rows.teamAt(3, 3))
	assert.Equal(t, models.RealTeam(106), rows.teamAt(3, 4))

	unfinished, err := engine.IsUnfinished(ctx, 1, "playoff")
	require.NoError(t, err)
	assert.True(t, unfinished)

	// Final and consolation (run 4); the consolation ties first.
	scores.record(101, 4, 100)
	scores.record(102, 4, 95)
	scores.record(105, 4, 55)
	scores.record(106, 4, 55)
	_, err = engine.Advance(ctx, 1, "playoff")
	require.NoError(t, err)

	assert.Equal(t, models.RealTeam(101), rows.teamAt(4, 1))
	assert.True(t, rows.teamAt(4, 3).IsTie())

	finished, err := engine.Finish(ctx, 1, "playoff")
	require.NoError(t, err)
	assert.False(t, finished)

	// Replay breaks the tie; Finish overwrites the stale sentinel and
	// completes the bracket in one pass.
	scores.record(106, 4, 60)
	finished, err = engine.Finish(ctx, 1, "playoff")
	require.NoError(t, err)
	assert.True(t, finished)
	assert.Equal(t, models.RealTeam(106), rows.teamAt(4, 3))

	unfinished, err = engine.IsUnfinished(ctx, 1, "playoff")
	require.NoError(t, err)
	assert.False(t, unfinished)
}

func TestFinishResolvesRemainingMatches(t *testing.T) {
	engine, rows, scores := setupBracket(t, models.HighScoreWins)
	ctx := context.Background()

	scores.record(105, 2, 50)
	scores.record(104, 2, 40)
	scores.record(103, 2, 30)
	scores.record(106, 2, 60)
	scores.record(101, 3, 80)
	scores.record(105, 3, 70)
	scores.record(106, 3, 20)
	scores.record(102, 3, 90)
	scores.record(101, 4, 100)
	scores.record(102, 4, 95)
	scores.record(105, 4, 55)
	scores.record(106, 4, 65)

	// One Finish call sweeps the whole bracket without a prior Advance.
	finished, err := engine.Finish(ctx, 1, "playoff")
	require.NoError(t, err)
	assert.True(t, finished)
	assert.Equal(t, models.RealTeam(101), rows.teamAt(4, 1))
	assert.Equal(t, models.RealTeam(106), rows.teamAt(4, 3))

	// A second call with no new scores finds nothing left to resolve.
	finished, err = engine.Finish(ctx, 1, "playoff")
	require.NoError(t, err)
	assert.False(t, finished)

	unfinished, err := engine.IsUnfinished(ctx, 1, "playoff")
	require.NoError(t, err)
	assert.False(t, unfinished)
}

func TestFinishAfterAdvanceResolvedEverything(t *testing.T) {
	engine, _, scores := setupBracket(t, models.HighScoreWins)
	ctx := context.Background()

	scores.record(105, 2, 50)
	scores.record(104, 2, 40)
	scores.record(103, 2, 30)
	scores.record(106, 2, 60)
	scores.record(101, 3, 80)
	scores.record(105, 3, 70)
	scores.record(106, 3, 20)
	scores.record(102, 3, 90)
	scores.record(101, 4, 100)
	scores.record(102, 4, 95)
	scores.record(105, 4, 55)
	scores.record(106, 4, 65)

	_, err := engine.Advance(ctx, 1, "playoff")
	require.NoError(t, err)

	// Advance already placed every winner; Finish has no work left, even
	// though the bracket is complete.
	finished, err := engine.Finish(ctx, 1, "playoff")
	require.NoError(t, err)
	assert.False(t, finished)

	unfinished, err := engine.IsUnfinished(ctx, 1, "playoff")
	require.NoError(t, err)
	assert.False(t, unfinished)
}

func TestIsUnfinishedDetectsTieAnywhere(t *testing.T) {
	engine, _, scores := setupBracket(t, models.HighScoreWins)
	scores.record(105, 2, 33)
	scores.record(104, 2, 33)

	_, err := engine.Advance(context.Background(), 1, "playoff")
	require.NoError(t, err)

	unfinished, err := engine.IsUnfinished(context.Background(), 1, "playoff")
	require.NoError(t, err)
	assert.True(t, unfinished)
}

func TestRowStates(t *testing.T) {
	engine, rows, scores := setupBracket(t, models.HighScoreWins)
	scores.record(105, 2, 33)
	scores.record(104, 2, 33)

	_, err := engine.Advance(context.Background(), 1, "playoff")
	require.NoError(t, err)

	loaded, err := rows.LoadRows(context.Background(), 1, "playoff")
	require.NoError(t, err)
	states, err := RowStates("playoff", loaded)
	require.NoError(t, err)

	// Bye winners are resolved, the tied slot is marked, the semifinal slot
	// fed by two known teams awaits scores, deeper slots stay empty.
	assert.Equal(t, models.RowStateResolved, states[RowKey{2, 1}])
	assert.Equal(t, models.RowStateTie, states[RowKey{2, 2}])
	assert.Equal(t, models.RowStateEmpty, states[RowKey{3, 1}])
	assert.Equal(t, models.RowStateEmpty, states[RowKey{4, 1}])
}

func TestBuildTreeRejectsCorruptRows(t *testing.T) {
	t.Run("duplicate position", func(t *testing.T) {
		rows := []*models.BracketRow{
			{Bracket: "x", Round: 1, Line: 1, Team: models.RealTeam(1)},
			{Bracket: "x", Round: 1, Line: 1, Team: models.RealTeam(2)},
		}
		_, err := buildTree("x", rows)
		require.ErrorIs(t, err, ErrInconsistentBracket)
	})

	t.Run("first round not a power of two", func(t *testing.T) {
		rows := []*models.BracketRow{
			{Bracket: "x", Round: 1, Line: 1, Team: models.RealTeam(1)},
			{Bracket: "x", Round: 1, Line: 2, Team: models.RealTeam(2)},
			{Bracket: "x", Round: 1, Line: 3, Team: models.RealTeam(3)},
		}
		_, err := buildTree("x", rows)
		require.ErrorIs(t, err, ErrInconsistentBracket)
	})

	t.Run("no first round", func(t *testing.T) {
		rows := []*models.BracketRow{
			{Bracket: "x", Round: 2, Line: 1, Team: models.NullTeam()},
		}
		_, err := buildTree("x", rows)
		require.ErrorIs(t, err, ErrInconsistentBracket)
	})
}

func TestAdvanceDetectsPrematureResolution(t *testing.T) {
	engine, rows, _ := setupBracket(t, models.HighScoreWins)

	// Corrupt the stored state: a semifinal slot resolved while its feeding
	// quarterfinal is still open.
	corrupted := rows.rows[RowKey{3, 1}]
	corrupted.Team = models.RealTeam(105)
	rows.rows[RowKey{3, 1}] = corrupted

	_, err := engine.Advance(context.Background(), 1, "playoff")
	require.ErrorIs(t, err, ErrInconsistentBracket)
}
