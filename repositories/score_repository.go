package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/kmahoney/robotourney/models"
)

// ScoreRepository is the score store collaborator. FetchScore returns
// (nil, nil) when no run has been recorded yet; that is a normal state for
// the advancement engine, not an error.
type ScoreRepository interface {
	FetchScore(ctx context.Context, tournamentID, teamNumber, runNumber int) (*models.PerformanceRun, error)
	SeedingScores(ctx context.Context, tournamentID, runNumber int, teamNumbers []int) (map[int]*models.PerformanceRun, error)
}

type postgresScoreRepository struct {
	db SQLExecutor
}

func NewPostgresScoreRepository(db SQLExecutor) ScoreRepository {
	return &postgresScoreRepository{db: db}
}

func (r *postgresScoreRepository) FetchScore(ctx context.Context, tournamentID, teamNumber, runNumber int) (*models.PerformanceRun, error) {
	query := `
		SELECT team_number, run_number, goal_values, no_show, bye, verified
		FROM performance_runs
		WHERE tournament_id = $1 AND team_number = $2 AND run_number = $3`

	run, err := scanRun(r.db.QueryRowContext(ctx, query, tournamentID, teamNumber, runNumber))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch score for team %d run %d: %w", teamNumber, runNumber, err)
	}
	return run, nil
}

func (r *postgresScoreRepository) SeedingScores(ctx context.Context, tournamentID, runNumber int, teamNumbers []int) (map[int]*models.PerformanceRun, error) {
	query := `
		SELECT team_number, run_number, goal_values, no_show, bye, verified
		FROM performance_runs
		WHERE tournament_id = $1 AND run_number = $2 AND team_number = ANY($3)`

	rows, err := r.db.QueryContext(ctx, query, tournamentID, runNumber, pq.Array(teamNumbers))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch seeding scores for run %d: %w", runNumber, err)
	}
	defer rows.Close()

	runs := make(map[int]*models.PerformanceRun, len(teamNumbers))
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan seeding score: %w", err)
		}
		runs[run.TeamNumber] = run
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate seeding scores: %w", err)
	}
	return runs, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*models.PerformanceRun, error) {
	run := &models.PerformanceRun{}
	var rawGoals []byte
	if err := row.Scan(
		&run.TeamNumber,
		&run.RunNumber,
		&rawGoals,
		&run.NoShow,
		&run.Bye,
		&run.Verified,
	); err != nil {
		return nil, err
	}
	if len(rawGoals) > 0 {
		if err := json.Unmarshal(rawGoals, &run.GoalValues); err != nil {
			return nil, fmt.Errorf("failed to decode goal values for team %d run %d: %w", run.TeamNumber, run.RunNumber, err)
		}
	}
	return run, nil
}
