package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kmahoney/robotourney/models"
)

// BracketRowRepository persists playoff bracket rows. Rows are only ever
// inserted or overwritten, never deleted, so bracket history stays
// reviewable. StoreRows flushes a whole advancement pass inside one
// transaction: either every update of the pass becomes visible or none do.
type BracketRowRepository interface {
	LoadRows(ctx context.Context, tournamentID int, bracket string) ([]*models.BracketRow, error)
	StoreRows(ctx context.Context, tournamentID int, rows []*models.BracketRow) error
	ListBrackets(ctx context.Context, tournamentID int) ([]string, error)
}

type postgresBracketRowRepository struct {
	db *sql.DB
}

func NewPostgresBracketRowRepository(db *sql.DB) BracketRowRepository {
	return &postgresBracketRowRepository{db: db}
}

func (r *postgresBracketRowRepository) LoadRows(ctx context.Context, tournamentID int, bracket string) ([]*models.BracketRow, error) {
	query := `
		SELECT bracket_name, playoff_round, line_number, team_number, run_number
		FROM playoff_rows
		WHERE tournament_id = $1 AND bracket_name = $2
		ORDER BY playoff_round, line_number`

	dbRows, err := r.db.QueryContext(ctx, query, tournamentID, bracket)
	if err != nil {
		return nil, fmt.Errorf("failed to load bracket rows for %s: %w", bracket, err)
	}
	defer dbRows.Close()

	var rows []*models.BracketRow
	for dbRows.Next() {
		row := &models.BracketRow{}
		var teamNumber int
		if err := dbRows.Scan(
			&row.Bracket,
			&row.Round,
			&row.Line,
			&teamNumber,
			&row.RunNumber,
		); err != nil {
			return nil, fmt.Errorf("failed to scan bracket row: %w", err)
		}
		row.Team = models.TeamRefFromNumber(teamNumber)
		rows = append(rows, row)
	}
	if err := dbRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bracket rows: %w", err)
	}
	return rows, nil
}

func (r *postgresBracketRowRepository) StoreRows(ctx context.Context, tournamentID int, rows []*models.BracketRow) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin bracket row transaction: %w", err)
	}

	query := `
		INSERT INTO playoff_rows
			(tournament_id, bracket_name, playoff_round, line_number, team_number, run_number)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (tournament_id, bracket_name, playoff_round, line_number)
		DO UPDATE SET team_number = EXCLUDED.team_number, run_number = EXCLUDED.run_number`

	for _, row := range rows {
		if _, err := tx.ExecContext(ctx, query,
			tournamentID,
			row.Bracket,
			row.Round,
			row.Line,
			row.Team.Number,
			row.RunNumber,
		); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				return fmt.Errorf("failed to store bracket row (rollback also failed: %v): %w", rbErr, err)
			}
			return fmt.Errorf("failed to store bracket row %s round %d line %d: %w", row.Bracket, row.Round, row.Line, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit bracket rows: %w", err)
	}
	return nil
}

func (r *postgresBracketRowRepository) ListBrackets(ctx context.Context, tournamentID int) ([]string, error) {
	query := `
		SELECT DISTINCT bracket_name
		FROM playoff_rows
		WHERE tournament_id = $1
		ORDER BY bracket_name`

	dbRows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list brackets: %w", err)
	}
	defer dbRows.Close()

	var names []string
	for dbRows.Next() {
		var name string
		if err := dbRows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan bracket name: %w", err)
		}
		names = append(names, name)
	}
	if err := dbRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bracket names: %w", err)
	}
	return names, nil
}
