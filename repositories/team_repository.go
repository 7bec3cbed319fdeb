package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kmahoney/robotourney/models"
)

var ErrTeamNotFound = errors.New("team not found")

// TeamRepository is the team directory collaborator.
type TeamRepository interface {
	LookupTeam(ctx context.Context, teamNumber int) (*models.Team, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Team, error)
	ListByAwardGroup(ctx context.Context, tournamentID int, awardGroup string) ([]*models.Team, error)
}

type postgresTeamRepository struct {
	db SQLExecutor
}

func NewPostgresTeamRepository(db SQLExecutor) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) LookupTeam(ctx context.Context, teamNumber int) (*models.Team, error) {
	query := `
		SELECT team_number, name, organization, region, award_group, judging_group
		FROM teams
		WHERE team_number = $1`

	team := &models.Team{}
	err := r.db.QueryRowContext(ctx, query, teamNumber).Scan(
		&team.Number,
		&team.Name,
		&team.Organization,
		&team.Region,
		&team.AwardGroup,
		&team.JudgingGroup,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to scan team %d: %w", teamNumber, err)
	}
	return team, nil
}

func (r *postgresTeamRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Team, error) {
	query := `
		SELECT t.team_number, t.name, t.organization, t.region, t.award_group, t.judging_group
		FROM teams t
		JOIN tournament_teams tt ON tt.team_number = t.team_number
		WHERE tt.tournament_id = $1
		ORDER BY t.team_number`

	return r.listTeams(ctx, query, tournamentID)
}

func (r *postgresTeamRepository) ListByAwardGroup(ctx context.Context, tournamentID int, awardGroup string) ([]*models.Team, error) {
	query := `
		SELECT t.team_number, t.name, t.organization, t.region, t.award_group, t.judging_group
		FROM teams t
		JOIN tournament_teams tt ON tt.team_number = t.team_number
		WHERE tt.tournament_id = $1 AND t.award_group = $2
		ORDER BY t.team_number`

	return r.listTeams(ctx, query, tournamentID, awardGroup)
}

func (r *postgresTeamRepository) listTeams(ctx context.Context, query string, args ...interface{}) ([]*models.Team, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	var teams []*models.Team
	for rows.Next() {
		team := &models.Team{}
		if err := rows.Scan(
			&team.Number,
			&team.Name,
			&team.Organization,
			&team.Region,
			&team.AwardGroup,
			&team.JudgingGroup,
		); err != nil {
			return nil, fmt.Errorf("failed to scan team row: %w", err)
		}
		teams = append(teams, team)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate team rows: %w", err)
	}
	return teams, nil
}
