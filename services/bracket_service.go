package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kmahoney/robotourney/brackets"
	"github.com/kmahoney/robotourney/challenge"
	"github.com/kmahoney/robotourney/models"
	"github.com/kmahoney/robotourney/repositories"
)

// SeedBracketInput describes one bracket to create. Entrants come either
// from an explicit team-number list or, when that is empty, from the award
// group's roster (the whole tournament roster if both are empty).
type SeedBracketInput struct {
	TournamentID     int               `json:"tournament_id"`
	Bracket          string            `json:"bracket"`
	AwardGroup       string            `json:"award_group,omitempty"`
	TeamNumbers      []int             `json:"team_numbers,omitempty"`
	SortPolicy       models.SortPolicy `json:"sort_policy"`
	SeedingRunNumber int               `json:"seeding_run_number,omitempty"`
	FirstRunNumber   int               `json:"first_run_number,omitempty"`
	RandomSeed       int64             `json:"random_seed,omitempty"`
}

// BracketRowView is one bracket slot prepared for display.
type BracketRowView struct {
	Round    int             `json:"round"`
	Line     int             `json:"line"`
	Team     models.TeamRef  `json:"team"`
	TeamName string          `json:"team_name,omitempty"`
	State    models.RowState `json:"state"`
	Run      int             `json:"run_number,omitempty"`
	Score    *float64        `json:"score,omitempty"`
	Verified bool            `json:"verified,omitempty"`
}

type BracketRound struct {
	Round int              `json:"round"`
	Rows  []BracketRowView `json:"rows"`
}

type BracketData struct {
	Bracket string         `json:"bracket"`
	Rounds  []BracketRound `json:"rounds"`
}

type BracketService interface {
	SeedBracket(ctx context.Context, input SeedBracketInput) (*BracketData, error)
	ListBrackets(ctx context.Context, tournamentID int) ([]string, error)
	GetBracketData(ctx context.Context, tournamentID int, bracket string, verifiedOnly bool) (*BracketData, error)
	AdvanceBracket(ctx context.Context, tournamentID int, bracket string) ([]*models.BracketRow, error)
	FinishBracket(ctx context.Context, tournamentID int, bracket string) (bool, error)
	IsBracketUnfinished(ctx context.Context, tournamentID int, bracket string) (bool, error)
	ValidateChallengeFormula() error
}

type bracketService struct {
	rowRepo     repositories.BracketRowRepository
	scoreRepo   repositories.ScoreRepository
	teamRepo    repositories.TeamRepository
	description challenge.Description
	criteria    models.WinnerCriteria
	engine      *brackets.Engine
	hub         *brackets.Hub
	logger      *slog.Logger
}

func NewBracketService(
	rowRepo repositories.BracketRowRepository,
	scoreRepo repositories.ScoreRepository,
	teamRepo repositories.TeamRepository,
	description challenge.Description,
	criteria models.WinnerCriteria,
	hub *brackets.Hub,
	logger *slog.Logger,
) BracketService {
	return &bracketService{
		rowRepo:     rowRepo,
		scoreRepo:   scoreRepo,
		teamRepo:    teamRepo,
		description: description,
		criteria:    criteria,
		engine:      brackets.NewEngine(rowRepo, scoreRepo, description, criteria),
		hub:         hub,
		logger:      logger,
	}
}

func (s *bracketService) SeedBracket(ctx context.Context, input SeedBracketInput) (*BracketData, error) {
	if input.Bracket == "" {
		return nil, ErrBracketNameRequired
	}
	switch input.SortPolicy {
	case models.SortAlphabetical, models.SortByScore, models.SortRandom:
	default:
		return nil, ErrInvalidSortPolicy
	}
	if input.SeedingRunNumber < 1 {
		input.SeedingRunNumber = 1
	}
	if input.FirstRunNumber < 1 {
		input.FirstRunNumber = input.SeedingRunNumber + 1
	}

	existing, err := s.rowRepo.LoadRows(ctx, input.TournamentID, input.Bracket)
	if err != nil {
		return nil, fmt.Errorf("failed to check for existing bracket %s: %w", input.Bracket, err)
	}
	if len(existing) > 0 {
		return nil, ErrBracketExists
	}

	entrants, err := s.resolveEntrants(ctx, input)
	if err != nil {
		return nil, err
	}
	if len(entrants) == 0 {
		// An empty award group seeds an empty bracket; nothing to store.
		return &BracketData{Bracket: input.Bracket}, nil
	}

	var seedScores []brackets.SeedScore
	if input.SortPolicy == models.SortByScore {
		if seedScores, err = s.seedingScores(ctx, input, entrants); err != nil {
			return nil, err
		}
	}

	randomSeed := input.RandomSeed
	if randomSeed == 0 {
		randomSeed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(randomSeed))

	seeded := brackets.SeedOrder(entrants, input.SortPolicy, s.criteria, seedScores, rng)
	firstRound := brackets.FirstRoundOrder(seeded)
	rows := brackets.InitializeRows(input.Bracket, firstRound, input.FirstRunNumber)

	if err := s.rowRepo.StoreRows(ctx, input.TournamentID, rows); err != nil {
		return nil, fmt.Errorf("failed to store seeded bracket %s: %w", input.Bracket, err)
	}

	// First-round BYEs advance immediately.
	if _, err := s.engine.Advance(ctx, input.TournamentID, input.Bracket); err != nil {
		return nil, err
	}

	s.logger.Info("bracket seeded",
		slog.String("bracket", input.Bracket),
		slog.Int("tournament_id", input.TournamentID),
		slog.Int("entrants", len(entrants)),
		slog.Int("slots", len(firstRound)))

	data, err := s.GetBracketData(ctx, input.TournamentID, input.Bracket, false)
	if err != nil {
		return nil, err
	}
	s.broadcast(brackets.Update{Type: brackets.UpdateBracketSeeded, Bracket: input.Bracket, Payload: data})
	return data, nil
}

func (s *bracketService) ListBrackets(ctx context.Context, tournamentID int) ([]string, error) {
	names, err := s.rowRepo.ListBrackets(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list brackets for tournament %d: %w", tournamentID, err)
	}
	return names, nil
}

func (s *bracketService) GetBracketData(ctx context.Context, tournamentID int, bracket string, verifiedOnly bool) (*BracketData, error) {
	var (
		rows  []*models.BracketRow
		teams []*models.Team
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = s.rowRepo.LoadRows(gCtx, tournamentID, bracket)
		if err != nil {
			return fmt.Errorf("failed to load bracket %s: %w", bracket, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		teams, err = s.teamRepo.ListByTournament(gCtx, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to list teams for tournament %d: %w", tournamentID, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, ErrBracketNotFound
	}

	states, err := brackets.RowStates(bracket, rows)
	if err != nil {
		return nil, err
	}

	names := make(map[int]string, len(teams))
	for _, team := range teams {
		names[team.Number] = team.Name
	}

	byRound := make(map[int][]BracketRowView)
	for _, row := range rows {
		view := BracketRowView{
			Round: row.Round,
			Line:  row.Line,
			Team:  row.Team,
			State: states[brackets.RowKey{Round: row.Round, Line: row.Line}],
			Run:   row.RunNumber,
		}
		if row.Team.IsReal() {
			view.TeamName = names[row.Team.Number]
			if err := s.attachScore(ctx, tournamentID, row, verifiedOnly, &view); err != nil {
				return nil, err
			}
		}
		byRound[row.Round] = append(byRound[row.Round], view)
	}

	roundNumbers := make([]int, 0, len(byRound))
	for round := range byRound {
		roundNumbers = append(roundNumbers, round)
	}
	sort.Ints(roundNumbers)

	data := &BracketData{Bracket: bracket}
	for _, round := range roundNumbers {
		views := byRound[round]
		sort.Slice(views, func(i, j int) bool { return views[i].Line < views[j].Line })
		data.Rounds = append(data.Rounds, BracketRound{Round: round, Rows: views})
	}
	return data, nil
}

func (s *bracketService) AdvanceBracket(ctx context.Context, tournamentID int, bracket string) ([]*models.BracketRow, error) {
	changed, err := s.engine.Advance(ctx, tournamentID, bracket)
	if err != nil {
		if errors.Is(err, brackets.ErrUnknownBracket) {
			return nil, ErrBracketNotFound
		}
		return nil, err
	}
	if len(changed) > 0 {
		s.logger.Info("bracket advanced",
			slog.String("bracket", bracket),
			slog.Int("tournament_id", tournamentID),
			slog.Int("rows_changed", len(changed)))
		s.broadcast(brackets.Update{Type: brackets.UpdateBracketAdvanced, Bracket: bracket, Payload: changed})
	}
	return changed, nil
}

func (s *bracketService) FinishBracket(ctx context.Context, tournamentID int, bracket string) (bool, error) {
	finished, err := s.engine.Finish(ctx, tournamentID, bracket)
	if err != nil {
		if errors.Is(err, brackets.ErrUnknownBracket) {
			return false, ErrBracketNotFound
		}
		return false, err
	}
	if finished {
		s.logger.Info("bracket finished",
			slog.String("bracket", bracket),
			slog.Int("tournament_id", tournamentID))
		s.broadcast(brackets.Update{Type: brackets.UpdateBracketFinished, Bracket: bracket})
	}
	return finished, nil
}

func (s *bracketService) IsBracketUnfinished(ctx context.Context, tournamentID int, bracket string) (bool, error) {
	unfinished, err := s.engine.IsUnfinished(ctx, tournamentID, bracket)
	if err != nil {
		if errors.Is(err, brackets.ErrUnknownBracket) {
			return false, ErrBracketNotFound
		}
		return false, err
	}
	return unfinished, nil
}

// ValidateChallengeFormula runs the formula over the minimal legal value
// of every goal. Catches rubric misconfiguration at startup instead of in
// the middle of a playoff round.
func (s *bracketService) ValidateChallengeFormula() error {
	values := challenge.MinimalScoreValues(s.description)
	if _, err := s.description.Evaluate(values); err != nil {
		return fmt.Errorf("challenge formula rejected its own minimal values: %w", err)
	}
	return nil
}

func (s *bracketService) resolveEntrants(ctx context.Context, input SeedBracketInput) ([]*models.Team, error) {
	if len(input.TeamNumbers) > 0 {
		entrants := make([]*models.Team, 0, len(input.TeamNumbers))
		for _, number := range input.TeamNumbers {
			team, err := s.teamRepo.LookupTeam(ctx, number)
			if err != nil {
				if errors.Is(err, repositories.ErrTeamNotFound) {
					return nil, fmt.Errorf("%w: %d", ErrTeamNotFound, number)
				}
				return nil, fmt.Errorf("failed to look up team %d: %w", number, err)
			}
			entrants = append(entrants, team)
		}
		return entrants, nil
	}

	if input.AwardGroup != "" {
		teams, err := s.teamRepo.ListByAwardGroup(ctx, input.TournamentID, input.AwardGroup)
		if err != nil {
			return nil, fmt.Errorf("failed to list award group %s: %w", input.AwardGroup, err)
		}
		return teams, nil
	}

	teams, err := s.teamRepo.ListByTournament(ctx, input.TournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournament teams: %w", err)
	}
	return teams, nil
}

func (s *bracketService) seedingScores(ctx context.Context, input SeedBracketInput, entrants []*models.Team) ([]brackets.SeedScore, error) {
	numbers := make([]int, len(entrants))
	for i, team := range entrants {
		numbers[i] = team.Number
	}

	runs, err := s.scoreRepo.SeedingScores(ctx, input.TournamentID, input.SeedingRunNumber, numbers)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch seeding scores: %w", err)
	}

	scores := make([]brackets.SeedScore, 0, len(entrants))
	for _, team := range entrants {
		score := brackets.SeedScore{TeamNumber: team.Number}
		if run, ok := runs[team.Number]; ok && run.Scoreable() {
			value, err := s.description.Evaluate(run.GoalValues)
			if err != nil {
				return nil, fmt.Errorf("failed to evaluate seeding score for team %d: %w", team.Number, err)
			}
			score.Score = value
			score.HasScore = true
		}
		scores = append(scores, score)
	}
	return scores, nil
}

func (s *bracketService) attachScore(ctx context.Context, tournamentID int, row *models.BracketRow, verifiedOnly bool, view *BracketRowView) error {
	if row.RunNumber < 1 {
		return nil
	}
	run, err := s.scoreRepo.FetchScore(ctx, tournamentID, row.Team.Number, row.RunNumber)
	if err != nil {
		return fmt.Errorf("failed to fetch display score for team %d run %d: %w", row.Team.Number, row.RunNumber, err)
	}
	if run == nil || !run.Scoreable() {
		return nil
	}
	view.Verified = run.Verified
	if verifiedOnly && !run.Verified {
		return nil
	}
	value, err := s.description.Evaluate(run.GoalValues)
	if err != nil {
		return fmt.Errorf("failed to evaluate display score for team %d run %d: %w", row.Team.Number, row.RunNumber, err)
	}
	view.Score = &value
	return nil
}

func (s *bracketService) broadcast(update brackets.Update) {
	if s.hub != nil {
		s.hub.Broadcast(update)
	}
}
