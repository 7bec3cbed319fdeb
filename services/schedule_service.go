package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kmahoney/robotourney/models"
	"github.com/kmahoney/robotourney/repositories"
	"github.com/kmahoney/robotourney/schedule"
	"github.com/kmahoney/robotourney/storage"
)

// CheckScheduleInput carries one uploaded schedule as pre-split cells.
// A zero TournamentID skips the roster cross-check (used when validating a
// draft schedule before any teams are committed).
type CheckScheduleInput struct {
	TournamentID int              `json:"tournament_id,omitempty"`
	Header       []string         `json:"header"`
	Rows         [][]string       `json:"rows"`
	Params       *schedule.Params `json:"params,omitempty"`
}

// ScheduleReport is the result of one constraint check. Violations are an
// expected outcome, not an error; only hard violations block acceptance.
type ScheduleReport struct {
	TournamentID int                          `json:"tournament_id,omitempty"`
	CheckedAt    time.Time                    `json:"checked_at"`
	TeamCount    int                          `json:"team_count"`
	Violations   []models.ConstraintViolation `json:"violations"`
	HardCount    int                          `json:"hard_count"`
	SoftCount    int                          `json:"soft_count"`
	Accepted     bool                         `json:"accepted"`
	ReportURL    string                       `json:"report_url,omitempty"`
}

type ScheduleService interface {
	CheckSchedule(ctx context.Context, input CheckScheduleInput) (*ScheduleReport, error)
	ScheduleFinalists(ctx context.Context, categories map[string][]int) ([]schedule.FinalistSlot, error)
}

type scheduleService struct {
	teamRepo repositories.TeamRepository
	uploader storage.FileUploader // nil disables report snapshots
	params   schedule.Params
	logger   *slog.Logger

	mu           sync.Mutex
	lastSnapshot map[int]string // tournament id -> latest report key
}

func NewScheduleService(
	teamRepo repositories.TeamRepository,
	uploader storage.FileUploader,
	params schedule.Params,
	logger *slog.Logger,
) ScheduleService {
	return &scheduleService{
		teamRepo:     teamRepo,
		uploader:     uploader,
		params:       params,
		logger:       logger,
		lastSnapshot: make(map[int]string),
	}
}

func (s *scheduleService) CheckSchedule(ctx context.Context, input CheckScheduleInput) (*ScheduleReport, error) {
	params := s.params
	if input.Params != nil {
		params = *input.Params
	}

	entries, err := schedule.Parse(input.Header, input.Rows, params)
	if err != nil {
		return nil, err
	}

	checker := schedule.NewChecker(params)

	var violations []models.ConstraintViolation
	if input.TournamentID > 0 {
		teams, err := s.teamRepo.ListByTournament(ctx, input.TournamentID)
		if err != nil {
			return nil, fmt.Errorf("failed to list teams for tournament %d: %w", input.TournamentID, err)
		}
		roster := make([]int, len(teams))
		for i, team := range teams {
			roster[i] = team.Number
		}
		violations = checker.CheckAgainstRoster(entries, roster)
	} else {
		violations = checker.Check(entries)
	}

	report := &ScheduleReport{
		TournamentID: input.TournamentID,
		CheckedAt:    time.Now().UTC(),
		TeamCount:    len(entries),
		Violations:   violations,
	}
	for _, v := range violations {
		if v.Severity == models.SeverityHard {
			report.HardCount++
		} else {
			report.SoftCount++
		}
	}
	report.Accepted = report.HardCount == 0

	s.logger.Info("schedule checked",
		slog.Int("tournament_id", input.TournamentID),
		slog.Int("teams", report.TeamCount),
		slog.Int("hard_violations", report.HardCount),
		slog.Int("soft_violations", report.SoftCount))

	s.snapshotReport(ctx, report)
	return report, nil
}

func (s *scheduleService) ScheduleFinalists(ctx context.Context, categories map[string][]int) ([]schedule.FinalistSlot, error) {
	if len(categories) == 0 {
		return nil, ErrNoFinalistCategories
	}
	slots := schedule.ScheduleFinalists(categories)
	s.logger.Info("finalist slots scheduled",
		slog.Int("categories", len(categories)),
		slog.Int("slots", len(slots)))
	return slots, nil
}

// snapshotReport uploads the report JSON when storage is configured and
// prunes the tournament's previous snapshot, so only the latest check is
// kept per tournament. A failed upload or prune is logged and otherwise
// ignored; the check result stands on its own.
func (s *scheduleService) snapshotReport(ctx context.Context, report *ScheduleReport) {
	if s.uploader == nil {
		return
	}

	body, err := json.Marshal(report)
	if err != nil {
		s.logger.Warn("failed to marshal schedule report snapshot", slog.Any("error", err))
		return
	}

	key := fmt.Sprintf("reports/tournament-%d/schedule-check-%d.json",
		report.TournamentID, report.CheckedAt.UnixNano())
	result, err := s.uploader.Upload(ctx, key, "application/json", bytes.NewReader(body))
	if err != nil {
		s.logger.Warn("failed to upload schedule report snapshot",
			slog.String("key", key), slog.Any("error", err))
		return
	}
	report.ReportURL = result.Location

	s.mu.Lock()
	previous := s.lastSnapshot[report.TournamentID]
	s.lastSnapshot[report.TournamentID] = key
	s.mu.Unlock()

	if previous == "" || previous == key {
		return
	}
	if err := s.uploader.Delete(ctx, previous); err != nil {
		s.logger.Warn("failed to prune superseded schedule report snapshot",
			slog.String("key", previous), slog.Any("error", err))
	}
}
