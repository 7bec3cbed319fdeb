package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmahoney/robotourney/models"
	"github.com/kmahoney/robotourney/schedule"
	"github.com/kmahoney/robotourney/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeUploader struct {
	keys    []string
	deleted []string
	fail    bool
}

func (u *fakeUploader) Upload(_ context.Context, key, _ string, _ io.Reader) (*storage.UploadResult, error) {
	if u.fail {
		return nil, io.ErrClosedPipe
	}
	u.keys = append(u.keys, key)
	return &storage.UploadResult{Key: key, Location: "https://reports.test/" + key}, nil
}

func (u *fakeUploader) Delete(_ context.Context, key string) error {
	u.deleted = append(u.deleted, key)
	return nil
}

func (u *fakeUploader) GetPublicURL(key string) string { return "https://reports.test/" + key }

func scheduleHeader() []string {
	return []string{
		"Team #", "Award Group", "Judging Group",
		"Project", "Project Room",
		"Robot Design", "Robot Design Room",
		"Core Values", "Core Values Room",
		"Perf #1", "Perf #1 Table",
	}
}

func scheduleRow(team, project, robot, core, perf, table string) []string {
	return []string{team, "East", "J1", project, "101", robot, "102", core, "103", perf, table}
}

func setupScheduleService(t *testing.T, uploader storage.FileUploader) ScheduleService {
	t.Helper()
	teamRepo := newFakeTeamRepo(
		&models.Team{Number: 11, Name: "Lions", AwardGroup: "East"},
		&models.Team{Number: 12, Name: "Tigers", AwardGroup: "East"},
	)
	return NewScheduleService(teamRepo, uploader, schedule.DefaultParams(), testLogger())
}

func TestCheckScheduleAccepted(t *testing.T) {
	service := setupScheduleService(t, nil)

	report, err := service.CheckSchedule(context.Background(), CheckScheduleInput{
		TournamentID: 1,
		Header:       scheduleHeader(),
		Rows: [][]string{
			scheduleRow("11", "9:00", "10:00", "11:00", "12:00", "Red 1"),
			scheduleRow("12", "10:00", "11:00", "9:00", "12:00", "Red 2"),
		},
	})
	require.NoError(t, err)

	assert.True(t, report.Accepted)
	assert.Equal(t, 2, report.TeamCount)
	assert.Zero(t, report.HardCount)
	assert.Zero(t, report.SoftCount)
	assert.Empty(t, report.ReportURL)
}

func TestCheckScheduleHardViolationBlocksAcceptance(t *testing.T) {
	service := setupScheduleService(t, nil)

	// Both teams in judging room 101 for Project at the same time.
	report, err := service.CheckSchedule(context.Background(), CheckScheduleInput{
		TournamentID: 1,
		Header:       scheduleHeader(),
		Rows: [][]string{
			scheduleRow("11", "9:00", "10:00", "11:00", "12:00", "Red 1"),
			scheduleRow("12", "9:00", "11:00", "10:00", "12:00", "Red 2"),
		},
	})
	require.NoError(t, err)

	assert.False(t, report.Accepted)
	assert.GreaterOrEqual(t, report.HardCount, 1)
}

func TestCheckScheduleRosterMismatch(t *testing.T) {
	service := setupScheduleService(t, nil)

	// Team 12 is registered but unscheduled; team 99 is scheduled but
	// unregistered.
	report, err := service.CheckSchedule(context.Background(), CheckScheduleInput{
		TournamentID: 1,
		Header:       scheduleHeader(),
		Rows: [][]string{
			scheduleRow("11", "9:00", "10:00", "11:00", "12:00", "Red 1"),
			scheduleRow("99", "10:00", "11:00", "9:00", "12:00", "Red 2"),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, report.HardCount)
	assert.False(t, report.Accepted)
}

func TestCheckScheduleSkipsRosterWithoutTournament(t *testing.T) {
	service := setupScheduleService(t, nil)

	report, err := service.CheckSchedule(context.Background(), CheckScheduleInput{
		Header: scheduleHeader(),
		Rows: [][]string{
			scheduleRow("99", "9:00", "10:00", "11:00", "12:00", "Red 1"),
		},
	})
	require.NoError(t, err)

	// Draft mode: the unknown team number raises nothing.
	assert.True(t, report.Accepted)
}

func TestCheckScheduleParseErrorPropagates(t *testing.T) {
	service := setupScheduleService(t, nil)

	_, err := service.CheckSchedule(context.Background(), CheckScheduleInput{
		TournamentID: 1,
		Header:       scheduleHeader(),
		Rows: [][]string{
			scheduleRow("11", "whenever", "10:00", "11:00", "12:00", "Red 1"),
		},
	})

	var parseErr *schedule.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 1, parseErr.Row)
}

func TestCheckScheduleSnapshotsReport(t *testing.T) {
	uploader := &fakeUploader{}
	service := setupScheduleService(t, uploader)

	report, err := service.CheckSchedule(context.Background(), CheckScheduleInput{
		TournamentID: 1,
		Header:       scheduleHeader(),
		Rows: [][]string{
			scheduleRow("11", "9:00", "10:00", "11:00", "12:00", "Red 1"),
			scheduleRow("12", "10:00", "11:00", "9:00", "12:00", "Red 2"),
		},
	})
	require.NoError(t, err)

	require.Len(t, uploader.keys, 1)
	assert.Contains(t, uploader.keys[0], "reports/tournament-1/")
	assert.Contains(t, report.ReportURL, uploader.keys[0])
}

func TestCheckSchedulePrunesSupersededSnapshot(t *testing.T) {
	uploader := &fakeUploader{}
	service := setupScheduleService(t, uploader)
	input := CheckScheduleInput{
		TournamentID: 1,
		Header:       scheduleHeader(),
		Rows: [][]string{
			scheduleRow("11", "9:00", "10:00", "11:00", "12:00", "Red 1"),
		},
	}

	_, err := service.CheckSchedule(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, uploader.keys, 1)
	assert.Empty(t, uploader.deleted)

	_, err = service.CheckSchedule(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, uploader.keys, 2)

	// Re-checking replaces the tournament's previous snapshot.
	assert.Equal(t, []string{uploader.keys[0]}, uploader.deleted)
}

func TestCheckScheduleUploadFailureIsNotFatal(t *testing.T) {
	service := setupScheduleService(t, &fakeUploader{fail: true})

	report, err := service.CheckSchedule(context.Background(), CheckScheduleInput{
		TournamentID: 1,
		Header:       scheduleHeader(),
		Rows: [][]string{
			scheduleRow("11", "9:00", "10:00", "11:00", "12:00", "Red 1"),
			scheduleRow("12", "10:00", "11:00", "9:00", "12:00", "Red 2"),
		},
	})
	require.NoError(t, err)

	assert.Empty(t, report.ReportURL)
}

func TestScheduleFinalistsService(t *testing.T) {
	service := setupScheduleService(t, nil)
	ctx := context.Background()

	_, err := service.ScheduleFinalists(ctx, nil)
	assert.ErrorIs(t, err, ErrNoFinalistCategories)

	slots, err := service.ScheduleFinalists(ctx, map[string][]int{
		"Project":      {11, 12},
		"Robot Design": {11},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, slots)
}
