package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parserHeader() []string {
	return []string{
		"Team #", "Award Group", "Judging Group",
		"Project", "Project Room",
		"Robot Design", "Robot Design Room",
		"Perf #1", "Perf #1 Table",
		"Perf #2", "Perf #2 Table",
	}
}

func TestParseSchedule(t *testing.T) {
	rows := [][]string{
		{"11", "Lions", "J1", "9:00 AM", "101", "10:00 AM", "102", "11:00 AM", "Red 1", "12:30 PM", "Blue 2"},
		{"12", "Lions", "J2", "09:30", "101", "10:30", "102", "11:05", "Red 2", "12:35", "Blue 1"},
	}

	entries, err := Parse(parserHeader(), rows, testParams())
	require.NoError(t, err)
	require.Len(t, entries, 2)

	first := entries[0]
	assert.Equal(t, 11, first.TeamNumber)
	assert.Equal(t, "Lions", first.AwardGroup)
	assert.Equal(t, "J1", first.JudgingGroup)

	require.Len(t, first.Subjective, 2)
	assert.Equal(t, "Project", first.Subjective[0].Station)
	assert.Equal(t, "101", first.Subjective[0].Room)
	assert.Equal(t, at(9, 0), first.Subjective[0].Time)

	require.Len(t, first.Performance, 2)
	assert.Equal(t, 1, first.Performance[0].Run)
	assert.Equal(t, "Red", first.Performance[0].Table)
	assert.Equal(t, 1, first.Performance[0].Side)
	assert.Equal(t, at(12, 30), first.Performance[1].Time)

	// 24-hour times parse too.
	assert.Equal(t, at(9, 30), entries[1].Subjective[0].Time)
}

func TestParseMultiWordTableName(t *testing.T) {
	header := []string{
		"Team #", "Award Group", "Judging Group",
		"Project", "Project Room",
		"Robot Design", "Robot Design Room",
		"Perf #1", "Perf #1 Table",
	}
	rows := [][]string{
		{"1", "A", "J1", "9:00", "101", "10:00", "102", "11:00", "Main Stage 2"},
	}

	entries, err := Parse(header, rows, testParams())
	require.NoError(t, err)

	assert.Equal(t, "Main Stage", entries[0].Performance[0].Table)
	assert.Equal(t, 2, entries[0].Performance[0].Side)
}

func TestParseMissingColumn(t *testing.T) {
	header := []string{"Team #", "Award Group", "Judging Group", "Project", "Project Room"}

	_, err := Parse(header, nil, testParams())

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Zero(t, parseErr.Row)
	assert.Equal(t, "Robot Design", parseErr.Column)
}

func TestParsePerfTimeWithoutTable(t *testing.T) {
	header := []string{
		"Team #", "Award Group", "Judging Group",
		"Project", "Project Room",
		"Robot Design", "Robot Design Room",
		"Perf #1",
	}

	_, err := Parse(header, nil, testParams())

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "Perf #1 Table", parseErr.Column)
}

func TestParseBadTimeNamesRowAndColumn(t *testing.T) {
	rows := [][]string{
		{"11", "Lions", "J1", "9:00", "101", "10:00", "102", "11:00", "Red 1", "12:30", "Blue 2"},
		{"12", "Lions", "J2", "sometime", "101", "10:30", "102", "11:05", "Red 2", "12:35", "Blue 1"},
	}

	_, err := Parse(parserHeader(), rows, testParams())

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 2, parseErr.Row)
	assert.Equal(t, "Project", parseErr.Column)
	assert.ErrorIs(t, parseErr, errBadTimeFormat)
}

func TestParseBadTeamNumber(t *testing.T) {
	rows := [][]string{
		{"team eleven", "Lions", "J1", "9:00", "101", "10:00", "102", "11:00", "Red 1", "12:30", "Blue 2"},
	}

	_, err := Parse(parserHeader(), rows, testParams())

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.ErrorIs(t, parseErr, errBadTeamNumber)
}

func TestParseDuplicateTeamAborts(t *testing.T) {
	rows := [][]string{
		{"11", "Lions", "J1", "9:00", "101", "10:00", "102", "11:00", "Red 1", "12:30", "Blue 2"},
		{"11", "Lions", "J2", "9:30", "101", "10:30", "102", "11:05", "Red 2", "12:35", "Blue 1"},
	}

	entries, err := Parse(parserHeader(), rows, testParams())

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.ErrorIs(t, parseErr, errDuplicateTeam)
	assert.Nil(t, entries)
}

func TestParseShortRow(t *testing.T) {
	rows := [][]string{
		{"11", "Lions", "J1", "9:00", "101"},
	}

	_, err := Parse(parserHeader(), rows, testParams())

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.ErrorIs(t, parseErr, errShortRow)
}

func TestParseBadTable(t *testing.T) {
	rows := [][]string{
		{"11", "Lions", "J1", "9:00", "101", "10:00", "102", "11:00", "Red", "12:30", "Blue 2"},
	}

	_, err := Parse(parserHeader(), rows, testParams())

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "Perf #1 Table", parseErr.Column)
	assert.ErrorIs(t, parseErr, errBadTableFormat)
}
