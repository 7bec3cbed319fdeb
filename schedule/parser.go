package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kmahoney/robotourney/models"
)

// Column names expected in a schedule upload. Subjective stations use the
// station name itself plus a "<station> Room" column; performance runs use
// "Perf #N" plus "Perf #N Table" holding "<table> <side>".
const (
	columnTeamNumber   = "Team #"
	columnAwardGroup   = "Award Group"
	columnJudgingGroup = "Judging Group"
	roomColumnSuffix   = " Room"
	perfColumnPrefix   = "Perf #"
	tableColumnSuffix  = " Table"
)

var timeLayouts = []string{"15:04", "3:04 PM", "3:04PM"}

// scheduleDate anchors parsed times of day so intervals compare. The
// schedule format carries no date; a single tournament day is assumed.
var scheduleDate = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// ParseError reports a malformed schedule upload. The whole parse aborts;
// no partial schedule is ever accepted.
type ParseError struct {
	Row    int // 1-based data row, 0 for header problems
	Column string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Row == 0 {
		return fmt.Sprintf("schedule header: column %q: %v", e.Column, e.Err)
	}
	return fmt.Sprintf("schedule row %d, column %q: %v", e.Row, e.Column, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

var (
	errMissingColumn   = errors.New("required column is missing")
	errBadTimeFormat   = errors.New("unparseable time")
	errBadTeamNumber   = errors.New("unparseable team number")
	errDuplicateTeam   = errors.New("team appears more than once")
	errBadTableFormat  = errors.New("table assignment must be \"<table> <side>\"")
	errShortRow        = errors.New("row has fewer cells than the header")
	errMissingPerfPair = errors.New("performance time without a matching table column")
)

// Parse builds per-team schedule info from pre-split tabular data. File
// decoding (CSV, XLSX) is the caller's concern; this only interprets the
// cells.
func Parse(header []string, rows [][]string, params Params) ([]*models.TeamScheduleInfo, error) {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}

	required := []string{columnTeamNumber, columnAwardGroup, columnJudgingGroup}
	for _, station := range params.SubjectiveStations {
		required = append(required, station, station+roomColumnSuffix)
	}
	for _, name := range required {
		if _, ok := columns[name]; !ok {
			return nil, &ParseError{Column: name, Err: errMissingColumn}
		}
	}

	// Performance columns are discovered by counting consecutive run pairs.
	var perfRuns int
	for {
		timeColumn := fmt.Sprintf("%s%d", perfColumnPrefix, perfRuns+1)
		if _, ok := columns[timeColumn]; !ok {
			break
		}
		if _, ok := columns[timeColumn+tableColumnSuffix]; !ok {
			return nil, &ParseError{Column: timeColumn + tableColumnSuffix, Err: errMissingPerfPair}
		}
		perfRuns++
	}
	if perfRuns == 0 {
		return nil, &ParseError{Column: perfColumnPrefix + "1", Err: errMissingColumn}
	}

	entries := make([]*models.TeamScheduleInfo, 0, len(rows))
	seen := make(map[int]bool, len(rows))

	for i, row := range rows {
		rowNum := i + 1
		cell := func(name string) (string, error) {
			idx := columns[name]
			if idx >= len(row) {
				return "", &ParseError{Row: rowNum, Column: name, Err: errShortRow}
			}
			return strings.TrimSpace(row[idx]), nil
		}

		rawNumber, err := cell(columnTeamNumber)
		if err != nil {
			return nil, err
		}
		teamNumber, convErr := strconv.Atoi(rawNumber)
		if convErr != nil {
			return nil, &ParseError{Row: rowNum, Column: columnTeamNumber, Err: fmt.Errorf("%w: %q", errBadTeamNumber, rawNumber)}
		}
		if seen[teamNumber] {
			return nil, &ParseError{Row: rowNum, Column: columnTeamNumber, Err: fmt.Errorf("%w: %d", errDuplicateTeam, teamNumber)}
		}
		seen[teamNumber] = true

		entry := &models.TeamScheduleInfo{TeamNumber: teamNumber}
		if entry.AwardGroup, err = cell(columnAwardGroup); err != nil {
			return nil, err
		}
		if entry.JudgingGroup, err = cell(columnJudgingGroup); err != nil {
			return nil, err
		}

		for _, station := range params.SubjectiveStations {
			rawTime, err := cell(station)
			if err != nil {
				return nil, err
			}
			at, convErr := parseTimeOfDay(rawTime)
			if convErr != nil {
				return nil, &ParseError{Row: rowNum, Column: station, Err: convErr}
			}
			room, err := cell(station + roomColumnSuffix)
			if err != nil {
				return nil, err
			}
			entry.Subjective = append(entry.Subjective, models.SubjectiveAssignment{
				Station: station,
				Room:    room,
				Time:    at,
			})
		}

		for run := 1; run <= perfRuns; run++ {
			timeColumn := fmt.Sprintf("%s%d", perfColumnPrefix, run)
			rawTime, err := cell(timeColumn)
			if err != nil {
				return nil, err
			}
			at, convErr := parseTimeOfDay(rawTime)
			if convErr != nil {
				return nil, &ParseError{Row: rowNum, Column: timeColumn, Err: convErr}
			}
			rawTable, err := cell(timeColumn + tableColumnSuffix)
			if err != nil {
				return nil, err
			}
			table, side, convErr := parseTableSide(rawTable)
			if convErr != nil {
				return nil, &ParseError{Row: rowNum, Column: timeColumn + tableColumnSuffix, Err: convErr}
			}
			entry.Performance = append(entry.Performance, models.PerformanceAssignment{
				Run:   run,
				Time:  at,
				Table: table,
				Side:  side,
			})
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

func parseTimeOfDay(raw string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if at, err := time.Parse(layout, raw); err == nil {
			return scheduleDate.Add(
				time.Duration(at.Hour())*time.Hour + time.Duration(at.Minute())*time.Minute), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", errBadTimeFormat, raw)
}

func parseTableSide(raw string) (string, int, error) {
	idx := strings.LastIndex(raw, " ")
	if idx <= 0 {
		return "", 0, fmt.Errorf("%w: %q", errBadTableFormat, raw)
	}
	side, err := strconv.Atoi(raw[idx+1:])
	if err != nil || side < 1 {
		return "", 0, fmt.Errorf("%w: %q", errBadTableFormat, raw)
	}
	return raw[:idx], side, nil
}
