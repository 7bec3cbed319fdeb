package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/kmahoney/robotourney/models"
)

// Checker validates schedules against one parameter set. Each check runs
// independently and every violation is collected; nothing short-circuits.
type Checker struct {
	params Params
}

func NewChecker(params Params) *Checker {
	return &Checker{params: params}
}

// event is one occupied interval, normalized across subjective and
// performance assignments. Intervals are half-open: [start, end).
type event struct {
	teamNumber  int
	performance bool
	resource    string // judging room or table side
	start       time.Time
	end         time.Time
	label       string
}

func (e event) overlaps(o event) bool {
	return e.start.Before(o.end) && o.start.Before(e.end)
}

// Check runs every constraint over the parsed schedule and returns the
// full violation list. An empty result means the schedule is acceptable.
func (c *Checker) Check(entries []*models.TeamScheduleInfo) []models.ConstraintViolation {
	var violations []models.ConstraintViolation
	violations = append(violations, c.checkTeamConflicts(entries)...)
	violations = append(violations, c.checkJudgingRooms(entries)...)
	violations = append(violations, c.checkPerformanceTables(entries)...)
	return violations
}

// CheckAgainstRoster additionally cross-checks the schedule's team set
// against the tournament roster, both directions.
func (c *Checker) CheckAgainstRoster(entries []*models.TeamScheduleInfo, roster []int) []models.ConstraintViolation {
	violations := c.Check(entries)

	scheduled := make(map[int]bool, len(entries))
	for _, entry := range entries {
		scheduled[entry.TeamNumber] = true
	}
	known := make(map[int]bool, len(roster))
	for _, number := range roster {
		known[number] = true
	}

	for _, number := range roster {
		if !scheduled[number] {
			violations = append(violations, models.ConstraintViolation{
				Severity:   models.SeverityHard,
				TeamNumber: number,
				Message:    fmt.Sprintf("team %d is registered for the tournament but missing from the schedule", number),
			})
		}
	}
	for _, entry := range entries {
		if !known[entry.TeamNumber] {
			violations = append(violations, models.ConstraintViolation{
				Severity:   models.SeverityHard,
				TeamNumber: entry.TeamNumber,
				Message:    fmt.Sprintf("team %d appears in the schedule but is not registered for the tournament", entry.TeamNumber),
			})
		}
	}

	return violations
}

// checkTeamConflicts covers double-booking and changeover time for each
// team's own day. Overlap is always hard; a short but non-negative gap is
// only a warning.
func (c *Checker) checkTeamConflicts(entries []*models.TeamScheduleInfo) []models.ConstraintViolation {
	var violations []models.ConstraintViolation

	for _, entry := range entries {
		events := c.teamEvents(entry)
		sort.Slice(events, func(i, j int) bool {
			return events[i].start.Before(events[j].start)
		})

		for i := 0; i < len(events); i++ {
			for j := i + 1; j < len(events); j++ {
				if events[i].overlaps(events[j]) {
					violations = append(violations, models.ConstraintViolation{
						Severity:   models.SeverityHard,
						TeamNumber: entry.TeamNumber,
						Message:    fmt.Sprintf("team %d is double-booked: %s overlaps %s", entry.TeamNumber, events[i].label, events[j].label),
						Entries:    []string{events[i].label, events[j].label},
					})
				}
			}
		}

		for i := 0; i+1 < len(events); i++ {
			prev, next := events[i], events[i+1]
			required := c.params.Changetime
			if prev.performance && next.performance {
				required = c.params.PerformanceChangetime
			}
			gap := next.start.Sub(prev.end)
			if gap >= required {
				continue
			}
			severity := models.SeveritySoft
			if gap < 0 {
				severity = models.SeverityHard
			}
			violations = append(violations, models.ConstraintViolation{
				Severity:   severity,
				TeamNumber: entry.TeamNumber,
				Message: fmt.Sprintf("team %d has %s between %s and %s, needs %s",
					entry.TeamNumber, formatGap(gap), prev.label, next.label, required),
				Entries: []string{prev.label, next.label},
			})
		}
	}

	return violations
}

// checkJudgingRooms: one judge interviews one team at a time.
func (c *Checker) checkJudgingRooms(entries []*models.TeamScheduleInfo) []models.ConstraintViolation {
	rooms := make(map[string][]event)
	for _, entry := range entries {
		for _, e := range c.teamEvents(entry) {
			if !e.performance {
				rooms[e.resource] = append(rooms[e.resource], e)
			}
		}
	}
	return capacityViolations(rooms, "judging room")
}

// checkPerformanceTables: one table side hosts one team at a time.
func (c *Checker) checkPerformanceTables(entries []*models.TeamScheduleInfo) []models.ConstraintViolation {
	tables := make(map[string][]event)
	for _, entry := range entries {
		for _, e := range c.teamEvents(entry) {
			if e.performance {
				tables[e.resource] = append(tables[e.resource], e)
			}
		}
	}
	return capacityViolations(tables, "performance table")
}

// capacityViolations emits exactly one hard violation per overlapping pair
// of different teams on the same resource.
func capacityViolations(byResource map[string][]event, kind string) []models.ConstraintViolation {
	resources := make([]string, 0, len(byResource))
	for resource := range byResource {
		resources = append(resources, resource)
	}
	sort.Strings(resources)

	var violations []models.ConstraintViolation
	for _, resource := range resources {
		events := byResource[resource]
		sort.Slice(events, func(i, j int) bool {
			if !events[i].start.Equal(events[j].start) {
				return events[i].start.Before(events[j].start)
			}
			return events[i].teamNumber < events[j].teamNumber
		})
		for i := 0; i < len(events); i++ {
			for j := i + 1; j < len(events); j++ {
				if events[i].teamNumber == events[j].teamNumber {
					continue
				}
				if !events[i].overlaps(events[j]) {
					continue
				}
				violations = append(violations, models.ConstraintViolation{
					Severity: models.SeverityHard,
					Message: fmt.Sprintf("%s %s hosts teams %d and %d at overlapping times (%s, %s)",
						kind, resource, events[i].teamNumber, events[j].teamNumber, events[i].label, events[j].label),
					Entries: []string{events[i].label, events[j].label},
				})
			}
		}
	}
	return violations
}

func (c *Checker) teamEvents(entry *models.TeamScheduleInfo) []event {
	events := make([]event, 0, len(entry.Subjective)+len(entry.Performance))
	for _, s := range entry.Subjective {
		events = append(events, event{
			teamNumber: entry.TeamNumber,
			resource:   s.Station + "/" + s.Room,
			start:      s.Time,
			end:        s.Time.Add(c.params.SubjectiveDuration),
			label: fmt.Sprintf("team %d %s at %s in room %s",
				entry.TeamNumber, s.Station, s.Time.Format("15:04"), s.Room),
		})
	}
	for _, p := range entry.Performance {
		events = append(events, event{
			teamNumber:  entry.TeamNumber,
			performance: true,
			resource:    fmt.Sprintf("%s side %d", p.Table, p.Side),
			start:       p.Time,
			end:         p.Time.Add(c.params.PerformanceDuration),
			label: fmt.Sprintf("team %d performance run %d at %s on %s side %d",
				entry.TeamNumber, p.Run, p.Time.Format("15:04"), p.Table, p.Side),
		})
	}
	return events
}

func formatGap(gap time.Duration) string {
	if gap < 0 {
		return fmt.Sprintf("an overlap of %s", -gap)
	}
	return fmt.Sprintf("a gap of %s", gap)
}
