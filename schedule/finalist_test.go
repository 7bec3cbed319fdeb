package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleFinalistsNoDoubleDuty(t *testing.T) {
	categories := map[string][]int{
		"Champion's":   {1, 2, 3},
		"Project":      {1, 4},
		"Robot Design": {1, 2},
		"Core Values":  {5},
	}

	slots := ScheduleFinalists(categories)

	for i, slot := range slots {
		seen := make(map[int]bool)
		for _, team := range slot.Assignments {
			assert.False(t, seen[team], "slot %d interviews team %d twice", i, team)
			seen[team] = true
		}
	}

	// Every (category, team) pair is placed exactly once.
	placed := make(map[string]map[int]int)
	for _, slot := range slots {
		for category, team := range slot.Assignments {
			if placed[category] == nil {
				placed[category] = make(map[int]int)
			}
			placed[category][team]++
		}
	}
	for category, teams := range categories {
		for _, team := range teams {
			assert.Equal(t, 1, placed[category][team], "category %s team %d", category, team)
		}
	}
}

func TestScheduleFinalistsMostConstrainedFirst(t *testing.T) {
	// Team 1 is up in three categories and must land in three distinct
	// slots; the single-category teams fill in around it.
	categories := map[string][]int{
		"A": {1, 2},
		"B": {1, 3},
		"C": {1, 4},
	}

	slots := ScheduleFinalists(categories)

	require.Len(t, slots, 3)
	inSlot := 0
	for _, slot := range slots {
		for _, team := range slot.Assignments {
			if team == 1 {
				inSlot++
			}
		}
	}
	assert.Equal(t, 3, inSlot)
}

func TestScheduleFinalistsSingleCategory(t *testing.T) {
	slots := ScheduleFinalists(map[string][]int{"Project": {10, 20, 30}})

	// One team per category per slot: three slots of one interview each.
	require.Len(t, slots, 3)
	for _, slot := range slots {
		assert.Len(t, slot.Assignments, 1)
	}
}

func TestScheduleFinalistsDeterministic(t *testing.T) {
	categories := map[string][]int{
		"A": {3, 1, 2},
		"B": {2, 3},
		"C": {1},
	}

	first := ScheduleFinalists(categories)
	second := ScheduleFinalists(categories)

	assert.Equal(t, first, second)
}

func TestScheduleFinalistsEmpty(t *testing.T) {
	assert.Empty(t, ScheduleFinalists(nil))
}
