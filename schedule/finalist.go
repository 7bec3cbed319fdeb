package schedule

import "sort"

// FinalistSlot is one interview time slot: at most one team per category,
// and no team twice across categories within the slot.
type FinalistSlot struct {
	Assignments map[string]int `json:"assignments"`
}

// ScheduleFinalists packs teams that are finalists in multiple categories
// into non-conflicting time slots. Greedy: teams are processed most
// constrained first (category count descending, team number ascending as
// tie-break) and each (team, category) pair lands in the first slot, in
// creation order, that has neither the category nor the team; a new slot is
// appended when none fits. This approximates the minimum slot count, it
// does not guarantee it.
func ScheduleFinalists(categories map[string][]int) []FinalistSlot {
	counts := make(map[int]int)
	teamCategories := make(map[int][]string)
	for category, teams := range categories {
		for _, team := range teams {
			counts[team]++
			teamCategories[team] = append(teamCategories[team], category)
		}
	}

	teams := make([]int, 0, len(counts))
	for team := range counts {
		teams = append(teams, team)
	}
	sort.Slice(teams, func(i, j int) bool {
		if counts[teams[i]] != counts[teams[j]] {
			return counts[teams[i]] > counts[teams[j]]
		}
		return teams[i] < teams[j]
	})

	var slots []FinalistSlot
	teamInSlot := make([]map[int]bool, 0)

	place := func(team int, category string) {
		for i := range slots {
			if _, taken := slots[i].Assignments[category]; taken {
				continue
			}
			if teamInSlot[i][team] {
				continue
			}
			slots[i].Assignments[category] = team
			teamInSlot[i][team] = true
			return
		}
		slots = append(slots, FinalistSlot{Assignments: map[string]int{category: team}})
		teamInSlot = append(teamInSlot, map[int]bool{team: true})
	}

	for _, team := range teams {
		names := teamCategories[team]
		sort.Strings(names)
		for _, category := range names {
			place(team, category)
		}
	}

	return slots
}
