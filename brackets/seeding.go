package brackets

import (
	"math"
	"math/rand"
	"sort"

	"github.com/kmahoney/robotourney/models"
)

// SeedScore is the prior score used when the sort policy is by-score. Teams
// without a usable score seed as if they had the worst possible one.
type SeedScore struct {
	TeamNumber int
	Score      float64
	HasScore   bool
}

// SeedOrder ranks the entrants best-first according to the sort policy.
// Score ties (and name ties) break by lowest team number so that bracket
// generation is reproducible.
func SeedOrder(teams []*models.Team, policy models.SortPolicy, criteria models.WinnerCriteria, scores []SeedScore, rng *rand.Rand) []*models.Team {
	ordered := make([]*models.Team, len(teams))
	copy(ordered, teams)

	switch policy {
	case models.SortAlphabetical:
		sort.Slice(ordered, func(i, j int) bool {
			if ordered[i].Name != ordered[j].Name {
				return ordered[i].Name < ordered[j].Name
			}
			return ordered[i].Number < ordered[j].Number
		})

	case models.SortByScore:
		byTeam := make(map[int]SeedScore, len(scores))
		for _, s := range scores {
			byTeam[s.TeamNumber] = s
		}
		better := func(a, b SeedScore) bool {
			if a.HasScore != b.HasScore {
				return a.HasScore
			}
			if !a.HasScore {
				return false
			}
			if criteria == models.LowScoreWins {
				return a.Score < b.Score
			}
			return a.Score > b.Score
		}
		sort.Slice(ordered, func(i, j int) bool {
			si, sj := byTeam[ordered[i].Number], byTeam[ordered[j].Number]
			if better(si, sj) {
				return true
			}
			if better(sj, si) {
				return false
			}
			return ordered[i].Number < ordered[j].Number
		})

	case models.SortRandom:
		// Deterministic for a given seed, which tests rely on.
		sort.Slice(ordered, func(i, j int) bool {
			return ordered[i].Number < ordered[j].Number
		})
		rng.Shuffle(len(ordered), func(i, j int) {
			ordered[i], ordered[j] = ordered[j], ordered[i]
		})
	}

	return ordered
}

// NextPowerOfTwo returns the bracket size for n entrants: the smallest
// power of two that holds them all. Zero entrants need zero slots.
func NextPowerOfTwo(n int) int {
	if n <= 0 {
		return 0
	}
	size := 1
	for size < n {
		size <<= 1
	}
	return size
}

// FirstRoundOrder lays the seeded entrants out into first-round slots,
// padding with BYE to the bracket size. Pairing follows the recursive
// top/bottom split so the strongest seeds meet as late as possible: each
// seed s expands to the pair (s, n+1-s), with the orientation flipped on
// alternating positions.
func FirstRoundOrder(seeded []*models.Team) []models.TeamRef {
	n := len(seeded)
	size := NextPowerOfTwo(n)
	if size == 0 {
		return nil
	}

	padded := make([]models.TeamRef, size)
	for i := 0; i < size; i++ {
		if i < n {
			padded[i] = models.RealTeam(seeded[i].Number)
		} else {
			padded[i] = models.ByeTeam()
		}
	}

	order := pairingOrder(size)
	out := make([]models.TeamRef, size)
	for i, seed := range order {
		out[i] = padded[seed-1]
	}
	return out
}

func pairingOrder(size int) []int {
	if size <= 1 {
		if size == 1 {
			return []int{1}
		}
		return nil
	}
	order := []int{1, 2}
	for len(order) < size {
		n := len(order) * 2
		next := make([]int, 0, n)
		for i, s := range order {
			if i%2 == 0 {
				next = append(next, s, n+1-s)
			} else {
				next = append(next, n+1-s, s)
			}
		}
		order = next
	}
	return order
}

// NumRounds is the number of playoff rounds a bracket of the given size
// runs: log2(size). Size 0 and 1 run no rounds.
func NumRounds(size int) int {
	if size <= 1 {
		return 0
	}
	return int(math.Round(math.Log2(float64(size))))
}

// InitializeRows builds the full binary tree of bracket rows for the given
// first-round occupancy: every later-round slot starts as NULL, the run
// number for round r is firstRunNumber + r - 1, and brackets of four or
// more slots get a consolation match (final-round lines 3 and 4) fed by the
// semifinal losers, plus winner slots for the champion and third place.
func InitializeRows(bracket string, firstRound []models.TeamRef, firstRunNumber int) []*models.BracketRow {
	size := len(firstRound)
	if size == 0 {
		return nil
	}

	rows := make([]*models.BracketRow, 0, 2*size)
	for i, team := range firstRound {
		rows = append(rows, &models.BracketRow{
			Bracket:   bracket,
			Round:     1,
			Line:      i + 1,
			Team:      team,
			RunNumber: firstRunNumber,
		})
	}

	rounds := NumRounds(size)
	for r := 2; r <= rounds; r++ {
		lines := size >> uint(r-1)
		for l := 1; l <= lines; l++ {
			rows = append(rows, &models.BracketRow{
				Bracket:   bracket,
				Round:     r,
				Line:      l,
				Team:      models.NullTeam(),
				RunNumber: firstRunNumber + r - 1,
			})
		}
	}

	if size >= 4 {
		for _, l := range []int{3, 4} {
			rows = append(rows, &models.BracketRow{
				Bracket:   bracket,
				Round:     rounds,
				Line:      l,
				Team:      models.NullTeam(),
				RunNumber: firstRunNumber + rounds - 1,
			})
		}
	}

	if rounds > 0 {
		rows = append(rows, &models.BracketRow{
			Bracket: bracket,
			Round:   rounds + 1,
			Line:    1,
			Team:    models.NullTeam(),
		})
		if size >= 4 {
			rows = append(rows, &models.BracketRow{
				Bracket: bracket,
				Round:   rounds + 1,
				Line:    3,
				Team:    models.NullTeam(),
			})
		}
	}

	return rows
}
