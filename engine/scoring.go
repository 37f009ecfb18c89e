package engine

import "sort"

// Outcome is the scalar reward for the learning agent at the end of an
// episode.
type Outcome float64

const (
	Win  Outcome = 1
	Loss Outcome = -1
	Draw Outcome = 0
)

// DecideOutcome ranks scores (indexed by seat, seat 0 is the learning agent)
// and returns seat 0's outcome plus the unique top scorer.
//
// Scoring rules:
//   - A strictly highest score is a win for that seat; winner is its index.
//   - A tie for first place has no winner (-1).
//   - Seat 0 gets Win only as the unique top scorer. A shared first place is
//     Loss under TiePenalized and Draw under TieNeutral; anything else is Loss.
func DecideOutcome(scores []float64, ties TiePolicy) (Outcome, int) {
	if len(scores) == 0 {
		return Loss, -1
	}
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool { return scores[order[i]] > scores[order[j]] })

	top := order[0]
	if len(order) == 1 || scores[top] > scores[order[1]] {
		if top == 0 {
			return Win, top
		}
		return Loss, top
	}

	// Shared first place.
	if ties == TieNeutral && scores[0] == scores[top] {
		return Draw, -1
	}
	return Loss, -1
}
