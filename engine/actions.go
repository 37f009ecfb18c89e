package engine

import "fmt"

// CardPosition returns the hand position an action plays.
//
// The leader of a round (first == true) picks from its own hand only:
// SpoilSmall plays the smallest card and MaximizeLarge the largest. A
// reacting player compares against the running total:
//   - SpoilSmall: ascending scan for the first card pushing the total above
//     threshold; if none can, the largest card.
//   - MaximizeLarge: descending scan for the first card keeping the total at
//     or below threshold; if none can, the smallest card.
//
// PlayMedian always plays the middle card, rounded down.
func CardPosition(h *Hand, alpha Alphabet, a Action, first bool, total, threshold float64) (int, error) {
	n := h.Len()
	if n == 0 {
		return 0, fmt.Errorf("cannot play %s from an empty hand", a)
	}

	switch a {
	case PlayMedian:
		return h.MedianIndex(), nil

	case SpoilSmall:
		if first {
			return 0, nil
		}
		for i := 0; i < n; i++ {
			if Exceeds(total+alpha.Value(h.At(i)), threshold) {
				return i, nil
			}
		}
		return n - 1, nil

	case MaximizeLarge:
		if first {
			return n - 1, nil
		}
		for i := n - 1; i >= 0; i-- {
			if !Exceeds(total+alpha.Value(h.At(i)), threshold) {
				return i, nil
			}
		}
		return 0, nil
	}
	return 0, fmt.Errorf("unhandled action %d", uint8(a))
}

// Achievable reports whether a reacting player can carry out a's intent
// without the fallback card. Leaders can always achieve every action.
func Achievable(h *Hand, alpha Alphabet, a Action, first bool, total, threshold float64) bool {
	if first || a == PlayMedian {
		return true
	}
	for i := 0; i < h.Len(); i++ {
		sum := total + alpha.Value(h.At(i))
		switch a {
		case SpoilSmall:
			if Exceeds(sum, threshold) {
				return true
			}
		case MaximizeLarge:
			if !Exceeds(sum, threshold) {
				return true
			}
		}
	}
	return false
}
