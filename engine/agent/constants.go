package agent

import (
	"fmt"

	engine "github.com/ecterceocgan/deck-divide-dollar/engine"
)

const (
	// InvalidState marks raw tuples that violate min <= median <= max.
	InvalidState = -1

	// DefaultExploringRounds is how many leading rounds of every episode pick
	// a uniformly random action (exploring starts).
	DefaultExploringRounds = 2

	// NumActions is the width of the learner's value tables.
	NumActions = engine.NumActions
)

// InvalidStateIndexError reports a lookup or update outside the value tables,
// or a raw state that maps to InvalidState. It always indicates an upstream
// construction bug.
type InvalidStateIndexError struct {
	What  string // "state", "action", "raw state" ...
	Index int
	Limit int
}

func (e *InvalidStateIndexError) Error() string {
	if e.Index == InvalidState && e.What == "state" {
		return "invalid state index: lookup reached the invalid sentinel"
	}
	return fmt.Sprintf("invalid %s index %d (limit %d)", e.What, e.Index, e.Limit)
}
