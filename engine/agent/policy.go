package agent

import (
	engine "github.com/ecterceocgan/deck-divide-dollar/engine"
)

// ExploringStarts selects actions: uniformly at random during the first
// Rounds rounds of an episode, greedily from the current policy afterwards.
// There is no epsilon exploration after the window closes.
type ExploringStarts struct {
	Rounds int
}

// Select returns the action for state in the given round.
func (e ExploringStarts) Select(state, round int, policy []engine.Action, numActions int, rng engine.Source) (engine.Action, error) {
	if numActions <= 0 {
		return 0, &engine.ConfigurationError{Field: "actions", Reason: "need at least one action"}
	}
	if state < 0 || state >= len(policy) {
		return 0, &InvalidStateIndexError{What: "state", Index: state, Limit: len(policy)}
	}
	if round < e.Rounds {
		return engine.Action(rng.IntN(numActions)), nil
	}
	return policy[state], nil
}

// SelectAction applies the default two-round exploring-starts window.
func SelectAction(state, round int, policy []engine.Action, numActions int, rng engine.Source) (engine.Action, error) {
	return ExploringStarts{Rounds: DefaultExploringRounds}.Select(state, round, policy, numActions, rng)
}
