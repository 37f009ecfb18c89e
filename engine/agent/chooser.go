package agent

import (
	"fmt"
	"strings"

	engine "github.com/ecterceocgan/deck-divide-dollar/engine"
)

// Recorder receives the learning agent's decisions. Both *Learner and *Trace
// implement it.
type Recorder interface {
	Visit(state int, action engine.Action) error
}

// LearningChooser plays for the learning agent: it encodes the observation,
// records the visit and selects with exploring starts over Policy.
type LearningChooser struct {
	Indexer  *Indexer
	Policy   []engine.Action // read-only during the episode
	Explore  ExploringStarts
	Recorder Recorder
	Rng      engine.Source
}

// Choose implements engine.Chooser.
func (c *LearningChooser) Choose(obs engine.Observation) (engine.Action, error) {
	raw, err := ObserveState(obs)
	if err != nil {
		return 0, err
	}
	state, err := c.Indexer.Index(raw)
	if err != nil {
		return 0, err
	}
	action, err := c.Explore.Select(state, obs.Round, c.Policy, NumActions, c.Rng)
	if err != nil {
		return 0, err
	}
	if err := c.Recorder.Visit(state, action); err != nil {
		return 0, err
	}
	return action, nil
}

// ---------------------------------------------------------------------------
// Opponents
// ---------------------------------------------------------------------------

// Fixed always plays the same action.
func Fixed(a engine.Action) engine.Chooser {
	return engine.ChooserFunc(func(engine.Observation) (engine.Action, error) {
		return a, nil
	})
}

// Random plays a uniformly random action every turn.
func Random(rng engine.Source) engine.Chooser {
	return engine.ChooserFunc(func(engine.Observation) (engine.Action, error) {
		return engine.Action(rng.IntN(NumActions)), nil
	})
}

// Greedy plays a frozen policy without exploration; used for self-play.
func Greedy(ix *Indexer, policy []engine.Action) engine.Chooser {
	return engine.ChooserFunc(func(obs engine.Observation) (engine.Action, error) {
		raw, err := ObserveState(obs)
		if err != nil {
			return 0, err
		}
		state, err := ix.Index(raw)
		if err != nil {
			return 0, err
		}
		if state >= len(policy) {
			return 0, &InvalidStateIndexError{What: "state", Index: state, Limit: len(policy)}
		}
		return policy[state], nil
	})
}

// OpponentFactory builds an opponent for one episode from that episode's
// randomness and the learner's policy snapshot.
type OpponentFactory func(rng engine.Source, policy []engine.Action) engine.Chooser

// Opponent names accepted by NewOpponent.
const (
	OpponentRandom = "random"
	OpponentSelf   = "self"
	alwaysPrefix   = "always-"
)

// OpponentNames lists every accepted opponent strategy name.
func OpponentNames() []string {
	names := []string{OpponentRandom, OpponentSelf}
	for _, a := range engine.AllActions() {
		names = append(names, alwaysPrefix+a.String())
	}
	return names
}

// NewOpponent resolves a strategy name: "random", "self" (greedy play of the
// learner's current policy) or "always-<action>".
func NewOpponent(name string, ix *Indexer) (OpponentFactory, error) {
	switch {
	case name == OpponentRandom:
		return func(rng engine.Source, _ []engine.Action) engine.Chooser { return Random(rng) }, nil
	case name == OpponentSelf:
		if ix == nil {
			return nil, &engine.ConfigurationError{Field: "opponent", Reason: "self-play needs a state indexer"}
		}
		return func(_ engine.Source, policy []engine.Action) engine.Chooser { return Greedy(ix, policy) }, nil
	case strings.HasPrefix(name, alwaysPrefix):
		a, err := engine.ParseAction(strings.TrimPrefix(name, alwaysPrefix))
		if err != nil {
			return nil, &engine.ConfigurationError{Field: "opponent", Reason: err.Error()}
		}
		fixed := Fixed(a)
		return func(engine.Source, []engine.Action) engine.Chooser { return fixed }, nil
	}
	return nil, &engine.ConfigurationError{
		Field:  "opponent",
		Reason: fmt.Sprintf("unknown strategy %q (want one of %s)", name, strings.Join(OpponentNames(), ", ")),
	}
}
