// Package agent implements the tabular learning side of divide-the-dollar:
// the observable state encoding, exploring-starts action selection and the
// first-visit Monte Carlo control learner, plus the fixed opponent strategies
// it trains against.
package agent

import (
	"fmt"

	engine "github.com/ecterceocgan/deck-divide-dollar/engine"
)

// RawState is what a player observes before acting: the card showing on the
// table and the smallest, middle and largest cards of its own hand.
// Showing is the alphabet's NoCard when the player leads the round.
type RawState struct {
	Showing engine.Card
	Min     engine.Card
	Median  engine.Card
	Max     engine.Card
}

func (r RawState) String() string {
	return fmt.Sprintf("[%d %d %d %d]", r.Showing, r.Min, r.Median, r.Max)
}

// ObserveState builds the RawState of an observation. Hand components come
// from the ascending hand: index 0, len/2 and len-1.
func ObserveState(obs engine.Observation) (RawState, error) {
	n := len(obs.Hand)
	if n == 0 {
		return RawState{}, fmt.Errorf("seat %d round %d: cannot observe state of an empty hand", obs.Seat, obs.Round)
	}
	return RawState{
		Showing: obs.Showing,
		Min:     obs.Hand[0],
		Median:  obs.Hand[n/2],
		Max:     obs.Hand[n-1],
	}, nil
}
