package engine

import "fmt"

// TiePolicy decides the learning agent's outcome when first place is shared.
type TiePolicy uint8

const (
	TiePenalized TiePolicy = iota // 0: a shared first place is a loss (-1)
	TieNeutral                    // 1: a shared first place is worth 0
)

func (t TiePolicy) String() string {
	switch t {
	case TiePenalized:
		return "penalized"
	case TieNeutral:
		return "neutral"
	}
	return fmt.Sprintf("TiePolicy(%d)", uint8(t))
}

// ParseTiePolicy maps "penalized" or "neutral" to a TiePolicy.
func ParseTiePolicy(s string) (TiePolicy, error) {
	switch s {
	case "penalized", "":
		return TiePenalized, nil
	case "neutral":
		return TieNeutral, nil
	}
	return 0, fmt.Errorf("unknown tie policy %q", s)
}

// Rules holds the table parameters of one game.
type Rules struct {
	NumPlayers      int
	HandSize        int
	DollarThreshold float64
	Ties            TiePolicy
}

// DefaultRules returns the standard two-player, five-card game.
func DefaultRules() Rules {
	return Rules{
		NumPlayers:      2,
		HandSize:        5,
		DollarThreshold: 1.0,
		Ties:            TiePenalized,
	}
}

// Validate checks the rules against a deck of deckSize cards.
func (r Rules) Validate(deckSize int) error {
	if r.NumPlayers < 2 {
		return &ConfigurationError{Field: "players", Reason: fmt.Sprintf("need at least 2 players, got %d", r.NumPlayers)}
	}
	if r.HandSize < 1 {
		return &ConfigurationError{Field: "hand size", Reason: fmt.Sprintf("must be positive, got %d", r.HandSize)}
	}
	if r.DollarThreshold <= 0 {
		return &ConfigurationError{Field: "threshold", Reason: fmt.Sprintf("must be positive, got %v", r.DollarThreshold)}
	}
	if r.NumPlayers*r.HandSize > deckSize {
		return &ConfigurationError{
			Field:  "hand size",
			Reason: fmt.Sprintf("%d players × %d cards exceeds deck of %d", r.NumPlayers, r.HandSize, deckSize),
		}
	}
	if r.Ties > TieNeutral {
		return &ConfigurationError{Field: "ties", Reason: r.Ties.String()}
	}
	return nil
}

// thresholdTolerance absorbs the rounding of summed decimal card values.
const thresholdTolerance = 1e-9

// Exceeds reports whether a round total is over threshold. Totals within
// thresholdTolerance of the threshold count as equal to it, so
// 0.1+0.2+0.3 against 0.6 stays in.
func Exceeds(total, threshold float64) bool {
	return total > threshold+thresholdTolerance
}

// NumRounds returns how many rounds exhaust a deck of deckSize cards.
func (r Rules) NumRounds(deckSize int) int {
	return 1 + (deckSize-r.NumPlayers*r.HandSize)/r.NumPlayers
}
