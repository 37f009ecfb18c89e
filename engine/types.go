package engine

import (
	"fmt"
	"sort"
	"strings"
)

// Card is a rank index into the ascending card-value Alphabet.
// Ordering Cards by rank is the same as ordering them by value.
type Card uint8

// ---------------------------------------------------------------------------
// Composition / Alphabet
// ---------------------------------------------------------------------------

// CardCount is one entry of a deck composition.
type CardCount struct {
	Value float64
	Count int
}

// Composition describes how many copies of each card value a deck holds.
type Composition []CardCount

// DefaultComposition returns the 60-card deck: 16×0.25, 28×0.50, 16×0.75.
func DefaultComposition() Composition {
	return Composition{
		{Value: 0.25, Count: 16},
		{Value: 0.50, Count: 28},
		{Value: 0.75, Count: 16},
	}
}

// Validate checks the composition can build a non-empty deck.
func (c Composition) Validate() error {
	if len(c) == 0 {
		return &ConfigurationError{Field: "composition", Reason: "no card values"}
	}
	if len(c) >= int(maxAlphabet) {
		return &ConfigurationError{Field: "composition", Reason: fmt.Sprintf("%d card values exceeds limit of %d", len(c), maxAlphabet-1)}
	}
	seen := make(map[float64]bool, len(c))
	total := 0
	for _, cc := range c {
		if cc.Value <= 0 {
			return &ConfigurationError{Field: "composition", Reason: fmt.Sprintf("card value %v must be positive", cc.Value)}
		}
		if cc.Count < 0 {
			return &ConfigurationError{Field: "composition", Reason: fmt.Sprintf("card value %v has negative count %d", cc.Value, cc.Count)}
		}
		if seen[cc.Value] {
			return &ConfigurationError{Field: "composition", Reason: fmt.Sprintf("card value %v listed twice", cc.Value)}
		}
		seen[cc.Value] = true
		total += cc.Count
	}
	if total == 0 {
		return &ConfigurationError{Field: "composition", Reason: "deck is empty"}
	}
	return nil
}

// Size returns the total number of cards.
func (c Composition) Size() int {
	n := 0
	for _, cc := range c {
		n += cc.Count
	}
	return n
}

// Alphabet returns the ascending distinct card values of the composition.
func (c Composition) Alphabet() Alphabet {
	values := make([]float64, len(c))
	for i, cc := range c {
		values[i] = cc.Value
	}
	sort.Float64s(values)
	return Alphabet{values: values}
}

// String renders the composition as "0.25:16,0.5:28,0.75:16".
func (c Composition) String() string {
	parts := make([]string, len(c))
	for i, cc := range c {
		parts[i] = fmt.Sprintf("%v:%d", cc.Value, cc.Count)
	}
	return strings.Join(parts, ",")
}

// maxAlphabet bounds U so that NoCard (== U) still fits in a Card.
const maxAlphabet = 255

// Alphabet is the ascending list of distinct card values. Card c has
// value values[c]; the sentinel NoCard (== Len()) has value 0.
type Alphabet struct {
	values []float64
}

// NewAlphabet builds an Alphabet from arbitrary distinct values.
func NewAlphabet(values ...float64) Alphabet {
	v := append([]float64(nil), values...)
	sort.Float64s(v)
	return Alphabet{values: v}
}

// Len returns U, the number of distinct card values.
func (a Alphabet) Len() int { return len(a.values) }

// NoCard returns the "no card showing" sentinel for this alphabet.
func (a Alphabet) NoCard() Card { return Card(len(a.values)) }

// Value returns the numeric value of c. NoCard and out-of-range cards are 0.
func (a Alphabet) Value(c Card) float64 {
	if int(c) >= len(a.values) {
		return 0
	}
	return a.values[c]
}

// CardOf returns the Card for value v.
func (a Alphabet) CardOf(v float64) (Card, bool) {
	i := sort.SearchFloat64s(a.values, v)
	if i < len(a.values) && a.values[i] == v {
		return Card(i), true
	}
	return 0, false
}

// Values returns a copy of the ascending values.
func (a Alphabet) Values() []float64 {
	return append([]float64(nil), a.values...)
}

// ---------------------------------------------------------------------------
// Actions
// ---------------------------------------------------------------------------

// Action is a play strategy for one turn. The ordinal is the column index
// into the learner's value tables.
type Action uint8

const (
	SpoilSmall    Action = iota // 0
	PlayMedian                  // 1
	MaximizeLarge               // 2

	NumActions = 3
)

var actionNames = [NumActions]string{"small_spoil", "median", "large_max"}

func (a Action) String() string {
	if int(a) < NumActions {
		return actionNames[a]
	}
	return fmt.Sprintf("Action(%d)", uint8(a))
}

// Valid reports whether a is one of the defined actions.
func (a Action) Valid() bool { return int(a) < NumActions }

// ParseAction maps an action name back to its Action.
func ParseAction(name string) (Action, error) {
	for i, n := range actionNames {
		if n == name {
			return Action(i), nil
		}
	}
	return 0, fmt.Errorf("unknown action %q", name)
}

// AllActions returns every action in ordinal order.
func AllActions() []Action {
	return []Action{SpoilSmall, PlayMedian, MaximizeLarge}
}
