package engine

import "fmt"

// InsufficientCardsError reports a deal or draw larger than what is left in
// the deck. It is fatal to the current episode.
type InsufficientCardsError struct {
	Requested int
	Remaining int
}

func (e *InsufficientCardsError) Error() string {
	return fmt.Sprintf("cannot deal %d cards: only %d remaining in deck", e.Requested, e.Remaining)
}

// ConfigurationError reports an invalid parameter detected at construction
// time, before any simulation starts.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}
