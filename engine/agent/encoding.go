package agent

import (
	engine "github.com/ecterceocgan/deck-divide-dollar/engine"
)

// Indexer maps every raw (showing, min, median, max) tuple to a dense state
// index or InvalidState. It is built once per alphabet size and never
// changes afterwards.
//
// Layout of the raw table (U distinct card values):
//
//	showing ∈ [0, U]   (U is the "no card showing" sentinel)
//	min, median, max ∈ [0, U)
//	flat = ((showing*U + min)*U + median)*U + max
//
// Valid tuples are numbered in that same lexicographic order.
type Indexer struct {
	u     int
	table []int
	raws  []RawState
}

// BuildIndex enumerates the (U+1)×U×U×U raw tuples and assigns the next
// counter value to every tuple with min <= median <= max.
func BuildIndex(u int) (*Indexer, error) {
	if u < 1 {
		return nil, &engine.ConfigurationError{Field: "card values", Reason: "need at least one distinct card value"}
	}
	if u >= 255 {
		return nil, &engine.ConfigurationError{Field: "card values", Reason: "too many distinct card values"}
	}

	ix := &Indexer{
		u:     u,
		table: make([]int, (u+1)*u*u*u),
		raws:  make([]RawState, 0, ValidStateCount(u)),
	}
	next := 0
	flat := 0
	for showing := 0; showing <= u; showing++ {
		for lo := 0; lo < u; lo++ {
			for mid := 0; mid < u; mid++ {
				for hi := 0; hi < u; hi++ {
					if lo <= mid && mid <= hi {
						ix.table[flat] = next
						ix.raws = append(ix.raws, RawState{
							Showing: engine.Card(showing),
							Min:     engine.Card(lo),
							Median:  engine.Card(mid),
							Max:     engine.Card(hi),
						})
						next++
					} else {
						ix.table[flat] = InvalidState
					}
					flat++
				}
			}
		}
	}

	if want := ValidStateCount(u); next != want {
		// Unreachable unless the enumeration above is broken.
		panic("agent: state enumeration does not match closed-form count")
	}
	return ix, nil
}

// ValidStateCount is the closed-form number of valid states: U+1 choices of
// card showing times the multisets of size 3 drawn from U values,
// C(U+2, 3).
func ValidStateCount(u int) int {
	if u < 1 {
		return 0
	}
	return (u + 1) * (u + 2) * (u + 1) * u / 6
}

// U returns the number of distinct card values.
func (ix *Indexer) U() int { return ix.u }

// Len returns the number of valid states.
func (ix *Indexer) Len() int { return len(ix.raws) }

// RawLen returns the size of the raw tuple space, (U+1)·U³.
func (ix *Indexer) RawLen() int { return len(ix.table) }

// Flat returns the raw table position of r without validating it.
func (ix *Indexer) Flat(r RawState) int {
	u := ix.u
	return ((int(r.Showing)*u+int(r.Min))*u+int(r.Median))*u + int(r.Max)
}

// Index returns the dense state index of r.
func (ix *Indexer) Index(r RawState) (int, error) {
	u := engine.Card(ix.u)
	if r.Showing > u || r.Min >= u || r.Median >= u || r.Max >= u {
		return InvalidState, &InvalidStateIndexError{What: "raw state", Index: ix.Flat(r), Limit: len(ix.table)}
	}
	idx := ix.table[ix.Flat(r)]
	if idx == InvalidState {
		return InvalidState, &InvalidStateIndexError{What: "state", Index: InvalidState, Limit: ix.Len()}
	}
	return idx, nil
}

// Raw returns the raw tuple for a dense state index.
func (ix *Indexer) Raw(idx int) (RawState, error) {
	if idx < 0 || idx >= len(ix.raws) {
		return RawState{}, &InvalidStateIndexError{What: "state", Index: idx, Limit: len(ix.raws)}
	}
	return ix.raws[idx], nil
}

// Table returns a copy of the full raw-to-index table in flat order.
func (ix *Indexer) Table() []int {
	return append([]int(nil), ix.table...)
}
