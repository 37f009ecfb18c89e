package engine

import (
	"errors"
	"testing"
)

func quarterComposition() Composition {
	return Composition{{Value: 0.25, Count: 2}, {Value: 0.5, Count: 2}}
}

// TestNewDeckDefault verifies the default 60-card deck composition.
func TestNewDeckDefault(t *testing.T) {
	d, err := NewDeck(DefaultComposition())
	if err != nil {
		t.Fatalf("NewDeck: %v", err)
	}
	if d.Size() != 60 {
		t.Fatalf("Size = %d, want 60", d.Size())
	}
	if d.Remaining() != 60 {
		t.Errorf("Remaining = %d, want 60", d.Remaining())
	}
	want := []int{16, 28, 16}
	got := d.Counts()
	for c := range want {
		if got[c] != want[c] {
			t.Errorf("Counts[%d] = %d, want %d", c, got[c], want[c])
		}
	}
}

// TestNewDeckUnsortedComposition verifies cards are ranked by value even when
// the composition lists values out of order.
func TestNewDeckUnsortedComposition(t *testing.T) {
	d, err := NewDeck(Composition{{Value: 0.75, Count: 1}, {Value: 0.25, Count: 3}})
	if err != nil {
		t.Fatalf("NewDeck: %v", err)
	}
	alpha := d.Alphabet()
	if alpha.Value(0) != 0.25 || alpha.Value(1) != 0.75 {
		t.Fatalf("alphabet = %v, want [0.25 0.75]", alpha.Values())
	}
	counts := d.Counts()
	if counts[0] != 3 || counts[1] != 1 {
		t.Errorf("Counts = %v, want [3 1]", counts)
	}
}

// TestCompositionValidate covers the configuration failures.
func TestCompositionValidate(t *testing.T) {
	tests := []struct {
		name string
		comp Composition
	}{
		{"empty", Composition{}},
		{"zero total", Composition{{Value: 0.5, Count: 0}}},
		{"negative count", Composition{{Value: 0.5, Count: -1}}},
		{"non-positive value", Composition{{Value: 0, Count: 3}}},
		{"duplicate value", Composition{{Value: 0.5, Count: 1}, {Value: 0.5, Count: 2}}},
	}
	for _, tc := range tests {
		_, err := NewDeck(tc.comp)
		var cfgErr *ConfigurationError
		if !errors.As(err, &cfgErr) {
			t.Errorf("%s: err = %v, want *ConfigurationError", tc.name, err)
		}
	}
}

// TestDealConservesCards verifies dealt + remaining equals the original multiset.
func TestDealConservesCards(t *testing.T) {
	d, err := NewDeck(DefaultComposition())
	if err != nil {
		t.Fatalf("NewDeck: %v", err)
	}
	d.Shuffle(NewXorShift(7))
	before := d.Counts()

	for _, n := range []int{0, 1, 5, 17} {
		remaining := d.Remaining()
		hand, err := d.Deal(n)
		if err != nil {
			t.Fatalf("Deal(%d): %v", n, err)
		}
		if len(hand) != n {
			t.Fatalf("Deal(%d) returned %d cards", n, len(hand))
		}
		if d.Remaining() != remaining-n {
			t.Errorf("after Deal(%d): Remaining = %d, want %d", n, d.Remaining(), remaining-n)
		}
	}

	dealt := 0 + 1 + 5 + 17
	if d.Remaining() != 60-dealt {
		t.Fatalf("Remaining = %d, want %d", d.Remaining(), 60-dealt)
	}

	// Re-deal everything from a reset deck and compare to the original multiset.
	d.Reset()
	all, err := d.Deal(d.Remaining())
	if err != nil {
		t.Fatalf("Deal all: %v", err)
	}
	got := make([]int, len(before))
	for _, c := range all {
		got[c]++
	}
	for c := range before {
		if got[c] != before[c] {
			t.Errorf("card %d: dealt %d, want %d", c, got[c], before[c])
		}
	}
	if d.Remaining() != 0 {
		t.Errorf("Remaining = %d after dealing all, want 0", d.Remaining())
	}
}

// TestDealUnionMatchesOriginal deals part of a deck and checks the union of
// dealt and remaining cards is the original multiset.
func TestDealUnionMatchesOriginal(t *testing.T) {
	d, err := NewDeck(DefaultComposition())
	if err != nil {
		t.Fatalf("NewDeck: %v", err)
	}
	d.Shuffle(NewXorShift(99))
	original := d.Counts()

	hand, err := d.Deal(23)
	if err != nil {
		t.Fatalf("Deal: %v", err)
	}
	union := d.Counts()
	for _, c := range hand {
		union[c]++
	}
	for c := range original {
		if union[c] != original[c] {
			t.Errorf("card %d: union has %d, want %d", c, union[c], original[c])
		}
	}
}

// TestDealInsufficient verifies over-dealing fails without consuming cards.
func TestDealInsufficient(t *testing.T) {
	d, err := NewDeck(quarterComposition())
	if err != nil {
		t.Fatalf("NewDeck: %v", err)
	}
	_, err = d.Deal(5)
	var insuf *InsufficientCardsError
	if !errors.As(err, &insuf) {
		t.Fatalf("Deal(5) err = %v, want *InsufficientCardsError", err)
	}
	if insuf.Requested != 5 || insuf.Remaining != 4 {
		t.Errorf("error = %+v, want Requested=5 Remaining=4", insuf)
	}
	if d.Remaining() != 4 {
		t.Errorf("Remaining = %d after failed deal, want 4", d.Remaining())
	}
}

// TestShuffleDeterministic verifies that the same seed produces the same order.
func TestShuffleDeterministic(t *testing.T) {
	d1, _ := NewDeck(DefaultComposition())
	d2, _ := NewDeck(DefaultComposition())
	d1.Shuffle(NewXorShift(42))
	d2.Shuffle(NewXorShift(42))

	c1, c2 := d1.Cards(), d2.Cards()
	for i := range c1 {
		if c1[i] != c2[i] {
			t.Fatalf("position %d differs: %d vs %d", i, c1[i], c2[i])
		}
	}
}

// TestNewDeckFromCards verifies a fixed order is dealt top first.
func TestNewDeckFromCards(t *testing.T) {
	alpha := NewAlphabet(0.25, 0.5)
	d, err := NewDeckFromCards(alpha, []Card{1, 0, 1})
	if err != nil {
		t.Fatalf("NewDeckFromCards: %v", err)
	}
	got, err := d.Deal(2)
	if err != nil {
		t.Fatalf("Deal: %v", err)
	}
	if got[0] != 1 || got[1] != 0 {
		t.Errorf("Deal(2) = %v, want [1 0]", got)
	}

	if _, err := NewDeckFromCards(alpha, []Card{2}); err == nil {
		t.Error("expected error for card outside alphabet")
	}
}

// TestXorShiftSeedZero verifies that seed 0 is corrected to a usable state.
func TestXorShiftSeedZero(t *testing.T) {
	x := NewXorShift(0)
	if x.Uint64() == 0 {
		t.Error("xorshift stuck at zero after seed=0")
	}
}
