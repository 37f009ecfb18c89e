package engine

// Deck is an ordered multiset of Cards. Cards are dealt from the top
// (index 0); the remaining count only ever shrinks.
type Deck struct {
	alphabet Alphabet
	cards    []Card
	top      int
}

// NewDeck builds an unshuffled deck from a composition, grouped in
// ascending value order.
func NewDeck(comp Composition) (*Deck, error) {
	if err := comp.Validate(); err != nil {
		return nil, err
	}
	alpha := comp.Alphabet()
	cards := make([]Card, 0, comp.Size())
	for c := 0; c < alpha.Len(); c++ {
		v := alpha.Value(Card(c))
		for _, cc := range comp {
			if cc.Value != v {
				continue
			}
			for i := 0; i < cc.Count; i++ {
				cards = append(cards, Card(c))
			}
		}
	}
	return &Deck{alphabet: alpha, cards: cards}, nil
}

// NewDeckFromCards builds a deck in exactly the given order, top first.
// Used when a reproducible deal is required without shuffling.
func NewDeckFromCards(alpha Alphabet, cards []Card) (*Deck, error) {
	if alpha.Len() == 0 {
		return nil, &ConfigurationError{Field: "alphabet", Reason: "no card values"}
	}
	if len(cards) == 0 {
		return nil, &ConfigurationError{Field: "deck", Reason: "deck is empty"}
	}
	for _, c := range cards {
		if int(c) >= alpha.Len() {
			return nil, &ConfigurationError{Field: "deck", Reason: "card outside alphabet"}
		}
	}
	return &Deck{alphabet: alpha, cards: append([]Card(nil), cards...)}, nil
}

// Alphabet returns the value alphabet of the deck.
func (d *Deck) Alphabet() Alphabet { return d.alphabet }

// Size returns the full deck size, dealt cards included.
func (d *Deck) Size() int { return len(d.cards) }

// Remaining returns the number of undealt cards.
func (d *Deck) Remaining() int { return len(d.cards) - d.top }

// Reset returns every card to the deck without reordering.
func (d *Deck) Reset() { d.top = 0 }

// Shuffle returns every card to the deck and applies a Fisher-Yates shuffle.
func (d *Deck) Shuffle(rng Source) {
	d.top = 0
	for i := len(d.cards) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// Deal removes n cards from the top of the deck.
func (d *Deck) Deal(n int) ([]Card, error) {
	if n < 0 || n > d.Remaining() {
		return nil, &InsufficientCardsError{Requested: n, Remaining: d.Remaining()}
	}
	out := make([]Card, n)
	copy(out, d.cards[d.top:d.top+n])
	d.top += n
	return out, nil
}

// Counts returns the remaining multiset as a count per Card.
func (d *Deck) Counts() []int {
	counts := make([]int, d.alphabet.Len())
	for _, c := range d.cards[d.top:] {
		counts[c]++
	}
	return counts
}

// Cards returns a copy of the undealt cards, top first.
func (d *Deck) Cards() []Card {
	return append([]Card(nil), d.cards[d.top:]...)
}
