package engine

import (
	"fmt"
	"sort"
)

// Hand holds one player's cards in ascending order.
type Hand struct {
	cards []Card
}

// NewHand returns a sorted hand holding the given cards.
func NewHand(cards ...Card) Hand {
	var h Hand
	h.Add(cards...)
	return h
}

// Add inserts cards keeping the hand sorted.
func (h *Hand) Add(cards ...Card) {
	for _, c := range cards {
		i := sort.Search(len(h.cards), func(i int) bool { return h.cards[i] > c })
		h.cards = append(h.cards, 0)
		copy(h.cards[i+1:], h.cards[i:])
		h.cards[i] = c
	}
}

// RemoveAt removes and returns the card at position i.
func (h *Hand) RemoveAt(i int) (Card, error) {
	if i < 0 || i >= len(h.cards) {
		return 0, fmt.Errorf("hand position %d out of range (hand size %d)", i, len(h.cards))
	}
	c := h.cards[i]
	h.cards = append(h.cards[:i], h.cards[i+1:]...)
	return c, nil
}

// Len returns the number of cards held.
func (h *Hand) Len() int { return len(h.cards) }

// At returns the card at position i.
func (h *Hand) At(i int) Card { return h.cards[i] }

// Min returns the smallest card. The hand must not be empty.
func (h *Hand) Min() Card { return h.cards[0] }

// MedianIndex is the middle position, rounded down.
func (h *Hand) MedianIndex() int { return len(h.cards) / 2 }

// Median returns the card at MedianIndex. The hand must not be empty.
func (h *Hand) Median() Card { return h.cards[h.MedianIndex()] }

// Max returns the largest card. The hand must not be empty.
func (h *Hand) Max() Card { return h.cards[len(h.cards)-1] }

// Cards returns a copy of the hand.
func (h *Hand) Cards() []Card { return append([]Card(nil), h.cards...) }

// Clear empties the hand.
func (h *Hand) Clear() { h.cards = h.cards[:0] }
