// Package engine implements the deck-based divide-the-dollar card game.
//
// Each round every player plays one card. If the played cards sum to at most
// the dollar threshold, every player banks the value of the card they played;
// otherwise the round is spoiled and nobody scores. Players then refill from
// a shared deck until it runs out.
package engine

import "fmt"

// PlayerState holds one seat's hand and running score.
type PlayerState struct {
	Hand       Hand
	Score      float64
	LastPlayed Card
}

// Observation is what a seat sees when it must choose an action.
type Observation struct {
	Round     int
	Seat      int
	Position  int     // 0 when leading the round
	Showing   Card    // last card played this round; NoCard when leading
	Total     float64 // sum of cards played so far this round
	Hand      []Card  // ascending copy of the seat's hand
	Alphabet  Alphabet
	Threshold float64
}

// Leading reports whether the observing seat plays first this round.
func (o Observation) Leading() bool { return o.Position == 0 }

// Chooser picks an action for one turn.
type Chooser interface {
	Choose(obs Observation) (Action, error)
}

// ChooserFunc adapts a function to the Chooser interface.
type ChooserFunc func(obs Observation) (Action, error)

func (f ChooserFunc) Choose(obs Observation) (Action, error) { return f(obs) }

// Play is one card put down during a round.
type Play struct {
	Seat     int
	Action   Action
	Card     Card
	Fallback bool // the hand could not carry out Action's intent
}

// RoundRecord summarizes a completed round.
type RoundRecord struct {
	Round   int
	Order   []int
	Plays   []Play
	Total   float64
	Spoiled bool
}

// Game is the state of one episode.
type Game struct {
	Rules     Rules
	deck      *Deck
	alphabet  Alphabet
	players   []PlayerState
	startSeat int
	round     int
	numRounds int
	dealt     bool
}

// NewGame prepares an episode on deck. The deck is used in its current
// order; shuffle it first for a random deal. startSeat leads round 0.
func NewGame(deck *Deck, rules Rules, startSeat int) (*Game, error) {
	if deck == nil {
		return nil, &ConfigurationError{Field: "deck", Reason: "nil deck"}
	}
	if err := rules.Validate(deck.Remaining()); err != nil {
		return nil, err
	}
	if startSeat < 0 || startSeat >= rules.NumPlayers {
		return nil, &ConfigurationError{Field: "start seat", Reason: fmt.Sprintf("%d outside [0,%d)", startSeat, rules.NumPlayers)}
	}
	g := &Game{
		Rules:     rules,
		deck:      deck,
		alphabet:  deck.Alphabet(),
		players:   make([]PlayerState, rules.NumPlayers),
		startSeat: startSeat,
		numRounds: rules.NumRounds(deck.Remaining()),
	}
	for p := range g.players {
		g.players[p].LastPlayed = g.alphabet.NoCard()
	}
	return g, nil
}

// Deal gives every seat HandSize cards, one contiguous block per seat in
// seat order.
func (g *Game) Deal() error {
	if g.dealt {
		return fmt.Errorf("hands already dealt")
	}
	for p := range g.players {
		cards, err := g.deck.Deal(g.Rules.HandSize)
		if err != nil {
			return err
		}
		g.players[p].Hand.Add(cards...)
	}
	g.dealt = true
	return nil
}

// ---------------------------------------------------------------------------
// Query methods
// ---------------------------------------------------------------------------

// Alphabet returns the card-value alphabet in play.
func (g *Game) Alphabet() Alphabet { return g.alphabet }

// Round returns the index of the next round to play.
func (g *Game) Round() int { return g.round }

// NumRounds returns the total number of rounds in the episode.
func (g *Game) NumRounds() int { return g.numRounds }

// IsTerminal reports whether every round has been played.
func (g *Game) IsTerminal() bool { return g.round >= g.numRounds }

// Player returns a copy of seat p's state.
func (g *Game) Player(p int) PlayerState {
	ps := g.players[p]
	ps.Hand = NewHand(ps.Hand.Cards()...)
	return ps
}

// Scores returns every seat's score, indexed by seat.
func (g *Game) Scores() []float64 {
	out := make([]float64, len(g.players))
	for p := range g.players {
		out[p] = g.players[p].Score
	}
	return out
}

// DeckRemaining returns the number of undealt cards.
func (g *Game) DeckRemaining() int { return g.deck.Remaining() }

// TurnOrder returns the seat order of round r. The leader of round r-1 acts
// last in round r.
func (g *Game) TurnOrder(r int) []int {
	n := len(g.players)
	order := make([]int, n)
	for i := range order {
		order[i] = (g.startSeat + r + i) % n
	}
	return order
}

// ---------------------------------------------------------------------------
// Round play
// ---------------------------------------------------------------------------

// PlayRound plays one round: each seat in turn order chooses and plays a
// card, the round is scored, then every seat draws while the deck lasts.
func (g *Game) PlayRound(players []Chooser) (RoundRecord, error) {
	if !g.dealt {
		return RoundRecord{}, fmt.Errorf("hands not dealt")
	}
	if g.IsTerminal() {
		return RoundRecord{}, fmt.Errorf("episode is over after %d rounds", g.numRounds)
	}
	if len(players) != len(g.players) {
		return RoundRecord{}, fmt.Errorf("got %d choosers for %d seats", len(players), len(g.players))
	}

	rec := RoundRecord{
		Round: g.round,
		Order: g.TurnOrder(g.round),
		Plays: make([]Play, 0, len(g.players)),
	}
	showing := g.alphabet.NoCard()

	for pos, seat := range rec.Order {
		ps := &g.players[seat]
		obs := Observation{
			Round:     g.round,
			Seat:      seat,
			Position:  pos,
			Showing:   showing,
			Total:     rec.Total,
			Hand:      ps.Hand.Cards(),
			Alphabet:  g.alphabet,
			Threshold: g.Rules.DollarThreshold,
		}
		action, err := players[seat].Choose(obs)
		if err != nil {
			return rec, fmt.Errorf("seat %d round %d: %w", seat, g.round, err)
		}
		if !action.Valid() {
			return rec, fmt.Errorf("seat %d round %d: invalid action %d", seat, g.round, uint8(action))
		}
		fallback := !Achievable(&ps.Hand, g.alphabet, action, pos == 0, rec.Total, g.Rules.DollarThreshold)
		i, err := CardPosition(&ps.Hand, g.alphabet, action, pos == 0, rec.Total, g.Rules.DollarThreshold)
		if err != nil {
			return rec, fmt.Errorf("seat %d round %d: %w", seat, g.round, err)
		}
		card, err := ps.Hand.RemoveAt(i)
		if err != nil {
			return rec, err
		}
		ps.LastPlayed = card
		showing = card
		rec.Total += g.alphabet.Value(card)
		rec.Plays = append(rec.Plays, Play{Seat: seat, Action: action, Card: card, Fallback: fallback})
	}

	rec.Spoiled = !g.scoreRound(rec.Total)

	for p := range g.players {
		if g.deck.Remaining() == 0 {
			break
		}
		cards, err := g.deck.Deal(1)
		if err != nil {
			return rec, err
		}
		g.players[p].Hand.Add(cards...)
	}

	g.round++
	return rec, nil
}

// scoreRound pays every seat its last-played card when the round total is
// within the threshold. It reports whether the round paid out.
func (g *Game) scoreRound(total float64) bool {
	if Exceeds(total, g.Rules.DollarThreshold) {
		return false
	}
	for p := range g.players {
		g.players[p].Score += g.alphabet.Value(g.players[p].LastPlayed)
	}
	return true
}

// ---------------------------------------------------------------------------
// Episode
// ---------------------------------------------------------------------------

// Result is the outcome of a complete episode.
type Result struct {
	Scores  []float64
	Outcome Outcome // from seat 0's perspective
	Winner  int     // unique top scorer, or -1 on a tie for first
	Rounds  []RoundRecord
}

// RunEpisode deals from deck, plays every round and decides the outcome for
// seat 0.
func RunEpisode(deck *Deck, players []Chooser, rules Rules, startSeat int) (Result, error) {
	g, err := NewGame(deck, rules, startSeat)
	if err != nil {
		return Result{}, err
	}
	if err := g.Deal(); err != nil {
		return Result{}, err
	}
	rounds := make([]RoundRecord, 0, g.NumRounds())
	for !g.IsTerminal() {
		rec, err := g.PlayRound(players)
		if err != nil {
			return Result{}, err
		}
		rounds = append(rounds, rec)
	}
	scores := g.Scores()
	outcome, winner := DecideOutcome(scores, rules.Ties)
	return Result{Scores: scores, Outcome: outcome, Winner: winner, Rounds: rounds}, nil
}
