//go:build integration

package engine

// integration_test.go — Full-episode tests over the public API: NewDeck,
// Shuffle, NewGame, Deal, PlayRound, RunEpisode, DecideOutcome.
//
// Run: go test -tags integration -run TestIntegration -v ./engine

import (
	"math/rand/v2"
	"testing"
)

// randomChooser picks uniformly among all actions.
func randomChooser(rng *rand.Rand) Chooser {
	return ChooserFunc(func(Observation) (Action, error) {
		return Action(rng.IntN(NumActions)), nil
	})
}

// fixedChooser always plays a.
func fixedChooser(a Action) Chooser {
	return ChooserFunc(func(Observation) (Action, error) { return a, nil })
}

// TestIntegrationRandomEpisodes plays many random games at several table
// sizes and checks conservation and scoring invariants after every round.
func TestIntegrationRandomEpisodes(t *testing.T) {
	rng := rand.New(rand.NewPCG(17, 29))
	for _, rules := range []Rules{
		{NumPlayers: 2, HandSize: 5, DollarThreshold: 1.0},
		{NumPlayers: 3, HandSize: 4, DollarThreshold: 1.0},
		{NumPlayers: 4, HandSize: 3, DollarThreshold: 1.5},
		{NumPlayers: 6, HandSize: 10, DollarThreshold: 2.0},
	} {
		for game := 0; game < 200; game++ {
			deck, err := NewDeck(DefaultComposition())
			if err != nil {
				t.Fatal(err)
			}
			deck.Shuffle(rng)
			start := rng.IntN(rules.NumPlayers)
			g, err := NewGame(deck, rules, start)
			if err != nil {
				t.Fatalf("NewGame: %v", err)
			}
			if err := g.Deal(); err != nil {
				t.Fatalf("Deal: %v", err)
			}

			players := make([]Chooser, rules.NumPlayers)
			for p := range players {
				players[p] = randomChooser(rng)
			}

			played := 0
			for !g.IsTerminal() {
				before := g.Scores()
				rec, err := g.PlayRound(players)
				if err != nil {
					t.Fatalf("%+v game %d round %d: %v", rules, game, g.Round(), err)
				}
				played += len(rec.Plays)

				after := g.Scores()
				for p := range after {
					gained := after[p] - before[p]
					if rec.Spoiled && gained != 0 {
						t.Fatalf("seat %d scored %v in a spoiled round", p, gained)
					}
					if !rec.Spoiled && gained <= 0 {
						t.Fatalf("seat %d scored %v in a scoring round", p, gained)
					}
				}
				if rec.Spoiled != Exceeds(rec.Total, rules.DollarThreshold) {
					t.Fatalf("spoiled=%v with total %v", rec.Spoiled, rec.Total)
				}

				inHands := 0
				for p := 0; p < rules.NumPlayers; p++ {
					ps := g.Player(p)
					inHands += ps.Hand.Len()
				}
				if inHands+played+g.DeckRemaining() != deck.Size() {
					t.Fatalf("cards not conserved: hands %d + played %d + deck %d != %d",
						inHands, played, g.DeckRemaining(), deck.Size())
				}
			}
			if g.Round() != rules.NumRounds(deck.Size()) {
				t.Fatalf("played %d rounds, want %d", g.Round(), rules.NumRounds(deck.Size()))
			}
		}
	}
}

// TestIntegrationFixedStrategies pits each fixed strategy against every other
// and checks RunEpisode's outcome agrees with the final scores.
func TestIntegrationFixedStrategies(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))
	for _, a := range AllActions() {
		for _, b := range AllActions() {
			for game := 0; game < 50; game++ {
				deck, _ := NewDeck(DefaultComposition())
				deck.Shuffle(rng)
				res, err := RunEpisode(deck, []Chooser{fixedChooser(a), fixedChooser(b)}, DefaultRules(), game%2)
				if err != nil {
					t.Fatalf("%v vs %v: %v", a, b, err)
				}
				outcome, winner := DecideOutcome(res.Scores, TiePenalized)
				if outcome != res.Outcome || winner != res.Winner {
					t.Fatalf("%v vs %v: result %v/%d, recomputed %v/%d", a, b, res.Outcome, res.Winner, outcome, winner)
				}
				if (res.Outcome == Win) != (res.Scores[0] > res.Scores[1]) {
					t.Fatalf("%v vs %v: outcome %v for scores %v", a, b, res.Outcome, res.Scores)
				}
			}
		}
	}
}
