package agent

import (
	"testing"

	engine "github.com/ecterceocgan/deck-divide-dollar/engine"
)

// FuzzEpisodeStatesValid plays random episodes and checks that every state the
// learning agent reaches encodes to a valid index and that the learner tables
// stay consistent after the update.
func FuzzEpisodeStatesValid(f *testing.F) {
	f.Add(uint64(1), uint8(2), uint8(5))
	f.Add(uint64(42), uint8(3), uint8(3))
	f.Add(uint64(7), uint8(4), uint8(1))

	f.Fuzz(func(t *testing.T, seed uint64, players, handSize uint8) {
		rules := engine.Rules{
			NumPlayers:      2 + int(players%4),
			HandSize:        1 + int(handSize%7),
			DollarThreshold: 1.0,
		}
		deck, err := engine.NewDeck(engine.DefaultComposition())
		if err != nil {
			t.Fatal(err)
		}
		rng := engine.NewXorShift(seed)
		deck.Shuffle(rng)

		ix, err := BuildIndex(deck.Alphabet().Len())
		if err != nil {
			t.Fatal(err)
		}
		l, err := NewLearner(ix.Len(), NumActions)
		if err != nil {
			t.Fatal(err)
		}

		choosers := make([]engine.Chooser, rules.NumPlayers)
		choosers[0] = &LearningChooser{
			Indexer:  ix,
			Policy:   l.Policy(),
			Explore:  ExploringStarts{Rounds: DefaultExploringRounds},
			Recorder: l,
			Rng:      rng,
		}
		for p := 1; p < rules.NumPlayers; p++ {
			choosers[p] = Random(rng)
		}

		res, err := engine.RunEpisode(deck, choosers, rules, int(seed%uint64(rules.NumPlayers)))
		if err != nil {
			t.Fatalf("RunEpisode: %v", err)
		}
		if got := len(l.StatesSeen()); got != len(res.Rounds) {
			t.Fatalf("states seen = %d, want one per round (%d)", got, len(res.Rounds))
		}
		if err := l.FinishEpisode(float64(res.Outcome)); err != nil {
			t.Fatalf("FinishEpisode: %v", err)
		}

		for s := 0; s < l.NumStates(); s++ {
			greedy, _ := l.Greedy(s)
			best, _ := l.Q(s, greedy)
			for a := 0; a < NumActions; a++ {
				q, _ := l.Q(s, engine.Action(a))
				if q > best {
					t.Fatalf("state %d: policy %d (Q=%v) but action %d has Q=%v", s, greedy, best, a, q)
				}
			}
		}
	})
}
