package agent

import (
	"errors"
	"testing"

	engine "github.com/ecterceocgan/deck-divide-dollar/engine"
)

func observation(round int, showing engine.Card, hand ...engine.Card) engine.Observation {
	return engine.Observation{
		Round:     round,
		Showing:   showing,
		Hand:      hand,
		Alphabet:  engine.NewAlphabet(0.25, 0.5, 0.75),
		Threshold: 1.0,
	}
}

func TestLearningChooserRecordsVisit(t *testing.T) {
	ix, _ := BuildIndex(3)
	l := newTestLearner(t, ix.Len())
	policy := l.Policy()
	policy[0] = engine.PlayMedian // not shared with the learner

	c := &LearningChooser{
		Indexer:  ix,
		Policy:   policy,
		Explore:  ExploringStarts{Rounds: DefaultExploringRounds},
		Recorder: l,
		Rng:      engine.NewXorShift(3),
	}

	// Showing 0, hand {0,0,0} is flat index 0 and state 0.
	a, err := c.Choose(observation(4, 0, 0, 0, 0))
	if err != nil {
		t.Fatalf("Choose: %v", err)
	}
	if a != engine.PlayMedian {
		t.Errorf("greedy choice = %v, want %v", a, engine.PlayMedian)
	}
	if got := l.StatesSeen(); len(got) != 1 || got[0] != 0 {
		t.Errorf("StatesSeen = %v, want [0]", got)
	}

	// During exploration the recorded action is the one actually played.
	var tr Trace
	c.Recorder = &tr
	for i := 0; i < 20; i++ {
		a, err := c.Choose(observation(0, 3, 0, 1, 2))
		if err != nil {
			t.Fatal(err)
		}
		if got := tr.Visits()[tr.Len()-1].Action; got != a {
			t.Fatalf("recorded %v, played %v", got, a)
		}
	}
}

func TestLearningChooserEmptyHand(t *testing.T) {
	ix, _ := BuildIndex(3)
	c := &LearningChooser{Indexer: ix, Policy: make([]engine.Action, ix.Len()), Recorder: &Trace{}, Rng: engine.NewXorShift(1)}
	if _, err := c.Choose(observation(0, 3)); err == nil {
		t.Error("expected error for empty hand")
	}
}

func TestGreedyOpponent(t *testing.T) {
	ix, _ := BuildIndex(3)
	policy := make([]engine.Action, ix.Len())
	idx, _ := ix.Index(RawState{Showing: 3, Min: 0, Median: 1, Max: 2})
	policy[idx] = engine.MaximizeLarge

	g := Greedy(ix, policy)
	a, err := g.Choose(observation(0, 3, 0, 1, 2))
	if err != nil {
		t.Fatal(err)
	}
	if a != engine.MaximizeLarge {
		t.Errorf("Greedy = %v, want %v", a, engine.MaximizeLarge)
	}

	short := Greedy(ix, policy[:1])
	_, err = short.Choose(observation(0, 3, 0, 1, 2))
	var ie *InvalidStateIndexError
	if !errors.As(err, &ie) {
		t.Errorf("err = %v, want *InvalidStateIndexError", err)
	}
}

func TestNewOpponent(t *testing.T) {
	ix, _ := BuildIndex(3)
	obs := observation(0, 3, 0, 1, 2)

	for _, a := range engine.AllActions() {
		f, err := NewOpponent("always-"+a.String(), ix)
		if err != nil {
			t.Fatalf("always-%v: %v", a, err)
		}
		got, _ := f(nil, nil).Choose(obs)
		if got != a {
			t.Errorf("always-%v played %v", a, got)
		}
	}

	f, err := NewOpponent(OpponentRandom, ix)
	if err != nil {
		t.Fatal(err)
	}
	r := f(engine.NewXorShift(8), nil)
	seen := map[engine.Action]bool{}
	for i := 0; i < 200; i++ {
		a, _ := r.Choose(obs)
		seen[a] = true
	}
	if len(seen) != NumActions {
		t.Errorf("random opponent played %d distinct actions, want %d", len(seen), NumActions)
	}

	policy := make([]engine.Action, ix.Len())
	for i := range policy {
		policy[i] = engine.SpoilSmall
	}
	f, err = NewOpponent(OpponentSelf, ix)
	if err != nil {
		t.Fatal(err)
	}
	if a, _ := f(nil, policy).Choose(obs); a != engine.SpoilSmall {
		t.Errorf("self opponent played %v, want %v", a, engine.SpoilSmall)
	}
}

func TestNewOpponentRejectsUnknown(t *testing.T) {
	var cfgErr *engine.ConfigurationError
	for _, name := range []string{"", "greedy", "always-", "always-huge"} {
		if _, err := NewOpponent(name, nil); !errors.As(err, &cfgErr) {
			t.Errorf("NewOpponent(%q) err = %v, want *engine.ConfigurationError", name, err)
		}
	}
	if _, err := NewOpponent(OpponentSelf, nil); !errors.As(err, &cfgErr) {
		t.Errorf("self without indexer: err = %v", err)
	}
}
