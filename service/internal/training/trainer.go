// internal/training/trainer.go
package training

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	engine "github.com/ecterceocgan/deck-divide-dollar/engine"
	"github.com/ecterceocgan/deck-divide-dollar/engine/agent"
	"github.com/ecterceocgan/deck-divide-dollar/service/internal/config"
)

// Options are the parameters of one training run.
type Options struct {
	Composition     engine.Composition
	Rules           engine.Rules
	Episodes        int
	Seed            uint64
	BatchSize       int // 1 runs episodes serially
	Workers         int // concurrent episodes within a batch
	ExploringRounds int // 0 selects agent.DefaultExploringRounds; NoExploringStarts disables the window
	Opponent        string
	SnapshotEvery   int // 0 disables periodic snapshots; the final one is always taken
	LogEvery        int // 0 disables progress logging
}

// NoExploringStarts as Options.ExploringRounds makes every round greedy.
const NoExploringStarts = -1

// OptionsFromConfig copies the run parameters out of a loaded config. A
// configured window of zero rounds maps to NoExploringStarts.
func OptionsFromConfig(c config.Config) Options {
	rounds := c.ExploringRounds
	if rounds == 0 {
		rounds = NoExploringStarts
	}
	return Options{
		Composition:     c.Composition,
		Rules:           c.Rules,
		Episodes:        c.Episodes,
		Seed:            c.Seed,
		BatchSize:       c.BatchSize,
		Workers:         c.Workers,
		ExploringRounds: rounds,
		Opponent:        c.Opponent,
		SnapshotEvery:   c.SnapshotEvery,
		LogEvery:        c.LogEvery,
	}
}

// Snapshot is a copy of the learner's state at an episode boundary.
type Snapshot struct {
	RunID    uuid.UUID
	Episode  int  // Completed episodes.
	Total    int  // Episodes the run was configured for.
	Final    bool // Last snapshot of the run.
	TakenAt  time.Time
	Alphabet engine.Alphabet
	Indexer  *agent.Indexer // Maps table rows back to raw states. Shared, read-only.
	Tables   agent.Tables
	Stats    Stats
}

// EpisodeSummary describes one finished episode.
type EpisodeSummary struct {
	RunID       uuid.UUID
	Episode     int // Zero-based.
	Total       int
	Scores      []float64
	Outcome     engine.Outcome
	WinFraction float64 // Running agent win fraction including this episode.
}

// SnapshotFunc receives snapshots. A returned error aborts the run.
type SnapshotFunc func(ctx context.Context, snap Snapshot) error

// EpisodeFunc is called after every episode's update. A returned error aborts the run.
type EpisodeFunc func(ep EpisodeSummary) error

// Trainer runs first-visit Monte Carlo control for the seat-0 agent.
type Trainer struct {
	ID uuid.UUID // Run identifier attached to logs and snapshots.

	opts     Options
	log      logrus.FieldLogger
	alphabet engine.Alphabet
	indexer  *agent.Indexer
	opponent agent.OpponentFactory
	seeds    *rand.Rand

	mu      sync.Mutex // guards learner and stats
	learner *agent.Learner
	stats   Stats

	OnSnapshot   SnapshotFunc // Optional.
	OnEpisodeEnd EpisodeFunc  // Optional.
}

// New validates opts and allocates the state index and value tables.
func New(opts Options, log logrus.FieldLogger) (*Trainer, error) {
	if err := opts.Composition.Validate(); err != nil {
		return nil, err
	}
	if err := opts.Rules.Validate(opts.Composition.Size()); err != nil {
		return nil, err
	}
	if opts.Episodes < 0 {
		return nil, &engine.ConfigurationError{Field: "episodes", Reason: "must not be negative"}
	}
	if opts.BatchSize < 1 {
		opts.BatchSize = 1
	}
	if opts.Workers < 1 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.ExploringRounds == 0 {
		opts.ExploringRounds = agent.DefaultExploringRounds
	}
	if opts.Opponent == "" {
		opts.Opponent = agent.OpponentRandom
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	alphabet := opts.Composition.Alphabet()
	ix, err := agent.BuildIndex(alphabet.Len())
	if err != nil {
		return nil, err
	}
	learner, err := agent.NewLearner(ix.Len(), agent.NumActions)
	if err != nil {
		return nil, err
	}
	opponent, err := agent.NewOpponent(opts.Opponent, ix)
	if err != nil {
		return nil, err
	}

	id, _ := uuid.NewRandom()
	return &Trainer{
		ID:       id,
		opts:     opts,
		log:      log.WithField("run", id.String()),
		alphabet: alphabet,
		indexer:  ix,
		opponent: opponent,
		seeds:    rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)),
		learner:  learner,
		stats:    newStats(opts.Rules.NumPlayers),
	}, nil
}

// Options returns the effective run parameters.
func (t *Trainer) Options() Options { return t.opts }

// Indexer returns the run's state index.
func (t *Trainer) Indexer() *agent.Indexer { return t.indexer }

// Stats returns a copy of the current win statistics.
func (t *Trainer) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats.clone()
}

// Snapshot copies the learner's tables and statistics.
func (t *Trainer) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked(false)
}

func (t *Trainer) snapshotLocked(final bool) Snapshot {
	return Snapshot{
		RunID:    t.ID,
		Episode:  t.stats.Episodes,
		Total:    t.opts.Episodes,
		Final:    final,
		TakenAt:  time.Now(),
		Alphabet: t.alphabet,
		Indexer:  t.indexer,
		Tables:   t.learner.Tables(),
		Stats:    t.stats.clone(),
	}
}

// episode is one simulated game and the agent's trace through it.
type episode struct {
	index  int
	seed   uint64
	trace  agent.Trace
	result engine.Result
}

// Run plays opts.Episodes episodes. Each batch is simulated against the
// policy as it stood when the batch began; traces are then applied serially
// in episode order. Cancellation is honored between batches. A final
// snapshot is taken whether the run completes or is cancelled.
func (t *Trainer) Run(ctx context.Context) (Stats, error) {
	start := time.Now()
	t.log.WithFields(logrus.Fields{
		"episodes":    t.opts.Episodes,
		"batch_size":  t.opts.BatchSize,
		"workers":     t.opts.Workers,
		"opponent":    t.opts.Opponent,
		"states":      t.indexer.Len(),
		"composition": t.opts.Composition.String(),
		"seed":        t.opts.Seed,
	}).Info("Training started.")

	batch := make([]*episode, 0, t.opts.BatchSize)
	for next := t.Stats().Episodes; next < t.opts.Episodes; {
		if ctx.Err() != nil {
			return t.stop(ctx, start)
		}

		n := min(t.opts.BatchSize, t.opts.Episodes-next)
		batch = batch[:0]
		for i := 0; i < n; i++ {
			batch = append(batch, &episode{index: next + i, seed: t.seeds.Uint64()})
		}

		t.mu.Lock()
		policy := t.learner.Policy()
		t.mu.Unlock()

		if err := t.simulate(ctx, batch, policy); err != nil {
			if ctx.Err() != nil {
				return t.stop(ctx, start)
			}
			return t.Stats(), err
		}
		if err := t.apply(ctx, batch, start); err != nil {
			return t.Stats(), err
		}
		next += n
	}

	if err := t.finish(ctx, start); err != nil {
		return t.Stats(), err
	}
	return t.Stats(), nil
}

// stop takes the final snapshot of a cancelled run.
func (t *Trainer) stop(ctx context.Context, start time.Time) (Stats, error) {
	stats := t.Stats()
	if err := t.finish(context.WithoutCancel(ctx), start); err != nil {
		t.log.WithError(err).Warn("Final snapshot of cancelled run failed.")
	}
	return stats, fmt.Errorf("training stopped after %d episodes: %w", stats.Episodes, ctx.Err())
}

// serial reports whether episodes record straight into the learner and are
// credited with FinishEpisode rather than a detached trace.
func (t *Trainer) serial() bool { return t.opts.BatchSize == 1 }

func (t *Trainer) simulate(ctx context.Context, batch []*episode, policy []engine.Action) error {
	if t.serial() {
		t.mu.Lock()
		defer t.mu.Unlock()
		t.learner.ClearStatesSeen()
		return t.play(batch[0], policy, t.learner)
	}
	if len(batch) == 1 || t.opts.Workers == 1 {
		for _, ep := range batch {
			if err := t.play(ep, policy, &ep.trace); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.opts.Workers)
	for _, ep := range batch {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return t.play(ep, policy, &ep.trace)
		})
	}
	return g.Wait()
}

// play simulates one episode, sending the agent's decisions to rec. Apart
// from rec it touches no shared mutable state.
func (t *Trainer) play(ep *episode, policy []engine.Action, rec agent.Recorder) error {
	rng := engine.NewXorShift(ep.seed)
	deck, err := engine.NewDeck(t.opts.Composition)
	if err != nil {
		return err
	}
	deck.Shuffle(rng)

	players := make([]engine.Chooser, t.opts.Rules.NumPlayers)
	players[0] = &agent.LearningChooser{
		Indexer:  t.indexer,
		Policy:   policy,
		Explore:  agent.ExploringStarts{Rounds: t.opts.ExploringRounds},
		Recorder: rec,
		Rng:      rng,
	}
	for p := 1; p < len(players); p++ {
		players[p] = t.opponent(rng, policy)
	}

	startSeat := rng.IntN(len(players))
	res, err := engine.RunEpisode(deck, players, t.opts.Rules, startSeat)
	if err != nil {
		return fmt.Errorf("episode %d: %w", ep.index, err)
	}
	ep.result = res
	return nil
}

func (t *Trainer) apply(ctx context.Context, batch []*episode, start time.Time) error {
	for _, ep := range batch {
		t.mu.Lock()
		reward := float64(ep.result.Outcome)
		var err error
		if t.serial() {
			err = t.learner.FinishEpisode(reward)
		} else {
			err = t.learner.ApplyTrace(&ep.trace, reward)
		}
		if err != nil {
			t.mu.Unlock()
			return fmt.Errorf("episode %d: %w", ep.index, err)
		}
		t.stats.record(ep.result)
		stats := t.stats
		completed := stats.Episodes
		var snap *Snapshot
		if t.OnSnapshot != nil && t.opts.SnapshotEvery > 0 && completed%t.opts.SnapshotEvery == 0 && completed < t.opts.Episodes {
			s := t.snapshotLocked(false)
			snap = &s
		}
		t.mu.Unlock()

		if t.OnEpisodeEnd != nil {
			err := t.OnEpisodeEnd(EpisodeSummary{
				RunID:       t.ID,
				Episode:     ep.index,
				Total:       t.opts.Episodes,
				Scores:      ep.result.Scores,
				Outcome:     ep.result.Outcome,
				WinFraction: stats.WinFraction(),
			})
			if err != nil {
				return fmt.Errorf("episode %d: %w", ep.index, err)
			}
		}
		if t.opts.LogEvery > 0 && completed%t.opts.LogEvery == 0 {
			t.log.WithFields(logrus.Fields{
				"episode":      completed,
				"win_fraction": stats.WinFraction(),
				"agent_wins":   stats.AgentWins,
				"elapsed":      time.Since(start).Round(time.Millisecond).String(),
			}).Info("Training progress.")
		}
		if snap != nil {
			if err := t.OnSnapshot(ctx, *snap); err != nil {
				return fmt.Errorf("snapshot at episode %d: %w", completed, err)
			}
			t.log.WithField("episode", completed).Debug("Snapshot saved.")
		}
	}
	return nil
}

func (t *Trainer) finish(ctx context.Context, start time.Time) error {
	t.mu.Lock()
	snap := t.snapshotLocked(true)
	t.mu.Unlock()

	t.log.WithFields(logrus.Fields{
		"episode":      snap.Stats.Episodes,
		"win_fraction": snap.Stats.WinFraction(),
		"agent_wins":   snap.Stats.AgentWins,
		"ties":         snap.Stats.Ties,
		"elapsed":      time.Since(start).Round(time.Millisecond).String(),
	}).Info("Training finished.")

	if t.OnSnapshot == nil {
		return nil
	}
	if err := t.OnSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("final snapshot: %w", err)
	}
	return nil
}
