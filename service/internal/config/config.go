// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	engine "github.com/ecterceocgan/deck-divide-dollar/engine"
	"github.com/ecterceocgan/deck-divide-dollar/engine/agent"
)

// Environment variables read by FromEnv.
const (
	EnvCardValues      = "DD_CARD_VALUES"
	EnvCardCounts      = "DD_CARD_COUNTS"
	EnvPlayers         = "DD_PLAYERS"
	EnvHandSize        = "DD_HAND_SIZE"
	EnvThreshold       = "DD_THRESHOLD"
	EnvTies            = "DD_TIES"
	EnvEpisodes        = "DD_EPISODES"
	EnvSeed            = "DD_SEED"
	EnvBatchSize       = "DD_BATCH_SIZE"
	EnvWorkers         = "DD_WORKERS"
	EnvExploringRounds = "DD_EXPLORING_ROUNDS"
	EnvOpponent        = "DD_OPPONENT"
	EnvSnapshotEvery   = "DD_SNAPSHOT_EVERY"
	EnvSnapshotDir     = "DD_SNAPSHOT_DIR"
	EnvRedisAddr       = "DD_REDIS_ADDR"
	EnvDatabaseURL     = "DD_DATABASE_URL"
	EnvLogLevel        = "DD_LOG_LEVEL"
	EnvLogFormat       = "DD_LOG_FORMAT"
	EnvLogEvery        = "DD_LOG_EVERY"
)

// Config is everything a training run needs.
type Config struct {
	Composition engine.Composition
	Rules       engine.Rules

	Episodes        int
	Seed            uint64 // 0 picks a seed at startup
	BatchSize       int
	Workers         int
	ExploringRounds int
	Opponent        string

	SnapshotEvery int    // 0 keeps only the final snapshot
	SnapshotDir   string // empty disables text dumps
	RedisAddr     string // empty disables the Redis store
	DatabaseURL   string // empty disables the Postgres store

	LogLevel  string
	LogFormat string // "text" or "json"
	LogEvery  int
}

// Default returns the stock table: a 60-card deck of quarters, halves and
// three-quarters, two players with five cards each, against a random opponent.
func Default() Config {
	return Config{
		Composition:     engine.DefaultComposition(),
		Rules:           engine.DefaultRules(),
		Episodes:        2000000,
		BatchSize:       1,
		Workers:         runtime.NumCPU(),
		ExploringRounds: agent.DefaultExploringRounds,
		Opponent:        agent.OpponentRandom,
		SnapshotDir:     "",
		LogLevel:        "info",
		LogFormat:       "text",
		LogEvery:        5000,
	}
}

// Load reads the given .env files into the process environment, then builds
// the config from it. With no paths it tries ./.env and ignores its absence.
// Variables already set in the environment win over file values.
func Load(paths ...string) (Config, error) {
	if len(paths) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("loading .env: %w", err)
		}
	} else if err := godotenv.Load(paths...); err != nil {
		return Config{}, fmt.Errorf("loading %s: %w", strings.Join(paths, ", "), err)
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a validated config from lookup, starting from Default.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	c := Default()
	p := parser{lookup: lookup}

	values := p.floats(EnvCardValues)
	counts := p.ints(EnvCardCounts)
	if values != nil || counts != nil {
		if values == nil {
			values = c.Composition.Alphabet().Values()
		}
		if counts == nil {
			counts = make([]int, 0, len(c.Composition))
			for _, cc := range c.Composition {
				counts = append(counts, cc.Count)
			}
		}
		if len(values) != len(counts) {
			p.fail(EnvCardCounts, fmt.Sprintf("%d counts for %d card values", len(counts), len(values)))
		} else {
			comp := make(engine.Composition, len(values))
			for i := range values {
				comp[i] = engine.CardCount{Value: values[i], Count: counts[i]}
			}
			c.Composition = comp
		}
	}

	p.setInt(EnvPlayers, &c.Rules.NumPlayers)
	p.setInt(EnvHandSize, &c.Rules.HandSize)
	p.setFloat(EnvThreshold, &c.Rules.DollarThreshold)
	if s, ok := p.get(EnvTies); ok {
		ties, err := engine.ParseTiePolicy(s)
		if err != nil {
			p.fail(EnvTies, err.Error())
		}
		c.Rules.Ties = ties
	}

	p.setInt(EnvEpisodes, &c.Episodes)
	p.setUint64(EnvSeed, &c.Seed)
	p.setInt(EnvBatchSize, &c.BatchSize)
	p.setInt(EnvWorkers, &c.Workers)
	p.setInt(EnvExploringRounds, &c.ExploringRounds)
	p.setString(EnvOpponent, &c.Opponent)
	p.setInt(EnvSnapshotEvery, &c.SnapshotEvery)
	p.setString(EnvSnapshotDir, &c.SnapshotDir)
	p.setString(EnvRedisAddr, &c.RedisAddr)
	p.setString(EnvDatabaseURL, &c.DatabaseURL)
	p.setString(EnvLogLevel, &c.LogLevel)
	p.setString(EnvLogFormat, &c.LogFormat)
	p.setInt(EnvLogEvery, &c.LogEvery)

	if p.err != nil {
		return Config{}, p.err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks the run parameters. Errors are *engine.ConfigurationError.
func (c Config) Validate() error {
	if err := c.Composition.Validate(); err != nil {
		return err
	}
	if err := c.Rules.Validate(c.Composition.Size()); err != nil {
		return err
	}
	switch {
	case c.Episodes < 0:
		return &engine.ConfigurationError{Field: "episodes", Reason: "must not be negative"}
	case c.BatchSize < 1:
		return &engine.ConfigurationError{Field: "batch size", Reason: "must be at least 1"}
	case c.Workers < 1:
		return &engine.ConfigurationError{Field: "workers", Reason: "must be at least 1"}
	case c.ExploringRounds < 0:
		return &engine.ConfigurationError{Field: "exploring rounds", Reason: "must not be negative"}
	case c.SnapshotEvery < 0:
		return &engine.ConfigurationError{Field: "snapshot every", Reason: "must not be negative"}
	case c.LogEvery < 0:
		return &engine.ConfigurationError{Field: "log every", Reason: "must not be negative"}
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return &engine.ConfigurationError{Field: "log format", Reason: fmt.Sprintf("%q is neither text nor json", c.LogFormat)}
	}
	if c.Opponent != agent.OpponentSelf {
		if _, err := agent.NewOpponent(c.Opponent, nil); err != nil {
			return err
		}
	}
	return nil
}

// parser collects the first parse failure so FromEnv reads straight through.
type parser struct {
	lookup func(string) (string, bool)
	err    error
}

func (p *parser) get(key string) (string, bool) {
	s, ok := p.lookup(key)
	s = strings.TrimSpace(s)
	return s, ok && s != ""
}

func (p *parser) fail(key, reason string) {
	if p.err == nil {
		p.err = &engine.ConfigurationError{Field: key, Reason: reason}
	}
}

func (p *parser) setString(key string, dst *string) {
	if s, ok := p.get(key); ok {
		*dst = s
	}
}

func (p *parser) setInt(key string, dst *int) {
	s, ok := p.get(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		p.fail(key, fmt.Sprintf("%q is not an integer", s))
		return
	}
	*dst = n
}

func (p *parser) setUint64(key string, dst *uint64) {
	s, ok := p.get(key)
	if !ok {
		return
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		p.fail(key, fmt.Sprintf("%q is not an unsigned integer", s))
		return
	}
	*dst = n
}

func (p *parser) setFloat(key string, dst *float64) {
	s, ok := p.get(key)
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		p.fail(key, fmt.Sprintf("%q is not a number", s))
		return
	}
	*dst = f
}

func (p *parser) floats(key string) []float64 {
	s, ok := p.get(key)
	if !ok {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			p.fail(key, fmt.Sprintf("%q is not a number", part))
			return nil
		}
		out = append(out, f)
	}
	return out
}

func (p *parser) ints(key string) []int {
	s, ok := p.get(key)
	if !ok {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			p.fail(key, fmt.Sprintf("%q is not an integer", part))
			return nil
		}
		out = append(out, n)
	}
	return out
}
