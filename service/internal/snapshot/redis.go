// internal/snapshot/redis.go
package snapshot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	engine "github.com/ecterceocgan/deck-divide-dollar/engine"
	"github.com/ecterceocgan/deck-divide-dollar/engine/agent"
	"github.com/ecterceocgan/deck-divide-dollar/service/internal/training"
)

// RedisClient is the subset of *redis.Client the store uses.
type RedisClient interface {
	TxPipelined(ctx context.Context, fn func(redis.Pipeliner) error) ([]redis.Cmder, error)
	Get(ctx context.Context, key string) *redis.StringCmd
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
	Close() error
}

// RedisStore keeps each snapshot in a hash and indexes a run's snapshots in
// a sorted set scored by episode:
//
//	<prefix>:<run>:snapshot:<episode>  hash of tables and stats
//	<prefix>:<run>:snapshots           zset of hash keys
//	<prefix>:<run>:latest              key of the newest hash
type RedisStore struct {
	rdb    RedisClient
	prefix string
	ttl    time.Duration // 0 keeps keys forever
	log    logrus.FieldLogger
}

// NewRedisStore wraps rdb. Keys expire after ttl when ttl > 0.
func NewRedisStore(rdb RedisClient, prefix string, ttl time.Duration, log logrus.FieldLogger) *RedisStore {
	if prefix == "" {
		prefix = "dividedollar"
	}
	return &RedisStore{rdb: rdb, prefix: prefix, ttl: ttl, log: log}
}

// SnapshotKey names the hash holding one snapshot.
func (s *RedisStore) SnapshotKey(run string, episode int) string {
	return fmt.Sprintf("%s:%s:snapshot:%d", s.prefix, run, episode)
}

func (s *RedisStore) indexKey(run string) string  { return fmt.Sprintf("%s:%s:snapshots", s.prefix, run) }
func (s *RedisStore) latestKey(run string) string { return fmt.Sprintf("%s:%s:latest", s.prefix, run) }

// Save writes snap atomically in one MULTI/EXEC.
func (s *RedisStore) Save(ctx context.Context, snap training.Snapshot) error {
	run := snap.RunID.String()
	key := s.SnapshotKey(run, snap.Episode)
	rows, cols := snap.Tables.Q.Dims()

	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			"run", run,
			"episode", snap.Episode,
			"total", snap.Total,
			"final", snap.Final,
			"taken_at", snap.TakenAt.UTC().Format(time.RFC3339Nano),
			"agent_wins", snap.Stats.AgentWins,
			"ties", snap.Stats.Ties,
			"win_fraction", strconv.FormatFloat(snap.Stats.WinFraction(), 'g', -1, 64),
			"states", rows,
			"actions", cols,
			"policy", encodePolicy(snap.Tables.Policy),
			"q", encodeMatrix(snap.Tables.Q),
			"count", encodeMatrix(snap.Tables.Count),
			"sum", encodeMatrix(snap.Tables.Sum),
		)
		pipe.ZAdd(ctx, s.indexKey(run), redis.Z{Score: float64(snap.Episode), Member: key})
		pipe.Set(ctx, s.latestKey(run), key, s.ttl)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
			pipe.Expire(ctx, s.indexKey(run), s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis snapshot %s: %w", key, err)
	}
	if s.log != nil {
		s.log.WithFields(logrus.Fields{"key": key, "episode": snap.Episode}).Debug("Stored snapshot in Redis.")
	}
	return nil
}

// Record is a snapshot read back from a store.
type Record struct {
	RunID       string
	Episode     int
	Total       int
	Final       bool
	TakenAt     time.Time
	AgentWins   int
	WinFraction float64
	Tables      agent.Tables
}

// Latest reads back the newest snapshot of run.
func (s *RedisStore) Latest(ctx context.Context, run string) (Record, error) {
	key, err := s.rdb.Get(ctx, s.latestKey(run)).Result()
	if err != nil {
		return Record{}, fmt.Errorf("latest snapshot of %s: %w", run, err)
	}
	h, err := s.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return Record{}, fmt.Errorf("reading %s: %w", key, err)
	}
	if len(h) == 0 {
		return Record{}, fmt.Errorf("reading %s: %w", key, redis.Nil)
	}
	return decodeRecord(h)
}

// Close closes the underlying client.
func (s *RedisStore) Close() error { return s.rdb.Close() }

func decodeRecord(h map[string]string) (Record, error) {
	var (
		r    Record
		errs fieldErrors
	)
	r.RunID = h["run"]
	r.Episode = errs.atoi(h, "episode")
	r.Total = errs.atoi(h, "total")
	r.AgentWins = errs.atoi(h, "agent_wins")
	r.Final = h["final"] == "1" || h["final"] == "true"
	if v, err := strconv.ParseFloat(h["win_fraction"], 64); err == nil {
		r.WinFraction = v
	} else {
		errs.add("win_fraction", err)
	}
	if t, err := time.Parse(time.RFC3339Nano, h["taken_at"]); err == nil {
		r.TakenAt = t
	} else {
		errs.add("taken_at", err)
	}
	rows := errs.atoi(h, "states")
	cols := errs.atoi(h, "actions")
	if errs.err != nil {
		return Record{}, errs.err
	}

	var err error
	if r.Tables.Policy, err = decodePolicy(h["policy"], rows); err != nil {
		return Record{}, fmt.Errorf("policy: %w", err)
	}
	for _, m := range []struct {
		field string
		dst   **mat.Dense
	}{{"q", &r.Tables.Q}, {"count", &r.Tables.Count}, {"sum", &r.Tables.Sum}} {
		if *m.dst, err = decodeMatrix(h[m.field], rows, cols); err != nil {
			return Record{}, fmt.Errorf("%s: %w", m.field, err)
		}
	}
	return r, nil
}

type fieldErrors struct{ err error }

func (e *fieldErrors) add(field string, err error) {
	if e.err == nil {
		e.err = fmt.Errorf("field %s: %w", field, err)
	}
}

func (e *fieldErrors) atoi(h map[string]string, field string) int {
	n, err := strconv.Atoi(h[field])
	if err != nil {
		e.add(field, err)
	}
	return n
}

func encodePolicy(p []engine.Action) string {
	var b strings.Builder
	for i, a := range p {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(int(a)))
	}
	return b.String()
}

func decodePolicy(s string, n int) ([]engine.Action, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("%d entries, want %d", len(parts), n)
	}
	out := make([]engine.Action, n)
	for i, p := range parts {
		a, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return nil, err
		}
		out[i] = engine.Action(a)
	}
	return out, nil
}

// encodeMatrix writes the row-major elements comma-separated.
func encodeMatrix(m *mat.Dense) string {
	rows, cols := m.Dims()
	var b strings.Builder
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if r > 0 || c > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.FormatFloat(m.At(r, c), 'g', -1, 64))
		}
	}
	return b.String()
}

func decodeMatrix(s string, rows, cols int) (*mat.Dense, error) {
	parts := strings.Split(s, ",")
	if len(parts) != rows*cols {
		return nil, fmt.Errorf("%d elements, want %dx%d", len(parts), rows, cols)
	}
	data := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, err
		}
		data[i] = v
	}
	return mat.NewDense(rows, cols, data), nil
}
