// internal/snapshot/postgres.go
package snapshot

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"

	"github.com/ecterceocgan/deck-divide-dollar/service/internal/training"
)

// DB is the subset of *pgxpool.Pool and *pgx.Conn the store uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

const schema = `
CREATE TABLE IF NOT EXISTS training_snapshots (
	run_id       UUID             NOT NULL,
	episode      INTEGER          NOT NULL,
	total        INTEGER          NOT NULL,
	final        BOOLEAN          NOT NULL,
	agent_wins   INTEGER          NOT NULL,
	ties         INTEGER          NOT NULL,
	win_fraction DOUBLE PRECISION NOT NULL,
	taken_at     TIMESTAMPTZ      NOT NULL,
	PRIMARY KEY (run_id, episode)
);
CREATE TABLE IF NOT EXISTS training_action_values (
	run_id      UUID             NOT NULL,
	episode     INTEGER          NOT NULL,
	state       INTEGER          NOT NULL,
	showing     SMALLINT         NOT NULL,
	min_card    SMALLINT         NOT NULL,
	median_card SMALLINT         NOT NULL,
	max_card    SMALLINT         NOT NULL,
	action      SMALLINT         NOT NULL,
	q           DOUBLE PRECISION NOT NULL,
	visits      BIGINT           NOT NULL,
	reward_sum  DOUBLE PRECISION NOT NULL,
	greedy      BOOLEAN          NOT NULL,
	PRIMARY KEY (run_id, episode, state, action),
	FOREIGN KEY (run_id, episode) REFERENCES training_snapshots (run_id, episode) ON DELETE CASCADE
);`

var actionValueColumns = []string{
	"run_id", "episode", "state", "showing", "min_card", "median_card", "max_card",
	"action", "q", "visits", "reward_sum", "greedy",
}

// PostgresStore writes one training_snapshots row per snapshot and bulk-copies
// every visited (state, action) pair into training_action_values.
type PostgresStore struct {
	db    DB
	log   logrus.FieldLogger
	close func()
}

// NewPostgresStore wraps db. closeFn, if non-nil, runs on Close.
func NewPostgresStore(db DB, closeFn func(), log logrus.FieldLogger) *PostgresStore {
	return &PostgresStore{db: db, log: log, close: closeFn}
}

// Migrate creates the snapshot tables if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate snapshot schema: %w", err)
	}
	return nil
}

// Save replaces any earlier copy of the same (run, episode) snapshot. The
// delete, insert and copy commit together or not at all.
func (s *PostgresStore) Save(ctx context.Context, snap training.Snapshot) error {
	run := snap.RunID.String()
	rows, err := actionValueRows(run, snap)
	if err != nil {
		return err
	}

	var n int64
	err = pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM training_snapshots WHERE run_id = $1 AND episode = $2`, run, snap.Episode); err != nil {
			return err
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO training_snapshots (run_id, episode, total, final, agent_wins, ties, win_fraction, taken_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			run, snap.Episode, snap.Total, snap.Final,
			snap.Stats.AgentWins, snap.Stats.Ties, snap.Stats.WinFraction(), snap.TakenAt,
		)
		if err != nil {
			return err
		}
		n, err = tx.CopyFrom(ctx, pgx.Identifier{"training_action_values"}, actionValueColumns, pgx.CopyFromRows(rows))
		return err
	})
	if err != nil {
		return fmt.Errorf("postgres snapshot %d: %w", snap.Episode, err)
	}
	if s.log != nil {
		s.log.WithFields(logrus.Fields{"episode": snap.Episode, "rows": n}).Debug("Stored snapshot in Postgres.")
	}
	return nil
}

// actionValueRows lists the visited (state, action) pairs of snap in
// training_action_values column order.
func actionValueRows(run string, snap training.Snapshot) ([][]any, error) {
	tab := snap.Tables
	states, actions := tab.Count.Dims()
	var rows [][]any
	for st := 0; st < states; st++ {
		raw, err := snap.Indexer.Raw(st)
		if err != nil {
			return nil, err
		}
		for a := 0; a < actions; a++ {
			visits := tab.Count.At(st, a)
			if visits == 0 {
				continue
			}
			rows = append(rows, []any{
				run, int32(snap.Episode), int32(st),
				int16(raw.Showing), int16(raw.Min), int16(raw.Median), int16(raw.Max),
				int16(a), tab.Q.At(st, a), int64(visits), tab.Sum.At(st, a),
				int(tab.Policy[st]) == a,
			})
		}
	}
	return rows, nil
}

// Close runs the close function given to NewPostgresStore.
func (s *PostgresStore) Close() error {
	if s.close != nil {
		s.close()
	}
	return nil
}
