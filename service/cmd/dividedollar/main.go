// cmd/dividedollar/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/ecterceocgan/deck-divide-dollar/service/internal/config"
	"github.com/ecterceocgan/deck-divide-dollar/service/internal/report"
	"github.com/ecterceocgan/deck-divide-dollar/service/internal/snapshot"
	"github.com/ecterceocgan/deck-divide-dollar/service/internal/training"
)

func main() {
	envFile := flag.String("env", "", "path to a .env file (default: ./.env if present)")
	showReport := flag.Bool("report", true, "print the learned policy table when training ends")
	flag.Parse()

	if err := run(*envFile, *showReport); err != nil && !errors.Is(err, context.Canceled) {
		logrus.WithError(err).Fatal("Training failed.")
	}
}

func run(envFile string, showReport bool) error {
	var (
		cfg config.Config
		err error
	)
	if envFile != "" {
		cfg, err = config.Load(envFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	log := logrus.New()
	if err := configureLogger(log, cfg); err != nil {
		return err
	}
	if cfg.Seed == 0 {
		cfg.Seed = uint64(time.Now().UnixNano())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	trainer, err := training.New(training.OptionsFromConfig(cfg), log)
	if err != nil {
		return err
	}
	runLog := log.WithField("run", trainer.ID.String())

	stores, fileStore, err := openStores(ctx, cfg, runLog)
	if err != nil {
		return err
	}
	defer func() {
		if err := stores.Close(); err != nil {
			runLog.WithError(err).Warn("Closing snapshot stores failed.")
		}
	}()

	var last training.Snapshot
	trainer.OnSnapshot = func(ctx context.Context, snap training.Snapshot) error {
		if snap.Final {
			last = snap
		}
		return stores.Save(ctx, snap)
	}
	if fileStore != nil {
		trainer.OnEpisodeEnd = fileStore.RecordEpisode
	}

	_, runErr := trainer.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	if showReport && last.Indexer != nil {
		if err := report.Render(os.Stdout, last); err != nil {
			return fmt.Errorf("report: %w", err)
		}
	}
	return runErr
}

func configureLogger(log *logrus.Logger, cfg config.Config) error {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	log.SetLevel(level)
	if cfg.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}

// openStores connects every configured snapshot backend.
func openStores(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (snapshot.Store, *snapshot.FileStore, error) {
	var (
		stores    []snapshot.Store
		fileStore *snapshot.FileStore
	)
	fail := func(err error) (snapshot.Store, *snapshot.FileStore, error) {
		_ = snapshot.Multi(stores...).Close()
		return nil, nil, err
	}

	if cfg.SnapshotDir != "" {
		fs, err := snapshot.NewFileStore(cfg.SnapshotDir, cfg.Episodes, log)
		if err != nil {
			return fail(err)
		}
		fileStore = fs
		stores = append(stores, fs)
		log.WithField("dir", cfg.SnapshotDir).Info("Writing snapshots to files.")
	}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return fail(fmt.Errorf("redis %s: %w", cfg.RedisAddr, err))
		}
		stores = append(stores, snapshot.NewRedisStore(rdb, "", 0, log))
		log.WithField("addr", cfg.RedisAddr).Info("Writing snapshots to Redis.")
	}

	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fail(fmt.Errorf("postgres: %w", err))
		}
		pg := snapshot.NewPostgresStore(pool, pool.Close, log)
		if err := pg.Migrate(ctx); err != nil {
			pool.Close()
			return fail(err)
		}
		stores = append(stores, pg)
		log.Info("Writing snapshots to Postgres.")
	}

	return snapshot.Multi(stores...), fileStore, nil
}
