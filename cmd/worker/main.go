// Package main - точка входа для фоновых процессов (Worker) Timory Hub.
//
// Worker выполняет ночной пересчёт рангов (rollback → watches → members)
// и периодическую сверку денормализованных счётчиков с таблицами фактов.
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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/timory/timory-hub/config"
	"github.com/timory/timory-hub/internal/infrastructure/metrics"
	"github.com/timory/timory-hub/internal/infrastructure/persistence/postgres"
	"github.com/timory/timory-hub/internal/infrastructure/persistence/redis"
	"github.com/timory/timory-hub/internal/infrastructure/scheduler"
	"github.com/timory/timory-hub/internal/infrastructure/scheduler/jobs"
	"github.com/timory/timory-hub/pkg/logger"
	"github.com/timory/timory-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	runNow := flag.Bool("run-now", false, "run the rank phases once and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *runNow); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, runNow bool) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. КОНФИГУРАЦИЯ И ЛОГИРОВАНИЕ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.New(cfg.Logger("timory-worker"))
	log.Info().
		Str("env", cfg.App.Env).
		Str("timezone", cfg.App.Timezone).
		Bool("run_now", runNow).
		Msg("starting Timory Hub worker")

	// ─────────────────────────────────────────────────────────────────────────
	// 2. POSTGRES
	// ─────────────────────────────────────────────────────────────────────────
	conn, err := retry.Value(ctx, func(ctx context.Context) (*postgres.Connection, error) {
		return postgres.NewConnection(ctx, cfg.Postgres())
	}, retry.WithMaxAttempts(5), retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
		log.Warn().Err(err).Int("attempt", attempt).Dur("delay", delay).Msg("database not ready, retrying")
	}))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer conn.Close()

	if cfg.Database.AutoMigrate {
		n, err := postgres.NewMigrator(conn).Migrate(ctx)
		if err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info().Int("applied", n).Msg("database schema is up to date")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 3. REDIS (топ-листы и блокировки фаз)
	// ─────────────────────────────────────────────────────────────────────────
	var (
		top    jobs.TopListWriter
		locker jobs.Locker
	)
	cache, err := redis.NewCache(cfg.RedisConfig())
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, top lists and phase locks disabled")
	} else {
		defer cache.Close()
		top = redis.NewRankCache(cache)
		locker = cache
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ПЛАНИРОВЩИК И ЗАДАЧИ
	// ─────────────────────────────────────────────────────────────────────────
	recorder := metrics.New(prometheus.DefaultRegisterer)
	sched := scheduler.New(scheduler.Config{
		Logger:     log,
		Timezone:   cfg.Location(),
		JobTimeout: cfg.Batch.JobTimeout,
		Metrics:    recorder,
	})

	if err := register(sched, cfg, conn, top, locker, log); err != nil {
		return err
	}

	if runNow {
		return sched.RunSequence(ctx, jobs.RankPhases...)
	}

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	log.Info().Int("jobs", len(sched.ListJobs())).Msg("worker is running")

	<-ctx.Done()
	log.Info().Msg("received shutdown signal")
	if err := sched.Stop(); err != nil && !errors.Is(err, scheduler.ErrSchedulerNotRunning) {
		return fmt.Errorf("failed to stop scheduler: %w", err)
	}
	log.Info().Msg("shutdown completed")
	return nil
}

// register wires the rank phases on their cron specs and the counter sweep
// on its interval.
func register(sched *scheduler.Scheduler, cfg *config.Config, conn *postgres.Connection, top jobs.TopListWriter, locker jobs.Locker, log zerolog.Logger) error {
	store := postgres.NewStore(conn)
	rankCfg := jobs.RankConfig{
		Concurrency: cfg.Batch.Concurrency,
		TopListSize: cfg.Batch.TopListSize,
		LockTTL:     cfg.Batch.LockTTL,
	}

	crons := []struct {
		job  scheduler.Job
		spec string
	}{
		{jobs.NewRankRollbackJob(store.WatchRanks(), store.MemberRanks(), locker, rankCfg, log), cfg.Batch.RollbackCron},
		{jobs.NewRankWatchesJob(store.WatchRanks(), top, locker, rankCfg, log), cfg.Batch.WatchesCron},
		{jobs.NewRankMembersJob(store.MemberRanks(), top, locker, rankCfg, log), cfg.Batch.MembersCron},
	}
	for _, c := range crons {
		s, err := scheduler.ParseCron(c.spec, cfg.Location())
		if err != nil {
			return fmt.Errorf("job %s: %w", c.job.Name(), err)
		}
		if err := sched.Register(c.job, s); err != nil {
			return err
		}
	}

	reconcile := jobs.NewReconcileCountersJob(postgres.NewReconciler(conn), log)
	return sched.Register(reconcile, scheduler.NewIntervalSchedule(cfg.Batch.ReconcileEvery))
}
