// Package main - точка входа HTTP API Timory Hub.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/timory/timory-hub/config"
	"github.com/timory/timory-hub/internal/application/command"
	appengagement "github.com/timory/timory-hub/internal/application/engagement"
	"github.com/timory/timory-hub/internal/application/query"
	"github.com/timory/timory-hub/internal/infrastructure/messaging"
	"github.com/timory/timory-hub/internal/infrastructure/metrics"
	"github.com/timory/timory-hub/internal/infrastructure/persistence/postgres"
	"github.com/timory/timory-hub/internal/infrastructure/persistence/redis"
	"github.com/timory/timory-hub/internal/infrastructure/service"
	httpapi "github.com/timory/timory-hub/internal/interface/http"
	"github.com/timory/timory-hub/internal/interface/http/handlers"
	"github.com/timory/timory-hub/pkg/circuitbreaker"
	"github.com/timory/timory-hub/pkg/logger"
	"github.com/timory/timory-hub/pkg/retry"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. КОНФИГУРАЦИЯ И ЛОГИРОВАНИЕ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.New(cfg.Logger("timory-api"))
	log.Info().
		Str("env", cfg.App.Env).
		Str("view_scope", cfg.ViewScope().String()).
		Msg("starting Timory Hub API")

	// ─────────────────────────────────────────────────────────────────────────
	// 2. ХРАНИЛИЩА
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
		if _, err := postgres.NewMigrator(conn).Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	health := handlers.NewCompositeHealthChecker(cfg.App.Version)
	health.AddCheck("postgres", handlers.PingCheck(conn))

	var topLists query.TopLists
	cache, err := redis.NewCache(cfg.RedisConfig())
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, top lists are read from the database")
	} else {
		defer cache.Close()
		breaker := circuitbreaker.New("redis-top", redis.TopBreakerOptions(func(name string, from, to circuitbreaker.State) {
			log.Warn().Str("breaker", name).Stringer("from", from).Stringer("to", to).Msg("circuit breaker state changed")
		})...)
		topLists = redis.NewGuardedRankCache(redis.NewRankCache(cache), breaker)
		health.AddCheck("redis", handlers.PingCheck(cache))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ПРИЛОЖЕНИЕ
	// ─────────────────────────────────────────────────────────────────────────
	recorder := metrics.New(prometheus.DefaultRegisterer)
	store := postgres.NewStore(conn)

	engagement := appengagement.NewService(appengagement.Config{
		UnitOfWork: postgres.NewUnitOfWork(conn),
		Likes:      store.Likes(),
		ViewScope:  cfg.ViewScope(),
		Metrics:    recorder,
		Logger:     log,
	})

	hub := messaging.NewHub(log)
	defer hub.Close()

	cd := command.Deps{
		Members:    store.Members(),
		Watches:    store.Watches(),
		Articles:   store.Articles(),
		Engagement: engagement,
		Notifier:   service.NewNotificationService(store.Notifications(), hub, log),
	}
	qd := query.Deps{
		Members:       store.Members(),
		Watches:       store.Watches(),
		Articles:      store.Articles(),
		Comments:      store.Comments(),
		Notifications: store.Notifications(),
		TopLists:      topLists,
		MaxLimit:      cfg.Engagement.ListMaxLimit,
		Logger:        log,
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. HTTP
	// ─────────────────────────────────────────────────────────────────────────
	srv := httpapi.NewServer(httpapi.Config{
		Addr:           cfg.HTTP.Addr,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    httpapi.DefaultConfig().IdleTimeout,
		RequestTimeout: cfg.HTTP.RequestTimeout,
		MaxHeaderBytes: httpapi.DefaultConfig().MaxHeaderBytes,
	}, httpapi.Dependencies{
		Likes:          command.NewLikeTargetHandler(cd),
		Visits:         command.NewVisitTargetHandler(cd),
		Members:        command.NewMemberHandler(cd),
		Watches:        command.NewWatchHandler(cd),
		Articles:       command.NewArticleHandler(cd),
		Comments:       command.NewCommentHandler(cd),
		MemberQueries:  query.NewMemberQueries(qd),
		WatchQueries:   query.NewWatchQueries(qd),
		ArticleQueries: query.NewArticleQueries(qd),
		CommentQueries: query.NewCommentQueries(qd),
		MemberLookup:   store.Members(),
		Health:         health,
		Websocket:      hub,
		Metrics:        recorder,
		Logger:         log,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		hub.Close()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info().Msg("shutdown completed")
	return nil
}
