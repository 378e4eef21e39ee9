package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-co-op/gocron/v2"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/clubport/clubport/internal/api"
	"github.com/clubport/clubport/internal/cache"
	"github.com/clubport/clubport/internal/config"
	"github.com/clubport/clubport/internal/event"
	"github.com/clubport/clubport/internal/limiter"
	"github.com/clubport/clubport/internal/logger"
	"github.com/clubport/clubport/internal/ranking"
	"github.com/clubport/clubport/internal/store"
)

// run wires the components, starts the HTTP server and blocks until a
// shutdown signal. All shared clients are created exactly once here and
// injected; nothing besides this file touches process lifecycle.
func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer log.Sync()

	injector := do.New()
	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, log)

	do.Provide(injector, func(i do.Injector) (*redis.Client, error) {
		return cache.NewClient(cfg.Redis, logger.Named(log, "cache"))
	})
	do.Provide(injector, func(i do.Injector) (*cache.Facade, error) {
		client := do.MustInvoke[*redis.Client](i)
		return cache.NewFacade(client, logger.Named(log, "cache")), nil
	})
	do.Provide(injector, func(i do.Injector) (*gorm.DB, error) {
		db, err := store.NewDB(cfg.Database, logger.Named(log, "store"))
		if err != nil {
			return nil, err
		}
		if err := store.AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("migrate failed: %w", err)
		}
		return db, nil
	})
	do.Provide(injector, func(i do.Injector) (*store.MemberRepository, error) {
		return store.NewMemberRepository(do.MustInvoke[*gorm.DB](i)), nil
	})
	do.Provide(injector, func(i do.Injector) (*event.Dispatcher, error) {
		return event.NewDispatcher(cfg.Events, logger.Named(log, "event"))
	})
	do.Provide(injector, func(i do.Injector) (*ranking.Engine, error) {
		return ranking.NewEngine(
			do.MustInvoke[*store.MemberRepository](i),
			do.MustInvoke[*cache.Facade](i),
			do.MustInvoke[*event.Dispatcher](i),
			cfg.Ranking,
			logger.Named(log, "ranking"),
		)
	})

	dispatcher := do.MustInvoke[*event.Dispatcher](injector)
	dispatcher.Subscribe(event.ListenerFunc(func(ev event.RankingChanged) {
		log.Info("ranking changed",
			zap.String("member_id", ev.MemberID),
			zap.Int64("new_score", ev.NewScore),
			zap.Int64("new_rank", ev.NewRank))
	}))

	var kafkaPub *event.KafkaPublisher
	if cfg.Events.KafkaEnabled {
		kafkaPub, err = event.NewKafkaPublisher(cfg.Events.KafkaBrokers, cfg.Events.KafkaTopic, logger.Named(log, "kafka"))
		if err != nil {
			return fmt.Errorf("kafka publisher: %w", err)
		}
		dispatcher.Subscribe(kafkaPub)
	}

	engine := do.MustInvoke[*ranking.Engine](injector)
	facade := do.MustInvoke[*cache.Facade](injector)

	handler := api.NewHandler(engine, logger.Named(log, "api"))
	lim := limiter.New(facade, cfg.Limiter, logger.Named(log, "limiter"))
	router := api.NewRouter(handler, cfg.Auth, lim, logger.Named(log, "api"))

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	scheduler, err := startWarmup(cfg.Warmup, engine, log)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("http server failed", zap.Error(err))
	}

	// Teardown order: stop accepting requests, then the warmup job and
	// event fan-out, then the shared clients.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown incomplete", zap.Error(err))
	}
	if scheduler != nil {
		if err := scheduler.Shutdown(); err != nil {
			log.Warn("scheduler shutdown failed", zap.Error(err))
		}
	}
	dispatcher.Close()
	if kafkaPub != nil {
		if err := kafkaPub.Close(); err != nil {
			log.Warn("kafka close failed", zap.Error(err))
		}
	}
	if err := do.MustInvoke[*redis.Client](injector).Close(); err != nil {
		log.Warn("redis close failed", zap.Error(err))
	}
	if err := store.CloseDB(do.MustInvoke[*gorm.DB](injector)); err != nil {
		log.Warn("database close failed", zap.Error(err))
	}

	log.Info("shutdown complete")
	return nil
}

// startWarmup schedules the periodic top-N refresh so the summary page
// stays warm instead of expiring under read load.
func startWarmup(cfg config.WarmupConfig, engine *ranking.Engine, log *zap.Logger) (gocron.Scheduler, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(cfg.Interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval/2)
			defer cancel()
			if _, err := engine.GetTopN(ctx, cfg.TopN); err != nil {
				log.Warn("top-n warmup failed", zap.Error(err))
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("schedule warmup: %w", err)
	}

	scheduler.Start()
	log.Info("top-n warmup scheduled",
		zap.Duration("interval", cfg.Interval),
		zap.Int("top_n", cfg.TopN))
	return scheduler, nil
}
