// Package main is the entry point of the gamification and event engine.
//
// The architecture follows Clean Architecture and DDD:
// - Domain: pure business logic without external dependencies
// - Application: use case orchestration (Commands/Queries/Event Handlers)
// - Infrastructure: repository implementations, messaging, realtime fanout
// - Interface: HTTP endpoints (REST, webhooks, event stream)
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Tojustn/Shepherd/config"
	"github.com/Tojustn/Shepherd/internal/application/command"
	"github.com/Tojustn/Shepherd/internal/application/eventhandler"
	"github.com/Tojustn/Shepherd/internal/application/query"
	"github.com/Tojustn/Shepherd/internal/application/webhook"
	"github.com/Tojustn/Shepherd/internal/domain/progression"
	"github.com/Tojustn/Shepherd/internal/domain/shared"
	"github.com/Tojustn/Shepherd/internal/infrastructure/messaging"
	"github.com/Tojustn/Shepherd/internal/infrastructure/metrics"
	"github.com/Tojustn/Shepherd/internal/infrastructure/persistence/postgres"
	"github.com/Tojustn/Shepherd/internal/infrastructure/persistence/redis"
	"github.com/Tojustn/Shepherd/internal/infrastructure/realtime"
	httpserver "github.com/Tojustn/Shepherd/internal/interface/http"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	slog.SetDefault(log)
	log.Info("starting gamification engine",
		"env", cfg.App.Environment,
		"debug", cfg.App.Debug,
		"timezone", cfg.App.Timezone,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. DATABASE (PostgreSQL)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	var dbConn *postgres.Connection
	if cfg.Database.URL != "" {
		dbConn, err = postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	} else {
		pgCfg := postgres.DefaultConfig()
		pgCfg.Host = cfg.Database.Host
		pgCfg.Port = cfg.Database.Port
		pgCfg.User = cfg.Database.User
		pgCfg.Password = cfg.Database.Password
		pgCfg.Database = cfg.Database.Name
		pgCfg.SSLMode = cfg.Database.SSLMode
		pgCfg.MaxConns = cfg.Database.MaxConns
		pgCfg.MinConns = cfg.Database.MinConns
		pgCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime
		pgCfg.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime
		dbConn, err = postgres.NewConnection(ctx, pgCfg)
	}
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()
	log.Info("database connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. MIGRATIONS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("running database migrations...")
	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("migrations completed")

	// ─────────────────────────────────────────────────────────────────────────
	// 5. REDIS (optional read-model cache)
	// ─────────────────────────────────────────────────────────────────────────
	var redisCache *redis.Cache
	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		redisCache, err = redis.NewCache(redisCfg)
		if err != nil {
			log.Warn("failed to connect to Redis, caching disabled", "error", err)
			redisCache = nil
		} else {
			defer redisCache.Close()
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. REPOSITORIES
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing repositories...")
	accountRepo := postgres.NewAccountRepository(dbConn)
	streakRepo := postgres.NewStreakRepository(dbConn)
	ledgerRepo := postgres.NewLedgerRepository(dbConn)
	goalRepo := postgres.NewGoalRepository(dbConn)
	deliveryRepo := postgres.NewDeliveryRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. EVENT BUS, HUB, METRICS
	// ─────────────────────────────────────────────────────────────────────────
	eventBus := messaging.NewInMemoryEventBus(log)
	defer eventBus.Close()

	hub := realtime.NewHub(cfg.Engine.HubBuffer, log)
	promMetrics := metrics.New(hub.ConnectionCount)

	// ─────────────────────────────────────────────────────────────────────────
	// 8. APPLICATION LAYER (Commands, Queries)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing application layer...")

	caps := progression.DefaultDailyCaps()
	caps[progression.SourceStreakBonus] = cfg.Engine.StreakBonusDailyCap

	awardCmd := command.NewAwardXPHandler(accountRepo, ledgerRepo, streakRepo, caps, cfg.App.Location)
	advanceCmd := command.NewAdvanceStreakHandler(streakRepo, cfg.App.Location)
	incrementCmd := command.NewIncrementGoalHandler(goalRepo, awardCmd)
	ensureDailyCmd := command.NewEnsureDailyGoalsHandler(goalRepo, cfg.App.Location)
	createGoalCmd := command.NewCreateGoalHandler(goalRepo)
	completeGoalCmd := command.NewCompleteGoalHandler(goalRepo, awardCmd)
	deleteGoalCmd := command.NewDeleteGoalHandler(goalRepo)
	recordSolveCmd := command.NewRecordSolveHandler(awardCmd, advanceCmd, goalRepo, incrementCmd, cfg.App.Location)
	ackLevelUpCmd := command.NewAckLevelUpHandler(accountRepo)
	markReadCmd := command.NewMarkEventsReadHandler(ledgerRepo)

	progressQuery := query.NewGetProgressHandler(accountRepo)
	streakQuery := query.NewGetStreakHandler(streakRepo)
	listGoalsQuery := query.NewListCustomGoalsHandler(goalRepo)
	unreadQuery := query.NewListUnreadEventsHandler(ledgerRepo)

	// ─────────────────────────────────────────────────────────────────────────
	// 9. WEBHOOK DISPATCHER
	// ─────────────────────────────────────────────────────────────────────────
	var cacheInvalidator webhook.CacheInvalidator
	if redisCache != nil {
		cacheInvalidator = redisCache
	}

	dispatcher := webhook.NewDispatcher(
		cfg.Engine.WebhookSecret,
		accountRepo,
		deliveryRepo,
		dbConn,
		eventBus,
		cacheInvalidator,
		log,
	)
	dispatcher.Register("push", webhook.NewPushHandler(awardCmd, advanceCmd, goalRepo, incrementCmd, cfg.App.Location))

	// ─────────────────────────────────────────────────────────────────────────
	// 10. EVENT HANDLERS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("registering event handlers...")

	var ehCache eventhandler.CacheInvalidator
	if redisCache != nil {
		ehCache = redisCache
	}

	if err := eventBus.Subscribe(shared.EventXPGained,
		eventhandler.NewOnXPGainedHandler(hub, ledgerRepo, ehCache, log)); err != nil {
		return fmt.Errorf("failed to subscribe xp handler: %w", err)
	}

	goalChanged := eventhandler.NewOnGoalChangedHandler(hub, log)
	for _, eventType := range []shared.EventType{shared.EventGoalCreated, shared.EventGoalUpdated, shared.EventGoalDeleted} {
		if err := eventBus.Subscribe(eventType, goalChanged); err != nil {
			return fmt.Errorf("failed to subscribe goal handler: %w", err)
		}
	}

	if err := eventBus.SubscribeAll(metrics.NewObserver(promMetrics)); err != nil {
		return fmt.Errorf("failed to subscribe metrics observer: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 11. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	serverCfg := httpserver.DefaultConfig()
	serverCfg.Host = cfg.Server.Host
	serverCfg.Port = cfg.Server.Port
	serverCfg.ReadTimeout = cfg.Server.ReadTimeout
	serverCfg.IdleTimeout = cfg.Server.IdleTimeout
	serverCfg.MaxHeaderBytes = cfg.Server.MaxHeaderBytes
	serverCfg.KeepaliveInterval = cfg.Engine.KeepaliveInterval
	serverCfg.EnableMetrics = cfg.Server.EnableMetrics

	healthCheckers := map[string]httpserver.HealthChecker{
		"postgres": dbConn,
	}
	if redisCache != nil {
		healthCheckers["redis"] = redisCache
	}

	server := httpserver.NewServer(serverCfg, httpserver.Dependencies{
		EnsureDailyGoals: ensureDailyCmd,
		CreateGoal:       createGoalCmd,
		IncrementGoal:    incrementCmd,
		CompleteGoal:     completeGoalCmd,
		DeleteGoal:       deleteGoalCmd,
		RecordSolve:      recordSolveCmd,
		AckLevelUp:       ackLevelUpCmd,
		MarkEventsRead:   markReadCmd,

		GetProgress:      progressQuery,
		GetStreak:        streakQuery,
		ListCustomGoals:  listGoalsQuery,
		ListUnreadEvents: unreadQuery,

		Dispatcher: dispatcher,
		Tx:         dbConn,
		Publisher:  eventBus,
		Hub:        hub,
		Auth:       httpserver.NewTokenVerifier(cfg.Engine.TokenSecret),
		Metrics:    promMetrics,

		HealthCheckers: healthCheckers,
		Logger:         log,
	})

	errCh := server.StartAsync()

	// ─────────────────────────────────────────────────────────────────────────
	// 12. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info("context cancelled")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	log.Info("shutdown complete")
	return nil
}

// setupLogger builds the process logger. JSON in production, text otherwise.
func setupLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.App.Debug {
		level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.App.Environment == config.EnvProduction {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	return slog.New(handler)
}
