package main

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/journeydynamics/backend/api/handler"
	"github.com/journeydynamics/backend/decisionengine/tabular"
	"github.com/journeydynamics/backend/internal/config"
	"github.com/journeydynamics/backend/internal/infrastructure/backlog"
	"github.com/journeydynamics/backend/internal/infrastructure/cache"
	"github.com/journeydynamics/backend/internal/infrastructure/monitor"
	pgInfra "github.com/journeydynamics/backend/internal/infrastructure/postgres"
	redisInfra "github.com/journeydynamics/backend/internal/infrastructure/redis"
	"github.com/journeydynamics/backend/internal/router"
	"github.com/journeydynamics/backend/internal/services/lifecycle"
	"github.com/journeydynamics/backend/internal/services/replay"
	eventstorePostgres "github.com/journeydynamics/backend/eventstore/postgres"
	"github.com/journeydynamics/backend/pkg/httpcontext"
	"github.com/journeydynamics/backend/pkg/logger"
	"github.com/journeydynamics/backend/projection"
	"github.com/journeydynamics/backend/projection/views"
	"github.com/journeydynamics/backend/query"
	"github.com/journeydynamics/backend/schemavalidator"
	"github.com/journeydynamics/backend/schemavalidator/jsonschemavalidator"
	"github.com/journeydynamics/backend/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.Register("postgres", func(ctx context.Context) error {
		pool.Close()
		return nil
	})

	redisClient, err := redisInfra.NewClient(cfg.Redis)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.Register("redis", func(ctx context.Context) error {
		return redisClient.Close()
	})

	backlogStore, err := backlog.Open(cfg.Backlog.Path, cfg.Backlog.Bucket)
	if err != nil {
		zapLogger.Fatal("failed to open backlog store", zap.Error(err))
	}
	manager.Register("backlog", func(ctx context.Context) error {
		return backlogStore.Close()
	})

	mon := monitor.New(pool, redisClient, backlogStore, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	journeyCache := cache.New(redisClient, cfg.Journey.CacheTTL)

	events := eventstorePostgres.New(pool)

	dispatcher := projection.New(
		backlogStore,
		zapLogger,
		views.NewJourneyViewProjection(pool),
		views.NewWorkflowDecisionProjection(pool),
		views.NewPersonProjection(pool),
		cache.NewInvalidator(journeyCache),
	)

	decisionEngine := tabular.Default()

	var schemaValidator schemavalidator.Port
	if compiled := loadSchemaValidator(cfg.Schema.Dir, zapLogger); compiled != nil {
		schemaValidator = compiled
	}

	bus := usecase.NewCommandBus(events, decisionEngine, schemaValidator, dispatcher, zapLogger)

	q := query.New(pool, journeyCache)

	replayProcessor := replay.New(backlogStore, events, dispatcher, zapLogger, replay.Config{
		Interval:   cfg.Backlog.Interval,
		BatchSize:  cfg.Backlog.BatchSize,
		MaxRetries: cfg.Backlog.MaxRetries,
	})
	replayProcessor.Start()
	manager.Register("backlog_replay", func(ctx context.Context) error {
		replayProcessor.Stop(ctx)
		return nil
	})

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Journey: apiHandler.NewJourneyHandler(bus, q, ctxAdapter, zapLogger),
		Health:  apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	r := router.New(handlers)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.Shutdown()
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}

// loadSchemaValidator compiles the first *.schema.json file found under dir,
// falling back to nil (no validation) when the directory holds nothing
// usable — Capture then skips schema enforcement rather than failing to boot.
func loadSchemaValidator(dir string, logger *zap.Logger) *jsonschemavalidator.Validator {
	matches, err := filepath.Glob(filepath.Join(dir, "*.schema.json"))
	if err != nil || len(matches) == 0 {
		logger.Warn("no capture schemas found, schema validation disabled", zap.String("dir", dir))
		return nil
	}

	doc, err := os.ReadFile(matches[0])
	if err != nil {
		logger.Warn("failed to read capture schema, schema validation disabled", zap.Error(err))
		return nil
	}

	validator, err := jsonschemavalidator.New(doc)
	if err != nil {
		logger.Warn("failed to compile capture schema, schema validation disabled", zap.Error(err))
		return nil
	}
	return validator
}
