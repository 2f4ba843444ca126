package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrSnakeDoc/kbase/internal/config"
	"github.com/MrSnakeDoc/kbase/internal/controller"
	"github.com/MrSnakeDoc/kbase/internal/httpserver"
	"github.com/MrSnakeDoc/kbase/internal/httpserver/deps"
	"github.com/MrSnakeDoc/kbase/internal/kv"
	"github.com/MrSnakeDoc/kbase/internal/kv/file"
	"github.com/MrSnakeDoc/kbase/internal/kv/memory"
	kvredis "github.com/MrSnakeDoc/kbase/internal/kv/redis"
	"github.com/MrSnakeDoc/kbase/internal/kv/sqlite"
	"github.com/MrSnakeDoc/kbase/internal/logger"
	"github.com/MrSnakeDoc/kbase/internal/metrics"
	"github.com/MrSnakeDoc/kbase/internal/scheduler"
	"github.com/MrSnakeDoc/kbase/internal/store/catalog"
	"github.com/MrSnakeDoc/kbase/internal/utils"
	"github.com/MrSnakeDoc/kbase/internal/version"
)

type App struct {
	cfg     *config.Config
	logger  logger.Logger
	server  *httpserver.Server
	backend kv.Store
	seeder  *scheduler.SeedImporter
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Open storage early - fail fast if unavailable
	backend, err := openBackend(cfg, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to open %s storage: %v", cfg.Backend, err)
		os.Exit(1)
	}
	store := catalog.NewStore(backend, catalog.WithKey(cfg.StorageKey))
	loggerClient.Info("storage initialized",
		logger.String("backend", cfg.Backend),
		logger.String("key", store.Key()))

	recorder := metrics.NewRecorder()
	ctl, err := controller.New(context.Background(), store, loggerClient,
		controller.WithObservers(controller.LogObserver(loggerClient), recorder))
	if err != nil {
		loggerClient.Errorf("Failed to load catalog: %v", err)
		utils.CloseLogged(backend, cfg.Backend, loggerClient)
		os.Exit(1)
	}
	if err := recorder.TrackEntries(ctl); err != nil {
		loggerClient.Warn("failed to register entry gauge", logger.Error(err))
	}

	// Initialize seed importer (if a seed file is configured)
	var seeder *scheduler.SeedImporter
	var reloadTrigger chan struct{}
	if cfg.SeedFile != "" {
		loggerClient.Info("seed file configured, initializing seed importer",
			logger.String("file", cfg.SeedFile))
		reloadTrigger = make(chan struct{}, 1)
		seeder = scheduler.NewSeedImporter(
			cfg.SeedFile,
			ctl,
			loggerClient,
			cfg.SeedInterval,
			reloadTrigger,
		)
	} else {
		loggerClient.Info("seed file not configured, seeding disabled")
	}

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:             loggerClient,
		StartTime:          time.Now(),
		Version:            version.Version,
		Commit:             version.Commit,
		BuildDate:          version.BuildDate,
		GoVersion:          version.GoVersion,
		TimeNow:            time.Now,
		AllowedHosts:       cfg.AllowedHosts,
		AllowedCIDRS:       cfg.AllowedCIDRS,
		TrustProxy:         cfg.TrustProxy,
		Backend:            cfg.Backend,
		Controller:         ctl,
		Metrics:            recorder.Handler(),
		ReloadTrigger:      reloadTrigger,
		RateLimitBurst:     cfg.RateLimitBurst,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}
	if p, ok := backend.(kv.Pinger); ok {
		d.Storage = p
	}
	if seeder != nil {
		d.Seed = seeder
	}

	server := httpserver.New(cfg.ListenAddr, loggerClient, d)

	return &App{
		cfg:     cfg,
		logger:  loggerClient,
		server:  server,
		backend: backend,
		seeder:  seeder,
	}
}

func openBackend(cfg *config.Config, log logger.Logger) (kv.Store, error) {
	switch cfg.Backend {
	case config.BackendFile:
		dir, err := file.New(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		return dir, nil
	case config.BackendSQLite:
		db, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.Info("sqlite database opened", logger.String("path", db.Path()))
		return db, nil
	case config.BackendRedis:
		return kvredis.Connect(context.Background(), kvredis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, log)
	case config.BackendMemory:
		log.Warn("memory backend selected, the catalog is lost on restart")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting kbase v%s on %s", version.Version, a.cfg.ListenAddr)
	a.logger.Infof("kbase %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start seed importer (imports once, then waits for triggers)
	if a.seeder != nil {
		a.seeder.Start(ctx)
		a.logger.Info("seed importer started",
			logger.Duration("interval", a.cfg.SeedInterval))
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		a.stopSeeder()
		utils.CloseLogged(a.backend, a.cfg.Backend, a.logger)
		return err
	}

	a.stopSeeder()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	utils.CloseLogged(a.backend, a.cfg.Backend, a.logger)

	a.logger.Info("✅ kbase stopped cleanly")
	return nil
}

func (a *App) stopSeeder() {
	if a.seeder != nil {
		a.seeder.Stop()
	}
}
