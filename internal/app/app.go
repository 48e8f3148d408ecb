package app

import (
	"context"
	"fmt"
	"os"

	"gorm.io/gorm"

	"github.com/yungbote/allbound-backend/internal/data/db"
	"github.com/yungbote/allbound-backend/internal/http"
	"github.com/yungbote/allbound-backend/internal/jobs/scheduler"
	"github.com/yungbote/allbound-backend/internal/observability"
	"github.com/yungbote/allbound-backend/internal/platform/logger"
)

type App struct {
	Log       *logger.Logger
	DB        *gorm.DB
	Server    *http.Server
	Cfg       Config
	Repos     Repos
	Services  Services
	Clients   Clients
	Metrics   *observability.Metrics
	Scheduler *scheduler.Scheduler

	dbService    *db.Service
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	a, err := build(context.Background(), log, cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}
	return a, nil
}

// NewWithoutHTTP wires storage and services only, for command line tools.
func NewWithoutHTTP(ctx context.Context, log *logger.Logger, cfg Config) (*App, error) {
	dbs, err := openDB(log, cfg)
	if err != nil {
		return nil, err
	}
	reposet := wireRepos(dbs.DB(), log)
	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		dbs.Close()
		return nil, err
	}
	serviceset, err := wireServices(dbs.DB(), log, cfg, reposet, clients)
	if err != nil {
		clients.Close()
		dbs.Close()
		return nil, err
	}
	return &App{
		Log:       log,
		DB:        dbs.DB(),
		Cfg:       cfg,
		Repos:     reposet,
		Services:  serviceset,
		Clients:   clients,
		dbService: dbs,
	}, nil
}

func openDB(log *logger.Logger, cfg Config) (*db.Service, error) {
	dbs, err := db.NewService(log, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := db.AutoMigrateAll(dbs.DB()); err != nil {
		dbs.Close()
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	return dbs, nil
}

func build(ctx context.Context, log *logger.Logger, cfg Config) (*App, error) {
	otelShutdown := observability.InitOTel(ctx, log, cfg.Otel)
	metrics := observability.Init(log)

	a, err := NewWithoutHTTP(ctx, log, cfg)
	if err != nil {
		_ = otelShutdown(ctx)
		return nil, err
	}
	a.Metrics = metrics
	a.otelShutdown = otelShutdown

	if seeded, err := a.Services.Content.SeedIfEmpty(ctx); err != nil {
		log.Warn("Course seed failed", "error", err)
	} else if seeded {
		log.Info("Empty store seeded from the course bundle")
	}

	sched, err := scheduler.New(log, cfg.Jobs, a.Services.Invoice)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Scheduler = sched

	handlerset := wireHandlers(log, a.Services)
	middleware := wireMiddleware(log, cfg, a.Services)
	a.Server = http.NewServer(routerConfig(log, cfg, metrics, handlerset, middleware))
	return a, nil
}

// Start launches background work: the scheduler and metric collectors.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.Scheduler != nil {
		a.Scheduler.Start(ctx)
	}
	if a.Metrics != nil {
		a.Metrics.StartPostgresCollector(ctx, a.Log, a.DB)
		if a.Clients.Cache != nil && a.Clients.Cache.Enabled() {
			a.Metrics.StartRedisCollector(ctx, a.Log, a.Cfg.Redis.Addr)
		}
	}
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Server.Run(ctx, ":"+a.Cfg.Port)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.Clients.Close()
	if a.dbService != nil {
		a.dbService.Close()
	}
	if a.otelShutdown != nil {
		if err := a.otelShutdown(context.Background()); err != nil && a.Log != nil {
			a.Log.Warn("Tracer shutdown failed", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
