package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/climatehub/collab-backend/internal/db"
	"github.com/climatehub/collab-backend/internal/platform/dbctx"
	"github.com/climatehub/collab-backend/internal/platform/logger"
	"github.com/climatehub/collab-backend/internal/realtime"
	"github.com/climatehub/collab-backend/internal/sse"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Clients  Clients
	Services Services
	Hub      *sse.Hub
	cancel   context.CancelFunc
}

func New() (*App, error) {
	cfg := LoadConfig()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	theDB := pg.DB()

	hub := sse.NewHub(log)
	clients := wireClients(log, hub)
	reposet := wireRepos(theDB, log)
	serviceset := wireServices(theDB, log, cfg, reposet, clients)
	handlerset := wireHandlers(log, serviceset, hub)
	middleware := wireMiddleware(log, cfg)
	router := wireRouter(log, handlerset, middleware)

	return &App{
		Log:      log,
		DB:       theDB,
		Router:   router,
		Cfg:      cfg,
		Repos:    reposet,
		Clients:  clients,
		Services: serviceset,
		Hub:      hub,
	}, nil
}

// Start launches the bus forwarder and the retention janitor.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if err := a.Clients.Bus.StartForwarder(ctx, func(m realtime.Message) {
		a.Hub.Broadcast(m)
	}); err != nil {
		a.Log.Warn("bus forwarder start failed", "error", err)
	}

	go a.retentionLoop(ctx)
}

// retentionLoop prunes the durable action log on an interval.
func (a *App) retentionLoop(ctx context.Context) {
	if !a.Cfg.RetentionEnabled || a.Cfg.ActionRetention <= 0 {
		return
	}
	ticker := time.NewTicker(a.Cfg.RetentionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().UTC().Add(-a.Cfg.ActionRetention)
			if _, err := a.Services.Actions.PruneBefore(dbctx.Context{Ctx: ctx}, cutoff); err != nil {
				a.Log.Warn("action retention prune failed", "error", err)
			}
		}
	}
}

func (a *App) Run(addr string) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Router.Run(addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Services.Dispatcher != nil {
		a.Services.Dispatcher.Close()
	}
	if a.Clients.Bus != nil {
		_ = a.Clients.Bus.Close()
	}
	if a.Clients.State != nil {
		_ = a.Clients.State.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
