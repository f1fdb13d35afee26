package app

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"portal/internal/config"
	"portal/internal/logger"
	"portal/internal/metrics"
	"portal/internal/pipeline"
	"portal/internal/session"
	"portal/internal/storage"
	"portal/internal/upstream"
	"portal/internal/web"
)

// App holds the long-lived services shared by the server and the CLI.
type App struct {
	Config    config.Config
	Logger    *zap.Logger
	DB        *storage.DB
	Metrics   *metrics.Registry
	Upstream  *upstream.Client
	Orders    *pipeline.OrderService
	Suppliers *pipeline.SupplierService
	Sessions  *session.Manager
}

func New(cfg config.Config) (*App, error) {
	log, err := logger.New(cfg.LogLevel, cfg.LogEncoding)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	sessions, err := session.NewManager(cfg.SessionSecret, cfg.SessionTTL, cfg.PortalPasswordHash)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if strings.TrimSpace(cfg.SessionSecret) == "" {
		log.Warn("SESSION_SECRET not set; sessions will not survive a restart")
	}
	if !sessions.PasswordRequired() {
		log.Warn("PORTAL_PASSWORD_HASH not set; login accepts any password")
	}
	if strings.TrimSpace(cfg.UpstreamToken) == "" {
		log.Warn("UPSTREAM_TOKEN not set; upstream calls will fail")
	}

	reg := metrics.NewRegistry()
	client := upstream.NewClient(cfg)
	client.SetObserver(reg)

	return &App{
		Config:    cfg,
		Logger:    log,
		DB:        db,
		Metrics:   reg,
		Upstream:  client,
		Orders:    pipeline.NewOrderService(client, db, reg, log.Named("orders"), cfg.OrdersCacheTTL),
		Suppliers: pipeline.NewSupplierService(client, db, reg, log.Named("suppliers")),
		Sessions:  sessions,
	}, nil
}

func (a *App) Server() *web.Server {
	return web.NewServer(a.Config, a.Logger.Named("http"), a.Orders, a.Suppliers, a.Sessions, a.Metrics, a.Upstream)
}

func (a *App) Close() error {
	_ = a.Logger.Sync()
	return a.DB.Close()
}
