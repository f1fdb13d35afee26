package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"portal/internal/config"
	"portal/internal/metrics"
	"portal/internal/pipeline"
	"portal/internal/session"
)

const shutdownTimeout = 10 * time.Second

// HealthChecker probes the order API.
type HealthChecker interface {
	Health(ctx context.Context) bool
}

type Server struct {
	cfg       config.Config
	logger    *zap.Logger
	orders    *pipeline.OrderService
	suppliers *pipeline.SupplierService
	sessions  *session.Manager
	metrics   *metrics.Registry
	health    HealthChecker
	router    *gin.Engine
}

func NewServer(
	cfg config.Config,
	logger *zap.Logger,
	orders *pipeline.OrderService,
	suppliers *pipeline.SupplierService,
	sessions *session.Manager,
	reg *metrics.Registry,
	health HealthChecker,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	// match on the escaped path so an order id may contain "/"
	router.UseRawPath = true
	router.UnescapePathValues = true
	router.Use(gin.Recovery())
	router.Use(loggerMiddleware(logger))
	router.Use(metricsMiddleware(reg))
	router.SetHTMLTemplate(pageTemplates)

	s := &Server{
		cfg:       cfg,
		logger:    logger,
		orders:    orders,
		suppliers: suppliers,
		sessions:  sessions,
		metrics:   reg,
		health:    health,
		router:    router,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	if s.metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	s.router.GET("/login", s.showLogin)
	s.router.POST("/login", s.submitLogin)
	s.router.POST("/logout", s.logout)

	portal := s.router.Group("/")
	portal.Use(s.requireSession())
	{
		portal.GET("/", func(c *gin.Context) {
			c.Redirect(http.StatusSeeOther, "/orders")
		})
		portal.GET("/orders", s.showOrders)
		portal.GET("/orders/export.xlsx", s.exportOrders)
		portal.POST("/orders/:id/recommendations", s.recommend)
		portal.GET("/lookup", s.showLookup)
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("portal listening", zap.String("address", s.cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("portal shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(c *gin.Context) {
	if s.health == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}
	if !s.health.Health(c.Request.Context()) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "upstream": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "upstream": "ok"})
}
