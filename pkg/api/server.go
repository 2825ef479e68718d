package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/quantedge/options-risk-engine/pkg/metrics"
	"github.com/quantedge/options-risk-engine/pkg/utils/logger"
)

// Config holds the configuration for the API server
type Config struct {
	Host         string
	Port         int
	MetricsPath  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server represents the API server
type Server struct {
	config     Config
	router     *gin.Engine
	httpServer *http.Server
	handlers   *Handlers
	recorder   *metrics.Recorder
	log        *logger.Logger
}

// NewServer creates a new API server
func NewServer(config Config, handlers *Handlers, recorder *metrics.Recorder) *Server {
	if config.ReadTimeout <= 0 {
		config.ReadTimeout = 10 * time.Second
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = 30 * time.Second
	}
	if config.MetricsPath == "" {
		config.MetricsPath = "/metrics"
	}

	gin.SetMode(gin.ReleaseMode)
	server := &Server{
		config:   config,
		router:   gin.New(),
		handlers: handlers,
		recorder: recorder,
		log:      logger.GetLogger("api.server"),
	}
	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	s.router.Use(gin.Recovery())
	s.router.Use(LoggingMiddleware())
	s.router.Use(CORSMiddleware())
	if s.recorder != nil {
		s.router.Use(MetricsMiddleware(s.recorder))
	}

	s.router.GET("/health", s.handlers.HealthCheckHandler)
	s.router.GET(s.config.MetricsPath, gin.WrapH(promhttp.Handler()))
	if s.handlers.hub != nil {
		s.router.GET("/ws", gin.WrapF(s.handlers.hub.HandleWebSocket))
	}

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/analyze", s.handlers.AnalyzeHandler)
		v1.GET("/report/latest", s.handlers.LatestReportHandler)
		v1.GET("/snapshot/:symbol", s.handlers.SnapshotHandler)

		pricing := v1.Group("/pricing")
		{
			pricing.POST("/price", s.handlers.PriceHandler)
			pricing.POST("/greeks", s.handlers.GreeksHandler)
			pricing.POST("/implied-vol", s.handlers.ImpliedVolHandler)
			pricing.POST("/scenario-grid", s.handlers.ScenarioGridHandler)
		}

		v1.POST("/simulate", s.handlers.SimulateHandler)
		v1.POST("/stress", s.handlers.StressHandler)
	}
}

// Start starts the API server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.log.Infof("Starting API server on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Stop stops the API server gracefully
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer != nil {
		s.log.Info("Stopping API server")
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// Router exposes the underlying gin engine, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}
