package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	httpapi "github.com/cygnusterm/cygnus/internal/api/http"
	"github.com/cygnusterm/cygnus/internal/api/middleware"
	"github.com/cygnusterm/cygnus/internal/api/ws"
	"github.com/cygnusterm/cygnus/internal/infrastructure/config"
	"github.com/cygnusterm/cygnus/internal/infrastructure/logging"
	"github.com/cygnusterm/cygnus/internal/infrastructure/monitoring"
	"github.com/cygnusterm/cygnus/internal/shell"
)

// Server wraps the HTTP server and its dependencies.
type Server struct {
	router  *gin.Engine
	shell   *shell.Manager
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics
}

// NewServer creates a fully wired server instance. The shell session's
// background sentinel is started here; Close shuts it down.
func NewServer(cfg *config.Config) (*Server, error) {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		File:        cfg.Logging.File,
	})
	if err != nil {
		logger = logging.NewDefault()
	}

	logger.Info("Initializing Cygnus Shell Service",
		zap.String("port", cfg.Server.Port),
		zap.String("interpreter", cfg.Shell.Interpreter),
		zap.Int("history_capacity", cfg.Shell.HistoryCapacity),
	)

	metrics := monitoring.NewMetrics()

	manager := shell.NewManager(shell.Options{
		Interpreter:     cfg.Shell.Interpreter,
		InitialCwd:      cfg.Shell.InitialCwd,
		HistoryCapacity: cfg.Shell.HistoryCapacity,
		EventBuffer:     cfg.Shell.EventBuffer,
	}, logger).WithMetrics(metrics)

	if err := manager.Start(); err != nil {
		return nil, err
	}
	logger.Info("Shell session running", zap.String("cwd", manager.Cwd()))

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := httpapi.NewHandlers(manager, metrics, logger)
	wsHandler := ws.NewHandler(manager, metrics, logger)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)

	// Shell operations
	router.POST("/execute", handlers.Execute)
	router.POST("/cancel", handlers.Cancel)
	router.GET("/history", handlers.History)
	router.GET("/cwd", handlers.Cwd)
	router.POST("/cd", handlers.ChangeDirectory)
	router.GET("/home", handlers.Home)

	// Live events
	router.GET("/stream", wsHandler.HandleConnection)

	// Metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/metrics/json", handlers.MetricsJSON)

	logger.Info("Server initialized successfully")

	return &Server{
		router:  router,
		shell:   manager,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
	}, nil
}

// Run starts the HTTP server.
func (s *Server) Run() error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.logger.Info("Starting HTTP server", zap.String("addr", addr))
	return s.router.Run(addr)
}

// Close gracefully shuts down the shell session.
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")
	s.shell.Stop()
	s.logger.Sync()
	return nil
}
