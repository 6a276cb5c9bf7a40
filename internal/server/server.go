// Package server sets up the HTTP server with all routes
package server

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/Riteshgoel21/CreditDebitCardFraudDetection/internal/analytics"
	"github.com/Riteshgoel21/CreditDebitCardFraudDetection/internal/config"
	"github.com/Riteshgoel21/CreditDebitCardFraudDetection/internal/fraud"
	"github.com/Riteshgoel21/CreditDebitCardFraudDetection/internal/health"
	"github.com/Riteshgoel21/CreditDebitCardFraudDetection/internal/logging"
	"github.com/Riteshgoel21/CreditDebitCardFraudDetection/internal/metrics"
	"github.com/Riteshgoel21/CreditDebitCardFraudDetection/internal/ratelimit"
	"github.com/Riteshgoel21/CreditDebitCardFraudDetection/internal/realtime"
	"github.com/Riteshgoel21/CreditDebitCardFraudDetection/internal/retry"
	"github.com/Riteshgoel21/CreditDebitCardFraudDetection/internal/security"
	"github.com/Riteshgoel21/CreditDebitCardFraudDetection/internal/settings"
	"github.com/Riteshgoel21/CreditDebitCardFraudDetection/internal/traces"
	"github.com/Riteshgoel21/CreditDebitCardFraudDetection/internal/transactions"
	"github.com/Riteshgoel21/CreditDebitCardFraudDetection/internal/validation"
)

// -----------------------------------------------------------------------------
// Server
// -----------------------------------------------------------------------------

// Server wraps the HTTP server and dependencies
type Server struct {
	cfg           *config.Config
	fraudEngine   *fraud.Engine
	fraudStore    fraud.Store
	txStore       transactions.Store
	settingsStore settings.Store
	generator     *transactions.Generator
	realtimeHub   *realtime.Hub
	healthReg     *health.Registry
	rateLimiter   *ratelimit.Limiter
	db            *sql.DB // nil if using in-memory
	router        *gin.Engine
	httpSrv       *http.Server
	logger        *slog.Logger
	shutdownTrace func(context.Context) error
	cancelRunCtx  context.CancelFunc // cancels background goroutines started in Run

	// Health state
	ready atomic.Bool
}

// Option configures the server
type Option func(*Server)

// WithLogger sets a custom logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithTransactionStore sets a custom transaction store (for testing)
func WithTransactionStore(store transactions.Store) Option {
	return func(s *Server) {
		s.txStore = store
	}
}

// New creates a new server instance
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:       cfg,
		logger:    logging.New(cfg.LogLevel, "json"),
		healthReg: health.NewRegistry(),
	}

	for _, opt := range opts {
		opt(s)
	}

	ctx := context.Background()

	// Initialize storage (Postgres if DATABASE_URL set, otherwise in-memory)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}

		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		// The database may still be starting up alongside us.
		if err := retry.Do(ctx, 5, 500*time.Millisecond, db.Ping); err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		s.db = db

		fraudStore := fraud.NewPostgresStore(db)
		if err := fraudStore.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("fraud store migration: %w", err)
		}
		s.fraudStore = fraudStore

		txStore := transactions.NewPostgresStore(db)
		if err := txStore.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("transaction store migration: %w", err)
		}
		if s.txStore == nil {
			s.txStore = txStore
		}

		settingsStore := settings.NewPostgresStore(db)
		if err := settingsStore.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("settings store migration: %w", err)
		}
		s.settingsStore = settingsStore

		s.healthReg.Register("database", func(ctx context.Context) health.Status {
			ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				return health.Status{Name: "database", Healthy: false, Detail: err.Error()}
			}
			return health.Status{Name: "database", Healthy: true}
		})

		s.logger.Info("using postgres storage")
	} else {
		s.fraudStore = fraud.NewMemoryStore()
		if s.txStore == nil {
			s.txStore = transactions.NewMemoryStore()
		}
		s.settingsStore = settings.NewMemoryStore()
		s.logger.Info("using in-memory storage")
	}

	s.fraudEngine = fraud.NewEngine(s.fraudStore)
	s.generator = transactions.NewGenerator(cfg.DemoSeed)
	s.realtimeHub = realtime.NewHub(s.logger)

	s.healthReg.Register("realtime", func(ctx context.Context) health.Status {
		stats := s.realtimeHub.Stats()
		return health.Status{
			Name:    "realtime",
			Healthy: true,
			Detail:  fmt.Sprintf("%d clients", stats["connectedClients"]),
		}
	})

	// Tracing (no-op when no OTLP endpoint is configured)
	shutdownTrace, err := traces.Init(ctx, cfg.OTLPEndpoint, s.logger)
	if err != nil {
		return nil, fmt.Errorf("trace init: %w", err)
	}
	s.shutdownTrace = shutdownTrace

	// Router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	s.router = gin.New()
	s.setupMiddleware()
	s.setupRoutes()

	return s, nil
}

// -----------------------------------------------------------------------------
// Middleware
// -----------------------------------------------------------------------------

func (s *Server) setupMiddleware() {
	// Recovery with logging
	s.router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logging.L(c.Request.Context()).Error("panic recovered",
			"error", recovered,
			"path", c.Request.URL.Path,
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "An unexpected error occurred",
		})
	}))

	// Security headers
	s.router.Use(security.HeadersMiddleware())

	// CORS (allow all origins for demo - restrict in production)
	s.router.Use(security.CORSMiddleware([]string{"*"}))

	// Request size limit (1MB)
	s.router.Use(validation.RequestSizeMiddleware(validation.MaxRequestSize))

	// Rate limiting
	rlCfg := ratelimit.DefaultConfig()
	rlCfg.RequestsPerMinute = s.cfg.RateLimitRPM
	s.rateLimiter = ratelimit.New(rlCfg)
	s.router.Use(s.rateLimiter.Middleware())

	// Prometheus metrics
	s.router.Use(metrics.Middleware())

	// Request ID
	s.router.Use(s.requestIDMiddleware())

	// Logging
	s.router.Use(s.loggingMiddleware())
}

func (s *Server) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check for existing request ID (from load balancer, etc.)
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = generateRequestID()
		}

		ctx := logging.WithRequestID(c.Request.Context(), requestID)
		ctx = logging.WithLogger(ctx, s.logger)
		c.Request = c.Request.WithContext(ctx)

		c.Header("X-Request-ID", requestID)

		c.Next()
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		logger := logging.L(c.Request.Context())

		// Log level based on status code
		switch {
		case status >= 500:
			logger.Error("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
				"client_ip", c.ClientIP(),
			)
		case status >= 400:
			logger.Warn("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		default:
			logger.Info("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		}
	}
}

func generateRequestID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("req-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}

// -----------------------------------------------------------------------------
// Routes
// -----------------------------------------------------------------------------

func (s *Server) setupRoutes() {
	// Health & metrics endpoints
	s.router.GET("/healthz", s.healthHandler)
	s.router.GET("/readyz", s.readinessHandler)
	s.router.GET("/metrics", metrics.Handler())

	v1 := s.router.Group("/v1")

	// WebSocket for the live transaction feed
	v1.GET("/stream", func(c *gin.Context) {
		s.realtimeHub.HandleWebSocket(c.Writer, c.Request)
	})

	fraudHandler := fraud.NewHandler(s.fraudEngine, s.fraudStore)
	fraudHandler.RegisterRoutes(v1)

	txHandler := transactions.NewHandler(s.txStore)
	txHandler.RegisterRoutes(v1.Group("/transactions"))

	analyticsHandler := analytics.NewHandler(analytics.NewService(s.txStore))
	analyticsHandler.RegisterRoutes(v1.Group("/analytics"))

	settingsHandler := settings.NewHandler(s.settingsStore)
	settingsHandler.RegisterRoutes(v1.Group("/settings"))

	v1.GET("/stream/stats", s.streamStatsHandler)
}

// -----------------------------------------------------------------------------
// Handlers
// -----------------------------------------------------------------------------

// HealthResponse is the response for the health endpoint
type HealthResponse struct {
	Status    string          `json:"status"`
	Version   string          `json:"version"`
	Checks    []health.Status `json:"checks"`
	Timestamp string          `json:"timestamp"`
}

func (s *Server) healthHandler(c *gin.Context) {
	healthy, statuses := s.healthReg.CheckAll(c.Request.Context())

	status := "healthy"
	httpStatus := http.StatusOK
	if !healthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, HealthResponse{
		Status:    status,
		Version:   "0.1.0",
		Checks:    statuses,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) readinessHandler(c *gin.Context) {
	if !s.ready.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (s *Server) streamStatsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"stream": s.realtimeHub.Stats()})
}

// -----------------------------------------------------------------------------
// Demo data
// -----------------------------------------------------------------------------

// seedDemoData populates the transaction store with generated transactions
// so the dashboard has something to show on first load.
func (s *Server) seedDemoData(ctx context.Context) {
	if s.cfg.DemoTransactionCount <= 0 {
		return
	}

	count, err := s.txStore.Count(ctx)
	if err != nil {
		s.logger.Error("demo seed: count failed", "error", err)
		return
	}
	if count > 0 {
		s.logger.Info("demo seed skipped, store not empty", "existing", count)
		return
	}

	txs := s.generator.Generate(s.cfg.DemoTransactionCount)
	seeded := 0
	for _, tx := range txs {
		if err := s.txStore.Insert(ctx, tx); err != nil {
			s.logger.Error("demo seed: insert failed", "error", err, "id", tx.ID)
			continue
		}
		seeded++
	}
	metrics.TransactionsGenerated.Add(float64(seeded))
	s.logger.Info("demo data seeded", "count", seeded)
}

// runDemoFeed streams freshly generated transactions at the configured
// interval until the context is cancelled.
func (s *Server) runDemoFeed(ctx context.Context) {
	if s.cfg.DemoFeedInterval <= 0 {
		return
	}

	ticker := time.NewTicker(time.Duration(s.cfg.DemoFeedInterval) * time.Second)
	defer ticker.Stop()

	s.logger.Info("demo feed started", "interval_seconds", s.cfg.DemoFeedInterval)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("demo feed stopped")
			return
		case <-ticker.C:
			tx := s.generator.GenerateOne()
			if err := s.txStore.Insert(ctx, tx); err != nil {
				s.logger.Error("demo feed: insert failed", "error", err)
				continue
			}
			metrics.TransactionsGenerated.Inc()

			s.realtimeHub.BroadcastTransaction(tx)
			if tx.RiskScore >= s.cfg.AlertThreshold {
				s.realtimeHub.BroadcastHighRiskAlert(tx)
			}
		}
	}
}

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

// Run starts the HTTP server with graceful shutdown
func (s *Server) Run(ctx context.Context) error {
	// Create a cancellable context for background goroutines so Shutdown() can stop them.
	runCtx, cancel := context.WithCancel(ctx)
	s.cancelRunCtx = cancel

	s.httpSrv = &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errChan := make(chan error, 1)

	go func() {
		s.logger.Info("starting server", "port", s.cfg.Port, "env", s.cfg.Env)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	// Start realtime hub
	go s.realtimeHub.Run(runCtx)

	// Seed demo data, then start the live feed
	s.seedDemoData(runCtx)
	go s.runDemoFeed(runCtx)

	// Collect DB pool stats
	if s.db != nil {
		metrics.StartDBStatsCollector(runCtx, s.db, 15*time.Second)
	}

	// Mark as ready after brief delay for startup
	go func() {
		time.Sleep(100 * time.Millisecond)
		s.ready.Store(true)
		s.logger.Info("server ready")
	}()

	// Wait for shutdown signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		s.logger.Info("shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		s.logger.Info("context cancelled")
	}

	return s.Shutdown()
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown() error {
	s.ready.Store(false)
	s.logger.Info("starting graceful shutdown")

	// Cancel the context for all background goroutines (hub, demo feed)
	if s.cancelRunCtx != nil {
		s.cancelRunCtx()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if s.httpSrv != nil {
		if err := s.httpSrv.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}

	// Stop rate limiter cleanup goroutine
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
		s.logger.Info("rate limiter stopped")
	}

	// Flush traces
	if s.shutdownTrace != nil {
		if err := s.shutdownTrace(ctx); err != nil {
			s.logger.Error("trace shutdown error", "error", err)
		}
	}

	// Close database connection pool
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("database close error", "error", err)
		} else {
			s.logger.Info("database connection closed")
		}
	}

	s.logger.Info("server stopped")
	return nil
}

// Router returns the gin router for testing
func (s *Server) Router() *gin.Engine {
	return s.router
}
