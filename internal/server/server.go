// Package server provides the HTTP server that wires all services together.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/skillmatch/skill-match/internal/analytics"
	"github.com/skillmatch/skill-match/internal/bus"
	"github.com/skillmatch/skill-match/internal/cache"
	"github.com/skillmatch/skill-match/internal/config"
	"github.com/skillmatch/skill-match/internal/matching"
	"github.com/skillmatch/skill-match/internal/matching/rerank"
	"github.com/skillmatch/skill-match/internal/metrics"
	"github.com/skillmatch/skill-match/internal/pkg/logger"
	"github.com/skillmatch/skill-match/internal/pkg/middleware"
	"github.com/skillmatch/skill-match/internal/recommend"
	"github.com/skillmatch/skill-match/internal/store"
)

// Server is the main HTTP server that wires all services together.
type Server struct {
	cfg        Config
	appCfg     *config.Config
	log        *logger.Logger
	httpServer *http.Server

	// Services
	store     store.Store
	cache     cache.Cache
	bus       bus.Bus
	metrics   *metrics.Metrics
	collector *metrics.Collector
	recommend *recommend.Service
	analyzer  *analytics.Analyzer

	// Handlers
	recommendHandler *recommend.Handler
	analyticsHandler *analytics.Handler

	mu      sync.RWMutex
	started bool
}

// Config configures the server.
type Config struct {
	// Host is the address to bind to.
	Host string

	// Port is the HTTP port.
	Port int

	// Version is the application version.
	Version string

	// ReadTimeout is the HTTP read timeout.
	ReadTimeout time.Duration

	// WriteTimeout is the HTTP write timeout.
	WriteTimeout time.Duration

	// ShutdownTimeout is the graceful shutdown timeout.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns sensible server defaults.
func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            8080,
		Version:         "dev",
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    60 * time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}

// New creates a new server with all dependencies.
func New(cfg Config, appCfg *config.Config, log *logger.Logger) (*Server, error) {
	if cfg.Port == 0 {
		cfg = DefaultConfig()
	}

	s := &Server{
		cfg:    cfg,
		appCfg: appCfg,
		log:    log,
	}

	// Metrics registry first, so everything downstream can record into it.
	if appCfg.Observability.MetricsEnabled {
		if appCfg.Cache.Type == "redis" {
			s.metrics = metrics.NewWithRedis(appCfg.Cache.RedisURL)
		} else {
			s.metrics = metrics.New()
		}
	}

	// Data store: Postgres in production, in-memory for demo and tests.
	st, err := newStore(appCfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}
	if ps, ok := st.(*store.PostgresStore); ok && s.metrics != nil {
		st = ps.WithMetrics(s.metrics)
	}
	s.store = st

	// Recommendation cache.
	c, err := cache.New(appCfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}
	s.cache = c

	// Event bus, instrumented when metrics are on.
	eventBus, err := bus.NewBus(appCfg.Bus, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create bus: %w", err)
	}
	if s.metrics != nil {
		eventBus = bus.NewInstrumentedBus(eventBus, s.metrics)
	}
	s.bus = eventBus

	// Scoring and reranking.
	scorer := matching.NewScorer(matching.Weights{
		TopicCoverage:       appCfg.Matching.TopicWeight,
		LanguageFit:         appCfg.Matching.LanguageWeight,
		DifficultyAlignment: appCfg.Matching.DifficultyWeight,
		InterestAffinity:    appCfg.Matching.InterestWeight,
		PopularityBoost:     appCfg.Matching.PopularityWeight,
		RecencyBoost:        appCfg.Matching.RecencyWeight,
	}).WithThreshold(appCfg.Matching.EligibilityThreshold)
	ranker := rerank.NewRanker(appCfg.Matching.DiversityLambda, log)

	// Recommendation service.
	s.recommend = recommend.NewService(s.store, s.cache, s.bus, scorer, ranker, s.metrics, log, recommend.Config{
		DefaultLimit: appCfg.Matching.DefaultLimit,
		CacheTTL:     time.Duration(appCfg.Cache.TTL) * time.Second,
	})

	// Effectiveness analytics.
	s.analyzer = analytics.NewAnalyzer(s.store, analytics.Config{
		DefaultWindow: appCfg.Analytics.DefaultWindow,
		MockFallback:  appCfg.Analytics.MockFallback,
	}, log)

	// Handlers.
	s.recommendHandler = recommend.NewHandler(s.recommend)
	s.analyticsHandler = analytics.NewHandler(s.analyzer)
	if s.metrics != nil {
		s.analyticsHandler = s.analyticsHandler.WithMetrics(s.metrics)
	}

	// Feed bus events back into the metrics registry.
	if s.metrics != nil {
		subscriber := metrics.NewEventSubscriber(s.metrics, s.bus)
		if err := subscriber.SubscribeToEvents(context.Background()); err != nil {
			return nil, fmt.Errorf("failed to subscribe to events: %w", err)
		}

		var sizer metrics.Sizer
		if mc, ok := s.cache.(*cache.MemoryCache); ok {
			sizer = mc
		}
		s.collector = metrics.NewCollector(s.metrics, s.store, sizer)
	}

	return s, nil
}

// newStore creates the configured data store. The URL "memory" selects
// the in-memory store for demo mode.
func newStore(appCfg *config.Config, log *logger.Logger) (store.Store, error) {
	if appCfg.Database.URL == "" || appCfg.Database.URL == "memory" {
		log.Info("Using in-memory store")
		return store.NewMemoryStore(), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return store.NewPostgresStore(ctx, store.PostgresConfig{
		URL:          appCfg.Database.URL,
		MaxConns:     appCfg.Database.MaxConns,
		QueryTimeout: time.Duration(appCfg.Database.QueryTimeout) * time.Second,
	}, log)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("server already started")
	}
	s.started = true
	s.mu.Unlock()

	handler := s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	s.log.Info("Starting HTTP server", "addr", addr)
	return s.httpServer.ListenAndServe()
}

// Stop gracefully stops the server.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.log.Info("Shutting down server...")

	if s.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.log.Error("HTTP shutdown error", "error", err)
		}
	}

	if s.bus != nil {
		if err := s.bus.Close(); err != nil {
			s.log.Error("bus close error", "error", err)
		}
	}
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			s.log.Error("cache close error", "error", err)
		}
	}
	if s.store != nil {
		s.store.Close()
	}
	if s.metrics != nil {
		s.metrics.Close()
	}

	s.started = false
	s.log.Info("Server stopped")

	return nil
}

// setupRoutes configures all HTTP routes and the middleware chain.
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	s.recommendHandler.RegisterRoutes(mux)
	s.analyticsHandler.RegisterRoutes(mux)

	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)
	mux.HandleFunc("GET /v1/version", s.handleVersion)

	if s.metrics != nil {
		path := s.appCfg.Observability.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		mux.Handle("GET "+path, s.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = ResponseWrapperMiddleware(handler)
	handler = APIKeyMiddleware(s.appCfg.Security.APIKey, handler)
	if s.appCfg.Security.RateLimit > 0 {
		limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			RequestsPerSecond: float64(s.appCfg.Security.RateLimit),
			Burst:             s.appCfg.Security.RateLimit * 2,
			CleanupInterval:   time.Minute,
		})
		handler = limiter.Middleware(handler)
	}
	handler = CORSMiddleware(s.appCfg.Security.CORSOrigins, handler)
	if s.metrics != nil {
		handler = metrics.HTTPMiddleware(s.metrics, handler)
	}
	return wrapWithLogging(handler, s.log)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok", "version": s.cfg.Version})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if err := s.store.Ping(r.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"status": "unavailable", "error": "store unreachable"})
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"version": s.cfg.Version})
}

// Collector returns the metrics collector, or nil when metrics are off.
func (s *Server) Collector() *metrics.Collector {
	return s.collector
}

// wrapWithLogging wraps a handler with request logging.
func wrapWithLogging(handler http.Handler, log *logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		handler.ServeHTTP(wrapped, r)

		log.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"duration", time.Since(start),
		)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Health returns the server health status.
func (s *Server) Health() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}
