package metrics

import (
	"runtime"
	"sync"
	"time"
)

// Metrics holds all application metrics.
type Metrics struct {
	// Recommendation metrics
	RecommendationRequests *Counter
	RecommendationLatency  *Histogram
	RecommendationResults  *Histogram
	RecommendationErrors   *CounterVec   // labels: error_type
	StageDuration          *HistogramVec // labels: stage
	CandidatesScored       *Counter
	CandidatesEligible     *Counter

	// Reranking metrics
	RerankRequests *Counter
	RerankLatency  *Histogram

	// Analytics metrics
	AnalyticsRequests *CounterVec   // labels: kind
	AnalyticsLatency  *HistogramVec // labels: kind
	MockFallbacks     *CounterVec   // labels: kind
	FeedbackRecorded  *Counter
	ChallengeAttempts *Counter

	// Store metrics
	QueryLatency *HistogramVec // labels: query
	QueryErrors  *CounterVec   // labels: query

	// Cache metrics
	CacheHits   *CounterVec // labels: type
	CacheMisses *CounterVec // labels: type
	CacheSize   *GaugeVec   // labels: type

	// Bus metrics
	BusEventsPublished *CounterVec   // labels: topic
	BusEventLatency    *HistogramVec // labels: topic
	BusErrors          *CounterVec   // labels: topic

	// HTTP metrics
	HTTPRequests         *CounterVec   // labels: method, path, status
	HTTPDuration         *HistogramVec // labels: method, path
	HTTPRequestsInFlight *Gauge
	HTTPRequestSize      *HistogramVec // labels: method, path

	// System metrics
	GoroutineCount *Gauge
	MemoryUsage    *Gauge // in bytes
	Uptime         *Counter

	// Time-series data for dashboards
	TimeSeries *TimeSeriesData

	// Redis storage (optional)
	redisStorage *RedisStorage

	startTime time.Time
	mu        sync.RWMutex
}

// New creates a new metrics instance with in-memory storage only.
func New() *Metrics {
	return NewWithConfig("memory", "")
}

// NewWithRedis creates a new metrics instance with Redis persistence.
// Falls back to in-memory if the Redis connection fails.
func NewWithRedis(redisURL string) *Metrics {
	return NewWithConfig("redis", redisURL)
}

// NewWithConfig creates a new metrics instance with the specified
// persistence backend ("memory" or "redis").
func NewWithConfig(persistence, redisURL string) *Metrics {
	var redisStorage *RedisStorage
	var timeSeries *TimeSeriesData

	if persistence == "redis" && redisURL != "" {
		storage, err := NewRedisStorage(RedisStorageConfig{URL: redisURL})
		if err != nil {
			println("WARNING: Failed to connect to Redis for metrics persistence:", err.Error())
			println("         Falling back to in-memory metrics")
		} else {
			redisStorage = storage
			timeSeries = NewTimeSeriesDataWithRedis(redisStorage)
		}
	}

	if timeSeries == nil {
		timeSeries = NewTimeSeriesData()
	}

	m := &Metrics{
		RecommendationRequests: NewCounter(
			"skillmatch_recommendation_requests_total",
			"Total number of recommendation requests",
			nil,
		),
		RecommendationLatency: NewHistogram(
			"skillmatch_recommendation_latency_ms",
			"Recommendation pipeline latency in milliseconds",
			[]float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		),
		RecommendationResults: NewHistogram(
			"skillmatch_recommendation_results",
			"Number of recommendations returned per request",
			[]float64{1, 2, 5, 10, 20, 50, 100},
		),
		RecommendationErrors: NewCounterVec(
			"skillmatch_recommendation_errors_total",
			"Total number of recommendation errors",
			[]string{"error_type"},
		),
		StageDuration: NewHistogramVec(
			"skillmatch_recommendation_stage_duration_ms",
			"Recommendation stage duration in milliseconds",
			[]string{"stage"},
			[]float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		),
		CandidatesScored: NewCounter(
			"skillmatch_candidates_scored_total",
			"Total number of candidate projects scored",
			nil,
		),
		CandidatesEligible: NewCounter(
			"skillmatch_candidates_eligible_total",
			"Total number of candidates that cleared the eligibility threshold",
			nil,
		),

		RerankRequests: NewCounter(
			"skillmatch_rerank_requests_total",
			"Total number of diversity reranking passes",
			nil,
		),
		RerankLatency: NewHistogram(
			"skillmatch_rerank_latency_ms",
			"Diversity reranking latency in milliseconds",
			[]float64{1, 2, 5, 10, 25, 50, 100, 250},
		),

		AnalyticsRequests: NewCounterVec(
			"skillmatch_analytics_requests_total",
			"Total number of analytics requests",
			[]string{"kind"},
		),
		AnalyticsLatency: NewHistogramVec(
			"skillmatch_analytics_latency_ms",
			"Analytics request latency in milliseconds",
			[]string{"kind"},
			[]float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		),
		MockFallbacks: NewCounterVec(
			"skillmatch_analytics_mock_fallbacks_total",
			"Total number of analytics requests served from mock fixtures",
			[]string{"kind"},
		),
		FeedbackRecorded: NewCounter(
			"skillmatch_feedback_recorded_total",
			"Total number of recommendation feedback events",
			nil,
		),
		ChallengeAttempts: NewCounter(
			"skillmatch_challenge_attempts_total",
			"Total number of challenge attempt events",
			nil,
		),

		QueryLatency: NewHistogramVec(
			"skillmatch_store_query_latency_ms",
			"Store query latency in milliseconds",
			[]string{"query"},
			[]float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		),
		QueryErrors: NewCounterVec(
			"skillmatch_store_query_errors_total",
			"Total number of store query errors",
			[]string{"query"},
		),

		CacheHits: NewCounterVec(
			"skillmatch_cache_hits_total",
			"Total number of cache hits",
			[]string{"type"},
		),
		CacheMisses: NewCounterVec(
			"skillmatch_cache_misses_total",
			"Total number of cache misses",
			[]string{"type"},
		),
		CacheSize: NewGaugeVec(
			"skillmatch_cache_size",
			"Current cache entry count",
			[]string{"type"},
		),

		BusEventsPublished: NewCounterVec(
			"skillmatch_bus_events_published_total",
			"Total number of events published to the bus",
			[]string{"topic"},
		),
		BusEventLatency: NewHistogramVec(
			"skillmatch_bus_event_latency_ms",
			"Event bus publish latency in milliseconds",
			[]string{"topic"},
			[]float64{0.5, 1, 2, 5, 10, 25, 50, 100, 250},
		),
		BusErrors: NewCounterVec(
			"skillmatch_bus_errors_total",
			"Total number of event bus errors",
			[]string{"topic"},
		),

		HTTPRequests: NewCounterVec(
			"skillmatch_http_requests_total",
			"Total number of HTTP requests",
			[]string{"method", "path", "status"},
		),
		HTTPDuration: NewHistogramVec(
			"skillmatch_http_request_duration_seconds",
			"HTTP request duration in seconds",
			[]string{"method", "path"},
			[]float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		),
		HTTPRequestsInFlight: NewGauge(
			"skillmatch_http_requests_in_flight",
			"Number of HTTP requests currently being processed",
			nil,
		),
		HTTPRequestSize: NewHistogramVec(
			"skillmatch_http_request_size_bytes",
			"HTTP request size in bytes",
			[]string{"method", "path"},
			[]float64{100, 1000, 10000, 100000, 1000000},
		),

		GoroutineCount: NewGauge(
			"skillmatch_goroutines",
			"Number of goroutines",
			nil,
		),
		MemoryUsage: NewGauge(
			"skillmatch_memory_bytes",
			"Memory usage in bytes",
			nil,
		),
		Uptime: NewCounter(
			"skillmatch_uptime_seconds",
			"Application uptime in seconds",
			nil,
		),

		TimeSeries:   timeSeries,
		redisStorage: redisStorage,
		startTime:    time.Now(),
	}

	go m.collectSystemMetrics()

	return m
}

// collectSystemMetrics periodically collects system metrics.
func (m *Metrics) collectSystemMetrics() {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.GoroutineCount.Set(float64(runtime.NumGoroutine()))

		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)
		m.MemoryUsage.Set(float64(memStats.Alloc))

		m.Uptime.Add(15)
	}
}

// RecordRecommendation records a recommendation pipeline run.
func (m *Metrics) RecordRecommendation(latencyMs int64, resultCount int, err error) {
	m.RecommendationRequests.Inc()
	m.RecommendationLatency.Observe(float64(latencyMs))
	m.RecommendationResults.Observe(float64(resultCount))

	if m.TimeSeries != nil {
		m.TimeSeries.RecordRecommendation(float64(latencyMs))
	}

	if err != nil {
		m.RecommendationErrors.WithLabels(errorType(err)).Inc()
	}
}

// RecordStage records the duration of a recommendation pipeline stage.
// stage should be one of: "fetch", "score", "rerank", "persist"
func (m *Metrics) RecordStage(stage string, latencyMs int64) {
	m.StageDuration.WithLabels(stage).Observe(float64(latencyMs))
}

// RecordScoring records how many candidates were scored and how many
// cleared the eligibility threshold.
func (m *Metrics) RecordScoring(scored, eligible int) {
	m.CandidatesScored.Add(int64(scored))
	m.CandidatesEligible.Add(int64(eligible))
}

// RecordRerank records a diversity reranking pass.
func (m *Metrics) RecordRerank(candidateCount int, latencyMs int64) {
	m.RerankRequests.Inc()
	m.RerankLatency.Observe(float64(latencyMs))
}

// RecordAnalytics records an analytics request.
// kind should be "recommendation", "assessment", or "effectiveness".
func (m *Metrics) RecordAnalytics(kind string, latencyMs int64, mockFallback bool) {
	m.AnalyticsRequests.WithLabels(kind).Inc()
	m.AnalyticsLatency.WithLabels(kind).Observe(float64(latencyMs))
	if mockFallback {
		m.MockFallbacks.WithLabels(kind).Inc()
	}
}

// RecordFeedback records a recommendation feedback event.
func (m *Metrics) RecordFeedback() {
	m.FeedbackRecorded.Inc()
	if m.TimeSeries != nil {
		m.TimeSeries.RecordFeedback()
	}
}

// RecordChallengeAttempt records a challenge attempt event.
func (m *Metrics) RecordChallengeAttempt() {
	m.ChallengeAttempts.Inc()
}

// RecordQuery records a store query.
func (m *Metrics) RecordQuery(query string, latencyMs int64, err error) {
	m.QueryLatency.WithLabels(query).Observe(float64(latencyMs))
	if err != nil {
		m.QueryErrors.WithLabels(query).Inc()
	}
}

// RecordCacheHit records a cache hit.
func (m *Metrics) RecordCacheHit(cacheType string) {
	m.CacheHits.WithLabels(cacheType).Inc()
}

// RecordCacheMiss records a cache miss.
func (m *Metrics) RecordCacheMiss(cacheType string) {
	m.CacheMisses.WithLabels(cacheType).Inc()
}

// UpdateCacheSize updates the cache size gauge.
func (m *Metrics) UpdateCacheSize(cacheType string, size int) {
	m.CacheSize.WithLabels(cacheType).Set(float64(size))
}

// RecordBusPublish records event bus publish metrics. Implements the
// bus.MetricsRecorder interface.
func (m *Metrics) RecordBusPublish(topic string, latencyMs float64, err error) {
	m.BusEventsPublished.WithLabels(topic).Inc()
	m.BusEventLatency.WithLabels(topic).Observe(latencyMs)

	if err != nil {
		m.BusErrors.WithLabels(topic).Inc()
	}
}

// RecordHTTP records HTTP request metrics. Called by the HTTP middleware.
func (m *Metrics) RecordHTTP(method, path string, status int, durationSeconds float64, sizeBytes int64) {
	// Normalize path to reduce cardinality
	normalizedPath := normalizePath(path)

	m.HTTPRequests.WithLabels(method, normalizedPath, statusCode(status)).Inc()
	m.HTTPDuration.WithLabels(method, normalizedPath).Observe(durationSeconds)

	if sizeBytes > 0 {
		m.HTTPRequestSize.WithLabels(method, normalizedPath).Observe(float64(sizeBytes))
	}
}

// errorType extracts an error type label from an error.
func errorType(err error) string {
	if err == nil {
		return "unknown"
	}
	return "generic"
}

// Reset resets all scalar metrics to zero (useful for testing).
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.RecommendationRequests.Reset()
	m.CandidatesScored.Reset()
	m.CandidatesEligible.Reset()
	m.RerankRequests.Reset()
	m.FeedbackRecorded.Reset()
	m.ChallengeAttempts.Reset()
	m.Uptime.Reset()

	m.HTTPRequestsInFlight.Set(0)
	m.GoroutineCount.Set(0)
	m.MemoryUsage.Set(0)

	m.startTime = time.Now()
}

// Close closes the metrics instance and releases resources.
// Must be called when shutting down if Redis is used.
func (m *Metrics) Close() error {
	if m.redisStorage != nil {
		return m.redisStorage.Close()
	}
	return nil
}

// IsRedisPersisted returns true if metrics are persisted to Redis.
func (m *Metrics) IsRedisPersisted() bool {
	return m.redisStorage != nil
}
