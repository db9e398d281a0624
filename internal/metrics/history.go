package metrics

import (
	"context"
	"sync"
	"time"
)

// DataPoint represents a single time-series data point.
type DataPoint struct {
	Timestamp time.Time
	Value     float64
}

// MetricHistory stores time-series data with automatic bucketing and retention.
type MetricHistory struct {
	mu          sync.RWMutex
	buckets     []DataPoint
	bucketSize  time.Duration // Duration per bucket (e.g., 5 minutes)
	maxBuckets  int           // Max buckets to retain
	accumulator float64       // Current bucket accumulator
	count       int64         // Current bucket count
	lastBucket  time.Time     // Start time of current bucket
	storage     *RedisStorage // Optional Redis backend
	metricName  string        // Metric name for Redis storage
}

// NewMetricHistory creates a new metric history with the specified
// bucket size and retention.
func NewMetricHistory(bucketSize time.Duration, maxBuckets int) *MetricHistory {
	return &MetricHistory{
		buckets:    make([]DataPoint, 0, maxBuckets),
		bucketSize: bucketSize,
		maxBuckets: maxBuckets,
		lastBucket: time.Now().Truncate(bucketSize),
	}
}

// NewMetricHistoryWithRedis creates a new metric history with Redis
// persistence, preloading any data points still within retention.
func NewMetricHistoryWithRedis(bucketSize time.Duration, maxBuckets int, storage *RedisStorage, metricName string) *MetricHistory {
	h := &MetricHistory{
		buckets:    make([]DataPoint, 0, maxBuckets),
		bucketSize: bucketSize,
		maxBuckets: maxBuckets,
		lastBucket: time.Now().Truncate(bucketSize),
		storage:    storage,
		metricName: metricName,
	}

	if storage != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		since := time.Now().Add(-time.Duration(maxBuckets) * bucketSize)
		if dataPoints, err := storage.LoadHistory(ctx, metricName, since); err == nil && len(dataPoints) > 0 {
			h.buckets = dataPoints
		}
	}

	return h
}

// Record adds a value to the current bucket.
func (h *MetricHistory) Record(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	currentBucket := time.Now().Truncate(h.bucketSize)
	if currentBucket.After(h.lastBucket) {
		h.finalizeBucket()
		h.lastBucket = currentBucket
	}

	h.accumulator += value
	h.count++
}

// RecordCount increments the count for the current bucket (for rate metrics).
func (h *MetricHistory) RecordCount() {
	h.Record(1)
}

// RecordSum adds to the sum for the current bucket (for count metrics).
func (h *MetricHistory) RecordSum(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	currentBucket := time.Now().Truncate(h.bucketSize)
	if currentBucket.After(h.lastBucket) {
		h.finalizeSumBucket()
		h.lastBucket = currentBucket
	}

	h.accumulator += value
}

// finalizeBucket saves the average for the current bucket and starts a
// new one. Must be called with the lock held.
func (h *MetricHistory) finalizeBucket() {
	if h.count == 0 {
		return
	}

	avg := h.accumulator / float64(h.count)
	h.appendPoint(DataPoint{Timestamp: h.lastBucket, Value: avg})

	h.accumulator = 0
	h.count = 0
}

// finalizeSumBucket saves the sum for the current bucket.
// Must be called with the lock held.
func (h *MetricHistory) finalizeSumBucket() {
	h.appendPoint(DataPoint{Timestamp: h.lastBucket, Value: h.accumulator})
	h.accumulator = 0
}

// appendPoint stores a finalized data point, persisting to Redis
// without blocking the caller. Must be called with the lock held.
func (h *MetricHistory) appendPoint(dp DataPoint) {
	h.buckets = append(h.buckets, dp)

	if h.storage != nil && h.metricName != "" {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = h.storage.SaveDataPoint(ctx, h.metricName, dp)
		}()
	}

	if len(h.buckets) > h.maxBuckets {
		h.buckets = h.buckets[len(h.buckets)-h.maxBuckets:]
	}
}

// GetHistory returns a copy of the finalized time-series data.
func (h *MetricHistory) GetHistory() []DataPoint {
	h.mu.Lock()
	currentBucket := time.Now().Truncate(h.bucketSize)
	if currentBucket.After(h.lastBucket) && h.count > 0 {
		h.finalizeBucket()
		h.lastBucket = currentBucket
	}
	h.mu.Unlock()

	h.mu.RLock()
	defer h.mu.RUnlock()
	result := make([]DataPoint, len(h.buckets))
	copy(result, h.buckets)
	return result
}

// GetHistoryWithCurrent returns history including any unflushed current
// bucket data.
func (h *MetricHistory) GetHistoryWithCurrent() []DataPoint {
	h.mu.RLock()
	defer h.mu.RUnlock()

	result := make([]DataPoint, len(h.buckets))
	copy(result, h.buckets)

	if h.count > 0 {
		result = append(result, DataPoint{
			Timestamp: h.lastBucket,
			Value:     h.accumulator / float64(h.count),
		})
	}

	return result
}

// GetHistorySince returns data points since the given time.
func (h *MetricHistory) GetHistorySince(since time.Time) []DataPoint {
	all := h.GetHistoryWithCurrent()
	result := make([]DataPoint, 0, len(all))
	for _, dp := range all {
		if !dp.Timestamp.Before(since) {
			result = append(result, dp)
		}
	}
	return result
}

// TimeSeriesData holds the time-series used by dashboards.
type TimeSeriesData struct {
	RecommendationRate    *MetricHistory // Recommendation requests per bucket
	RecommendationLatency *MetricHistory // Average pipeline latency per bucket
	FeedbackRate          *MetricHistory // Feedback events per bucket
}

// NewTimeSeriesData creates a new time-series collection.
// Uses 5-minute buckets with 12 buckets (1 hour) retention.
func NewTimeSeriesData() *TimeSeriesData {
	bucketSize := 5 * time.Minute
	maxBuckets := 12

	return &TimeSeriesData{
		RecommendationRate:    NewMetricHistory(bucketSize, maxBuckets),
		RecommendationLatency: NewMetricHistory(bucketSize, maxBuckets),
		FeedbackRate:          NewMetricHistory(bucketSize, maxBuckets),
	}
}

// NewTimeSeriesDataWithRedis creates a time-series collection backed by
// Redis persistence.
func NewTimeSeriesDataWithRedis(storage *RedisStorage) *TimeSeriesData {
	bucketSize := 5 * time.Minute
	maxBuckets := 12

	return &TimeSeriesData{
		RecommendationRate:    NewMetricHistoryWithRedis(bucketSize, maxBuckets, storage, "recommendation_rate"),
		RecommendationLatency: NewMetricHistoryWithRedis(bucketSize, maxBuckets, storage, "recommendation_latency"),
		FeedbackRate:          NewMetricHistoryWithRedis(bucketSize, maxBuckets, storage, "feedback_rate"),
	}
}

// RecordRecommendation records a recommendation request for time-series
// tracking.
func (t *TimeSeriesData) RecordRecommendation(latencyMs float64) {
	t.RecommendationRate.RecordCount()
	t.RecommendationLatency.Record(latencyMs)
}

// RecordFeedback records a feedback event.
func (t *TimeSeriesData) RecordFeedback() {
	t.FeedbackRate.RecordSum(1)
}
