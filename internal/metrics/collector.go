package metrics

import (
	"context"
	"fmt"
)

// HealthChecker reports whether a backing service is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Sizer reports the current entry count of a cache.
type Sizer interface {
	Len() int
}

// Collector gathers a point-in-time snapshot of service statistics.
type Collector struct {
	metrics *Metrics
	store   HealthChecker
	cache   Sizer
}

// NewCollector creates a new metrics collector. store and cache are
// optional; nil values skip the corresponding stats.
func NewCollector(metrics *Metrics, store HealthChecker, cache Sizer) *Collector {
	return &Collector{
		metrics: metrics,
		store:   store,
		cache:   cache,
	}
}

// Collect gathers current statistics from all services.
func (c *Collector) Collect(ctx context.Context) (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	// Store health
	if c.store != nil {
		if err := c.store.Ping(ctx); err != nil {
			stats["store_healthy"] = false
			stats["store_error"] = err.Error()
		} else {
			stats["store_healthy"] = true
		}
	}

	// Cache stats
	if c.cache != nil {
		size := c.cache.Len()
		stats["cache_entries"] = size
		c.metrics.UpdateCacheSize("recommendations", size)
	}

	// System metrics
	stats["goroutines"] = c.metrics.GoroutineCount.Value()
	stats["memory_bytes"] = c.metrics.MemoryUsage.Value()
	stats["uptime_seconds"] = c.metrics.Uptime.Value()

	// Recommendation metrics
	stats["recommendation_requests_total"] = c.metrics.RecommendationRequests.Value()
	stats["recommendation_latency_count"] = c.metrics.RecommendationLatency.Count()
	stats["recommendation_latency_sum_ms"] = c.metrics.RecommendationLatency.Sum()
	stats["candidates_scored_total"] = c.metrics.CandidatesScored.Value()
	stats["candidates_eligible_total"] = c.metrics.CandidatesEligible.Value()

	// Rerank metrics
	stats["rerank_requests_total"] = c.metrics.RerankRequests.Value()
	stats["rerank_latency_count"] = c.metrics.RerankLatency.Count()
	stats["rerank_latency_sum_ms"] = c.metrics.RerankLatency.Sum()

	// Feedback and analytics
	stats["feedback_recorded_total"] = c.metrics.FeedbackRecorded.Value()
	stats["challenge_attempts_total"] = c.metrics.ChallengeAttempts.Value()

	return stats, nil
}

// Summary returns a human-readable summary of current metrics.
func (c *Collector) Summary(ctx context.Context) string {
	stats, err := c.Collect(ctx)
	if err != nil {
		return "Error collecting metrics"
	}

	summary := "Skill Match Metrics Summary\n"
	summary += "===========================\n\n"

	if healthy, ok := stats["store_healthy"].(bool); ok {
		if healthy {
			summary += "Store: healthy\n"
		} else {
			summary += "Store: UNREACHABLE\n"
		}
	}

	if recReqs, ok := stats["recommendation_requests_total"].(int64); ok {
		summary += "Recommendation Requests: " + toString(recReqs) + "\n"
	}

	if scored, ok := stats["candidates_scored_total"].(int64); ok {
		summary += "Candidates Scored: " + toString(scored) + "\n"
	}

	if eligible, ok := stats["candidates_eligible_total"].(int64); ok {
		summary += "Candidates Eligible: " + toString(eligible) + "\n"
	}

	if feedback, ok := stats["feedback_recorded_total"].(int64); ok {
		summary += "Feedback Recorded: " + toString(feedback) + "\n"
	}

	if entries, ok := stats["cache_entries"].(int); ok {
		summary += "Cache Entries: " + toString(entries) + "\n"
	}

	if goroutines, ok := stats["goroutines"].(float64); ok {
		summary += "Goroutines: " + toString(int(goroutines)) + "\n"
	}

	if memBytes, ok := stats["memory_bytes"].(float64); ok {
		summary += "Memory Usage: " + formatBytes(int64(memBytes)) + "\n"
	}

	if uptime, ok := stats["uptime_seconds"].(int64); ok {
		summary += "Uptime: " + formatDuration(uptime) + "\n"
	}

	return summary
}

// Helper functions

func toString(v interface{}) string {
	switch val := v.(type) {
	case int:
		return formatInt(int64(val))
	case int64:
		return formatInt(val)
	case float64:
		return formatInt(int64(val))
	default:
		return "0"
	}
}

func formatInt(n int64) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	if n < 1000000 {
		return fmt.Sprintf("%.1fk", float64(n)/1000)
	}
	return fmt.Sprintf("%.1fM", float64(n)/1000000)
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func formatDuration(seconds int64) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	if seconds < 3600 {
		return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
