package metrics

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Defaults for Redis-backed metric history.
const (
	DefaultStoragePrefix    = "skillmatch:metrics:"
	DefaultStorageRetention = 24 * time.Hour
)

// RedisStorageConfig configures the Redis persistence backend.
type RedisStorageConfig struct {
	// URL is the Redis connection string.
	URL string

	// Prefix namespaces the keys. Empty means DefaultStoragePrefix.
	Prefix string

	// Retention bounds how long data points are kept. Zero means
	// DefaultStorageRetention.
	Retention time.Duration
}

// RedisStorage persists metric time series across restarts, one sorted
// set per metric scored by timestamp so range reads stay cheap. The
// recommendation rate/latency and feedback rate series survive a
// process restart this way.
type RedisStorage struct {
	client    *redis.Client
	prefix    string
	retention time.Duration
}

// NewRedisStorage connects to Redis and verifies the connection.
func NewRedisStorage(cfg RedisStorageConfig) (*RedisStorage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultStoragePrefix
	}
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultStorageRetention
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &RedisStorage{
		client:    client,
		prefix:    cfg.Prefix,
		retention: cfg.Retention,
	}, nil
}

// encodeDataPoint builds the sorted-set member. The timestamp is part
// of the member so equal values recorded at different times stay
// distinct entries.
func encodeDataPoint(dp DataPoint) string {
	return strconv.FormatInt(dp.Timestamp.UnixNano(), 10) + ":" +
		strconv.FormatFloat(dp.Value, 'f', -1, 64)
}

func decodeDataPoint(member string, score float64) (DataPoint, bool) {
	_, raw, ok := strings.Cut(member, ":")
	if !ok {
		return DataPoint{}, false
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return DataPoint{}, false
	}
	return DataPoint{Timestamp: time.Unix(int64(score), 0), Value: value}, true
}

// SaveDataPoint persists a single data point.
func (rs *RedisStorage) SaveDataPoint(ctx context.Context, metric string, dp DataPoint) error {
	return rs.SaveBatch(ctx, metric, []DataPoint{dp})
}

// SaveBatch persists data points and prunes everything older than the
// retention window in the same round trip.
func (rs *RedisStorage) SaveBatch(ctx context.Context, metric string, dataPoints []DataPoint) error {
	if len(dataPoints) == 0 {
		return nil
	}

	members := make([]redis.Z, len(dataPoints))
	for i, dp := range dataPoints {
		members[i] = redis.Z{
			Score:  float64(dp.Timestamp.Unix()),
			Member: encodeDataPoint(dp),
		}
	}

	key := rs.prefix + metric
	horizon := time.Now().Add(-rs.retention).Unix()

	pipe := rs.client.Pipeline()
	pipe.ZAdd(ctx, key, members...)
	pipe.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(horizon, 10))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("saving %s data points: %w", metric, err)
	}
	return nil
}

// LoadHistory returns the metric's data points recorded since the
// given time, oldest first.
func (rs *RedisStorage) LoadHistory(ctx context.Context, metric string, since time.Time) ([]DataPoint, error) {
	results, err := rs.client.ZRangeByScoreWithScores(ctx, rs.prefix+metric, &redis.ZRangeBy{
		Min: strconv.FormatInt(since.Unix(), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("loading %s history: %w", metric, err)
	}

	dataPoints := make([]DataPoint, 0, len(results))
	for _, z := range results {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}
		if dp, ok := decodeDataPoint(member, z.Score); ok {
			dataPoints = append(dataPoints, dp)
		}
	}
	return dataPoints, nil
}

// MetricNames returns the metrics currently persisted, using SCAN so
// large keyspaces stay responsive.
func (rs *RedisStorage) MetricNames(ctx context.Context) ([]string, error) {
	var names []string
	iter := rs.client.Scan(ctx, 0, rs.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		names = append(names, strings.TrimPrefix(iter.Val(), rs.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scanning metric names: %w", err)
	}
	return names, nil
}

// DeleteMetric removes all persisted data for one metric.
func (rs *RedisStorage) DeleteMetric(ctx context.Context, metric string) error {
	if err := rs.client.Del(ctx, rs.prefix+metric).Err(); err != nil {
		return fmt.Errorf("deleting %s: %w", metric, err)
	}
	return nil
}

// Close closes the Redis connection.
func (rs *RedisStorage) Close() error {
	return rs.client.Close()
}
