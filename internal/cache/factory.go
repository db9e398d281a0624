package cache

import (
	"fmt"

	"github.com/skillmatch/skill-match/internal/config"
)

// New creates a cache from configuration. Supported types are "memory"
// and "redis".
func New(cfg config.CacheConfig) (Cache, error) {
	switch cfg.Type {
	case "", "memory":
		return NewMemoryCache(cfg.Size), nil
	case "redis":
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("redis cache requires a redis URL")
		}
		return NewRedisCache(cfg.RedisURL)
	default:
		return nil, fmt.Errorf("unknown cache type %q", cfg.Type)
	}
}
