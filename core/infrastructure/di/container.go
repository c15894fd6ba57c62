package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/meterscope/meterscope/core/application/gateway"
	"github.com/meterscope/meterscope/core/application/inspector"
	"github.com/meterscope/meterscope/core/catalog"
	"github.com/meterscope/meterscope/core/config"
	"github.com/meterscope/meterscope/core/infrastructure/connectors"
	"github.com/meterscope/meterscope/core/infrastructure/logging"
	"github.com/meterscope/meterscope/core/infrastructure/transport/http/middleware"
)

// inspectorCacheTTL bounds reuse of stats and schema results
const inspectorCacheTTL = 30 * time.Second

// Container holds all dependencies
type Container struct {
	Config    config.Config
	Catalog   *catalog.Catalog
	Pools     *connectors.PoolSet
	Gateway   *gateway.Gateway
	Inspector *inspector.Inspector
	// Redis and Limiter are nil when no REDIS_URL is configured.
	Redis   *redis.Client
	Limiter middleware.RateLimiter
}

// NewContainer wires the catalog, pools, gateway and inspector from cfg
func NewContainer(ctx context.Context, cfg config.Config) (*Container, error) {
	log := logging.New("di")

	cat, err := catalog.Load(cfg.ScenariosFile)
	if err != nil {
		return nil, logging.WithTag("catalog", fmt.Errorf("failed to load scenarios: %w", err))
	}
	log.Infof("Loaded %d scenario(s)", cat.Len())

	pools, err := connectors.OpenPoolSet(ctx, cfg.PoolConfig())
	if err != nil {
		return nil, err
	}

	c := &Container{
		Config:  cfg,
		Catalog: cat,
		Pools:   pools,
		Gateway: gateway.New(cat, pools, gateway.Options{HistoryCapacity: cfg.HistoryCapacity}),
		Inspector: inspector.New(pools, cfg.Public(), inspector.Options{
			CacheTTL: inspectorCacheTTL,
		}),
	}

	if cfg.RateLimit.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RateLimit.RedisURL)
		if err != nil {
			_ = c.Close()
			return nil, logging.WithTag("ratelimit", fmt.Errorf("invalid REDIS_URL: %w", err))
		}
		c.Redis = redis.NewClient(opts)
		c.Limiter = middleware.NewRedisRateLimiter(c.Redis)

		pingCtx, cancel := context.WithTimeout(ctx, cfg.Database.ConnectTimeout)
		defer cancel()
		if err := c.Redis.Ping(pingCtx).Err(); err != nil {
			log.Warnf("Redis unreachable, rate limiting will fail open: %v", err)
		} else {
			log.Infof("Rate limiting enabled: %d requests per %s", cfg.RateLimit.Requests, cfg.RateLimit.Window)
		}
	}

	return c, nil
}

// Close closes all resources
func (c *Container) Close() error {
	var errs []error
	if c.Inspector != nil {
		c.Inspector.Close()
	}
	if c.Pools != nil {
		errs = append(errs, c.Pools.CloseAll())
	}
	if c.Redis != nil {
		errs = append(errs, c.Redis.Close())
	}
	return errors.Join(errs...)
}
