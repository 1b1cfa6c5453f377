package stores

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

type RedisClient = redis.UniversalClient

const limiterPrefix = "typist-limiter"

// NewRedisClient parses uri and pings the server
func NewRedisClient(ctx context.Context, uri string) (RedisClient, error) {
	opt, err := redis.ParseURL(uri)
	if err != nil {
		logger().Infow("prase redisURI fail", "uri", uri, "err", err)
		return nil, err
	}
	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err = rc.Ping(ctx).Err(); err != nil {
		logger().Infow("ping redis fail", "err", err)
		_ = rc.Close()
		return nil, err
	}
	return rc, nil
}

// NewLimiterStore returns a redis backed store when redisURI is set so that
// several relays share one budget, otherwise an in-memory one.
func NewLimiterStore(ctx context.Context, redisURI string) (limiter.Store, error) {
	if len(redisURI) == 0 {
		return memory.NewStoreWithOptions(limiter.StoreOptions{
			Prefix:          limiterPrefix,
			CleanUpInterval: limiter.DefaultCleanUpInterval,
		}), nil
	}
	rc, err := NewRedisClient(ctx, redisURI)
	if err != nil {
		return nil, err
	}
	return sredis.NewStoreWithOptions(rc, limiter.StoreOptions{
		Prefix: limiterPrefix,
	})
}
