package redis_wrapper

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type RedisConfig struct {
	ConnectionURL       string `yaml:"connection_url"`
	PoolSize            int    `yaml:"pool_size"`
	DialTimeoutSeconds  int    `yaml:"dial_timeout_seconds"`
	ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `yaml:"write_timeout_seconds"`
	IdleTimeoutSeconds  int    `yaml:"idle_timeout_seconds"`
	KeyPrefix           string `yaml:"key_prefix"`
	TTLSeconds          int    `yaml:"ttl_seconds"`
}

// InitRedis create a redis from config
func InitRedis(ctx context.Context, redisCfg *RedisConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisCfg.ConnectionURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	if redisCfg.PoolSize > 0 {
		opts.PoolSize = redisCfg.PoolSize
	}
	opts.DialTimeout = seconds(redisCfg.DialTimeoutSeconds, opts.DialTimeout)
	opts.ReadTimeout = seconds(redisCfg.ReadTimeoutSeconds, opts.ReadTimeout)
	opts.WriteTimeout = seconds(redisCfg.WriteTimeoutSeconds, opts.WriteTimeout)
	opts.ConnMaxIdleTime = seconds(redisCfg.IdleTimeoutSeconds, opts.ConnMaxIdleTime)

	redisClient := redis.NewClient(opts)

	if err := redisClient.Ping(ctx).Err(); err != nil {
		redisClient.Close() // nolint
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	zap.S().Debug("connect to redis successful")
	return redisClient, nil
}

func seconds(n int, fallback time.Duration) time.Duration {
	if n <= 0 {
		return fallback
	}
	return time.Duration(n) * time.Second
}
