package database

import (
	"context"

	"formulate-backend/src/config"
	"formulate-backend/src/logger"

	"github.com/redis/go-redis/v9"
)

var (
	RedisClient *redis.Client
	RedisURI    string
)

// InitRedis connects to Redis when REDIS_URI is set. Without it the API runs
// with the duplicate guard and background jobs disabled.
func InitRedis(cfg config.Config) {
	if cfg.RedisURI == "" {
		logger.Warnf("⚠️ REDIS_URI not set, Redis features disabled")
		return
	}
	c := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURI,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	if err := c.Ping(context.Background()).Err(); err != nil {
		logger.WithError(err).Warn("⚠️ Redis ping failed, Redis features disabled")
		_ = c.Close()
		return
	}
	RedisClient = c
	RedisURI = cfg.RedisURI
	logger.Infof("✅ Redis connected")
}
