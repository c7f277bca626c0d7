package database

import (
	"formulate-backend/src/config"
	"formulate-backend/src/logger"

	"github.com/hibiken/asynq"
)

var (
	AsynqClient    *asynq.Client
	AsynqInspector *asynq.Inspector
)

// RedisOpt is the asynq connection for the configured Redis.
func RedisOpt(cfg config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: cfg.RedisURI, Password: cfg.RedisPassword}
}

// InitAsynq initializes the task client only if Redis is available.
func InitAsynq(cfg config.Config) {
	if RedisClient == nil || RedisURI == "" {
		logger.Warnf("⚠️ Redis not available. Asynq client will not be initialized.")
		return
	}
	AsynqClient = asynq.NewClient(RedisOpt(cfg))
	AsynqInspector = asynq.NewInspector(RedisOpt(cfg))
	logger.Infof("✅ Asynq client initialized")
}
