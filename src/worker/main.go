// Command worker runs the background tasks: scheduled publish and close of
// forms, webhook delivery and notification e-mails.
package main

import (
	"context"
	"time"

	"formulate-backend/src/config"
	"formulate-backend/src/database"
	"formulate-backend/src/jobs"
	"formulate-backend/src/logger"
	"formulate-backend/src/services/forms"
	"formulate-backend/src/services/mail"
	"formulate-backend/src/services/responses"
	"formulate-backend/src/services/webhook"

	"github.com/hibiken/asynq"
)

func main() {
	cfg := config.Load()
	logger.Configure(cfg.LogLevel, cfg.LogJSON)
	if cfg.RedisURI == "" {
		logger.Fatalf("REDIS_URI is required to run the worker")
	}

	if err := database.ConnectMongoDB(cfg); err != nil {
		logger.Fatalf("Error connecting to the database: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		database.Disconnect(ctx)
	}()

	formStore := forms.NewMongoStore(database.FormCollection)
	handlers := &jobs.Handlers{
		Transitions: forms.NewService(formStore, nil),
		Forms:       formStore,
		Responses:   responses.NewMongoStore(database.ResponseCollection),
		Sender:      webhook.NewAgentSender(cfg.WebhookTimeout),
		Mailer:      mail.FromConfig(cfg),
	}

	mux := asynq.NewServeMux()
	handlers.Register(mux)

	srv := jobs.NewServer(database.RedisOpt(cfg), cfg.WorkerConc)
	logger.Infof("✅ Worker started (concurrency=%d)", cfg.WorkerConc)
	// Run blocks until SIGTERM or SIGINT.
	if err := srv.Run(mux); err != nil {
		logger.Errorf("worker stopped: %v", err)
	}
}
