package main

import (
	"context"
	"fmt"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	_ "formulate-backend/docs"
	"formulate-backend/src/config"
	"formulate-backend/src/controllers"
	"formulate-backend/src/database"
	"formulate-backend/src/jobs"
	"formulate-backend/src/logger"
	"formulate-backend/src/routes"
	"formulate-backend/src/seeder"
	"formulate-backend/src/services/forms"
	"formulate-backend/src/services/mail"
	"formulate-backend/src/services/responses"
	"formulate-backend/src/services/webhook"
	"formulate-backend/src/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// @title                       Formulate API
// @version                     1.0
// @description                 Form builder backend: forms, respondent flow, responses and summaries.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	cfg := config.Load()
	logger.Configure(cfg.LogLevel, cfg.LogJSON)
	utils.SetJWTSecret(cfg.JWTSecret)

	if err := database.ConnectMongoDB(cfg); err != nil {
		logger.Fatalf("Error connecting to the database: %v", err)
	}
	database.InitRedis(cfg)
	database.InitAsynq(cfg)

	formStore := forms.NewMongoStore(database.FormCollection)
	responseStore := responses.NewMongoStore(database.ResponseCollection)

	// Interfaces stay nil without Redis so the services skip those features.
	var (
		sched forms.Scheduler
		queue jobs.Enqueuer
		guard responses.Guard
	)
	if database.AsynqClient != nil {
		sched = jobs.NewScheduler(database.AsynqClient, database.AsynqInspector)
		queue = database.AsynqClient
	}
	if database.RedisClient != nil {
		guard = responses.RedisGuard{TTL: cfg.DuplicateTTL}
	}

	formService := forms.NewService(formStore, sched)
	notifier := jobs.NewNotifier(queue, webhook.NewAgentSender(cfg.WebhookTimeout), responseStore, mail.FromConfig(cfg))
	responseService := responses.NewService(responseStore, formStore, guard, notifier)

	if cfg.SeedCreatorID != "" {
		seedSampleForms(formService, cfg.SeedCreatorID)
	}

	app := fiber.New(fiber.Config{AppName: "Formulate API"})
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
	}))

	app.Get("/swagger/*", swagger.HandlerDefault)

	routes.InitRoutes(app, routes.Controllers{
		Forms:     controllers.NewFormController(formService, responseService, cfg.PublicBaseURL),
		Responses: controllers.NewResponseController(responseService),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = app.ShutdownWithContext(shutdownCtx)
	}()

	logger.Infof("Server is running on port %s", cfg.AppPort)
	if err := app.Listen(fmt.Sprintf(":%s", url.PathEscape(cfg.AppPort))); err != nil {
		logger.Errorf("server stopped: %v", err)
	}

	closeClients()
}

func seedSampleForms(svc *forms.Service, creatorHex string) {
	creator, err := primitive.ObjectIDFromHex(creatorHex)
	if err != nil {
		logger.Warnf("⚠️ SEED_CREATOR_ID %q is not an object id, skipping seed", creatorHex)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	n, err := seeder.SeedSampleForms(ctx, svc, creator)
	if err != nil {
		logger.WithError(err).Warn("sample forms not seeded")
		return
	}
	logger.Infof("seeded %d sample forms", n)
}

func closeClients() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if database.AsynqClient != nil {
		_ = database.AsynqClient.Close()
	}
	if database.AsynqInspector != nil {
		_ = database.AsynqInspector.Close()
	}
	if database.RedisClient != nil {
		_ = database.RedisClient.Close()
	}
	database.Disconnect(ctx)
}
