package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/core/analytics"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/core/audit"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/core/auth"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/core/email"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/core/export"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/core/jobs"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/core/notification"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/core/scheduler"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/core/upload"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/modules/ledger/handlers"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/modules/ledger/repositories"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/modules/ledger/services"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/shared/config"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/shared/database"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/shared/utils"

	_ "github.com/MuhamadAgungGumelar/card-ledger-be/cmd/api/docs"
)

const jobRetention = 7 * 24 * time.Hour

// @title Card Ledger API
// @version 1.0
// @description Back-office API for prepaid card orders, payments and company balances
// @contact.name API Support
// @contact.email support@turbocards.ly
// @license.name MIT
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load config
	cfg := config.LoadConfig()
	utils.InitLogger(cfg.Env, cfg.LogLevel)
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("starting card-ledger api")

	// Init database
	db, err := database.NewDB(cfg.DatabaseURL, cfg.LogLevel == "debug")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Init file storage (local disk or S3)
	var fileProvider upload.Provider
	var localFiles *upload.LocalProvider
	switch cfg.UploadProvider {
	case "s3":
		s3Provider, err := upload.NewS3Provider(context.Background(), cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, cfg.AWSRegion, cfg.S3Bucket)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize S3 provider")
		}
		fileProvider = s3Provider
	default:
		// Signed URLs only need to outlive the process when a secret is configured
		secret := cfg.FileSigningSecret
		if secret == "" {
			secret = uuid.NewString()
		}
		localFiles, err = upload.NewLocalProvider(cfg.UploadDir, cfg.PublicBaseURL, secret)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize local file provider")
		}
		fileProvider = localFiles
	}
	files := upload.NewService(fileProvider, cfg.SignedURLTTL)

	// Init email service (multi-provider support)
	emailService := email.NewService(email.NewProvider(cfg.EmailProvider, cfg.ResendAPIKey, cfg.BrevoAPIKey, cfg.EmailFrom, cfg.EmailFromName))
	notificationService := notification.NewService(emailService)

	log.Info().Str("provider", files.GetProviderName()).Msg("file storage ready")
	if emailService.Enabled() {
		log.Info().Str("provider", emailService.GetProviderName()).Msg("email service ready")
	} else {
		log.Warn().Msg("email service not configured, order emails and alerts are disabled")
	}

	// Init core services
	auditService := audit.NewService(db.GORM)
	jobService := jobs.NewService(db.GORM)
	exporter := export.NewService(cfg.EmailFromName)

	// Init repositories
	companyRepo := repositories.NewCompanyRepo(db.GORM)
	orderRepo := repositories.NewOrderRepo(db.GORM)
	transactionRepo := repositories.NewTransactionRepo(db.GORM)
	settingsRepo := repositories.NewSettingsRepo(db.GORM)

	// Init ledger services
	cleaner := services.NewReceiptCleaner(files, jobService)
	alertService := services.NewAlertService(notificationService, orderRepo, transactionRepo)
	companyService := services.NewCompanyService(companyRepo, cleaner, auditService)
	orderService := services.NewOrderService(orderRepo, companyRepo, settingsRepo, files, emailService, cleaner, alertService, auditService, exporter)
	transactionService := services.NewTransactionService(transactionRepo, companyRepo, settingsRepo, files, cleaner, alertService, auditService)
	settingsService := services.NewSettingsService(settingsRepo, auditService)
	reportService := services.NewReportService(companyRepo, orderRepo, transactionRepo, settingsRepo, analytics.NewAggregator(db.GORM), notificationService)
	exportService := services.NewExportService(orderRepo, transactionRepo, settingsRepo, exporter, auditService)

	// Background workers retry receipt removals that failed inline
	jobService.RegisterWorker(jobs.WorkerConfig{
		Queue:        services.FilesQueue,
		Concurrency:  1,
		PollInterval: cfg.FileCleanupPoll,
		Timeout:      time.Minute,
	}, services.NewReceiptRemovalHandler(files))

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	if err := jobService.StartWorkers(workerCtx); err != nil {
		log.Fatal().Err(err).Msg("failed to start job workers")
	}

	// Scheduled jobs
	sched := scheduler.NewScheduler(5 * time.Minute)
	if err := sched.AddJob("daily-summary", cfg.DailySummaryCron, reportService.SendDailySummary); err != nil {
		log.Fatal().Err(err).Msg("failed to schedule daily summary")
	}
	if err := sched.AddJob("job-cleanup", "0 30 3 * * *", func(ctx context.Context) error {
		removed, err := jobService.Cleanup(ctx, jobRetention)
		if err == nil && removed > 0 {
			log.Info().Int64("removed", removed).Msg("cleaned up finished jobs")
		}
		return err
	}); err != nil {
		log.Fatal().Err(err).Msg("failed to schedule job cleanup")
	}
	sched.Start()

	// Authentication: bearer tokens when a secret is configured
	authenticate := auth.Anonymous(auth.Principal{UserID: "local", Email: "admin@localhost", Role: auth.RoleAdmin})
	if cfg.JWTSecret != "" {
		authenticate = auth.AuthMiddleware(auth.NewVerifier(cfg.JWTSecret))
	} else if cfg.IsProduction() {
		log.Fatal().Msg("JWT_SECRET is required in production")
	} else {
		log.Warn().Msg("JWT_SECRET not set, every request runs as a local admin")
	}

	// Init Fiber app
	app := fiber.New(fiber.Config{
		AppName:   "Card Ledger API",
		BodyLimit: 12 * 1024 * 1024,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())

	// Swagger
	app.Get("/swagger/*", swagger.HandlerDefault)

	// Signed receipt downloads for the local provider
	if localFiles != nil {
		app.Get(upload.SignedPath, upload.NewHandler(localFiles).ServeSigned)
	}

	handlers.RegisterRoutes(app, handlers.Handlers{
		Health:       handlers.NewHealthHandler(db.GORM, files.GetProviderName()),
		Companies:    handlers.NewCompanyHandler(companyService, reportService),
		Orders:       handlers.NewOrderHandler(orderService, exportService),
		Transactions: handlers.NewTransactionHandler(transactionService, exportService),
		Reports:      handlers.NewReportHandler(reportService),
		Settings:     handlers.NewSettingsHandler(settingsService, auditService),
	}, authenticate)

	// Start server
	go func() {
		log.Info().Msgf("card-ledger api running at :%s", cfg.Port)
		log.Info().Msgf("swagger UI: http://localhost:%s/swagger/", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	sched.Stop(shutdownCtx)
	jobService.StopWorkers()
}
