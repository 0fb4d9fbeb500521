package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"todo/internal/auth"
	"todo/internal/config"
	"todo/internal/db"
	"todo/internal/db/migrations"
	"todo/internal/jobs"
	"todo/internal/logger"
	"todo/internal/ratelimit"
	"todo/internal/repository"
	"todo/internal/routes"
	"todo/internal/services"
)

// @title Todo API
// @version 1.0
// @description Multi-tenant todo backend with JWT authentication.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	rollback := flag.Bool("rollback", false, "revert the most recent migration and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", false)
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}
	log := logger.New(cfg.LogLevel, cfg.IsDevelopment())

	ctx := context.Background()

	if err := db.CreateDatabaseIfNotExists(ctx, cfg.DatabaseURL, log); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure database exists")
	}

	database, err := db.New(ctx, cfg.DatabaseURL, db.DefaultPool, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close()

	if *rollback {
		reverted, err := migrations.RollbackLast(ctx, database.DB, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to roll back migration")
		}
		if !reverted {
			log.Info().Msg("no migration to roll back")
		}
		return
	}

	if err := migrations.RunMigrations(ctx, database.DB, log); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	hasher, err := auth.NewBcryptHasher(auth.PasswordCost)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise password hasher")
	}

	deps := routes.Deps{
		DB:     database.DB,
		Config: cfg,
		Logger: log,
		Mailer: newMailer(cfg, log),
		Hasher: hasher,
	}

	if cfg.S3.Bucket != "" {
		s3cfg, err := config.NewS3Config(ctx, cfg.S3)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to configure S3")
		}
		deps.Images = services.NewS3ImageStore(s3cfg)
	} else {
		log.Warn().Msg("S3_BUCKET_NAME not set, image uploads are disabled")
	}

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("redis unreachable, rate limiting will fail open")
		}
		deps.Limiter = ratelimit.New(rdb, "todo:auth", cfg.AuthRateLimit, cfg.AuthRateBurst)
	}

	router, err := routes.SetupRoutes(deps)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build router")
	}

	scheduler := jobs.NewScheduler(log)
	maintenance := jobs.NewMaintenance(
		repository.NewResetTokenRepository(database.DB),
		services.NewTodoService(repository.NewTodoRepository(database.DB), auth.NewPolicy()),
		log,
	)
	if _, err := scheduler.Every(cfg.MaintenanceInterval, maintenance.Run); err != nil {
		log.Fatal().Err(err).Msg("failed to schedule maintenance")
	}
	scheduler.Start()

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	scheduler.Stop(shutdownCtx)
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("server exited")
}

// newMailer falls back to logging mail when no SMTP host is configured.
func newMailer(cfg *config.Config, log zerolog.Logger) services.EmailSender {
	if cfg.SMTP.Host == "" {
		log.Warn().Msg("SMTP_HOST not set, emails will be logged instead of sent")
		return &services.LogEmailSender{Logger: log}
	}
	sender, err := services.NewSMTPSender(cfg.SMTP)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure SMTP")
	}
	return sender
}
