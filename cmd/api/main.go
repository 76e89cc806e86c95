package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/rollcall-api/internal/auth"
	"github.com/noah-isme/rollcall-api/internal/config"
	"github.com/noah-isme/rollcall-api/internal/database"
	"github.com/noah-isme/rollcall-api/internal/handler"
	"github.com/noah-isme/rollcall-api/internal/middleware"
	"github.com/noah-isme/rollcall-api/internal/models"
	"github.com/noah-isme/rollcall-api/internal/repository"
	"github.com/noah-isme/rollcall-api/internal/router"
	"github.com/noah-isme/rollcall-api/internal/service"
	"github.com/noah-isme/rollcall-api/internal/utils"
	cloud "github.com/noah-isme/rollcall-api/pkg/cloudinary"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	if cfg.AppEnv != "production" {
		logger = logger.Level(zerolog.DebugLevel)
	} else {
		logger = logger.Level(zerolog.InfoLevel)
	}

	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	ctx := context.Background()

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, attendance summaries will not be cached")
		} else {
			defer redisClient.Close()
		}
	}

	var events service.EventPublisher
	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, attendance events disabled")
		} else {
			defer natsConn.Drain()
			events = service.NewNATSPublisher(natsConn, cfg.NATSSubject)
		}
	}

	var storage service.FileStorage
	cloudCfg := cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}
	if cloudCfg.Configured() {
		store, err := cloud.New(cloudCfg, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create cloudinary client")
		}
		storage = store
	} else {
		logger.Warn().Msg("cloudinary not configured, document uploads disabled")
	}

	validate := utils.NewValidator()
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.SessionTTL)
	hasher := auth.NewPasswordHasher(cfg.BcryptCost)

	facultyRepo := repository.NewFacultyRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	classRepo := repository.NewClassRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	postRepo := repository.NewPostRepository(db)
	markRepo := repository.NewMarkRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	authorizer := auth.NewAuthorizer(service.NewClassDirectory(classRepo))
	cache := service.NewAttendanceCache(redisClient, cfg.AttendanceCacheTTL, logger)

	activityService := service.NewActivityService(activityRepo, logger)
	authService := service.NewAuthService(facultyRepo, studentRepo, hasher, tokens, service.AuthConfig{
		EmailDomain:            cfg.EmailDomain,
		StudentDefaultPassword: cfg.StudentDefaultPassword,
	}, validate, logger)
	classService := service.NewClassService(classRepo, studentRepo, authorizer, cache, activityService, validate, logger)
	attendanceService := service.NewAttendanceService(attendanceRepo, classRepo, authorizer, cache, events, activityService, validate, logger)
	postService := service.NewPostService(postRepo, classRepo, storage, activityService, validate, cfg.UploadMaxSizeMB, logger)
	markService := service.NewMarkService(markRepo, authorizer, activityService, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    (cfg.UploadMaxSizeMB + 1) * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{
		Logger:       &logger,
		AllowOrigins: cfg.CORSAllowOrigins,
	})

	optional := map[string]handler.Pinger{}
	if redisClient != nil {
		optional["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	if natsConn != nil {
		optional["nats"] = func(context.Context) error {
			if !natsConn.IsConnected() {
				return errors.New("nats disconnected")
			}
			return nil
		}
	}

	router.Register(app, cfg, router.Dependencies{
		AuthHandler:       handler.NewAuthHandler(authService, cfg.SecureCookies(), logger),
		ClassHandler:      handler.NewClassHandler(classService, logger),
		AttendanceHandler: handler.NewAttendanceHandler(attendanceService, logger),
		PostHandler:       handler.NewPostHandler(postService, logger),
		MarkHandler:       handler.NewMarkHandler(markService, logger),
		ActivityHandler:   handler.NewActivityHandler(activityService, logger),
		Tokens:            tokens,
		Health: handler.HealthCheck(cfg, func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}, optional),
	})

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddress()).Msg("server listening")
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, logger)
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
