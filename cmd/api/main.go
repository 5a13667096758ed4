package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/codegrade/codegrade-api/internal/config"
	"github.com/codegrade/codegrade-api/internal/database"
	"github.com/codegrade/codegrade-api/internal/handler"
	"github.com/codegrade/codegrade-api/internal/middleware"
	"github.com/codegrade/codegrade-api/internal/models"
	"github.com/codegrade/codegrade-api/internal/repository"
	"github.com/codegrade/codegrade-api/internal/router"
	"github.com/codegrade/codegrade-api/internal/service"
	"github.com/codegrade/codegrade-api/internal/task"
	"github.com/codegrade/codegrade-api/pkg/judge0"
	"github.com/codegrade/codegrade-api/pkg/s3store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	err = db.AutoMigrate(
		&models.Class{},
		&models.Student{},
		&models.Language{},
		&models.Status{},
		&models.Problem{},
		&models.TestCase{},
		&models.Submission{},
		&models.Result{},
	)
	if err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	blobs, err := s3store.New(context.Background(), s3store.Config{
		Bucket:          cfg.S3Bucket,
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
		Endpoint:        cfg.S3Endpoint,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create blob store: %v", err)
	}

	judge, err := judge0.New(judge0.Config{
		BaseURL:         cfg.JudgeURL,
		AuthToken:       cfg.JudgeAuthToken,
		InitialDelay:    cfg.JudgeInitialDelay,
		PollInterval:    cfg.JudgePollInterval,
		MaxPollDuration: cfg.JudgeMaxPollDuration,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create judge client: %v", err)
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = nats.Connect(cfg.NATSURL)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, grading events disabled")
			natsConn = nil
		} else {
			defer natsConn.Close()
		}
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	classRepo := repository.NewClassRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	problemRepo := repository.NewProblemRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	languageRepo := repository.NewLanguageRepository(db)
	statusRepo := repository.NewStatusRepository(db)

	taskStore := task.NewStore(redisClient, cfg.TaskResultTTL, logger)
	notifier := service.NewGradingNotifier(natsConn, logger)
	keys := s3store.Keys{}

	seedService := service.NewSeedService(languageRepo, statusRepo, logger)
	gradingService := service.NewGradingService(problemRepo, submissionRepo, statusRepo, taskStore, blobs, judge, notifier, 0, logger)
	taskStatusService := service.NewTaskStatusService(taskStore, submissionRepo, blobs, logger)
	problemService := service.NewProblemService(classRepo, problemRepo, languageRepo, submissionRepo, blobs, keys, validate, logger)
	submissionService := service.NewSubmissionService(classRepo, studentRepo, problemRepo, languageRepo, submissionRepo, blobs, gradingService, keys, cfg.PresignTTL, logger)
	teacherGradingService := service.NewTeacherGradingService(submissionRepo, problemRepo, logger)
	classService := service.NewClassService(classRepo, studentRepo, problemService, validate, logger)
	languageService := service.NewLanguageService(languageRepo)

	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 30*time.Second)
	if err := seedService.Run(seedCtx); err != nil {
		cancelSeed()
		log.Fatalf("failed to seed reference data: %v", err)
	}
	cancelSeed()

	classHandler := handler.NewClassHandler(classService, logger)
	problemHandler := handler.NewProblemHandler(problemService, cfg.MaxSubmissionSize, logger)
	submissionHandler := handler.NewSubmissionHandler(submissionService, teacherGradingService, cfg.MaxSubmissionSize, logger)
	taskStatusHandler := handler.NewTaskStatusHandler(taskStatusService, logger)
	languageHandler := handler.NewLanguageHandler(languageService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    int(cfg.MaxSubmissionSize) * 4,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		ClassHandler:      classHandler,
		ProblemHandler:    problemHandler,
		SubmissionHandler: submissionHandler,
		TaskStatusHandler: taskStatusHandler,
		LanguageHandler:   languageHandler,
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
