package main

import (
	"alcyxob/totalfit/internal/api"
	"alcyxob/totalfit/internal/app"
	"alcyxob/totalfit/internal/config"
	"alcyxob/totalfit/internal/evolution"
	"alcyxob/totalfit/internal/generator"
	"alcyxob/totalfit/internal/llm"
	"alcyxob/totalfit/internal/logging"
	"alcyxob/totalfit/internal/reminder"
	"alcyxob/totalfit/internal/repository"
	"alcyxob/totalfit/internal/repository/mongo"
	"alcyxob/totalfit/internal/repository/sqlite"
	"alcyxob/totalfit/internal/service"
	"alcyxob/totalfit/internal/storage"
	"alcyxob/totalfit/internal/store"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// repositories bundles the store backends and how to close them.
type repositories struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	plans    repository.PlanRepository
	close    func()
}

// @title TotalFit API
// @version 1.0
// @description AI-generated training and diet plans with weekly evolution and a coaching chat.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("FATAL: Could not build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("Starting TotalFit server...", zap.String("driver", cfg.Database.Driver))

	ctx := context.Background()

	// --- Database ---
	repos, err := openRepositories(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("Could not open plan store", zap.Error(err))
	}
	defer repos.close()

	logger.Info("Initializing plan store...")
	planStore := store.New(repos.users, repos.sessions, repos.plans, store.Options{
		SessionTTL:  cfg.JWT.Expiration,
		RememberTTL: cfg.JWT.RememberExpiration,
	}, logger.Named("store"))

	// --- AI backend ---
	logger.Info("Initializing AI backend...", zap.String("model", cfg.AI.Model))
	backend, err := llm.NewGeminiBackend(ctx, llm.GeminiConfig{
		APIKey:          cfg.AI.APIKey,
		Model:           cfg.AI.Model,
		MaxOutputTokens: cfg.AI.MaxOutputTokens,
		Timeout:         cfg.AI.Timeout,
	}, logger.Named("llm"))
	if err != nil {
		logger.Fatal("Could not initialize AI backend", zap.Error(err))
	}

	planGenerator := generator.New(backend, cfg.AI.MaxOutputTokens, logger.Named("generator"))
	coordinator := evolution.NewCoordinator(planGenerator, logger.Named("evolution"))

	// --- Plan export (optional) ---
	var exporter app.Exporter
	if cfg.S3.BucketName != "" {
		logger.Info("Initializing file storage service...")
		fileStorage, err := storage.NewS3Storage(ctx, cfg.S3, logger.Named("storage"))
		if err != nil {
			logger.Fatal("Failed to initialize S3 storage", zap.Error(err))
		}
		exporter = storage.NewPlanExporter(fileStorage, cfg.S3.ExportExpiry)
	} else {
		logger.Info("S3 bucket not configured, plan export disabled")
	}

	// --- Services ---
	logger.Info("Initializing services...")
	authService := service.NewAuthService(repos.users, planStore, cfg.JWT.Secret)

	registry := app.NewRegistry(app.Deps{
		Store:       planStore,
		Auth:        authService,
		Generator:   planGenerator,
		Evolver:     coordinator,
		ChatBackend: backend,
		Exporter:    exporter,
		Reminder: reminder.Options{
			Interval:        cfg.Reminder.Interval,
			DisplayFor:      cfg.Reminder.DisplayFor,
			AfterGeneration: cfg.Reminder.AfterGeneration,
		},
		Logger: logger.Named("app"),
	})
	defer registry.Shutdown()

	// --- HTTP ---
	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default() // Includes Logger and Recovery middleware
	api.SetupRoutes(router, cfg.JWT.Secret, registry, logger.Named("api"))

	server := &http.Server{
		Addr:        cfg.Server.Address,
		Handler:     router,
		ReadTimeout: 10 * time.Second,
		// Generation requests block until the AI call returns.
		WriteTimeout: cfg.AI.Timeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	logger.Info("Server starting", zap.String("address", cfg.Server.Address))

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("ListenAndServe error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting.")
}

func openRepositories(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*repositories, error) {
	switch cfg.Driver {
	case "", "mongo":
		client, err := mongo.ConnectDB(ctx, cfg.URI)
		if err != nil {
			return nil, err
		}
		db := client.Database(cfg.Name)

		indexCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		if err := mongo.EnsureIndexes(indexCtx, db); err != nil {
			logger.Warn("Index creation failed", zap.Error(err))
		}
		logger.Info("Database connection established.", zap.String("database", cfg.Name))

		return &repositories{
			users:    mongo.NewMongoUserRepository(db),
			sessions: mongo.NewMongoSessionRepository(db),
			plans:    mongo.NewMongoPlanRepository(db),
			close: func() {
				logger.Info("Disconnecting MongoDB...")
				if err := mongo.DisconnectDB(client); err != nil {
					logger.Error("Failed to disconnect MongoDB", zap.Error(err))
				}
			},
		}, nil

	case "sqlite":
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("SQLite database opened.", zap.String("path", cfg.SQLitePath))

		return &repositories{
			users:    sqlite.NewSQLiteUserRepository(db),
			sessions: sqlite.NewSQLiteSessionRepository(db),
			plans:    sqlite.NewSQLitePlanRepository(db),
			close: func() {
				if err := db.Close(); err != nil {
					logger.Error("Failed to close SQLite", zap.Error(err))
				}
			},
		}, nil

	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
