// @title Video Quiz API
// @version 1.0
// @description Generates multiple-choice quizzes from the spoken content of online videos.
// @contact.name API Support
// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html
// @host localhost:8090
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type 'Bearer YOUR_JWT_TOKEN' to authorize.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "video-quiz/cmd/api/docs"
	"video-quiz/internal/adapter"
	"video-quiz/internal/adapter/fetcher"
	"video-quiz/internal/adapter/quizgen"
	"video-quiz/internal/adapter/transcriber"
	"video-quiz/internal/cache"
	"video-quiz/internal/config"
	"video-quiz/internal/database"
	"video-quiz/internal/domain"
	"video-quiz/internal/handler"
	"video-quiz/internal/logger"
	"video-quiz/internal/middleware"
	"video-quiz/internal/repository"
	"video-quiz/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	if err := logger.Initialize(cfg.Logger); err != nil {
		panic(err)
	}
	appLogger := logger.Get()
	defer logger.Sync()

	// Connect to database
	db, err := database.NewSQLXOracleDB(cfg.GetDSN())
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	quizRepository := repository.NewQuizDatabaseAdapter(db)
	txManager := repository.NewTransactionManagerAdapter(db)

	// Redis is optional: without it transcripts are simply not cached
	var transcriptCache domain.Cache
	var cachePinger handler.Pinger
	if cfg.Redis.Address != "" {
		redisClient, err := cache.NewRedisClient(cfg.Redis)
		if err != nil {
			appLogger.Warn("Redis unavailable, transcript cache disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
			cacheAdapter := adapter.NewRedisCacheAdapter(redisClient)
			transcriptCache = cacheAdapter
			cachePinger = cacheAdapter
			appLogger.Info("Transcript cache enabled", zap.Duration("ttl", cfg.Pipeline.TranscriptCacheTTL))
		}
	}

	// Pipeline stages
	audioFetcher := fetcher.NewYtDlpFetcher(cfg.Fetcher, cfg.Pipeline.DownloadTimeout, fetcher.ExecRunner{})
	audioTranscriber := transcriber.NewOpenAITranscriber(cfg.Transcription, cfg.Pipeline.TranscriptionTimeout)

	llmHTTPClient := &http.Client{Timeout: cfg.Pipeline.GenerationTimeout + 10*time.Second}
	llm, err := quizgen.NewLLM(context.Background(), cfg.Generator, llmHTTPClient)
	if err != nil {
		appLogger.Fatal("Failed to create LLM client", zap.String("provider", cfg.Generator.Provider), zap.Error(err))
	}
	generator, err := quizgen.NewLLMQuizGenerator(llm, cfg.Generator, cfg.Pipeline.GenerationTimeout, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to create quiz generator", zap.Error(err))
	}
	appLogger.Info("Quiz generator initialized",
		zap.String("provider", cfg.Generator.Provider),
		zap.String("model", cfg.Generator.Model),
	)

	// Initialize services
	quizPipeline := service.NewQuizPipeline(
		audioFetcher,
		audioTranscriber,
		generator,
		quizRepository,
		txManager,
		transcriptCache,
		cfg.Pipeline.TranscriptCacheTTL,
	)
	quizService := service.NewQuizService(quizRepository, txManager)

	authService, err := service.NewAuthService(cfg.JWT)
	if err != nil {
		appLogger.Fatal("Failed to create AuthService", zap.Error(err))
	}

	// Initialize handlers
	quizHandler := handler.NewQuizHandler(quizPipeline, quizService)
	healthHandler := handler.NewHealthHandler(quizRepository, cachePinger)

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: middleware.ErrorHandler(),
	})

	app.Use(middleware.RequestLogger())
	app.Use(cors.New(cors.Config{AllowOrigins: "*", AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS", AllowHeaders: "Origin,Content-Type,Accept,Authorization", MaxAge: 300}))
	app.Use(recover.New())

	app.Get("/swagger/*", swagger.HandlerDefault)
	app.Get("/healthz", healthHandler.Check)

	// All quiz routes require an authenticated caller
	apiGroup := app.Group("/api", middleware.Protected(authService))
	apiGroup.Post("/quizzes", quizHandler.CreateQuiz)
	apiGroup.Post("/createQuiz", quizHandler.CreateQuiz) // legacy path used by the first frontend
	apiGroup.Get("/quizzes", quizHandler.ListQuizzes)

	validateID := middleware.NewValidationMiddleware().ValidateQuizID()
	apiGroup.Get("/quizzes/:id", validateID, quizHandler.GetQuiz)
	apiGroup.Patch("/quizzes/:id", validateID, quizHandler.UpdateQuiz)
	apiGroup.Delete("/quizzes/:id", validateID, quizHandler.DeleteQuiz)

	go func() {
		appLogger.Info("Starting server", zap.Int("port", cfg.Server.Port), zap.String("env", cfg.Logger.Env))
		if err := app.Listen(":" + strconv.Itoa(cfg.Server.Port)); err != nil {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	appLogger.Info("Server exited gracefully")
}
