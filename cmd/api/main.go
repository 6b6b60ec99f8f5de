// @title Quiz Tutor API
// @version 1.0
// @description Generates multiple-choice quizzes on any topic with an LLM, grades them and keeps a score history.
// @host localhost:8090
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
// @description Type 'Bearer YOUR_JWT_TOKEN' to authorize.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"quiz-tutor/internal/adapter"
	"quiz-tutor/internal/adapter/pdf"
	"quiz-tutor/internal/adapter/quizgen"
	"quiz-tutor/internal/cache"
	"quiz-tutor/internal/config"
	"quiz-tutor/internal/database"
	"quiz-tutor/internal/handler"
	"quiz-tutor/internal/logger"
	"quiz-tutor/internal/middleware"
	"quiz-tutor/internal/repository"
	"quiz-tutor/internal/service"
	"quiz-tutor/internal/util"
	"quiz-tutor/internal/validation"

	_ "quiz-tutor/cmd/api/docs"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

// requestLogger is a middleware that logs HTTP requests
func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		path := c.Path()
		method := c.Method()

		// Process request
		err := c.Next()

		// Log request details
		duration := time.Since(start)
		status := c.Response().StatusCode()

		logger.Get().Info("HTTP Request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("duration", duration),
			zap.String("ip", c.IP()),
			zap.String("user_agent", c.Get("User-Agent")),
		)

		return err
	}
}

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

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	// Connect to database and bring the schema up to date
	db, err := database.Open(startupCtx, cfg.DB)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.String("driver", cfg.DB.Driver), zap.Error(err))
	}
	defer db.Close()
	if err := database.RunMigrations(db, cfg.DB.Driver); err != nil {
		appLogger.Fatal("Failed to run migrations", zap.Error(err))
	}
	appLogger.Info("Database ready", zap.String("driver", cfg.DB.Driver))

	// Initialize Redis Client
	redisClient, err := cache.NewRedisClient(startupCtx, cfg.Redis)
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	appLogger.Info("Successfully connected to Redis")
	cacheAdapter := adapter.NewRedisCacheAdapter(redisClient)
	sessionStore := service.NewSessionStore(cacheAdapter, cfg.Session.TTL)

	// Initialize the quiz generator
	model, err := quizgen.NewModel(startupCtx, cfg.LLM)
	if err != nil {
		appLogger.Fatal("Failed to create LLM client", zap.String("provider", cfg.LLM.Provider), zap.Error(err))
	}
	generator := quizgen.NewLLMQuizGenerator(model, quizgen.Options{
		Timeout:     cfg.LLM.Timeout,
		MaxRetries:  cfg.LLM.MaxRetries,
		Temperature: cfg.LLM.Temperature,
		Questions:   cfg.Quiz.MaxQuestions,
	})
	appLogger.Info("Quiz generator initialized", zap.String("provider", cfg.LLM.Provider), zap.String("model", cfg.LLM.Model))

	// Initialize repositories
	resultRepository := repository.NewResultRepository(db)
	userRepository := repository.NewSQLXUserRepository(db)
	txManager := repository.NewTransactionManagerAdapter(db)
	ids := util.NewULIDGenerator()

	// Initialize services
	quizService := service.NewQuizService(
		generator,
		resultRepository,
		txManager,
		sessionStore,
		pdf.NewReportRenderer(),
		ids,
		cfg.Quiz.MaxQuestions,
	)
	authService, err := service.NewAuthService(userRepository, sessionStore, cacheAdapter, ids, cfg.Auth)
	if err != nil {
		appLogger.Fatal("Failed to create AuthService", zap.Error(err))
	}

	// Initialize handlers
	validationMiddleware := middleware.NewValidationMiddleware(validation.NewValidator())
	handlers := handler.Handlers{
		Quiz:          handler.NewQuizHandler(quizService, validationMiddleware),
		Auth:          handler.NewAuthHandler(authService, validationMiddleware),
		Health:        handler.NewHealthHandler(db, cacheAdapter),
		Authenticator: authService,
		Validation:    validationMiddleware,
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  20 * time.Second,
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: middleware.ErrorHandler(),
	})

	app.Use(requestLogger())
	app.Use(middleware.RequestContext(cfg.Server.WriteTimeout))
	app.Use(cors.New(cors.Config{AllowOrigins: "*", AllowMethods: "GET,POST,DELETE,OPTIONS", AllowHeaders: "Origin,Content-Type,Accept,Authorization", MaxAge: 300}))
	app.Use(recover.New())

	app.Get("/swagger/*", swagger.HandlerDefault)
	handler.RegisterRoutes(app, handlers)

	// Start server
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
