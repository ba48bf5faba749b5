// @title Annoforge API
// @version 1.0
// @description Human-in-the-loop annotation workflow for synthetic sensitive-data articles.
// @host localhost:8090
// @BasePath /api
// @schemes http
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"annoforge/internal/adapter"
	"annoforge/internal/cache"
	"annoforge/internal/config"
	"annoforge/internal/domain"
	"annoforge/internal/handler"
	"annoforge/internal/logger"
	"annoforge/internal/middleware"
	"annoforge/internal/repository"
	"annoforge/internal/service"
	"annoforge/internal/validation"

	_ "annoforge/cmd/api/docs"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// requestLogger is a middleware that logs HTTP requests
func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		path := c.Path()
		method := c.Method()

		err := c.Next()

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
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		panic(err)
	}
	appLogger := logger.Get()
	defer logger.Sync()

	// Session store backend: in-memory by default, Redis when configured.
	var sessionCache domain.Cache
	switch cfg.Session.Store {
	case config.SessionStoreRedis:
		appLogger.Info("Initializing Redis session store", zap.String("address", cfg.Redis.Address))
		redisClient, err := cache.NewRedisClient(cfg.Redis)
		if err != nil {
			appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		sessionCache = adapter.NewRedisCacheAdapter(redisClient)
	case config.SessionStoreMemory:
		sessionCache = cache.NewMemoryCache()
	default:
		appLogger.Fatal("Unsupported session store", zap.String("store", cfg.Session.Store))
	}

	if err := os.MkdirAll(cfg.Data.Dir, 0o755); err != nil {
		appLogger.Fatal("Failed to create data directory", zap.Error(err), zap.String("dir", cfg.Data.Dir))
	}
	recordRepository := repository.NewFileRecordRepository(cfg.Data.Dir)
	appLogger.Info("Record repository initialized", zap.String("dir", cfg.Data.Dir))

	validator := validation.NewValidator()
	sessionStore := service.NewSessionStore(sessionCache, cfg.Session.TTL)
	annotationService := service.NewAnnotationService(sessionStore, recordRepository, validator, cfg)
	annotationHandler := handler.NewAnnotationHandler(annotationService, validator)

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		BodyLimit:    10 * 1024 * 1024,
		ErrorHandler: middleware.ErrorHandler(),
	})

	app.Use(requestLogger())
	app.Use(cors.New(cors.Config{AllowOrigins: "*", AllowMethods: "GET,POST,PUT,DELETE,OPTIONS", AllowHeaders: "Origin,Content-Type,Accept", MaxAge: 300}))
	app.Use(recover.New())

	app.Get("/swagger/*", swagger.HandlerDefault)

	apiGroup := app.Group("/api")
	annotationHandler.RegisterRoutes(apiGroup)

	go func() {
		appLogger.Info("Starting server", zap.Int("port", cfg.Server.Port), zap.String("env", cfg.Logger.Env))
		if err := app.Listen(":" + strconv.Itoa(cfg.Server.Port)); err != nil {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		appLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	appLogger.Info("Server exited gracefully")
}
