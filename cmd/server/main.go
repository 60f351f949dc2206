package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/opencourt/publication-svc/internal/clients"
	"github.com/opencourt/publication-svc/internal/config"
	"github.com/opencourt/publication-svc/internal/consumer"
	"github.com/opencourt/publication-svc/internal/distribution"
	"github.com/opencourt/publication-svc/internal/handlers"
	"github.com/opencourt/publication-svc/internal/logger"
	"github.com/opencourt/publication-svc/internal/rabbitmq"
	"github.com/opencourt/publication-svc/internal/ratelimit"
	"github.com/opencourt/publication-svc/internal/routes"
	"github.com/opencourt/publication-svc/internal/secrets"
	"github.com/opencourt/publication-svc/internal/service"
	"github.com/opencourt/publication-svc/internal/tokencache"

	oauthissuer "github.com/opencourt/publication-svc/internal/oauth"
)

func main() {
	// Initialize logger
	if err := logger.Init(os.Getenv("LOG_LEVEL")); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// Connect to Redis (rate limiter backend)
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Error("Error closing Redis client", zap.Error(err))
		}
	}()

	// Connect to RabbitMQ
	rmq := rabbitmq.NewConnection(&cfg.RabbitMQ, logger.Logger)
	if err := rmq.Connect(); err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer rmq.Close()

	// Build the distribution engine
	tokens := tokencache.New(cfg.OAuth.TokenBuffer())
	issuer := oauthissuer.NewIssuer(
		secrets.NewEnvResolver(),
		cfg.OAuth.TokenBuffer(),
		cfg.Upstream.Timeout(),
		logger.Logger,
	)
	limiter := ratelimit.NewLimiter(rdb, cfg.Redis.RateLimit, cfg.Redis.RateWindow(), logger.Logger)
	deliveryClient := distribution.NewClient(&cfg.Delivery, logger.Logger)

	coordinator := distribution.NewCoordinator(
		deliveryClient,
		tokens,
		issuer,
		clients.NewDataManagementClient(&cfg.Upstream),
		clients.NewChannelManagementClient(&cfg.Upstream),
		limiter,
		logger.Logger,
	)

	svc := service.NewService(logger.Logger, rdb, rmq, coordinator)

	// Start the queue listener
	listener := consumer.NewListener(&cfg.RabbitMQ, rmq, svc.Coordinator, logger.Logger)
	if err := listener.Start(); err != nil {
		logger.Fatal("Failed to start listener", zap.Error(err))
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Publication Distribution Service",
		ServerHeader: "Fiber",
	})

	// Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Setup routes
	healthHandler := handlers.NewHealthHandler(svc.Redis, svc.RMQ)
	distributeHandler := handlers.NewDistributeHandler(svc.Coordinator, svc.Logger)
	routes.SetupRoutes(app, healthHandler, distributeHandler)

	// Start server in a goroutine
	go func() {
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		logger.Info("Server starting",
			zap.String("address", addr),
		)
		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	if err := app.Shutdown(); err != nil {
		logger.Error("Error during server shutdown", zap.Error(err))
	}

	if err := listener.Stop(); err != nil {
		logger.Error("Error stopping listener", zap.Error(err))
	}

	logger.Info("Server stopped")
}
