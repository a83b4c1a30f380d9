package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"reflect"
	"syscall"
	"time"

	cataloghttp "franchise-catalog/internal/catalog/adapter/http"
	"franchise-catalog/internal/catalog/adapter/security"
	"franchise-catalog/internal/catalog/config"
	"franchise-catalog/internal/di"
	"franchise-catalog/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger := logger.NewLogger()

	container := di.NewContainer(cfg, appLogger)
	defer func() {
		if err := container.Close(); err != nil {
			appLogger.Errorf("Failed to close container: %v", err)
		}
	}()

	if len(os.Args) > 1 && os.Args[1] == "token" {
		if err := issueToken(container, os.Args[2:]); err != nil {
			log.Fatalf("Failed to issue token: %v", err)
		}
		return
	}

	run(cfg, container, appLogger)
}

// issueToken prints a bearer token for the subject given on the command line
func issueToken(container *di.Container, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: catalog token <subject>")
	}
	if !container.Config.Auth.Enabled() {
		return fmt.Errorf("JWT_SECRET_KEY is not set")
	}

	err := container.RegisterFactory(reflect.TypeOf(security.TokenService{}), func() (interface{}, error) {
		return security.NewTokenService(container.Config.Auth)
	})
	if err != nil {
		return err
	}
	tokens, err := di.GetService[security.TokenService](container)
	if err != nil {
		return err
	}

	token, err := tokens.GenerateToken(context.Background(), args[0])
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

func run(cfg *config.CatalogConfig, container *di.Container, appLogger logger.Logger) {
	appLogger.Info("Starting franchise catalog")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoDBURI))
	if err != nil {
		appLogger.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			appLogger.Errorf("Failed to disconnect MongoDB: %v", err)
		}
	}()

	if err := mongoClient.Ping(ctx, nil); err != nil {
		appLogger.Fatalf("Failed to ping MongoDB: %v", err)
	}
	appLogger.Infof("MongoDB connection established (database=%s)", cfg.DatabaseName)

	if err := container.InitializeRedis(ctx); err != nil {
		appLogger.Fatalf("Failed to initialize change trail: %v", err)
	}

	if err := container.InitializeCatalog(ctx, mongoClient.Database(cfg.DatabaseName)); err != nil {
		appLogger.Fatalf("Failed to initialize catalog module: %v", err)
	}
	appLogger.Info("Catalog module initialized successfully")

	app := fiber.New(fiber.Config{
		AppName:      "Franchise Catalog API",
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
		ErrorHandler: cataloghttp.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(cataloghttp.CORS(cfg.Server.CORSOrigins))
	app.Use(cataloghttp.SecurityHeaders())
	app.Use(cataloghttp.RequestID())
	app.Use(cataloghttp.RequestContext())
	app.Use(cataloghttp.Metrics())

	app.Get("/health", func(c *fiber.Ctx) error {
		healthCtx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
		defer cancel()

		services := fiber.Map{}
		healthy := true
		for name, err := range container.HealthCheck(healthCtx) {
			if err != nil {
				healthy = false
				services[name] = err.Error()
				continue
			}
			services[name] = "ok"
		}

		if !healthy {
			appLogger.Warnf("Health check failed: %v", services)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status":   "UNHEALTHY",
				"services": services,
			})
		}
		return c.JSON(fiber.Map{
			"status":    "HEALTHY",
			"timestamp": time.Now().UTC(),
			"services":  services,
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	container.GetCatalogModule().RegisterRoutes(app)

	serverAddr := cfg.Server.Address()
	appLogger.Infof("Starting HTTP server on %s", serverAddr)

	serverShutdown := make(chan error, 1)
	go func() {
		serverShutdown <- app.Listen(serverAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverShutdown:
		if err != nil {
			appLogger.Errorf("Server failed: %v", err)
		}
	case sig := <-quit:
		appLogger.Infof("Received shutdown signal: %v", sig)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			appLogger.Errorf("Server forced to shutdown: %v", err)
		}
		appLogger.Info("HTTP server stopped")
	}
}
