package di

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"franchise-catalog/internal/catalog"
	"franchise-catalog/internal/catalog/adapter/events"
	"franchise-catalog/internal/catalog/config"
	"franchise-catalog/internal/shared/logger"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// Container represents a dependency injection container with proper lifecycle management
type Container struct {
	mu        sync.RWMutex
	services  map[reflect.Type]interface{}
	factories map[reflect.Type]func() (interface{}, error)
	// Module instances
	CatalogModule *catalog.CatalogModule
	// Connections
	MongoDB *mongo.Database
	Redis   *redis.Client
	// Configuration
	Config *config.CatalogConfig
	// Logger
	Logger logger.Logger
}

// NewContainer creates a new DI container
func NewContainer(cfg *config.CatalogConfig, log logger.Logger) *Container {
	if log == nil {
		log = logger.NewLogger()
	}
	return &Container{
		services:  make(map[reflect.Type]interface{}),
		factories: make(map[reflect.Type]func() (interface{}, error)),
		Config:    cfg,
		Logger:    log,
	}
}

// InitializeRedis connects the change-trail client. It is a no-op when no address is configured.
func (c *Container) InitializeRedis(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Config == nil || !c.Config.Redis.Enabled() {
		return nil
	}

	client := events.NewRedisClient(c.Config.Redis)
	if err := events.PingRedis(ctx, client, 5*time.Second); err != nil {
		_ = client.Close()
		return fmt.Errorf("failed to connect to Redis at %s: %w", c.Config.Redis.Addr, err)
	}
	c.Redis = client
	return nil
}

// InitializeCatalog builds the catalog module over the given database
func (c *Container) InitializeCatalog(ctx context.Context, mongoDB *mongo.Database) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if mongoDB == nil {
		return fmt.Errorf("MongoDB must be initialized before the catalog module")
	}
	c.MongoDB = mongoDB

	module, err := catalog.NewCatalogModule(ctx, mongoDB, c.Redis, c.Config, c.Logger)
	if err != nil {
		return fmt.Errorf("failed to create catalog module: %w", err)
	}
	c.CatalogModule = module
	return nil
}

// Register registers a service instance
func (c *Container) Register(service interface{}) error {
	if service == nil {
		return fmt.Errorf("cannot register a nil service")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	serviceType := reflect.TypeOf(service)
	if serviceType.Kind() == reflect.Ptr {
		serviceType = serviceType.Elem()
	}

	c.services[serviceType] = service
	return nil
}

// RegisterFactory registers a factory function for a service
func (c *Container) RegisterFactory(serviceType reflect.Type, factory func() (interface{}, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.factories[serviceType] = factory
	return nil
}

// Resolve resolves a service by type. Factory results are cached.
func (c *Container) Resolve(serviceType reflect.Type) (interface{}, error) {
	c.mu.RLock()
	if service, exists := c.services[serviceType]; exists {
		c.mu.RUnlock()
		return service, nil
	}
	factory, exists := c.factories[serviceType]
	c.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("service of type %v not registered", serviceType)
	}

	service, err := factory()
	if err != nil {
		return nil, fmt.Errorf("failed to create service: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.services[serviceType]; ok {
		return existing, nil
	}
	c.services[serviceType] = service
	return service, nil
}

// GetService is a generic helper for resolving services registered by pointer
func GetService[T any](c *Container) (*T, error) {
	serviceType := reflect.TypeOf((*T)(nil)).Elem()

	service, err := c.Resolve(serviceType)
	if err != nil {
		return nil, err
	}

	if typedService, ok := service.(*T); ok {
		return typedService, nil
	}

	return nil, fmt.Errorf("service is not of expected type %v", serviceType)
}

// GetCatalogModule returns the catalog module instance
func (c *Container) GetCatalogModule() *catalog.CatalogModule {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.CatalogModule
}

// HealthCheck pings MongoDB and, when configured, Redis
func (c *Container) HealthCheck(ctx context.Context) map[string]error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status := make(map[string]error)
	if c.MongoDB != nil {
		if err := c.MongoDB.Client().Ping(ctx, nil); err != nil {
			status["mongodb"] = fmt.Errorf("MongoDB health check failed: %w", err)
		} else {
			status["mongodb"] = nil
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Ping(ctx).Err(); err != nil {
			status["redis"] = fmt.Errorf("Redis health check failed: %w", err)
		} else {
			status["redis"] = nil
		}
	}
	return status
}

// Cleanup performs cleanup of registered services with proper shutdown order
func (c *Container) Cleanup(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error

	if c.CatalogModule != nil {
		if err := c.CatalogModule.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop catalog module: %w", err))
		}
		c.CatalogModule = nil
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
		c.Redis = nil
	}

	for _, service := range c.services {
		if cleaner, ok := service.(interface{ Cleanup(context.Context) error }); ok {
			if err := cleaner.Cleanup(ctx); err != nil {
				errs = append(errs, fmt.Errorf("failed to cleanup service: %w", err))
			}
		}
	}

	c.services = make(map[reflect.Type]interface{})
	c.factories = make(map[reflect.Type]func() (interface{}, error))

	if len(errs) > 0 {
		return fmt.Errorf("cleanup errors: %v", errs)
	}
	return nil
}

// Close gracefully shuts down all services in the container with timeout
func (c *Container) Close() error {
	c.Logger.Info("Closing DI container resources")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.Cleanup(ctx); err != nil {
		c.Logger.Warnf("Cleanup errors occurred: %v", err)
		return err
	}

	c.Logger.Info("DI container resources closed")
	return nil
}
