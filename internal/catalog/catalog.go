package catalog

import (
	"context"
	"fmt"

	"franchise-catalog/internal/catalog/adapter/events"
	cataloghttp "franchise-catalog/internal/catalog/adapter/http"
	"franchise-catalog/internal/catalog/adapter/persistence/mongodb"
	"franchise-catalog/internal/catalog/adapter/security"
	"franchise-catalog/internal/catalog/config"
	"franchise-catalog/internal/catalog/domain/repository"
	"franchise-catalog/internal/catalog/usecase"
	"franchise-catalog/internal/shared/eventbus"
	"franchise-catalog/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// CatalogModule represents the complete franchise catalog module
type CatalogModule struct {
	repository repository.CatalogRepository
	bus        *eventbus.EventBus
	changes    *events.RedisChangeStore
	hub        *events.ChangeHub
	tokenSvc   *security.TokenService
	usecase    usecase.CatalogUsecaseInterface
	handler    *cataloghttp.CatalogHandler
	live       *cataloghttp.LiveChangesHandler
	config     *config.CatalogConfig
	logger     logger.Logger
}

// NewCatalogModule wires the catalog over db. redisClient may be nil, which leaves the
// change trail disabled.
func NewCatalogModule(ctx context.Context, db *mongo.Database, redisClient *redis.Client, cfg *config.CatalogConfig, log logger.Logger) (*CatalogModule, error) {
	if db == nil {
		return nil, fmt.Errorf("catalog module requires a database")
	}
	if cfg == nil {
		cfg = config.DefaultCatalogConfig()
	}
	if log == nil {
		log = logger.NewLogger()
	}
	log = log.WithComponent("catalog")

	franchiseCol := mongodb.NewMongoCollectionAdapter(db.Collection(cfg.Collections.Franchises))
	branchCol := mongodb.NewMongoCollectionAdapter(db.Collection(cfg.Collections.Branches))
	productCol := mongodb.NewMongoCollectionAdapter(db.Collection(cfg.Collections.Products))

	if cfg.EnsureIndexes {
		if err := mongodb.EnsureIndexes(ctx, franchiseCol, branchCol, productCol, log); err != nil {
			return nil, fmt.Errorf("failed to ensure catalog indexes: %w", err)
		}
	}

	names := mongodb.CollectionNames{
		Franchises: cfg.Collections.Franchises,
		Branches:   cfg.Collections.Branches,
		Products:   cfg.Collections.Products,
	}
	facade := mongodb.NewCatalogFacadeFromCollections(franchiseCol, branchCol, productCol, names, log)

	bus := eventbus.NewEventBus(log, eventbus.WithRetry(cfg.Redis.PublishRetries, cfg.Redis.RetryDelay))
	publisher := events.NewBusPublisher(bus, log)

	// The store stamps the stream id on the event, so it must run before the hub fans it out.
	var changes *events.RedisChangeStore
	var feed repository.ChangeFeed
	if redisClient != nil {
		changes = events.NewRedisChangeStore(redisClient, cfg.Redis.Stream, cfg.Redis.MaxLen, log)
		events.AttachStore(bus, changes, log)
		feed = changes
	} else {
		log.Info("Redis not configured, change trail disabled")
	}
	hub := events.NewChangeHub(bus, events.DefaultHubBuffer, log)

	var tokenSvc *security.TokenService
	if cfg.Auth.Enabled() {
		svc, err := security.NewTokenService(cfg.Auth)
		if err != nil {
			return nil, fmt.Errorf("failed to create token service: %w", err)
		}
		tokenSvc = svc
	}

	catalogUsecase := usecase.NewCatalogUsecase(facade, publisher, feed, log)
	handler := cataloghttp.NewCatalogHandler(catalogUsecase, log)

	return &CatalogModule{
		repository: facade,
		bus:        bus,
		changes:    changes,
		hub:        hub,
		tokenSvc:   tokenSvc,
		usecase:    catalogUsecase,
		handler:    handler,
		live:       cataloghttp.NewLiveChangesHandler(hub, log),
		config:     cfg,
		logger:     log,
	}, nil
}

// RegisterRoutes registers the catalog API under /api. Mutating routes are guarded when a
// JWT secret is configured.
func (cm *CatalogModule) RegisterRoutes(router fiber.Router) {
	var guard fiber.Handler
	if cm.tokenSvc != nil {
		guard = cataloghttp.BearerGuard(cm.TokenValidator())
	}
	api := router.Group("/api")
	cm.live.RegisterRoutes(api)
	cm.handler.RegisterRoutes(api, guard)
	cm.logger.Infof("Catalog routes registered (guarded=%t, change trail=%t)", guard != nil, cm.changes != nil)
}

// TokenValidator adapts the token service to the bearer guard
func (cm *CatalogModule) TokenValidator() cataloghttp.TokenValidator {
	return cataloghttp.TokenValidatorFunc(func(ctx context.Context, token string) (string, error) {
		claims, err := cm.tokenSvc.ValidateToken(ctx, token)
		if err != nil {
			return "", err
		}
		return claims.Subject, nil
	})
}

// GetUsecase returns the catalog usecase for external access
func (cm *CatalogModule) GetUsecase() usecase.CatalogUsecaseInterface {
	return cm.usecase
}

// GetTokenService returns nil when the bearer guard is disabled
func (cm *CatalogModule) GetTokenService() *security.TokenService {
	return cm.tokenSvc
}

// ChangeTrailEnabled reports whether mutations are recorded to Redis
func (cm *CatalogModule) ChangeTrailEnabled() bool {
	return cm.changes != nil
}

// Stop detaches the change trail and live subscribers from the event bus
func (cm *CatalogModule) Stop() error {
	cm.bus.Unsubscribe(eventbus.Wildcard)
	cm.hub.Close()
	return nil
}
