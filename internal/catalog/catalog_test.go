package catalog

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"franchise-catalog/internal/catalog/adapter/events"
	cataloghttp "franchise-catalog/internal/catalog/adapter/http"
	"franchise-catalog/internal/catalog/config"
	"franchise-catalog/internal/catalog/domain/model"
	"franchise-catalog/internal/shared/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap/zaptest"
)

// unreachableDatabase returns a handle whose client never dials until an operation runs.
func unreachableDatabase(t *testing.T) *mongo.Database {
	t.Helper()
	opts := options.Client().
		ApplyURI("mongodb://127.0.0.1:1").
		SetServerSelectionTimeout(200 * time.Millisecond)
	client, err := mongo.Connect(context.Background(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })
	return client.Database("catalog_test")
}

func testConfig() *config.CatalogConfig {
	cfg := config.DefaultCatalogConfig()
	cfg.EnsureIndexes = false
	return cfg
}

func newModuleApp(t *testing.T, module *CatalogModule) *fiber.App {
	t.Helper()
	app := fiber.New(fiber.Config{ErrorHandler: cataloghttp.ErrorHandler})
	app.Use(cataloghttp.RequestID(), cataloghttp.RequestContext())
	module.RegisterRoutes(app)
	return app
}

func call(t *testing.T, app *fiber.App, method, path string, headers ...string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]interface{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &body))
	}
	return resp.StatusCode, body
}

func TestNewCatalogModule_RequiresDatabase(t *testing.T) {
	_, err := NewCatalogModule(context.Background(), nil, nil, testConfig(), nil)
	assert.Error(t, err)
}

func TestNewCatalogModule_RejectsUnusableAuthConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.JWTSecretKey = "0123456789abcdef"
	cfg.Auth.JWTIssuer = ""

	_, err := NewCatalogModule(context.Background(), unreachableDatabase(t), nil, cfg, logger.NewZapLoggerFrom(zaptest.NewLogger(t)))
	assert.Error(t, err)
}

func TestCatalogModule_ChangesDisabledWithoutRedis(t *testing.T) {
	module, err := NewCatalogModule(context.Background(), unreachableDatabase(t), nil, testConfig(), logger.NewZapLoggerFrom(zaptest.NewLogger(t)))
	require.NoError(t, err)
	assert.False(t, module.ChangeTrailEnabled())
	assert.Nil(t, module.GetTokenService())

	status, body := call(t, newModuleApp(t, module), fiber.MethodGet, "/api/changes")
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	assert.Equal(t, "CHANGE_FEED_DISABLED", body["code"])
}

func TestCatalogModule_BusEventsReachTheChangeTrail(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	module, err := NewCatalogModule(context.Background(), unreachableDatabase(t), client, testConfig(), logger.NewZapLoggerFrom(zaptest.NewLogger(t)))
	require.NoError(t, err)
	require.True(t, module.ChangeTrailEnabled())

	event := &model.ChangeEvent{
		Entity:     model.EntityFranchise,
		Action:     model.ActionCreated,
		EntityID:   "f-1",
		OccurredAt: time.Now().UTC(),
	}
	require.NoError(t, module.bus.Publish(context.Background(), events.NewChangeMessage(event)))

	status, body := call(t, newModuleApp(t, module), fiber.MethodGet, "/api/changes")
	require.Equal(t, fiber.StatusOK, status)
	data, ok := body["data"].([]interface{})
	require.True(t, ok)
	require.Len(t, data, 1)
	first := data[0].(map[string]interface{})
	assert.Equal(t, "f-1", first["entityId"])
	assert.Equal(t, event.ID, first["id"])

	require.NoError(t, module.Stop())
	require.NoError(t, module.bus.Publish(context.Background(), events.NewChangeMessage(event)))
	length, err := client.XLen(context.Background(), module.config.Redis.Stream).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), length)
}

func TestCatalogModule_GuardsMutatingRoutes(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.JWTSecretKey = "0123456789abcdef"

	module, err := NewCatalogModule(context.Background(), unreachableDatabase(t), nil, cfg, logger.NewZapLoggerFrom(zaptest.NewLogger(t)))
	require.NoError(t, err)
	require.NotNil(t, module.GetTokenService())
	app := newModuleApp(t, module)

	status, body := call(t, app, fiber.MethodPost, "/api/franchises")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "MISSING_TOKEN", body["code"])

	status, body = call(t, app, fiber.MethodDelete, "/api/branches/b-1", "Authorization", "Bearer nope")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "INVALID_TOKEN", body["code"])
}

func TestCatalogModule_TokenValidatorReturnsSubject(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.JWTSecretKey = "0123456789abcdef"
	module, err := NewCatalogModule(context.Background(), unreachableDatabase(t), nil, cfg, logger.NewZapLoggerFrom(zaptest.NewLogger(t)))
	require.NoError(t, err)

	token, err := module.GetTokenService().GenerateToken(context.Background(), "ops")
	require.NoError(t, err)

	subject, err := module.TokenValidator().Subject(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "ops", subject)

	_, err = module.TokenValidator().Subject(context.Background(), token+"x")
	assert.Error(t, err)
}

func TestCatalogModule_LiveSubscribersSeeTheStreamID(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	log := logger.NewZapLoggerFrom(zaptest.NewLogger(t))
	module, err := NewCatalogModule(context.Background(), unreachableDatabase(t), client, testConfig(), log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = module.Stop() })

	live, cancel := module.hub.Subscribe("viewer")
	defer cancel()

	event := &model.ChangeEvent{Entity: model.EntityProduct, Action: model.ActionUpdated, EntityID: "p-1"}
	require.NoError(t, events.NewBusPublisher(module.bus, log).Publish(context.Background(), event))

	entries, err := client.XRange(context.Background(), module.config.Redis.Stream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)

	select {
	case got := <-live:
		assert.Equal(t, entries[0].ID, got.ID)
		assert.Equal(t, "p-1", got.EntityID)
		assert.NotSame(t, event, got)
	case <-time.After(2 * time.Second):
		t.Fatal("live subscriber received nothing")
	}
}
