package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
)

// CollectionsConfig names the three catalog collections.
type CollectionsConfig struct {
	Franchises string `env:"FRANCHISES_COLLECTION" envDefault:"franchises" json:"franchises"`
	Branches   string `env:"BRANCHES_COLLECTION" envDefault:"branches" json:"branches"`
	Products   string `env:"PRODUCTS_COLLECTION" envDefault:"products" json:"products"`
}

// RedisConfig configures the change-event trail. An empty Addr disables it.
type RedisConfig struct {
	Addr            string        `env:"REDIS_ADDR" json:"addr"`
	Password        string        `env:"REDIS_PASSWORD" json:"-"`
	DB              int           `env:"REDIS_DB" envDefault:"0" json:"db"`
	Stream          string        `env:"REDIS_CHANGE_STREAM" envDefault:"catalog:changes" json:"stream"`
	MaxLen          int64         `env:"REDIS_STREAM_MAX_LEN" envDefault:"10000" json:"maxLen"`
	PoolSize        int           `env:"REDIS_POOL_SIZE" envDefault:"10" json:"poolSize"`
	ConnMaxIdleTime time.Duration `env:"REDIS_CONN_MAX_IDLE_TIME" envDefault:"30m" json:"connMaxIdleTime"`
	PublishRetries  int           `env:"REDIS_PUBLISH_RETRIES" envDefault:"2" json:"publishRetries"`
	RetryDelay      time.Duration `env:"REDIS_PUBLISH_RETRY_DELAY" envDefault:"50ms" json:"retryDelay"`
}

// Enabled reports whether a Redis address is configured
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.Addr) != ""
}

// AuthConfig configures the bearer guard on mutating routes. An empty secret leaves them open.
type AuthConfig struct {
	JWTSecretKey   string        `env:"JWT_SECRET_KEY" json:"-"`
	JWTIssuer      string        `env:"JWT_ISSUER" envDefault:"franchise-catalog" json:"issuer"`
	AccessTokenTTL time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"15m" json:"accessTokenTtl"`
}

// Enabled reports whether mutating routes require a token
func (a AuthConfig) Enabled() bool {
	return a.JWTSecretKey != ""
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host            string        `env:"SERVER_HOST" envDefault:"0.0.0.0" json:"host"`
	Port            string        `env:"SERVER_PORT" envDefault:"3030" json:"port"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"10s" json:"readTimeout"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"10s" json:"writeTimeout"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s" json:"shutdownTimeout"`
	CORSOrigins     string        `env:"CORS_ORIGINS" envDefault:"*" json:"corsOrigins"`
}

// Address joins host and port for fiber's Listen
func (s ServerConfig) Address() string {
	return s.Host + ":" + s.Port
}

// CatalogConfig holds all configuration for the catalog module.
type CatalogConfig struct {
	MongoDBURI     string        `env:"MONGODB_URI" envDefault:"mongodb://localhost:27017" json:"-"`
	DatabaseName   string        `env:"MONGODB_DATABASE" envDefault:"franchise_catalog" json:"database"`
	ConnectTimeout time.Duration `env:"MONGODB_CONNECT_TIMEOUT" envDefault:"10s" json:"connectTimeout"`
	EnsureIndexes  bool          `env:"MONGODB_ENSURE_INDEXES" envDefault:"true" json:"ensureIndexes"`

	Collections CollectionsConfig `json:"collections"`
	Redis       RedisConfig       `json:"redis"`
	Auth        AuthConfig        `json:"auth"`
	Server      ServerConfig      `json:"server"`
}

// LoadConfig loads configuration from environment variables and applies defaults.
func LoadConfig() (*CatalogConfig, error) {
	cfg := &CatalogConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to load catalog configuration from environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the module cannot start with
func (c *CatalogConfig) Validate() error {
	if strings.TrimSpace(c.MongoDBURI) == "" {
		return errors.New("MONGODB_URI must not be empty")
	}
	if strings.TrimSpace(c.DatabaseName) == "" {
		return errors.New("MONGODB_DATABASE must not be empty")
	}

	names := []string{c.Collections.Franchises, c.Collections.Branches, c.Collections.Products}
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			return errors.New("collection names must not be empty")
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("collection name %q is used twice", name)
		}
		seen[name] = struct{}{}
	}

	if c.Redis.Enabled() && c.Redis.MaxLen <= 0 {
		return errors.New("REDIS_STREAM_MAX_LEN must be positive")
	}
	if c.Redis.PublishRetries < 0 {
		return errors.New("REDIS_PUBLISH_RETRIES must not be negative")
	}
	if c.Auth.Enabled() && len(c.Auth.JWTSecretKey) < 16 {
		return errors.New("JWT_SECRET_KEY must be at least 16 characters")
	}
	return nil
}

// DefaultCatalogConfig returns a CatalogConfig for local development.
func DefaultCatalogConfig() *CatalogConfig {
	return &CatalogConfig{
		MongoDBURI:     "mongodb://localhost:27017",
		DatabaseName:   "franchise_catalog",
		ConnectTimeout: 10 * time.Second,
		EnsureIndexes:  true,
		Collections: CollectionsConfig{
			Franchises: "franchises",
			Branches:   "branches",
			Products:   "products",
		},
		Redis: RedisConfig{
			Stream:          "catalog:changes",
			MaxLen:          10000,
			PoolSize:        10,
			ConnMaxIdleTime: 30 * time.Minute,
			PublishRetries:  2,
			RetryDelay:      50 * time.Millisecond,
		},
		Auth: AuthConfig{
			JWTIssuer:      "franchise-catalog",
			AccessTokenTTL: 15 * time.Minute,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "3030",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			CORSOrigins:     "*",
		},
	}
}
