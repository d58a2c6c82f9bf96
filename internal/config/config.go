package config

import (
	"fmt"
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the application's configuration values.
// Tags like `envconfig:"APP_PORT"` specify the environment variable name.
// `default:""` provides a default value if the env var is not set.
// `required:"true"` makes an environment variable mandatory.
type Config struct {
	AppEnv     string `envconfig:"APP_ENV" default:"development"`
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`
	HttpServer ServerConfig
	Catalog    CatalogConfig
	Security   SecurityConfig
	Storefront StorefrontConfig
}

// ServerConfig holds HTTP server-specific configurations.
type ServerConfig struct {
	Port         string        `envconfig:"HTTP_SERVER_PORT" default:"8080"`
	TimeoutRead  time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_READ" default:"15s"`
	TimeoutWrite time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_WRITE" default:"15s"`
	TimeoutIdle  time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_IDLE" default:"60s"`
}

// CatalogConfig holds connection details for the external product catalog
// database. The catalog is read-only from this service.
type CatalogConfig struct {
	Host     string `envconfig:"CATALOG_DB_HOST" required:"true"`
	Port     string `envconfig:"CATALOG_DB_PORT" default:"5432"`
	User     string `envconfig:"CATALOG_DB_USER" required:"true"`
	Password string `envconfig:"CATALOG_DB_PASSWORD" required:"true"`
	DBName   string `envconfig:"CATALOG_DB_NAME" required:"true"`
}

// SecurityConfig holds the anti-forgery token settings for the partial
// refresh endpoints.
type SecurityConfig struct {
	TokenSecret string        `envconfig:"REFRESH_TOKEN_SECRET" required:"true"`
	TokenTTL    time.Duration `envconfig:"REFRESH_TOKEN_TTL" default:"12h"`
}

// StorefrontConfig holds presentation defaults shared by all rendered blocks.
type StorefrontConfig struct {
	PlaceholderImageURL string `envconfig:"PLACEHOLDER_IMAGE_URL" default:"/assets/img/product-placeholder.png"`
	CartURL             string `envconfig:"CART_URL" default:"/cart"`
	CurrencySymbol      string `envconfig:"CURRENCY_SYMBOL" default:"$"`
}

// DSN constructs the Data Source Name string for connecting to the catalog
// database.
func (cc *CatalogConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cc.Host, cc.Port, cc.User, cc.Password, cc.DBName)
}

var cfg Config

// Load initializes the configuration from environment variables.
// It should be called once during application startup.
func Load() (*Config, error) {
	log.Println("Loading service configuration...")
	err := envconfig.Process("", &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration: %w", err)
	}

	log.Printf("Configuration loaded successfully for APP_ENV: %s", cfg.AppEnv)
	return &cfg, nil
}

// Get returns the loaded configuration.
// Panics if Load() has not been called successfully.
func Get() *Config {
	if cfg.Catalog.Host == "" { // Simple check to see if cfg is populated
		log.Fatal("Configuration has not been loaded. Call config.Load() first.")
	}
	return &cfg
}
