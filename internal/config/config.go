package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	MealDB    MealDBConfig    `json:"mealdb"`
	Store     StoreConfig     `json:"store"`
	Favorites FavoritesConfig `json:"favorites"`
	Resolver  ResolverConfig  `json:"resolver"`
	Log       LogConfig       `json:"log"`
	Telemetry TelemetryConfig `json:"telemetry"`
	Mocks     MockConfig      `json:"mocks"`
	Server    ServerConfig    `json:"server"`
}

type MealDBConfig struct {
	BaseURL string        `json:"base_url"`
	Timeout time.Duration `json:"timeout"`
	Retries int           `json:"retries"`
	// HTTPClient overrides the transport, tests point it at httptest servers.
	HTTPClient *http.Client `json:"-"`
}

type StoreConfig struct {
	Backend    string `json:"backend"` // file, memory, sqlite, azure or s3
	Dir        string `json:"dir"`
	SQLitePath string `json:"sqlite_path"`

	AzureAccountName string `json:"azure_account_name"`
	AzureAccountKey  string `json:"-"`
	AzureContainer   string `json:"azure_container"`

	S3Bucket string `json:"s3_bucket"`
	S3Prefix string `json:"s3_prefix"`
	S3Region string `json:"s3_region"`
}

type FavoritesConfig struct {
	Key string `json:"key"`
}

type ResolverConfig struct {
	MaxInFlight int `json:"max_in_flight"`
}

type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"` // text or json

	SinkAccountName string `json:"sink_account_name"`
	SinkAccountKey  string `json:"-"`
	SinkContainer   string `json:"sink_container"`
}

func (l LogConfig) SinkEnabled() bool {
	return l.SinkAccountName != "" && l.SinkAccountKey != ""
}

type TelemetryConfig struct {
	OTLPEndpoint string `json:"otlp_endpoint"`
	ServiceName  string `json:"service_name"`
}

// ServerConfig tells operator tools where the running server listens.
type ServerConfig struct {
	URL string `json:"url"`
}

type MockConfig struct {
	Enable bool `json:"enable"`
}

const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendAzure  = "azure"
	BackendS3     = "s3"
)

// DefaultFavoritesKey matches the storage entry name the browser build used.
const DefaultFavoritesKey = "favorite-recipes-storage"

// Load reads configuration from the environment, after merging an optional .env file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	timeout, err := getEnvDuration("MEALDB_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	retries, err := getEnvInt("MEALDB_RETRIES", 2)
	if err != nil {
		return nil, err
	}
	maxInFlight, err := getEnvInt("RESOLVER_MAX_IN_FLIGHT", 0)
	if err != nil {
		return nil, err
	}
	mocks, err := getEnvBool("MOCKS_ENABLE", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		MealDB: MealDBConfig{
			BaseURL: getEnvOrDefault("MEALDB_BASE_URL", "https://www.themealdb.com/api/json/v1/1"),
			Timeout: timeout,
			Retries: retries,
		},
		Store: StoreConfig{
			Backend:          strings.ToLower(getEnvOrDefault("STORE_BACKEND", BackendFile)),
			Dir:              getEnvOrDefault("STORE_DIR", "data"),
			SQLitePath:       getEnvOrDefault("STORE_SQLITE_PATH", "data/recipefinder.db"),
			AzureAccountName: os.Getenv("AZURE_STORAGE_ACCOUNT_NAME"),
			AzureAccountKey:  os.Getenv("AZURE_STORAGE_PRIMARY_ACCOUNT_KEY"),
			AzureContainer:   getEnvOrDefault("AZURE_STORAGE_CONTAINER", "recipefinder"),
			S3Bucket:         os.Getenv("STORE_S3_BUCKET"),
			S3Prefix:         getEnvOrDefault("STORE_S3_PREFIX", "recipefinder/"),
			S3Region:         os.Getenv("AWS_REGION"),
		},
		Favorites: FavoritesConfig{
			Key: getEnvOrDefault("FAVORITES_KEY", DefaultFavoritesKey),
		},
		Resolver: ResolverConfig{
			MaxInFlight: maxInFlight,
		},
		Log: LogConfig{
			Level:           getEnvOrDefault("LOG_LEVEL", "info"),
			Format:          strings.ToLower(getEnvOrDefault("LOG_FORMAT", "text")),
			SinkAccountName: os.Getenv("LOGSINK_ACCOUNT_NAME"),
			SinkAccountKey:  os.Getenv("LOGSINK_ACCOUNT_KEY"),
			SinkContainer:   getEnvOrDefault("LOGSINK_CONTAINER", "logs"),
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
			ServiceName:  getEnvOrDefault("OTEL_SERVICE_NAME", "recipefinder"),
		},
		Mocks: MockConfig{
			Enable: mocks,
		},
		Server: ServerConfig{
			URL: getEnvOrDefault("RECIPEFINDER_URL", "http://localhost:8080"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendFile, BackendMemory, BackendSQLite:
	case BackendAzure:
		if c.Store.AzureAccountName == "" || c.Store.AzureAccountKey == "" {
			return errors.New("azure store requires AZURE_STORAGE_ACCOUNT_NAME and AZURE_STORAGE_PRIMARY_ACCOUNT_KEY")
		}
	case BackendS3:
		if c.Store.S3Bucket == "" {
			return errors.New("s3 store requires STORE_S3_BUCKET")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.Store.Backend)
	}
	if c.Favorites.Key == "" {
		return errors.New("FAVORITES_KEY must not be empty")
	}
	if c.Resolver.MaxInFlight < 0 {
		return fmt.Errorf("RESOLVER_MAX_IN_FLIGHT must be >= 0, got %d", c.Resolver.MaxInFlight)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return d, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return b, nil
}
