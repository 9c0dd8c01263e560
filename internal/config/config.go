package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Backend kinds
const (
	BackendREST = "rest"
	BackendBaaS = "baas"
)

// Storage drivers
const (
	StorageFile   = "file"
	StorageMemory = "memory"
	StorageMySQL  = "mysql"
	StorageRedis  = "redis"
)

// Config holds all configuration for the application
type Config struct {
	AppMode        string
	Port           string
	LogLevel       string
	AllowedOrigins string
	Backend        BackendConfig
	Storage        StorageConfig
	Database       DatabaseConfig
	Redis          RedisConfig
	Keepalive      KeepaliveConfig
}

// BackendConfig selects and addresses the remote backend
type BackendConfig struct {
	Kind       string
	RESTURL    string
	BaaSURL    string
	ProjectID  string
	DatabaseID string
	Timeout    time.Duration
}

// StorageConfig configures on-device persistence
type StorageConfig struct {
	Driver    string
	Dir       string
	Secret    string
	Namespace string
}

// DatabaseConfig holds database configuration for the mysql driver
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// RedisConfig holds configuration for the redis driver
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// KeepaliveConfig controls proactive token refresh
type KeepaliveConfig struct {
	Schedule     string
	RefreshAhead time.Duration
}

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// A missing .env is fine; the environment may carry everything.
	_ = godotenv.Load()

	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	backend, err := loadBackendConfig()
	if err != nil {
		return nil, err
	}
	storage, err := loadStorageConfig()
	if err != nil {
		return nil, err
	}
	keepalive, err := loadKeepaliveConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		AppMode:        appMode,
		Port:           getEnv("PORT", "8787"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:8081,http://localhost:19006"),
		Backend:        backend,
		Storage:        storage,
		Database:       loadDatabaseConfig(appMode),
		Redis:          loadRedisConfig(),
		Keepalive:      keepalive,
	}, nil
}

func loadBackendConfig() (BackendConfig, error) {
	kind := strings.ToLower(strings.TrimSpace(getEnv("BACKEND", BackendREST)))
	if kind != BackendREST && kind != BackendBaaS {
		return BackendConfig{}, fmt.Errorf("invalid BACKEND: '%s' (must be '%s' or '%s')", kind, BackendREST, BackendBaaS)
	}

	timeout, err := time.ParseDuration(getEnv("BACKEND_TIMEOUT", "30s"))
	if err != nil {
		return BackendConfig{}, fmt.Errorf("invalid BACKEND_TIMEOUT: %w", err)
	}

	cfg := BackendConfig{
		Kind:       kind,
		RESTURL:    strings.TrimRight(getEnv("REST_API_URL", "http://localhost:8000"), "/"),
		BaaSURL:    strings.TrimRight(getEnv("BAAS_ENDPOINT", "https://cloud.appwrite.io/v1"), "/"),
		ProjectID:  getEnv("BAAS_PROJECT_ID", ""),
		DatabaseID: getEnv("BAAS_DATABASE_ID", ""),
		Timeout:    timeout,
	}
	if kind == BackendBaaS && (cfg.ProjectID == "" || cfg.DatabaseID == "") {
		return BackendConfig{}, fmt.Errorf("BAAS_PROJECT_ID and BAAS_DATABASE_ID are required when BACKEND=%s", BackendBaaS)
	}
	return cfg, nil
}

func loadStorageConfig() (StorageConfig, error) {
	driver := strings.ToLower(strings.TrimSpace(getEnv("STORAGE_DRIVER", StorageFile)))
	switch driver {
	case StorageFile, StorageMemory, StorageMySQL, StorageRedis:
	default:
		return StorageConfig{}, fmt.Errorf("invalid STORAGE_DRIVER: '%s'", driver)
	}

	return StorageConfig{
		Driver:    driver,
		Dir:       getEnv("STORAGE_DIR", defaultStorageDir()),
		Secret:    getEnv("STORAGE_KEY", ""),
		Namespace: getEnv("STORAGE_NAMESPACE", "healthmate"),
	}, nil
}

// loadDatabaseConfig loads database config based on mode
func loadDatabaseConfig(mode string) DatabaseConfig {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	return DatabaseConfig{
		Host:     getEnv(prefix+"DB_HOST", "localhost"),
		Port:     getEnv(prefix+"DB_PORT", "3306"),
		User:     getEnv(prefix+"DB_USER", "root"),
		Password: getEnv(prefix+"DB_PASS", ""),
		DBName:   getEnv(prefix+"DB_NAME", "healthmate"),
	}
}

func loadRedisConfig() RedisConfig {
	db, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	return RedisConfig{
		Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       db,
	}
}

func loadKeepaliveConfig() (KeepaliveConfig, error) {
	ahead, err := time.ParseDuration(getEnv("REFRESH_AHEAD", "2m"))
	if err != nil {
		return KeepaliveConfig{}, fmt.Errorf("invalid REFRESH_AHEAD: %w", err)
	}
	return KeepaliveConfig{
		Schedule:     getEnv("KEEPALIVE_SCHEDULE", "@every 1m"),
		RefreshAhead: ahead,
	}, nil
}

func defaultStorageDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir + string(os.PathSeparator) + "healthmate"
	}
	return ".healthmate"
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// GetAllowedOrigins returns the CORS origins for production mode
func (c *Config) GetAllowedOrigins() string {
	parts := strings.Split(c.AllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return strings.Join(origins, ",")
}
