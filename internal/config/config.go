package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

type Config struct {
	Env            string        `validate:"required"`
	StorageBackend string        `validate:"oneof=file memory redis postgres"`
	StorageScope   string        `validate:"required"`
	StorageDir     string        `validate:"required_if=StorageBackend file"`
	RedisURL       string        `validate:"required_if=StorageBackend redis"`
	PostgresURL    string        `validate:"required_if=StorageBackend postgres"`
	APIBaseURL     string        `validate:"required,url"`
	OrderTimeout   time.Duration `validate:"gt=0"`
	Currency       string        `validate:"len=3"`
}

// Load reads an optional .env file, then the environment.
// Real environment variables win over .env entries.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("godotenv.Load: %w", err)
	}

	timeout, err := time.ParseDuration(getEnv("ORDER_TIMEOUT", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("ORDER_TIMEOUT is not a duration: %w", err)
	}

	cfg := Config{
		Env:            getEnv("APP_ENV", "development"),
		StorageBackend: strings.ToLower(getEnv("STORAGE_BACKEND", BackendFile)),
		StorageScope:   getEnv("STORAGE_SCOPE", "default"),
		StorageDir:     getEnv("STORAGE_DIR", defaultStorageDir()),
		RedisURL:       getEnv("REDIS_URL", ""),
		PostgresURL:    getEnv("POSTGRES_URL", ""),
		APIBaseURL:     getEnv("API_BASE_URL", "http://localhost:3000/api"),
		OrderTimeout:   timeout,
		Currency:       strings.ToUpper(getEnv("CART_CURRENCY", "USD")),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func defaultStorageDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".shopcart"
	}
	return filepath.Join(dir, "shopcart")
}
