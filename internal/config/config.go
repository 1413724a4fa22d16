package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Storage drivers.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"

	DocumentsKV    = "kv"
	DocumentsMinIO = "minio"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"Tripwise"`
		Port int    `envconfig:"PORT" default:"8080"`
	}

	Server struct {
		Timeout     time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
		CORSOrigins []string      `envconfig:"CORS_ORIGINS" default:"http://localhost:3000"`
	}

	Store struct {
		Driver string `envconfig:"STORE_DRIVER" default:"memory"`
	}

	DB struct {
		Host        string        `envconfig:"DB_HOST" default:"localhost"`
		Port        int           `envconfig:"DB_PORT" default:"5432"`
		User        string        `envconfig:"DB_USER" default:"postgres"`
		Password    string        `envconfig:"DB_PASSWORD" default:""`
		Name        string        `envconfig:"DB_NAME" default:"tripwise"`
		MaxOpen     int           `envconfig:"DB_MAX_OPEN_CONNS" default:"10"`
		MaxIdle     int           `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
		MaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"30m"`
	}

	Redis struct {
		URL          string        `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
		Prefix       string        `envconfig:"REDIS_KEY_PREFIX" default:"tripwise:"`
		PoolSize     int           `envconfig:"REDIS_POOL_SIZE" default:"10"`
		MinIdleConns int           `envconfig:"REDIS_MIN_IDLE_CONNS" default:"2"`
		DialTimeout  time.Duration `envconfig:"REDIS_DIAL_TIMEOUT" default:"5s"`
	}

	Documents struct {
		Driver    string `envconfig:"DOCUMENTS_DRIVER" default:"kv"`
		Endpoint  string `envconfig:"MINIO_ENDPOINT" default:"localhost:9000"`
		AccessKey string `envconfig:"MINIO_ACCESS_KEY"`
		SecretKey string `envconfig:"MINIO_SECRET_KEY"`
		Bucket    string `envconfig:"MINIO_BUCKET" default:"tripwise-documents"`
		Region    string `envconfig:"MINIO_REGION" default:""`
		UseSSL    bool   `envconfig:"MINIO_USE_SSL" default:"false"`
	}

	Auth struct {
		Email      string        `envconfig:"DEMO_EMAIL" default:"demo@example.com"`
		Username   string        `envconfig:"DEMO_USERNAME" default:"demo"`
		Password   string        `envconfig:"DEMO_PASSWORD" default:"demo123"`
		SigningKey string        `envconfig:"JWT_SIGNING_KEY" default:"tripwise-dev-signing-key"`
		TokenTTL   time.Duration `envconfig:"JWT_TTL" default:"8h"`
	}

	Pricing struct {
		RatesFile string `envconfig:"RATES_FILE"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	switch cfg.Store.Driver {
	case StoreMemory, StorePostgres, StoreRedis:
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	switch cfg.Documents.Driver {
	case DocumentsKV, DocumentsMinIO:
	default:
		return nil, fmt.Errorf("unknown documents driver %q", cfg.Documents.Driver)
	}

	return &cfg, nil
}
