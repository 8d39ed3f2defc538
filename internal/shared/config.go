package shared

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	DriverMongo  = "mongodb"
	DriverMySQL  = "mysql"
	DriverMemory = "memory"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"prod"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":5000"`
	MetricsAddr string `env:"METRICS_ADDR"`
	BasePath    string `env:"API_BASE_PATH"`

	StoreDriver  string        `env:"STORE_DRIVER" envDefault:"mongodb"`
	MongoURI     string        `env:"MONGODB_URI" envDefault:"mongodb://localhost:27017"`
	MongoDB      string        `env:"MONGODB_DB" envDefault:"perfume-store"`
	MySQLDSN     string        `env:"MYSQL_DSN" envDefault:"root:root@tcp(localhost:3306)/scentshop?charset=utf8mb4"`
	StoreTimeout time.Duration `env:"STORE_TIMEOUT" envDefault:"10s"`

	RedisAddr       string `env:"REDIS_ADDR"`
	RedisPass       string `env:"REDIS_PASSWORD"`
	RedisDB         int    `env:"REDIS_DB" envDefault:"0"`
	CacheTTLSeconds int    `env:"CACHE_TTL_SECONDS" envDefault:"300"`

	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	ReviewRateRPS   float64       `env:"REVIEW_RATE_RPS" envDefault:"0"`
	ReviewRateBurst int           `env:"REVIEW_RATE_BURST" envDefault:"5"`

	SeedFeedURL string  `env:"SEED_FEED_URL"`
	SeedFeedKey string  `env:"SEED_FEED_KEY"`
	SeedWorkers int     `env:"SEED_WORKERS" envDefault:"4"`
	SeedReset   bool    `env:"SEED_RESET" envDefault:"false"`
	FeedRPS     float64 `env:"FEED_RPS" envDefault:"10"`
}

// CacheEnabled reports whether a Redis address was configured.
func (c Config) CacheEnabled() bool { return c.RedisAddr != "" }

func (c Config) CacheTTL() time.Duration { return time.Duration(c.CacheTTLSeconds) * time.Second }

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	switch c.StoreDriver {
	case DriverMongo, DriverMySQL, DriverMemory:
	default:
		return Config{}, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.SeedWorkers < 1 {
		c.SeedWorkers = 1
	}
	if c.SeedFeedURL != "" && c.SeedFeedKey == "" {
		log.Warn().Msg("SEED_FEED_KEY is empty")
	}
	return c, nil
}
