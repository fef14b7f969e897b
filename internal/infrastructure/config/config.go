package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/agriconnect/marketplace-client/internal/core/domain"
)

type Config struct {
	Port      string `env:"PORT,       default=8080"`
	Env       string `env:"ENV,        default=development"`
	LogLevel  string `env:"LOG_LEVEL,  default=info"`
	LogPretty bool   `env:"LOG_PRETTY, default=false"`

	API            APIConfig
	Store          StoreConfig
	DefaultProduct ProductConfig
}

// APIConfig points at the remote marketplace API.
type APIConfig struct {
	BaseURL string        `env:"API_BASE_URL, default=http://localhost:8000/api/v1"`
	Timeout time.Duration `env:"API_TIMEOUT,  default=15s"`
}

// StoreConfig selects where the session credential is persisted.
type StoreConfig struct {
	Backend string `env:"STORE_BACKEND, default=memory"`

	Mongo MongoConfig
	Redis RedisConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=marketplace_client"`
}

type RedisConfig struct {
	Addr      string        `env:"REDIS_ADDR,       default=localhost:6379"`
	Password  string        `env:"REDIS_PASSWORD"`
	DB        int           `env:"REDIS_DB,         default=0"`
	KeyPrefix string        `env:"REDIS_KEY_PREFIX, default=marketplace:"`
	TTL       time.Duration `env:"REDIS_TTL,        default=0s"`
}

// ProductConfig is the product shown on product-details when nothing was selected.
type ProductConfig struct {
	ID     string  `env:"DEFAULT_PRODUCT_ID,     default=featured"`
	Name   string  `env:"DEFAULT_PRODUCT_NAME,   default=Seasonal Vegetable Box"`
	Price  float64 `env:"DEFAULT_PRODUCT_PRICE,  default=25"`
	Unit   string  `env:"DEFAULT_PRODUCT_UNIT,   default=box"`
	Farmer string  `env:"DEFAULT_PRODUCT_FARMER, default=AgriConnect"`
	Image  string  `env:"DEFAULT_PRODUCT_IMAGE"`
}

// Product converts the fallback settings to a domain.Product.
func (p ProductConfig) Product() domain.Product {
	return domain.Product{ID: p.ID, Name: p.Name, Price: p.Price, Unit: p.Unit, Farmer: p.Farmer, ImageURL: p.Image}
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith reads configuration from lookuper and validates it.
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, err
	}
	switch cfg.Store.Backend {
	case "memory", "redis", "mongo":
	default:
		return nil, fmt.Errorf("STORE_BACKEND %q: want memory, redis or mongo", cfg.Store.Backend)
	}
	return &cfg, nil
}
