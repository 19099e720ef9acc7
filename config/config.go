package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	// HTTP server and static pages
	Server ServerConfig `mapstructure:"server"`

	// Link store backend selection
	Store StoreConfig `mapstructure:"store"`

	// PostgreSQL
	Postgres PostgresConfig `mapstructure:"postgres"`

	// Redis
	Redis RedisConfig `mapstructure:"redis"`

	// NATS
	NATS NATSConfig `mapstructure:"nats"`

	// Click pipeline
	Clicks ClicksConfig `mapstructure:"clicks"`

	// Geolocation lookups
	Geo GeoConfig `mapstructure:"geo"`

	// Paystack
	Paystack PaystackConfig `mapstructure:"paystack"`

	// Rate limiting on /api
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`

	// Prometheus
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
}

type ServerConfig struct {
	Port        int    `mapstructure:"port"`
	WebRoot     string `mapstructure:"web_root"`
	LandingPath string `mapstructure:"landing_path"`
	Platform    string `mapstructure:"platform"`
}

type StoreConfig struct {
	// Driver is "postgres" or "sqlite".
	Driver     string          `mapstructure:"driver"`
	SQLitePath string          `mapstructure:"sqlite_path"`
	REST       RESTStoreConfig `mapstructure:"rest"`
}

type RESTStoreConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	ProjectID string `mapstructure:"project_id"`
}

type PostgresConfig struct {
	Host              string `mapstructure:"host"`
	User              string `mapstructure:"user"`
	Password          string `mapstructure:"password"`
	Database          string `mapstructure:"database"`
	Port              int    `mapstructure:"port"`
	SSLMode           string `mapstructure:"sslmode"`
	MaxConns          int32  `mapstructure:"max_conns"`
	MinConns          int32  `mapstructure:"min_conns"`
	MaxConnLifetime   string `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   string `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod string `mapstructure:"health_check_period"`
}

type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

type NATSConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

type ClicksConfig struct {
	// Transport is "direct" (in-process writes) or "nats" (JetStream hop).
	Transport string `mapstructure:"transport"`
}

type GeoConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type PaystackConfig struct {
	SecretKey string `mapstructure:"secret_key"`
	PublicKey string `mapstructure:"public_key"`
	BaseURL   string `mapstructure:"base_url"`
	// MinAmount is in kobo.
	MinAmount int64 `mapstructure:"min_amount"`
}

type RateLimitConfig struct {
	MaxRequests int           `mapstructure:"max_requests"`
	Window      time.Duration `mapstructure:"window"`
}

type PrometheusConfig struct {
	Port int `mapstructure:"port"`
}

// HasNativeStore reports whether credentials for the authenticated store are present.
func (c *Config) HasNativeStore() bool {
	switch c.Store.Driver {
	case "sqlite":
		return c.Store.SQLitePath != ""
	default:
		return c.Postgres.Host != "" && c.Postgres.User != ""
	}
}

func Load() (*Config, error) {
	// Load local .env for development (ignored when missing).
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.web_root", "./public")
	v.SetDefault("server.landing_path", "/")
	v.SetDefault("server.platform", "Trisend")

	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.rest.base_url", "https://firestore.googleapis.com/v1")
	v.SetDefault("store.rest.project_id", "trisend-e7250")

	v.SetDefault("redis.cache_ttl", 30*time.Second)

	v.SetDefault("clicks.transport", "direct")

	v.SetDefault("geo.base_url", "http://ip-api.com")
	v.SetDefault("geo.timeout", 3*time.Second)

	v.SetDefault("paystack.base_url", "https://api.paystack.co")
	v.SetDefault("paystack.min_amount", 200000)

	v.SetDefault("rate_limit.max_requests", 100)
	v.SetDefault("rate_limit.window", time.Minute)

	v.SetDefault("prometheus.port", 9090)
}

func bindEnvVars(v *viper.Viper) {
	// Server
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.web_root", "WEB_ROOT")

	// Store
	v.BindEnv("store.driver", "STORE_DRIVER")
	v.BindEnv("store.sqlite_path", "SQLITE_PATH")
	v.BindEnv("store.rest.project_id", "FIREBASE_PROJECT")

	// PostgreSQL
	v.BindEnv("postgres.host", "PG_HOST")
	v.BindEnv("postgres.user", "PG_USER")
	v.BindEnv("postgres.password", "PG_PASSWORD")
	v.BindEnv("postgres.database", "PG_DB")
	v.BindEnv("postgres.port", "PG_PORT")
	v.BindEnv("postgres.sslmode", "PG_SSLMODE")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "REDIS_DB")

	// NATS
	v.BindEnv("nats.host", "NATS_HOST")
	v.BindEnv("nats.port", "NATS_PORT")
	v.BindEnv("nats.user", "NATS_USER")
	v.BindEnv("nats.password", "NATS_PASSWORD")
	v.BindEnv("clicks.transport", "CLICK_TRANSPORT")

	// Paystack
	v.BindEnv("paystack.secret_key", "PAYSTACK_SECRET_KEY")
	v.BindEnv("paystack.public_key", "PAYSTACK_PUBLIC_KEY")

	// Prometheus
	v.BindEnv("prometheus.port", "PROM_PORT")
}
