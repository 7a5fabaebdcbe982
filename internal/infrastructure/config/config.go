package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Log         LogConfig
	HTTP        HTTPConfig
	Carrier     CarrierConfig
	Shipper     ShipperConfig
	Lock        LockConfig
	Procurement ProcurementConfig
	Scheduler   SchedulerConfig
	Fulfillment FulfillmentConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	MaxBodySize    int64
	TrustedProxies []string
}

// CarrierConfig selects and configures the carrier gateway. Exactly one
// provider is active per deployment.
type CarrierConfig struct {
	Provider       string // shipstation, sendle
	BaseURL        string
	APIKey         string
	APISecret      string
	RequestTimeout time.Duration
}

// ShipperConfig holds the shipper-of-record defaults used to fill gaps in
// the configured shipper profile
type ShipperConfig struct {
	Name       string
	Company    string
	Phone      string
	Email      string
	Street1    string
	Street2    string
	City       string
	State      string
	PostalCode string
	Country    string
}

// LockConfig holds the order processing lease settings
type LockConfig struct {
	Backend  string        // db, redis
	TTL      time.Duration // lease duration before a lock is claimable
	SweepAge time.Duration // age at which the sweeper reports a lock stale
}

// ProcurementConfig holds batch procurement settings
type ProcurementConfig struct {
	AsyncThreshold   int           // batches larger than this dispatch to a background worker
	GatewayFailLimit int           // consecutive transient failures before short-circuiting a run
	NotifyTimeout    time.Duration // per-call budget for fulfillment notifications
}

// SchedulerConfig holds background job configuration
type SchedulerConfig struct {
	Enabled            bool
	RateShopInterval   time.Duration
	RateShopBatchSize  int
	StaleLockInterval  time.Duration
	ReconcileInterval  time.Duration
	ReconcileBatchSize int
}

// FulfillmentConfig holds marketplace fulfillment webhook settings. URLs
// are keyed by marketplace code; unlisted marketplaces are log-only.
type FulfillmentConfig struct {
	Endpoints map[string]string
	AuthToken string
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with OMS_ prefix (e.g., OMS_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("OMS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
			MaxBodySize:    v.GetInt64("http.max_body_size"),
			TrustedProxies: v.GetStringSlice("http.trusted_proxies"),
		},
		Carrier: CarrierConfig{
			Provider:       v.GetString("carrier.provider"),
			BaseURL:        v.GetString("carrier.base_url"),
			APIKey:         v.GetString("carrier.api_key"),
			APISecret:      v.GetString("carrier.api_secret"),
			RequestTimeout: v.GetDuration("carrier.request_timeout"),
		},
		Shipper: ShipperConfig{
			Name:       v.GetString("shipper.name"),
			Company:    v.GetString("shipper.company"),
			Phone:      v.GetString("shipper.phone"),
			Email:      v.GetString("shipper.email"),
			Street1:    v.GetString("shipper.street1"),
			Street2:    v.GetString("shipper.street2"),
			City:       v.GetString("shipper.city"),
			State:      v.GetString("shipper.state"),
			PostalCode: v.GetString("shipper.postal_code"),
			Country:    v.GetString("shipper.country"),
		},
		Lock: LockConfig{
			Backend:  v.GetString("lock.backend"),
			TTL:      v.GetDuration("lock.ttl"),
			SweepAge: v.GetDuration("lock.sweep_age"),
		},
		Procurement: ProcurementConfig{
			AsyncThreshold:   v.GetInt("procurement.async_threshold"),
			GatewayFailLimit: v.GetInt("procurement.gateway_fail_limit"),
			NotifyTimeout:    v.GetDuration("procurement.notify_timeout"),
		},
		Scheduler: SchedulerConfig{
			Enabled:            v.GetBool("scheduler.enabled"),
			RateShopInterval:   v.GetDuration("scheduler.rate_shop_interval"),
			RateShopBatchSize:  v.GetInt("scheduler.rate_shop_batch_size"),
			StaleLockInterval:  v.GetDuration("scheduler.stale_lock_interval"),
			ReconcileInterval:  v.GetDuration("scheduler.reconcile_interval"),
			ReconcileBatchSize: v.GetInt("scheduler.reconcile_batch_size"),
		},
		Fulfillment: FulfillmentConfig{
			Endpoints: v.GetStringMapString("fulfillment.endpoints"),
			AuthToken: v.GetString("fulfillment.auth_token"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "oms-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "oms"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 10 << 20 // 10MB
	}
	if cfg.Carrier.Provider == "" {
		cfg.Carrier.Provider = "shipstation"
	}
	if cfg.Carrier.RequestTimeout == 0 {
		cfg.Carrier.RequestTimeout = 30 * time.Second
	}
	if cfg.Shipper.Country == "" {
		cfg.Shipper.Country = "US"
	}
	if cfg.Lock.Backend == "" {
		cfg.Lock.Backend = "db"
	}
	if cfg.Lock.TTL == 0 {
		cfg.Lock.TTL = 5 * time.Minute
	}
	if cfg.Lock.SweepAge == 0 {
		cfg.Lock.SweepAge = 30 * time.Minute
	}
	if cfg.Procurement.AsyncThreshold == 0 {
		cfg.Procurement.AsyncThreshold = 50
	}
	if cfg.Procurement.GatewayFailLimit == 0 {
		cfg.Procurement.GatewayFailLimit = 3
	}
	if cfg.Procurement.NotifyTimeout == 0 {
		cfg.Procurement.NotifyTimeout = 10 * time.Second
	}
	if cfg.Scheduler.RateShopInterval == 0 {
		cfg.Scheduler.RateShopInterval = 10 * time.Minute
	}
	if cfg.Scheduler.RateShopBatchSize == 0 {
		cfg.Scheduler.RateShopBatchSize = 100
	}
	if cfg.Scheduler.StaleLockInterval == 0 {
		cfg.Scheduler.StaleLockInterval = 15 * time.Minute
	}
	if cfg.Scheduler.ReconcileInterval == 0 {
		cfg.Scheduler.ReconcileInterval = time.Hour
	}
	if cfg.Scheduler.ReconcileBatchSize == 0 {
		cfg.Scheduler.ReconcileBatchSize = 200
	}
	if cfg.Fulfillment.Endpoints == nil {
		cfg.Fulfillment.Endpoints = map[string]string{}
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	switch c.Carrier.Provider {
	case "shipstation", "sendle":
	default:
		return fmt.Errorf("carrier.provider must be 'shipstation' or 'sendle', got %q", c.Carrier.Provider)
	}

	switch c.Lock.Backend {
	case "db", "redis":
	default:
		return fmt.Errorf("lock.backend must be 'db' or 'redis', got %q", c.Lock.Backend)
	}
	if c.Lock.TTL <= 0 {
		return fmt.Errorf("lock.ttl must be positive")
	}
	if c.Lock.SweepAge < c.Lock.TTL {
		return fmt.Errorf("lock.sweep_age (%s) cannot be shorter than lock.ttl (%s)", c.Lock.SweepAge, c.Lock.TTL)
	}

	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if c.Carrier.APIKey == "" {
			return fmt.Errorf("carrier.api_key is required in production")
		}
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Addr returns the host:port address for Redis
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
