// Package config loads service configuration from config.toml with
// AUTHBASE_-prefixed environment overrides.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root of all service settings.
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Token     TokenConfig
	Log       LogConfig
	Billing   BillingConfig
	Mail      MailConfig
	Reconcile ReconcileConfig
	Telemetry TelemetryConfig
}

// AppConfig names the deployment.
type AppConfig struct {
	Name string
	Env  string
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// DatabaseConfig covers the postgres connection and pool.
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

// RedisConfig covers the redis connection used by the token revocation list.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// TokenConfig holds app-scoped token settings. Tokens are signed with each
// app's own secret; these settings cover lifetimes and the issuer claim.
type TokenConfig struct {
	Issuer                 string
	SessionExpiration      time.Duration
	VerificationExpiration time.Duration
	ResetExpiration        time.Duration
}

// BillingConfig holds external billing system settings.
type BillingConfig struct {
	APIKey         string
	FreePriceID    string
	ProPriceID     string
	PremiumPriceID string
}

// MailConfig holds email delivery settings.
type MailConfig struct {
	Enabled     bool
	FromAddress string
	QueueSize   int
	Workers     int
}

// ReconcileConfig holds billing reconcile worker settings.
type ReconcileConfig struct {
	Enabled      bool
	BatchSize    int
	PollInterval time.Duration
	BaseBackoff  time.Duration
	MaxBackoff   time.Duration
}

// TelemetryConfig holds OpenTelemetry settings.
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	Insecure          bool
	DBTraceEnabled    bool
}

// Load reads config.toml (from . or /app), overlays AUTHBASE_ environment
// variables on top, fills in defaults and validates the result. A missing
// config file is fine; env vars and defaults alone are a valid setup.
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
	}

	v.SetEnvPrefix("AUTHBASE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
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
		Token: TokenConfig{
			Issuer:                 v.GetString("token.issuer"),
			SessionExpiration:      v.GetDuration("token.session_expiration"),
			VerificationExpiration: v.GetDuration("token.verification_expiration"),
			ResetExpiration:        v.GetDuration("token.reset_expiration"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Billing: BillingConfig{
			APIKey:         v.GetString("billing.api_key"),
			FreePriceID:    v.GetString("billing.free_price_id"),
			ProPriceID:     v.GetString("billing.pro_price_id"),
			PremiumPriceID: v.GetString("billing.premium_price_id"),
		},
		Mail: MailConfig{
			Enabled:     v.GetBool("mail.enabled"),
			FromAddress: v.GetString("mail.from_address"),
			QueueSize:   v.GetInt("mail.queue_size"),
			Workers:     v.GetInt("mail.workers"),
		},
		Reconcile: ReconcileConfig{
			Enabled:      v.GetBool("reconcile.enabled"),
			BatchSize:    v.GetInt("reconcile.batch_size"),
			PollInterval: v.GetDuration("reconcile.poll_interval"),
			BaseBackoff:  v.GetDuration("reconcile.base_backoff"),
			MaxBackoff:   v.GetDuration("reconcile.max_backoff"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
		},
	}

	cfg.coerceZeroes()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "authbase")
	v.SetDefault("app.env", "development")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.dbname", "authbase")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 60)
	v.SetDefault("database.conn_max_idle_time", 30)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)

	v.SetDefault("token.issuer", "authbase")
	v.SetDefault("token.session_expiration", 24*time.Hour)
	v.SetDefault("token.verification_expiration", 48*time.Hour)
	v.SetDefault("token.reset_expiration", time.Hour)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("mail.queue_size", 256)
	v.SetDefault("mail.workers", 2)

	v.SetDefault("reconcile.batch_size", 50)
	v.SetDefault("reconcile.poll_interval", 10*time.Second)
	v.SetDefault("reconcile.base_backoff", 30*time.Second)
	v.SetDefault("reconcile.max_backoff", time.Hour)

	v.SetDefault("telemetry.collector_endpoint", "localhost:4317")
	v.SetDefault("telemetry.sampling_ratio", 1.0)
	v.SetDefault("telemetry.service_name", "authbase")
}

// coerceZeroes treats an explicit 0 on pool and worker sizes as "unset".
// An env var like AUTHBASE_DATABASE_MAX_OPEN_CONNS=0 would otherwise shadow
// the default and disable the pool.
func (c *Config) coerceZeroes() {
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 25
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = 60
	}
	if c.Database.ConnMaxIdleTime == 0 {
		c.Database.ConnMaxIdleTime = 30
	}
	if c.Mail.QueueSize == 0 {
		c.Mail.QueueSize = 256
	}
	if c.Mail.Workers == 0 {
		c.Mail.Workers = 2
	}
	if c.Reconcile.BatchSize == 0 {
		c.Reconcile.BatchSize = 50
	}
	if c.Telemetry.SamplingRatio == 0 {
		c.Telemetry.SamplingRatio = 1.0
	}
}

// validate rejects settings that would misbehave at runtime. Production
// additionally demands a database password, SSL and a billing key.
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

	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if c.Billing.APIKey == "" {
			return fmt.Errorf("billing.api_key is required in production")
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// DSN builds the postgres connection URL, escaping credentials.
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

// PriceIDFor returns the billing price id configured for a plan label.
func (b *BillingConfig) PriceIDFor(label string) (string, bool) {
	switch label {
	case "BASIC":
		return b.FreePriceID, b.FreePriceID != ""
	case "PRO":
		return b.ProPriceID, b.ProPriceID != ""
	case "PREMIUM":
		return b.PremiumPriceID, b.PremiumPriceID != ""
	default:
		return "", false
	}
}
