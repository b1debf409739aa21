package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

const (
	OTPStoreRedis  = "redis"
	OTPStoreMemory = "memory"
)

// envFiles are loaded in order when present; earlier files win and real
// environment variables win over both.
var envFiles = []string{".env.local", ".env"}

type Config struct {
	Port      string `env:"PORT,       default=8080"`
	Env       string `env:"ENV,        default=development"`
	LogLevel  string `env:"LOG_LEVEL,  default=info"`
	APIPrefix string `env:"API_PREFIX, default=v1"`

	StoreTimeout time.Duration `env:"STORE_TIMEOUT, default=5s"`

	Auth  AuthConfig
	OTP   OTPConfig
	Mongo MongoConfig
	Redis RedisConfig
	Mail  MailConfig
}

type AuthConfig struct {
	JWTSecret   string        `env:"JWT_SECRET"`
	JWTIssuer   string        `env:"JWT_ISSUER,   default=brewly"`
	TokenTTL    time.Duration `env:"TOKEN_TTL,    default=168h"`
	HashCost    int           `env:"HASH_COST,    default=10"`
	HashTimeout time.Duration `env:"HASH_TIMEOUT, default=5s"`
}

type OTPConfig struct {
	TTL         time.Duration `env:"OTP_TTL,          default=10m"`
	Store       string        `env:"OTP_STORE,        default=redis"`
	LockStripes int           `env:"OTP_LOCK_STRIPES, default=64"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=brewly"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	DB       int    `env:"REDIS_DB,       default=0"`
	Password string `env:"REDIS_PASSWORD"`
}

// MailConfig configures OTP delivery. An empty Host selects the log sender.
type MailConfig struct {
	Host       string        `env:"MAIL_HOST"`
	Port       int           `env:"MAIL_PORT,        default=587"`
	Secure     bool          `env:"MAIL_SECURE,      default=false"`
	RequireTLS bool          `env:"MAIL_REQUIRE_TLS, default=false"`
	User       string        `env:"MAIL_USER"`
	Password   string        `env:"MAIL_PASSWORD"`
	From       string        `env:"MAIL_FROM,        default=noreply@brewly.com"`
	FromName   string        `env:"MAIL_FROM_NAME,   default=Brewly"`
	Timeout    time.Duration `env:"MAIL_TIMEOUT,     default=15s"`
}

// IsDevelopment reports whether the service runs in the development environment.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads .env files when present, then the process environment.
func Load(ctx context.Context) (*Config, error) {
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	durations := []struct {
		name string
		v    time.Duration
	}{
		{"TOKEN_TTL", c.Auth.TokenTTL},
		{"HASH_TIMEOUT", c.Auth.HashTimeout},
		{"OTP_TTL", c.OTP.TTL},
		{"STORE_TIMEOUT", c.StoreTimeout},
		{"MAIL_TIMEOUT", c.Mail.Timeout},
	}
	for _, d := range durations {
		if d.v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", d.name, d.v))
		}
	}
	switch c.OTP.Store {
	case OTPStoreRedis, OTPStoreMemory:
	default:
		errs = append(errs, fmt.Errorf("OTP_STORE must be %q or %q, got %q", OTPStoreRedis, OTPStoreMemory, c.OTP.Store))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
