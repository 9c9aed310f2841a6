package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port               int      `yaml:"port"`
	Env                string   `yaml:"env"`
	RateLimitPerSec    float64  `yaml:"rate_limit_per_sec"`
	RateLimitBurst     int      `yaml:"rate_limit_burst"`
	LoginRatePerMinute int      `yaml:"login_rate_per_minute"`
	CacheTTLSeconds    int      `yaml:"cache_ttl_seconds"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"` // postgres or sqlite
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	AutoMigrate            bool   `yaml:"auto_migrate"`
	SeedLocations          bool   `yaml:"seed_locations"`
	LogLevel               string `yaml:"log_level"`
}

// AuthConfig holds the session token settings.
type AuthConfig struct {
	JWTSecret     string        `yaml:"jwt_secret"`
	TokenTTLHours int           `yaml:"token_ttl_hours"`
	TokenTTL      time.Duration `yaml:"-"`
	CookieName    string        `yaml:"cookie_name"`
	BcryptCost    int           `yaml:"bcrypt_cost"`
	// SecureCookies is derived from Server.Env.
	SecureCookies bool `yaml:"-"`
}

// StorageConfig selects and configures the image blob store.
type StorageConfig struct {
	Provider            string `yaml:"provider"` // gcs or local
	Bucket              string `yaml:"bucket"`
	CredentialsJSON     string `yaml:"credentials_json"`
	PublicBaseURL       string `yaml:"public_base_url"`
	LocalDir            string `yaml:"local_dir"`
	MaxUploadBytes      int64  `yaml:"max_upload_bytes"`
	MaxImageWidth       int    `yaml:"max_image_width"`
	SignedURLTTLMinutes int    `yaml:"signed_url_ttl_minutes"`
}

// LogConfig holds the logger settings.
type LogConfig struct {
	Level       string `yaml:"level"`
	ServiceName string `yaml:"service_name"`
}

const minSecretLength = 32

// Load reads the configuration from the given path, then applies environment
// overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("could not load .env file: %v", err)
	}

	var cfg Config
	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		log.Printf("config file %s not found; using defaults and environment", path)
	default:
		return nil, err
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Server.Env, "APP_ENV")
	setInt(&c.Server.Port, "PORT")
	if v := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS")); v != "" {
		c.Server.CORSAllowedOrigins = splitAndTrim(v)
	}
	setString(&c.Database.Driver, "DATABASE_DRIVER")
	setString(&c.Database.DSN, "DATABASE_URL")
	setString(&c.Auth.JWTSecret, "JWT_SECRET")
	setString(&c.Storage.Provider, "STORAGE_PROVIDER")
	setString(&c.Storage.Bucket, "GCS_BUCKET")
	setString(&c.Storage.CredentialsJSON, "GCS_CREDENTIALS_JSON")
	setString(&c.Storage.PublicBaseURL, "STORAGE_PUBLIC_BASE_URL")
	setString(&c.Log.Level, "LOG_LEVEL")
}

func (c *Config) applyDefaults() {
	if c.Server.Port <= 0 {
		c.Server.Port = 8080
	}
	if c.Server.Env == "" {
		c.Server.Env = "development"
	}
	if c.Server.RateLimitPerSec <= 0 {
		c.Server.RateLimitPerSec = 10
	}
	if c.Server.RateLimitBurst <= 0 {
		c.Server.RateLimitBurst = 5
	}
	if c.Server.LoginRatePerMinute <= 0 {
		c.Server.LoginRatePerMinute = 10
	}
	if c.Server.CacheTTLSeconds <= 0 {
		c.Server.CacheTTLSeconds = 300
	}

	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	if c.Database.MaxOpenConns <= 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.Database.MaxIdleConns <= 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetimeMinutes <= 0 {
		c.Database.ConnMaxLifetimeMinutes = 30
	}
	if c.Database.LogLevel == "" {
		c.Database.LogLevel = "warn"
	}

	if c.Auth.TokenTTLHours <= 0 {
		c.Auth.TokenTTLHours = 7 * 24
	}
	c.Auth.TokenTTL = time.Duration(c.Auth.TokenTTLHours) * time.Hour
	if c.Auth.CookieName == "" {
		c.Auth.CookieName = "auth_token"
	}
	if c.Auth.BcryptCost <= 0 {
		c.Auth.BcryptCost = 12
	}
	c.Auth.SecureCookies = c.IsProduction()

	if c.Storage.Provider == "" {
		c.Storage.Provider = "local"
	}
	if c.Storage.LocalDir == "" {
		c.Storage.LocalDir = "./uploads"
	}
	if c.Storage.MaxUploadBytes <= 0 {
		c.Storage.MaxUploadBytes = 5 * 1024 * 1024
	}
	if c.Storage.MaxImageWidth <= 0 {
		c.Storage.MaxImageWidth = 1600
	}
	if c.Storage.SignedURLTTLMinutes <= 0 {
		c.Storage.SignedURLTTLMinutes = 15
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.ServiceName == "" {
		c.Log.ServiceName = "arcade-inventory"
	}
}

// Validate reports configuration that the server cannot run with.
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < minSecretLength {
		return fmt.Errorf("auth.jwt_secret must be at least %d characters", minSecretLength)
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database.dsn is required")
	}
	switch c.Storage.Provider {
	case "local":
	case "gcs":
		if c.Storage.Bucket == "" {
			return errors.New("storage.bucket is required for the gcs provider")
		}
	default:
		return fmt.Errorf("unsupported storage provider %q", c.Storage.Provider)
	}
	return nil
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Env, "production")
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("ignoring %s=%q: %v", key, v, err)
		return
	}
	*dst = n
}

func splitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
