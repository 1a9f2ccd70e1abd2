package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/coursecraft-backend/internal/data/db"
	"github.com/yungbote/coursecraft-backend/internal/observability"
	"github.com/yungbote/coursecraft-backend/internal/platform/envutil"
	"github.com/yungbote/coursecraft-backend/internal/platform/gcp"
	"github.com/yungbote/coursecraft-backend/internal/platform/rediscache"
	"github.com/yungbote/coursecraft-backend/internal/platform/sendgrid"
)

const defaultJWTSecret = "defaultsecret"

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORSOrigins     []string      `yaml:"cors_origins"`
}

type AuthConfig struct {
	JWTSecretKey   string        `yaml:"jwt_secret_key"`
	Issuer         string        `yaml:"issuer"`
	AccessTokenTTL time.Duration `yaml:"access_token_ttl"`
}

type Config struct {
	Env     string `yaml:"env"`
	LogMode string `yaml:"log_mode"`

	Server   ServerConfig                `yaml:"server"`
	Auth     AuthConfig                  `yaml:"auth"`
	Database db.Config                   `yaml:"database"`
	Storage  gcp.StorageConfig           `yaml:"storage"`
	Redis    rediscache.Config           `yaml:"redis"`
	SendGrid sendgrid.Config             `yaml:"sendgrid"`
	Metrics  observability.MetricsConfig `yaml:"metrics"`
	Otel     observability.OtelConfig    `yaml:"otel"`
}

func defaultConfig() Config {
	return Config{
		Env:     "development",
		LogMode: "development",
		Server: ServerConfig{
			Addr:            ":8080",
			RequestTimeout:  30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Auth: AuthConfig{
			JWTSecretKey:   defaultJWTSecret,
			Issuer:         "coursecraft",
			AccessTokenTTL: time.Hour,
		},
		Database: db.Config{
			Driver:  db.DriverPostgres,
			Host:    "localhost",
			Port:    "5432",
			User:    "postgres",
			Name:    "coursecraft",
			SSLMode: "disable",
		},
		Storage: gcp.StorageConfig{
			ThumbnailBucket: "coursecraft-thumbnails",
		},
		Redis: rediscache.Config{
			KeyPrefix: "coursecraft",
			TTL:       5 * time.Minute,
		},
		SendGrid: sendgrid.Config{
			DefaultFromEmail: "no-reply@coursecraft.dev",
			DefaultFromName:  "CourseCraft",
		},
		Otel: observability.OtelConfig{
			ServiceName: "coursecraft-backend",
			SampleRatio: 1,
		},
	}
}

// LoadConfig layers the YAML file at path (optional) over the defaults and
// the environment over both.
func LoadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path = strings.TrimSpace(path); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Env = envutil.String("APP_ENV", c.Env)
	c.LogMode = envutil.String("LOG_MODE", c.LogMode)

	c.Server.Addr = envutil.String("SERVER_ADDR", c.Server.Addr)
	if port := envutil.String("PORT", ""); port != "" {
		c.Server.Addr = ":" + port
	}
	c.Server.RequestTimeout = envutil.Duration("REQUEST_TIMEOUT", c.Server.RequestTimeout)
	c.Server.ShutdownTimeout = envutil.Duration("SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)
	if origins := envutil.String("CORS_ORIGINS", ""); origins != "" {
		c.Server.CORSOrigins = splitList(origins)
	}

	c.Auth.JWTSecretKey = envutil.String("JWT_SECRET_KEY", c.Auth.JWTSecretKey)
	c.Auth.Issuer = envutil.String("JWT_ISSUER", c.Auth.Issuer)
	c.Auth.AccessTokenTTL = envutil.Duration("ACCESS_TOKEN_TTL", c.Auth.AccessTokenTTL)

	c.Database.Driver = envutil.String("DB_DRIVER", c.Database.Driver)
	c.Database.Host = envutil.String("POSTGRES_HOST", c.Database.Host)
	c.Database.Port = envutil.String("POSTGRES_PORT", c.Database.Port)
	c.Database.User = envutil.String("POSTGRES_USER", c.Database.User)
	c.Database.Password = envutil.String("POSTGRES_PASSWORD", c.Database.Password)
	c.Database.Name = envutil.String("POSTGRES_NAME", c.Database.Name)
	c.Database.SSLMode = envutil.String("POSTGRES_SSLMODE", c.Database.SSLMode)
	c.Database.Path = envutil.String("SQLITE_PATH", c.Database.Path)
	c.Database.MaxOpenConns = envutil.Int("DB_MAX_OPEN_CONNS", c.Database.MaxOpenConns)
	c.Database.MaxIdleConns = envutil.Int("DB_MAX_IDLE_CONNS", c.Database.MaxIdleConns)

	c.Storage.Mode = gcp.ObjectStorageMode(envutil.String("OBJECT_STORAGE_MODE", string(c.Storage.Mode)))
	c.Storage.EmulatorHost = envutil.String("STORAGE_EMULATOR_HOST", c.Storage.EmulatorHost)
	c.Storage.ThumbnailBucket = envutil.String("THUMBNAIL_BUCKET_NAME", c.Storage.ThumbnailBucket)
	c.Storage.CDNDomain = envutil.String("THUMBNAIL_CDN_DOMAIN", c.Storage.CDNDomain)
	c.Storage.PublicBaseURL = envutil.String("OBJECT_STORAGE_PUBLIC_BASE_URL", c.Storage.PublicBaseURL)
	c.Storage.Credentials = envutil.String("GOOGLE_APPLICATION_CREDENTIALS", c.Storage.Credentials)

	c.Redis.Addr = envutil.String("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = envutil.String("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = envutil.Int("REDIS_DB", c.Redis.DB)
	c.Redis.TTL = envutil.Duration("COURSE_CACHE_TTL", c.Redis.TTL)

	c.SendGrid.APIKey = envutil.String("SENDGRID_API_KEY", c.SendGrid.APIKey)
	c.SendGrid.DefaultFromEmail = envutil.String("SENDGRID_FROM_EMAIL", c.SendGrid.DefaultFromEmail)
	c.SendGrid.DefaultFromName = envutil.String("SENDGRID_FROM_NAME", c.SendGrid.DefaultFromName)

	c.Metrics.Enabled = envutil.Bool("METRICS_ENABLED", c.Metrics.Enabled)
	c.Metrics.Addr = envutil.String("METRICS_ADDR", c.Metrics.Addr)

	c.Otel.Enabled = envutil.Bool("OTEL_ENABLED", c.Otel.Enabled)
	c.Otel.ServiceName = envutil.String("OTEL_SERVICE_NAME", c.Otel.ServiceName)
	c.Otel.Endpoint = envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", c.Otel.Endpoint)
	c.Otel.Environment = c.Env
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Auth.JWTSecretKey) == "" {
		return fmt.Errorf("auth.jwt_secret_key is required")
	}
	if c.IsProduction() && c.Auth.JWTSecretKey == defaultJWTSecret {
		return fmt.Errorf("auth.jwt_secret_key must be set in production")
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("server.request_timeout must be positive")
	}
	return nil
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), "production")
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
