package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type HTTPConfig struct {
	Port            int           `yaml:"port"`
	PublicBaseURL   string        `yaml:"public_base_url"` // used to build vCard/ticket redirect targets
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// Proxies (IPs or CIDRs) allowed to set X-Forwarded-For / X-Real-IP.
	// Empty means the socket peer is the client.
	TrustedProxies []string `yaml:"trusted_proxies"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod

	// Optional rotating file sink; empty File keeps stdout only.
	File       string `yaml:"file"`
	MaxSize    int    `yaml:"max_size"` // MB
	MaxAge     int    `yaml:"max_age"`  // days
	MaxBackups int    `yaml:"max_backups"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"` // host:port; empty disables caching and rate limiting
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type RedirectConfig struct {
	Countdown      time.Duration `yaml:"countdown"`
	RecordTimeout  time.Duration `yaml:"record_timeout"`
	ResolveRetries int           `yaml:"resolve_retries"` // retries on store failure; negative disables
	RetryInterval  time.Duration `yaml:"retry_interval"`
}

type ScansConfig struct {
	RateLimit  int           `yaml:"rate_limit"` // per client IP per window; 0 disables
	RateWindow time.Duration `yaml:"rate_window"`
}

type WorkerConfig struct {
	Workers   int `yaml:"workers"`
	QueueSize int `yaml:"queue_size"`
}

type MetricsConfig struct {
	PoolStatsInterval time.Duration `yaml:"pool_stats_interval"`
}

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`
	Redirect RedirectConfig `yaml:"redirect"`
	Scans    ScansConfig    `yaml:"scans"`
	Worker   WorkerConfig   `yaml:"worker"`
	Metrics  MetricsConfig  `yaml:"metrics"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file at path, applies environment overrides and defaults,
// and validates the result. A missing file is fine when the environment supplies the rest.
func LoadConfig(path string, dev bool) (*Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
		// env-only configuration
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg.overrideFromEnv()
	cfg.setDefaults()
	cfg.Runtime.Dev = dev

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Auth.JWTSecret == "" && !dev {
		return nil, errors.New("auth.jwt_secret is required")
	}
	return &cfg, nil
}

func (c *Config) overrideFromEnv() {
	if val := os.Getenv("DATABASE_URL"); val != "" {
		c.Database.URL = val
	}
	if val := os.Getenv("REDIS_URL"); val != "" {
		c.Redis.URL = val
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		c.Redis.Password = val
	}
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.Auth.JWTSecret = val
	}
	if val := os.Getenv("HTTP_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			c.HTTP.Port = port
		}
	}
	if val := os.Getenv("PUBLIC_BASE_URL"); val != "" {
		c.HTTP.PublicBaseURL = val
	}
	if val := os.Getenv("TRUSTED_PROXIES"); val != "" {
		c.HTTP.TrustedProxies = strings.Split(val, ",")
	}
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
}

func (c *Config) setDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.PublicBaseURL == "" {
		c.HTTP.PublicBaseURL = fmt.Sprintf("http://localhost:%d", c.HTTP.Port)
	}
	c.HTTP.PublicBaseURL = strings.TrimRight(c.HTTP.PublicBaseURL, "/")
	if c.HTTP.RequestTimeout <= 0 {
		c.HTTP.RequestTimeout = 15 * time.Second
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		c.HTTP.ShutdownTimeout = 10 * time.Second
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Log.File != "" {
		if c.Log.MaxSize <= 0 {
			c.Log.MaxSize = 100
		}
		if c.Log.MaxAge <= 0 {
			c.Log.MaxAge = 14
		}
	}

	if c.Database.MaxConns <= 0 {
		c.Database.MaxConns = 10
	}
	c.Redis.TTL = normalizeTTL(c.Redis.TTL)

	if c.Redirect.Countdown <= 0 {
		c.Redirect.Countdown = 5 * time.Second
	}
	if c.Redirect.RecordTimeout <= 0 {
		c.Redirect.RecordTimeout = 5 * time.Second
	}
	switch {
	case c.Redirect.ResolveRetries == 0:
		c.Redirect.ResolveRetries = 2
	case c.Redirect.ResolveRetries < 0: // explicit opt-out
		c.Redirect.ResolveRetries = 0
	}
	if c.Redirect.RetryInterval <= 0 {
		c.Redirect.RetryInterval = 25 * time.Millisecond
	}

	if c.Scans.RateWindow <= 0 {
		c.Scans.RateWindow = time.Minute
	}

	if c.Worker.Workers <= 0 {
		c.Worker.Workers = 8
	}
	if c.Worker.QueueSize <= 0 {
		c.Worker.QueueSize = c.Worker.Workers * 64
	}

	if c.Metrics.PoolStatsInterval <= 0 {
		c.Metrics.PoolStatsInterval = 15 * time.Second
	}
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
