package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// App holds core runtime configuration shared across services.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"livequiz" yaml:"name"`
	Version                 string        `env:"APP_VERSION" envDefault:"1.0.0" yaml:"version"`
	Env                     string        `env:"APP_ENV" envDefault:"development" yaml:"env"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080" yaml:"http_addr"`
	LogLevel                string        `env:"LOG_LEVEL" envDefault:"info" yaml:"log_level"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s" yaml:"graceful_shutdown_timeout"`

	WS        WS        `yaml:"ws"`
	Admission Admission `yaml:"admission"`
	Redis     Redis     `yaml:"redis"`
	CORS      CORS      `yaml:"cors"`
}

// WS tunes per-connection WebSocket limits.
type WS struct {
	SendQueueSize int           `env:"WS_SEND_QUEUE_SIZE" envDefault:"256" yaml:"send_queue_size"`
	ReadLimit     int64         `env:"WS_READ_LIMIT_BYTES" envDefault:"4096" yaml:"read_limit_bytes"`
	PongWait      time.Duration `env:"WS_PONG_WAIT" envDefault:"60s" yaml:"pong_wait"`
	WriteWait     time.Duration `env:"WS_WRITE_WAIT" envDefault:"10s" yaml:"write_wait"`
}

// Admission controls checks performed before a WebSocket upgrade.
type Admission struct {
	RateLimit         int           `env:"ADMISSION_RATE_LIMIT" envDefault:"10" yaml:"rate_limit"`
	Window            time.Duration `env:"ADMISSION_WINDOW" envDefault:"1m" yaml:"window"`
	RequireUserAgent  bool          `env:"ADMISSION_REQUIRE_USER_AGENT" envDefault:"true" yaml:"require_user_agent"`
	TrustForwardedFor bool          `env:"ADMISSION_TRUST_FORWARDED_FOR" envDefault:"false" yaml:"trust_forwarded_for"`
}

// Redis is optional; an empty Addr selects the in-memory admission limiter.
type Redis struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"" yaml:"addr"`
	DB       int    `env:"REDIS_DB" envDefault:"0" yaml:"db"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20" yaml:"pool_size"`
}

// Enabled reports whether a Redis address is configured.
func (r Redis) Enabled() bool {
	return r.Addr != ""
}

// CORS holds Cross-Origin Resource Sharing configuration.
type CORS struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://127.0.0.1:5173" yaml:"allowed_origins"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS" envSeparator:"," envDefault:"GET,POST,OPTIONS" yaml:"allowed_methods"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS" envSeparator:"," envDefault:"Content-Type,Authorization" yaml:"allowed_headers"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS" envDefault:"true" yaml:"allow_credentials"`
	MaxAge           int      `env:"CORS_MAX_AGE" envDefault:"3600" yaml:"max_age"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.ParseWithOptions(cfg, env.Options{RequiredIfNoDef: true}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *App) validate() error {
	if c.Admission.RateLimit <= 0 {
		return fmt.Errorf("ADMISSION_RATE_LIMIT must be positive, got %d", c.Admission.RateLimit)
	}
	if c.Admission.Window <= 0 {
		return fmt.Errorf("ADMISSION_WINDOW must be positive, got %s", c.Admission.Window)
	}
	if c.WS.SendQueueSize <= 0 {
		return fmt.Errorf("WS_SEND_QUEUE_SIZE must be positive, got %d", c.WS.SendQueueSize)
	}
	return nil
}
