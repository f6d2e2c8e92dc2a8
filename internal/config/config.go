package config

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment variables overriding file values.
// JOBSYNC_POLLER__INTERVAL=5s sets poller.interval.
const EnvPrefix = "JOBSYNC_"

// Config represents the application configuration
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Backend    BackendConfig    `koanf:"backend"`
	Poller     PollerConfig     `koanf:"poller"`
	Optimistic OptimisticConfig `koanf:"optimistic"`
	Notices    NoticesConfig    `koanf:"notices"`
	Metrics    MetricsConfig    `koanf:"metrics"`
	Log        LogConfig        `koanf:"log"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Addr         string        `koanf:"addr"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	BasePath     string        `koanf:"base_path"` // Optional base path for reverse proxy (e.g., "/jobs")
}

// BackendConfig describes the job scheduler REST API.
//
// The scheduler backend marks a notification read with POST. PUT and the
// read-all endpoint are only served by the front-end mock API.
type BackendConfig struct {
	BaseURL        string        `koanf:"base_url"`
	Timeout        time.Duration `koanf:"timeout"`          // Per-call timeout enforced client-side
	MarkReadMethod string        `koanf:"mark_read_method"` // PUT or POST
	TLS            *TLSConfig    `koanf:"tls"`
}

// PollerConfig represents the polling schedule
type PollerConfig struct {
	Interval      time.Duration `koanf:"interval"`
	MaxBackoff    time.Duration `koanf:"max_backoff"`    // Upper bound of retry spacing after failures
	MaxConcurrent int           `koanf:"max_concurrent"` // Concurrent execution fetches per cycle
}

// OptimisticConfig represents optimistic update bookkeeping
type OptimisticConfig struct {
	PendingTTL time.Duration `koanf:"pending_ttl"` // Guard expiry of a pending action
}

// NoticesConfig represents transient notice retention
type NoticesConfig struct {
	TTL time.Duration `koanf:"ttl"`
}

// MetricsConfig represents Prometheus exposition
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

// LogConfig represents logger configuration
type LogConfig struct {
	Level string `koanf:"level"`
}

// TLSConfig represents TLS configuration for the backend client
type TLSConfig struct {
	CA   string `koanf:"ca"`
	Cert string `koanf:"cert"`
	Key  string `koanf:"key"`
}

// Load loads configuration from the specified file, then applies environment overrides.
// An empty path skips the file.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment overrides: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Default returns the configuration used when a key is not set
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8090",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 45 * time.Second,
		},
		Backend: BackendConfig{
			BaseURL:        "http://localhost:8080/api",
			Timeout:        30 * time.Second,
			MarkReadMethod: http.MethodPost,
		},
		Poller: PollerConfig{
			Interval:      10 * time.Second,
			MaxBackoff:    time.Minute,
			MaxConcurrent: 8,
		},
		Optimistic: OptimisticConfig{
			PendingTTL: 2 * time.Minute,
		},
		Notices: NoticesConfig{
			TTL: 10 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}

	if c.Server.BasePath != "" && !strings.HasPrefix(c.Server.BasePath, "/") {
		return fmt.Errorf("server.base_path must start with /")
	}

	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("backend.base_url must be an absolute URL, got %q", c.Backend.BaseURL)
	}

	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("backend.timeout must be positive")
	}

	c.Backend.MarkReadMethod = strings.ToUpper(c.Backend.MarkReadMethod)
	if c.Backend.MarkReadMethod != http.MethodPut && c.Backend.MarkReadMethod != http.MethodPost {
		return fmt.Errorf("backend.mark_read_method must be PUT or POST")
	}

	if tls := c.Backend.TLS; tls != nil {
		if tls.CA == "" && tls.Cert == "" {
			return fmt.Errorf("backend.tls requires ca and/or cert")
		}
		if (tls.Cert == "") != (tls.Key == "") {
			return fmt.Errorf("backend.tls.cert and backend.tls.key must be set together")
		}
	}

	if c.Poller.Interval <= 0 {
		return fmt.Errorf("poller.interval must be positive")
	}
	if c.Poller.MaxBackoff < c.Poller.Interval {
		return fmt.Errorf("poller.max_backoff must not be shorter than poller.interval")
	}
	if c.Poller.MaxConcurrent < 0 {
		return fmt.Errorf("poller.max_concurrent must not be negative")
	}

	// A pending action must outlive the request that resolves it
	if c.Optimistic.PendingTTL < c.Backend.Timeout {
		return fmt.Errorf("optimistic.pending_ttl must not be shorter than backend.timeout")
	}

	if c.Notices.TTL <= 0 {
		return fmt.Errorf("notices.ttl must be positive")
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with /")
	}

	return nil
}
