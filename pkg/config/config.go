// Package config loads the runner configuration from an optional YAML file and
// METRO_* environment variables. Secrets (the platform keys) are read here and
// nowhere else, and are never printed.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"metrosmoke/pkg/credentials"
	"metrosmoke/pkg/reporter"
)

// ErrInvalidConfig is returned by Validate
var ErrInvalidConfig = errors.New("invalid configuration")

// Logging levels, formats and outputs
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"

	FormatText = "text"
	FormatJSON = "json"

	OutputStderr = "stderr"
	OutputFile   = "file"
)

// Environment variables holding the keys under the platform's own names.
// They are consulted when the METRO_* variables are unset.
const (
	PlatformAnonKeyEnv    = "SUPABASE_ANON_KEY"
	PlatformServiceKeyEnv = "SUPABASE_SERVICE_ROLE_KEY"
)

// Config is the configuration object handed to the runner
type Config struct {
	// BaseURL is the platform project URL, e.g. https://<ref>.supabase.co
	BaseURL    string `yaml:"base_url" env:"METRO_BASE_URL"`
	AnonKey    string `yaml:"anon_key" env:"METRO_ANON_KEY"`
	ServiceKey string `yaml:"service_key" env:"METRO_SERVICE_KEY"`

	HTTPTimeout time.Duration `yaml:"http_timeout" env:"METRO_HTTP_TIMEOUT" env-default:"30s"`
	// RateLimit is the maximum requests per second; 0 disables pacing
	RateLimit float64 `yaml:"rate_limit" env:"METRO_RATE_LIMIT" env-default:"0"`

	ReportFormat string `yaml:"report_format" env:"METRO_REPORT_FORMAT" env-default:"text"`

	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig selects the slog handler and its destination
type LoggingConfig struct {
	Level    string `yaml:"level" env:"METRO_LOG_LEVEL" env-default:"info"`
	Format   string `yaml:"format" env:"METRO_LOG_FORMAT" env-default:"text"`
	Output   string `yaml:"output" env:"METRO_LOG_OUTPUT" env-default:"stderr"`
	FilePath string `yaml:"file" env:"METRO_LOG_FILE" env-default:"metrosmoke.log"`

	// Rotation of the log file, in MB and days
	MaxSize    int  `yaml:"max_size" env:"METRO_LOG_MAX_SIZE" env-default:"100"`
	MaxBackups int  `yaml:"max_backups" env:"METRO_LOG_MAX_BACKUPS" env-default:"3"`
	MaxAge     int  `yaml:"max_age" env:"METRO_LOG_MAX_AGE" env-default:"7"`
	Compress   bool `yaml:"compress" env:"METRO_LOG_COMPRESS" env-default:"true"`
}

// MetricsConfig enables pushing run counts to a Prometheus Pushgateway
type MetricsConfig struct {
	PushgatewayURL string        `yaml:"pushgateway_url" env:"METRO_PUSHGATEWAY_URL"`
	JobName        string        `yaml:"job_name" env:"METRO_METRICS_JOB" env-default:"metrosmoke"`
	Timeout        time.Duration `yaml:"timeout" env:"METRO_METRICS_TIMEOUT" env-default:"10s"`
}

// Enabled reports whether a Pushgateway is configured
func (m MetricsConfig) Enabled() bool {
	return m.PushgatewayURL != ""
}

// TracingConfig enables OTLP/HTTP trace export
type TracingConfig struct {
	Endpoint     string        `yaml:"endpoint" env:"METRO_OTLP_ENDPOINT"`
	ServiceName  string        `yaml:"service_name" env:"METRO_OTLP_SERVICE_NAME" env-default:"metrosmoke"`
	Insecure     bool          `yaml:"insecure" env:"METRO_OTLP_INSECURE" env-default:"true"`
	Timeout      time.Duration `yaml:"timeout" env:"METRO_OTLP_TIMEOUT" env-default:"5s"`
	SamplingRate float64       `yaml:"sampling_rate" env:"METRO_OTLP_SAMPLING_RATE" env-default:"1.0"`
}

// Enabled reports whether an OTLP endpoint is configured
func (t TracingConfig) Enabled() bool {
	return t.Endpoint != ""
}

// Load reads the configuration. With a path, the YAML file is read first and the
// environment overrides it; without one only the environment and defaults apply.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read config from environment: %w", err)
	}

	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	return &cfg, nil
}

// Validate checks that the configuration can drive a run
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: base URL is required (METRO_BASE_URL)", ErrInvalidConfig)
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: base URL '%s' must be an absolute http(s) URL", ErrInvalidConfig, c.BaseURL)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("%w: http timeout must be positive", ErrInvalidConfig)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("%w: rate limit cannot be negative", ErrInvalidConfig)
	}
	if !reporter.ValidFormat(c.ReportFormat) {
		return fmt.Errorf("%w: unknown report format '%s'", ErrInvalidConfig, c.ReportFormat)
	}

	switch c.Logging.Level {
	case LevelDebug, LevelInfo, LevelWarn, LevelError:
	default:
		return fmt.Errorf("%w: unknown log level '%s'", ErrInvalidConfig, c.Logging.Level)
	}
	switch c.Logging.Format {
	case FormatText, FormatJSON:
	default:
		return fmt.Errorf("%w: unknown log format '%s'", ErrInvalidConfig, c.Logging.Format)
	}
	switch c.Logging.Output {
	case OutputStderr:
	case OutputFile:
		if c.Logging.FilePath == "" {
			return fmt.Errorf("%w: log output 'file' requires a file path", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown log output '%s'", ErrInvalidConfig, c.Logging.Output)
	}

	if c.Tracing.Enabled() {
		if c.Tracing.Timeout <= 0 {
			return fmt.Errorf("%w: tracing timeout must be positive", ErrInvalidConfig)
		}
		if c.Tracing.SamplingRate < 0 || c.Tracing.SamplingRate > 1 {
			return fmt.Errorf("%w: sampling rate must be between 0.0 and 1.0, got %g", ErrInvalidConfig, c.Tracing.SamplingRate)
		}
	}

	return nil
}

// Credentials builds the provider for the auth schemes: configured keys first,
// then the platform's conventional environment variables
func (c *Config) Credentials() *credentials.Provider {
	return credentials.NewProvider(
		credentials.NewStaticResolver("config", map[string]string{
			credentials.RefAnonKey:    c.AnonKey,
			credentials.RefServiceKey: c.ServiceKey,
		}),
		credentials.NewEnvResolver(map[string]string{
			credentials.RefAnonKey:    PlatformAnonKeyEnv,
			credentials.RefServiceKey: PlatformServiceKeyEnv,
		}),
	)
}

// String renders the configuration with secrets masked
func (c *Config) String() string {
	return fmt.Sprintf("base_url=%s anon_key=%s service_key=%s http_timeout=%s rate_limit=%g report_format=%s log=%s/%s/%s metrics=%t tracing=%t",
		c.BaseURL,
		credentials.Redact(c.AnonKey),
		credentials.Redact(c.ServiceKey),
		c.HTTPTimeout,
		c.RateLimit,
		c.ReportFormat,
		c.Logging.Level, c.Logging.Format, c.Logging.Output,
		c.Metrics.Enabled(),
		c.Tracing.Enabled(),
	)
}

// LogValue implements slog.LogValuer so a logged Config never leaks keys
func (c *Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("base_url", c.BaseURL),
		slog.String("anon_key", credentials.Redact(c.AnonKey)),
		slog.String("service_key", credentials.Redact(c.ServiceKey)),
		slog.Duration("http_timeout", c.HTTPTimeout),
		slog.Float64("rate_limit", c.RateLimit),
		slog.Bool("metrics", c.Metrics.Enabled()),
		slog.Bool("tracing", c.Tracing.Enabled()),
	)
}
