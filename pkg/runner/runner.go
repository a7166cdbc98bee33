// Package runner executes a suite of checks in order and records one result per check.
// A check whose prerequisites are missing is skipped, a check whose request or
// expectation fails is recorded as failed, and the run always continues to the end.
package runner

import (
	"log/slog"
	"net/http"
	"os"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/time/rate"

	"metrosmoke/pkg/actions"
	"metrosmoke/pkg/checks"
	"metrosmoke/pkg/config"
	"metrosmoke/pkg/credentials"
	"metrosmoke/pkg/extractors"
	"metrosmoke/pkg/metrics"
	"metrosmoke/pkg/tracing"
)

// Options is the explicit configuration of a Runner. Zero fields get defaults.
type Options struct {
	// BaseURL is exposed to suites as {{ config.base_url }}
	BaseURL     string
	Client      *http.Client
	Credentials *credentials.Provider
	// Limiter paces outbound requests; nil means unlimited
	Limiter *rate.Limiter
	Logger  *slog.Logger
	Metrics metrics.Collector
	Tracer  trace.Tracer

	// Variables override suite variables of the same name
	Variables map[string]interface{}
	// LookupEnv reads the environment names a suite lists; defaults to os.LookupEnv
	LookupEnv func(string) (string, bool)

	Actions    *actions.ActionRegistry
	Extractors *extractors.ExtractorRegistry
	Checks     *checks.CheckRegistry
}

// Runner interprets suites
type Runner struct {
	opts Options
	env  *actions.Env
}

// New creates a Runner
func New(opts Options) *Runner {
	if opts.Client == nil {
		opts.Client = actions.NewHTTPClient(actions.DefaultTimeout)
	}
	if opts.Credentials == nil {
		opts.Credentials = credentials.NewProvider()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NopCollector{}
	}
	if opts.Tracer == nil {
		opts.Tracer = noop.NewTracerProvider().Tracer(tracing.InstrumentationName)
	}
	if opts.LookupEnv == nil {
		opts.LookupEnv = os.LookupEnv
	}
	if opts.Actions == nil {
		opts.Actions = actions.DefaultRegistry
	}
	if opts.Extractors == nil {
		opts.Extractors = extractors.DefaultRegistry
	}
	if opts.Checks == nil {
		opts.Checks = checks.DefaultRegistry
	}

	return &Runner{
		opts: opts,
		env: &actions.Env{
			Client:      opts.Client,
			Credentials: opts.Credentials,
			Limiter:     opts.Limiter,
			Logger:      opts.Logger,
		},
	}
}

// OptionsFromConfig fills the transport and credential options from cfg
func OptionsFromConfig(cfg *config.Config) Options {
	opts := Options{
		BaseURL:     cfg.BaseURL,
		Client:      actions.NewHTTPClient(cfg.HTTPTimeout),
		Credentials: cfg.Credentials(),
	}
	if cfg.RateLimit > 0 {
		opts.Limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	return opts
}
