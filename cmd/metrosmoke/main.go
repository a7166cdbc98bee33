// Package main implements the metrosmoke command.
// It loads the configuration and a suite, runs the suite against the configured
// platform, prints the report on stdout and exits non-zero when any check failed.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"metrosmoke/pkg/config"
	"metrosmoke/pkg/logging"
	"metrosmoke/pkg/metrics"
	"metrosmoke/pkg/reporter"
	"metrosmoke/pkg/runner"
	"metrosmoke/pkg/suite"
	"metrosmoke/pkg/tracing"
)

// shutdownTimeout bounds the metrics push and trace flush after a run
const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// varFlags collects repeated -var name=value flags
type varFlags map[string]interface{}

func (v varFlags) String() string {
	names := make([]string, 0, len(v))
	for name := range v {
		names = append(names, name)
	}
	return strings.Join(names, ",")
}

// Set parses the value as YAML so lists and numbers keep their type
func (v varFlags) Set(s string) error {
	name, raw, ok := strings.Cut(s, "=")
	if !ok || strings.TrimSpace(name) == "" {
		return fmt.Errorf("expected name=value, got %q", s)
	}
	var value interface{}
	if err := yaml.Unmarshal([]byte(raw), &value); err != nil || value == nil {
		value = raw
	}
	v[strings.TrimSpace(name)] = value
	return nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("metrosmoke", flag.ContinueOnError)
	fs.SetOutput(stderr)
	suiteRef := fs.String("suite", "booking", "Built-in suite name or path to a suite YAML file")
	configPath := fs.String("config", "", "Path to a YAML configuration file (environment overrides it)")
	baseURL := fs.String("base-url", "", "Platform base URL, overrides METRO_BASE_URL")
	format := fs.String("format", "", "Report format (text, json)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	list := fs.Bool("list", false, "List built-in suites and exit")
	vars := varFlags{}
	fs.Var(vars, "var", "Override a suite variable, name=value (repeatable)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return reporter.ExitOK
		}
		return reporter.ExitUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "unexpected arguments: %s\n", strings.Join(fs.Args(), " "))
		fs.Usage()
		return reporter.ExitUsage
	}

	if *list {
		for _, name := range suite.BuiltinNames() {
			fmt.Fprintln(stdout, name)
		}
		return reporter.ExitOK
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return reporter.ExitUsage
	}
	if *baseURL != "" {
		cfg.BaseURL = strings.TrimRight(*baseURL, "/")
	}
	if *format != "" {
		cfg.ReportFormat = *format
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return reporter.ExitUsage
	}

	logger, closeLog := logging.New(cfg.Logging)
	defer func() { _ = closeLog() }()
	slog.SetDefault(logger)
	logger.Debug("Configuration loaded", "config", cfg)

	s, err := suite.Load(*suiteRef)
	if err != nil {
		logger.Error("Failed to load suite", "suite", *suiteRef, "error", err)
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return reporter.ExitUsage
	}

	tp, shutdownTracing, err := tracing.NewTracerProvider(cfg.Tracing, logger)
	if err != nil {
		logger.Warn("Tracing disabled", "error", err)
		tp, shutdownTracing, _ = tracing.NewTracerProvider(config.TracingConfig{}, logger)
	}
	collector := metrics.NewCollector(cfg.Metrics, logger)

	opts := runner.OptionsFromConfig(cfg)
	opts.Logger = logger
	opts.Metrics = collector
	opts.Tracer = tp.Tracer(tracing.InstrumentationName)
	opts.Variables = vars

	report := runner.New(opts).Run(ctx, s)

	if err := reporter.NewWriter(cfg.ReportFormat).Write(stdout, report); err != nil {
		logger.Error("Failed to write report", "error", err)
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	_ = collector.Push(flushCtx)
	if err := shutdownTracing(flushCtx); err != nil {
		logger.Warn("Failed to flush traces", "error", err)
	}

	return report.ExitCode()
}
