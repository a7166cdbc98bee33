// Package metrics exports run results to a Prometheus Pushgateway.
// A smoke run is a short-lived batch job, so counts are pushed once at the end
// instead of being scraped.
package metrics

import (
	"context"
	"log/slog"
	"os"
	"time"

	"metrosmoke/pkg/config"
	"metrosmoke/pkg/reporter"
)

// Collector records check and run results
type Collector interface {
	// RecordCheck records one executed or skipped check
	RecordCheck(suite, check string, status reporter.Status, duration time.Duration)

	// RecordRun records the summary of a finished run
	RecordRun(suite string, summary reporter.Summary, duration time.Duration)

	// Push sends the metrics. Failures are logged, never returned.
	Push(ctx context.Context) error
}

// NewCollector returns a Pushgateway collector when one is configured, and a
// NopCollector otherwise
func NewCollector(cfg config.MetricsConfig, logger *slog.Logger) Collector {
	if !cfg.Enabled() {
		return NopCollector{}
	}

	collector, err := NewPrometheusCollector(cfg, logger)
	if err != nil {
		logger.Warn("metrics disabled", "error", err)
		return NopCollector{}
	}
	return collector
}

// NopCollector discards everything
type NopCollector struct{}

// RecordCheck implements Collector
func (NopCollector) RecordCheck(suite, check string, status reporter.Status, duration time.Duration) {}

// RecordRun implements Collector
func (NopCollector) RecordRun(suite string, summary reporter.Summary, duration time.Duration) {}

// Push implements Collector
func (NopCollector) Push(ctx context.Context) error { return nil }

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}
