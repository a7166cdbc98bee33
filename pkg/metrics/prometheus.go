package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"metrosmoke/pkg/config"
	"metrosmoke/pkg/credentials"
	"metrosmoke/pkg/reporter"
)

const namespace = "metrosmoke"

// PrometheusCollector keeps metrics in a private registry and pushes them on Push
type PrometheusCollector struct {
	cfg      config.MetricsConfig
	logger   *slog.Logger
	registry *prometheus.Registry
	instance string

	checksTotal   *prometheus.CounterVec
	checkDuration *prometheus.HistogramVec
	runChecks     *prometheus.GaugeVec
	runRate       *prometheus.GaugeVec
	runDuration   *prometheus.GaugeVec
}

// NewPrometheusCollector registers the metrosmoke metrics:
//   - metrosmoke_checks_total (counter by suite and status)
//   - metrosmoke_check_duration_seconds (histogram by suite and status)
//   - metrosmoke_run_checks (gauge by suite and status, last run)
//   - metrosmoke_run_success_rate (gauge, percent)
//   - metrosmoke_run_duration_seconds (gauge)
func NewPrometheusCollector(cfg config.MetricsConfig, logger *slog.Logger) (*PrometheusCollector, error) {
	if cfg.PushgatewayURL == "" {
		return nil, fmt.Errorf("pushgateway URL is required")
	}
	if cfg.JobName == "" {
		cfg.JobName = namespace
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &PrometheusCollector{
		cfg:      cfg,
		logger:   logger,
		registry: prometheus.NewRegistry(),
		instance: hostname(),
		checksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checks_total",
			Help:      "Number of checks by outcome",
		}, []string{"suite", "status"}),
		checkDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "check_duration_seconds",
			Help:      "Duration of executed checks in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"suite", "status"}),
		runChecks: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_checks",
			Help:      "Checks of the last run by outcome",
		}, []string{"suite", "status"}),
		runRate: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_success_rate",
			Help:      "Passed over executed checks of the last run, in percent",
		}, []string{"suite"}),
		runDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run in seconds",
		}, []string{"suite"}),
	}

	for _, m := range []prometheus.Collector{c.checksTotal, c.checkDuration, c.runChecks, c.runRate, c.runDuration} {
		if err := c.registry.Register(m); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}

	return c, nil
}

// maxLabelLength bounds label values
const maxLabelLength = 128

// sanitizeLabel replaces control characters and truncates by runes
func sanitizeLabel(value string) string {
	clean := strings.Map(func(r rune) rune {
		if r < 0x20 {
			return '_'
		}
		return r
	}, value)

	runes := []rune(clean)
	if len(runes) > maxLabelLength {
		return string(runes[:maxLabelLength])
	}
	return clean
}

// RecordCheck implements Collector
func (c *PrometheusCollector) RecordCheck(suite, check string, status reporter.Status, duration time.Duration) {
	suite = sanitizeLabel(suite)
	c.checksTotal.WithLabelValues(suite, string(status)).Inc()
	if status != reporter.StatusSkipped {
		c.checkDuration.WithLabelValues(suite, string(status)).Observe(duration.Seconds())
	}
}

// RecordRun implements Collector
func (c *PrometheusCollector) RecordRun(suite string, summary reporter.Summary, duration time.Duration) {
	suite = sanitizeLabel(suite)
	c.runChecks.WithLabelValues(suite, string(reporter.StatusPassed)).Set(float64(summary.Passed))
	c.runChecks.WithLabelValues(suite, string(reporter.StatusFailed)).Set(float64(summary.Failed))
	c.runChecks.WithLabelValues(suite, string(reporter.StatusSkipped)).Set(float64(summary.Skipped))
	c.runRate.WithLabelValues(suite).Set(summary.SuccessRate)
	c.runDuration.WithLabelValues(suite).Set(duration.Seconds())
}

// Push implements Collector
func (c *PrometheusCollector) Push(ctx context.Context) error {
	select {
	case <-ctx.Done():
		c.logger.Debug("metrics push cancelled")
		return nil
	default:
	}

	pusher := push.New(c.cfg.PushgatewayURL, c.cfg.JobName).
		Gatherer(c.registry).
		Grouping("instance", c.instance)

	pushCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	if err := pusher.PushContext(pushCtx); err != nil {
		c.logger.Error("failed to push metrics",
			"error", err.Error(),
			"url", credentials.MaskURL(c.cfg.PushgatewayURL),
			"job", c.cfg.JobName,
		)
		return nil
	}

	c.logger.Info("metrics pushed",
		"url", credentials.MaskURL(c.cfg.PushgatewayURL),
		"job", c.cfg.JobName,
	)
	return nil
}

// Registry exposes the registry to tests
func (c *PrometheusCollector) Registry() *prometheus.Registry {
	return c.registry
}
