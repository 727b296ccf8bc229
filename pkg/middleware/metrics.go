package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	errs "github.com/edom-dev/edom/internal/errors"
	"github.com/edom-dev/edom/pkg/server"
)

// MetricsConfig configures the Prometheus metrics middleware.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "edom").
	Namespace string

	// Subsystem is the metrics subsystem (default: "cycle").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for cycle duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics middleware.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the duration histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "edom",
		Subsystem: "cycle",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the collectors behind one Prometheus middleware.
type Metrics struct {
	cyclesTotal   *prometheus.CounterVec
	cycleDuration *prometheus.HistogramVec
	cycleErrors   *prometheus.CounterVec
	opsPerCycle   prometheus.Histogram
	frameBytes    prometheus.Histogram
}

func newMetrics(config MetricsConfig) *Metrics {
	factory := promauto.With(config.Registry)

	return &Metrics{
		cyclesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "total",
			Help:        "Total number of cycles run, by kind and status",
			ConstLabels: config.ConstLabels,
		}, []string{"kind", "status"}),

		cycleDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "duration_seconds",
			Help:        "Cycle duration in seconds, including the ops frame write",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"kind"}),

		cycleErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "errors_total",
			Help:        "Total number of failed cycles, by kind and error code",
			ConstLabels: config.ConstLabels,
		}, []string{"kind", "code"}),

		opsPerCycle: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "host_ops",
			Help:        "Host operations produced per cycle",
			ConstLabels: config.ConstLabels,
			Buckets:     []float64{0, 1, 2, 5, 10, 50, 100, 1000, 10000},
		}),

		frameBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "frame_bytes",
			Help:        "Ops frame payload size per cycle",
			ConstLabels: config.ConstLabels,
			Buckets:     prometheus.ExponentialBuckets(64, 4, 8), // 64B to 1MB
		}),
	}
}

// Prometheus creates middleware that records every cycle.
//
// Metrics collected (default namespace and subsystem):
//   - edom_cycle_total: cycles by kind and status
//   - edom_cycle_duration_seconds: cycle duration by kind
//   - edom_cycle_errors_total: failed cycles by kind and error code
//   - edom_cycle_host_ops: host operations per cycle
//   - edom_cycle_frame_bytes: ops frame payload size per cycle
//
// Each call registers a fresh set of collectors, so call it once per
// registry.
//
//	reg := prometheus.NewRegistry()
//	srv := server.New(app, nil,
//	    server.WithRegistry(reg),
//	    server.WithMiddleware(middleware.Prometheus(middleware.WithRegistry(reg))),
//	)
func Prometheus(opts ...MetricsOption) server.Middleware {
	mw, _ := PrometheusWithMetrics(opts...)
	return mw
}

// PrometheusWithMetrics is Prometheus but also returns the collectors.
func PrometheusWithMetrics(opts ...MetricsOption) (server.Middleware, *Metrics) {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	m := newMetrics(config)

	return func(next server.CycleFunc) server.CycleFunc {
		return func(ctx context.Context, c *server.Cycle) error {
			start := time.Now()
			err := next(ctx, c)
			m.observe(c, time.Since(start), err)
			return err
		}
	}, m
}

func (m *Metrics) observe(c *server.Cycle, d time.Duration, err error) {
	kind := string(c.Kind)
	m.cycleDuration.WithLabelValues(kind).Observe(d.Seconds())
	m.opsPerCycle.Observe(float64(c.Ops))
	if c.Bytes > 0 {
		m.frameBytes.Observe(float64(c.Bytes))
	}

	if err != nil {
		m.cyclesTotal.WithLabelValues(kind, "error").Inc()
		m.cycleErrors.WithLabelValues(kind, errorCode(err)).Inc()
		return
	}
	m.cyclesTotal.WithLabelValues(kind, "success").Inc()
}

// errorCode keeps the code label bounded: coded errors report their code,
// everything else is "internal".
func errorCode(err error) string {
	if code := errs.Code(err); code != "" {
		return code
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "canceled"
	}
	return "internal"
}
