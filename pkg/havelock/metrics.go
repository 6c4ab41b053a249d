package havelock

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the Prometheus metrics for a graph.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "havelock").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for propagation duration.
	// Default: prometheus.DefBuckets.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
}

// MetricsOption configures the metrics collector.
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

// WithBuckets sets the propagation duration histogram buckets.
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
		Namespace: "havelock",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the Prometheus instruments for one graph. Attach with
// WithMetrics.
//
// Metrics collected:
//   - havelock_atom_writes_total: Counter of committed direct atom writes
//   - havelock_staged_writes_total: Counter of writes staged into transactions
//   - havelock_derivation_recomputes_total: Counter of derivation recomputations
//   - havelock_reactions_fired_total: Counter of reaction callback invocations
//   - havelock_transactions_total: Counter of root and nested frames by outcome
//   - havelock_propagation_duration_seconds: Histogram of propagation pass duration
//   - havelock_active_reactions: Gauge of started reactions
type Metrics struct {
	atomWrites           prometheus.Counter
	stagedWrites         prometheus.Counter
	derivationRecomputes prometheus.Counter
	reactionsFired       prometheus.Counter
	transactions         *prometheus.CounterVec
	propagationDuration  prometheus.Histogram
	activeReactions      prometheus.Gauge
}

// NewMetrics creates the metrics instruments and registers them.
//
// Example:
//
//	reg := prometheus.NewRegistry()
//	g := havelock.NewGraph(
//	    havelock.WithMetrics(havelock.NewMetrics(havelock.WithRegistry(reg))),
//	)
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	return &Metrics{
		atomWrites: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "atom_writes_total",
			Help:        "Total number of committed direct atom writes",
			ConstLabels: config.ConstLabels,
		}),

		stagedWrites: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "staged_writes_total",
			Help:        "Total number of atom writes staged into transaction frames",
			ConstLabels: config.ConstLabels,
		}),

		derivationRecomputes: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "derivation_recomputes_total",
			Help:        "Total number of derivation recomputations",
			ConstLabels: config.ConstLabels,
		}),

		reactionsFired: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "reactions_fired_total",
			Help:        "Total number of reaction callback invocations",
			ConstLabels: config.ConstLabels,
		}),

		transactions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "transactions_total",
			Help:        "Total number of transaction frames by outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"outcome"}),

		propagationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "propagation_duration_seconds",
			Help:        "Propagation pass duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		activeReactions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_reactions",
			Help:        "Number of started reactions",
			ConstLabels: config.ConstLabels,
		}),
	}
}
