package metrics

import "github.com/prometheus/client_golang/prometheus"

// Option configures a Collector.
type Option func(*Collector)

// WithNamespace sets the metric namespace.
func WithNamespace(namespace string) Option {
	return func(c *Collector) {
		c.namespace = namespace
	}
}

// WithRegistry sets the registry the metrics are registered with and
// gathered from.
func WithRegistry(r *prometheus.Registry) Option {
	return func(c *Collector) {
		c.registry = r
	}
}

// WithHistogramBuckets sets the buckets of the round duration histogram, in
// seconds of wall time.
func WithHistogramBuckets(buckets []float64) Option {
	return func(c *Collector) {
		c.buckets = buckets
	}
}
