// Package metrics exports the progress of a simulation as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/blofeld/blofeld/engine"
	"github.com/blofeld/blofeld/sim"
)

// Collector is a hook that turns engine rounds into metrics.
type Collector struct {
	namespace string
	buckets   []float64
	registry  *prometheus.Registry

	events        *prometheus.CounterVec
	dropped       prometheus.Counter
	extinctions   prometheus.Counter
	rounds        prometheus.Gauge
	simTime       prometheus.Gauge
	totalWeight   prometheus.Gauge
	candidates    prometheus.Gauge
	roundDuration prometheus.Histogram

	roundStart time.Time
	now        func() time.Time
}

// NewCollector creates a collector and registers its metrics. Without
// WithRegistry, a fresh registry is used.
func NewCollector(opts ...Option) *Collector {
	c := &Collector{
		namespace: "blofeld",
		buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.registry == nil {
		c.registry = prometheus.NewRegistry()
	}

	c.initializeMetrics()

	return c
}

func (c *Collector) initializeMetrics() {
	auto := promauto.With(c.registry)

	c.events = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: c.namespace,
		Name:      "events_total",
		Help:      "Number of dispatched events",
	}, []string{"module", "outcome"})

	c.dropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: c.namespace,
		Name:      "dropped_proposals_total",
		Help:      "Number of proposals dropped for an invalid rate or a stale individual",
	})

	c.extinctions = auto.NewCounter(prometheus.CounterOpts{
		Namespace: c.namespace,
		Name:      "no_eligible_events_total",
		Help:      "Number of rounds that found no eligible event",
	})

	c.rounds = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: c.namespace,
		Name:      "rounds",
		Help:      "Number of dispatched rounds",
	})

	c.simTime = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: c.namespace,
		Name:      "simulated_time",
		Help:      "Simulated time of the last dispatched event",
	})

	c.totalWeight = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: c.namespace,
		Name:      "total_weight",
		Help:      "Total weight of the last round",
	})

	c.candidates = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: c.namespace,
		Name:      "candidates",
		Help:      "Number of candidates of the last round",
	})

	c.roundDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: c.namespace,
		Name:      "round_duration_seconds",
		Help:      "Wall time from the start of a round to its dispatch",
		Buckets:   c.buckets,
	})
}

// Registry returns the registry holding the metrics.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Func updates the metrics. The engine calls hooks from one goroutine at a
// time.
func (c *Collector) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case sim.HookPosRoundStart:
		c.roundStart = c.now()
	case sim.HookPosCandidateDropped:
		c.dropped.Inc()
	case sim.HookPosNoEligibleEvents:
		c.extinctions.Inc()
	case sim.HookPosAfterDispatch:
		r, ok := ctx.Item.(engine.Round)
		if !ok {
			return
		}

		c.observe(r)
	}
}

func (c *Collector) observe(r engine.Round) {
	candidate := r.Selection.Candidate

	c.events.WithLabelValues(
		string(candidate.Module), string(candidate.Outcome)).Inc()
	c.rounds.Set(float64(r.Number))
	c.simTime.Set(float64(r.Time))
	c.totalWeight.Set(float64(r.Selection.TotalWeight))
	c.candidates.Set(float64(r.Candidates))

	if !c.roundStart.IsZero() {
		c.roundDuration.Observe(c.now().Sub(c.roundStart).Seconds())
		c.roundStart = time.Time{}
	}
}
