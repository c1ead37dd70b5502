// Package prom exports provider metrics to Prometheus.
package prom

import (
	"time"

	"github.com/IvanBrykalov/singleton/instance"
	"github.com/prometheus/client_golang/prometheus"
)

// Adapter implements instance.Metrics and exports Prometheus counters and
// histograms. Safe for concurrent use; all Prometheus metric types are
// goroutine-safe.
type Adapter struct {
	hits          prometheus.Counter
	misses        prometheus.Counter
	constructions prometheus.Counter
	failures      prometheus.Counter
	buildTime     prometheus.Histogram
	lockWait      prometheus.Histogram
}

// New constructs a Prometheus metrics adapter.
//   - reg:          registry to register metrics with (nil => prometheus.DefaultRegisterer)
//   - ns, sub:      Prometheus namespace and subsystem
//   - constLabels:  static labels applied to all metrics, e.g. {"policy": "holder"}
//
// One adapter serves one provider; use const labels to tell providers apart
// when several share a registry.
func New(reg prometheus.Registerer, ns, sub string, constLabels prometheus.Labels) *Adapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        name,
			Help:        help,
			ConstLabels: constLabels,
		})
	}
	a := &Adapter{
		hits:          counter("hits_total", "Accesses served by an existing instance"),
		misses:        counter("misses_total", "Accesses that ran the constructor"),
		constructions: counter("constructions_total", "Successful constructions"),
		failures:      counter("failures_total", "Failed constructions"),
		buildTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "construction_seconds",
			Help:        "Duration of successful constructions",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}),
		lockWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "lock_wait_seconds",
			Help:        "Time accesses spent blocked on the provider lock",
			ConstLabels: constLabels,
			Buckets:     prometheus.ExponentialBuckets(1e-7, 10, 8),
		}),
	}
	reg.MustRegister(a.hits, a.misses, a.constructions, a.failures, a.buildTime, a.lockWait)
	return a
}

// Hit increments the hit counter.
func (a *Adapter) Hit() { a.hits.Inc() }

// Miss increments the miss counter.
func (a *Adapter) Miss() { a.misses.Inc() }

// Constructed counts a construction and observes its duration.
func (a *Adapter) Constructed(d time.Duration) {
	a.constructions.Inc()
	a.buildTime.Observe(d.Seconds())
}

// Failed increments the failure counter.
func (a *Adapter) Failed() { a.failures.Inc() }

// Wait observes time spent on the provider lock.
func (a *Adapter) Wait(d time.Duration) { a.lockWait.Observe(d.Seconds()) }

// Compile-time check: ensure Adapter implements instance.Metrics.
var _ instance.Metrics = (*Adapter)(nil)
