// Package metrics exposes cache activity as Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/i474232898/dashboard-data-aggregation/internal/query"
)

// CacheObserver implements query.Observer with Prometheus collectors labelled
// by namespace.
type CacheObserver struct {
	subscriptions *prometheus.CounterVec
	fetches       *prometheus.HistogramVec
	discarded     *prometheus.CounterVec
	evicted       *prometheus.CounterVec
}

var _ query.Observer = (*CacheObserver)(nil)

// NewCacheObserver creates the collectors and registers them with reg.
func NewCacheObserver(reg prometheus.Registerer) (*CacheObserver, error) {
	o := &CacheObserver{
		subscriptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dashboard",
			Subsystem: "cache",
			Name:      "subscriptions_total",
			Help:      "Subscriptions by namespace and how they were satisfied.",
		}, []string{"namespace", "outcome"}),
		fetches: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dashboard",
			Subsystem: "cache",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of settled upstream fetches by namespace and final status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"namespace", "status"}),
		discarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dashboard",
			Subsystem: "cache",
			Name:      "discarded_results_total",
			Help:      "Fetch results dropped because they were superseded or their entry was evicted.",
		}, []string{"namespace"}),
		evicted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dashboard",
			Subsystem: "cache",
			Name:      "evictions_total",
			Help:      "Entries evicted by the sweep.",
		}, []string{"namespace"}),
	}

	for _, c := range []prometheus.Collector{o.subscriptions, o.fetches, o.discarded, o.evicted} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func (o *CacheObserver) Subscribed(namespace string, outcome query.Outcome) {
	o.subscriptions.WithLabelValues(namespace, string(outcome)).Inc()
}

func (o *CacheObserver) Settled(namespace string, status query.Status, elapsed time.Duration) {
	o.fetches.WithLabelValues(namespace, status.String()).Observe(elapsed.Seconds())
}

func (o *CacheObserver) Discarded(namespace string) {
	o.discarded.WithLabelValues(namespace).Inc()
}

func (o *CacheObserver) Evicted(namespace string, n int) {
	o.evicted.WithLabelValues(namespace).Add(float64(n))
}

// EntriesCollector reports the live entry count of each cache as a gauge.
type EntriesCollector struct {
	desc   *prometheus.Desc
	caches []*query.Cache
}

// NewEntriesCollector creates a collector over caches.
func NewEntriesCollector(caches ...*query.Cache) *EntriesCollector {
	return &EntriesCollector{
		desc: prometheus.NewDesc(
			"dashboard_cache_entries",
			"Number of entries currently held by each cache namespace.",
			[]string{"namespace"}, nil,
		),
		caches: caches,
	}
}

func (c *EntriesCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

func (c *EntriesCollector) Collect(ch chan<- prometheus.Metric) {
	for _, cache := range c.caches {
		ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(cache.Len()), cache.Namespace())
	}
}
