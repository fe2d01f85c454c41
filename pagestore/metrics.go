package pagestore

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts the work done by a Store.
type Metrics struct {
	Fetches     prometheus.Counter
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter
	Prefetched  prometheus.Counter
	Writes      prometheus.Counter
	Errors      *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Fetches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "listscan",
			Subsystem: "pagestore",
			Name:      "fetches_total",
			Help:      "Number of FetchPage calls.",
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "listscan",
			Subsystem: "pagestore",
			Name:      "cache_hits_total",
			Help:      "Number of pages found in the page cache.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "listscan",
			Subsystem: "pagestore",
			Name:      "cache_misses_total",
			Help:      "Number of pages read from the key value store.",
		}),
		Prefetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "listscan",
			Subsystem: "pagestore",
			Name:      "prefetched_pages_total",
			Help:      "Number of pages returned after the requested page.",
		}),
		Writes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "listscan",
			Subsystem: "pagestore",
			Name:      "writes_total",
			Help:      "Number of pages written.",
		}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "listscan",
			Subsystem: "pagestore",
			Name:      "errors_total",
			Help:      "Number of failed operations.",
		}, []string{"op"}),
	}

	if reg != nil {
		reg.MustRegister(m.Fetches, m.CacheHits, m.CacheMisses, m.Prefetched, m.Writes,
			m.Errors)
	}
	return m
}
