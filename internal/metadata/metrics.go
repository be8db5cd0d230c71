package metadata

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "beu_result_proxy"

type collectors struct {
	cacheLookups  *prometheus.CounterVec
	fetches       *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	errors        *prometheus.CounterVec
	artifacts     *prometheus.CounterVec
}

func newCollectors(registerer prometheus.Registerer) *collectors {
	factory := promauto.With(registerer)
	return &collectors{
		cacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_lookups_total",
				Help:      "Cache lookups by cache and outcome (hit or miss)",
			},
			[]string{"cache", "outcome"},
		),
		fetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_fetches_total",
				Help:      "Upstream requests by method and HTTP status (0 when no response arrived)",
			},
			[]string{"method", "status"},
		),
		fetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "upstream_fetch_duration_seconds",
				Help:      "Latency of upstream requests",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 20},
			},
			[]string{"method"},
		),
		errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Classified errors by package and cause",
			},
			[]string{"package", "cause"},
		),
		artifacts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "artifacts_total",
				Help:      "Produced artifacts by kind",
			},
			[]string{"kind"},
		),
	}
}
