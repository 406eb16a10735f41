// Package metrics exposes game counters in the Prometheus text format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	PlaysStarted   prometheus.Counter
	PlaysEnded     *prometheus.CounterVec // by outcome
	Collections    *prometheus.CounterVec // by category
	LivePlays      prometheus.Gauge
	SocketClients  prometheus.Gauge
	BatchesWritten prometheus.Counter
	BatchErrors    prometheus.Counter
}

// New registers the game metrics on a fresh registry together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		PlaysStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lunastars",
			Name:      "plays_started_total",
			Help:      "Attempts started.",
		}),
		PlaysEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lunastars",
			Name:      "plays_ended_total",
			Help:      "Attempts ended, by outcome.",
		}, []string{"outcome"}),
		Collections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lunastars",
			Name:      "collections_total",
			Help:      "Items collected, by category.",
		}, []string{"category"}),
		LivePlays: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lunastars",
			Name:      "live_plays",
			Help:      "Plays held in memory.",
		}),
		SocketClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lunastars",
			Name:      "socket_clients",
			Help:      "Connected websocket clients.",
		}),
		BatchesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lunastars",
			Name:      "collection_batches_written_total",
			Help:      "Collection batches flushed to the database.",
		}),
		BatchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lunastars",
			Name:      "collection_batch_errors_total",
			Help:      "Collection batches that failed to write.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.PlaysStarted,
		m.PlaysEnded,
		m.Collections,
		m.LivePlays,
		m.SocketClients,
		m.BatchesWritten,
		m.BatchErrors,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
