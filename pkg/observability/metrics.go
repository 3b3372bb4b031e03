package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "forestml"

// Outcome labels.
const (
	StatusOK       = "ok"
	StatusNotFound = "not_found"
	StatusError    = "error"
)

// Metrics holds the collectors shared by the services.
type Metrics struct {
	// publishes counts publish calls.
	// Labels: algorithm, status (ok, error)
	publishes *prometheus.CounterVec

	// publishedTrees counts ML.FOREST.ADD lines sent to the engine.
	publishedTrees prometheus.Counter

	// scores counts score calls.
	// Labels: model_type, status (ok, not_found, error)
	scores *prometheus.CounterVec

	// scoreDuration measures engine round trips of score calls.
	// Labels: model_type
	scoreDuration *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// NewMetrics registers the collectors on reg. When reg is also a
// prometheus.Gatherer, Handler serves it.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{
		publishes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "publish",
			Name:      "requests_total",
			Help:      "Total publish calls by algorithm and outcome",
		}, []string{"algorithm", "status"}),
		publishedTrees: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "publish",
			Name:      "trees_total",
			Help:      "Total trees added to the engine",
		}),
		scores: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "score",
			Name:      "requests_total",
			Help:      "Total score calls by output type and outcome",
		}, []string{"model_type", "status"}),
		scoreDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "score",
			Name:      "duration_seconds",
			Help:      "Engine latency of score calls in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		}, []string{"model_type"}),
	}
	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	}
	return m
}

// ObservePublish records one publish call and the number of trees it added.
func (m *Metrics) ObservePublish(algorithm, status string, trees int) {
	if m == nil {
		return
	}
	m.publishes.WithLabelValues(algorithm, status).Inc()
	if status == StatusOK {
		m.publishedTrees.Add(float64(trees))
	}
}

// ObserveScore records one score call. The duration is only observed for
// calls that reached the engine.
func (m *Metrics) ObserveScore(modelType, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.scores.WithLabelValues(modelType, status).Inc()
	if status == StatusOK {
		m.scoreDuration.WithLabelValues(modelType).Observe(d.Seconds())
	}
}

// Handler serves the Prometheus exposition format for the registry the
// metrics were created on, or the default gatherer.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
