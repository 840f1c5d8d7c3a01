// Package metrics exposes Prometheus instrumentation for the infra clients.
//
// Instrumentation is opt-in: call InitMetrics once at startup before
// building clients, then serve the default registry (promhttp) however
// the host process exposes it. Without InitMetrics every recording call
// is a no-op, so consumers that do not run Prometheus pay nothing.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Looker session metrics
	lookerLoginsTotal   *prometheus.CounterVec
	lookerRetriesTotal  prometheus.Counter
	lookerQueryDuration *prometheus.HistogramVec

	// Secret store metrics
	secretResolvesTotal *prometheus.CounterVec

	// Warehouse metrics
	warehouseQueryDuration *prometheus.HistogramVec

	// Registration guard
	metricsOnce       sync.Once
	metricsRegistered bool
)

// InfraMetrics provides methods to record client metrics.
// Recording is a no-op until InitMetrics has been called, so library
// consumers that do not run a Prometheus endpoint pay nothing.
type InfraMetrics struct{}

// NewInfraMetrics creates a new InfraMetrics instance.
func NewInfraMetrics() *InfraMetrics {
	return &InfraMetrics{}
}

// InitMetrics initializes all Prometheus metrics.
// This should be called once at startup if Prometheus metrics are enabled.
func InitMetrics() {
	metricsOnce.Do(func() {
		lookerLoginsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "subhub_infra_looker_logins_total",
				Help: "Total number of Looker login attempts",
			},
			[]string{"status"},
		)

		lookerRetriesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "subhub_infra_looker_auth_retries_total",
				Help: "Total number of query re-sends after token refresh",
			},
		)

		lookerQueryDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "subhub_infra_looker_query_duration_seconds",
				Help:    "Duration of Looker query executions in seconds",
				Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300},
			},
			[]string{"status"},
		)

		secretResolvesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "subhub_infra_secret_resolves_total",
				Help: "Total number of secret resolutions",
			},
			[]string{"provider", "status"},
		)

		warehouseQueryDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "subhub_infra_warehouse_query_duration_seconds",
				Help:    "Duration of warehouse query executions in seconds",
				Buckets: []float64{0.1, 0.5, 1, 5, 30, 120, 600},
			},
			[]string{"driver", "status"},
		)

		metricsRegistered = true
	})
}

// RecordLogin records a Looker login attempt.
func (m *InfraMetrics) RecordLogin(status string) {
	if !metricsRegistered || lookerLoginsTotal == nil {
		return
	}
	lookerLoginsTotal.WithLabelValues(status).Inc()
}

// RecordAuthRetry records a query re-send after a token refresh.
func (m *InfraMetrics) RecordAuthRetry() {
	if !metricsRegistered || lookerRetriesTotal == nil {
		return
	}
	lookerRetriesTotal.Inc()
}

// RecordLookerQuery records a completed Looker query and its duration.
func (m *InfraMetrics) RecordLookerQuery(status string, seconds float64) {
	if !metricsRegistered || lookerQueryDuration == nil {
		return
	}
	lookerQueryDuration.WithLabelValues(status).Observe(seconds)
}

// RecordSecretResolve records a secret resolution attempt.
func (m *InfraMetrics) RecordSecretResolve(provider, status string) {
	if !metricsRegistered || secretResolvesTotal == nil {
		return
	}
	secretResolvesTotal.WithLabelValues(provider, status).Inc()
}

// RecordWarehouseQuery records a completed warehouse query and its duration.
func (m *InfraMetrics) RecordWarehouseQuery(driver, status string, seconds float64) {
	if !metricsRegistered || warehouseQueryDuration == nil {
		return
	}
	warehouseQueryDuration.WithLabelValues(driver, status).Observe(seconds)
}
