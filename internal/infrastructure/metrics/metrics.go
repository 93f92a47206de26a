// Package metrics expone métricas Prometheus del libro de inventario.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/autocare-estoque/internal/application/inventory"
)

var _ inventory.MovementObserver = (*LedgerMetrics)(nil)

// LedgerMetrics implementa inventory.MovementObserver sobre un registro propio.
type LedgerMetrics struct {
	registry  *prometheus.Registry
	movements *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	lockWait  prometheus.Histogram
	retries   *prometheus.CounterVec
}

// New registra las métricas bajo namespace (ej. "autocare").
func New(namespace string) *LedgerMetrics {
	reg := prometheus.NewRegistry()
	m := &LedgerMetrics{
		registry: reg,
		movements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "inventory",
			Name:      "movements_total",
			Help:      "Movimientos procesados por tipo y estado final.",
		}, []string{"type", "state"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "inventory",
			Name:      "movement_duration_seconds",
			Help:      "Duración del registro de un movimiento.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"type", "state"}),
		lockWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "inventory",
			Name:      "product_lock_wait_seconds",
			Help:      "Espera hasta obtener el lock del producto.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "inventory",
			Name:      "retries_total",
			Help:      "Reintentos por conflicto de concurrencia.",
		}, []string{"reason"}),
	}
	reg.MustRegister(
		m.movements, m.duration, m.lockWait, m.retries,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// MovementFinished cuenta el estado final del movimiento.
func (m *LedgerMetrics) MovementFinished(movementType, state string, elapsed time.Duration) {
	m.movements.WithLabelValues(movementType, state).Inc()
	m.duration.WithLabelValues(movementType, state).Observe(elapsed.Seconds())
}

// LockAcquired observa la espera por el lock.
func (m *LedgerMetrics) LockAcquired(wait time.Duration) {
	m.lockWait.Observe(wait.Seconds())
}

// Retried cuenta un reintento.
func (m *LedgerMetrics) Retried(reason string) {
	m.retries.WithLabelValues(reason).Inc()
}

// Registry registro subyacente (tests y collectors adicionales).
func (m *LedgerMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler handler HTTP de exposición.
func (m *LedgerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
