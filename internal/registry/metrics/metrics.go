package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Metrics provides observability for the registry module.
type Metrics struct {
	Operations        *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	Shareholders      prometheus.Gauge
	CacheLookups      *prometheus.CounterVec
}

// New creates the registry metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "shareledger_registry_operations_total",
			Help: "Registry operations by operation and outcome",
		}, []string{"operation", "outcome"}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "shareledger_registry_operation_duration_seconds",
			Help:    "Duration of registry operations",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
		Shareholders: factory.NewGauge(prometheus.GaugeOpts{
			Name: "shareledger_registry_shareholders",
			Help: "Number of registered shareholders, including zero-share records",
		}),
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "shareledger_registry_cache_lookups_total",
			Help: "Share cache lookups by result (hit, miss, error, bypass)",
		}, []string{"result"}),
	}
}

// ObserveOperation records one finished operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveOperation(operation, outcome string, start time.Time) {
	m.Operations.WithLabelValues(operation, outcome).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func (m *Metrics) SetShareholders(n int) {
	m.Shareholders.Set(float64(n))
}

func (m *Metrics) AddShareholders(delta int) {
	m.Shareholders.Add(float64(delta))
}

func (m *Metrics) IncrementCacheLookup(result string) {
	m.CacheLookups.WithLabelValues(result).Inc()
}
