// Package metrics exposes decision-cycle metrics in the Prometheus text
// format:
//
//	capitalgo_recommendations_total{component,kind}  recommendations emitted
//	capitalgo_liquidity_balance                      last liquidity balance
//	capitalgo_liquidity_urgency                      last urgency (0-100)
//	capitalgo_liquidity_status{status}               1 for the current status
//	capitalgo_cycle_errors_total                     cycles that produced no report
//	capitalgo_cooldown_blocked_total                 sales held back by the cooldown
//	capitalgo_cycle_duration_seconds                 collection plus evaluation time
package metrics

import (
	"net/http"
	"time"

	"github.com/dyike/CapitalGo/internal/engine"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	recommendations *prometheus.CounterVec
	balance         prometheus.Gauge
	urgency         prometheus.Gauge
	status          *prometheus.GaugeVec
	cycleErrors     prometheus.Counter
	cooldownBlocked prometheus.Counter
	cycleDuration   prometheus.Histogram
}

var statuses = []engine.Status{
	engine.StatusHealthy,
	engine.StatusModerate,
	engine.StatusLow,
	engine.StatusCritical,
}

// New registers every metric on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		recommendations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "capitalgo_recommendations_total",
				Help: "Recommendations emitted, by component and kind.",
			},
			[]string{"component", "kind"},
		),
		balance: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "capitalgo_liquidity_balance",
			Help: "Liquidity balance seen by the last cycle.",
		}),
		urgency: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "capitalgo_liquidity_urgency",
			Help: "Liquidity urgency of the last cycle (0-100).",
		}),
		// one labeled series per status, flipped between 0 and 1
		status: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "capitalgo_liquidity_status",
				Help: "Liquidity status indicator.",
			},
			[]string{"status"},
		),
		cycleErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "capitalgo_cycle_errors_total",
			Help: "Cycles that failed before producing a report.",
		}),
		cooldownBlocked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "capitalgo_cooldown_blocked_total",
			Help: "Fuel sale recommendations held back by the cooldown.",
		}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "capitalgo_cycle_duration_seconds",
			Help:    "Time spent collecting and evaluating one cycle.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	m.registry.MustRegister(
		m.recommendations,
		m.balance,
		m.urgency,
		m.status,
		m.cycleErrors,
		m.cooldownBlocked,
		m.cycleDuration,
	)
	return m
}

// Registry returns the registry the metrics live on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves /metrics for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveReport records the outcome of one cycle.
func (m *Metrics) ObserveReport(r engine.Report, took time.Duration) {
	c := r.Fuel.Classification
	m.balance.Set(c.Balance.InexactFloat64())
	m.urgency.Set(float64(c.Urgency))
	for _, s := range statuses {
		v := 0.0
		if s == c.Status {
			v = 1
		}
		m.status.WithLabelValues(s.String()).Set(v)
	}

	if r.Fuel.Recommendation != nil {
		m.recommendations.WithLabelValues("fuel", string(r.Fuel.Recommendation.Kind())).Inc()
	}
	if r.Reserve != nil {
		m.recommendations.WithLabelValues("reserve", string(r.Reserve.Kind())).Inc()
	}
	for _, t := range r.Tradeables.Sellable {
		m.recommendations.WithLabelValues("tradeable", string(t.Kind())).Inc()
	}
	m.cycleDuration.Observe(took.Seconds())
}

func (m *Metrics) CycleError() { m.cycleErrors.Inc() }

func (m *Metrics) CooldownBlocked() { m.cooldownBlocked.Inc() }
