package sim

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments a simulation run. A nil *Metrics records nothing.
type Metrics struct {
	Fills     *prometheus.CounterVec
	FillSlips prometheus.Counter
	FillDelay prometheus.Histogram
	Trades    *prometheus.CounterVec
	Equity    prometheus.Gauge
}

// NewMetrics registers the simulation collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Fills: f.NewCounterVec(prometheus.CounterOpts{
			Name: "slipstream_fills_total",
			Help: "Orders filled, by action and order type",
		}, []string{"action", "type"}),
		FillSlips: f.NewCounter(prometheus.CounterOpts{
			Name: "slipstream_fill_slips_total",
			Help: "Ticks on which an eligible pending order did not fill",
		}),
		FillDelay: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "slipstream_fill_delay_seconds",
			Help:    "Simulated time between order placement and fill",
			Buckets: []float64{1, 5, 10, 30, 60, 300, 900, 3600},
		}),
		Trades: f.NewCounterVec(prometheus.CounterOpts{
			Name: "slipstream_trades_total",
			Help: "Realized trades, by side",
		}, []string{"type"}),
		Equity: f.NewGauge(prometheus.GaugeOpts{
			Name: "slipstream_equity",
			Help: "Account equity after the latest fill",
		}),
	}
}

func (m *Metrics) fill(action, typ string, delay time.Duration) {
	if m == nil {
		return
	}
	m.Fills.WithLabelValues(action, typ).Inc()
	m.FillDelay.Observe(delay.Seconds())
}

func (m *Metrics) slip() {
	if m == nil {
		return
	}
	m.FillSlips.Inc()
}

func (m *Metrics) trade(typ string, equity float64) {
	if m == nil {
		return
	}
	m.Trades.WithLabelValues(typ).Inc()
	m.Equity.Set(equity)
}

func (m *Metrics) equity(v float64) {
	if m == nil {
		return
	}
	m.Equity.Set(v)
}
