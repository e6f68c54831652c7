package loader

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics 汇总加载器的 Prometheus 指标，注册到调用方提供的 Registerer。
type Metrics struct {
	loads       *prometheus.CounterVec
	cacheLookup *prometheus.CounterVec
	transitions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	inflight    prometheus.Gauge
}

// NewMetrics 创建并注册指标；reg 为 nil 时指标仅在内存中累积。
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tanxium",
			Subsystem: "loader",
			Name:      "loads_total",
			Help:      "Module loads by category and outcome.",
		}, []string{"category", "outcome"}),
		cacheLookup: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tanxium",
			Subsystem: "loader",
			Name:      "cache_lookups_total",
			Help:      "Remote module cache lookups by result.",
		}, []string{"result"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tanxium",
			Subsystem: "loader",
			Name:      "state_transitions_total",
			Help:      "State machine transitions by target state.",
		}, []string{"state"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tanxium",
			Subsystem: "loader",
			Name:      "load_duration_seconds",
			Help:      "Time from Load to completion.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		}, []string{"category"}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tanxium",
			Subsystem: "loader",
			Name:      "inflight_loads",
			Help:      "Loads started but not yet completed.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.loads, m.cacheLookup, m.transitions, m.duration, m.inflight)
	}
	return m
}

// Observe 记录状态迁移次数，可直接作为 Observer 使用。
func (m *Metrics) Observe(tr Transition) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(tr.To.String()).Inc()
}

func (m *Metrics) started() {
	if m == nil {
		return
	}
	m.inflight.Inc()
}

func (m *Metrics) finished(category string, failed bool, seconds float64) {
	if m == nil {
		return
	}
	outcome := "ok"
	if failed {
		outcome = "error"
	}
	m.inflight.Dec()
	m.loads.WithLabelValues(category, outcome).Inc()
	m.duration.WithLabelValues(category).Observe(seconds)
}

func (m *Metrics) cacheResult(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheLookup.WithLabelValues("hit").Inc()
		return
	}
	m.cacheLookup.WithLabelValues("miss").Inc()
}
