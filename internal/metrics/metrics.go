// Package metrics holds the counters the session engine reports. Each engine
// registers on its own registry so tests and concurrent sessions stay isolated.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors for one engine.
type Metrics struct {
	Registry     *prometheus.Registry
	CacheLookups *prometheus.CounterVec
	Operations   *prometheus.CounterVec
	Rows         *prometheus.GaugeVec
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "telefilter",
			Name:      "cache_lookups_total",
			Help:      "Memo cache lookups by cache name and result (hit|miss).",
		}, []string{"cache", "result"}),
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "telefilter",
			Name:      "operations_total",
			Help:      "Pipeline operations by name and status (ok|error).",
		}, []string{"op", "status"}),
		Rows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "telefilter",
			Name:      "rows",
			Help:      "Row count of the last raw and filtered datasets.",
		}, []string{"dataset"}),
	}
	m.Registry.MustRegister(m.CacheLookups, m.Operations, m.Rows)
	return m
}

// Op records the outcome of one operation.
func (m *Metrics) Op(name string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.Operations.WithLabelValues(name, status).Inc()
}

// Snapshot flattens every counter and gauge into "name{labels}" -> value.
func (m *Metrics) Snapshot() (map[string]float64, error) {
	mfs, err := m.Registry.Gather()
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64)
	for _, mf := range mfs {
		for _, metric := range mf.GetMetric() {
			key := mf.GetName()
			labels := ""
			for _, lp := range metric.GetLabel() {
				if labels != "" {
					labels += ","
				}
				labels += lp.GetName() + "=" + lp.GetValue()
			}
			if labels != "" {
				key += "{" + labels + "}"
			}
			switch {
			case metric.GetCounter() != nil:
				out[key] = metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				out[key] = metric.GetGauge().GetValue()
			}
		}
	}
	return out, nil
}
