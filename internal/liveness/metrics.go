// Copyright (C) 2020-2026, Flowgate Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package liveness

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the liveness tracker's prometheus collectors.
type Metrics struct {
	TicksTotal    *prometheus.CounterVec
	UptimePercent *prometheus.GaugeVec
}

// NewMetrics builds and, if reg is non-nil, registers the tracker's
// prometheus collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TicksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "validator_core",
			Subsystem: "liveness",
			Name:      "ticks_total",
			Help:      "Number of window-close ticks processed, by electoral system kind.",
		}, []string{"kind"}),
		UptimePercent: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "validator_core",
			Subsystem: "liveness",
			Name:      "uptime_percent",
			Help:      "Last-computed windowed response rate per authority, by kind and authority.",
		}, []string{"kind", "authority"}),
	}
	if reg != nil {
		reg.MustRegister(m.TicksTotal, m.UptimePercent)
	}
	return m
}
