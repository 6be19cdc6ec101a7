// Copyright (C) 2020-2026, Flowgate Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package signing

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the ceremony manager's prometheus collectors (SPEC_FULL.md
// §B, grounded on the teacher's metrics.Metrics / poll constructor
// pattern), labeled by ceremony kind throughout.
type Metrics struct {
	ceremoniesStarted   *prometheus.CounterVec
	ceremoniesSucceeded *prometheus.CounterVec
	ceremoniesFailed    *prometheus.CounterVec
}

// NewMetrics builds and, if reg is non-nil, registers the ceremony
// manager's prometheus collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ceremoniesStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "validator_core",
			Subsystem: "signing",
			Name:      "ceremonies_started_total",
			Help:      "Number of threshold ceremonies started, by kind.",
		}, []string{"kind"}),
		ceremoniesSucceeded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "validator_core",
			Subsystem: "signing",
			Name:      "ceremonies_succeeded_total",
			Help:      "Number of threshold ceremonies that delivered an Ok outcome, by kind.",
		}, []string{"kind"}),
		ceremoniesFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "validator_core",
			Subsystem: "signing",
			Name:      "ceremonies_failed_total",
			Help:      "Number of threshold ceremonies that delivered an Err outcome, by kind.",
		}, []string{"kind"}),
	}
	if reg != nil {
		reg.MustRegister(m.ceremoniesStarted, m.ceremoniesSucceeded, m.ceremoniesFailed)
	}
	return m
}
