// Copyright (C) 2020-2026, Flowgate Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package p2p

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the multiplexer's prometheus collectors (SPEC_FULL.md §B).
type Metrics struct {
	RoutedTotal    *prometheus.CounterVec
	UnroutedTotal  *prometheus.CounterVec
	DecryptFailed  prometheus.Counter
}

// NewMetrics builds and, if reg is non-nil, registers the multiplexer's
// prometheus collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RoutedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "validator_core",
			Subsystem: "p2p",
			Name:      "envelopes_routed_total",
			Help:      "Number of inbound envelopes successfully routed, by domain.",
		}, []string{"domain"}),
		UnroutedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "validator_core",
			Subsystem: "p2p",
			Name:      "envelopes_unrouted_total",
			Help:      "Number of inbound envelopes with no registered handler, by domain.",
		}, []string{"domain"}),
		DecryptFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "validator_core",
			Subsystem: "p2p",
			Name:      "decrypt_failures_total",
			Help:      "Number of inbound messages that failed AEAD authentication.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.RoutedTotal, m.UnroutedTotal, m.DecryptFailed)
	}
	return m
}
