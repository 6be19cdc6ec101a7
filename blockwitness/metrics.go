// Copyright (C) 2020-2026, Flowgate Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package blockwitness

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the block-data witnesser's prometheus collectors
// (SPEC_FULL.md §B, grounded on the teacher's metrics.Metrics / poll
// constructor pattern).
type Metrics struct {
	electionsOpened prometheus.Counter
	electionsClosed prometheus.Counter
	reorgs          prometheus.Counter
	eventsEmitted   *prometheus.CounterVec
}

// NewMetrics builds and, if reg is non-nil, registers the block-witnesser's
// prometheus collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		electionsOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "validator_core",
			Subsystem: "block_witness",
			Name:      "elections_opened_total",
			Help:      "Number of per-block elections opened.",
		}),
		electionsClosed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "validator_core",
			Subsystem: "block_witness",
			Name:      "elections_closed_total",
			Help:      "Number of per-block elections closed after reaching consensus.",
		}),
		reorgs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "validator_core",
			Subsystem: "block_witness",
			Name:      "reorgs_total",
			Help:      "Number of reorgs processed.",
		}),
		eventsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "validator_core",
			Subsystem: "block_witness",
			Name:      "events_emitted_total",
			Help:      "Number of events emitted, labeled by rule.",
		}, []string{"rule"}),
	}
	if reg != nil {
		reg.MustRegister(m.electionsOpened, m.electionsClosed, m.reorgs, m.eventsEmitted)
	}
	return m
}
