// Copyright (C) 2020-2026, Flowgate Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package elections

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the prometheus collectors the registry updates. Passing a
// nil Registerer to NewMetrics yields collectors that are simply never
// registered, matching the teacher's metrics.Metrics / poll.NewSet
// constructor pattern (SPEC_FULL.md §B).
type Metrics struct {
	electionsOpened  prometheus.Counter
	electionsClosed  prometheus.Counter
	consensusReached prometheus.Counter
}

// NewMetrics builds and, if reg is non-nil, registers the elections
// registry's prometheus collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		electionsOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "validator_core",
			Subsystem: "elections",
			Name:      "opened_total",
			Help:      "Number of elections created.",
		}),
		electionsClosed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "validator_core",
			Subsystem: "elections",
			Name:      "closed_total",
			Help:      "Number of elections deleted.",
		}),
		consensusReached: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "validator_core",
			Subsystem: "elections",
			Name:      "consensus_reached_total",
			Help:      "Number of times an election transitioned to a new consensus value.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.electionsOpened, m.electionsClosed, m.consensusReached)
	}
	return m
}
