// Copyright (C) 2020-2026, Flowgate Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package metrics builds the engine's root prometheus registry and hands
// each package (elections, blockwitness, signing, p2p, liveness) its own
// sub-registry, so cmd/validatorcore has one place to construct and expose
// metrics instead of each package reaching for a global default registry.
//
// Per-component isolation is real, not cosmetic: each call to For gets its
// own *prometheus.Registry, so a naming collision inside one package (two
// collectors registered under the same name) cannot break another
// package's metrics. The per-component registries are fanned back together
// for scraping by apimetrics.MultiGatherer (adapted from the teacher's
// internal/api/metrics, previously dead code with no caller in this tree).
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apimetrics "github.com/flowgate/validator-core/internal/api/metrics"
)

// Root owns the engine's top-level metric fan-in: one root
// *prometheus.Registry carrying the process/Go collectors, plus one
// per-component sub-registry registered into a MultiGatherer so /metrics
// serves all of them together.
type Root struct {
	root     *prometheus.Registry
	gatherer apimetrics.MultiGatherer
}

// NewRoot builds an empty Root with the standard Go/process collectors
// registered under the "process" namespace, matching what a
// prometheus.NewRegistry() deployment typically exposes.
func NewRoot() *Root {
	root := prometheus.NewRegistry()
	root.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)

	gatherer := apimetrics.NewMultiGatherer()
	// Register is only documented to fail on a duplicate namespace, which
	// cannot happen for the first, fixed "process" registration.
	_ = gatherer.Register("process", root)

	return &Root{root: root, gatherer: gatherer}
}

// For returns a fresh prometheus.Registry scoped to component, registered
// into the root MultiGatherer under that name. Calling For twice with the
// same component is a caller bug (cmd/validatorcore calls it once per
// package at startup) and its second Register error is discarded, since
// MultiGatherer has no way to signal it except a non-nil error this
// constructor-style call site has no good way to surface.
func (r *Root) For(component string) prometheus.Registerer {
	reg := prometheus.NewRegistry()
	_ = r.gatherer.Register(component, reg)
	return reg
}

// Handler returns the HTTP handler cmd/validatorcore mounts at /metrics,
// serving every component's registry fanned together.
func (r *Root) Handler() http.Handler {
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}

// Gatherer exposes the underlying prometheus.Gatherer, e.g. for tests that
// want to scrape collected samples directly.
func (r *Root) Gatherer() prometheus.Gatherer {
	return r.gatherer
}
