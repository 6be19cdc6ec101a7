// Copyright (C) 2020-2026, Flowgate Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package log is a thin wrapper over github.com/luxfi/log, the logger type
// every other engine package (elections, blockwitness, signing, p2p)
// accepts as log.Logger. It exists so cmd/validatorcore has one place to
// build a component-scoped logger from config.EngineConfig instead of each
// package constructing its own.
package log

import (
	"github.com/luxfi/log"
)

// Logger is re-exported for callers that want to depend on this package
// alone rather than reaching for github.com/luxfi/log directly.
type Logger = log.Logger

// NewNoOpLogger returns a logger that discards everything, for tests and
// for electoral systems run without a configured sink.
func NewNoOpLogger() Logger {
	return log.NewNoOpLogger()
}

// Component returns base scoped under a "component" field, so every line a
// package logs is attributable to it (elections, blockwitness, signing,
// p2p, liveness, runtime) without each package hand-rolling the same With
// call.
func Component(base Logger, name string) Logger {
	if base == nil {
		base = NewNoOpLogger()
	}
	return base.With("component", name)
}
