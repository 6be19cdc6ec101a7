// Copyright (C) 2020-2026, Flowgate Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package liveness

import "github.com/flowgate/validator-core/elections"

// Observer is the subset of Tracker the composite runner's vote-handling
// path depends on, narrowed so callers that don't need windowed uptime
// percentages (e.g. a chain instance with liveness disabled) can supply
// NoOpObserver instead.
type Observer interface {
	RecordResponse(kind elections.SystemKind, authority elections.AuthorityID, height uint64)
	Tick(kind elections.SystemKind, height uint64, current elections.AuthoritySetView)
}

var _ Observer = (*Tracker)(nil)
var _ Observer = NoOpObserver{}

// NoOpObserver discards every responsiveness signal, mirroring the
// teacher's NoOpCalculator ("always returns 100% uptime" by doing nothing).
type NoOpObserver struct{}

func (NoOpObserver) RecordResponse(elections.SystemKind, elections.AuthorityID, uint64) {}
func (NoOpObserver) Tick(elections.SystemKind, uint64, elections.AuthoritySetView)       {}
