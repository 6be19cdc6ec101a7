// Copyright (C) 2020-2026, Flowgate Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package liveness

import (
	"github.com/flowgate/validator-core/elections"
)

// AuthoritySetSource supplies the current authority-set view for a given
// electoral-system kind, e.g. internal/validators.Manager. System calls it
// once per OnFinalize per tracked kind, mirroring how Registry's
// SettingsProvider is consulted by new_election (spec §4.1).
type AuthoritySetSource interface {
	AuthoritySet(kind elections.SystemKind) elections.AuthoritySetView
}

// System adapts a Tracker into an elections.ElectoralSystem so the composite
// Runner can host it as the "liveness" child named in spec §2's runner table
// (C4), alongside block-witness/egress-witness/nonce-tracker. It reports
// elections.SystemLiveness as its own Kind() for runner bookkeeping, but its
// OnFinalize hook closes the per-window tick for every kind named in
// Tracks, since liveness watches responsiveness to the other electoral
// systems rather than running elections of its own.
type System struct {
	tracker     *Tracker
	authorities AuthoritySetSource
	tracks      []elections.SystemKind
}

// NewSystem builds the liveness ElectoralSystem. tracks names the electoral
// systems whose voters this instance monitors; authorities resolves each
// kind's current authority set so Tick knows who is still expected to
// respond.
func NewSystem(tracker *Tracker, authorities AuthoritySetSource, tracks ...elections.SystemKind) *System {
	return &System{tracker: tracker, authorities: authorities, tracks: tracks}
}

// Kind implements elections.ElectoralSystem.
func (s *System) Kind() elections.SystemKind { return elections.SystemLiveness }

// OnFinalize implements elections.ElectoralSystem: it closes out the current
// window for every tracked kind, recording non-responders as down for that
// window (Tracker.Tick). RecordResponse is expected to be called by the
// vote-submission path (e.g. cmd/validatorcore's extrinsic dispatch) as
// votes land, ahead of this per-block close-out.
func (s *System) OnFinalize(_ elections.StorageAccess, blockHeight uint64) error {
	for _, kind := range s.tracks {
		var view elections.AuthoritySetView
		if s.authorities != nil {
			view = s.authorities.AuthoritySet(kind)
		}
		s.tracker.Tick(kind, blockHeight, view)
	}
	return nil
}

var _ elections.ElectoralSystem = (*System)(nil)
