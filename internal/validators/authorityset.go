// Copyright (C) 2020-2026, Flowgate Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package validators adapts the teacher's validator-set manager into the
// engine's authority-set abstraction: elections.AuthoritySetView and
// elections.SettingsProvider (spec §3.2.2, §6 "a vote is only accepted if
// its submitter is an authority for the epoch pinned by settings_ref").
package validators

import (
	"fmt"
	"sync"

	"github.com/flowgate/validator-core/elections"
)

// Epoch identifies a validator-set generation; settings_ref pins an
// election to one epoch's view for its entire lifetime.
type Epoch uint64

// Manager holds one authority set per (SystemKind, Epoch) pair and per
// electoral-system kind, mirroring the teacher's subnet-keyed validator
// manager (validators.manager) but keyed by our engine's system kinds and
// epochs instead of subnet ids.
type Manager struct {
	mu    sync.RWMutex
	sets  map[elections.SystemKind]map[Epoch]map[elections.AuthorityID]struct{}
	epoch map[elections.SystemKind]Epoch // current epoch per system kind
}

// NewManager constructs an empty authority-set manager.
func NewManager() *Manager {
	return &Manager{
		sets:  make(map[elections.SystemKind]map[Epoch]map[elections.AuthorityID]struct{}),
		epoch: make(map[elections.SystemKind]Epoch),
	}
}

// SetEpoch installs the authority set effective as of epoch for kind,
// becoming the set AuthoritySet(kind) returns until the next SetEpoch call
// (spec §4.1: new elections capture this view once and hold it).
func (m *Manager) SetEpoch(kind elections.SystemKind, epoch Epoch, authorities []elections.AuthorityID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set := make(map[elections.AuthorityID]struct{}, len(authorities))
	for _, a := range authorities {
		set[a] = struct{}{}
	}
	if m.sets[kind] == nil {
		m.sets[kind] = make(map[Epoch]map[elections.AuthorityID]struct{})
	}
	m.sets[kind][epoch] = set
	if epoch >= m.epoch[kind] {
		m.epoch[kind] = epoch
	}
}

// AuthoritySet implements elections.SettingsProvider: it returns the
// current epoch's set for kind, or an empty set if none has been
// installed yet.
func (m *Manager) AuthoritySet(kind elections.SystemKind) elections.AuthoritySetView {
	m.mu.RLock()
	defer m.mu.RUnlock()
	current := m.epoch[kind]
	set, ok := m.sets[kind][current]
	if !ok {
		return emptySet{}
	}
	return &authoritySetView{members: set}
}

// AtEpoch returns the view pinned to a specific historical epoch, for
// settings_ref values that predate the current epoch.
func (m *Manager) AtEpoch(kind elections.SystemKind, epoch Epoch) (elections.AuthoritySetView, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	set, ok := m.sets[kind][epoch]
	if !ok {
		return nil, fmt.Errorf("validators: no authority set for kind %s epoch %d", kind, epoch)
	}
	return &authoritySetView{members: set}, nil
}

type authoritySetView struct {
	members map[elections.AuthorityID]struct{}
}

func (v *authoritySetView) Contains(a elections.AuthorityID) bool {
	_, ok := v.members[a]
	return ok
}

// Index returns a deterministic position for a, derived from sorting the
// set's members by their NodeID string form, matching the bitmap index
// contract BitmapVoteStorage relies on (spec §3.3 bitmap encoding).
func (v *authoritySetView) Index(a elections.AuthorityID) (int, bool) {
	if _, ok := v.members[a]; !ok {
		return 0, false
	}
	ordered := sortedMembers(v.members)
	for i, m := range ordered {
		if m == a {
			return i, true
		}
	}
	return 0, false
}

func (v *authoritySetView) Len() int { return len(v.members) }

func sortedMembers(members map[elections.AuthorityID]struct{}) []elections.AuthorityID {
	out := make([]elections.AuthorityID, 0, len(members))
	for m := range members {
		out = append(out, m)
	}
	// ids.NodeID sorts lexicographically on its fixed-width byte form via
	// its string encoding; stable enough to index a bitmap consistently
	// for the lifetime of one epoch's view.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].String() < out[j-1].String(); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

type emptySet struct{}

func (emptySet) Contains(elections.AuthorityID) bool      { return false }
func (emptySet) Index(elections.AuthorityID) (int, bool)  { return 0, false }
func (emptySet) Len() int                                  { return 0 }
