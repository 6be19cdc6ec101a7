// Copyright (C) 2020-2026, Flowgate Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package elections

import (
	"sort"

	"github.com/luxfi/log"
)

// StorageAccess is the interface an ElectoralSystem implementation borrows
// from the runner for the duration of a single OnFinalize call (spec §9
// "Cyclic ownership" design note: no back-edges, state is passed as an
// argument rather than held via a generic cyclic reference). The Registry
// satisfies this interface directly.
type StorageAccess interface {
	NewElection(extra ExtraTag, properties, state any, storageKind StorageKind, rule ConsensusRule, isVoteValid IsVoteValidFunc) (ElectionID, error)
	RefreshElection(id UniqueMonotonicID, newExtra ExtraTag, newProperties any, keepProperties bool) error
	DeleteElection(id UniqueMonotonicID) error
	SetState(id UniqueMonotonicID, state any) error
	State(id UniqueMonotonicID) (any, error)
	Properties(id UniqueMonotonicID) (any, error)
	CheckConsensus(id UniqueMonotonicID, activeAuthorityCount int, blockHeight uint64) (ConsensusStatus, error)
	History(id UniqueMonotonicID) (ConsensusHistory, error)
	CurrentID(id UniqueMonotonicID) (ElectionID, error)
}

var _ StorageAccess = (*Registry)(nil)

// ElectoralSystem is the typed plug-in instantiated inside the composite
// runner (spec glossary, §4.1 "Composite runner"). The runner holds one
// implementation per SystemKind in a map and calls each through this
// interface, in SystemKind order; it does not switch on the tag (spec §9
// "Runtime polymorphism").
type ElectoralSystem interface {
	Kind() SystemKind
	// OnFinalize runs this system's per-block hook. It never suspends
	// internally; it reads the full input and runs to completion (spec §5
	// "on_finalize never suspends internally").
	OnFinalize(storage StorageAccess, blockHeight uint64) error
}

// Runner is the composite electoral-system dispatcher (C4): a single
// instance hosts a fixed, type-driven set of electoral systems sharing one
// Registry's id space but isolated by SystemKind (spec §4.1).
type Runner struct {
	registry *Registry
	children map[SystemKind]ElectoralSystem
	order    []SystemKind
	log      log.Logger
}

// NewRunner builds a composite runner over the given children. Child order
// is fixed at construction (sorted by SystemKind) so OnFinalize dispatch
// order is deterministic across nodes.
func NewRunner(registry *Registry, children []ElectoralSystem, logger log.Logger) *Runner {
	if logger == nil {
		logger = log.NewNoOpLogger()
	}
	m := make(map[SystemKind]ElectoralSystem, len(children))
	order := make([]SystemKind, 0, len(children))
	for _, c := range children {
		m[c.Kind()] = c
		order = append(order, c.Kind())
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	return &Runner{registry: registry, children: m, order: order, log: logger}
}

// Registry exposes the underlying election registry, e.g. for extrinsic
// handlers that need direct access (vote, provide_shared_data).
func (r *Runner) Registry() *Registry { return r.registry }

// OnFinalize dispatches the per-block hook to every child electoral system
// in deterministic order (spec §4.1 "On-finalize dispatches the child hook
// per child"). Any error from a child, CorruptStorage or otherwise, pauses
// the whole runner (spec §4.1 "Failure"): NewElection, SubmitVote,
// ProvideSharedData and OnFinalize thereafter return ErrElectionsPaused
// until the registry is resumed.
func (r *Runner) OnFinalize(blockHeight uint64) error {
	if r.registry.Paused() {
		return ErrElectionsPaused
	}
	for _, kind := range r.order {
		child := r.children[kind]
		if err := child.OnFinalize(r.registry, blockHeight); err != nil {
			r.log.Error("electoral system finalize failed, pausing elections",
				"system", kind.String(), "error", err)
			r.registry.PauseElections()
			return err
		}
	}
	return nil
}

// Vote implements the vote(election_id, authority_vote) extrinsic (spec
// §6): routed by the election's UniqueMonotonicID, which already pins it to
// exactly one child system regardless of how ExtraTag has since changed.
func (r *Runner) Vote(id ElectionID, authority AuthorityID, vote PartialVote) error {
	return r.registry.SubmitVote(id.Unique, authority, vote)
}

// ProvideSharedData implements the provide_shared_data extrinsic (spec §6).
func (r *Runner) ProvideSharedData(hash SharedDataHash, payload []byte) error {
	return r.registry.ProvideSharedData(hash, payload)
}
