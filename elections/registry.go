// Copyright (C) 2020-2026, Flowgate Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package elections

import (
	"sync"

	"github.com/luxfi/log"
)

// AuthoritySetView gates vote acceptance to the epoch pinned by an
// election's settings_ref (Invariant §3.2.2) and supplies the authority's
// bitmap index.
type AuthoritySetView interface {
	Contains(AuthorityID) bool
	Index(AuthorityID) (int, bool)
	Len() int
}

// SettingsProvider supplies the authority set pinned "now", for a given
// child electoral system. The registry calls it exactly once per
// new_election, then holds the returned view for that election's lifetime
// (spec §4.1: refresh_election "does NOT reload settings_ref").
type SettingsProvider interface {
	AuthoritySet(kind SystemKind) AuthoritySetView
}

// StorageKind selects which of the two vote-storage encodings (§3.3) an
// electoral system wants for a given election.
type StorageKind uint8

const (
	StorageBitmap StorageKind = iota
	StorageIndividual
)

// PartialVote carries only the deterministic identifying component of a
// vote (often just a SharedDataHash); the full Vote payload may arrive
// later via ProvideSharedData (spec §3.3).
type PartialVote struct {
	Hash    SharedDataHash
	Payload []byte // non-nil when the authority submitted the full Vote directly
}

// IsVoteValidFunc gates PartialVote acceptance; it must be consistent
// across both storage encodings (spec §3.3).
type IsVoteValidFunc func(PartialVote) bool

// ConsensusHistory is the most recently seen Consensus value plus the block
// at which it was last observed (spec §3.2).
type ConsensusHistory struct {
	Value []byte
	Block uint64
	Valid bool
}

type electionRecord struct {
	uniqueID     UniqueMonotonicID
	extra        ExtraTag
	properties   any
	state        any
	authorities  AuthoritySetView
	votes        VoteStorage
	shared       *SharedDataStore
	rule         ConsensusRule
	isVoteValid  IsVoteValidFunc
	status       ConsensusStatus
	history      ConsensusHistory
	hasPrevious  bool
	previous     []byte
	dirty        bool
	votedByHash  map[SharedDataHash]struct{} // for RemoveAuthorityVote bookkeeping is delegated to VoteStorage
}

func (r *electionRecord) id() ElectionID {
	return ElectionID{Unique: r.uniqueID, Extra: r.extra}
}

// electionVoteTally adapts an electionRecord to the ConsensusRule's
// VoteTally interface, resolving hashes through the shared-data store.
type electionVoteTally struct {
	record *electionRecord
}

func (t electionVoteTally) CountsByHash() map[SharedDataHash]int {
	return t.record.votes.CountsByHash()
}

func (t electionVoteTally) Resolve(h SharedDataHash) ([]byte, bool) {
	return t.record.shared.Get(h)
}

// Registry is the election registry (C2): it stores every live election,
// assigns fresh monotonic ids, and exposes the mutation surface used by the
// composite runner (C4) and by extrinsic handlers (§6).
type Registry struct {
	mu        sync.Mutex
	allocator *IDAllocator
	shared    *SharedDataStore
	elections map[UniqueMonotonicID]*electionRecord
	settings  SettingsProvider
	paused    bool
	log       log.Logger
	metrics   *Metrics
}

// NewRegistry constructs an empty registry resuming id allocation from
// lastPersistedID (persisted counter, spec §6).
func NewRegistry(settings SettingsProvider, lastPersistedID uint64, logger log.Logger, metrics *Metrics) *Registry {
	if logger == nil {
		logger = log.NewNoOpLogger()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Registry{
		allocator: NewIDAllocator(lastPersistedID),
		shared:    NewSharedDataStore(),
		elections: make(map[UniqueMonotonicID]*electionRecord),
		settings:  settings,
		log:       logger,
		metrics:   metrics,
	}
}

// NewElection allocates a fresh UniqueMonotonicID, pins the current
// authority set, and initialises empty vote storage under storageKind
// (spec §4.1 "new_election").
func (r *Registry) NewElection(
	extra ExtraTag,
	properties any,
	state any,
	storageKind StorageKind,
	rule ConsensusRule,
	isVoteValid IsVoteValidFunc,
) (ElectionID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.paused {
		return ElectionID{}, ErrElectionsPaused
	}

	authorities := r.settings.AuthoritySet(extra.Kind())

	var votes VoteStorage
	switch storageKind {
	case StorageBitmap:
		votes = NewBitmapVoteStorage(r.shared)
	case StorageIndividual:
		votes = NewIndividualVoteStorage()
	default:
		return ElectionID{}, newCorruptStorage(ElectionID{}, "unknown storage kind")
	}

	uniqueID := r.allocator.Next()
	rec := &electionRecord{
		uniqueID:    uniqueID,
		extra:       extra,
		properties:  properties,
		state:       state,
		authorities: authorities,
		votes:       votes,
		shared:      r.shared,
		rule:        rule,
		isVoteValid: isVoteValid,
		status:      statusNone(),
	}
	r.elections[uniqueID] = rec
	r.metrics.electionsOpened.Inc()
	r.log.Debug("election created", "id", rec.id().String())
	return rec.id(), nil
}

// RefreshElection keeps the UniqueMonotonicID (and thus the votes), and
// replaces extra_tag (which must be strictly greater under its type's
// ordering) and optionally properties. It does NOT reload settings_ref, so
// the pinned authority set and every vote recorded under it carry over
// unchanged (spec §4.1 "refresh_election", P8).
func (r *Registry) RefreshElection(id UniqueMonotonicID, newExtra ExtraTag, newProperties any, keepProperties bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.elections[id]
	if !ok {
		return ErrUnknownElection
	}
	if !rec.extra.Less(newExtra) {
		return ErrStaleExtraTag
	}
	rec.extra = newExtra
	if !keepProperties {
		rec.properties = newProperties
	}
	// No vote and no partial-vote-to-shared-data binding is cleared here:
	// a partial vote whose payload has not arrived keeps counting toward
	// its hash under the new extra tag. The refresh only marks the cached
	// consensus dirty so the next check_consensus re-evaluates against
	// current votes.
	rec.dirty = true
	r.log.Debug("election refreshed", "id", rec.id().String())
	return nil
}

// DeleteElection removes state, votes, and settings reference, and
// releases the shared-data refcounts every bitmap vote held (spec §4.1
// "delete_election").
func (r *Registry) DeleteElection(id UniqueMonotonicID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.elections[id]
	if !ok {
		return ErrUnknownElection
	}
	if bitmap, isBitmap := rec.votes.(*BitmapVoteStorage); isBitmap {
		for authority := range bitmap.byAuthority {
			bitmap.RemoveAuthorityVote(authority)
		}
	}
	delete(r.elections, id)
	r.metrics.electionsClosed.Inc()
	return nil
}

// SetState mutates an election's state and invalidates the cached
// consensus_status so the next CheckConsensus re-evaluates (spec §4.1
// "election_mut(id).set_state").
func (r *Registry) SetState(id UniqueMonotonicID, state any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.elections[id]
	if !ok {
		return ErrUnknownElection
	}
	rec.state = state
	rec.dirty = true
	return nil
}

// State returns the current per-election scratch state.
func (r *Registry) State(id UniqueMonotonicID) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.elections[id]
	if !ok {
		return nil, ErrUnknownElection
	}
	return rec.state, nil
}

// Properties returns the election's immutable-after-refresh properties.
func (r *Registry) Properties(id UniqueMonotonicID) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.elections[id]
	if !ok {
		return nil, ErrUnknownElection
	}
	return rec.properties, nil
}

// CurrentID returns the full ElectionID (including the current ExtraTag)
// for a UniqueMonotonicID still live in the registry.
func (r *Registry) CurrentID(id UniqueMonotonicID) (ElectionID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.elections[id]
	if !ok {
		return ElectionID{}, ErrUnknownElection
	}
	return rec.id(), nil
}

// SubmitVote is the core of the vote(election_id, authority_vote)
// extrinsic (spec §6): it gates on epoch membership, dispatches to bitmap
// or individual storage, and marks consensus dirty on any change.
func (r *Registry) SubmitVote(id UniqueMonotonicID, authority AuthorityID, vote PartialVote) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.paused {
		return ErrElectionsPaused
	}
	rec, ok := r.elections[id]
	if !ok {
		return ErrUnknownElection
	}
	if !rec.authorities.Contains(authority) {
		return ErrNotAuthority
	}
	if rec.isVoteValid != nil && !rec.isVoteValid(vote) {
		return ErrInvalidVote
	}
	index, _ := rec.authorities.Index(authority)

	if vote.Payload != nil {
		rec.shared.Provide(vote.Payload)
	}
	changed := rec.votes.SubmitVote(authority, index, vote.Hash)
	if changed {
		rec.dirty = true
	}
	return nil
}

// ProvideSharedData backs the provide_shared_data extrinsic: late delivery
// of a payload for a previously submitted PartialVote (spec §3.3, §6).
func (r *Registry) ProvideSharedData(hash SharedDataHash, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.paused {
		return ErrElectionsPaused
	}
	if err := r.shared.ProvideMatching(hash, payload); err != nil {
		return err
	}
	// A majority could already be sitting on this hash waiting for
	// resolution; mark every election dirty that might be affected, since
	// CheckConsensus returns the cached status of an election that is not
	// dirty.
	for _, rec := range r.elections {
		if _, ok := rec.votes.CountsByHash()[hash]; ok {
			rec.dirty = true
		}
	}
	return nil
}

// CheckConsensus returns the status diff since the previous call and
// updates the cached value (spec §4.1 "check_consensus"). It is a no-op
// (returns the cached status) if neither votes nor state have changed.
func (r *Registry) CheckConsensus(id UniqueMonotonicID, activeAuthorityCount int, blockHeight uint64) (ConsensusStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.elections[id]
	if !ok {
		return ConsensusStatus{}, ErrUnknownElection
	}
	if !rec.dirty {
		return rec.status, nil
	}
	tally := electionVoteTally{record: rec}
	status, value, ok2 := checkConsensus(rec.rule, tally, rec.state, activeAuthorityCount, rec.previous, rec.hasPrevious)
	if status.Kind == StatusGained && rec.history.Valid {
		status.GainedMostRecent = rec.history.Value
	}
	rec.status = status
	rec.dirty = false
	if ok2 {
		rec.previous = value
		rec.hasPrevious = true
		rec.history = ConsensusHistory{Value: value, Block: blockHeight, Valid: true}
		if status.Kind != StatusUnchanged {
			r.metrics.consensusReached.Inc()
		}
	} else if status.Kind == StatusLost {
		rec.hasPrevious = false
	}
	return status, nil
}

// History returns the most recently observed Consensus value and the block
// at which it was last seen (spec §3.2 "consensus_history").
func (r *Registry) History(id UniqueMonotonicID) (ConsensusHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.elections[id]
	if !ok {
		return ConsensusHistory{}, ErrUnknownElection
	}
	return rec.history, nil
}

// PauseElections implements the pause_elections() governance extrinsic
// (spec §6).
func (r *Registry) PauseElections() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paused = true
}

// ResumeElections implements the resume_elections() governance extrinsic
// (spec §6).
func (r *Registry) ResumeElections() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paused = false
}

// Paused reports whether the registry currently refuses mutating calls.
func (r *Registry) Paused() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.paused
}

// OverrideCorruption implements the override_corruption() governance escape
// hatch (spec §6): it resumes the registry after a CorruptStorage pause.
// Callers are expected to have already repaired or discarded the offending
// election out of band.
func (r *Registry) OverrideCorruption() {
	r.ResumeElections()
}

// Exists reports whether id is still live in the registry.
func (r *Registry) Exists(id UniqueMonotonicID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.elections[id]
	return ok
}

// Len reports the number of live elections, for metrics/tests.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.elections)
}
