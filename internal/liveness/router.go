// Copyright (C) 2020-2026, Flowgate Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package liveness

import "github.com/flowgate/validator-core/elections"

// VoteSubmitter is the narrow slice of elections.Registry's API a
// RecordingVoteRouter wraps — matching the method p2p.VoteRouter requires,
// so *elections.Registry satisfies it without any change to registry.go.
type VoteSubmitter interface {
	SubmitVote(id elections.UniqueMonotonicID, authority elections.AuthorityID, vote elections.PartialVote) error
}

// RecordingVoteRouter decorates a VoteSubmitter (the election registry) so
// every successfully routed vote also calls Tracker.RecordResponse, giving
// RecordResponse the call site the review flagged as missing. It is meant
// to be handed to p2p.Multiplexer.SetRouters in place of the bare registry.
//
// The wire-level vote only carries a UniqueMonotonicID, not the
// originating ElectoralSystem's SystemKind (that is resolved internally by
// Registry against the election's pinned ExtraTag), so this router cannot
// attribute a response to one specific tracked kind without a second
// registry lookup. Instead it records the authority as responsive across
// every kind named in tracks — a deliberately coarse but conservative
// signal ("this authority is talking to the chain at all") rather than
// guessing which kind a vote belongs to.
type RecordingVoteRouter struct {
	next    VoteSubmitter
	tracker *Tracker
	tracks  []elections.SystemKind
	height  func() uint64
}

// NewRecordingVoteRouter builds a RecordingVoteRouter. height supplies the
// current block height for each recorded response (cmd/validatorcore's
// block-import counter).
func NewRecordingVoteRouter(next VoteSubmitter, tracker *Tracker, height func() uint64, tracks ...elections.SystemKind) *RecordingVoteRouter {
	return &RecordingVoteRouter{next: next, tracker: tracker, tracks: tracks, height: height}
}

// SubmitVote implements p2p.VoteRouter: it forwards to next and, only on
// success, records the authority as responsive for every tracked kind.
func (r *RecordingVoteRouter) SubmitVote(id elections.UniqueMonotonicID, authority elections.AuthorityID, vote elections.PartialVote) error {
	if err := r.next.SubmitVote(id, authority, vote); err != nil {
		return err
	}
	h := uint64(0)
	if r.height != nil {
		h = r.height()
	}
	for _, kind := range r.tracks {
		r.tracker.RecordResponse(kind, authority, h)
	}
	return nil
}
