// Copyright (C) 2020-2026, Flowgate Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package signing

import (
	"time"
)

// StageSpec is one stage of a ceremony's strict total order (spec §3.5).
// Handle folds the full batch of per-participant messages received for
// the stage into scratch and returns the payload to broadcast for the
// next stage, or nil on the terminal stage.
type StageSpec struct {
	Name   string
	Handle func(scratch any, messages map[AuthorityID][]byte) (broadcast []byte, err error)
}

// Protocol describes one ceremony kind's stage sequence and scratch/result
// lifecycle; Keygen and Signing each provide one (spec §3.5).
type Protocol interface {
	Stages() []StageSpec
	NewScratch(participants []AuthorityID, request Request) any
	FinalValue(scratch any) (any, error)
}

// ceremonyRunner drives one ceremony instance through its protocol's
// stages, buffering early messages for the next stage and aggregating
// blame on timeout (spec §4.6, §9 "cooperative timers").
type ceremonyRunner struct {
	id           CeremonyID
	kind         CeremonyKind
	participants []AuthorityID
	protocol     Protocol
	stages       []StageSpec
	scratch      any

	stageIdx int
	received map[AuthorityID][]byte
	delayed  map[AuthorityID][]byte

	blame *blameAggregator

	deadline      time.Time
	stageTimeout  time.Duration
	lastBroadcast []byte

	done bool
}

func newCeremonyRunner(req Request, protocol Protocol, now time.Time) *ceremonyRunner {
	stages := protocol.Stages()
	r := &ceremonyRunner{
		id:           req.CeremonyID,
		kind:         req.Kind,
		participants: req.Participants,
		protocol:     protocol,
		stages:       stages,
		scratch:      protocol.NewScratch(req.Participants, req),
		received:     make(map[AuthorityID][]byte),
		delayed:      make(map[AuthorityID][]byte),
		blame:        newBlameAggregator(req.Participants),
		stageTimeout: req.StageTimeout,
	}
	r.deadline = now.Add(r.stageTimeout)
	return r
}

func (r *ceremonyRunner) isParticipant(a AuthorityID) bool {
	for _, p := range r.participants {
		if p == a {
			return true
		}
	}
	return false
}

// HandleMessage folds an incoming message into the runner. Messages for
// the current stage are applied immediately; messages one stage ahead are
// buffered (the sender may have already advanced locally); anything else
// is discarded as stale (spec §4.6 step 2, §9).
func (r *ceremonyRunner) HandleMessage(sender AuthorityID, stage int, payload []byte) (advanced bool, err error) {
	if r.done {
		return false, nil
	}
	if !r.isParticipant(sender) {
		return false, ErrNotParticipant
	}
	switch {
	case stage == r.stageIdx:
		if _, dup := r.received[sender]; dup {
			return false, nil
		}
		r.received[sender] = payload
		r.blame.markResponded(sender)
	case stage == r.stageIdx+1:
		r.delayed[sender] = payload
		return false, nil
	default:
		return false, ErrStaleStage
	}

	if len(r.received) < len(r.participants) {
		return false, nil
	}
	if err := r.advance(); err != nil {
		return false, err
	}
	return true, nil
}

// advance folds the completed stage's batch and moves to the next one,
// promoting any buffered delayed messages for the new stage.
func (r *ceremonyRunner) advance() error {
	spec := r.stages[r.stageIdx]
	broadcast, err := spec.Handle(r.scratch, r.received)
	if err != nil {
		return &StageError{Stage: spec.Name, Err: err}
	}
	r.lastBroadcast = broadcast

	r.stageIdx++
	r.received = r.delayed
	r.delayed = make(map[AuthorityID][]byte)
	for sender := range r.received {
		r.blame.markResponded(sender)
	}

	if r.stageIdx >= len(r.stages) {
		r.done = true
		return nil
	}
	r.deadline = r.deadline.Add(r.stageTimeout)
	return nil
}

// LastBroadcast returns the payload produced by the most recent stage
// advance, for the manager to fan out over the transport.
func (r *ceremonyRunner) LastBroadcast() []byte { return r.lastBroadcast }

// Outcome finalizes the ceremony once done, producing the value via the
// protocol or an Err outcome if the runner timed out / was blamed.
func (r *ceremonyRunner) Outcome() Outcome {
	if !r.done {
		return Outcome{}
	}
	value, err := r.protocol.FinalValue(r.scratch)
	if err != nil {
		return Outcome{CeremonyID: r.id, Kind: r.kind, Err: err, Blamed: r.blame.Aggregate(superMajority(len(r.participants)))}
	}
	return Outcome{CeremonyID: r.id, Kind: r.kind, Value: value}
}

// CheckTimeout reports whether the current stage's deadline has elapsed;
// if so the ceremony ends in failure with blame assigned to every
// participant that never delivered a valid stage message (spec §9).
func (r *ceremonyRunner) CheckTimeout(now time.Time) (Outcome, bool) {
	if r.done || now.Before(r.deadline) {
		return Outcome{}, false
	}
	r.done = true
	return Outcome{
		CeremonyID: r.id,
		Kind:       r.kind,
		Err:        ErrCeremonyTimedOut,
		Blamed:     r.blame.Aggregate(superMajority(len(r.participants))),
	}, true
}

// superMajority mirrors the elections package's threshold rule (ceil(2n/3)
// + 1) so blame aggregation and consensus share the same fault model
// (spec §3.4 default_threshold).
func superMajority(n int) int {
	if n == 0 {
		return 0
	}
	return (2*n+2)/3 + 1
}

func (r *ceremonyRunner) CurrentStage() int { return r.stageIdx }
func (r *ceremonyRunner) Done() bool        { return r.done }
