// Copyright (C) 2020-2026, Flowgate Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package vault documents the downstream consumer of a successful
// key-rotation ceremony's Outcome::Ok(key) (SPEC_FULL.md §C.6, grounded on
// original_source/set_agg_key_with_agg_key.rs and key_manager.rs): the
// on-chain call that installs a freshly keygen'd aggregate key as a
// chain's new vault address. As with chainclient, this is a downstream
// collaborator's shape, not a core responsibility — the signing ceremony
// manager (C7) never constructs one itself, it only produces the
// signing.Outcome a caller turns into a KeyRotationProposal.
package vault

import (
	"fmt"

	"github.com/flowgate/validator-core/signing"
)

// ProposalStatus tracks a KeyRotationProposal from creation through
// on-chain submission, mirroring the "propose, then a separate extrinsic
// activates it" pattern the original key-manager rotation flow uses.
type ProposalStatus uint8

const (
	ProposalPending ProposalStatus = iota
	ProposalSubmitted
	ProposalActivated
	ProposalRejected
)

func (s ProposalStatus) String() string {
	switch s {
	case ProposalPending:
		return "pending"
	case ProposalSubmitted:
		return "submitted"
	case ProposalActivated:
		return "activated"
	case ProposalRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// KeyRotationProposal is the on-chain call that installs a ceremony's
// freshly-generated aggregate key as a chain's new vault key, keyed by the
// CeremonyID that produced it so duplicate submission is detectable.
type KeyRotationProposal struct {
	CeremonyID         signing.CeremonyID
	AggregatePublicKey []byte
	Status             ProposalStatus
}

// FromKeygenOutcome builds a pending KeyRotationProposal from a keygen
// ceremony's terminal Outcome (spec §4.6 step 4 "Outcome::Ok(key)"). It
// rejects any outcome that is not a successful keygen: a signing-ceremony
// outcome or a blamed/failed keygen has no aggregate key to propose.
func FromKeygenOutcome(outcome signing.Outcome) (*KeyRotationProposal, error) {
	if outcome.Kind != signing.CeremonyKeygen {
		return nil, fmt.Errorf("vault: outcome for ceremony %d is a %s ceremony, not keygen", outcome.CeremonyID, outcome.Kind)
	}
	if outcome.Err != nil {
		return nil, fmt.Errorf("vault: ceremony %d did not complete successfully: %w", outcome.CeremonyID, outcome.Err)
	}
	result, ok := outcome.Value.(*signing.KeygenResult)
	if !ok || result == nil {
		return nil, fmt.Errorf("vault: ceremony %d outcome has no keygen result", outcome.CeremonyID)
	}
	if len(result.AggregatePublicKey) == 0 {
		return nil, fmt.Errorf("vault: ceremony %d produced an empty aggregate key", outcome.CeremonyID)
	}
	return &KeyRotationProposal{
		CeremonyID:         outcome.CeremonyID,
		AggregatePublicKey: result.AggregatePublicKey,
		Status:             ProposalPending,
	}, nil
}

// MarkSubmitted transitions a pending proposal to submitted, once the
// caller has dispatched the corresponding set_agg_key_with_agg_key-style
// extrinsic. It is a no-op (returns false) if the proposal is not pending.
func (p *KeyRotationProposal) MarkSubmitted() bool {
	if p.Status != ProposalPending {
		return false
	}
	p.Status = ProposalSubmitted
	return true
}

// MarkActivated transitions a submitted proposal to activated, once the
// chain has confirmed the new vault key is in effect.
func (p *KeyRotationProposal) MarkActivated() bool {
	if p.Status != ProposalSubmitted {
		return false
	}
	p.Status = ProposalActivated
	return true
}

// MarkRejected records that the chain refused the proposal (e.g. a
// competing rotation already activated), from any non-terminal status.
func (p *KeyRotationProposal) MarkRejected() bool {
	if p.Status == ProposalActivated || p.Status == ProposalRejected {
		return false
	}
	p.Status = ProposalRejected
	return true
}
