// Copyright (C) 2020-2026, Flowgate Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package signing implements the threshold-signing ceremony manager (C7):
// per-ceremony state machines for a FROST-style Schnorr keygen and its
// signing successor, with cooperative concurrency, timeout-based blame,
// and replay protection by a monotonic ceremony identifier (spec §4.6).
package signing

import (
	"fmt"
	"time"

	"github.com/flowgate/validator-core/elections"
)

// AuthorityID identifies a ceremony participant (spec §3.1).
type AuthorityID = elections.AuthorityID

// CeremonyID is a 64-bit counter for signing/keygen ceremonies (spec §3.1).
// The Manager rejects an id it has already consumed in this process; it
// does not check that ids increase and keeps its consumed set only in
// memory, so it does not detect reuse across restarts.
type CeremonyID uint64

// CeremonyKind distinguishes a keygen ceremony from a signing ceremony;
// each has its own strictly ordered stage sequence (spec §3.5).
type CeremonyKind uint8

const (
	CeremonyKeygen CeremonyKind = iota
	CeremonySigning
)

func (k CeremonyKind) String() string {
	if k == CeremonyKeygen {
		return "keygen"
	}
	return "signing"
}

// KeygenStage enumerates the strict total order of a keygen ceremony
// (spec §3.5): HashCommit1 → VerifyHashCommit2 → Coefficients3 →
// Complaints4 → BlameResponses5 → VerifyBlames6 → Done.
type KeygenStage int

const (
	KeygenHashCommit1 KeygenStage = iota
	KeygenVerifyHashCommit2
	KeygenCoefficients3
	KeygenComplaints4
	KeygenBlameResponses5
	KeygenVerifyBlames6
	KeygenDone
)

// SigningStage enumerates the strict total order of a signing ceremony
// (spec §3.5): Commitments1 → VerifyCommitments2 → LocalSigs3 →
// VerifyLocalSigs4 → Done.
type SigningStage int

const (
	SigningCommitments1 SigningStage = iota
	SigningVerifyCommitments2
	SigningLocalSigs3
	SigningVerifyLocalSigs4
	SigningDone
)

// Outcome is delivered to the ceremony's caller exactly once (spec §3.5
// invariant 3, P5): either Ok(value) or Err(blamed participants).
type Outcome struct {
	CeremonyID CeremonyID
	Kind       CeremonyKind
	Value      any // *KeygenResult or *SigningResult depending on Kind
	Err        error
	Blamed     []AuthorityID
}

func (o Outcome) String() string {
	if o.Err != nil {
		return fmt.Sprintf("ceremony %d (%s): err=%v blamed=%v", o.CeremonyID, o.Kind, o.Err, o.Blamed)
	}
	return fmt.Sprintf("ceremony %d (%s): ok", o.CeremonyID, o.Kind)
}

// KeygenResult is the aggregated output of a successful keygen ceremony.
type KeygenResult struct {
	AggregatePublicKey []byte
	// SecretShare is this node's share of the aggregate private key; it
	// never leaves the process and is not serialized onto the wire.
	SecretShare []byte
}

// SigningResult is the aggregated output of a successful signing ceremony:
// a Schnorr signature verifying against the aggregate public key and
// payload (spec §4.6 step 4).
type SigningResult struct {
	Signature []byte
}

// Request is what a caller submits to start a ceremony (spec §4.6 step 1).
type Request struct {
	CeremonyID   CeremonyID
	Kind         CeremonyKind
	Participants []AuthorityID
	Payload      []byte     // signing only
	KeyInfo      []byte     // signing only: aggregate key / share metadata
	Threshold    int        // signing: minimum signer count
	StageTimeout time.Duration
}
