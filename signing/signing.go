// Copyright (C) 2020-2026, Flowgate Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package signing

import (
	"github.com/cockroachdb/errors"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/schnorr"
	"github.com/zeebo/blake3"
)

// signingScratch accumulates a signing ceremony's per-stage state: each
// signer's nonce commitment, the aggregate commitment once revealed, and
// the partial signatures produced over it (spec §3.5 signing stage order).
type signingScratch struct {
	request      Request
	participants []AuthorityID

	commitments    map[AuthorityID][]byte // stage 1: nonce commitment
	revealedPoints map[AuthorityID]*secp256k1.PublicKey
	partialSigs    map[AuthorityID]*secp256k1.ModNScalar
}

// SigningProtocol implements Protocol for the signing ceremony (spec
// §3.5, §4.6 step 4): participants commit to a nonce, reveal it, produce
// a partial Schnorr signature over the aggregate nonce, and the ceremony
// sums the valid partials into the final signature.
type SigningProtocol struct{}

var _ Protocol = SigningProtocol{}

func (SigningProtocol) NewScratch(participants []AuthorityID, req Request) any {
	return &signingScratch{
		request:        req,
		participants:   participants,
		commitments:    make(map[AuthorityID][]byte),
		revealedPoints: make(map[AuthorityID]*secp256k1.PublicKey),
		partialSigs:    make(map[AuthorityID]*secp256k1.ModNScalar),
	}
}

func (SigningProtocol) Stages() []StageSpec {
	return []StageSpec{
		{Name: "commitments_1", Handle: signingCommitments1},
		{Name: "verify_commitments_2", Handle: signingVerifyCommitments2},
		{Name: "local_sigs_3", Handle: signingLocalSigs3},
		{Name: "verify_local_sigs_4", Handle: signingVerifyLocalSigs4},
	}
}

func signingCommitments1(s any, messages map[AuthorityID][]byte) ([]byte, error) {
	scratch := s.(*signingScratch)
	for sender, payload := range messages {
		scratch.commitments[sender] = payload
	}
	return nil, nil
}

// signingVerifyCommitments2 reveals and checks each nonce point against
// its stage-1 commitment, mirroring keygen's hash-then-reveal discipline
// so a participant cannot bias the aggregate nonce after seeing others'
// commitments (spec §4.6 step 4, §9 nonce-reuse note).
func signingVerifyCommitments2(s any, messages map[AuthorityID][]byte) ([]byte, error) {
	scratch := s.(*signingScratch)
	for sender, payload := range messages {
		committed, ok := scratch.commitments[sender]
		if !ok {
			return nil, errors.Newf("no nonce commitment from %s", sender)
		}
		sum := blake3.Sum256(payload)
		if !bytesEqual(sum[:], committed) {
			return nil, errors.Newf("nonce reveal from %s does not match its commitment", sender)
		}
		point, err := secp256k1.ParsePubKey(payload)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid nonce point from %s", sender)
		}
		scratch.revealedPoints[sender] = point
	}
	return nil, nil
}

func signingLocalSigs3(s any, messages map[AuthorityID][]byte) ([]byte, error) {
	scratch := s.(*signingScratch)
	for sender, payload := range messages {
		var scalar secp256k1.ModNScalar
		overflow := scalar.SetByteSlice(payload)
		if overflow {
			return nil, errors.Newf("partial signature scalar overflow from %s", sender)
		}
		scratch.partialSigs[sender] = &scalar
	}
	return nil, nil
}

// signingVerifyLocalSigs4 has nothing further to fold; the aggregate
// signature is assembled and verified once in FinalValue against the
// ceremony's aggregate public key.
func signingVerifyLocalSigs4(_ any, _ map[AuthorityID][]byte) ([]byte, error) {
	return nil, nil
}

func (SigningProtocol) FinalValue(s any) (any, error) {
	scratch := s.(*signingScratch)
	if scratch.request.Threshold > 0 && len(scratch.partialSigs) < scratch.request.Threshold {
		return nil, errors.Newf("signing: only %d of %d required partial signatures present", len(scratch.partialSigs), scratch.request.Threshold)
	}

	var sSum secp256k1.ModNScalar
	for _, sig := range scratch.partialSigs {
		sSum.Add(sig)
	}

	aggNonce := aggregatePoints(scratch.revealedPoints, scratch.participants)

	sig := schnorr.NewSignature(aggNonce.X(), &sSum)
	aggKey, err := secp256k1.ParsePubKey(scratch.request.KeyInfo)
	if err != nil {
		return nil, errors.Wrap(err, "signing: invalid aggregate public key")
	}
	if !sig.Verify(scratch.request.Payload, aggKey) {
		return nil, errors.New("signing: aggregate signature failed verification")
	}
	return &SigningResult{Signature: sig.Serialize()}, nil
}
