// Copyright (C) 2020-2026, Flowgate Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package signing

import (
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"
	"github.com/zeebo/blake3"
)

func genNoncePayload(t *testing.T) (payload, hash []byte) {
	t.Helper()
	priv, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)
	payload = priv.PubKey().SerializeCompressed()
	sum := blake3.Sum256(payload)
	return payload, sum[:]
}

func TestSigning_NonceCommitMismatchRejected(t *testing.T) {
	a := ids.GenerateTestNodeID()
	scratch := &signingScratch{commitments: map[AuthorityID][]byte{a: []byte("bogus")}}
	payload, _ := genNoncePayload(t)

	_, err := signingVerifyCommitments2(scratch, map[AuthorityID][]byte{a: payload})
	require.Error(t, err)
}

func TestSigning_NonceCommitMatchAccepted(t *testing.T) {
	a := ids.GenerateTestNodeID()
	payload, hash := genNoncePayload(t)
	scratch := &signingScratch{
		commitments:    map[AuthorityID][]byte{a: hash},
		revealedPoints: map[AuthorityID]*secp256k1.PublicKey{},
	}

	_, err := signingVerifyCommitments2(scratch, map[AuthorityID][]byte{a: payload})
	require.NoError(t, err)
	require.Contains(t, scratch.revealedPoints, a)
}

func TestSigning_PartialSignatureOverflowRejected(t *testing.T) {
	a := ids.GenerateTestNodeID()
	scratch := &signingScratch{partialSigs: map[AuthorityID]*secp256k1.ModNScalar{}}
	overflowBytes := make([]byte, 32)
	for i := range overflowBytes {
		overflowBytes[i] = 0xff
	}

	_, err := signingLocalSigs3(scratch, map[AuthorityID][]byte{a: overflowBytes})
	require.Error(t, err)
}

func TestSigning_FinalValueRejectsBelowThreshold(t *testing.T) {
	proto := SigningProtocol{}
	a, b := ids.GenerateTestNodeID(), ids.GenerateTestNodeID()
	req := Request{Threshold: 2}
	scratch := proto.NewScratch([]AuthorityID{a, b}, req).(*signingScratch)

	var scalar secp256k1.ModNScalar
	scalar.SetInt(1)
	scratch.partialSigs[a] = &scalar

	_, err := proto.FinalValue(scratch)
	require.Error(t, err)
}
