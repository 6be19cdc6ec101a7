// Copyright (C) 2020-2026, Flowgate Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package p2p

import (
	"bytes"
	"testing"

	"github.com/flowgate/validator-core/elections"
	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"
)

// identitySession is a CipherSession test double that skips real AEAD
// framing, letting tests focus on envelope routing rather than qzmq's
// handshake/encryption machinery (covered separately in the qzmq package).
type identitySession struct{}

func (identitySession) Encrypt(p []byte) ([]byte, error) { return p, nil }
func (identitySession) Decrypt(c []byte) ([]byte, error) { return c, nil }

type recordingVoteRouter struct {
	calls []elections.PartialVote
}

func (r *recordingVoteRouter) SubmitVote(_ elections.UniqueMonotonicID, _ elections.AuthorityID, vote elections.PartialVote) error {
	r.calls = append(r.calls, vote)
	return nil
}

func TestMultiplexer_RoutesDecryptedVoteEnvelope(t *testing.T) {
	peerAuthority := ids.GenerateTestNodeID()

	mux := NewMultiplexer(nil)
	router := &recordingVoteRouter{}
	mux.SetRouters(router, nil, nil)
	mux.AddPeer(peerAuthority, identitySession{})

	hash := elections.HashSharedData([]byte("vote payload"))
	var buf bytes.Buffer
	env := Envelope{Domain: DomainElectionVote, ID: 42, Payload: hash[:]}
	require.NoError(t, env.Write(&buf))

	require.NoError(t, mux.HandleCiphertext(peerAuthority, buf.Bytes()))
	require.Len(t, router.calls, 1)
	require.Equal(t, hash, router.calls[0].Hash)
}

func TestMultiplexer_UnroutedDomainIsReported(t *testing.T) {
	peerAuthority := ids.GenerateTestNodeID()

	mux := NewMultiplexer(nil)
	mux.AddPeer(peerAuthority, identitySession{})

	var buf bytes.Buffer
	env := Envelope{Domain: DomainElectionVote, ID: 1}
	require.NoError(t, env.Write(&buf))

	require.ErrorIs(t, mux.HandleCiphertext(peerAuthority, buf.Bytes()), ErrUnroutable)
}

func TestMultiplexer_SendFramesCeremonyStageEnvelope(t *testing.T) {
	a, b := ids.GenerateTestNodeID(), ids.GenerateTestNodeID()
	mux := NewMultiplexer(nil)
	mux.AddPeer(a, identitySession{})
	mux.AddPeer(b, identitySession{})

	mux.Broadcast(7, 0, 2, []byte("stage payload"))

	var env Envelope
	raw, err := mux.Send(a, Envelope{Domain: DomainCeremonyStage, ID: 7, Stage: 2, Payload: []byte("stage payload")})
	require.NoError(t, err)
	require.NoError(t, env.Read(bytes.NewReader(raw)))
	require.Equal(t, uint64(7), env.ID)
	require.Equal(t, uint32(2), env.Stage)
}
