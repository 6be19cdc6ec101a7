// Copyright (C) 2020-2026, Flowgate Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package vault

import (
	"errors"
	"testing"

	"github.com/flowgate/validator-core/signing"
	"github.com/stretchr/testify/require"
)

func TestFromKeygenOutcome_BuildsPendingProposal(t *testing.T) {
	outcome := signing.Outcome{
		CeremonyID: 7,
		Kind:       signing.CeremonyKeygen,
		Value:      &signing.KeygenResult{AggregatePublicKey: []byte{0x01, 0x02}},
	}

	p, err := FromKeygenOutcome(outcome)
	require.NoError(t, err)
	require.Equal(t, signing.CeremonyID(7), p.CeremonyID)
	require.Equal(t, ProposalPending, p.Status)
}

func TestFromKeygenOutcome_RejectsSigningKind(t *testing.T) {
	outcome := signing.Outcome{Kind: signing.CeremonySigning, Value: &signing.SigningResult{}}
	_, err := FromKeygenOutcome(outcome)
	require.Error(t, err)
}

func TestFromKeygenOutcome_RejectsFailedOutcome(t *testing.T) {
	outcome := signing.Outcome{
		Kind: signing.CeremonyKeygen,
		Err:  errors.New("not enough signers"),
	}
	_, err := FromKeygenOutcome(outcome)
	require.Error(t, err)
}

func TestKeyRotationProposal_StatusTransitions(t *testing.T) {
	p := &KeyRotationProposal{Status: ProposalPending}

	require.True(t, p.MarkSubmitted())
	require.False(t, p.MarkSubmitted())

	require.True(t, p.MarkActivated())
	require.False(t, p.MarkRejected())
}
