// Copyright (C) 2020-2026, Flowgate Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package liveness

import (
	"testing"

	"github.com/flowgate/validator-core/elections"
	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"
)

type fakeSubmitter struct {
	err   error
	calls int
}

func (f *fakeSubmitter) SubmitVote(elections.UniqueMonotonicID, elections.AuthorityID, elections.PartialVote) error {
	f.calls++
	return f.err
}

func TestRecordingVoteRouter_RecordsResponseOnSuccess(t *testing.T) {
	tr := NewTracker(4, nil)
	a := ids.GenerateTestNodeID()
	tr.StartTracking(elections.SystemBlockWitness, []elections.AuthorityID{a})

	router := NewRecordingVoteRouter(&fakeSubmitter{}, tr, func() uint64 { return 3 }, elections.SystemBlockWitness)
	require.NoError(t, router.SubmitVote(1, a, elections.PartialVote{}))

	require.True(t, tr.IsLive(elections.SystemBlockWitness, a))
}

func TestRecordingVoteRouter_SkipsRecordingOnError(t *testing.T) {
	tr := NewTracker(4, nil)
	a := ids.GenerateTestNodeID()
	tr.StartTracking(elections.SystemBlockWitness, []elections.AuthorityID{a})

	failing := &fakeSubmitter{err: elections.ErrUnknownElection}
	router := NewRecordingVoteRouter(failing, tr, func() uint64 { return 1 }, elections.SystemBlockWitness)

	require.Error(t, router.SubmitVote(1, a, elections.PartialVote{}))
	require.False(t, tr.IsLive(elections.SystemBlockWitness, a))
}
