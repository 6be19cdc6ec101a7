// Copyright (C) 2020-2026, Flowgate Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package elections

import (
	"testing"

	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"
)

// testTag is a minimal ExtraTag used by registry tests: a single
// monotonically increasing generation number within one SystemKind.
type testTag struct {
	kind SystemKind
	gen  uint64
}

func (t testTag) Kind() SystemKind { return t.kind }
func (t testTag) Less(other ExtraTag) bool {
	o, ok := other.(testTag)
	return ok && t.gen < o.gen
}

type fakeAuthoritySet struct {
	members map[AuthorityID]int
}

func newFakeAuthoritySet(members ...AuthorityID) *fakeAuthoritySet {
	s := &fakeAuthoritySet{members: make(map[AuthorityID]int)}
	for i, m := range members {
		s.members[m] = i
	}
	return s
}

func (s *fakeAuthoritySet) Contains(id AuthorityID) bool { _, ok := s.members[id]; return ok }
func (s *fakeAuthoritySet) Index(id AuthorityID) (int, bool) {
	idx, ok := s.members[id]
	return idx, ok
}
func (s *fakeAuthoritySet) Len() int { return len(s.members) }

type fakeSettingsProvider struct {
	set AuthoritySetView
}

func (p fakeSettingsProvider) AuthoritySet(SystemKind) AuthoritySetView { return p.set }

func TestRegistry_IDsAreMonotonic(t *testing.T) {
	a := ids.GenerateTestNodeID()
	settings := fakeSettingsProvider{set: newFakeAuthoritySet(a)}
	reg := NewRegistry(settings, 0, nil, nil)

	var prev UniqueMonotonicID
	for i := 0; i < 5; i++ {
		id, err := reg.NewElection(testTag{kind: SystemBlockWitness, gen: uint64(i)}, nil, nil, StorageBitmap, NewSuperMajorityRule(nil), nil)
		require.NoError(t, err)
		require.Greater(t, uint64(id.Unique), uint64(prev))
		prev = id.Unique
	}
}

func TestRegistry_SubmitVote_RejectsNonAuthority(t *testing.T) {
	a := ids.GenerateTestNodeID()
	stranger := ids.GenerateTestNodeID()
	settings := fakeSettingsProvider{set: newFakeAuthoritySet(a)}
	reg := NewRegistry(settings, 0, nil, nil)

	id, err := reg.NewElection(testTag{kind: SystemBlockWitness}, nil, nil, StorageBitmap, NewSuperMajorityRule(nil), nil)
	require.NoError(t, err)

	h := HashSharedData([]byte("v"))
	err = reg.SubmitVote(id.Unique, stranger, PartialVote{Hash: h, Payload: []byte("v")})
	require.ErrorIs(t, err, ErrNotAuthority)
}

func TestRegistry_ConsensusEndToEnd(t *testing.T) {
	authorities := make([]AuthorityID, 4)
	for i := range authorities {
		authorities[i] = ids.GenerateTestNodeID()
	}
	settings := fakeSettingsProvider{set: newFakeAuthoritySet(authorities...)}
	reg := NewRegistry(settings, 0, nil, nil)

	id, err := reg.NewElection(testTag{kind: SystemBlockWitness}, "props", nil, StorageBitmap, NewSuperMajorityRule(nil), nil)
	require.NoError(t, err)

	payload := []byte("block-data")
	h := HashSharedData(payload)

	for i, a := range authorities[:3] {
		err := reg.SubmitVote(id.Unique, a, PartialVote{Hash: h, Payload: payload})
		require.NoError(t, err)
		status, err := reg.CheckConsensus(id.Unique, len(authorities), 10)
		require.NoError(t, err)
		if i < 2 {
			// threshold(4) = 4; with only 1 or 2 votes no consensus yet.
			require.Equal(t, StatusNone, status.Kind)
		}
	}
	// Still short of threshold(4)=4 with 3 votes.
	status, err := reg.CheckConsensus(id.Unique, len(authorities), 10)
	require.NoError(t, err)
	require.Equal(t, StatusNone, status.Kind)

	require.NoError(t, reg.SubmitVote(id.Unique, authorities[3], PartialVote{Hash: h, Payload: payload}))
	status, err = reg.CheckConsensus(id.Unique, len(authorities), 11)
	require.NoError(t, err)
	require.Equal(t, StatusGained, status.Kind)
	require.Equal(t, payload, status.GainedNew)

	hist, err := reg.History(id.Unique)
	require.NoError(t, err)
	require.True(t, hist.Valid)
	require.Equal(t, uint64(11), hist.Block)
}

func TestRegistry_RefreshRequiresGreaterExtra(t *testing.T) {
	a := ids.GenerateTestNodeID()
	settings := fakeSettingsProvider{set: newFakeAuthoritySet(a)}
	reg := NewRegistry(settings, 0, nil, nil)

	id, err := reg.NewElection(testTag{kind: SystemBlockWitness, gen: 1}, nil, nil, StorageBitmap, NewSuperMajorityRule(nil), nil)
	require.NoError(t, err)

	err = reg.RefreshElection(id.Unique, testTag{kind: SystemBlockWitness, gen: 0}, nil, true)
	require.ErrorIs(t, err, ErrStaleExtraTag)

	err = reg.RefreshElection(id.Unique, testTag{kind: SystemBlockWitness, gen: 2}, nil, true)
	require.NoError(t, err)

	current, err := reg.CurrentID(id.Unique)
	require.NoError(t, err)
	require.Equal(t, id.Unique, current.Unique)
	require.Equal(t, uint64(2), current.Extra.(testTag).gen)
}

func TestRegistry_PauseBlocksMutation(t *testing.T) {
	a := ids.GenerateTestNodeID()
	settings := fakeSettingsProvider{set: newFakeAuthoritySet(a)}
	reg := NewRegistry(settings, 0, nil, nil)
	reg.PauseElections()

	_, err := reg.NewElection(testTag{kind: SystemBlockWitness}, nil, nil, StorageBitmap, NewSuperMajorityRule(nil), nil)
	require.ErrorIs(t, err, ErrElectionsPaused)

	reg.OverrideCorruption()
	_, err = reg.NewElection(testTag{kind: SystemBlockWitness}, nil, nil, StorageBitmap, NewSuperMajorityRule(nil), nil)
	require.NoError(t, err)
}

func TestRegistry_DeleteReleasesSharedData(t *testing.T) {
	authorities := []AuthorityID{ids.GenerateTestNodeID(), ids.GenerateTestNodeID()}
	settings := fakeSettingsProvider{set: newFakeAuthoritySet(authorities...)}
	reg := NewRegistry(settings, 0, nil, nil)

	id, err := reg.NewElection(testTag{kind: SystemBlockWitness}, nil, nil, StorageBitmap, NewSuperMajorityRule(nil), nil)
	require.NoError(t, err)

	payload := []byte("v")
	h := HashSharedData(payload)
	require.NoError(t, reg.SubmitVote(id.Unique, authorities[0], PartialVote{Hash: h, Payload: payload}))
	require.Equal(t, uint32(1), reg.shared.RefCount(h))

	require.NoError(t, reg.DeleteElection(id.Unique))
	require.Equal(t, uint32(0), reg.shared.RefCount(h))
	require.False(t, reg.Exists(id.Unique))
}
