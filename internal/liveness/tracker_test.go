// Copyright (C) 2020-2026, Flowgate Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package liveness

import (
	"testing"

	"github.com/flowgate/validator-core/elections"
	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"
)

func TestTracker_RecordResponseMarksWindowLive(t *testing.T) {
	tr := NewTracker(4, nil)
	a := ids.GenerateTestNodeID()
	tr.StartTracking(elections.SystemLiveness, []elections.AuthorityID{a})

	require.False(t, tr.IsLive(elections.SystemLiveness, a))

	tr.RecordResponse(elections.SystemLiveness, a, 1)
	require.True(t, tr.IsLive(elections.SystemLiveness, a))

	pct, err := tr.CalculateUptimePercent(elections.SystemLiveness, a)
	require.NoError(t, err)
	require.Equal(t, 1.0, pct)
}

func TestTracker_TickWithoutResponseMarksWindowDown(t *testing.T) {
	tr := NewTracker(4, nil)
	a := ids.GenerateTestNodeID()
	tr.StartTracking(elections.SystemLiveness, []elections.AuthorityID{a})

	tr.RecordResponse(elections.SystemLiveness, a, 1)
	tr.Tick(elections.SystemLiveness, 1, nil) // same height as RecordResponse: no-op
	require.True(t, tr.IsLive(elections.SystemLiveness, a))

	tr.Tick(elections.SystemLiveness, 2, nil) // a never responded at height 2
	require.False(t, tr.IsLive(elections.SystemLiveness, a))

	pct, err := tr.CalculateUptimePercent(elections.SystemLiveness, a)
	require.NoError(t, err)
	require.InDelta(t, 0.5, pct, 0.0001)
}

func TestTracker_TickSkipsAuthoritiesOutsideCurrentSet(t *testing.T) {
	tr := NewTracker(4, nil)
	a, b := ids.GenerateTestNodeID(), ids.GenerateTestNodeID()
	tr.StartTracking(elections.SystemLiveness, []elections.AuthorityID{a, b})
	tr.RecordResponse(elections.SystemLiveness, a, 1)
	tr.RecordResponse(elections.SystemLiveness, b, 1)

	current := fakeAuthoritySet{members: map[elections.AuthorityID]struct{}{a: {}}}
	tr.Tick(elections.SystemLiveness, 2, current) // b rotated out, should not be marked down

	require.False(t, tr.IsLive(elections.SystemLiveness, a))
	require.True(t, tr.IsLive(elections.SystemLiveness, b))
}

func TestTracker_StopTrackingDropsAuthority(t *testing.T) {
	tr := NewTracker(4, nil)
	a := ids.GenerateTestNodeID()
	tr.StartTracking(elections.SystemLiveness, []elections.AuthorityID{a})
	tr.RecordResponse(elections.SystemLiveness, a, 1)

	tr.StopTracking(elections.SystemLiveness, []elections.AuthorityID{a})
	require.False(t, tr.IsLive(elections.SystemLiveness, a))
}

type fakeAuthoritySet struct {
	members map[elections.AuthorityID]struct{}
}

func (f fakeAuthoritySet) Contains(a elections.AuthorityID) bool {
	_, ok := f.members[a]
	return ok
}
func (f fakeAuthoritySet) Index(elections.AuthorityID) (int, bool) { return 0, false }
func (f fakeAuthoritySet) Len() int                                 { return len(f.members) }
